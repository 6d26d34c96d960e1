// Package services – context assembly
//
// Builds the system context for a turn from up to six sources, always in the
// same order: persona, specialization module, knowledge base, case fields,
// document chunks, similar theses. The intent decides which optional blocks
// are fetched at all. A failing source is logged and skipped; assembly never
// fails a turn. When the assembled text exceeds the rune budget, sections are
// truncated starting from the tail of the ordering.
package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/tbourn/go-juris-backend/internal/domain"
	"github.com/tbourn/go-juris-backend/internal/kb"
	"github.com/tbourn/go-juris-backend/internal/repo"
	"github.com/tbourn/go-juris-backend/internal/search"
)

// DefaultPersona is used when neither the conversation nor the configuration
// overrides it.
const DefaultPersona = "Você é um assistente jurídico brasileiro. Responda com precisão técnica, " +
	"cite fundamentos legais quando pertinente e nunca invente jurisprudência."

// specializationByIntent maps an intent to extra behavioral instructions.
var specializationByIntent = map[string]string{
	IntentDrafting: "Tarefa atual: redigir uma peça processual completa, com estrutura formal " +
		"(endereçamento, qualificação, fatos, fundamentos, pedidos).",
	IntentKnowledge:    "Tarefa atual: pesquisar e resumir material jurídico de referência.",
	IntentCaseQuestion: "Tarefa atual: responder sobre o processo em discussão usando os autos fornecidos.",
	IntentClarification: "Tarefa atual: responder de forma direta à dúvida pontual do usuário, " +
		"sem repetir contexto já apresentado.",
}

// ContextAssembler gathers and orders prompt context.
type ContextAssembler struct {
	DB        *gorm.DB
	Retriever *search.Retriever
	Cache     kb.Cache
	Fetcher   kb.Fetcher // refreshes mirrored references on cache expiry

	Persona     string // default persona; conversation override wins
	ChunkTopK   int
	ThesisTopK  int
	BudgetRunes int
}

// section is one assembled block, in priority order (lower index survives
// truncation longer).
type section struct {
	name string
	text string
}

// Assemble builds the system context for one turn.
func (a *ContextAssembler) Assemble(ctx context.Context, conv *domain.Conversation, intent, userMessage string) string {
	ctx, span := otel.Tracer("services/ContextAssembler").Start(ctx, "Assemble")
	defer span.End()

	sections := make([]section, 0, 6)

	// persona
	persona := a.Persona
	if conv.PersonaOverride != "" {
		persona = conv.PersonaOverride
	}
	if persona == "" {
		persona = DefaultPersona
	}
	sections = append(sections, section{"persona", persona})

	// specialization
	if spec, ok := specializationByIntent[intent]; ok {
		sections = append(sections, section{"specialization", spec})
	}

	// knowledge base: always for knowledge searches, skipped for clarifications
	if intent != IntentClarification {
		if block := a.knowledgeBlock(ctx, conv.UserID); block != "" {
			sections = append(sections, section{"knowledge", block})
		}
	}

	// case fields
	if conv.CaseID != nil {
		if block := a.caseBlock(ctx, conv.UserID, *conv.CaseID); block != "" {
			sections = append(sections, section{"case", block})
		}
		// document chunks
		if intent != IntentClarification {
			k := a.ChunkTopK
			if intent == IntentDrafting {
				k *= 2 // drafting pulls a wider evidence window
			}
			if block := a.chunkBlock(ctx, conv.UserID, *conv.CaseID, userMessage, k); block != "" {
				sections = append(sections, section{"chunks", block})
			}
		}
	}

	// similar theses: only when drafting
	if intent == IntentDrafting {
		if block := a.thesisBlock(ctx, conv.UserID, userMessage); block != "" {
			sections = append(sections, section{"theses", block})
		}
	}

	return joinWithinBudget(sections, a.BudgetRunes)
}

// knowledgeBlock concatenates the user's reference documents with separators.
// Docs mirrored from an external source are served from the expiring cache; a
// miss re-fetches the source so the mirror stays current, falling back to the
// stored copy when the source is unreachable.
func (a *ContextAssembler) knowledgeBlock(ctx context.Context, userID string) string {
	docs, err := repo.ListKnowledgeDocs(ctx, a.DB, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("knowledge base unavailable, omitting block")
		return ""
	}
	if len(docs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		content := d.Content
		if d.SourceURL != "" && a.Cache != nil {
			if cached, ok := a.Cache.Get(ctx, userID, d.ID); ok {
				content = cached
			} else {
				if a.Fetcher != nil {
					if fresh, ferr := a.Fetcher.Fetch(ctx, d.SourceURL); ferr == nil && strings.TrimSpace(fresh) != "" {
						content = fresh
					} else if ferr != nil {
						log.Debug().Err(ferr).Str("doc_id", d.ID).Msg("reference refresh failed, using stored copy")
					}
				}
				_ = a.Cache.Set(ctx, userID, d.ID, content)
			}
		}
		parts = append(parts, fmt.Sprintf("### %s\n%s", d.Title, content))
	}
	return "Base de conhecimento:\n" + strings.Join(parts, "\n---\n")
}

// caseBlock renders the structured case record with labeled fields.
func (a *ContextAssembler) caseBlock(ctx context.Context, userID, caseID string) string {
	c, err := repo.GetCase(ctx, a.DB, caseID, userID)
	if err != nil {
		log.Warn().Err(err).Str("case_id", caseID).Msg("case record unavailable, omitting block")
		return ""
	}
	var b strings.Builder
	b.WriteString("Dados do processo:\n")
	writeField := func(label, v string) {
		if strings.TrimSpace(v) != "" {
			b.WriteString(label)
			b.WriteString(": ")
			b.WriteString(v)
			b.WriteByte('\n')
		}
	}
	writeField("Número", c.Identifier)
	writeField("Partes", c.Parties)
	writeField("Juízo", c.Court)
	writeField("Assunto", c.Subject)
	writeField("Fatos", c.Facts)
	writeField("Provas", c.Evidence)
	writeField("Pedidos", c.Requests)
	writeField("Situação", c.Status)
	return strings.TrimRight(b.String(), "\n")
}

// chunkBlock renders the top-k retrieved document chunks with page tags.
func (a *ContextAssembler) chunkBlock(ctx context.Context, userID, caseID, query string, k int) string {
	hits, err := a.Retriever.TopChunks(ctx, userID, caseID, query, k)
	if err != nil {
		log.Warn().Err(err).Str("case_id", caseID).Msg("chunk retrieval failed, omitting block")
		return ""
	}
	if len(hits) == 0 {
		return ""
	}
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, fmt.Sprintf("[doc p.%d] %s", h.Chunk.Page, h.Chunk.Text))
	}
	return "Trechos dos autos:\n" + strings.Join(parts, "\n\n")
}

// thesisBlock renders the user's most similar learned theses.
func (a *ContextAssembler) thesisBlock(ctx context.Context, userID, query string) string {
	hits, err := a.Retriever.TopTheses(ctx, userID, query, a.ThesisTopK)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("thesis retrieval failed, omitting block")
		return ""
	}
	if len(hits) == 0 {
		return ""
	}
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		t := h.Thesis
		entry := "Tese: " + t.LegalThesis
		if t.LegalFoundations != "" {
			entry += "\nFundamentos: " + t.LegalFoundations
		}
		if t.WritingStyleSample != "" {
			entry += "\nAmostra de estilo: " + t.WritingStyleSample
		}
		parts = append(parts, entry)
	}
	return "Teses aprendidas em casos anteriores:\n" + strings.Join(parts, "\n---\n")
}

// joinWithinBudget concatenates sections with blank lines, trimming from the
// last section backwards when the total exceeds the budget. The persona is
// never dropped entirely.
func joinWithinBudget(sections []section, budget int) string {
	if len(sections) == 0 {
		return ""
	}
	if budget <= 0 {
		parts := make([]string, len(sections))
		for i, s := range sections {
			parts[i] = s.text
		}
		return strings.Join(parts, "\n\n")
	}

	const sep = "\n\n"
	total := 0
	for i, s := range sections {
		total += utf8.RuneCountInString(s.text)
		if i > 0 {
			total += len(sep)
		}
	}

	for total > budget && len(sections) > 0 {
		last := len(sections) - 1
		lastLen := utf8.RuneCountInString(sections[last].text)
		excess := total - budget

		if last == 0 {
			// persona alone over budget: hard clip
			r := []rune(sections[0].text)
			if budget < len(r) {
				sections[0].text = string(r[:budget])
			}
			total = budget
			break
		}
		if excess >= lastLen {
			// Clipping cannot absorb the overflow; drop the section and its
			// separator and keep going.
			sections = sections[:last]
			total -= lastLen + len(sep)
			continue
		}
		r := []rune(sections[last].text)
		sections[last].text = string(r[:lastLen-excess])
		total = budget
	}

	parts := make([]string, len(sections))
	for i, s := range sections {
		parts[i] = s.text
	}
	return strings.Join(parts, "\n\n")
}
