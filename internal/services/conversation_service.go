// Package services – ConversationService
//
// Manages the lifecycle of conversations: creation, listing with pagination,
// renaming, pinning, linking to cases, and deletion. It also owns the two
// best-effort enrichments that run off the first user turn: automatic title
// generation and case-metadata extraction from an attached document. Both are
// log-only on failure and never block a turn.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-juris-backend/internal/domain"
	"github.com/tbourn/go-juris-backend/internal/llm"
	"github.com/tbourn/go-juris-backend/internal/repo"
)

// placeholder titles eligible for auto-generation
const defaultTitle = "Nova conversa"

// ConversationService provides conversation-level operations.
type ConversationService struct {
	DB      *gorm.DB
	Gateway llm.Gateway

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
}

// NewConversationService constructs a ConversationService with defaults.
func NewConversationService(db *gorm.DB, gw llm.Gateway) *ConversationService {
	return &ConversationService{DB: db, Gateway: gw, TitleMaxLen: 60}
}

// Create inserts a new conversation owned by userID, optionally linked to a
// case the user owns.
func (s *ConversationService) Create(ctx context.Context, userID, title string, caseID *string) (*domain.Conversation, error) {
	if caseID != nil {
		if _, err := repo.GetCase(ctx, s.DB, *caseID, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCaseNotFound
			}
			return nil, err
		}
	}
	conv, err := repo.CreateConversation(ctx, s.DB, userID, s.clip(normalizeTitle(title)))
	if err != nil {
		return nil, err
	}
	if caseID != nil {
		if err := repo.SetConversationCase(ctx, s.DB, conv.ID, userID, caseID); err != nil {
			return nil, err
		}
		conv.CaseID = caseID
	}
	return conv, nil
}

// List returns all conversations for a user.
func (s *ConversationService) List(ctx context.Context, userID string) ([]domain.Conversation, error) {
	return repo.ListConversations(ctx, s.DB, userID)
}

// ListPage returns a page of conversations plus the total count.
func (s *ConversationService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Conversation, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountConversations(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Conversation{}, 0, nil
	}
	items, err := repo.ListConversationsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Get fetches one conversation, enforcing ownership.
func (s *ConversationService) Get(ctx context.Context, userID, id string) (*domain.Conversation, error) {
	conv, err := repo.GetConversation(ctx, s.DB, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return conv, nil
}

// Rename updates the title. Blank titles fall back to the default.
func (s *ConversationService) Rename(ctx context.Context, userID, id, title string) error {
	title = normalizeTitle(title)
	if title == "" {
		title = defaultTitle
	}
	err := repo.UpdateConversationTitle(ctx, s.DB, id, userID, s.clip(title))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrConversationNotFound
	}
	return err
}

// SetPinned pins or unpins a conversation.
func (s *ConversationService) SetPinned(ctx context.Context, userID, id string, pinned bool) error {
	err := repo.SetConversationPinned(ctx, s.DB, id, userID, pinned)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrConversationNotFound
	}
	return err
}

// Delete removes a conversation and its messages.
func (s *ConversationService) Delete(ctx context.Context, userID, id string) error {
	err := repo.DeleteConversation(ctx, s.DB, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrConversationNotFound
	}
	return err
}

// FindCaseDuplicates returns the user's other conversations already grounded
// on a case with the same normalized identifier, so the caller can offer to
// merge context. The current conversation is always excluded, and ownership
// of it is checked first.
func (s *ConversationService) FindCaseDuplicates(ctx context.Context, userID, conversationID, identifier string) ([]domain.Conversation, error) {
	if _, err := repo.GetConversation(ctx, s.DB, conversationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return repo.ListConversationsByCaseIdentifier(ctx, s.DB, userID, identifier, conversationID)
}

// ListMessagesPage returns paginated messages for a conversation the user
// owns.
func (s *ConversationService) ListMessagesPage(ctx context.Context, userID, conversationID string, page, pageSize int) ([]domain.Message, int64, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "ListMessagesPage",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	if _, err := repo.GetConversation(ctx, s.DB, conversationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrConversationNotFound
		}
		return nil, 0, err
	}

	total, err := repo.CountMessages(ctx, s.DB, conversationID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}
	items, err := repo.ListMessagesPage(ctx, s.DB, conversationID, offset, pageSize)
	return items, total, err
}

// --- directive execution ---

// ExecuteDirective runs a recognized command in its own prompt/response
// cycle. Directives never go through the grounded turn pipeline: each one
// builds a dedicated prompt from just the material it needs.
func (s *ConversationService) ExecuteDirective(ctx context.Context, conv *domain.Conversation, d Directive) (string, error) {
	if s.Gateway == nil {
		return "", errors.New("no model gateway configured")
	}
	switch d.Kind {
	case DirectiveMinuta:
		return s.composeDraft(ctx, conv, d.Arg)
	case DirectiveBuscar:
		return s.searchKnowledge(ctx, conv.UserID, d.Arg)
	case DirectiveTese:
		return s.summarizeAsThesis(ctx, conv)
	}
	return "", errors.New("directive has no execution cycle")
}

// composeDraft asks the model for the final draft for the given verdict,
// grounded on the linked case record when there is one.
func (s *ConversationService) composeDraft(ctx context.Context, conv *domain.Conversation, verdict string) (string, error) {
	if strings.TrimSpace(verdict) == "" {
		return "Informe o veredito: /minuta <veredito>.", nil
	}
	var b strings.Builder
	b.WriteString("Veredito: ")
	b.WriteString(verdict)
	if conv.CaseID != nil {
		if c, err := repo.GetCase(ctx, s.DB, *conv.CaseID, conv.UserID); err == nil {
			b.WriteString("\n\nDados do processo:\nNúmero: " + c.Identifier)
			if c.Parties != "" {
				b.WriteString("\nPartes: " + c.Parties)
			}
			if c.Subject != "" {
				b.WriteString("\nAssunto: " + c.Subject)
			}
			if c.Facts != "" {
				b.WriteString("\nFatos: " + c.Facts)
			}
			if c.Requests != "" {
				b.WriteString("\nPedidos: " + c.Requests)
			}
		} else {
			log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("case unavailable for draft composition")
		}
	}
	return s.Gateway.Complete(ctx, []llm.ChatMessage{
		{Role: domain.RoleSystem, Content: "Componha a minuta final da decisão para o veredito indicado, " +
			"com relatório, fundamentação e dispositivo. Responda apenas com o texto da peça."},
		{Role: domain.RoleUser, Content: b.String()},
	})
}

// searchKnowledge answers a topic query over the user's own reference
// material, not over the case or the conversation history.
func (s *ConversationService) searchKnowledge(ctx context.Context, userID, topic string) (string, error) {
	if strings.TrimSpace(topic) == "" {
		return "Informe o tema: /buscar <tema>.", nil
	}
	docs, err := repo.ListKnowledgeDocs(ctx, s.DB, userID)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "A base de conhecimento está vazia.", nil
	}
	var b strings.Builder
	b.WriteString("Tema: ")
	b.WriteString(topic)
	b.WriteString("\n\nMaterial disponível:\n")
	for _, d := range docs {
		b.WriteString("### " + d.Title + "\n")
		b.WriteString(clipRunes(d.Content, 2000))
		b.WriteString("\n---\n")
	}
	return s.Gateway.Complete(ctx, []llm.ChatMessage{
		{Role: domain.RoleSystem, Content: "Pesquise o material de referência fornecido e responda sobre o tema pedido, " +
			"citando os títulos consultados. Diga claramente quando nada for pertinente."},
		{Role: domain.RoleUser, Content: b.String()},
	})
}

// summarizeAsThesis condenses the recent session into a reusable thesis.
func (s *ConversationService) summarizeAsThesis(ctx context.Context, conv *domain.Conversation) (string, error) {
	msgs, err := repo.LastMessages(ctx, s.DB, conv.ID, 20)
	if err != nil {
		return "", err
	}
	if len(msgs) == 0 {
		return "A conversa ainda não tem conteúdo para resumir.", nil
	}
	var b strings.Builder
	for _, m := range msgs {
		label := "Usuário"
		if m.Role == domain.RoleAssistant {
			label = "Assistente"
		}
		b.WriteString(label + ": " + clipRunes(m.Content, 1500) + "\n")
	}
	return s.Gateway.Complete(ctx, []llm.ChatMessage{
		{Role: domain.RoleSystem, Content: "Resuma a sessão a seguir como uma tese jurídica reutilizável: " +
			"enuncie a tese, os fundamentos legais e as palavras-chave."},
		{Role: domain.RoleUser, Content: b.String()},
	})
}

// clipRunes truncates a string to at most max runes.
func clipRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// --- first-turn enrichments ---

// MaybeGenerateTitle replaces a placeholder title with one derived from the
// first user message. It first asks the model for a short title; when that
// fails, it falls back to title-cased truncation of the message. Failures are
// logged and swallowed.
func (s *ConversationService) MaybeGenerateTitle(ctx context.Context, conv *domain.Conversation, firstMessage string) {
	if strings.TrimSpace(strings.ToLower(conv.Title)) != strings.ToLower(defaultTitle) {
		return
	}
	title := s.generateTitle(ctx, firstMessage)
	if title == "" {
		return
	}
	if err := repo.UpdateConversationTitle(ctx, s.DB, conv.ID, conv.UserID, title); err != nil {
		log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("auto-title update failed")
		return
	}
	conv.Title = title
}

func (s *ConversationService) generateTitle(ctx context.Context, firstMessage string) string {
	firstMessage = strings.TrimSpace(firstMessage)
	if firstMessage == "" {
		return ""
	}
	if s.Gateway != nil {
		out, err := s.Gateway.Complete(ctx, []llm.ChatMessage{
			{Role: domain.RoleSystem, Content: "Gere um título curto (máximo 6 palavras) para a conversa a seguir. Responda apenas com o título."},
			{Role: domain.RoleUser, Content: firstMessage},
		})
		if err == nil {
			if t := s.clip(normalizeTitle(strings.Trim(out, `"“”`))); t != "" {
				return t
			}
		} else {
			log.Debug().Err(err).Msg("model title generation failed, using truncation")
		}
	}
	return s.clip(truncatedTitle(firstMessage))
}

// truncatedTitle title-cases the head of the message as a naive fallback.
func truncatedTitle(message string) string {
	words := strings.Fields(message)
	if len(words) > 6 {
		words = words[:6]
	}
	caser := cases.Title(language.BrazilianPortuguese)
	return caser.String(strings.ToLower(strings.Join(words, " ")))
}

// caseMetadata is the strict JSON shape requested from the model when
// extracting case fields from a document head.
type caseMetadata struct {
	Identifier string `json:"identifier"`
	Parties    string `json:"parties"`
	Court      string `json:"court"`
	Subject    string `json:"subject"`
}

// MaybeExtractCase inspects the head of an attached document and links the
// conversation to an existing case with the same normalized identifier, or
// creates a new one. Best-effort: every failure is logged and swallowed.
func (s *ConversationService) MaybeExtractCase(ctx context.Context, conv *domain.Conversation, documentHead string) {
	if conv.CaseID != nil || strings.TrimSpace(documentHead) == "" || s.Gateway == nil {
		return
	}

	const headLimit = 4000
	if utf8.RuneCountInString(documentHead) > headLimit {
		documentHead = string([]rune(documentHead)[:headLimit])
	}

	out, err := s.Gateway.Complete(ctx, []llm.ChatMessage{
		{Role: domain.RoleSystem, Content: "Extraia do texto os metadados do processo judicial e responda apenas com JSON: " +
			`{"identifier":"","parties":"","court":"","subject":""}. Campos desconhecidos ficam vazios.`},
		{Role: domain.RoleUser, Content: documentHead},
	})
	if err != nil {
		log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("case metadata extraction failed")
		return
	}

	var meta caseMetadata
	if err := json.Unmarshal([]byte(extractJSON(out)), &meta); err != nil || strings.TrimSpace(meta.Identifier) == "" {
		log.Warn().Str("conversation_id", conv.ID).Msg("case metadata payload unusable")
		return
	}

	existing, err := repo.FindCaseByIdentifier(ctx, s.DB, conv.UserID, meta.Identifier)
	switch {
	case err == nil:
		s.linkCase(ctx, conv, existing.ID)
	case errors.Is(err, repo.ErrNotFound):
		created, cerr := repo.CreateCase(ctx, s.DB, conv.UserID, domain.Case{
			Identifier: meta.Identifier,
			Parties:    meta.Parties,
			Court:      meta.Court,
			Subject:    meta.Subject,
		})
		if cerr != nil {
			log.Warn().Err(cerr).Str("conversation_id", conv.ID).Msg("case creation from metadata failed")
			return
		}
		s.linkCase(ctx, conv, created.ID)
	default:
		log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("duplicate-case lookup failed")
	}
}

func (s *ConversationService) linkCase(ctx context.Context, conv *domain.Conversation, caseID string) {
	if err := repo.SetConversationCase(ctx, s.DB, conv.ID, conv.UserID, &caseID); err != nil {
		log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("case link failed")
		return
	}
	conv.CaseID = &caseID
}

// extractJSON returns the first {...} object in a model reply, tolerating
// fencing or prose around it.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

// clip truncates a title to the configured maximum rune length.
func (s *ConversationService) clip(title string) string {
	max := s.TitleMaxLen
	if max <= 0 {
		max = 60
	}
	if utf8.RuneCountInString(title) > max {
		return string([]rune(title)[:max])
	}
	return title
}

// normalizeTitle trims whitespace and collapses runs of spaces to one.
func normalizeTitle(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
