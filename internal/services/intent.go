// Package services – intent classification
//
// Classifies each user turn into one of a small closed set of intents so the
// context assembler knows which optional blocks to fetch. The classifier is a
// deterministic heuristic over the message and a short window of history; it
// must never fail a turn, so every edge degrades to IntentGeneral.
package services

import (
	"regexp"
	"strings"

	"github.com/tbourn/go-juris-backend/internal/domain"
)

// Intent labels.
const (
	IntentDrafting      = "drafting"
	IntentKnowledge     = "knowledge_search"
	IntentCaseQuestion  = "case_question"
	IntentClarification = "clarification"
	IntentGeneral       = "general"
)

var (
	draftingRE = regexp.MustCompile(`(?i)\b(minuta|redij[ao]|redigir|elabor[ae]|escrev[ae]|peti[cç][aã]o|contesta[cç][aã]o|recurso|parecer|despacho|senten[cç]a|draft)\b`)
	knowledgeRE = regexp.MustCompile(`(?i)\b(s[uú]mula|jurisprud[eê]ncia|doutrina|artigo|lei|c[oó]digo|precedente|entendimento|tese)\b`)
	caseRE      = regexp.MustCompile(`(?i)\b(processo|autos|r[eé]u|autor[a]?|parte[s]?|audi[eê]ncia|prazo|senten[cç]a|laudo|per[ií]cia|testemunha|documento)\b`)
)

// ClassifyIntent labels a user message. The decision string explains which
// rule fired and is meant for debug logs only.
func ClassifyIntent(message string, history []domain.Message) (label, decision string) {
	defer func() {
		if recover() != nil {
			label, decision = IntentGeneral, "panic recovered"
		}
	}()

	m := strings.TrimSpace(message)
	if m == "" {
		return IntentGeneral, "empty message"
	}

	// Short interrogatives right after an assistant question read as
	// clarification, not a new request.
	if isClarification(m, history) {
		return IntentClarification, "short reply to assistant question"
	}

	switch {
	case draftingRE.MatchString(m):
		return IntentDrafting, "drafting keyword"
	case knowledgeRE.MatchString(m):
		return IntentKnowledge, "knowledge keyword"
	case caseRE.MatchString(m):
		return IntentCaseQuestion, "case keyword"
	}
	return IntentGeneral, "no rule matched"
}

// isClarification reports whether the message looks like an answer to a
// question the assistant just asked: short, and the previous assistant turn
// ended with a question mark.
func isClarification(m string, history []domain.Message) bool {
	if len([]rune(m)) > 80 {
		return false
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != domain.RoleAssistant {
			continue
		}
		prev := strings.TrimSpace(history[i].Content)
		return strings.HasSuffix(prev, "?")
	}
	return false
}
