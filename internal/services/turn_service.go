// Package services – TurnService
//
// Owns the lifecycle of one streaming turn: received → user message
// persisted → context assembled → streaming → completed or failed. Deltas are
// forwarded to the caller as they arrive and accumulated; only a completed
// stream persists an assistant message. A failed or cancelled stream persists
// nothing, so the conversation history never contains half an answer.
//
// Each conversation accepts one in-flight turn; a concurrent submission gets
// ErrTurnInProgress immediately.
package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-juris-backend/internal/domain"
	"github.com/tbourn/go-juris-backend/internal/llm"
	"github.com/tbourn/go-juris-backend/internal/repo"
)

// TurnResult is what a completed turn produced.
type TurnResult struct {
	AssistantMessage *domain.Message
	Intent           string
}

// TurnService coordinates streaming turns.
type TurnService struct {
	DB        *gorm.DB
	Gateway   llm.Gateway
	Assembler *ContextAssembler
	ConvSvc   *ConversationService

	// HistoryWindow is how many recent messages accompany the prompt.
	HistoryWindow int
	// MaxPromptRunes guards against oversized submissions (0 = unlimited).
	MaxPromptRunes int

	mu     sync.Mutex
	active map[string]struct{} // conversation IDs with an in-flight turn
}

// NewTurnService constructs a TurnService with defaults.
func NewTurnService(db *gorm.DB, gw llm.Gateway, asm *ContextAssembler, convSvc *ConversationService) *TurnService {
	return &TurnService{
		DB:             db,
		Gateway:        gw,
		Assembler:      asm,
		ConvSvc:        convSvc,
		HistoryWindow:  12,
		MaxPromptRunes: 32000,
		active:         make(map[string]struct{}),
	}
}

// acquire marks a conversation busy, or reports a turn already in flight.
func (s *TurnService) acquire(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		s.active = make(map[string]struct{})
	}
	if _, busy := s.active[conversationID]; busy {
		return false
	}
	s.active[conversationID] = struct{}{}
	return true
}

func (s *TurnService) release(conversationID string) {
	s.mu.Lock()
	delete(s.active, conversationID)
	s.mu.Unlock()
}

// Stream runs one turn. onDelta is called for every model delta in arrival
// order; returning an error from it aborts the stream (client went away).
// On success the persisted assistant message is returned.
func (s *TurnService) Stream(ctx context.Context, userID, conversationID, prompt string, onDelta func(string) error) (*TurnResult, error) {
	tr := otel.Tracer("services/TurnService")
	ctx, span := tr.Start(ctx, "Stream",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(prompt) > s.MaxPromptRunes {
		return nil, ErrTooLong
	}

	conv, err := repo.GetConversation(ctx, s.DB, conversationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	if !s.acquire(conversationID) {
		return nil, ErrTurnInProgress
	}
	defer s.release(conversationID)

	history, err := repo.LastMessages(ctx, s.DB, conversationID, s.HistoryWindow)
	if err != nil {
		return nil, err
	}
	firstTurn := len(history) == 0

	// Directives bypass the grounded pipeline entirely: recognized commands
	// run their own prompt/response cycle, /ajuda and unknown verbs are
	// answered locally without a model call.
	if d := ParseDirective(prompt); d.Kind != DirectiveNone {
		return s.runDirective(ctx, conv, d, prompt, onDelta)
	}

	// Persist the user message before anything can fail downstream.
	if _, err := repo.CreateMessage(ctx, s.DB, conversationID, domain.RoleUser, prompt, ""); err != nil {
		return nil, err
	}

	// First-turn enrichments are best-effort and must not delay streaming.
	if firstTurn && s.ConvSvc != nil {
		go s.runEnrichments(conv, prompt)
	}

	intent := s.classify(prompt, history)
	systemContext := s.Assembler.Assemble(ctx, conv, intent, prompt)

	messages := make([]llm.ChatMessage, 0, len(history)+2)
	messages = append(messages, llm.ChatMessage{Role: domain.RoleSystem, Content: systemContext})
	for _, m := range history {
		messages = append(messages, llm.ChatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.ChatMessage{Role: domain.RoleUser, Content: prompt})

	stream, err := s.Gateway.CompleteStream(ctx, messages)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var full strings.Builder
	for {
		delta, rerr := stream.Recv()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			// nothing persisted; the partial text is discarded
			return nil, rerr
		}
		full.WriteString(delta)
		if derr := onDelta(delta); derr != nil {
			return nil, derr
		}
	}

	text := full.String()
	if strings.TrimSpace(text) == "" {
		return nil, llm.ErrEmptyResponse
	}

	msg, err := repo.CreateMessage(ctx, s.DB, conversationID, domain.RoleAssistant, text, "")
	if err != nil {
		return nil, err
	}
	if terr := repo.TouchConversation(ctx, s.DB, conversationID, userID); terr != nil {
		log.Warn().Err(terr).Str("conversation_id", conversationID).Msg("touch after turn failed")
	}
	return &TurnResult{AssistantMessage: msg, Intent: intent}, nil
}

// runDirective answers a slash command with a single reply: a dedicated
// completion cycle for the recognized commands, a canned local text for
// /ajuda and unknown verbs. The exchange is persisted like any other turn.
func (s *TurnService) runDirective(ctx context.Context, conv *domain.Conversation, d Directive, prompt string, onDelta func(string) error) (*TurnResult, error) {
	var reply string
	intent := IntentGeneral
	switch d.Kind {
	case DirectiveAjuda:
		reply = HelpText
	case DirectiveUnknown:
		reply = UnknownDirectiveReply(d.Arg)
	default:
		if s.ConvSvc == nil {
			return nil, errors.New("directive execution unavailable")
		}
		out, err := s.ConvSvc.ExecuteDirective(ctx, conv, d)
		if err != nil {
			return nil, err
		}
		reply = out
		switch d.Kind {
		case DirectiveMinuta, DirectiveTese:
			intent = IntentDrafting
		case DirectiveBuscar:
			intent = IntentKnowledge
		}
	}
	msg, err := s.persistPair(ctx, conv.ID, prompt, reply, "")
	if err != nil {
		return nil, err
	}
	if err := onDelta(reply); err != nil {
		return nil, err
	}
	return &TurnResult{AssistantMessage: msg, Intent: intent}, nil
}

// classify resolves the effective intent for a plain conversational turn.
func (s *TurnService) classify(prompt string, history []domain.Message) string {
	intent, decision := ClassifyIntent(prompt, history)
	log.Debug().Str("intent", intent).Str("decision", decision).Msg("intent classified")
	return intent
}

// persistPair stores a user/assistant exchange atomically (local replies).
func (s *TurnService) persistPair(ctx context.Context, conversationID, prompt, reply, thinking string) (*domain.Message, error) {
	var out *domain.Message
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.CreateMessage(ctx, tx, conversationID, domain.RoleUser, prompt, ""); err != nil {
			return err
		}
		m, err := repo.CreateMessage(ctx, tx, conversationID, domain.RoleAssistant, reply, thinking)
		if err != nil {
			return err
		}
		out = m
		return nil
	})
	return out, err
}

// runEnrichments executes the async first-turn work with a fresh context so
// it survives the request ending.
func (s *TurnService) runEnrichments(conv *domain.Conversation, prompt string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("conversation_id", conv.ID).Msg("enrichment panicked")
		}
	}()
	ctx := context.Background()
	s.ConvSvc.MaybeGenerateTitle(ctx, conv, prompt)
	if conv.DocumentRef != "" && conv.CaseID == nil {
		head := s.documentHead(ctx, conv)
		s.ConvSvc.MaybeExtractCase(ctx, conv, head)
	}
}

// documentHead loads the opening chunks of the conversation's attached
// document for metadata extraction.
func (s *TurnService) documentHead(ctx context.Context, conv *domain.Conversation) string {
	chunks, err := repo.ListChunksByDocument(ctx, s.DB, conv.UserID, conv.DocumentRef)
	if err != nil || len(chunks) == 0 {
		return ""
	}
	var b strings.Builder
	for _, c := range chunks {
		if c.Page > 2 {
			break
		}
		b.WriteString(c.Text)
		b.WriteByte('\n')
	}
	return b.String()
}
