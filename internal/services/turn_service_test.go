package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tbourn/go-juris-backend/internal/domain"
	"github.com/tbourn/go-juris-backend/internal/llm"
	"github.com/tbourn/go-juris-backend/internal/search"
)

func newTurnService(t *testing.T, gw llm.Gateway) *TurnService {
	t.Helper()
	db := newServiceDB(t)
	asm := &ContextAssembler{
		DB:          db,
		Retriever:   &search.Retriever{DB: db, Gateway: gw},
		ChunkTopK:   4,
		ThesisTopK:  3,
		BudgetRunes: 24000,
	}
	return NewTurnService(db, gw, asm, nil)
}

func TestStream_EmptyPromptRejected(t *testing.T) {
	s := newTurnService(t, &fakeGateway{})
	_, err := s.Stream(context.Background(), "u1", "c1", "   ", func(string) error { return nil })
	if !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
}

func TestStream_UnknownConversation(t *testing.T) {
	s := newTurnService(t, &fakeGateway{})
	_, err := s.Stream(context.Background(), "u1", "missing", "oi", func(string) error { return nil })
	if !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestStream_SuccessPersistsFullAnswer(t *testing.T) {
	gw := &fakeGateway{
		streamFn: func([]llm.ChatMessage) (llm.Stream, error) {
			return &fakeStream{deltas: []string{"Excelentíssimo ", "Senhor ", "Juiz."}}, nil
		},
	}
	s := newTurnService(t, gw)
	seedConversation(t, s.DB, "c1", "u1")

	var got []string
	res, err := s.Stream(context.Background(), "u1", "c1", "Redija a petição.", func(d string) error {
		got = append(got, d)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 forwarded deltas, got %d", len(got))
	}
	want := "Excelentíssimo Senhor Juiz."
	if res.AssistantMessage.Content != want {
		t.Fatalf("persisted text mismatch: %q", res.AssistantMessage.Content)
	}
	if n := countMessages(t, s.DB, "c1", "assistant"); n != 1 {
		t.Fatalf("expected 1 assistant row, got %d", n)
	}
	if n := countMessages(t, s.DB, "c1", "user"); n != 1 {
		t.Fatalf("expected 1 user row, got %d", n)
	}
}

func TestStream_MidStreamErrorPersistsNothing(t *testing.T) {
	gw := &fakeGateway{
		streamFn: func([]llm.ChatMessage) (llm.Stream, error) {
			return &fakeStream{
				deltas: []string{"um ", "dois ", "três "},
				final:  io.ErrUnexpectedEOF,
			}, nil
		},
	}
	s := newTurnService(t, gw)
	seedConversation(t, s.DB, "c1", "u1")

	var forwarded int
	_, err := s.Stream(context.Background(), "u1", "c1", "pergunta", func(string) error {
		forwarded++
		return nil
	})
	if err == nil {
		t.Fatalf("expected stream error")
	}
	if forwarded != 3 {
		t.Fatalf("deltas before the failure must still be forwarded, got %d", forwarded)
	}
	// The user message is kept; no assistant message may exist.
	if n := countMessages(t, s.DB, "c1", "assistant"); n != 0 {
		t.Fatalf("failed stream must not persist an assistant row, found %d", n)
	}
	if n := countMessages(t, s.DB, "c1", "user"); n != 1 {
		t.Fatalf("user message should be persisted before streaming, got %d", n)
	}
}

func TestStream_ClientDisconnectPersistsNothing(t *testing.T) {
	gw := &fakeGateway{
		streamFn: func([]llm.ChatMessage) (llm.Stream, error) {
			return &fakeStream{deltas: []string{"a", "b", "c", "d"}}, nil
		},
	}
	s := newTurnService(t, gw)
	seedConversation(t, s.DB, "c1", "u1")

	clientGone := errors.New("client went away")
	var forwarded int
	_, err := s.Stream(context.Background(), "u1", "c1", "pergunta", func(string) error {
		forwarded++
		if forwarded == 2 {
			return clientGone
		}
		return nil
	})
	if !errors.Is(err, clientGone) {
		t.Fatalf("expected client error, got %v", err)
	}
	if n := countMessages(t, s.DB, "c1", "assistant"); n != 0 {
		t.Fatalf("aborted stream must not persist an assistant row, found %d", n)
	}
}

func TestStream_SecondConcurrentTurnRejected(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	gw := &fakeGateway{
		streamFn: func([]llm.ChatMessage) (llm.Stream, error) {
			return &blockingStream{started: started, release: release}, nil
		},
	}
	s := newTurnService(t, gw)
	seedConversation(t, s.DB, "c1", "u1")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.Stream(context.Background(), "u1", "c1", "primeira", func(string) error { return nil })
	}()

	<-started
	_, err := s.Stream(context.Background(), "u1", "c1", "segunda", func(string) error { return nil })
	if !errors.Is(err, ErrTurnInProgress) {
		t.Fatalf("expected ErrTurnInProgress, got %v", err)
	}
	close(release)
	wg.Wait()

	// After the first turn finishes, the lock is released.
	gw.streamFn = func([]llm.ChatMessage) (llm.Stream, error) {
		return &fakeStream{deltas: []string{"ok"}}, nil
	}
	if _, err := s.Stream(context.Background(), "u1", "c1", "terceira", func(string) error { return nil }); err != nil {
		t.Fatalf("turn after release should succeed: %v", err)
	}
}

// blockingStream signals when Recv is first called and then blocks until
// released, finally finishing cleanly.
type blockingStream struct {
	started  chan struct{}
	release  chan struct{}
	once     sync.Once
	finished bool
}

func (b *blockingStream) Recv() (string, error) {
	b.once.Do(func() { close(b.started) })
	if !b.finished {
		<-b.release
		b.finished = true
		return "resposta", nil
	}
	return "", io.EOF
}

func (b *blockingStream) Close() {}

func TestStream_UnknownDirectiveAnsweredLocally(t *testing.T) {
	gw := &fakeGateway{
		streamFn: func([]llm.ChatMessage) (llm.Stream, error) {
			t.Fatalf("unknown directive must not reach the model")
			return nil, nil
		},
	}
	s := newTurnService(t, gw)
	seedConversation(t, s.DB, "c1", "u1")

	var reply strings.Builder
	res, err := s.Stream(context.Background(), "u1", "c1", "/naoexiste arg", func(d string) error {
		reply.WriteString(d)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if !strings.Contains(reply.String(), "não reconhecido") {
		t.Fatalf("expected not-recognized reply, got %q", reply.String())
	}
	if res.AssistantMessage == nil || res.AssistantMessage.Content != reply.String() {
		t.Fatalf("local reply must be persisted as the assistant message")
	}
}

func TestStream_HelpDirectiveAnsweredLocally(t *testing.T) {
	gw := &fakeGateway{
		streamFn: func([]llm.ChatMessage) (llm.Stream, error) {
			t.Fatalf("/ajuda must not reach the model")
			return nil, nil
		},
	}
	s := newTurnService(t, gw)
	seedConversation(t, s.DB, "c1", "u1")

	var reply strings.Builder
	if _, err := s.Stream(context.Background(), "u1", "c1", "/ajuda", func(d string) error {
		reply.WriteString(d)
		return nil
	}); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if !strings.Contains(reply.String(), "/minuta") {
		t.Fatalf("help text should list commands, got %q", reply.String())
	}
}

func TestStream_MinutaDirectiveRunsOwnCycle(t *testing.T) {
	var captured []llm.ChatMessage
	gw := &fakeGateway{
		completeFn: func(messages []llm.ChatMessage) (string, error) {
			captured = messages
			return "MINUTA: julgo procedente o pedido.", nil
		},
		streamFn: func([]llm.ChatMessage) (llm.Stream, error) {
			t.Fatalf("/minuta must not enter the streaming pipeline")
			return nil, nil
		},
	}
	s := newTurnService(t, gw)
	s.ConvSvc = NewConversationService(s.DB, gw)

	caseID := "case-1"
	if err := s.DB.Create(&domain.Case{ID: caseID, UserID: "u1", Identifier: "0001234-55.2024.8.26.0100", Subject: "Cobrança"}).Error; err != nil {
		t.Fatalf("seed case: %v", err)
	}
	conv := &domain.Conversation{ID: "c1", UserID: "u1", Title: "Nova conversa", CaseID: &caseID}
	if err := s.DB.Create(conv).Error; err != nil {
		t.Fatalf("seed conversation: %v", err)
	}

	var reply strings.Builder
	res, err := s.Stream(context.Background(), "u1", "c1", "/minuta procedente", func(d string) error {
		reply.WriteString(d)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if reply.String() != "MINUTA: julgo procedente o pedido." {
		t.Fatalf("reply = %q", reply.String())
	}
	if res.Intent != IntentDrafting {
		t.Fatalf("intent = %q, want drafting", res.Intent)
	}
	if len(captured) != 2 || !strings.Contains(captured[0].Content, "minuta") {
		t.Fatalf("draft composition must use its own prompt, got %+v", captured)
	}
	user := captured[len(captured)-1].Content
	if !strings.Contains(user, "procedente") || !strings.Contains(user, "0001234-55.2024.8.26.0100") {
		t.Fatalf("verdict and case number must reach the model, got %q", user)
	}
	if n := countMessages(t, s.DB, "c1", "assistant"); n != 1 {
		t.Fatalf("expected 1 assistant row, got %d", n)
	}
	if n := countMessages(t, s.DB, "c1", "user"); n != 1 {
		t.Fatalf("expected 1 user row, got %d", n)
	}
}

func TestStream_TeseDirectiveSummarizesSession(t *testing.T) {
	var captured []llm.ChatMessage
	gw := &fakeGateway{
		completeFn: func(messages []llm.ChatMessage) (string, error) {
			captured = messages
			return "Tese: multa contratual limitada ao valor do contrato.", nil
		},
		streamFn: func([]llm.ChatMessage) (llm.Stream, error) {
			t.Fatalf("/tese must not enter the streaming pipeline")
			return nil, nil
		},
	}
	s := newTurnService(t, gw)
	s.ConvSvc = NewConversationService(s.DB, gw)
	seedConversation(t, s.DB, "c1", "u1")
	for _, m := range []domain.Message{
		{ID: "m1", ConversationID: "c1", Role: domain.RoleUser, Content: "A multa pode passar do contrato?"},
		{ID: "m2", ConversationID: "c1", Role: domain.RoleAssistant, Content: "Não; a multa é limitada ao valor do contrato."},
	} {
		row := m
		if err := s.DB.Create(&row).Error; err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}

	var reply strings.Builder
	res, err := s.Stream(context.Background(), "u1", "c1", "/tese", func(d string) error {
		reply.WriteString(d)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if !strings.Contains(reply.String(), "Tese:") {
		t.Fatalf("reply = %q", reply.String())
	}
	if res.Intent != IntentDrafting {
		t.Fatalf("intent = %q, want drafting", res.Intent)
	}
	transcript := captured[len(captured)-1].Content
	if !strings.Contains(transcript, "limitada ao valor do contrato") {
		t.Fatalf("session content must reach the summary prompt, got %q", transcript)
	}
}

func TestStream_BuscarDirectiveWithEmptyKnowledgeBase(t *testing.T) {
	gw := &fakeGateway{
		streamFn: func([]llm.ChatMessage) (llm.Stream, error) {
			t.Fatalf("/buscar must not enter the streaming pipeline")
			return nil, nil
		},
	}
	s := newTurnService(t, gw)
	s.ConvSvc = NewConversationService(s.DB, gw)
	seedConversation(t, s.DB, "c1", "u1")

	var reply strings.Builder
	res, err := s.Stream(context.Background(), "u1", "c1", "/buscar prescrição", func(d string) error {
		reply.WriteString(d)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if !strings.Contains(reply.String(), "vazia") {
		t.Fatalf("empty knowledge base should be reported locally, got %q", reply.String())
	}
	if res.Intent != IntentKnowledge {
		t.Fatalf("intent = %q, want knowledge", res.Intent)
	}
}

func TestStream_EmptyModelAnswerFails(t *testing.T) {
	gw := &fakeGateway{
		streamFn: func([]llm.ChatMessage) (llm.Stream, error) {
			return &fakeStream{deltas: []string{"  ", "\n"}}, nil
		},
	}
	s := newTurnService(t, gw)
	seedConversation(t, s.DB, "c1", "u1")

	_, err := s.Stream(context.Background(), "u1", "c1", "pergunta", func(string) error { return nil })
	if !errors.Is(err, llm.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
	if n := countMessages(t, s.DB, "c1", "assistant"); n != 0 {
		t.Fatalf("blank answer must not be persisted, found %d", n)
	}
}

func TestStream_SystemContextLeadsMessages(t *testing.T) {
	var captured []llm.ChatMessage
	gw := &fakeGateway{
		streamFn: func(messages []llm.ChatMessage) (llm.Stream, error) {
			captured = messages
			return &fakeStream{deltas: []string{"ok"}}, nil
		},
	}
	s := newTurnService(t, gw)
	seedConversation(t, s.DB, "c1", "u1")

	if _, err := s.Stream(context.Background(), "u1", "c1", "Qual o prazo do recurso?", func(string) error { return nil }); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(captured) < 2 {
		t.Fatalf("expected system + user messages, got %d", len(captured))
	}
	if captured[0].Role != "system" || captured[0].Content == "" {
		t.Fatalf("first message must be the assembled system context: %+v", captured[0])
	}
	last := captured[len(captured)-1]
	if last.Role != "user" || last.Content != "Qual o prazo do recurso?" {
		t.Fatalf("last message must be the prompt: %+v", last)
	}
}

func TestStream_LockReleasedAfterFailure(t *testing.T) {
	gw := &fakeGateway{
		streamFn: func([]llm.ChatMessage) (llm.Stream, error) {
			return nil, errors.New("provider down")
		},
	}
	s := newTurnService(t, gw)
	seedConversation(t, s.DB, "c1", "u1")

	if _, err := s.Stream(context.Background(), "u1", "c1", "a", func(string) error { return nil }); err == nil {
		t.Fatalf("expected provider error")
	}
	// Immediately retryable.
	gw.streamFn = func([]llm.ChatMessage) (llm.Stream, error) {
		return &fakeStream{deltas: []string{"ok"}}, nil
	}
	done := make(chan error, 1)
	go func() {
		_, err := s.Stream(context.Background(), "u1", "c1", "b", func(string) error { return nil })
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("retry after failure: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("lock leaked after failed turn")
	}
}
