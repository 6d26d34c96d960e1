package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-juris-backend/internal/chunk"
	"github.com/tbourn/go-juris-backend/internal/domain"
	"github.com/tbourn/go-juris-backend/internal/http/middleware"
	"github.com/tbourn/go-juris-backend/internal/indexer"
	"github.com/tbourn/go-juris-backend/internal/kb"
	"github.com/tbourn/go-juris-backend/internal/llm"
	"github.com/tbourn/go-juris-backend/internal/search"
	"github.com/tbourn/go-juris-backend/internal/services"
)

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("handler_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(
		&domain.Conversation{},
		&domain.Message{},
		&domain.Case{},
		&domain.CaseDocument{},
		&domain.DocumentChunk{},
		&domain.KnowledgeDoc{},
		&domain.ApprovedDraft{},
		&domain.LearnedThesis{},
		&domain.ExtractionJob{},
		&domain.Idempotency{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// stubStream yields scripted deltas, then final (io.EOF for a clean finish).
type stubStream struct {
	deltas []string
	final  error
}

func (s *stubStream) Recv() (string, error) {
	if len(s.deltas) == 0 {
		if s.final != nil {
			return "", s.final
		}
		return "", io.EOF
	}
	d := s.deltas[0]
	s.deltas = s.deltas[1:]
	return d, nil
}

func (s *stubStream) Close() {}

// stubGateway implements llm.Gateway with pluggable behavior per method.
type stubGateway struct {
	completeFn func(messages []llm.ChatMessage) (string, error)
	streamFn   func(messages []llm.ChatMessage) (llm.Stream, error)
	embedFn    func(texts []string) ([][]float64, error)
}

func (g *stubGateway) Complete(_ context.Context, messages []llm.ChatMessage) (string, error) {
	if g.completeFn == nil {
		return "", errors.New("complete not scripted")
	}
	return g.completeFn(messages)
}

func (g *stubGateway) CompleteStream(_ context.Context, messages []llm.ChatMessage) (llm.Stream, error) {
	if g.streamFn == nil {
		return nil, errors.New("stream not scripted")
	}
	return g.streamFn(messages)
}

func (g *stubGateway) Embed(_ context.Context, texts []string) ([][]float64, error) {
	if g.embedFn == nil {
		return nil, errors.New("embed not scripted")
	}
	return g.embedFn(texts)
}

func (g *stubGateway) ListModels(context.Context) (llm.ModelList, error) {
	return llm.ModelList{Models: []llm.Model{{ID: "stub-model"}}, Source: llm.SourceLive}, nil
}

// newTestAPI wires a real service stack over a temp database and mounts the
// routes exactly as the router does, minus the cross-cutting middleware that
// the tests do not exercise.
func newTestAPI(t *testing.T, gw llm.Gateway) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newHandlerDB(t)
	retriever := &search.Retriever{DB: db, Gateway: gw}
	convSvc := services.NewConversationService(db, gw)
	asm := &services.ContextAssembler{
		DB:          db,
		Retriever:   retriever,
		Cache:       kb.NewMemoryCache(time.Minute),
		ChunkTopK:   4,
		ThesisTopK:  3,
		BudgetRunes: 24000,
	}
	turnSvc := services.NewTurnService(db, gw, asm, convSvc)
	thesisSvc := &services.ThesisService{
		DB:                  db,
		Gateway:             gw,
		Retriever:           retriever,
		SimilarityThreshold: 0.80,
		CandidateTopK:       3,
	}
	ix := &indexer.Indexer{
		DB:       db,
		Gateway:  gw,
		Splitter: chunk.Splitter{TargetRunes: 500, OverlapRunes: 50},
	}

	h := New(db, convSvc, turnSvc, thesisSvc, ix, gw)

	r := gin.New()
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))

	r.POST("/conversations", h.CreateConversation)
	r.GET("/conversations", h.ListConversations)
	r.GET("/conversations/:id", h.GetConversation)
	r.PUT("/conversations/:id/title", h.RenameConversation)
	r.PUT("/conversations/:id/pinned", h.PinConversation)
	r.DELETE("/conversations/:id", h.DeleteConversation)
	r.GET("/conversations/:id/messages", h.ListMessages)
	r.GET("/conversations/:id/duplicates", h.ListCaseDuplicates)
	r.POST("/conversations/:id/turns", h.StreamTurn)
	r.POST("/conversations/:id/messages/:messageID/decision", h.DecideDraft)
	r.POST("/cases", h.CreateCase)
	r.GET("/cases/:id", h.GetCase)
	r.GET("/theses", h.ListTheses)
	r.GET("/theses/conflicts", h.ListThesisConflicts)
	r.POST("/theses/:id/resolve", h.ResolveThesis)
	r.GET("/models", h.ListModels)

	return r, db
}

// doJSON performs a request with an optional JSON body and returns the
// recorder.
func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func seedConv(t *testing.T, db *gorm.DB, id, userID string) *domain.Conversation {
	t.Helper()
	c := &domain.Conversation{ID: id, UserID: userID, Title: "Nova conversa"}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	return c
}

func seedMsg(t *testing.T, db *gorm.DB, id, conversationID, role, content string) *domain.Message {
	t.Helper()
	m := &domain.Message{ID: id, ConversationID: conversationID, Role: role, Content: content}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed message: %v", err)
	}
	return m
}

// errCode reads the snake_case error code from a failure envelope.
func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	decodeJSON(t, w, &body)
	return body.Code
}
