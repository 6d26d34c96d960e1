package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-juris-backend/internal/domain"
	"github.com/tbourn/go-juris-backend/internal/llm"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("service_test_%d.db", time.Now().UnixNano()))
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
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// fakeStream yields scripted deltas, then a terminal error (io.EOF for a
// clean finish).
type fakeStream struct {
	deltas []string
	final  error
	closed bool
}

func (f *fakeStream) Recv() (string, error) {
	if len(f.deltas) == 0 {
		if f.final != nil {
			return "", f.final
		}
		return "", io.EOF
	}
	d := f.deltas[0]
	f.deltas = f.deltas[1:]
	return d, nil
}

func (f *fakeStream) Close() { f.closed = true }

// fakeGateway implements llm.Gateway with pluggable behavior per method.
type fakeGateway struct {
	completeFn func(messages []llm.ChatMessage) (string, error)
	streamFn   func(messages []llm.ChatMessage) (llm.Stream, error)
	embedFn    func(texts []string) ([][]float64, error)
}

func (f *fakeGateway) Complete(_ context.Context, messages []llm.ChatMessage) (string, error) {
	if f.completeFn == nil {
		return "", errors.New("complete not scripted")
	}
	return f.completeFn(messages)
}

func (f *fakeGateway) CompleteStream(_ context.Context, messages []llm.ChatMessage) (llm.Stream, error) {
	if f.streamFn == nil {
		return nil, errors.New("stream not scripted")
	}
	return f.streamFn(messages)
}

func (f *fakeGateway) Embed(_ context.Context, texts []string) ([][]float64, error) {
	if f.embedFn == nil {
		return nil, errors.New("embed not scripted")
	}
	return f.embedFn(texts)
}

func (f *fakeGateway) ListModels(context.Context) (llm.ModelList, error) {
	return llm.ModelList{Models: []llm.Model{{ID: "fake"}}, Source: llm.SourceLive}, nil
}

func seedConversation(t *testing.T, db *gorm.DB, id, userID string) *domain.Conversation {
	t.Helper()
	c := &domain.Conversation{ID: id, UserID: userID, Title: "Nova conversa"}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	return c
}

func countMessages(t *testing.T, db *gorm.DB, conversationID, role string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&domain.Message{}).
		Where("conversation_id = ? AND role = ?", conversationID, role).
		Count(&n).Error; err != nil {
		t.Fatalf("count messages: %v", err)
	}
	return n
}
