package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-juris-backend/internal/domain"
)

func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestCreateConversation_Error_NoTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	c, err := CreateConversation(context.Background(), db, "u1", "t")
	if err == nil || c != nil {
		t.Fatalf("expected error creating without table, got conv=%v err=%v", c, err)
	}
}

func TestCreateConversation_Success_PersistsAndDefaultsTitle(t *testing.T) {
	db := newRepoDB(t, &domain.Conversation{})

	start := time.Now().UTC().Add(-time.Minute)
	c, err := CreateConversation(context.Background(), db, "u1", "")
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if c.ID == "" || c.UserID != "u1" || c.Title != "Nova conversa" {
		t.Fatalf("unexpected Conversation fields: %+v", c)
	}
	if c.CreatedAt.Before(start) {
		t.Fatalf("CreatedAt seems unset/really old: %v", c.CreatedAt)
	}
	var got domain.Conversation
	if err := db.First(&got, "id = ?", c.ID).Error; err != nil {
		t.Fatalf("load created conversation: %v", err)
	}
	if got.UserID != "u1" || got.Title != "Nova conversa" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestListConversations_PinnedFirstAndOwnerScoped(t *testing.T) {
	db := newRepoDB(t, &domain.Conversation{})

	t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(1 * time.Hour)
	t3 := t2.Add(1 * time.Hour)
	seed := []domain.Conversation{
		{ID: "c1", UserID: "u1", Title: "A", UpdatedAt: t3},
		{ID: "c2", UserID: "u1", Title: "B", Pinned: true, UpdatedAt: t1},
		{ID: "c3", UserID: "u1", Title: "C", UpdatedAt: t2},
		{ID: "cx", UserID: "u2", Title: "Other", UpdatedAt: t3},
	}
	for _, c := range seed {
		if err := db.Create(&c).Error; err != nil {
			t.Fatalf("seed %s: %v", c.ID, err)
		}
	}

	list, err := ListConversations(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 conversations for u1, got %d", len(list))
	}
	// Pinned c2 first, then c1 (newest) and c3.
	if list[0].ID != "c2" || list[1].ID != "c1" || list[2].ID != "c3" {
		t.Fatalf("unexpected order: %#v", []string{list[0].ID, list[1].ID, list[2].ID})
	}
}

func TestGetConversation_NotFoundAndWrongOwner(t *testing.T) {
	db := newRepoDB(t, &domain.Conversation{})
	if err := db.Create(&domain.Conversation{ID: "c1", UserID: "u1", Title: "t"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := GetConversation(context.Background(), db, "missing", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing id, got %v", err)
	}
	// Another user must not see it.
	if _, err := GetConversation(context.Background(), db, "c1", "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong owner, got %v", err)
	}
	if c, err := GetConversation(context.Background(), db, "c1", "u1"); err != nil || c.ID != "c1" {
		t.Fatalf("expected owner to fetch c1, got %v err=%v", c, err)
	}
}

func TestUpdateConversationTitle_Semantics(t *testing.T) {
	db := newRepoDB(t, &domain.Conversation{})
	if err := db.Create(&domain.Conversation{ID: "c1", UserID: "u1", Title: "old"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := UpdateConversationTitle(context.Background(), db, "c1", "u1", "new"); err != nil {
		t.Fatalf("UpdateConversationTitle: %v", err)
	}
	var got domain.Conversation
	if err := db.First(&got, "id = ?", "c1").Error; err != nil || got.Title != "new" {
		t.Fatalf("title not updated: %+v err=%v", got, err)
	}
	if err := UpdateConversationTitle(context.Background(), db, "c1", "u2", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong owner, got %v", err)
	}
}

func TestSetConversationPinned_And_Case(t *testing.T) {
	db := newRepoDB(t, &domain.Conversation{})
	if err := db.Create(&domain.Conversation{ID: "c1", UserID: "u1", Title: "t"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := SetConversationPinned(context.Background(), db, "c1", "u1", true); err != nil {
		t.Fatalf("SetConversationPinned: %v", err)
	}
	caseID := "k1"
	if err := SetConversationCase(context.Background(), db, "c1", "u1", &caseID); err != nil {
		t.Fatalf("SetConversationCase: %v", err)
	}
	var got domain.Conversation
	if err := db.First(&got, "id = ?", "c1").Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.Pinned || got.CaseID == nil || *got.CaseID != "k1" {
		t.Fatalf("flags not persisted: %+v", got)
	}
	// unlink
	if err := SetConversationCase(context.Background(), db, "c1", "u1", nil); err != nil {
		t.Fatalf("unlink case: %v", err)
	}
	if err := db.First(&got, "id = ?", "c1").Error; err != nil || got.CaseID != nil {
		t.Fatalf("case not unlinked: %+v err=%v", got, err)
	}
}

func TestDeleteConversation_Semantics(t *testing.T) {
	db := newRepoDB(t, &domain.Conversation{})
	if err := db.Create(&domain.Conversation{ID: "c1", UserID: "u1", Title: "t"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := DeleteConversation(context.Background(), db, "c1", "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong owner, got %v", err)
	}
	if err := DeleteConversation(context.Background(), db, "c1", "u1"); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
	if _, err := GetConversation(context.Background(), db, "c1", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected conversation gone, got %v", err)
	}
}
