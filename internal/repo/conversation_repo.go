// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Conversation model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a conversation is not found, functions return
//     gorm.ErrRecordNotFound (also exported here as ErrNotFound).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Every query is scoped to the owning user; there is deliberately no way to
// fetch a conversation without a userID.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-juris-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateConversation inserts a new Conversation owned by userID. The ID is a
// randomly generated UUID and CreatedAt is set to UTC. An empty title falls
// back to the column default.
func CreateConversation(ctx context.Context, db *gorm.DB, userID, title string) (*domain.Conversation, error) {
	c := &domain.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	if title == "" {
		c.Title = "Nova conversa"
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ListConversationsByCaseIdentifier returns the user's conversations already
// linked to a case whose normalized identifier matches the given one,
// excluding excludeID. Identifier comparison uses NormalizeIdentifier, so
// punctuation and spacing differences do not hide a duplicate.
func ListConversationsByCaseIdentifier(ctx context.Context, db *gorm.DB, userID, identifier, excludeID string) ([]domain.Conversation, error) {
	want := NormalizeIdentifier(identifier)
	if want == "" {
		return []domain.Conversation{}, nil
	}
	var cs []domain.Case
	if err := db.WithContext(ctx).Where("user_id = ?", userID).Find(&cs).Error; err != nil {
		return nil, err
	}
	caseIDs := make([]string, 0, 1)
	for i := range cs {
		if NormalizeIdentifier(cs[i].Identifier) == want {
			caseIDs = append(caseIDs, cs[i].ID)
		}
	}
	if len(caseIDs) == 0 {
		return []domain.Conversation{}, nil
	}
	out := []domain.Conversation{}
	err := db.WithContext(ctx).
		Where("user_id = ? AND case_id IN ? AND id <> ?", userID, caseIDs, excludeID).
		Order("updated_at desc").
		Find(&out).Error
	return out, err
}

// ListConversations returns all conversations belonging to userID, pinned
// first, then by last update descending. It returns an empty slice if the
// user has none.
func ListConversations(ctx context.Context, db *gorm.DB, userID string) ([]domain.Conversation, error) {
	var out []domain.Conversation
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("pinned desc, updated_at desc").
		Find(&out).Error
	return out, err
}

// CountConversations returns the total number of conversations owned by userID.
func CountConversations(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListConversationsPage returns a paginated slice of conversations for
// userID, pinned first, then by last update descending. Use
// CountConversations for pagination metadata.
func ListConversationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Conversation, error) {
	var out []domain.Conversation
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("pinned desc, updated_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetConversation fetches a single conversation by ID and owner. If the
// record does not exist, it returns ErrNotFound.
func GetConversation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Conversation, error) {
	var c domain.Conversation
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateConversationTitle updates the title of a conversation identified by
// id and owned by userID. Returns ErrNotFound when no row matched.
func UpdateConversationTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error {
	return updateConversation(ctx, db, id, userID, map[string]any{"title": title})
}

// SetConversationPinned toggles the pinned flag. Returns ErrNotFound when no
// row matched.
func SetConversationPinned(ctx context.Context, db *gorm.DB, id, userID string, pinned bool) error {
	return updateConversation(ctx, db, id, userID, map[string]any{"pinned": pinned})
}

// SetConversationCase links (or unlinks, with nil) a case to a conversation.
func SetConversationCase(ctx context.Context, db *gorm.DB, id, userID string, caseID *string) error {
	return updateConversation(ctx, db, id, userID, map[string]any{"case_id": caseID})
}

// SetConversationPersona stores a per-conversation persona override; an empty
// string restores the default persona.
func SetConversationPersona(ctx context.Context, db *gorm.DB, id, userID, persona string) error {
	return updateConversation(ctx, db, id, userID, map[string]any{"persona_override": persona})
}

// SetConversationDocumentRef records the handle of the last session-scoped
// uploaded document.
func SetConversationDocumentRef(ctx context.Context, db *gorm.DB, id, userID, ref string) error {
	return updateConversation(ctx, db, id, userID, map[string]any{"document_ref": ref})
}

// TouchConversation bumps UpdatedAt so recently active dialogs sort first.
func TouchConversation(ctx context.Context, db *gorm.DB, id, userID string) error {
	return updateConversation(ctx, db, id, userID, map[string]any{"updated_at": time.Now().UTC()})
}

// DeleteConversation soft-deletes a conversation and its messages are removed
// by the cascade constraint. Returns ErrNotFound when no row matched.
func DeleteConversation(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Conversation{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func updateConversation(ctx context.Context, db *gorm.DB, id, userID string, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
