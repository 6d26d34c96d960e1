// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Case model
// and its ingested documents.
package repo

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-juris-backend/internal/domain"
)

// CreateCase inserts a new Case row owned by userID.
func CreateCase(ctx context.Context, db *gorm.DB, userID string, c domain.Case) (*domain.Case, error) {
	c.ID = uuid.NewString()
	c.UserID = userID
	c.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCases returns all cases belonging to userID, most recently updated first.
func ListCases(ctx context.Context, db *gorm.DB, userID string) ([]domain.Case, error) {
	var out []domain.Case
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Find(&out).Error
	return out, err
}

// GetCase fetches a single case by ID and owner, or ErrNotFound.
func GetCase(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Case, error) {
	var c domain.Case
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCase persists the given field set on a case, enforcing ownership.
// Returns ErrNotFound when no row matched.
func UpdateCase(ctx context.Context, db *gorm.DB, id, userID string, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Case{}).
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

// DeleteCase soft-deletes a case; documents and chunks go with it via the
// cascade constraints. Returns ErrNotFound when no row matched.
func DeleteCase(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Case{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindCaseByIdentifier returns the user's case whose normalized process
// identifier matches the given one, or ErrNotFound. Normalization strips
// punctuation and whitespace and lowercases, so "0001234-56.2024" and
// "000123456 2024" compare equal.
func FindCaseByIdentifier(ctx context.Context, db *gorm.DB, userID, identifier string) (*domain.Case, error) {
	want := NormalizeIdentifier(identifier)
	if want == "" {
		return nil, ErrNotFound
	}
	var rows []domain.Case
	if err := db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		if NormalizeIdentifier(rows[i].Identifier) == want {
			return &rows[i], nil
		}
	}
	return nil, ErrNotFound
}

// NormalizeIdentifier lowercases a process identifier and removes every rune
// that is not a letter or digit.
func NormalizeIdentifier(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
