// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for learned theses,
// approved drafts, and the extraction job queue.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-juris-backend/internal/domain"
)

// ErrDuplicate indicates a unique-constraint violation, e.g. approving the
// same draft twice or re-queuing an extraction for a draft that has one.
var ErrDuplicate = errors.New("duplicate")

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// --- approved drafts ---

// CreateApprovedDraft inserts the immutable record of an approval decision.
// Returns ErrDuplicate when the message was already finalized.
func CreateApprovedDraft(ctx context.Context, db *gorm.DB, d *domain.ApprovedDraft) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(d).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetApprovedDraft fetches a draft by ID and owner, or ErrNotFound.
func GetApprovedDraft(ctx context.Context, db *gorm.DB, id, userID string) (*domain.ApprovedDraft, error) {
	var d domain.ApprovedDraft
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// --- learned theses ---

// CreateThesis inserts a learned thesis. Returns ErrDuplicate when the draft
// already produced one.
func CreateThesis(ctx context.Context, db *gorm.DB, t *domain.LearnedThesis) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetThesis fetches a thesis by ID and owner, or ErrNotFound.
func GetThesis(ctx context.Context, db *gorm.DB, id, userID string) (*domain.LearnedThesis, error) {
	var t domain.LearnedThesis
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListThesesByStatus returns the user's theses in a given lifecycle state,
// newest first.
func ListThesesByStatus(ctx context.Context, db *gorm.DB, userID, status string) ([]domain.LearnedThesis, error) {
	var out []domain.LearnedThesis
	err := db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, status).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// ListActiveTheses returns the user's active theses. Only these are eligible
// for retrieval and for conflict comparison.
func ListActiveTheses(ctx context.Context, db *gorm.DB, userID string) ([]domain.LearnedThesis, error) {
	return ListThesesByStatus(ctx, db, userID, domain.ThesisActive)
}

// UpdateThesis persists the given field set on a thesis, enforcing ownership.
// Returns ErrNotFound when no row matched.
func UpdateThesis(ctx context.Context, db *gorm.DB, id, userID string, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.LearnedThesis{}).
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

// --- extraction jobs ---

// CreateExtractionJob enqueues a background extraction for a draft.
// Returns ErrDuplicate when the draft already has a job.
func CreateExtractionJob(ctx context.Context, db *gorm.DB, userID, draftID string) (*domain.ExtractionJob, error) {
	now := time.Now().UTC()
	j := &domain.ExtractionJob{
		ID:        uuid.NewString(),
		UserID:    userID,
		DraftID:   draftID,
		Status:    domain.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(j).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return j, nil
}

// ClaimNextJob atomically moves the oldest queued job to running and returns
// it. Returns ErrNotFound when the queue is empty. The claim runs in a
// transaction so two workers never pick the same job.
func ClaimNextJob(ctx context.Context, db *gorm.DB) (*domain.ExtractionJob, error) {
	var j domain.ExtractionJob
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("status = ?", domain.JobQueued).
			Order("created_at asc").
			First(&j).Error; err != nil {
			return err
		}
		res := tx.Model(&domain.ExtractionJob{}).
			Where("id = ? AND status = ?", j.ID, domain.JobQueued).
			Updates(map[string]any{"status": domain.JobRunning, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		j.Status = domain.JobRunning
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// CompleteJob marks a job done with an optional note (e.g. quality-gate
// discard reason).
func CompleteJob(ctx context.Context, db *gorm.DB, id, note string) error {
	return db.WithContext(ctx).
		Model(&domain.ExtractionJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     domain.JobDone,
			"note":       note,
			"updated_at": time.Now().UTC(),
		}).Error
}

// FailJob marks a job failed, recording the error text.
func FailJob(ctx context.Context, db *gorm.DB, id, errText string) error {
	return db.WithContext(ctx).
		Model(&domain.ExtractionJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     domain.JobFailed,
			"error":      errText,
			"updated_at": time.Now().UTC(),
		}).Error
}

// GetJobByDraft fetches a draft's extraction job, or ErrNotFound.
func GetJobByDraft(ctx context.Context, db *gorm.DB, userID, draftID string) (*domain.ExtractionJob, error) {
	var j domain.ExtractionJob
	err := db.WithContext(ctx).
		Where("user_id = ? AND draft_id = ?", userID, draftID).
		First(&j).Error
	if err != nil {
		return nil, err
	}
	return &j, nil
}
