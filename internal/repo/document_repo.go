// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for ingested case
// documents and their retrieval chunks.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-juris-backend/internal/domain"
)

// CreateCaseDocument records the metadata of one ingested document.
func CreateCaseDocument(ctx context.Context, db *gorm.DB, userID, caseID, name string, pageCount int) (*domain.CaseDocument, error) {
	d := &domain.CaseDocument{
		ID:        uuid.NewString(),
		CaseID:    caseID,
		UserID:    userID,
		Name:      name,
		PageCount: pageCount,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

// ListCaseDocuments returns the documents ingested for a case, newest first.
func ListCaseDocuments(ctx context.Context, db *gorm.DB, userID, caseID string) ([]domain.CaseDocument, error) {
	var out []domain.CaseDocument
	err := db.WithContext(ctx).
		Where("user_id = ? AND case_id = ?", userID, caseID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// CreateChunks bulk-inserts the chunk rows of one document. IDs and
// timestamps are assigned here; the caller provides page, seq, text, token
// estimate, tag, and (possibly empty) embedding.
func CreateChunks(ctx context.Context, db *gorm.DB, chunks []domain.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range chunks {
		if chunks[i].ID == "" {
			chunks[i].ID = uuid.NewString()
		}
		chunks[i].CreatedAt = now
	}
	return db.WithContext(ctx).CreateInBatches(chunks, 100).Error
}

// ListChunksByCase returns every chunk of every document of a case, in
// (document, page, seq) order. The retriever scores these in memory.
func ListChunksByCase(ctx context.Context, db *gorm.DB, userID, caseID string) ([]domain.DocumentChunk, error) {
	var out []domain.DocumentChunk
	err := db.WithContext(ctx).
		Where("user_id = ? AND case_id = ?", userID, caseID).
		Order("document_id ASC, page ASC, seq ASC").
		Find(&out).Error
	return out, err
}

// ListChunksByDocument returns the chunks of a single document in
// (page, seq) order.
func ListChunksByDocument(ctx context.Context, db *gorm.DB, userID, documentID string) ([]domain.DocumentChunk, error) {
	var out []domain.DocumentChunk
	err := db.WithContext(ctx).
		Where("user_id = ? AND document_id = ?", userID, documentID).
		Order("page ASC, seq ASC").
		Find(&out).Error
	return out, err
}

// DeleteDocument soft-deletes a document and its chunks. Returns ErrNotFound
// when no row matched.
func DeleteDocument(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.CaseDocument{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	// chunks are reachable only through their document; drop them too
	return db.WithContext(ctx).
		Where("document_id = ? AND user_id = ?", id, userID).
		Delete(&domain.DocumentChunk{}).Error
}

// CreateKnowledgeDoc inserts a user-authored reference document.
func CreateKnowledgeDoc(ctx context.Context, db *gorm.DB, userID, title, content, sourceURL string) (*domain.KnowledgeDoc, error) {
	k := &domain.KnowledgeDoc{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Content:   content,
		SourceURL: sourceURL,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(k).Error; err != nil {
		return nil, err
	}
	return k, nil
}

// ListKnowledgeDocs returns the user's reference documents, oldest first, so
// assembled context keeps a stable document order.
func ListKnowledgeDocs(ctx context.Context, db *gorm.DB, userID string) ([]domain.KnowledgeDoc, error) {
	var out []domain.KnowledgeDoc
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// UpdateKnowledgeDoc persists title/content/source changes, enforcing
// ownership. Returns ErrNotFound when no row matched.
func UpdateKnowledgeDoc(ctx context.Context, db *gorm.DB, id, userID string, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.KnowledgeDoc{}).
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

// DeleteKnowledgeDoc soft-deletes a reference document.
func DeleteKnowledgeDoc(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.KnowledgeDoc{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
