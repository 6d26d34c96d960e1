// Package indexer turns extracted document pages into persisted, embedded
// retrieval chunks. Embedding runs with bounded concurrency; a chunk whose
// embedding call fails is kept with an empty vector so lexical fallback
// search still reaches it.
package indexer

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tbourn/go-juris-backend/internal/chunk"
	"github.com/tbourn/go-juris-backend/internal/domain"
	"github.com/tbourn/go-juris-backend/internal/llm"
	"github.com/tbourn/go-juris-backend/internal/repo"
)

// Indexer chunks, embeds, and stores document text.
type Indexer struct {
	DB          *gorm.DB
	Gateway     llm.Gateway
	Splitter    chunk.Splitter
	Concurrency int // parallel embedding calls, min 1
}

// IndexDocument records the document metadata, splits its pages, embeds each
// chunk, and persists everything. It returns the stored document and the
// number of chunks written. Individual embedding failures are logged and do
// not fail the ingestion.
func (ix *Indexer) IndexDocument(ctx context.Context, userID, caseID, name string, pages []chunk.Page) (*domain.CaseDocument, int, error) {
	ctx, span := otel.Tracer("indexer").Start(ctx, "Indexer.IndexDocument")
	defer span.End()

	doc, err := repo.CreateCaseDocument(ctx, ix.DB, userID, caseID, name, len(pages))
	if err != nil {
		return nil, 0, err
	}

	pieces := ix.Splitter.Split(pages)
	if len(pieces) == 0 {
		return doc, 0, nil
	}

	rows := make([]domain.DocumentChunk, len(pieces))
	for i, p := range pieces {
		rows[i] = domain.DocumentChunk{
			DocumentID: doc.ID,
			CaseID:     caseID,
			UserID:     userID,
			Page:       p.Page,
			Seq:        p.Seq,
			Text:       p.Text,
			TokenCount: p.TokenCount,
		}
	}

	ix.embedAll(ctx, rows)

	if err := repo.CreateChunks(ctx, ix.DB, rows); err != nil {
		return nil, 0, err
	}
	return doc, len(rows), nil
}

// embedAll fills the Embedding of each row, at most Concurrency calls in
// flight. Failed rows keep an empty vector.
func (ix *Indexer) embedAll(ctx context.Context, rows []domain.DocumentChunk) {
	limit := ix.Concurrency
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range rows {
		i := i
		g.Go(func() error {
			vecs, err := ix.Gateway.Embed(gctx, []string{rows[i].Text})
			if err != nil || len(vecs) != 1 {
				log.Warn().
					Err(err).
					Str("document_id", rows[i].DocumentID).
					Int("page", rows[i].Page).
					Int("seq", rows[i].Seq).
					Msg("chunk embedding failed, storing without vector")
				return nil // never abort sibling embeddings
			}
			rows[i].Embedding = domain.Vector(vecs[0])
			return nil
		})
	}
	_ = g.Wait()
}
