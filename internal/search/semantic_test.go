package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-juris-backend/internal/domain"
	"github.com/tbourn/go-juris-backend/internal/llm"
)

// gatewayStub implements llm.Gateway; only Embed matters here.
type gatewayStub struct {
	embed func(texts []string) ([][]float64, error)
}

func (g gatewayStub) Complete(context.Context, []llm.ChatMessage) (string, error) {
	return "", errors.New("not used")
}

func (g gatewayStub) CompleteStream(context.Context, []llm.ChatMessage) (llm.Stream, error) {
	return nil, errors.New("not used")
}

func (g gatewayStub) Embed(_ context.Context, texts []string) ([][]float64, error) {
	return g.embed(texts)
}

func (g gatewayStub) ListModels(context.Context) (llm.ModelList, error) {
	return llm.ModelList{}, errors.New("not used")
}

func newSearchDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("search_test_%d.db", time.Now().UnixNano()))
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
	if err := db.AutoMigrate(&domain.DocumentChunk{}, &domain.LearnedThesis{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestCosine(t *testing.T) {
	if got := Cosine([]float64{1, 0}, []float64{1, 0}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("identical vectors should score 1, got %f", got)
	}
	if got := Cosine([]float64{1, 0}, []float64{0, 1}); math.Abs(got) > 1e-9 {
		t.Fatalf("orthogonal vectors should score 0, got %f", got)
	}
	if got := Cosine([]float64{1, 0}, []float64{-1, 0}); math.Abs(got+1) > 1e-9 {
		t.Fatalf("opposite vectors should score -1, got %f", got)
	}
	if Cosine(nil, []float64{1}) != 0 || Cosine([]float64{1, 2}, []float64{1}) != 0 {
		t.Fatalf("degenerate inputs should score 0")
	}
}

func TestTopChunks_EmptyCandidateSet(t *testing.T) {
	db := newSearchDB(t)
	r := &Retriever{DB: db, Gateway: gatewayStub{embed: func(texts []string) ([][]float64, error) {
		return [][]float64{{1, 0}}, nil
	}}}

	hits, err := r.TopChunks(context.Background(), "u1", "case1", "qualquer coisa", 4)
	if err != nil {
		t.Fatalf("TopChunks: %v", err)
	}
	if hits == nil || len(hits) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", hits)
	}
}

func TestTopChunks_RanksByCosineWithPercent(t *testing.T) {
	db := newSearchDB(t)
	seed := []domain.DocumentChunk{
		{ID: "c-close", DocumentID: "d", CaseID: "k", UserID: "u1", Page: 1, Seq: 0, Text: "texto próximo", Embedding: domain.Vector{1, 0.1}},
		{ID: "c-far", DocumentID: "d", CaseID: "k", UserID: "u1", Page: 1, Seq: 1, Text: "texto distante", Embedding: domain.Vector{0, 1}},
		{ID: "c-other", DocumentID: "d", CaseID: "k2", UserID: "u1", Page: 1, Seq: 0, Text: "outro caso", Embedding: domain.Vector{1, 0}},
	}
	for _, c := range seed {
		if err := db.Create(&c).Error; err != nil {
			t.Fatalf("seed %s: %v", c.ID, err)
		}
	}

	r := &Retriever{DB: db, Gateway: gatewayStub{embed: func(texts []string) ([][]float64, error) {
		return [][]float64{{1, 0}}, nil
	}}}

	hits, err := r.TopChunks(context.Background(), "u1", "k", "consulta", 10)
	if err != nil {
		t.Fatalf("TopChunks: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits scoped to case k, got %d", len(hits))
	}
	if hits[0].Chunk.ID != "c-close" {
		t.Fatalf("expected c-close first, got %s", hits[0].Chunk.ID)
	}
	if hits[0].Percent <= hits[1].Percent {
		t.Fatalf("percent not descending: %f vs %f", hits[0].Percent, hits[1].Percent)
	}
	if hits[0].Percent < 0 || hits[0].Percent > 100 {
		t.Fatalf("percent out of range: %f", hits[0].Percent)
	}
}

func TestTopChunks_VectorlessRanksBelowEmbedded(t *testing.T) {
	db := newSearchDB(t)
	seed := []domain.DocumentChunk{
		// lexically perfect but without embedding
		{ID: "c-noemb", DocumentID: "d", CaseID: "k", UserID: "u1", Page: 1, Seq: 0, Text: "contrato rescisão multa"},
		// weakly similar embedding
		{ID: "c-emb", DocumentID: "d", CaseID: "k", UserID: "u1", Page: 1, Seq: 1, Text: "qualquer", Embedding: domain.Vector{0.2, 1}},
	}
	for _, c := range seed {
		if err := db.Create(&c).Error; err != nil {
			t.Fatalf("seed %s: %v", c.ID, err)
		}
	}

	r := &Retriever{DB: db, Gateway: gatewayStub{embed: func(texts []string) ([][]float64, error) {
		return [][]float64{{1, 0}}, nil
	}}}

	hits, err := r.TopChunks(context.Background(), "u1", "k", "contrato rescisão multa", 10)
	if err != nil {
		t.Fatalf("TopChunks: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected both chunks ranked, got %d", len(hits))
	}
	if hits[0].Chunk.ID != "c-emb" {
		t.Fatalf("embedded chunk must outrank vectorless one, got %s first", hits[0].Chunk.ID)
	}
	if hits[1].Percent != 0 {
		t.Fatalf("fallback hit must not claim a percent, got %f", hits[1].Percent)
	}
}

func TestTopChunks_EmbedFailureDegradesToLexical(t *testing.T) {
	db := newSearchDB(t)
	seed := []domain.DocumentChunk{
		{ID: "c-match", DocumentID: "d", CaseID: "k", UserID: "u1", Page: 1, Seq: 0, Text: "dano moral indenização", Embedding: domain.Vector{1, 0}},
		{ID: "c-miss", DocumentID: "d", CaseID: "k", UserID: "u1", Page: 1, Seq: 1, Text: "zzz yyy xxx", Embedding: domain.Vector{0, 1}},
	}
	for _, c := range seed {
		if err := db.Create(&c).Error; err != nil {
			t.Fatalf("seed %s: %v", c.ID, err)
		}
	}

	r := &Retriever{DB: db, Gateway: gatewayStub{embed: func([]string) ([][]float64, error) {
		return nil, errors.New("provider down")
	}}}

	hits, err := r.TopChunks(context.Background(), "u1", "k", "dano moral", 10)
	if err != nil {
		t.Fatalf("TopChunks should not fail on embed error: %v", err)
	}
	if len(hits) != 1 || hits[0].Chunk.ID != "c-match" {
		t.Fatalf("expected lexical match only, got %#v", hits)
	}
}

func TestRankTheses_OrderAndScope(t *testing.T) {
	db := newSearchDB(t)
	theses := []domain.LearnedThesis{
		{ID: "t1", UserID: "u1", DraftID: "d1", LegalThesis: "a", Status: domain.ThesisActive, Embedding: domain.Vector{1, 0}},
		{ID: "t2", UserID: "u1", DraftID: "d2", LegalThesis: "b", Status: domain.ThesisActive, Embedding: domain.Vector{0.5, 0.5}},
	}

	r := &Retriever{DB: db, Gateway: gatewayStub{embed: func([]string) ([][]float64, error) {
		return [][]float64{{1, 0}}, nil
	}}}

	hits, err := r.RankTheses(context.Background(), theses, "consulta", 1)
	if err != nil {
		t.Fatalf("RankTheses: %v", err)
	}
	if len(hits) != 1 || hits[0].Thesis.ID != "t1" {
		t.Fatalf("expected t1 as single best hit, got %#v", hits)
	}
}
