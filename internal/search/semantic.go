package search

import (
	"context"
	"math"
	"sort"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-juris-backend/internal/domain"
	"github.com/tbourn/go-juris-backend/internal/llm"
	"github.com/tbourn/go-juris-backend/internal/repo"
)

// vectorlessCeiling caps the score of lexical-fallback candidates so they
// always rank below any cosine-scored candidate, whose floor is 0.
const vectorlessCeiling = -0.000001

// ChunkHit is one ranked document chunk.
type ChunkHit struct {
	Chunk   domain.DocumentChunk
	Score   float64 // raw similarity; negative for lexical fallback
	Percent float64 // clamp01(cosine) * 100, or 0 for fallback hits
}

// ThesisHit is one ranked learned thesis.
type ThesisHit struct {
	Thesis  domain.LearnedThesis
	Score   float64
	Percent float64
}

// Retriever embeds queries once and ranks stored rows by cosine similarity.
type Retriever struct {
	DB      *gorm.DB
	Gateway llm.Gateway
}

// TopChunks returns the k most similar chunks of a case's documents. An
// empty candidate set returns an empty slice with nil error. When the query
// embedding fails, every candidate is scored lexically instead.
func (r *Retriever) TopChunks(ctx context.Context, userID, caseID, query string, k int) ([]ChunkHit, error) {
	chunks, err := repo.ListChunksByCase(ctx, r.DB, userID, caseID)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 || k <= 0 {
		return []ChunkHit{}, nil
	}

	qVec := r.embedQuery(ctx, query)
	qTokens := tokenize(query, portugueseStopwords)

	hits := make([]ChunkHit, 0, len(chunks))
	for _, c := range chunks {
		score, percent := scoreText(qVec, qTokens, c.Embedding, c.Text)
		if score == 0 && percent == 0 {
			continue
		}
		hits = append(hits, ChunkHit{Chunk: c, Score: score, Percent: percent})
	}
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].Chunk.ID < hits[b].Chunk.ID
	})
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// TopTheses returns the user's k most similar active theses.
func (r *Retriever) TopTheses(ctx context.Context, userID, query string, k int) ([]ThesisHit, error) {
	theses, err := repo.ListActiveTheses(ctx, r.DB, userID)
	if err != nil {
		return nil, err
	}
	return r.RankTheses(ctx, theses, query, k)
}

// RankTheses scores an explicit candidate set; the extraction pipeline uses
// it to compare a new thesis against the active ones.
func (r *Retriever) RankTheses(ctx context.Context, theses []domain.LearnedThesis, query string, k int) ([]ThesisHit, error) {
	if len(theses) == 0 || k <= 0 {
		return []ThesisHit{}, nil
	}

	qVec := r.embedQuery(ctx, query)
	qTokens := tokenize(query, portugueseStopwords)

	hits := make([]ThesisHit, 0, len(theses))
	for _, t := range theses {
		score, percent := scoreText(qVec, qTokens, t.Embedding, t.LegalThesis+" "+t.LegalFoundations)
		if score == 0 && percent == 0 {
			continue
		}
		hits = append(hits, ThesisHit{Thesis: t, Score: score, Percent: percent})
	}
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].Thesis.ID < hits[b].Thesis.ID
	})
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// embedQuery returns the query embedding, or nil when the provider fails;
// callers then degrade to the lexical scorer.
func (r *Retriever) embedQuery(ctx context.Context, query string) domain.Vector {
	if r.Gateway == nil {
		return nil
	}
	vecs, err := r.Gateway.Embed(ctx, []string{query})
	if err != nil || len(vecs) != 1 {
		return nil
	}
	return domain.Vector(vecs[0])
}

// scoreText ranks one candidate. Both embeddings present → cosine, with
// Percent = clamp01(cos)*100. Otherwise the lexical score is shifted below
// vectorlessCeiling so fallback hits can never outrank embedded ones.
func scoreText(qVec domain.Vector, qTokens map[string]struct{}, vec domain.Vector, text string) (score, percent float64) {
	if !qVec.IsZero() && !vec.IsZero() {
		cos := Cosine(qVec, vec)
		return cos, clamp01(cos) * 100
	}
	j := jaccard(qTokens, text, portugueseStopwords)
	if j == 0 {
		return 0, 0
	}
	// map (0,1] lexical into (-1, ceiling]
	return vectorlessCeiling - (1 - j), 0
}

// Cosine returns the cosine similarity of two vectors, 0 when either is
// degenerate or lengths differ.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Snippet shortens a chunk text for prompt inclusion without cutting runes.
func Snippet(text string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	r := []rune(text)
	return string(r[:maxRunes]) + "…"
}
