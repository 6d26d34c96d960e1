// Package services – ThesisService
//
// Implements the learning loop: an approval decision snapshots the draft and
// enqueues a background extraction job; the extraction distills the draft
// into a reusable thesis, gates it for quality, compares it against the
// user's active theses, and either activates it or parks it pending human
// conflict resolution. Resolution applies keep-both, replace, or merge in a
// single transaction.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-juris-backend/internal/domain"
	"github.com/tbourn/go-juris-backend/internal/llm"
	"github.com/tbourn/go-juris-backend/internal/repo"
	"github.com/tbourn/go-juris-backend/internal/search"
)

// Conflict resolution actions.
const (
	ResolutionKeepBoth = "keep_both"
	ResolutionReplace  = "replace"
	ResolutionMerge    = "merge"
)

// ThesisService owns draft approval and thesis extraction.
type ThesisService struct {
	DB        *gorm.DB
	Gateway   llm.Gateway
	Retriever *search.Retriever

	// SimilarityThreshold at/above which an active thesis counts as a
	// conflict candidate.
	SimilarityThreshold float64
	// CandidateTopK bounds how many active theses are compared.
	CandidateTopK int
}

// ApproveDraft records the user's decision on an assistant message and, for
// approvals, enqueues the extraction job. It returns the stored draft; the
// extraction itself happens later in the worker.
func (s *ThesisService) ApproveDraft(ctx context.Context, userID, conversationID, messageID, status, editedContent, notes string) (*domain.ApprovedDraft, error) {
	tr := otel.Tracer("services/ThesisService")
	ctx, span := tr.Start(ctx, "ApproveDraft",
		trace.WithAttributes(attribute.String("message.id", messageID)),
	)
	defer span.End()

	switch status {
	case domain.DraftApproved, domain.DraftEditedApproved, domain.DraftRejected:
	default:
		return nil, ErrInvalidResolution
	}

	conv, err := repo.GetConversation(ctx, s.DB, conversationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	msg, err := repo.GetMessage(ctx, s.DB, messageID)
	if err != nil || msg.ConversationID != conversationID || msg.Role != domain.RoleAssistant {
		return nil, ErrMessageNotFound
	}

	draft := &domain.ApprovedDraft{
		UserID:         userID,
		ConversationID: conversationID,
		MessageID:      messageID,
		CaseID:         conv.CaseID,
		Content:        msg.Content,
		EditedContent:  editedContent,
		Notes:          notes,
		Status:         status,
	}
	if err := repo.CreateApprovedDraft(ctx, s.DB, draft); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrAlreadyFinalized
		}
		return nil, err
	}

	// Rejections are recorded for audit but never learned from.
	if status == domain.DraftRejected {
		return draft, nil
	}

	if _, err := repo.CreateExtractionJob(ctx, s.DB, userID, draft.ID); err != nil && !errors.Is(err, repo.ErrDuplicate) {
		// The draft exists; a missing job is recoverable, so log only.
		log.Error().Err(err).Str("draft_id", draft.ID).Msg("extraction enqueue failed")
	}
	return draft, nil
}

// extraction is the strict JSON shape requested from the model.
type extraction struct {
	LegalThesis            string   `json:"legalThesis"`
	LegalFoundations       string   `json:"legalFoundations"`
	Keywords               []string `json:"keywords"`
	WritingStyleSample     string   `json:"writingStyleSample"`
	WritingCharacteristics struct {
		Formality string `json:"formality"`
		Structure string `json:"structure"`
		Tone      string `json:"tone"`
	} `json:"writingCharacteristics"`
}

// RunExtraction processes one claimed job end to end. A malformed model
// payload fails the job; a quality-gate discard completes it with a note.
// Neither surfaces to the user who approved the draft.
func (s *ThesisService) RunExtraction(ctx context.Context, job *domain.ExtractionJob) error {
	tr := otel.Tracer("services/ThesisService")
	ctx, span := tr.Start(ctx, "RunExtraction",
		trace.WithAttributes(attribute.String("job.id", job.ID)),
	)
	defer span.End()

	draft, err := repo.GetApprovedDraft(ctx, s.DB, job.DraftID, job.UserID)
	if err != nil {
		return repo.FailJob(ctx, s.DB, job.ID, "draft missing: "+err.Error())
	}

	out, err := s.Gateway.Complete(ctx, []llm.ChatMessage{
		{Role: domain.RoleSystem, Content: extractionPrompt},
		{Role: domain.RoleUser, Content: draft.FinalText()},
	})
	if err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("extraction completion failed")
		return repo.FailJob(ctx, s.DB, job.ID, "completion failed: "+err.Error())
	}

	var ex extraction
	if err := json.Unmarshal([]byte(extractJSON(out)), &ex); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("extraction payload malformed")
		return repo.FailJob(ctx, s.DB, job.ID, "malformed extraction payload")
	}

	// Quality gate: a thesis with no claim or no keywords is not worth keeping.
	if strings.TrimSpace(ex.LegalThesis) == "" || len(ex.Keywords) == 0 {
		log.Info().Str("job_id", job.ID).Msg("extraction discarded by quality gate")
		return repo.CompleteJob(ctx, s.DB, job.ID, "quality gate: empty thesis or keywords")
	}

	thesis := &domain.LearnedThesis{
		UserID:             job.UserID,
		DraftID:            draft.ID,
		CaseID:             draft.CaseID,
		LegalThesis:        ex.LegalThesis,
		LegalFoundations:   ex.LegalFoundations,
		Keywords:           domain.StringList(ex.Keywords),
		WritingStyleSample: ex.WritingStyleSample,
		Formality:          ex.WritingCharacteristics.Formality,
		Structure:          ex.WritingCharacteristics.Structure,
		Tone:               ex.WritingCharacteristics.Tone,
		Status:             domain.ThesisActive,
	}

	if vecs, verr := s.Gateway.Embed(ctx, []string{ex.LegalThesis + " " + ex.LegalFoundations}); verr == nil && len(vecs) == 1 {
		thesis.Embedding = domain.Vector(vecs[0])
	} else if verr != nil {
		log.Warn().Err(verr).Str("job_id", job.ID).Msg("thesis embedding failed, storing without vector")
	}

	// Conflict check against the user's active theses.
	conflicts, scores := s.findConflicts(ctx, job.UserID, thesis)
	if len(conflicts) > 0 {
		thesis.Status = domain.ThesisPending
		thesis.ConflictWith = conflicts
		log.Info().
			Str("job_id", job.ID).
			Strs("conflicts", conflicts).
			Msg("thesis parked pending conflict resolution")
		_ = scores // scores are recomputed on listing; stored IDs suffice
	}

	if err := repo.CreateThesis(ctx, s.DB, thesis); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return repo.CompleteJob(ctx, s.DB, job.ID, "thesis already extracted")
		}
		return repo.FailJob(ctx, s.DB, job.ID, "thesis insert failed: "+err.Error())
	}
	return repo.CompleteJob(ctx, s.DB, job.ID, "")
}

// findConflicts returns the IDs (and scores) of active theses at/above the
// similarity threshold.
func (s *ThesisService) findConflicts(ctx context.Context, userID string, t *domain.LearnedThesis) ([]string, []float64) {
	if s.Retriever == nil {
		return nil, nil
	}
	k := s.CandidateTopK
	if k <= 0 {
		k = 3
	}
	hits, err := s.Retriever.TopTheses(ctx, userID, t.LegalThesis+" "+t.LegalFoundations, k)
	if err != nil {
		log.Warn().Err(err).Msg("conflict candidate search failed")
		return nil, nil
	}
	var ids []string
	var scores []float64
	for _, h := range hits {
		if h.Percent/100 >= s.SimilarityThreshold {
			ids = append(ids, h.Thesis.ID)
			scores = append(scores, h.Percent)
		}
	}
	return ids, scores
}

// PendingConflict is one pending thesis plus its scored candidates.
type PendingConflict struct {
	Thesis     domain.LearnedThesis `json:"thesis"`
	Candidates []ConflictCandidate  `json:"candidates"`
}

// ConflictCandidate is an active thesis a pending one collides with.
type ConflictCandidate struct {
	Thesis  domain.LearnedThesis `json:"thesis"`
	Percent float64              `json:"percent"`
}

// ListConflicts returns the user's pending theses with their conflict
// candidates and similarity percentages.
func (s *ThesisService) ListConflicts(ctx context.Context, userID string) ([]PendingConflict, error) {
	pending, err := repo.ListThesesByStatus(ctx, s.DB, userID, domain.ThesisPending)
	if err != nil {
		return nil, err
	}
	out := make([]PendingConflict, 0, len(pending))
	for _, p := range pending {
		pc := PendingConflict{Thesis: p}
		for _, id := range p.ConflictWith {
			cand, err := repo.GetThesis(ctx, s.DB, id, userID)
			if err != nil {
				continue // candidate may have been resolved away
			}
			percent := 0.0
			if !p.Embedding.IsZero() && !cand.Embedding.IsZero() {
				percent = clampPercent(search.Cosine(p.Embedding, cand.Embedding) * 100)
			}
			pc.Candidates = append(pc.Candidates, ConflictCandidate{Thesis: *cand, Percent: percent})
		}
		out = append(out, pc)
	}
	return out, nil
}

// Resolve applies one conflict decision in a single transaction.
//
//   - keep_both: the pending thesis becomes active alongside the candidates.
//   - replace: the target active thesis becomes obsolete; the pending one
//     becomes active.
//   - merge: the target's foundations are folded into the pending thesis,
//     the target becomes obsolete, the pending one becomes active.
func (s *ThesisService) Resolve(ctx context.Context, userID, thesisID, action, targetID string) (*domain.LearnedThesis, error) {
	tr := otel.Tracer("services/ThesisService")
	ctx, span := tr.Start(ctx, "Resolve",
		trace.WithAttributes(
			attribute.String("thesis.id", thesisID),
			attribute.String("action", action),
		),
	)
	defer span.End()

	pending, err := repo.GetThesis(ctx, s.DB, thesisID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrThesisNotFound
		}
		return nil, err
	}
	if pending.Status != domain.ThesisPending {
		return nil, ErrNotPending
	}

	needsTarget := action == ResolutionReplace || action == ResolutionMerge
	if needsTarget && targetID == "" {
		return nil, ErrInvalidResolution
	}

	var target *domain.LearnedThesis
	if needsTarget {
		target, err = repo.GetThesis(ctx, s.DB, targetID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrThesisNotFound
			}
			return nil, err
		}
		if !contains(pending.ConflictWith, targetID) {
			return nil, ErrInvalidResolution
		}
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		activate := map[string]any{
			"status":        domain.ThesisActive,
			"conflict_with": domain.StringList{},
		}
		switch action {
		case ResolutionKeepBoth:
			return repo.UpdateThesis(ctx, tx, thesisID, userID, activate)
		case ResolutionReplace:
			if err := repo.UpdateThesis(ctx, tx, targetID, userID, map[string]any{"status": domain.ThesisObsolete}); err != nil {
				return err
			}
			return repo.UpdateThesis(ctx, tx, thesisID, userID, activate)
		case ResolutionMerge:
			merged := pending.LegalFoundations
			if target.LegalFoundations != "" {
				merged = strings.TrimSpace(merged + "\n\n" + target.LegalFoundations)
			}
			activate["legal_foundations"] = merged
			activate["keywords"] = mergeKeywords(pending.Keywords, target.Keywords)
			if err := repo.UpdateThesis(ctx, tx, targetID, userID, map[string]any{"status": domain.ThesisObsolete}); err != nil {
				return err
			}
			return repo.UpdateThesis(ctx, tx, thesisID, userID, activate)
		}
		return ErrInvalidResolution
	})
	if err != nil {
		return nil, err
	}
	return repo.GetThesis(ctx, s.DB, thesisID, userID)
}

func mergeKeywords(a, b domain.StringList) domain.StringList {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make(domain.StringList, 0, len(a)+len(b))
	for _, k := range append(append(domain.StringList{}, a...), b...) {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		low := strings.ToLower(k)
		if _, dup := seen[low]; dup {
			continue
		}
		seen[low] = struct{}{}
		out = append(out, k)
	}
	return out
}

func contains(list domain.StringList, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

func clampPercent(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 100 {
		return 100
	}
	return f
}

var extractionPrompt = fmt.Sprintf(`Analise a peça jurídica aprovada e extraia o conhecimento reutilizável.
Responda apenas com JSON neste formato exato:
%s`, `{"legalThesis":"","legalFoundations":"","keywords":[],"writingStyleSample":"","writingCharacteristics":{"formality":"","structure":"","tone":""}}`)
