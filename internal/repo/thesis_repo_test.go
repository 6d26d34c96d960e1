package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-juris-backend/internal/domain"
)

func TestCreateApprovedDraft_DuplicateMessage(t *testing.T) {
	db := newRepoDB(t, &domain.ApprovedDraft{}, &domain.LearnedThesis{}, &domain.ExtractionJob{})

	d := &domain.ApprovedDraft{
		UserID:         "u1",
		ConversationID: "c1",
		MessageID:      "m1",
		Content:        "texto da minuta",
		Status:         domain.DraftApproved,
	}
	if err := CreateApprovedDraft(context.Background(), db, d); err != nil {
		t.Fatalf("CreateApprovedDraft: %v", err)
	}
	if d.ID == "" {
		t.Fatalf("expected generated ID")
	}
}

func TestCreateThesis_DuplicateDraft(t *testing.T) {
	db := newRepoDB(t, &domain.LearnedThesis{})

	first := &domain.LearnedThesis{
		UserID:      "u1",
		DraftID:     "d1",
		LegalThesis: "tese",
		Status:      domain.ThesisActive,
	}
	if err := CreateThesis(context.Background(), db, first); err != nil {
		t.Fatalf("CreateThesis: %v", err)
	}
	dup := &domain.LearnedThesis{
		UserID:      "u1",
		DraftID:     "d1",
		LegalThesis: "outra",
		Status:      domain.ThesisActive,
	}
	if err := CreateThesis(context.Background(), db, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for same draft, got %v", err)
	}
}

func TestListActiveTheses_FiltersStatusAndOwner(t *testing.T) {
	db := newRepoDB(t, &domain.LearnedThesis{})

	seed := []domain.LearnedThesis{
		{ID: "t1", UserID: "u1", DraftID: "d1", LegalThesis: "a", Status: domain.ThesisActive},
		{ID: "t2", UserID: "u1", DraftID: "d2", LegalThesis: "b", Status: domain.ThesisPending},
		{ID: "t3", UserID: "u1", DraftID: "d3", LegalThesis: "c", Status: domain.ThesisObsolete},
		{ID: "t4", UserID: "u2", DraftID: "d4", LegalThesis: "d", Status: domain.ThesisActive},
	}
	for _, th := range seed {
		if err := db.Create(&th).Error; err != nil {
			t.Fatalf("seed %s: %v", th.ID, err)
		}
	}

	active, err := ListActiveTheses(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("ListActiveTheses: %v", err)
	}
	if len(active) != 1 || active[0].ID != "t1" {
		t.Fatalf("expected only t1, got %#v", active)
	}

	pending, err := ListThesesByStatus(context.Background(), db, "u1", domain.ThesisPending)
	if err != nil || len(pending) != 1 || pending[0].ID != "t2" {
		t.Fatalf("expected only t2 pending, got %#v err=%v", pending, err)
	}
}

func TestClaimNextJob_FIFOAndEmptyQueue(t *testing.T) {
	db := newRepoDB(t, &domain.ExtractionJob{})

	if _, err := ClaimNextJob(context.Background(), db); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty queue, got %v", err)
	}

	j1, err := CreateExtractionJob(context.Background(), db, "u1", "d1")
	if err != nil {
		t.Fatalf("CreateExtractionJob d1: %v", err)
	}
	if _, err := CreateExtractionJob(context.Background(), db, "u1", "d2"); err != nil {
		t.Fatalf("CreateExtractionJob d2: %v", err)
	}

	got, err := ClaimNextJob(context.Background(), db)
	if err != nil {
		t.Fatalf("ClaimNextJob: %v", err)
	}
	if got.ID != j1.ID || got.Status != domain.JobRunning {
		t.Fatalf("expected oldest job running, got %+v", got)
	}

	// The claimed job must not be claimable again.
	second, err := ClaimNextJob(context.Background(), db)
	if err != nil {
		t.Fatalf("ClaimNextJob second: %v", err)
	}
	if second.ID == j1.ID {
		t.Fatalf("claimed the same job twice")
	}
}

func TestCreateExtractionJob_DuplicateDraft(t *testing.T) {
	db := newRepoDB(t, &domain.ExtractionJob{})

	if _, err := CreateExtractionJob(context.Background(), db, "u1", "d1"); err != nil {
		t.Fatalf("CreateExtractionJob: %v", err)
	}
	if _, err := CreateExtractionJob(context.Background(), db, "u1", "d1"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestCompleteAndFailJob(t *testing.T) {
	db := newRepoDB(t, &domain.ExtractionJob{})

	j, err := CreateExtractionJob(context.Background(), db, "u1", "d1")
	if err != nil {
		t.Fatalf("CreateExtractionJob: %v", err)
	}
	if err := CompleteJob(context.Background(), db, j.ID, "quality gate: empty thesis"); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}
	got, err := GetJobByDraft(context.Background(), db, "u1", "d1")
	if err != nil {
		t.Fatalf("GetJobByDraft: %v", err)
	}
	if got.Status != domain.JobDone || got.Note == "" {
		t.Fatalf("expected done with note, got %+v", got)
	}

	j2, err := CreateExtractionJob(context.Background(), db, "u1", "d2")
	if err != nil {
		t.Fatalf("CreateExtractionJob d2: %v", err)
	}
	if err := FailJob(context.Background(), db, j2.ID, "malformed extraction payload"); err != nil {
		t.Fatalf("FailJob: %v", err)
	}
	got2, err := GetJobByDraft(context.Background(), db, "u1", "d2")
	if err != nil || got2.Status != domain.JobFailed || got2.Error == "" {
		t.Fatalf("expected failed with error, got %+v err=%v", got2, err)
	}
}
