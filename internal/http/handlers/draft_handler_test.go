package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/tbourn/go-juris-backend/internal/domain"
)

func TestDecideDraftApprovalQueuesExtraction(t *testing.T) {
	r, db := newTestAPI(t, &stubGateway{})
	convID := uuid.NewString()
	seedConv(t, db, convID, "demo-user")
	msg := seedMsg(t, db, uuid.NewString(), convID, domain.RoleAssistant, "Minuta de contestação gerada.")

	w := doJSON(t, r, http.MethodPost, "/conversations/"+convID+"/messages/"+msg.ID+"/decision", DraftDecisionRequest{
		Status: domain.DraftApproved,
		Notes:  "pronta para protocolo",
	}, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp DraftDecisionResponse
	decodeJSON(t, w, &resp)
	if resp.Draft == nil || resp.Draft.Status != domain.DraftApproved {
		t.Fatalf("draft = %+v", resp.Draft)
	}
	if resp.Draft.Content != "Minuta de contestação gerada." {
		t.Fatalf("draft content = %q", resp.Draft.Content)
	}

	var n int64
	if err := db.Model(&domain.ExtractionJob{}).Where("draft_id = ? AND status = ?", resp.Draft.ID, domain.JobQueued).Count(&n).Error; err != nil {
		t.Fatalf("count jobs: %v", err)
	}
	if n != 1 {
		t.Fatalf("queued jobs = %d, want 1", n)
	}
}

func TestDecideDraftRejectionSkipsQueue(t *testing.T) {
	r, db := newTestAPI(t, &stubGateway{})
	convID := uuid.NewString()
	seedConv(t, db, convID, "demo-user")
	msg := seedMsg(t, db, uuid.NewString(), convID, domain.RoleAssistant, "Minuta fraca.")

	w := doJSON(t, r, http.MethodPost, "/conversations/"+convID+"/messages/"+msg.ID+"/decision", DraftDecisionRequest{
		Status: domain.DraftRejected,
	}, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d", w.Code)
	}

	var n int64
	_ = db.Model(&domain.ExtractionJob{}).Count(&n).Error
	if n != 0 {
		t.Fatalf("jobs = %d, rejections must not enqueue", n)
	}
}

func TestDecideDraftErrors(t *testing.T) {
	r, db := newTestAPI(t, &stubGateway{})
	convID := uuid.NewString()
	seedConv(t, db, convID, "demo-user")
	msg := seedMsg(t, db, uuid.NewString(), convID, domain.RoleAssistant, "Minuta.")

	base := "/conversations/" + convID + "/messages/"

	if w := doJSON(t, r, http.MethodPost, base+"not-a-uuid/decision", DraftDecisionRequest{Status: domain.DraftApproved}, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad message id: status = %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, base+uuid.NewString()+"/decision", DraftDecisionRequest{Status: domain.DraftApproved}, nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown message: status = %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, base+msg.ID+"/decision", DraftDecisionRequest{Status: "talvez"}, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad status: status = %d", w.Code)
	}

	// First decision sticks; a second one conflicts.
	if w := doJSON(t, r, http.MethodPost, base+msg.ID+"/decision", DraftDecisionRequest{Status: domain.DraftApproved}, nil); w.Code != http.StatusAccepted {
		t.Fatalf("first decision: status = %d", w.Code)
	}
	w := doJSON(t, r, http.MethodPost, base+msg.ID+"/decision", DraftDecisionRequest{Status: domain.DraftRejected}, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("second decision: status = %d, want 409", w.Code)
	}
	if errCode(t, w) != ErrCodeConflict {
		t.Fatalf("code = %q", errCode(t, w))
	}
}
