// Draft decision HTTP handler.
//
// POST /conversations/{id}/messages/{messageID}/decision records the user's
// verdict on an assistant-drafted document. Approvals (plain or edited)
// enqueue a background thesis extraction; the endpoint answers 202 because
// learning happens asynchronously and its outcome never blocks the user.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-juris-backend/internal/domain"
	"github.com/tbourn/go-juris-backend/internal/services"
)

// DraftDecisionRequest is the JSON payload for a draft verdict.
type DraftDecisionRequest struct {
	// Status is one of approved, edited_approved, rejected.
	Status string `json:"status" binding:"required" example:"approved"`
	// EditedContent carries the user's final text for edited_approved.
	EditedContent string `json:"edited_content,omitempty"`
	// Notes optionally records why the decision was made.
	Notes string `json:"notes,omitempty"`
}

// DraftDecisionResponse wraps the stored draft snapshot.
type DraftDecisionResponse struct {
	Draft *domain.ApprovedDraft `json:"draft"`
}

// DecideDraft godoc
// @ID          decideDraft
// @Summary     Record a decision on an assistant draft
// @Description Approvals are queued for background thesis extraction.
// @Tags        Drafts
// @Accept      json
// @Produce     json
// @Param       id        path string true "Conversation ID (UUID)" format(uuid)
// @Param       messageID path string true "Assistant message ID (UUID)" format(uuid)
// @Param       body      body handlers.DraftDecisionRequest true "Decision payload"
// @Success     202 {object} handlers.DraftDecisionResponse
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Failure     409 {object} handlers.ErrorResponse "Message already finalized"
// @Router      /conversations/{id}/messages/{messageID}/decision [post]
func (h *Handlers) DecideDraft(c *gin.Context) {
	conversationID := c.Param("id")
	messageID := c.Param("messageID")
	if _, err := uuid.Parse(conversationID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}
	if _, err := uuid.Parse(messageID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message id must be a UUID")
		return
	}

	var req DraftDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status required")
		return
	}

	draft, err := h.thesisSvc.ApproveDraft(c.Request.Context(), userID(c), conversationID, messageID, req.Status, req.EditedContent, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidResolution):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status must be approved, edited_approved or rejected")
		case errors.Is(err, services.ErrConversationNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		case errors.Is(err, services.ErrMessageNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "assistant message not found")
		case errors.Is(err, services.ErrAlreadyFinalized):
			fail(c, http.StatusConflict, ErrCodeConflict, "message already finalized")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusAccepted, DraftDecisionResponse{Draft: draft})
}
