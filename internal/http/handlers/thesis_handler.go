// Thesis HTTP handlers.
//
// REST endpoints for the learned-thesis library:
//   - GET  /theses            (list by status, default active)
//   - GET  /theses/conflicts  (pending theses with scored candidates)
//   - POST /theses/{id}/resolve (apply keep_both / replace / merge)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-juris-backend/internal/domain"
	"github.com/tbourn/go-juris-backend/internal/repo"
	"github.com/tbourn/go-juris-backend/internal/services"
)

// ResolveThesisRequest is the JSON payload for a conflict decision.
type ResolveThesisRequest struct {
	// Action is one of keep_both, replace, merge.
	Action string `json:"action" binding:"required" example:"merge"`
	// TargetID names the conflicting active thesis; required for replace
	// and merge.
	TargetID string `json:"target_id,omitempty"`
}

// ListTheses godoc
// @ID          listTheses
// @Summary     List learned theses
// @Tags        Theses
// @Produce     json
// @Param       status query string false "Status filter" Enums(active, pending, obsolete) default(active)
// @Success     200 {array} domain.LearnedThesis
// @Failure     400 {object} handlers.ErrorResponse
// @Router      /theses [get]
func (h *Handlers) ListTheses(c *gin.Context) {
	status := c.DefaultQuery("status", domain.ThesisActive)
	switch status {
	case domain.ThesisActive, domain.ThesisPending, domain.ThesisObsolete:
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status must be active, pending or obsolete")
		return
	}
	items, err := repo.ListThesesByStatus(c.Request.Context(), h.db, userID(c), status)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, items)
}

// ListThesisConflicts godoc
// @ID          listThesisConflicts
// @Summary     List pending theses with their conflict candidates
// @Tags        Theses
// @Produce     json
// @Success     200 {array} services.PendingConflict
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /theses/conflicts [get]
func (h *Handlers) ListThesisConflicts(c *gin.Context) {
	items, err := h.thesisSvc.ListConflicts(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, items)
}

// ResolveThesis godoc
// @ID          resolveThesis
// @Summary     Resolve a thesis conflict
// @Description Applies keep_both, replace, or merge to a pending thesis.
// @Tags        Theses
// @Accept      json
// @Produce     json
// @Param       id   path string true "Pending thesis ID (UUID)" format(uuid)
// @Param       body body handlers.ResolveThesisRequest true "Resolution payload"
// @Success     200 {object} domain.LearnedThesis
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Failure     409 {object} handlers.ErrorResponse "Thesis is not pending"
// @Router      /theses/{id}/resolve [post]
func (h *Handlers) ResolveThesis(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "thesis id must be a UUID")
		return
	}
	var req ResolveThesisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "action required")
		return
	}

	thesis, err := h.thesisSvc.Resolve(c.Request.Context(), userID(c), id, req.Action, req.TargetID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrThesisNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "thesis not found")
		case errors.Is(err, services.ErrNotPending):
			fail(c, http.StatusConflict, ErrCodeConflict, "thesis is not pending resolution")
		case errors.Is(err, services.ErrInvalidResolution):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid action or target")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeResolveFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, thesis)
}
