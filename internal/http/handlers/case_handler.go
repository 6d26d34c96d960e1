// Case HTTP handlers.
//
// REST endpoints for structured case records:
//   - POST   /cases        (create)
//   - GET    /cases        (list)
//   - GET    /cases/{id}   (fetch one)
//   - PUT    /cases/{id}   (update fields)
//   - DELETE /cases/{id}   (delete)
//
// A case groups the lawsuit's structured metadata, its indexed documents,
// and the conversations linked to it.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-juris-backend/internal/domain"
	"github.com/tbourn/go-juris-backend/internal/repo"
)

// CaseRequest is the JSON payload for creating or updating a case.
type CaseRequest struct {
	// Identifier is the CNJ case number or another stable reference.
	Identifier string `json:"identifier" binding:"required,min=1" example:"0001234-55.2024.8.26.0100"`
	Parties    string `json:"parties,omitempty"`
	Court      string `json:"court,omitempty"`
	Subject    string `json:"subject,omitempty"`
	Facts      string `json:"facts,omitempty"`
	Evidence   string `json:"evidence,omitempty"`
	Requests   string `json:"requests,omitempty"`
	Status     string `json:"status,omitempty"`
}

// CreateCase godoc
// @ID          createCase
// @Summary     Create a case record
// @Tags        Cases
// @Accept      json
// @Produce     json
// @Param       body body handlers.CaseRequest true "Case payload"
// @Success     201 {object} domain.Case
// @Failure     400 {object} handlers.ErrorResponse
// @Router      /cases [post]
func (h *Handlers) CreateCase(c *gin.Context) {
	var req CaseRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Identifier) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "identifier required")
		return
	}
	created, err := repo.CreateCase(c.Request.Context(), h.db, userID(c), domain.Case{
		Identifier: strings.TrimSpace(req.Identifier),
		Parties:    req.Parties,
		Court:      req.Court,
		Subject:    req.Subject,
		Facts:      req.Facts,
		Evidence:   req.Evidence,
		Requests:   req.Requests,
		Status:     req.Status,
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, created)
}

// ListCases godoc
// @ID          listCases
// @Summary     List the user's cases
// @Tags        Cases
// @Produce     json
// @Success     200 {array} domain.Case
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /cases [get]
func (h *Handlers) ListCases(c *gin.Context) {
	items, err := repo.ListCases(c.Request.Context(), h.db, userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, items)
}

// GetCase godoc
// @ID          getCase
// @Summary     Fetch one case
// @Tags        Cases
// @Produce     json
// @Param       id path string true "Case ID (UUID)" format(uuid)
// @Success     200 {object} domain.Case
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /cases/{id} [get]
func (h *Handlers) GetCase(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "case id must be a UUID")
		return
	}
	item, err := repo.GetCase(c.Request.Context(), h.db, id, userID(c))
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "case not found")
		return
	}
	ok(c, http.StatusOK, item)
}

// UpdateCase godoc
// @ID          updateCase
// @Summary     Update case fields
// @Tags        Cases
// @Accept      json
// @Param       id   path string true "Case ID (UUID)" format(uuid)
// @Param       body body handlers.CaseRequest true "Updated fields"
// @Success     204 {string} string "No Content"
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /cases/{id} [put]
func (h *Handlers) UpdateCase(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "case id must be a UUID")
		return
	}
	var req CaseRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Identifier) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "identifier required")
		return
	}
	err := repo.UpdateCase(c.Request.Context(), h.db, id, userID(c), map[string]any{
		"identifier": strings.TrimSpace(req.Identifier),
		"parties":    req.Parties,
		"court":      req.Court,
		"subject":    req.Subject,
		"facts":      req.Facts,
		"evidence":   req.Evidence,
		"requests":   req.Requests,
		"status":     req.Status,
	})
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "case not found")
		return
	}
	noContent(c)
}

// DeleteCase godoc
// @ID          deleteCase
// @Summary     Delete a case
// @Tags        Cases
// @Param       id path string true "Case ID (UUID)" format(uuid)
// @Success     204 {string} string "No Content"
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /cases/{id} [delete]
func (h *Handlers) DeleteCase(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "case id must be a UUID")
		return
	}
	if err := repo.DeleteCase(c.Request.Context(), h.db, id, userID(c)); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "case not found")
		return
	}
	noContent(c)
}
