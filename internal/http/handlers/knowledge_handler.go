// Knowledge-base HTTP handlers.
//
// REST endpoints for the user's reference documents (súmulas, internal
// guidelines, firm playbooks) that feed the context assembler:
//   - POST   /knowledge       (create)
//   - GET    /knowledge       (list, stable creation order)
//   - PUT    /knowledge/{id}  (update)
//   - DELETE /knowledge/{id}  (delete)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-juris-backend/internal/repo"
)

// KnowledgeDocRequest is the JSON payload for a reference document.
type KnowledgeDocRequest struct {
	Title   string `json:"title" binding:"required,min=1" example:"Súmulas aplicáveis a locação"`
	Content string `json:"content" binding:"required,min=1"`
	// SourceURL marks the document as mirrored from an external source,
	// which routes its content through the expiring reference cache.
	SourceURL string `json:"source_url,omitempty"`
}

// CreateKnowledgeDoc godoc
// @ID          createKnowledgeDoc
// @Summary     Add a reference document to the knowledge base
// @Tags        Knowledge
// @Accept      json
// @Produce     json
// @Param       body body handlers.KnowledgeDocRequest true "Document payload"
// @Success     201 {object} domain.KnowledgeDoc
// @Failure     400 {object} handlers.ErrorResponse
// @Router      /knowledge [post]
func (h *Handlers) CreateKnowledgeDoc(c *gin.Context) {
	var req KnowledgeDocRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title and content required")
		return
	}
	doc, err := repo.CreateKnowledgeDoc(c.Request.Context(), h.db, userID(c), strings.TrimSpace(req.Title), req.Content, strings.TrimSpace(req.SourceURL))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, doc)
}

// ListKnowledgeDocs godoc
// @ID          listKnowledgeDocs
// @Summary     List the user's reference documents
// @Tags        Knowledge
// @Produce     json
// @Success     200 {array} domain.KnowledgeDoc
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /knowledge [get]
func (h *Handlers) ListKnowledgeDocs(c *gin.Context) {
	docs, err := repo.ListKnowledgeDocs(c.Request.Context(), h.db, userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, docs)
}

// UpdateKnowledgeDoc godoc
// @ID          updateKnowledgeDoc
// @Summary     Update a reference document
// @Tags        Knowledge
// @Accept      json
// @Param       id   path string true "Document ID (UUID)" format(uuid)
// @Param       body body handlers.KnowledgeDocRequest true "Updated payload"
// @Success     204 {string} string "No Content"
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /knowledge/{id} [put]
func (h *Handlers) UpdateKnowledgeDoc(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "document id must be a UUID")
		return
	}
	var req KnowledgeDocRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title and content required")
		return
	}
	err := repo.UpdateKnowledgeDoc(c.Request.Context(), h.db, id, userID(c), map[string]any{
		"title":      strings.TrimSpace(req.Title),
		"content":    req.Content,
		"source_url": strings.TrimSpace(req.SourceURL),
	})
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "document not found")
		return
	}
	noContent(c)
}

// DeleteKnowledgeDoc godoc
// @ID          deleteKnowledgeDoc
// @Summary     Remove a reference document
// @Tags        Knowledge
// @Param       id path string true "Document ID (UUID)" format(uuid)
// @Success     204 {string} string "No Content"
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /knowledge/{id} [delete]
func (h *Handlers) DeleteKnowledgeDoc(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "document id must be a UUID")
		return
	}
	if err := repo.DeleteKnowledgeDoc(c.Request.Context(), h.db, id, userID(c)); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "document not found")
		return
	}
	noContent(c)
}
