// Document HTTP handlers.
//
// REST endpoints for case documents and their retrieval chunks:
//   - POST   /cases/{id}/documents   (ingest extracted pages, chunk and embed)
//   - GET    /cases/{id}/documents   (list a case's documents)
//   - GET    /documents/{id}/chunks  (list a document's chunks, ordered)
//   - DELETE /documents/{id}         (remove document and chunks)
//
// Ingestion receives already-extracted page text; PDF and OCR extraction
// happen upstream. Chunks missing an embedding (provider outage during
// ingestion) are still stored and served through the lexical fallback.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-juris-backend/internal/chunk"
	"github.com/tbourn/go-juris-backend/internal/domain"
	"github.com/tbourn/go-juris-backend/internal/repo"
)

// IngestPage is one page of extracted text in an ingestion request.
type IngestPage struct {
	Number int    `json:"number" binding:"required,min=1"`
	Text   string `json:"text"`
}

// IngestDocumentRequest is the JSON payload for indexing a document.
type IngestDocumentRequest struct {
	Name  string       `json:"name" binding:"required,min=1" example:"peticao-inicial.pdf"`
	Pages []IngestPage `json:"pages" binding:"required,min=1"`
}

// IngestDocumentResponse reports the stored document and how many chunks
// were produced.
type IngestDocumentResponse struct {
	Document   *domain.CaseDocument `json:"document"`
	ChunkCount int                  `json:"chunk_count"`
}

// IngestDocument godoc
// @ID          ingestDocument
// @Summary     Index a document into a case
// @Description Chunks the extracted pages, embeds them, and stores the result.
// @Tags        Documents
// @Accept      json
// @Produce     json
// @Param       id   path string true "Case ID (UUID)" format(uuid)
// @Param       body body handlers.IngestDocumentRequest true "Extracted pages"
// @Success     201 {object} handlers.IngestDocumentResponse
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse "Case not found"
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /cases/{id}/documents [post]
func (h *Handlers) IngestDocument(c *gin.Context) {
	ctx := c.Request.Context()
	caseID := c.Param("id")
	if _, err := uuid.Parse(caseID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "case id must be a UUID")
		return
	}

	var req IngestDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" || len(req.Pages) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name and at least one page required")
		return
	}

	uid := userID(c)
	if _, err := repo.GetCase(ctx, h.db, caseID, uid); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "case not found")
		return
	}

	pages := make([]chunk.Page, 0, len(req.Pages))
	for _, p := range req.Pages {
		pages = append(pages, chunk.Page{Number: p.Number, Text: p.Text})
	}

	doc, n, err := h.indexer.IndexDocument(ctx, uid, caseID, strings.TrimSpace(req.Name), pages)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeIndexFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, IngestDocumentResponse{Document: doc, ChunkCount: n})
}

// ListDocuments godoc
// @ID          listDocuments
// @Summary     List a case's documents
// @Tags        Documents
// @Produce     json
// @Param       id path string true "Case ID (UUID)" format(uuid)
// @Success     200 {array} domain.CaseDocument
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /cases/{id}/documents [get]
func (h *Handlers) ListDocuments(c *gin.Context) {
	ctx := c.Request.Context()
	caseID := c.Param("id")
	if _, err := uuid.Parse(caseID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "case id must be a UUID")
		return
	}
	uid := userID(c)
	if _, err := repo.GetCase(ctx, h.db, caseID, uid); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "case not found")
		return
	}
	docs, err := repo.ListCaseDocuments(ctx, h.db, uid, caseID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, docs)
}

// ListDocumentChunks godoc
// @ID          listDocumentChunks
// @Summary     List a document's chunks in reading order
// @Tags        Documents
// @Produce     json
// @Param       id path string true "Document ID (UUID)" format(uuid)
// @Success     200 {array} domain.DocumentChunk
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /documents/{id}/chunks [get]
func (h *Handlers) ListDocumentChunks(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "document id must be a UUID")
		return
	}
	chunks, err := repo.ListChunksByDocument(c.Request.Context(), h.db, userID(c), id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, chunks)
}

// DeleteDocument godoc
// @ID          deleteDocument
// @Summary     Delete a document and its chunks
// @Tags        Documents
// @Param       id path string true "Document ID (UUID)" format(uuid)
// @Success     204 {string} string "No Content"
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /documents/{id} [delete]
func (h *Handlers) DeleteDocument(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "document id must be a UUID")
		return
	}
	if err := repo.DeleteDocument(c.Request.Context(), h.db, id, userID(c)); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "document not found")
		return
	}
	noContent(c)
}
