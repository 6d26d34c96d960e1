// Conversation HTTP handlers.
//
// REST endpoints for conversation resources:
//   - POST   /conversations               (create, optionally linked to a case)
//   - GET    /conversations               (list, paginated, weak ETag)
//   - GET    /conversations/{id}          (fetch one)
//   - PUT    /conversations/{id}/title    (rename)
//   - PUT    /conversations/{id}/pinned   (pin / unpin)
//   - DELETE /conversations/{id}          (delete with messages)
//   - GET    /conversations/{id}/messages (list messages, paginated, weak ETag)
//   - GET    /conversations/{id}/duplicates (conversations on the same case number)
//
// Handlers are transport-thin: validate input, call the service, translate
// the result.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-juris-backend/internal/domain"
	"github.com/tbourn/go-juris-backend/internal/indexer"
	"github.com/tbourn/go-juris-backend/internal/llm"
	"github.com/tbourn/go-juris-backend/internal/repo"
	"github.com/tbourn/go-juris-backend/internal/services"
	"github.com/tbourn/go-juris-backend/internal/utils"
)

// Handlers groups every HTTP endpoint of the API. Dependencies are injected
// by the router.
type Handlers struct {
	db        *gorm.DB
	convSvc   *services.ConversationService
	turnSvc   *services.TurnService
	thesisSvc *services.ThesisService
	indexer   *indexer.Indexer
	gateway   llm.Gateway

	// IdempotencyTTL bounds how long a stored turn result can be replayed.
	// Zero falls back to 24h.
	IdempotencyTTL time.Duration
}

// New constructs a Handlers bound to the given dependencies.
func New(db *gorm.DB, convSvc *services.ConversationService, turnSvc *services.TurnService, thesisSvc *services.ThesisService, ix *indexer.Indexer, gw llm.Gateway) *Handlers {
	return &Handlers{
		db:        db,
		convSvc:   convSvc,
		turnSvc:   turnSvc,
		thesisSvc: thesisSvc,
		indexer:   ix,
		gateway:   gw,
	}
}

// userID extracts the authenticated user id from the Gin context (set by
// upstream middleware), falling back to the X-User-ID header and finally to
// "demo-user".
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// CreateConversationRequest is the JSON payload for creating a conversation.
type CreateConversationRequest struct {
	// Title optionally names the conversation; a default is used when empty.
	Title string `json:"title" example:"Ação de cobrança - contrato 42"`
	// CaseID optionally links the conversation to an existing case.
	CaseID *string `json:"case_id,omitempty"`
}

// UpdateTitleRequest is the JSON payload for renaming a conversation.
type UpdateTitleRequest struct {
	Title string `json:"title" binding:"required,min=1,max=255"`
}

// UpdatePinnedRequest is the JSON payload for pinning a conversation.
type UpdatePinnedRequest struct {
	Pinned bool `json:"pinned"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListConversationsResponse wraps a page of conversations.
type ListConversationsResponse struct {
	Conversations []domain.Conversation `json:"conversations"`
	Pagination    Pagination            `json:"pagination"`
}

// ListMessagesResponse wraps a page of messages.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

func pageOf(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Handlers
//

// CreateConversation godoc
// @ID          createConversation
// @Summary     Create a conversation
// @Tags        Conversations
// @Accept      json
// @Produce     json
// @Param       X-User-ID header string false "User ID (demo header)" example(user123)
// @Param       body body handlers.CreateConversationRequest true "Create payload"
// @Success     201 {object} domain.Conversation
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse "Linked case not found"
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /conversations [post]
func (h *Handlers) CreateConversation(c *gin.Context) {
	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	conv, err := h.convSvc.Create(c.Request.Context(), userID(c), strings.TrimSpace(req.Title), req.CaseID)
	if err != nil {
		if err == services.ErrCaseNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "case not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, conv)
}

// ListConversations godoc
// @ID          listConversations
// @Summary     List conversations (paginated, pinned first)
// @Tags        Conversations
// @Produce     json
// @Param       X-User-ID     header string false "User ID (demo header)"
// @Param       If-None-Match header string false "Return 304 if ETag matches"
// @Param       page          query  int    false "Page number" minimum(1) default(1)
// @Param       page_size     query  int    false "Items per page" minimum(1) maximum(100) default(20)
// @Success     200 {object} handlers.ListConversationsResponse
// @Success     304 {string} string "Not Modified"
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /conversations [get]
func (h *Handlers) ListConversations(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := utils.ParsePagination(c.Query("page"), c.Query("page_size"))

	// Weak ETag pre-check (best effort).
	if count, maxTS, err := repo.ConversationsStats(ctx, h.db, uid); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.Unix()
		}
		etag := fmt.Sprintf(`W/"conversations:%s:%d:%d"`, uid, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.convSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListConversationsResponse{
		Conversations: items,
		Pagination:    pageOf(page, pageSize, total),
	})
}

// GetConversation godoc
// @ID          getConversation
// @Summary     Fetch one conversation
// @Tags        Conversations
// @Produce     json
// @Param       id path string true "Conversation ID (UUID)" format(uuid)
// @Success     200 {object} domain.Conversation
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /conversations/{id} [get]
func (h *Handlers) GetConversation(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}
	conv, err := h.convSvc.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		return
	}
	ok(c, http.StatusOK, conv)
}

// RenameConversation godoc
// @ID          renameConversation
// @Summary     Rename a conversation
// @Tags        Conversations
// @Accept      json
// @Param       id   path string true "Conversation ID (UUID)" format(uuid)
// @Param       body body handlers.UpdateTitleRequest true "New title"
// @Success     204 {string} string "No Content"
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /conversations/{id}/title [put]
func (h *Handlers) RenameConversation(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}
	var req UpdateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title required (1–255 chars)")
		return
	}
	if err := h.convSvc.Rename(c.Request.Context(), userID(c), id, req.Title); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		return
	}
	noContent(c)
}

// PinConversation godoc
// @ID          pinConversation
// @Summary     Pin or unpin a conversation
// @Tags        Conversations
// @Accept      json
// @Param       id   path string true "Conversation ID (UUID)" format(uuid)
// @Param       body body handlers.UpdatePinnedRequest true "Pinned flag"
// @Success     204 {string} string "No Content"
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /conversations/{id}/pinned [put]
func (h *Handlers) PinConversation(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}
	var req UpdatePinnedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.convSvc.SetPinned(c.Request.Context(), userID(c), id, req.Pinned); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		return
	}
	noContent(c)
}

// DeleteConversation godoc
// @ID          deleteConversation
// @Summary     Delete a conversation and its messages
// @Tags        Conversations
// @Param       id path string true "Conversation ID (UUID)" format(uuid)
// @Success     204 {string} string "No Content"
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /conversations/{id} [delete]
func (h *Handlers) DeleteConversation(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}
	if err := h.convSvc.Delete(c.Request.Context(), userID(c), id); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		return
	}
	noContent(c)
}

// ListCaseDuplicates godoc
// @ID          listCaseDuplicates
// @Summary     Find conversations already linked to the same case number
// @Description Identifier matching ignores punctuation and whitespace. The current conversation is excluded.
// @Tags        Conversations
// @Produce     json
// @Param       id         path  string true "Conversation ID (UUID)" format(uuid)
// @Param       identifier query string true "Case identifier (CNJ number or other reference)"
// @Success     200 {array} domain.Conversation
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /conversations/{id}/duplicates [get]
func (h *Handlers) ListCaseDuplicates(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}
	identifier := strings.TrimSpace(c.Query("identifier"))
	if identifier == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "identifier query parameter required")
		return
	}
	dups, err := h.convSvc.FindCaseDuplicates(c.Request.Context(), userID(c), id, identifier)
	if err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not look up duplicates")
		return
	}
	ok(c, http.StatusOK, dups)
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List messages in a conversation
// @Tags        Messages
// @Produce     json
// @Param       id        path  string true  "Conversation ID (UUID)" format(uuid)
// @Param       page      query int    false "Page number" minimum(1) default(1)
// @Param       page_size query int    false "Items per page" minimum(1) maximum(100) default(20)
// @Success     200 {object} handlers.ListMessagesResponse
// @Success     304 {string} string "Not Modified"
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /conversations/{id}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}

	// Weak ETag pre-check (best effort).
	if count, maxTS, err := repo.MessagesStats(ctx, h.db, id); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.Unix()
		}
		etag := fmt.Sprintf(`W/"messages:%s:%d:%d"`, id, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	page, pageSize := utils.ParsePagination(c.Query("page"), c.Query("page_size"))
	items, total, err := h.convSvc.ListMessagesPage(ctx, userID(c), id, page, pageSize)
	if err != nil {
		if err == services.ErrConversationNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListMessagesResponse{
		Messages:   items,
		Pagination: pageOf(page, pageSize, total),
	})
}
