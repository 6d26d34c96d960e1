// Turn HTTP handler.
//
// POST /conversations/{id}/turns streams the assistant's answer over
// Server-Sent Events. The response carries three event types:
//
//	event: chunk  data: {"content":"..."}   one per model delta
//	event: done   data: {"message_id":"...","intent":"..."}
//	event: error  data: {"code":"...","message":"..."}
//
// Validation failures surface as plain JSON errors before the stream starts;
// once the first chunk is written the handler can only finish with done or
// error. A failed stream persists no assistant message, so retrying the same
// prompt is safe.
//
// Idempotency: with an Idempotency-Key header and a stored result for
// (user, conversation, key), the handler replays the persisted message as a
// single chunk followed by done, and sets `Idempotency-Replayed: true`.
package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-juris-backend/internal/http/middleware"
	"github.com/tbourn/go-juris-backend/internal/llm"
	"github.com/tbourn/go-juris-backend/internal/repo"
	"github.com/tbourn/go-juris-backend/internal/services"
)

// TurnRequest is the JSON payload for submitting a user turn.
type TurnRequest struct {
	// Content is the user prompt. It must be non-empty.
	Content string `json:"content" binding:"required,min=1" example:"Redija a contestação com base nos autos."`
}

// chunkEvent is the SSE payload for one delta.
type chunkEvent struct {
	Content string `json:"content"`
}

// doneEvent is the SSE payload closing a successful stream.
type doneEvent struct {
	MessageID string `json:"message_id"`
	Intent    string `json:"intent,omitempty"`
	Replayed  bool   `json:"replayed,omitempty"`
}

// errorEvent is the SSE payload closing a failed stream.
type errorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes line endings and collapses excess blank lines.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// StreamTurn godoc
// @ID          streamTurn
// @Summary     Submit a user turn and stream the assistant answer
// @Description Streams Server-Sent Events (chunk*, then done or error).
// @Description Supports idempotent retries via the Idempotency-Key header.
// @Tags        Turns
// @Accept      json
// @Produce     text/event-stream
// @Param       X-User-ID       header string true  "User ID that owns the conversation"
// @Param       Idempotency-Key header string false "Idempotency key for safe retries"
// @Param       id              path   string true  "Conversation ID (UUID)" format(uuid)
// @Param       body            body   handlers.TurnRequest true "User turn payload"
// @Success     200 {string} string "SSE stream"
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Failure     409 {object} handlers.ErrorResponse "A turn is already streaming"
// @Router      /conversations/{id}/turns [post]
func (h *Handlers) StreamTurn(c *gin.Context) {
	ctx := c.Request.Context()
	conversationID := c.Param("id")
	if _, err := uuid.Parse(conversationID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}

	var req TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}
	content := sanitizeContent(req.Content)
	if content == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	uid := userID(c)

	// Replay path: serve the stored assistant message without a model call.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" {
		if rec, err := repo.GetIdempotency(ctx, h.db, uid, conversationID, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if prev, err2 := repo.GetMessage(ctx, h.db, rec.MessageID); err2 == nil {
				c.Header("Idempotency-Replayed", "true")
				startSSE(c)
				c.SSEvent("chunk", chunkEvent{Content: prev.Content})
				c.SSEvent("done", doneEvent{MessageID: prev.ID, Replayed: true})
				c.Writer.Flush()
				middleware.CountTurnOutcome("replayed")
				return
			}
		}
	}

	sseStarted := false
	res, err := h.turnSvc.Stream(ctx, uid, conversationID, content, func(delta string) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr // client went away
		}
		if !sseStarted {
			startSSE(c)
			sseStarted = true
		}
		c.SSEvent("chunk", chunkEvent{Content: delta})
		c.Writer.Flush()
		middleware.CountTurnDelta()
		return nil
	})
	if err != nil {
		h.streamError(c, sseStarted, err)
		return
	}

	// Store path for idempotent retries – best effort.
	if idemKey != "" {
		ttl := h.IdempotencyTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		_, _ = repo.CreateIdempotency(ctx, h.db, uid, conversationID, idemKey, res.AssistantMessage.ID, http.StatusOK, ttl)
	}

	if !sseStarted {
		startSSE(c)
	}
	c.SSEvent("done", doneEvent{MessageID: res.AssistantMessage.ID, Intent: res.Intent})
	c.Writer.Flush()
	middleware.CountTurnOutcome("completed")
}

// streamError reports a turn failure: JSON when the stream never started,
// a terminal SSE error event otherwise.
func (h *Handlers) streamError(c *gin.Context, sseStarted bool, err error) {
	code := ErrCodeStreamFailed
	status := http.StatusInternalServerError
	msg := err.Error()

	switch {
	case errors.Is(err, services.ErrConversationNotFound):
		status, code, msg = http.StatusNotFound, ErrCodeNotFound, "conversation not found"
	case errors.Is(err, services.ErrTurnInProgress):
		status, code, msg = http.StatusConflict, ErrCodeTurnInProgress, "a turn is already streaming on this conversation"
	case errors.Is(err, services.ErrEmptyPrompt), errors.Is(err, services.ErrTooLong):
		status, code = http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(err, llm.ErrEmptyResponse):
		msg = "the model returned an empty answer"
	}

	outcome := "failed"
	if c.Request.Context().Err() != nil {
		outcome = "aborted"
	} else if status == http.StatusConflict {
		outcome = "rejected"
	}
	middleware.CountTurnOutcome(outcome)

	if !sseStarted {
		fail(c, status, code, msg)
		return
	}
	c.SSEvent("error", errorEvent{Code: code, Message: msg})
	c.Writer.Flush()
}

// startSSE commits the response to the event-stream content type.
func startSSE(c *gin.Context) {
	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no") // disable proxy buffering
	c.Writer.WriteHeader(http.StatusOK)
}
