// Model catalog HTTP handler.
//
// GET /models lists the chat models available at the provider. When the
// provider is unreachable the gateway serves a static fallback list and the
// response marks its source accordingly, so the UI can always render a
// picker.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListModels godoc
// @ID          listModels
// @Summary     List available chat models
// @Description Source is "live" when fetched from the provider, "fallback" otherwise.
// @Tags        Models
// @Produce     json
// @Success     200 {object} llm.ModelList
// @Router      /models [get]
func (h *Handlers) ListModels(c *gin.Context) {
	list, err := h.gateway.ListModels(c.Request.Context())
	if err != nil {
		// ListModels degrades internally; an error here is unexpected.
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, list)
}
