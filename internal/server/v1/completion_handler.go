package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calder-ai/uniproxy/internal/gateway"
	"github.com/calder-ai/uniproxy/internal/server/validator"
	"github.com/calder-ai/uniproxy/pkg/api"
)

// CompletionHandler serves the legacy prompt-based endpoint. No streaming
// mode here; the response is always one buffered object.
type CompletionHandler struct {
	service gateway.Service
}

func NewCompletionHandler(service gateway.Service) *CompletionHandler {
	return &CompletionHandler{service: service}
}

func (h *CompletionHandler) CreateCompletion(c *gin.Context) {
	var req api.CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.MalformedRequest(validator.ParseValidationError(err)))
		return
	}

	req.SetDefaults()

	resp, err := h.service.Complete(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
