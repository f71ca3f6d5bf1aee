package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calder-ai/uniproxy/internal/gateway"
	"github.com/calder-ai/uniproxy/pkg/api"
)

type ModelHandler struct {
	service gateway.Service
}

func NewModelHandler(service gateway.Service) *ModelHandler {
	return &ModelHandler{service: service}
}

// ListModels enumerates the models reachable through the registered
// providers, OpenAI list shape.
func (h *ModelHandler) ListModels(c *gin.Context) {
	models, err := h.service.ListModels(c.Request.Context())
	if err != nil {
		_ = c.Error(api.InternalError("Failed to list models", err))
		return
	}

	if models == nil {
		models = []api.Model{}
	}

	c.JSON(http.StatusOK, api.ModelList{
		Object: "list",
		Data:   models,
	})
}
