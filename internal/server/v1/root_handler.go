package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calder-ai/uniproxy/internal/gateway"
	"github.com/calder-ai/uniproxy/internal/version"
)

type RootHandler struct {
	service gateway.Service
}

func NewRootHandler(service gateway.Service) *RootHandler {
	return &RootHandler{service: service}
}

// Index reports the proxy identity and which backends are configured.
func (h *RootHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "uniproxy",
		"version": version.AppVersion,
		"endpoints": gin.H{
			"chat_completions": "/chat/completions",
			"completions":      "/completions",
			"models":           "/models",
			"health":           "/health/readiness",
		},
		"supported_providers": h.service.SupportedProviders(),
	})
}
