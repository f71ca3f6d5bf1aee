package v1

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calder-ai/uniproxy/internal/gateway"
	"github.com/calder-ai/uniproxy/internal/server/validator"
	"github.com/calder-ai/uniproxy/pkg/api"
)

type ChatHandler struct {
	service gateway.Service
}

func NewChatHandler(service gateway.Service) *ChatHandler {
	return &ChatHandler{service: service}
}

func (h *ChatHandler) CreateCompletion(c *gin.Context) {
	var req api.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.MalformedRequest(validator.ParseValidationError(err)))
		return
	}

	// semantic check, rejected before any upstream dispatch
	if len(req.Messages) == 0 {
		_ = c.Error(api.EmptyMessageList())
		return
	}

	req.SetDefaults()

	if req.Stream {
		h.handleStream(c, &req)
		return
	}

	resp, err := h.service.Chat(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ChatHandler) handleStream(c *gin.Context, req *api.ChatRequest) {
	// Dispatch first. Headers are only committed once the upstream call is
	// confirmed, so a refused dispatch still gets a normal error body.
	streamChan, err := h.service.StreamChat(c.Request.Context(), req)
	if err != nil {
		problem := api.Normalize(err)
		c.JSON(problem.Status, problem)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()

	// Each frame is written and flushed before the next chunk is pulled, so
	// the caller sees upstream order exactly.
	for {
		select {
		case result, ok := <-streamChan:
			if !ok {
				// natural completion: exactly one terminal frame
				_, _ = io.WriteString(c.Writer, "data: [DONE]\n\n")
				c.Writer.Flush()
				return
			}

			if result.Err != nil {
				// headers are committed; report the failure in-band
				problem := api.Normalize(result.Err)
				frame := api.ChatResponse{
					Choices: []api.Choice{{
						FinishReason: "error",
						Error:        &api.ErrorResponse{Code: problem.Status, Message: problem.Detail},
					}},
				}
				data, _ := json.Marshal(frame)
				_, _ = fmt.Fprintf(c.Writer, "data: %s\n\n", data)
				c.Writer.Flush()
				return
			}

			data, err := json.Marshal(result.Response)
			if err != nil {
				continue // skip bad chunks
			}
			_, _ = fmt.Fprintf(c.Writer, "data: %s\n\n", data)
			c.Writer.Flush()

		case <-clientGone:
			// stop pulling; the relay goroutine sees the cancellation and
			// releases the upstream call
			return
		}
	}
}
