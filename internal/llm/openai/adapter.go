package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/calder-ai/uniproxy/internal/config"
	"github.com/calder-ai/uniproxy/internal/httpclient"
	"github.com/calder-ai/uniproxy/internal/llm"
	"github.com/calder-ai/uniproxy/pkg/api"
)

func init() {
	llm.Register("openai", NewAdapter)
}

// Adapter is the direct API-key backend.
type Adapter struct {
	config config.ProviderConfig
	client *http.Client
}

func NewAdapter(cfg config.ProviderConfig) (llm.Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai provider %q: api key is required", cfg.ID)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	return &Adapter{
		config: cfg,
		client: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (a *Adapter) Name() string {
	return a.config.ID
}

func (a *Adapter) Type() string {
	return string(llm.OpenAI)
}

func (a *Adapter) headers() map[string]string {
	h := map[string]string{
		"Authorization": "Bearer " + a.config.APIKey,
	}
	if org, ok := a.config.Config["organization"]; ok {
		h["OpenAI-Organization"] = org
	}
	return h
}

func (a *Adapter) url(path string) string {
	return strings.TrimRight(a.config.BaseURL, "/") + path
}

func (a *Adapter) Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	// ensure stream is false for this method
	req.Stream = false

	var resp api.ChatResponse
	if err := httpclient.SendRequest(ctx, a.client, "POST", a.url("/chat/completions"), a.headers(), req, &resp); err != nil {
		return nil, llm.NormalizeUpstream(err)
	}

	return &resp, nil
}

func (a *Adapter) Complete(ctx context.Context, req *api.CompletionRequest) (*api.CompletionResponse, error) {
	var resp api.CompletionResponse
	if err := httpclient.SendRequest(ctx, a.client, "POST", a.url("/completions"), a.headers(), req, &resp); err != nil {
		return nil, llm.NormalizeUpstream(err)
	}

	return &resp, nil
}

func (a *Adapter) Stream(ctx context.Context, req *api.ChatRequest) (<-chan api.StreamResult, error) {
	req.Stream = true

	// Dispatch synchronously so a refused upstream call surfaces before the
	// caller commits response headers.
	body, err := httpclient.OpenStream(ctx, a.client, "POST", a.url("/chat/completions"), a.headers(), req)
	if err != nil {
		return nil, llm.NormalizeUpstream(err)
	}

	ch := make(chan api.StreamResult)

	go func() {
		defer close(ch)

		err := httpclient.ScanLines(body, func(line string) error {
			// SSE format: data: {...}
			if !strings.HasPrefix(line, "data: ") {
				return nil
			}

			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				// the relay emits its own terminal frame
				return nil
			}

			var chunk api.ChatResponse
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				// skip malformed frames, keep the stream alive
				return nil
			}

			select {
			case ch <- api.StreamResult{Response: &chunk}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})

		if err != nil && ctx.Err() == nil {
			select {
			case ch <- api.StreamResult{Err: llm.NormalizeUpstream(err)}:
			case <-ctx.Done():
			}
		}
	}()

	return ch, nil
}

func (a *Adapter) Models(ctx context.Context) ([]api.Model, error) {
	// Static configuration is the source of truth; the upstream listing does
	// not know which models this deployment wants to expose.
	models := make([]api.Model, 0, len(a.config.Models))
	for _, m := range a.config.Models {
		m.Object = "model"
		if m.OwnedBy == "" {
			m.OwnedBy = "openai"
		}
		models = append(models, m)
	}
	return models, nil
}
