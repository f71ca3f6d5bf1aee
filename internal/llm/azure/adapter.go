package azure

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
	"github.com/calder-ai/uniproxy/internal/llm/credential"
	"github.com/calder-ai/uniproxy/pkg/api"
)

const defaultAPIVersion = "2024-02-15-preview"

func init() {
	llm.Register("azure", NewAdapter)
}

// Adapter is the identity/gateway backend. It authenticates either with a
// static api-key header or with a bearer token pulled from a TokenSource on
// every call (identity mode).
type Adapter struct {
	config     config.ProviderConfig
	apiVersion string
	deployment string
	tokens     credential.TokenSource
	client     *http.Client
}

func NewAdapter(cfg config.ProviderConfig) (llm.Provider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("azure provider %q: endpoint is required", cfg.ID)
	}

	a := &Adapter{
		config:     cfg,
		apiVersion: cfg.Config["api_version"],
		deployment: cfg.Config["deployment"],
		client:     &http.Client{Timeout: 120 * time.Second},
	}
	if a.apiVersion == "" {
		a.apiVersion = defaultAPIVersion
	}

	if cfg.Config["use_identity"] == "true" {
		a.tokens = credential.FromEnv("AZURE_AD_TOKEN")
	} else if cfg.APIKey == "" {
		return nil, fmt.Errorf("azure provider %q: api key missing and identity mode not enabled", cfg.ID)
	}

	return a, nil
}

// WithTokenSource overrides the credential supplier. Used when an external
// identity integration hands tokens to the process directly.
func (a *Adapter) WithTokenSource(ts credential.TokenSource) *Adapter {
	a.tokens = ts
	return a
}

func (a *Adapter) Name() string {
	return a.config.ID
}

func (a *Adapter) Type() string {
	return string(llm.Azure)
}

func (a *Adapter) headers(ctx context.Context) (map[string]string, error) {
	if a.tokens != nil {
		token, err := a.tokens.Token(ctx)
		if err != nil {
			return nil, api.UpstreamAuthFailed(api.WithLog(err))
		}
		return map[string]string{"Authorization": "Bearer " + token}, nil
	}
	return map[string]string{"api-key": a.config.APIKey}, nil
}

// url builds the deployment-scoped endpoint with the api-version pinned as a
// query parameter, as the Azure OpenAI surface requires.
func (a *Adapter) url(path string) string {
	base := strings.TrimRight(a.config.BaseURL, "/")
	return fmt.Sprintf("%s/openai/deployments/%s%s?api-version=%s", base, a.deployment, path, a.apiVersion)
}

func (a *Adapter) Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	headers, err := a.headers(ctx)
	if err != nil {
		return nil, err
	}

	req.Stream = false

	var resp api.ChatResponse
	if err := httpclient.SendRequest(ctx, a.client, "POST", a.url("/chat/completions"), headers, req, &resp); err != nil {
		return nil, llm.NormalizeUpstream(err)
	}

	return &resp, nil
}

func (a *Adapter) Complete(ctx context.Context, req *api.CompletionRequest) (*api.CompletionResponse, error) {
	headers, err := a.headers(ctx)
	if err != nil {
		return nil, err
	}

	var resp api.CompletionResponse
	if err := httpclient.SendRequest(ctx, a.client, "POST", a.url("/completions"), headers, req, &resp); err != nil {
		return nil, llm.NormalizeUpstream(err)
	}

	return &resp, nil
}

func (a *Adapter) Stream(ctx context.Context, req *api.ChatRequest) (<-chan api.StreamResult, error) {
	headers, err := a.headers(ctx)
	if err != nil {
		return nil, err
	}

	req.Stream = true

	body, err := httpclient.OpenStream(ctx, a.client, "POST", a.url("/chat/completions"), headers, req)
	if err != nil {
		return nil, llm.NormalizeUpstream(err)
	}

	ch := make(chan api.StreamResult)

	go func() {
		defer close(ch)

		err := httpclient.ScanLines(body, func(line string) error {
			if !strings.HasPrefix(line, "data: ") {
				return nil
			}

			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				return nil
			}

			var chunk api.ChatResponse
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
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
	models := make([]api.Model, 0, len(a.config.Models))
	for _, m := range a.config.Models {
		m.Object = "model"
		if m.OwnedBy == "" {
			m.OwnedBy = "azure"
		}
		models = append(models, m)
	}
	return models, nil
}
