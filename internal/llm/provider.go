package llm

import (
	"context"

	"github.com/calder-ai/uniproxy/pkg/api"
)

type ProviderType string

const (
	OpenAI ProviderType = "openai"
	Azure  ProviderType = "azure"
)

// Provider is the handle for one configured backend. Implementations are
// constructed once at startup, are immutable afterwards, and must be safe for
// concurrent use by any number of in-flight requests.
type Provider interface {
	Name() string
	Type() string // "openai" or "azure"

	// Chat performs a buffered chat completion.
	Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error)

	// Stream dispatches a streaming chat completion. The upstream call is
	// confirmed before Stream returns: a dispatch failure is returned here and
	// the channel is never created. After a successful return, chunks arrive
	// on the channel in upstream emission order; a mid-stream failure is
	// delivered as a StreamResult with Err set, and the channel is closed when
	// the upstream is done. Cancelling ctx releases the upstream call.
	Stream(ctx context.Context, req *api.ChatRequest) (<-chan api.StreamResult, error)

	// Complete performs a legacy buffered text completion.
	Complete(ctx context.Context, req *api.CompletionRequest) (*api.CompletionResponse, error)

	// Models lists the models this backend advertises.
	Models(ctx context.Context) ([]api.Model, error)
}
