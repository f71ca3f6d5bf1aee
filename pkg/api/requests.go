package api

// DefaultTemperature is applied when the caller omits the field, matching
// the default the upstream SDKs use.
const DefaultTemperature = 0.7

type ChatRequest struct {
	// the model to route on, e.g. "gpt-4o" or "azure-gpt-4"
	Model string `json:"model" binding:"required"`

	// ordered conversation history; emptiness is checked semantically in the
	// handler so it maps to its own error kind rather than a schema failure
	Messages []ChatMessage `json:"messages" binding:"omitempty,dive"`

	// LLM parameters. Pointers so "omitted" survives translation unchanged.
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`

	// Enable streaming, defaults to `false` (empty)
	Stream bool `json:"stream,omitempty"`

	StreamOptions *StreamOptions `json:"stream_options,omitempty"`
}

type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant system"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

type CompletionRequest struct {
	Model       string   `json:"model" binding:"required"`
	Prompt      string   `json:"prompt" binding:"required"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

type StreamOptions struct {
	IncludeUsage bool `json:"include_usage,omitempty"`
}

// SetDefaults fills parse-time defaults. MaxTokens deliberately stays nil:
// unset means "provider default".
func (r *ChatRequest) SetDefaults() {
	if r.Temperature == nil {
		t := DefaultTemperature
		r.Temperature = &t
	}
}

func (r *CompletionRequest) SetDefaults() {
	if r.Temperature == nil {
		t := DefaultTemperature
		r.Temperature = &t
	}
}

type Role string

const (
	User      Role = "user"
	Assistant Role = "assistant"
	System    Role = "system"
)
