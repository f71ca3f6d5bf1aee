package api

type ChatResponse struct {
	ID                string         `json:"id"`
	Choices           []Choice       `json:"choices"`
	Created           int64          `json:"created"`
	Model             string         `json:"model"`
	Object            string         `json:"object"` // "chat.completion" or "chat.completion.chunk"
	SystemFingerprint string         `json:"system_fingerprint,omitempty"`
	Usage             *ResponseUsage `json:"usage,omitempty"`

	Error *ErrorResponse `json:"error,omitempty"`
}

type Choice struct {
	Index        int            `json:"index"`
	Message      *ChatMessage   `json:"message,omitempty"` // For non-streaming
	Delta        *ChatMessage   `json:"delta,omitempty"`   // For streaming chunks
	Text         string         `json:"text,omitempty"`    // For legacy completions
	FinishReason string         `json:"finish_reason,omitempty"`
	Error        *ErrorResponse `json:"error,omitempty"`
}

// CompletionResponse is the legacy text-completion object.
type CompletionResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"` // "text_completion"
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []Choice       `json:"choices"`
	Usage   *ResponseUsage `json:"usage,omitempty"`
}

type ResponseUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ErrorResponse struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message"`
}

func (e *ErrorResponse) Error() string {
	return e.Message
}

// StreamResult is one unit pulled off a provider stream: either a chunk or a
// terminal failure, never both.
type StreamResult struct {
	Response *ChatResponse
	Err      error
}
