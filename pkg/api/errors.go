package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Problem implements RFC 9457 and doubles as the proxy's error taxonomy.
// Title carries the stable error kind, Detail the human-readable message.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Extensions map[string]interface{} `json:"-"`

	// Log carries the internal cause for server-side logging. Never serialized.
	Log error `json:"-"`
}

func (p *Problem) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

func (p *Problem) MarshalJSON() ([]byte, error) {
	type Alias Problem

	data := make(map[string]interface{})

	for k, v := range p.Extensions {
		data[k] = v
	}

	stdJSON, _ := json.Marshal(Alias(*p))
	_ = json.Unmarshal(stdJSON, &data)

	return json.Marshal(data)
}

type ProblemOption func(*Problem)

// NewError creates a generic Problem.
func NewError(status int, title, detail string, opts ...ProblemOption) *Problem {
	p := &Problem{
		Type:       "about:blank", // Default as per RFC
		Title:      title,
		Status:     status,
		Detail:     detail,
		Extensions: make(map[string]interface{}),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// WithExtension adds a custom key-value pair to the response
func WithExtension(key string, value interface{}) ProblemOption {
	return func(p *Problem) {
		p.Extensions[key] = value
	}
}

// WithLog attaches an internal error for server-side logging
func WithLog(err error) ProblemOption {
	return func(p *Problem) {
		p.Log = err
	}
}

// Stable taxonomy titles. Handlers and tests match on these, never on Detail.
const (
	TitleUnauthenticated     = "Unauthenticated"
	TitleInvalidCredential   = "InvalidCredential"
	TitleMalformedRequest    = "MalformedRequest"
	TitleEmptyMessageList    = "EmptyMessageList"
	TitleNoProvider          = "NoProviderConfigured"
	TitleUpstreamRateLimited = "UpstreamRateLimited"
	TitleUpstreamAuthFailed  = "UpstreamAuthFailed"
	TitleUpstreamBadGateway  = "UpstreamBadGateway"
	TitleInternalProxyError  = "InternalProxyError"
)

// Unauthenticated rejects a request whose Authorization header is missing or
// not a well-formed bearer scheme.
func Unauthenticated(detail string) *Problem {
	return NewError(http.StatusUnauthorized, TitleUnauthenticated, detail)
}

// InvalidCredential rejects a well-formed bearer token that does not match the
// configured master key.
func InvalidCredential() *Problem {
	return NewError(http.StatusUnauthorized, TitleInvalidCredential, "Invalid API key")
}

// MalformedRequest creates a rich schema-validation error.
func MalformedRequest(validationErrors map[string]string) *Problem {
	return NewError(
		http.StatusUnprocessableEntity,
		TitleMalformedRequest,
		"One or more fields failed validation",
		WithExtension("errors", validationErrors),
	)
}

// EmptyMessageList rejects a chat request before any upstream dispatch.
func EmptyMessageList() *Problem {
	return NewError(http.StatusBadRequest, TitleEmptyMessageList, "messages must not be empty")
}

// NoProviderConfigured means no backend can serve the requested model.
func NoProviderConfigured() *Problem {
	return NewError(http.StatusBadRequest, TitleNoProvider, "No configured AI providers")
}

// UpstreamRateLimited maps an upstream 429 onto the proxy taxonomy.
func UpstreamRateLimited(opts ...ProblemOption) *Problem {
	return NewError(http.StatusTooManyRequests, TitleUpstreamRateLimited, "Upstream rate limit exceeded", opts...)
}

// UpstreamAuthFailed means the *provider* rejected the proxy's credentials,
// not that the caller failed the proxy's own auth gate.
func UpstreamAuthFailed(opts ...ProblemOption) *Problem {
	return NewError(http.StatusUnauthorized, TitleUpstreamAuthFailed, "Upstream authentication failed", opts...)
}

// UpstreamError passes a structured upstream failure through. A zero status
// degrades to 502.
func UpstreamError(status int, detail string, opts ...ProblemOption) *Problem {
	if status == 0 {
		status = http.StatusBadGateway
	}
	return NewError(status, TitleUpstreamBadGateway, detail, opts...)
}

// InternalError is the catch-all. The internal cause goes to Log only; the
// caller never sees stack detail.
func InternalError(detail string, err error) *Problem {
	return NewError(http.StatusInternalServerError, TitleInternalProxyError, detail, WithLog(err))
}

// Normalize folds an arbitrary failure into the fixed taxonomy. Problems pass
// through untouched; everything else becomes InternalProxyError.
func Normalize(err error) *Problem {
	var problem *Problem
	if errors.As(err, &problem) {
		return problem
	}
	return InternalError("An unexpected error occurred.", err)
}
