package gateway

import "github.com/calder-ai/uniproxy/pkg/api"

// translateChat produces the request handed to a provider handle. Pure: no
// I/O, message order preserved, optional fields passed through as-is (nil
// stays nil so the provider applies its own defaults). The clone keeps
// provider adapters from mutating the caller's request.
func translateChat(req *api.ChatRequest) *api.ChatRequest {
	clone := *req
	clone.Messages = make([]api.ChatMessage, len(req.Messages))
	copy(clone.Messages, req.Messages)
	return &clone
}

func translateCompletion(req *api.CompletionRequest) *api.CompletionRequest {
	clone := *req
	return &clone
}
