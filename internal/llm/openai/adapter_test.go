package openai_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder-ai/uniproxy/internal/config"
	"github.com/calder-ai/uniproxy/internal/llm/openai"
	"github.com/calder-ai/uniproxy/pkg/api"
)

func TestOpenAIChat(t *testing.T) {
	// Mock Server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-123",
			"object": "chat.completion",
			"created": 1677652288,
			"model": "gpt-3.5-turbo",
			"choices": [{
				"index": 0,
				"message": {
					"role": "assistant",
					"content": "Hello there!"
				},
				"finish_reason": "stop"
			}],
			"usage": {
				"prompt_tokens": 9,
				"completion_tokens": 12,
				"total_tokens": 21
			}
		}`))
	}))
	defer server.Close()

	adapter, err := openai.NewAdapter(config.ProviderConfig{
		ID:      "openai-test",
		Type:    "openai",
		APIKey:  "test-key",
		BaseURL: server.URL + "/v1",
	})
	require.NoError(t, err)

	resp, err := adapter.Chat(context.Background(), &api.ChatRequest{
		Model: "gpt-3.5-turbo",
		Messages: []api.ChatMessage{
			{Role: "user", Content: "Hi"},
		},
	})

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "Hello there!", resp.Choices[0].Message.Content)
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)
	assert.Equal(t, 21, resp.Usage.TotalTokens)
	assert.Equal(t, "openai-test", adapter.Name())
}

func TestOpenAIOrganizationHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "org-abc", r.Header.Get("OpenAI-Organization"))
		_, _ = w.Write([]byte(`{"id": "chatcmpl-1", "choices": []}`))
	}))
	defer server.Close()

	adapter, err := openai.NewAdapter(config.ProviderConfig{
		ID:      "openai-test",
		Type:    "openai",
		APIKey:  "test-key",
		BaseURL: server.URL,
		Config:  map[string]string{"organization": "org-abc"},
	})
	require.NoError(t, err)

	_, err = adapter.Chat(context.Background(), &api.ChatRequest{Model: "gpt-4o"})
	assert.NoError(t, err)
}

func TestOpenAIRequiresAPIKey(t *testing.T) {
	_, err := openai.NewAdapter(config.ProviderConfig{ID: "openai-test", Type: "openai"})
	assert.Error(t, err)
}

func TestOpenAIStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		chunks := []string{
			`{"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"Hel"}}]}`,
			`{"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"lo"}}]}`,
			`{"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
		}
		for _, chunk := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", chunk)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
	defer server.Close()

	adapter, err := openai.NewAdapter(config.ProviderConfig{
		ID:      "openai-test",
		Type:    "openai",
		APIKey:  "test-key",
		BaseURL: server.URL,
	})
	require.NoError(t, err)

	ch, err := adapter.Stream(context.Background(), &api.ChatRequest{
		Model:    "gpt-4o",
		Messages: []api.ChatMessage{{Role: "user", Content: "Hi"}},
	})
	require.NoError(t, err)

	var contents []string
	var finishReason string
	for result := range ch {
		require.NoError(t, result.Err)
		require.NotNil(t, result.Response)
		if len(result.Response.Choices) > 0 {
			choice := result.Response.Choices[0]
			if choice.Delta != nil && choice.Delta.Content != "" {
				contents = append(contents, choice.Delta.Content)
			}
			if choice.FinishReason != "" {
				finishReason = choice.FinishReason
			}
		}
	}

	// chunks in upstream order; [DONE] is consumed, not forwarded
	assert.Equal(t, []string{"Hel", "lo"}, contents)
	assert.Equal(t, "stop", finishReason)
}

func TestOpenAIStreamDispatchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit reached"}}`))
	}))
	defer server.Close()

	adapter, err := openai.NewAdapter(config.ProviderConfig{
		ID:      "openai-test",
		Type:    "openai",
		APIKey:  "test-key",
		BaseURL: server.URL,
	})
	require.NoError(t, err)

	ch, err := adapter.Stream(context.Background(), &api.ChatRequest{Model: "gpt-4o"})

	// the failure surfaces at dispatch, before any channel exists
	require.Error(t, err)
	assert.Nil(t, ch)

	var problem *api.Problem
	require.ErrorAs(t, err, &problem)
	assert.Equal(t, api.TitleUpstreamRateLimited, problem.Title)
}

func TestOpenAIStreamCancellation(t *testing.T) {
	blocker := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		fmt.Fprint(w, "data: {\"id\":\"chatcmpl-1\",\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\n")
		flusher.Flush()

		// hold the stream open until the client goes away
		select {
		case <-blocker:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(blocker)

	adapter, err := openai.NewAdapter(config.ProviderConfig{
		ID:      "openai-test",
		Type:    "openai",
		APIKey:  "test-key",
		BaseURL: server.URL,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := adapter.Stream(ctx, &api.ChatRequest{Model: "gpt-4o"})
	require.NoError(t, err)

	<-ch
	cancel()

	// cancellation closes the channel without a trailing error result
	for result := range ch {
		assert.NoError(t, result.Err)
	}
}

func TestOpenAIModelsStaticCatalog(t *testing.T) {
	adapter, err := openai.NewAdapter(config.ProviderConfig{
		ID:     "openai-test",
		Type:   "openai",
		APIKey: "test-key",
		Models: []api.Model{
			{ID: "gpt-4o"},
			{ID: "gpt-4o-mini", OwnedBy: "custom"},
		},
	})
	require.NoError(t, err)

	models, err := adapter.Models(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "model", models[0].Object)
	assert.Equal(t, "openai", models[0].OwnedBy)
	assert.Equal(t, "custom", models[1].OwnedBy)
}
