package azure_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder-ai/uniproxy/internal/config"
	"github.com/calder-ai/uniproxy/internal/llm/azure"
	"github.com/calder-ai/uniproxy/internal/llm/credential"
	"github.com/calder-ai/uniproxy/pkg/api"
)

func TestAzureChatKeyMode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/deployments/gpt-4o/chat/completions", r.URL.Path)
		assert.Equal(t, "2024-02-15-preview", r.URL.Query().Get("api-version"))
		assert.Equal(t, "secret-key", r.Header.Get("api-key"))
		assert.Empty(t, r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-azure-1",
			"object": "chat.completion",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "From Azure"},
				"finish_reason": "stop"
			}]
		}`))
	}))
	defer server.Close()

	adapter, err := azure.NewAdapter(config.ProviderConfig{
		ID:      "azure-test",
		Type:    "azure",
		APIKey:  "secret-key",
		BaseURL: server.URL,
		Config:  map[string]string{"deployment": "gpt-4o"},
	})
	require.NoError(t, err)

	resp, err := adapter.Chat(context.Background(), &api.ChatRequest{
		Model:    "azure-gpt-4o",
		Messages: []api.ChatMessage{{Role: "user", Content: "Hi"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "From Azure", resp.Choices[0].Message.Content)
	assert.Equal(t, "azure-test", adapter.Name())
	assert.Equal(t, "azure", adapter.Type())
}

func TestAzureIdentityMode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer identity-token", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("api-key"))
		_, _ = w.Write([]byte(`{"id": "chatcmpl-azure-2", "choices": []}`))
	}))
	defer server.Close()

	provider, err := azure.NewAdapter(config.ProviderConfig{
		ID:      "azure-test",
		Type:    "azure",
		BaseURL: server.URL,
		Config: map[string]string{
			"deployment":   "gpt-4o",
			"use_identity": "true",
		},
	})
	require.NoError(t, err)

	adapter := provider.(*azure.Adapter).WithTokenSource(credential.Static("identity-token"))

	_, err = adapter.Chat(context.Background(), &api.ChatRequest{Model: "azure-gpt-4o"})
	assert.NoError(t, err)
}

func TestAzureIdentityTokenFailure(t *testing.T) {
	provider, err := azure.NewAdapter(config.ProviderConfig{
		ID:      "azure-test",
		Type:    "azure",
		BaseURL: "https://example.openai.azure.com",
		Config: map[string]string{
			"deployment":   "gpt-4o",
			"use_identity": "true",
		},
	})
	require.NoError(t, err)

	// empty static source yields no token
	adapter := provider.(*azure.Adapter).WithTokenSource(credential.Static(""))

	_, err = adapter.Chat(context.Background(), &api.ChatRequest{Model: "azure-gpt-4o"})
	require.Error(t, err)

	var problem *api.Problem
	require.ErrorAs(t, err, &problem)
	assert.Equal(t, api.TitleUpstreamAuthFailed, problem.Title)
}

func TestAzureRequiresEndpoint(t *testing.T) {
	_, err := azure.NewAdapter(config.ProviderConfig{
		ID:     "azure-test",
		Type:   "azure",
		APIKey: "secret-key",
	})
	assert.Error(t, err)
}

func TestAzureRequiresKeyOrIdentity(t *testing.T) {
	_, err := azure.NewAdapter(config.ProviderConfig{
		ID:      "azure-test",
		Type:    "azure",
		BaseURL: "https://example.openai.azure.com",
	})
	assert.Error(t, err)
}

func TestAzureAPIVersionOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2023-05-15", r.URL.Query().Get("api-version"))
		_, _ = w.Write([]byte(`{"id": "cmpl-1", "choices": []}`))
	}))
	defer server.Close()

	adapter, err := azure.NewAdapter(config.ProviderConfig{
		ID:      "azure-test",
		Type:    "azure",
		APIKey:  "secret-key",
		BaseURL: server.URL,
		Config: map[string]string{
			"deployment":  "gpt-35",
			"api_version": "2023-05-15",
		},
	})
	require.NoError(t, err)

	_, err = adapter.Complete(context.Background(), &api.CompletionRequest{Model: "azure-gpt-35", Prompt: "Once"})
	assert.NoError(t, err)
}

func TestAzureModelsStaticCatalog(t *testing.T) {
	adapter, err := azure.NewAdapter(config.ProviderConfig{
		ID:      "azure-test",
		Type:    "azure",
		APIKey:  "secret-key",
		BaseURL: "https://example.openai.azure.com",
		Models:  []api.Model{{ID: "azure-gpt-4o"}},
	})
	require.NoError(t, err)

	models, err := adapter.Models(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "model", models[0].Object)
	assert.Equal(t, "azure", models[0].OwnedBy)
}
