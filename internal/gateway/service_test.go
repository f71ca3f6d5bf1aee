package gateway_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/calder-ai/uniproxy/internal/analytics"
	"github.com/calder-ai/uniproxy/internal/gateway"
	"github.com/calder-ai/uniproxy/internal/store/cache"
	"github.com/calder-ai/uniproxy/pkg/api"
)

// mockProvider records the request it saw and plays back canned responses.
type mockProvider struct {
	stubProvider

	gotChat       *api.ChatRequest
	gotCompletion *api.CompletionRequest
	chatResp      *api.ChatResponse
	chatErr       error
	streamErr     error
	streamFeed    []api.StreamResult
	models        []api.Model
	modelsCalls   int
}

func (m *mockProvider) Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	m.gotChat = req
	return m.chatResp, m.chatErr
}

func (m *mockProvider) Stream(ctx context.Context, req *api.ChatRequest) (<-chan api.StreamResult, error) {
	m.gotChat = req
	if m.streamErr != nil {
		return nil, m.streamErr
	}

	ch := make(chan api.StreamResult)
	go func() {
		defer close(ch)
		for _, r := range m.streamFeed {
			select {
			case ch <- r:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func (m *mockProvider) Complete(ctx context.Context, req *api.CompletionRequest) (*api.CompletionResponse, error) {
	m.gotCompletion = req
	return &api.CompletionResponse{ID: "cmpl-1", Model: req.Model}, nil
}

func (m *mockProvider) Models(ctx context.Context) ([]api.Model, error) {
	m.modelsCalls++
	return m.models, nil
}

func newTestService(reg gateway.Registry) gateway.Service {
	return gateway.NewService(zap.NewNop(), reg, analytics.NewNoop(), cache.NewMemoryCache())
}

func TestChatTranslationIsolation(t *testing.T) {
	provider := &mockProvider{
		chatResp: &api.ChatResponse{ID: "chatcmpl-1", Model: "gpt-4o"},
	}
	svc := newTestService(gateway.Registry{Direct: provider})

	temp := 0.2
	req := &api.ChatRequest{
		Model:       "gpt-4o",
		Messages:    []api.ChatMessage{{Role: "user", Content: "hi"}},
		Temperature: &temp,
	}

	resp, err := svc.Chat(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "chatcmpl-1", resp.ID)

	// the provider saw an equivalent but distinct request
	require.NotNil(t, provider.gotChat)
	assert.NotSame(t, req, provider.gotChat)
	assert.Equal(t, req.Model, provider.gotChat.Model)
	assert.Equal(t, req.Messages, provider.gotChat.Messages)
	assert.Equal(t, req.Temperature, provider.gotChat.Temperature)
	assert.Nil(t, provider.gotChat.MaxTokens)

	// mutating the provider's copy must not touch the caller's request
	provider.gotChat.Messages[0].Content = "mutated"
	assert.Equal(t, "hi", req.Messages[0].Content)
}

func TestChatNoProviderConfigured(t *testing.T) {
	svc := newTestService(gateway.Registry{})

	_, err := svc.Chat(context.Background(), &api.ChatRequest{Model: "gpt-4o"})
	require.Error(t, err)

	var problem *api.Problem
	require.ErrorAs(t, err, &problem)
	assert.Equal(t, api.TitleNoProvider, problem.Title)
	assert.Equal(t, 400, problem.Status)
}

func TestChatUpstreamErrorPassthrough(t *testing.T) {
	provider := &mockProvider{chatErr: api.UpstreamRateLimited()}
	svc := newTestService(gateway.Registry{Direct: provider})

	_, err := svc.Chat(context.Background(), &api.ChatRequest{Model: "gpt-4o"})

	var problem *api.Problem
	require.ErrorAs(t, err, &problem)
	assert.Equal(t, api.TitleUpstreamRateLimited, problem.Title)
}

func TestStreamChatForwardsInOrder(t *testing.T) {
	feed := []api.StreamResult{
		{Response: &api.ChatResponse{ID: "c-1", Choices: []api.Choice{{Delta: &api.ChatMessage{Content: "Hel"}}}}},
		{Response: &api.ChatResponse{ID: "c-1", Choices: []api.Choice{{Delta: &api.ChatMessage{Content: "lo"}}}}},
		{Response: &api.ChatResponse{ID: "c-1", Choices: []api.Choice{{FinishReason: "stop"}}}},
	}
	provider := &mockProvider{streamFeed: feed}
	svc := newTestService(gateway.Registry{Direct: provider})

	ch, err := svc.StreamChat(context.Background(), &api.ChatRequest{
		Model:    "gpt-4o",
		Messages: []api.ChatMessage{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)

	var got []api.StreamResult
	for r := range ch {
		got = append(got, r)
	}

	require.Len(t, got, len(feed))
	for i := range feed {
		assert.Equal(t, feed[i].Response, got[i].Response)
	}
}

func TestStreamChatDispatchFailure(t *testing.T) {
	provider := &mockProvider{streamErr: api.UpstreamAuthFailed()}
	svc := newTestService(gateway.Registry{Direct: provider})

	ch, err := svc.StreamChat(context.Background(), &api.ChatRequest{Model: "gpt-4o"})
	require.Error(t, err)
	assert.Nil(t, ch)

	var problem *api.Problem
	require.ErrorAs(t, err, &problem)
	assert.Equal(t, api.TitleUpstreamAuthFailed, problem.Title)
}

func TestStreamChatCallerCancellation(t *testing.T) {
	// a long feed the consumer abandons after the first chunk
	feed := make([]api.StreamResult, 100)
	for i := range feed {
		feed[i] = api.StreamResult{Response: &api.ChatResponse{ID: "c-1"}}
	}
	provider := &mockProvider{streamFeed: feed}
	svc := newTestService(gateway.Registry{Direct: provider})

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := svc.StreamChat(ctx, &api.ChatRequest{Model: "gpt-4o"})
	require.NoError(t, err)

	<-ch
	cancel()

	// the relay stops pulling and closes its output
	closed := false
	deadline := time.After(2 * time.Second)
	for !closed {
		select {
		case _, ok := <-ch:
			if !ok {
				closed = true
			}
		case <-deadline:
			t.Fatal("stream channel not closed after cancellation")
		}
	}
}

func TestStreamChatMidStreamError(t *testing.T) {
	feed := []api.StreamResult{
		{Response: &api.ChatResponse{ID: "c-1"}},
		{Err: api.UpstreamError(502, "connection reset")},
	}
	provider := &mockProvider{streamFeed: feed}
	svc := newTestService(gateway.Registry{Direct: provider})

	ch, err := svc.StreamChat(context.Background(), &api.ChatRequest{Model: "gpt-4o"})
	require.NoError(t, err)

	var got []api.StreamResult
	for r := range ch {
		got = append(got, r)
	}

	require.Len(t, got, 2)
	assert.NotNil(t, got[0].Response)
	assert.Error(t, got[1].Err)
}

func TestCompleteRoutesAndReturns(t *testing.T) {
	provider := &mockProvider{}
	provider.stubProvider = stubProvider{name: "azure", typ: "azure"}
	svc := newTestService(gateway.Registry{Gateway: provider})

	resp, err := svc.Complete(context.Background(), &api.CompletionRequest{Model: "azure-gpt-4", Prompt: "Once"})
	require.NoError(t, err)
	assert.Equal(t, "cmpl-1", resp.ID)
	require.NotNil(t, provider.gotCompletion)
	assert.Equal(t, "azure-gpt-4", provider.gotCompletion.Model)
}

func TestListModelsAggregatesAndCaches(t *testing.T) {
	direct := &mockProvider{models: []api.Model{{ID: "gpt-4o", OwnedBy: "openai"}}}
	gatewayP := &mockProvider{models: []api.Model{{ID: "azure-gpt-4", OwnedBy: "azure"}}}
	svc := newTestService(gateway.Registry{Direct: direct, Gateway: gatewayP})

	models, err := svc.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "gpt-4o", models[0].ID)
	assert.Equal(t, "azure-gpt-4", models[1].ID)

	// second call is served from cache
	_, err = svc.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, direct.modelsCalls)
	assert.Equal(t, 1, gatewayP.modelsCalls)
}

func TestSupportedProviders(t *testing.T) {
	svc := newTestService(gateway.Registry{Direct: &mockProvider{}})

	supported := svc.SupportedProviders()
	assert.True(t, supported["openai"])
	assert.False(t, supported["azure_openai"])
}
