package gateway

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/calder-ai/uniproxy/internal/analytics"
	"github.com/calder-ai/uniproxy/internal/store/cache"
	"github.com/calder-ai/uniproxy/internal/store/model"
	"github.com/calder-ai/uniproxy/pkg/api"
)

const (
	modelListCacheKey = "models:list"
	modelListCacheTTL = 60 * time.Second
)

// Service is the request-routing and relay core: it selects a provider for
// each request, translates the request, executes the call, and records
// analytics. All failure classification happens at the provider boundary or
// in the handlers; Service only converts the no-provider sentinel.
type Service interface {
	Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error)
	StreamChat(ctx context.Context, req *api.ChatRequest) (<-chan api.StreamResult, error)
	Complete(ctx context.Context, req *api.CompletionRequest) (*api.CompletionResponse, error)
	ListModels(ctx context.Context) ([]api.Model, error)
	SupportedProviders() map[string]bool
}

type service struct {
	logger   *zap.Logger
	reg      Registry
	ingestor analytics.Ingestor
	cache    cache.CacheService
}

func NewService(logger *zap.Logger, reg Registry, ingestor analytics.Ingestor, c cache.CacheService) Service {
	return &service{
		logger:   logger,
		reg:      reg,
		ingestor: ingestor,
		cache:    c,
	}
}

func (s *service) route(model string) (RoutingDecision, error) {
	decision := SelectProvider(model, s.reg)
	if decision.None() {
		return decision, api.NoProviderConfigured()
	}
	return decision, nil
}

func (s *service) Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	decision, err := s.route(req.Model)
	if err != nil {
		return nil, err
	}
	provider := decision.Provider

	start := time.Now()
	resp, err := provider.Chat(ctx, translateChat(req))
	if err != nil {
		s.logger.Warn("Chat dispatch failed",
			zap.String("provider", provider.Name()),
			zap.String("model", req.Model),
			zap.Error(err),
		)
		return nil, err
	}

	log := &model.RequestLog{
		ID:         resp.ID,
		ProviderID: provider.Name(),
		ModelID:    req.Model,
		Endpoint:   "chat",
		StatusCode: 200,
		LatencyMS:  time.Since(start).Milliseconds(),
		CreatedAt:  time.Now(),
	}
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if len(resp.Choices) > 0 {
		log.FinishReason = resp.Choices[0].FinishReason
	}
	if resp.Usage != nil {
		log.InputTokens = resp.Usage.PromptTokens
		log.OutputTokens = resp.Usage.CompletionTokens
	}
	s.ingestor.Log(log)

	return resp, nil
}

func (s *service) Complete(ctx context.Context, req *api.CompletionRequest) (*api.CompletionResponse, error) {
	decision, err := s.route(req.Model)
	if err != nil {
		return nil, err
	}
	provider := decision.Provider

	start := time.Now()
	resp, err := provider.Complete(ctx, translateCompletion(req))
	if err != nil {
		s.logger.Warn("Completion dispatch failed",
			zap.String("provider", provider.Name()),
			zap.String("model", req.Model),
			zap.Error(err),
		)
		return nil, err
	}

	log := &model.RequestLog{
		ID:         resp.ID,
		ProviderID: provider.Name(),
		ModelID:    req.Model,
		Endpoint:   "completion",
		StatusCode: 200,
		LatencyMS:  time.Since(start).Milliseconds(),
		CreatedAt:  time.Now(),
	}
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if resp.Usage != nil {
		log.InputTokens = resp.Usage.PromptTokens
		log.OutputTokens = resp.Usage.CompletionTokens
	}
	s.ingestor.Log(log)

	return resp, nil
}

func (s *service) StreamChat(ctx context.Context, req *api.ChatRequest) (<-chan api.StreamResult, error) {
	decision, err := s.route(req.Model)
	if err != nil {
		return nil, err
	}
	provider := decision.Provider

	streamChan, err := provider.Stream(ctx, translateChat(req))
	if err != nil {
		s.logger.Warn("Stream dispatch failed",
			zap.String("provider", provider.Name()),
			zap.String("model", req.Model),
			zap.Error(err),
		)
		return nil, err
	}

	// Intercept the stream for analytics without reordering or batching:
	// each result is forwarded as soon as it is observed.
	outChan := make(chan api.StreamResult)

	go func() {
		defer close(outChan)

		start := time.Now()
		var ttft *time.Duration
		var inputTokens, outputTokens int
		var finishReason, lastID string
		failed := false

		for result := range streamChan {
			if ttft == nil && result.Response != nil {
				dur := time.Since(start)
				ttft = &dur
			}

			if result.Response != nil {
				lastID = result.Response.ID
				if result.Response.Usage != nil {
					inputTokens = result.Response.Usage.PromptTokens
					outputTokens = result.Response.Usage.CompletionTokens
				}
				if len(result.Response.Choices) > 0 && result.Response.Choices[0].FinishReason != "" {
					finishReason = result.Response.Choices[0].FinishReason
				}
			}
			if result.Err != nil {
				failed = true
			}

			select {
			case outChan <- result:
			case <-ctx.Done():
				// caller went away: stop pulling so the provider side can
				// release the upstream call
				s.logStream(req, provider.Name(), lastID, start, ttft, inputTokens, outputTokens, "canceled", true)
				return
			}
		}

		if failed {
			finishReason = "error"
		}
		s.logStream(req, provider.Name(), lastID, start, ttft, inputTokens, outputTokens, finishReason, failed)
	}()

	return outChan, nil
}

func (s *service) logStream(req *api.ChatRequest, providerName, lastID string, start time.Time, ttft *time.Duration, inputTokens, outputTokens int, finishReason string, failed bool) {
	var ttftMS sql.NullInt64
	if ttft != nil {
		ttftMS = sql.NullInt64{Int64: ttft.Milliseconds(), Valid: true}
	}

	log := &model.RequestLog{
		ID:           lastID,
		ProviderID:   providerName,
		ModelID:      req.Model,
		Endpoint:     "chat",
		FinishReason: finishReason,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		StatusCode:   200,
		LatencyMS:    time.Since(start).Milliseconds(),
		TTFTMS:       ttftMS,
		IsStreamed:   true,
		CreatedAt:    time.Now(),
	}
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if failed && finishReason != "canceled" {
		log.StatusCode = 500
	}
	s.ingestor.Log(log)
}

func (s *service) ListModels(ctx context.Context) ([]api.Model, error) {
	var cached []api.Model
	if err := s.cache.Get(ctx, modelListCacheKey, &cached); err == nil {
		return cached, nil
	}

	var models []api.Model
	for _, p := range s.reg.All() {
		ms, err := p.Models(ctx)
		if err != nil {
			s.logger.Warn("Provider model listing failed", zap.String("provider", p.Name()), zap.Error(err))
			continue
		}
		models = append(models, ms...)
	}

	if err := s.cache.Set(ctx, modelListCacheKey, models, modelListCacheTTL); err != nil {
		s.logger.Debug("Model list cache write failed", zap.Error(err))
	}

	return models, nil
}

func (s *service) SupportedProviders() map[string]bool {
	return map[string]bool{
		"openai":       s.reg.Direct != nil,
		"azure_openai": s.reg.Gateway != nil,
	}
}
