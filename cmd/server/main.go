package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/calder-ai/uniproxy/internal/analytics"
	"github.com/calder-ai/uniproxy/internal/config"
	"github.com/calder-ai/uniproxy/internal/gateway"
	"github.com/calder-ai/uniproxy/internal/platform/logger"
	"github.com/calder-ai/uniproxy/internal/platform/otel"
	"github.com/calder-ai/uniproxy/internal/server"
	"github.com/calder-ai/uniproxy/internal/store/cache"
	"github.com/calder-ai/uniproxy/internal/store/sqlite"
	"github.com/calder-ai/uniproxy/internal/version"

	// Import providers to trigger init() registration
	_ "github.com/calder-ai/uniproxy/internal/llm/azure"
	_ "github.com/calder-ai/uniproxy/internal/llm/openai"
)

func main() {
	logger.Initialize(logger.DefaultConfig())
	defer logger.Sync()
	log := logger.Get()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go version.CheckForUpdates(log)

	shutdownTracer, err := otel.InitTracer("uniproxy", log, os.Stdout)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	// Analytics sink: sqlite-backed when the database is enabled.
	ingestor := analytics.NewNoop()
	if cfg.Database.Enabled {
		repo, err := sqlite.NewSQLiteStorage(cfg.Database.DSN, log)
		if err != nil {
			log.Fatal("Failed to open database", zap.Error(err))
		}
		defer func() {
			_ = repo.Close()
		}()

		ingestor = analytics.NewIngestor(log, repo)
		ingestor.Start(ctx)
		defer ingestor.Stop()
	}

	var cacheService cache.CacheService
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("Redis unavailable, falling back to in-memory cache", zap.Error(err))
			cacheService = cache.NewMemoryCache()
		} else {
			defer func() {
				_ = redisCache.Close()
			}()
			cacheService = redisCache
		}
	} else {
		cacheService = cache.NewMemoryCache()
	}

	reg := gateway.BuildRegistry(cfg.Providers, log)
	service := gateway.NewService(log, reg, ingestor, cacheService)

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           server.New(cfg, log, service).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Starting unified proxy",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Server.Env),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
