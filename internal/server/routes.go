package server

import (
	"github.com/calder-ai/uniproxy/internal/server/middleware"
	v1 "github.com/calder-ai/uniproxy/internal/server/v1"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.ErrorHandler(s.logger))

	// Public: health and the identity page skip the auth gate.
	healthHandler := v1.NewHealthHandler()
	s.router.GET("/health/readiness", healthHandler.Readiness)

	rootHandler := v1.NewRootHandler(s.service)
	s.router.GET("/", rootHandler.Index)

	// Everything else requires the master credential.
	secured := s.router.Group("")
	secured.Use(middleware.Auth(s.config.Server.MasterKey))

	rl := middleware.NewRateLimiter(s.config.RateLimit.RequestsPerSecond, s.config.RateLimit.Burst, s.logger)
	secured.Use(rl.Middleware())

	chatHandler := v1.NewChatHandler(s.service)
	secured.POST("/chat/completions", chatHandler.CreateCompletion)

	completionHandler := v1.NewCompletionHandler(s.service)
	secured.POST("/completions", completionHandler.CreateCompletion)

	modelHandler := v1.NewModelHandler(s.service)
	secured.GET("/models", modelHandler.ListModels)
}
