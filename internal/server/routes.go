package server

import (
	"github.com/nocturne-ai/aria/internal/server/middleware"
	v1 "github.com/nocturne-ai/aria/internal/server/v1"
	"github.com/nocturne-ai/aria/internal/server/validator"
)

func (s *Server) setupRoutes() {
	s.engine.Use(middleware.CORS())
	s.engine.Use(middleware.ErrorHandler(s.logger))

	if s.config.RateLimit.RequestsPerSecond > 0 {
		rl := middleware.NewRateLimiter(
			s.config.RateLimit.RequestsPerSecond,
			s.config.RateLimit.Burst,
			s.logger,
		)
		s.engine.Use(rl.Middleware())
	}

	healthHandler := v1.NewHealthHandler(s.router)
	s.engine.GET("/health", healthHandler.Health)

	val := validator.New()

	api := s.engine.Group("/v1")
	api.Use(middleware.Auth(s.config.Server.APIKeys))
	api.Use(middleware.Identity())
	{
		gw := v1.NewGatewayHandler(s.router, val)
		api.POST("/chat", gw.Chat)
		api.POST("/draw", gw.Draw)
		api.POST("/speak", gw.Speak)

		if s.repo != nil {
			interactions := v1.NewInteractionsHandler(s.repo)
			api.GET("/interactions", interactions.Recent)
			api.GET("/interactions/stats", interactions.Stats)
		}

		if s.memory != nil {
			persona := v1.NewPersonaHandler(s.memory, val)
			api.GET("/persona", persona.Get)
			api.PUT("/persona", persona.Set)
			api.DELETE("/memory", persona.Forget)
		}
	}
}
