// Package server assembles the HTTP surface over the router core.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nocturne-ai/aria/internal/config"
	"github.com/nocturne-ai/aria/internal/memory"
	"github.com/nocturne-ai/aria/internal/router"
	"github.com/nocturne-ai/aria/internal/server/middleware"
	"github.com/nocturne-ai/aria/internal/store"
)

const serviceName = "aria"

type Server struct {
	engine *gin.Engine
	config *config.Config
	logger *zap.Logger

	router *router.Router
	repo   store.Repository
	memory *memory.Service
}

// New builds the gin engine with the full middleware chain. repo and mem
// are optional; their routes are only registered when present.
func New(cfg *config.Config, logger *zap.Logger, r *router.Router, repo store.Repository, mem *memory.Service) *Server {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.Recovery(logger))
	engine.Use(middleware.Logger(logger))
	engine.Use(middleware.Tracing(serviceName))

	s := &Server{
		engine: engine,
		config: cfg,
		logger: logger,
		router: r,
		repo:   repo,
		memory: mem,
	}

	s.setupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}
