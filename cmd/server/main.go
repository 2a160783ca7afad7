package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nocturne-ai/aria/cmd"
	"github.com/nocturne-ai/aria/internal/config"
	"github.com/nocturne-ai/aria/internal/interaction"
	"github.com/nocturne-ai/aria/internal/memory"
	"github.com/nocturne-ai/aria/internal/platform/logger"
	"github.com/nocturne-ai/aria/internal/platform/otel"
	"github.com/nocturne-ai/aria/internal/router"
	"github.com/nocturne-ai/aria/internal/server"
	"github.com/nocturne-ai/aria/internal/store"
	"github.com/nocturne-ai/aria/internal/store/cache"
	memcache "github.com/nocturne-ai/aria/internal/store/cache/memory"
	rediscache "github.com/nocturne-ai/aria/internal/store/cache/redis"
	"github.com/nocturne-ai/aria/internal/store/sqlite"

	// Provider adapters register themselves in init.
	_ "github.com/nocturne-ai/aria/internal/provider/anthropic"
	_ "github.com/nocturne-ai/aria/internal/provider/elevenlabs"
	_ "github.com/nocturne-ai/aria/internal/provider/openai"
)

func main() {
	logger.Initialize(logger.DefaultConfig())
	defer logger.Sync()
	log := logger.Get()

	cmd.CheckForUpdates()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	shutdownTracer, err := otel.InitTracer("aria", log, os.Stdout)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// Interaction store. Optional: without a DSN the gateway runs with
	// Loki-only (or no) interaction history.
	var repo store.Repository
	if cfg.Store.DSN != "" {
		repo, err = sqlite.NewSQLiteStorage(cfg.Store.DSN)
		if err != nil {
			log.Fatal("Failed to open interaction store", zap.Error(err))
		}
		log.Info("Interaction store ready", zap.String("dsn", cfg.Store.DSN))
	}

	var userCache cache.CacheService
	if cfg.Redis.Enabled {
		userCache, err = rediscache.NewRedisCache(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		log.Info("Using redis cache", zap.String("addr", cfg.Redis.Addr))
	} else {
		userCache = memcache.NewMemoryCache()
		log.Info("Using in-process cache")
	}

	var sinks []interaction.Sink
	if cfg.Loki.Enabled {
		sinks = append(sinks, interaction.NewLokiSink(cfg.Loki))
		log.Info("Loki sink enabled", zap.String("url", cfg.Loki.URL))
	}
	if repo != nil {
		sinks = append(sinks, interaction.NewStoreSink(repo))
	}

	recorderCtx, cancelRecorder := context.WithCancel(context.Background())
	recorder := interaction.NewRecorder(log, sinks...)
	recorder.Start(recorderCtx)

	providers := router.BuildProviders(cfg.Providers, log)
	if len(providers) == 0 {
		log.Warn("No providers registered; every request will fail selection")
	}

	mem := memory.NewService(userCache, log)
	rt := router.New(providers, recorder, mem, cfg.Router.ProviderTimeout, log)

	srv := server.New(cfg, log, rt, repo, mem)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.Handler(),
	}

	go func() {
		log.Info("Starting gateway", zap.String("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("HTTP shutdown failed", zap.Error(err))
	}

	if err := rt.Close(); err != nil {
		log.Error("Router close failed", zap.Error(err))
	}

	// Stop the recorder after the router so in-flight records drain.
	cancelRecorder()
	recorder.Stop()

	if err := userCache.Close(); err != nil {
		log.Error("Cache close failed", zap.Error(err))
	}
	if repo != nil {
		if err := repo.Close(); err != nil {
			log.Error("Store close failed", zap.Error(err))
		}
	}
	if err := shutdownTracer(ctx); err != nil {
		log.Error("Tracer shutdown failed", zap.Error(err))
	}

	log.Info("Goodbye")
}
