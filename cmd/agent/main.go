package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	httpAdapter "github.com/fieldops/workorder-agent/internal/adapters/primary/http"
	mw "github.com/fieldops/workorder-agent/internal/adapters/primary/http/middleware"
	"github.com/fieldops/workorder-agent/internal/adapters/secondary/cache"
	"github.com/fieldops/workorder-agent/internal/adapters/secondary/stream"
	"github.com/fieldops/workorder-agent/internal/adapters/secondary/upstream"
	"github.com/fieldops/workorder-agent/internal/auth"
	"github.com/fieldops/workorder-agent/internal/config"
	"github.com/fieldops/workorder-agent/internal/core/domain"
	"github.com/fieldops/workorder-agent/internal/core/ports"
	"github.com/fieldops/workorder-agent/internal/core/services"
	"github.com/fieldops/workorder-agent/internal/infrastructure/logging"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting agent",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"upstream", cfg.Upstream.BaseURL,
	)

	// 3. Inspect the configured token
	if cfg.Upstream.Token != "" {
		tokenSource, err := auth.NewTokenSource(cfg.Upstream.Token)
		if err != nil {
			logger.Error("invalid upstream token", "error", err)
			os.Exit(1)
		}
		if tokenSource.Expired(time.Now()) {
			expiry, _ := tokenSource.ExpiresAt()
			logger.Warn("upstream token is expired; connections will be rejected",
				"subject", tokenSource.Subject(),
				"expired_at", expiry.UTC().Format(time.RFC3339),
			)
		}
	} else {
		logger.Warn("no upstream token configured")
	}

	// 4. Initialize Cache Store
	var cacheStore ports.CacheStore
	switch cfg.Cache.Driver {
	case "sqlite":
		store, err := cache.NewSQLiteStore(cfg.Cache.Path)
		if err != nil {
			logger.Error("failed to open cache store", "error", err)
			os.Exit(1)
		}
		cacheStore = store
		logger.Info("cache store opened", "driver", "sqlite", "path", cfg.Cache.Path)
	default:
		cacheStore = cache.NewMemoryStore()
		logger.Info("cache store opened", "driver", "memory")
	}
	defer cacheStore.Close()

	// 5. Wire the Core
	router := services.NewEventRouter()

	streamFactory := func(handler ports.EventHandler) ports.EventStream {
		return stream.NewClient(stream.Config{
			BaseURL:          cfg.Upstream.BaseURL,
			Token:            cfg.Upstream.Token,
			ReconnectDelay:   cfg.Stream.ReconnectDelay,
			HandshakeTimeout: cfg.Stream.HandshakeTimeout,
		}, handler, logger)
	}

	onWorkOrderUpdated := func(workOrderID int64) {
		logger.Info("work order updated upstream", "work_order_id", workOrderID)
	}

	globalSubs := services.NewSubscriptionManager(streamFactory, router, cacheStore, onWorkOrderUpdated, logger)
	projectSubs := services.NewSubscriptionManager(streamFactory, router, cacheStore, onWorkOrderUpdated, logger)

	// The global subscription lives for the whole process; the project
	// subscription follows the UI's active project via the scope endpoint.
	globalSubs.Activate(domain.GlobalScope())
	defer globalSubs.Deactivate()
	defer projectSubs.Deactivate()

	upstreamClient := upstream.NewClient(upstream.Config{
		BaseURL:           cfg.Upstream.BaseURL,
		Token:             cfg.Upstream.Token,
		RequestTimeout:    cfg.Upstream.RequestTimeout,
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		Burst:             cfg.Upstream.Burst,
	}, logger)
	readService := services.NewWorkOrderService(cacheStore, upstreamClient, logger)

	// 6. Handlers (Primary Adapters)
	errorHandler := httpAdapter.NewErrorHandler(logger)
	workOrderHandler := httpAdapter.NewWorkOrderHandler(readService, errorHandler, logger)
	scopeHandler := httpAdapter.NewScopeHandler(projectSubs, errorHandler, logger)
	healthHandler := httpAdapter.NewHealthHandler(cacheStore, globalSubs, projectSubs, cfg.App.Version)

	// 7. Setup Router
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", mw.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", healthHandler.HandleHealth)
	r.Get("/health/live", healthHandler.HandleLiveness)

	r.Route("/api/v1", func(r chi.Router) {
		scopeHandler.RegisterRoutes(r)
		workOrderHandler.RegisterRoutes(r)
	})

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("local API listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	// Subscriptions come down first so no invalidation races the cache
	// close below.
	projectSubs.Deactivate()
	globalSubs.Deactivate()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("agent shutdown complete")
}
