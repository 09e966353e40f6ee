// Package main is the entry point for the shopfront catalog server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopfront/internal/assets"
	"shopfront/internal/cache"
	"shopfront/internal/catalog"
	"shopfront/internal/config"
	"shopfront/internal/database"
	"shopfront/internal/handlers"
	"shopfront/internal/jobs"
	"shopfront/internal/middleware"
	"shopfront/internal/orders"
	"shopfront/internal/router"
	"shopfront/internal/session"
	"shopfront/internal/storage"
	"shopfront/internal/store"
)

func main() {
	// Load configuration from the environment and .env.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	closeLog := setupLogger(cfg)
	defer closeLog()

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"image_dir", cfg.ImageDir,
		"auth", cfg.AuthEnabled(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Valkey backs the catalog cache and admin sessions. Both are optional.
	var (
		catalogCache catalog.Cache
		sessionStore *session.Store
	)
	if cfg.ValkeyHost != "" {
		valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkeyClient.Close()
		catalogCache = cache.NewCatalogCache(valkeyClient, cache.DefaultCatalogTTL)
		sessionStore = session.NewStore(valkeyClient, session.DefaultTTL)
	} else {
		slog.Warn("valkey not configured, catalog cache disabled")
	}

	// Optional S3 mirror of the image directory.
	var mirror assets.Mirror
	storageClient, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		mirror = storageClient
		slog.Info("s3 image mirror enabled", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	}

	pipeline, err := assets.New(cfg.ImageDir, mirror)
	if err != nil {
		slog.Error("failed to initialize image directory", "error", err)
		os.Exit(1)
	}

	svc := catalog.NewService(
		store.NewCategoryStore(db),
		store.NewProductStore(db),
		pipeline,
		catalogCache,
	)

	// Optional order queue.
	var publisher handlers.OrderPublisher
	if cfg.AMQPURL != "" {
		p, err := orders.Dial(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			slog.Error("failed to connect to amqp", "error", err)
			os.Exit(1)
		}
		defer p.Close()
		publisher = p
	} else {
		slog.Warn("amqp not configured, orders are only logged")
	}

	// Admin authentication is on when a password hash is configured.
	var (
		handlerSessions handlers.SessionStore
		routeSessions   middleware.SessionLookup
	)
	if cfg.AuthEnabled() {
		handlerSessions = sessionStore
		routeSessions = sessionStore
	} else {
		slog.Warn("ADMIN_PASSWORD_HASH not set, admin routes are unauthenticated")
	}

	scheduler, err := jobs.New(cfg.ReconcileSchedule, svc)
	if err != nil {
		slog.Error("failed to schedule jobs", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
	defer limiter.Stop()

	api := handlers.New(svc, publisher, handlerSessions, cfg.AdminPasswordHash)
	r := router.New(api, router.Options{
		Sessions: routeSessions,
		Limiter:  limiter,
		ImageDir: pipeline.Dir(),
	})

	// Uploads of up to 10 MiB need a generous read timeout.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	scheduler.Stop(ctx)

	slog.Info("server stopped gracefully")
}
