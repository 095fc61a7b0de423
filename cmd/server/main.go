// pagereply - Messenger page auto-responder server
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
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmrelampagos/pagereply/internal/api"
	"github.com/jmrelampagos/pagereply/internal/catalog"
	"github.com/jmrelampagos/pagereply/internal/config"
	"github.com/jmrelampagos/pagereply/internal/dedupe"
	"github.com/jmrelampagos/pagereply/internal/delivery"
	"github.com/jmrelampagos/pagereply/internal/engage"
	"github.com/jmrelampagos/pagereply/internal/messenger"
	"github.com/jmrelampagos/pagereply/internal/middleware"
	"github.com/jmrelampagos/pagereply/internal/ops"
	"github.com/jmrelampagos/pagereply/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port,
		"onboarding_cooldown", cfg.OnboardingCooldown,
		"followup_cooldown", cfg.FollowupCooldown)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	media := catalog.Load(cfg.ManifestPath, cfg.MediaDir, cfg.PublicURL)

	sender := messenger.NewClient(cfg.PageAccessToken)
	pipeline := delivery.NewPipeline(sender, cfg.ChunkSize, cfg.InterChunkDelay, cfg.InterItemDelay)
	feed := ops.NewFeed()

	orchestrator := engage.NewOrchestrator(
		repo,
		sender,
		pipeline,
		dedupe.New(),
		engage.Policy{
			OnboardingCooldown: cfg.OnboardingCooldown,
			FollowupCooldown:   cfg.FollowupCooldown,
		},
		media,
		cfg.IsPrivileged,
		feed,
	)

	// Initialize handlers.
	webhookHandler := api.NewWebhookHandler(cfg.VerifyToken, orchestrator)
	adminHandler := api.NewAdminHandler(repo, cfg.ResetKey)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.AllowedOrigin))

	webhookHandler.RegisterRoutes(r)
	adminHandler.RegisterRoutes(r)

	// Activity feed for the ops dashboard.
	r.Get("/ws/activity", feed.ServeHTTP)

	// Serve local gallery files when configured.
	if cfg.MediaDir != "" {
		fileServer := http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.MediaDir)))
		r.Get("/media/*", fileServer.ServeHTTP)
	}

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pagereply is running."))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // no timeout, the activity feed holds connections open
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
