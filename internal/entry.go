// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/caffeinsmuggler/timesheet-ai/internal/api"
	"github.com/caffeinsmuggler/timesheet-ai/internal/index"
	"github.com/caffeinsmuggler/timesheet-ai/internal/llm"
	"github.com/caffeinsmuggler/timesheet-ai/internal/mcpserver"
	"github.com/caffeinsmuggler/timesheet-ai/internal/ocr"
	"github.com/caffeinsmuggler/timesheet-ai/internal/review"
	"github.com/caffeinsmuggler/timesheet-ai/internal/roster"
	"github.com/caffeinsmuggler/timesheet-ai/internal/sse"
	"github.com/caffeinsmuggler/timesheet-ai/internal/storage"
)

// Run starts the HTTP application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_dir", cfg.Data.Dir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("roster_path", cfg.Roster.Path),
		slog.Bool("gemini_enabled", cfg.Gemini.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc, rost, cleanup, err := buildService(ctx, app, logger,
		review.WithNotifier(sse.Notifier{Broker: broker}))
	if err != nil {
		return err
	}
	defer cleanup()

	// Build the API router.
	apiRouter := api.NewRouter(svc, rost, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi root router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Hot-reload the roster on file changes.
	if cfg.Roster.Watch {
		g.Go(func() error {
			if err := rost.Watch(gCtx, logger); err != nil {
				logger.Warn("roster watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the review tools over the Model Context Protocol on
// stdin/stdout. Logs go to stderr because stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)

	svc, rost, cleanup, err := buildService(ctx, app, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	return mcpserver.New(svc, rost).ServeStdio()
}

// buildService wires storage, catalog, roster, OCR, and the optional model
// assist into a review service. The returned cleanup closes everything the
// service owns.
func buildService(ctx context.Context, app *application, logger *slog.Logger, extra ...review.Option) (*review.Service, *roster.Store, func(), error) {
	cfg := app.config

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("create data dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Data.Dir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init index: %w", err)
	}

	rost, err := roster.Load(cfg.Roster.Path, logger)
	if err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("load roster: %w", err)
	}

	engine := app.engine
	if engine == nil {
		engine = ocr.NewTesseractEngine()
	}

	reviewCfg := review.DefaultConfig()
	reviewCfg.OCRLanguages = cfg.OCR.Languages
	reviewCfg.OCRDPI = cfg.OCR.DPI

	svcOpts := extra
	var assist *llm.Gemini
	if cfg.Gemini.Enabled {
		assist, err = llm.NewGemini(ctx, cfg.Gemini.ProjectID, cfg.Gemini.Region, cfg.Gemini.Model)
		if err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("init gemini: %w", err)
		}
		svcOpts = append(svcOpts, review.WithAssist(assist))
		logger.Info("model assist enabled", slog.String("model", cfg.Gemini.Model))
	}

	svc := review.NewService(review.NewStore(store), db, engine, rost, reviewCfg, logger, svcOpts...)

	// Reconcile the catalog with the session documents on disk.
	if err := svc.RebuildIndex(ctx); err != nil {
		logger.Warn("index rebuild failed", slog.String("error", err.Error()))
	}

	cleanup := func() {
		if assist != nil {
			_ = assist.Close()
		}
		db.Close()
	}
	return svc, rost, cleanup, nil
}
