// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/shivanand-hulikatti/events-manager/internal/auth"
	"github.com/shivanand-hulikatti/events-manager/internal/config"
	"github.com/shivanand-hulikatti/events-manager/internal/database"
	"github.com/shivanand-hulikatti/events-manager/internal/handler"
	"github.com/shivanand-hulikatti/events-manager/internal/repository"
	"github.com/shivanand-hulikatti/events-manager/internal/service"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// ── 1. Open the event store ───────────────────────────────────────────
	var store repository.EventStore
	switch cfg.StorageDriver {
	case "memory":
		store = repository.NewMemoryStore()
		log.Info("using in-memory event store")
	default:
		pool, err := database.NewPool(ctx, cfg.DSN())
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer pool.Close()

		pg := repository.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		store = pg
		log.Info("connected to postgres", "host", cfg.DBHost, "database", cfg.DBName)
	}

	// ── 2. Wire up layers ─────────────────────────────────────────────────
	resolver := auth.NewResolver(cfg.AuthMode, cfg.JWTSecret, cfg.ClaimsHeader, cfg.OrganizerGroup)
	eventSvc := service.NewEventService(store, log)
	eventHandler := handler.NewEventHandler(eventSvc)
	if cfg.AuthMode == "mock" {
		log.Warn("mock auth enabled; every request is a fixed organizer")
	}

	// ── 3. Build the router ───────────────────────────────────────────────
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(handler.Logger)          // structured access log
	r.Use(handler.CORS)

	r.Get("/health", handler.HealthCheck)

	r.Route("/events", func(r chi.Router) {
		// Reads are public.
		r.Get("/", eventHandler.ListEvents)
		r.Get("/{eventID}", eventHandler.GetEvent)

		// Writes require the organizer role.
		r.Group(func(r chi.Router) {
			r.Use(resolver.OrganizerOnly)
			r.Post("/", eventHandler.CreateEvent)
			r.Put("/{eventID}", eventHandler.UpdateEvent)
			r.Delete("/{eventID}", eventHandler.DeleteEvent)
		})
	})

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
