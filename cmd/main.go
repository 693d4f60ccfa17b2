// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mcosta87/eventos/internal/auth"
	"github.com/mcosta87/eventos/internal/config"
	"github.com/mcosta87/eventos/internal/database"
	"github.com/mcosta87/eventos/internal/handler"
	"github.com/mcosta87/eventos/internal/notifier"
	"github.com/mcosta87/eventos/internal/repository"
	"github.com/mcosta87/eventos/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// ── 1. Connect to PostgreSQL ──────────────────────────────────────────
	pool, err := database.NewPool(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
	logger.Info("connected to postgres", zap.String("db", cfg.DBName))

	// ── 2. Wire up layers ────────────────────────────────────────────────
	eventRepo := repository.NewEventRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool)
	orgRepo := repository.NewOrganizerRepository(pool)

	if err := auth.EnsureOrganizer(ctx, orgRepo, cfg.AdminUsername, cfg.AdminPassword, logger); err != nil {
		logger.Fatal("bootstrap organizer", zap.Error(err))
	}

	var mailer notifier.Notifier
	if cfg.SMTPHost != "" {
		mailer = notifier.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.FromEmail)
	} else {
		mailer = notifier.NewLog(logger)
	}

	eventSvc := service.NewEventService(eventRepo)
	regSvc := service.NewRegistrationService(eventRepo, regRepo, mailer, service.NotificationConfig{
		NotifyOrganizer: cfg.NotifyOrganizer,
		OrganizerEmail:  cfg.OrganizerEmail,
	}, logger)
	rollSvc := service.NewRollService(eventRepo, regRepo)

	eventHandler := handler.NewEventHandler(eventSvc, regSvc, rollSvc, logger)
	authHandler := auth.NewHandler(orgRepo, cfg.JWTSecret, logger)

	// ── 3. Build the router ───────────────────────────────────────────────
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(handler.Logger(logger))  // structured access log
	r.Use(handler.CORS)            // permissive CORS for browser clients

	// Health
	r.Get("/health", handler.HealthCheck)

	// Auth
	r.Post("/auth/login", authHandler.Login)
	r.Post("/auth/logout", authHandler.Logout)

	// API routes
	r.Route("/events", func(r chi.Router) {
		r.Get("/", eventHandler.ListEvents)
		r.Get("/{id}", eventHandler.GetEvent)
		r.Post("/{id}/register", eventHandler.Register)

		// Organizer-only operations
		r.Group(func(r chi.Router) {
			r.Use(authHandler.RequireOrganizer)
			r.Post("/", eventHandler.CreateEvent)
			r.Put("/{id}", eventHandler.UpdateEvent)
			r.Delete("/{id}", eventHandler.DeleteEvent)
			r.Get("/{id}/registrations", eventHandler.ListRegistrations)
			r.Get("/{id}/registrations/export", eventHandler.ExportEventRoll)
		})
	})

	r.Route("/registrations", func(r chi.Router) {
		r.Use(authHandler.RequireOrganizer)
		r.Get("/", eventHandler.SearchRegistrations)
		r.Get("/export", eventHandler.ExportRoll)
	})

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Run in background goroutine so we can listen for shutdown signal.
	go func() {
		logger.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}
