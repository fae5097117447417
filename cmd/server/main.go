// Bengali Appointment Agent - 24/7 voice agent for appointment booking.
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

	"github.com/banglavoice/appointment-agent/internal/agent"
	"github.com/banglavoice/appointment-agent/internal/api"
	"github.com/banglavoice/appointment-agent/internal/config"
	"github.com/banglavoice/appointment-agent/internal/middleware"
	"github.com/banglavoice/appointment-agent/internal/session"
	"github.com/banglavoice/appointment-agent/internal/twilio"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
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

	slog.Info("Bengali Appointment Agent starting up",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"twilio_configured", cfg.TwilioAccountSID != "",
		"gemini_configured", cfg.GeminiAPIKey != "",
		"n8n_webhook", cfg.N8NWebhookURL)

	// Initialize services.
	registry := session.NewRegistry()
	driver := agent.NewDriver(cfg, registry)

	// Initialize handlers.
	inboundHandler := twilio.NewInboundHandler(cfg.PublicDomain)
	streamHandler := twilio.NewStreamHandler(registry, driver)
	apiHandler := api.NewHandler(registry, cfg)

	// Setup router.
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS())

	// Telephony webhook: every incoming call lands here.
	r.Post("/", inboundHandler.ServeHTTP)

	// Media stream socket.
	r.Get("/ws/{call_sid}", streamHandler.ServeHTTP)

	// Monitoring endpoints.
	apiHandler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
		// No write timeout: media sockets stay open for the whole call.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background eviction of ended sessions.
	session.StartSweeper(ctx, registry)

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Ready for 24/7 appointment booking")

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
