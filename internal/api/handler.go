// Package api provides the JSON monitoring endpoints for the agent.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/banglavoice/appointment-agent/internal/config"
	"github.com/banglavoice/appointment-agent/internal/session"
	"github.com/go-chi/chi/v5"
)

// Handler serves the health, sessions and banner endpoints.
type Handler struct {
	registry *session.Registry
	cfg      *config.Config
}

// NewHandler creates a new Handler.
func NewHandler(registry *session.Registry, cfg *config.Config) *Handler {
	return &Handler{registry: registry, cfg: cfg}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// RegisterRoutes registers the monitoring routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/sessions", h.Sessions)
}

// Root returns the service banner.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"service":      "Bengali Appointment Agent",
		"status":       "running",
		"active_calls": h.registry.Len(),
		"description":  "24/7 Bengali voice agent for appointment booking",
	})
}

// Health reports process health and which external services are configured.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	active := h.registry.Len()
	slog.Debug("Health check", "active_calls", active)

	JSON(w, http.StatusOK, map[string]interface{}{
		"status":       "healthy",
		"active_calls": active,
		"services": map[string]bool{
			"twilio": h.cfg.TwilioAccountSID != "" && h.cfg.TwilioAuthToken != "",
			"gemini": h.cfg.GeminiAPIKey != "",
			"n8n":    h.cfg.N8NWebhookURL != "",
		},
		"environment": h.cfg.Environment,
	})
}

// Sessions lists redacted snapshots of every active session.
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	snapshots := h.registry.Snapshot()
	JSON(w, http.StatusOK, map[string]interface{}{
		"active_sessions": len(snapshots),
		"sessions":        snapshots,
	})
}
