// Package router wires the HTTP surface: webhook endpoints, health, metrics,
// and the token-protected admin console routes.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/NiveshSarthi/RealNex-sub001/internal/conversation"
	"github.com/NiveshSarthi/RealNex-sub001/internal/http/handlers"
	httpmiddleware "github.com/NiveshSarthi/RealNex-sub001/internal/http/middleware"
	"github.com/NiveshSarthi/RealNex-sub001/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger         *logging.Logger
	WebhookHandler *conversation.Handler
	MetricsHandler http.Handler

	// Admin console (optional)
	AdminTranscripts *handlers.AdminTranscriptsHandler
	AdminToken       string
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)

	if cfg.WebhookHandler != nil {
		r.Route("/webhooks/whatsapp", func(r chi.Router) {
			r.Get("/", cfg.WebhookHandler.Verify)
			r.Post("/", cfg.WebhookHandler.Receive)
		})
	}

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.AdminTranscripts != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(requireAdminToken(cfg.AdminToken))
			admin.Get("/conversations/{contactID}", cfg.AdminTranscripts.GetConversation)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
