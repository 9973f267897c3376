// Package api exposes the marketplace HTTP surface: the invoke endpoint, the
// agent directory routes, and the well-known discovery document.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clawdnet/clawdnet/internal/auth"
	"github.com/clawdnet/clawdnet/internal/domain"
	"github.com/clawdnet/clawdnet/internal/invoke"
	"github.com/clawdnet/clawdnet/internal/server"
	"github.com/clawdnet/clawdnet/internal/storage"
)

// Handler serves the marketplace routes.
type Handler struct {
	store        storage.Store
	orchestrator *invoke.Orchestrator
	registry     string // ERC-8004 registry identifier for the discovery doc
	logger       *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(store storage.Store, orchestrator *invoke.Orchestrator, registry string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:        store,
		orchestrator: orchestrator,
		registry:     registry,
		logger:       logger,
	}
}

// Mount registers all routes. Mutations go behind the API-key middleware when
// an authenticator is configured.
func (h *Handler) Mount(r *chi.Mux, authenticator *auth.Authenticator) {
	r.Get("/healthz", h.HandleHealth)
	r.Get("/.well-known/agent-registration.json", h.HandleWellKnown)

	r.Route("/api/agents", func(r chi.Router) {
		r.Get("/", h.HandleListAgents)
		r.Get("/{handle}", h.HandleGetAgent)
		r.Get("/{handle}/transactions", h.HandleListTransactions)
		r.Post("/{handle}/invoke", h.HandleInvoke)

		if authenticator != nil {
			r.Group(func(r chi.Router) {
				r.Use(server.AuthMiddleware(authenticator))
				r.Post("/", h.HandleRegisterAgent)
				r.Patch("/{handle}", h.HandleUpdateAgent)
			})
		} else {
			r.Post("/", h.HandleRegisterAgent)
			r.Patch("/{handle}", h.HandleUpdateAgent)
		}
	})
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeInvokeError maps the pipeline error taxonomy onto the response table.
func writeInvokeError(w http.ResponseWriter, err *domain.InvokeError) {
	body := map[string]any{"error": err.Message}
	if err.Details != nil {
		body["details"] = err.Details
	}
	writeJSON(w, err.HTTPStatusCode(), body)
}
