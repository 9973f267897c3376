package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clawdnet/clawdnet/internal/domain"
	"github.com/clawdnet/clawdnet/internal/server"
	"github.com/clawdnet/clawdnet/internal/storage"
)

// registerRequest is the agent registration body.
type registerRequest struct {
	Handle      string         `json:"handle"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Endpoint    string         `json:"endpoint"`
	Wallet      string         `json:"agentWallet"`
	X402Support bool           `json:"x402Support"`
	Skills      []domain.Skill `json:"skills"`
	WebhookURL  string         `json:"webhookUrl"`
}

// HandleRegisterAgent creates a new agent registration.
func (h *Handler) HandleRegisterAgent(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Handle == "" || body.Name == "" {
		writeError(w, http.StatusBadRequest, "handle and name are required")
		return
	}

	agent := &domain.Agent{
		ID:           uuid.New().String(),
		Handle:       body.Handle,
		Name:         body.Name,
		Description:  body.Description,
		Endpoint:     body.Endpoint,
		Status:       domain.StatusOnline,
		Wallet:       body.Wallet,
		X402Support:  body.X402Support,
		Skills:       body.Skills,
		WebhookURL:   body.WebhookURL,
		OwnerKeyHash: server.GetOwnerKeyHash(r.Context()),
	}

	if err := h.store.CreateAgent(r.Context(), agent); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			writeError(w, http.StatusConflict, "Handle already registered")
			return
		}
		server.AddError(r.Context(), err)
		writeError(w, http.StatusInternalServerError, "Failed to register agent")
		return
	}

	writeJSON(w, http.StatusCreated, agent)
}

// HandleListAgents lists all registered agents.
func (h *Handler) HandleListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.store.ListAgents(r.Context())
	if err != nil {
		server.AddError(r.Context(), err)
		writeError(w, http.StatusInternalServerError, "Failed to list agents")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": agents})
}

// HandleGetAgent returns one agent by handle.
func (h *Handler) HandleGetAgent(w http.ResponseWriter, r *http.Request) {
	agent, err := h.store.GetAgentByHandle(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Agent not found")
			return
		}
		server.AddError(r.Context(), err)
		writeError(w, http.StatusInternalServerError, "Failed to load agent")
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

// updateRequest carries the PATCH fields; nil pointers mean "unchanged".
type updateRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Endpoint    *string         `json:"endpoint"`
	Status      *string         `json:"status"`
	Wallet      *string         `json:"agentWallet"`
	X402Support *bool           `json:"x402Support"`
	Skills      *[]domain.Skill `json:"skills"`
	WebhookURL  *string         `json:"webhookUrl"`
}

// HandleUpdateAgent patches a registration. Only the registering key may
// mutate it.
func (h *Handler) HandleUpdateAgent(w http.ResponseWriter, r *http.Request) {
	agent, err := h.store.GetAgentByHandle(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Agent not found")
			return
		}
		server.AddError(r.Context(), err)
		writeError(w, http.StatusInternalServerError, "Failed to load agent")
		return
	}

	if owner := server.GetOwnerKeyHash(r.Context()); owner != "" && agent.OwnerKeyHash != "" && owner != agent.OwnerKeyHash {
		writeError(w, http.StatusForbidden, "Not the registering key for this agent")
		return
	}

	var body updateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if body.Name != nil {
		agent.Name = *body.Name
	}
	if body.Description != nil {
		agent.Description = *body.Description
	}
	if body.Endpoint != nil {
		agent.Endpoint = *body.Endpoint
	}
	if body.Status != nil {
		status := domain.AgentStatus(*body.Status)
		switch status {
		case domain.StatusOnline, domain.StatusBusy, domain.StatusOffline:
			agent.Status = status
		default:
			writeError(w, http.StatusBadRequest, "status must be online, busy, or offline")
			return
		}
	}
	if body.Wallet != nil {
		agent.Wallet = *body.Wallet
	}
	if body.X402Support != nil {
		agent.X402Support = *body.X402Support
	}
	if body.Skills != nil {
		agent.Skills = *body.Skills
	}
	if body.WebhookURL != nil {
		agent.WebhookURL = *body.WebhookURL
	}

	if err := h.store.UpdateAgent(r.Context(), agent); err != nil {
		server.AddError(r.Context(), err)
		writeError(w, http.StatusInternalServerError, "Failed to update agent")
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

// HandleListTransactions returns an agent's recorded invocation attempts,
// newest first.
func (h *Handler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	agent, err := h.store.GetAgentByHandle(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Agent not found")
			return
		}
		server.AddError(r.Context(), err)
		writeError(w, http.StatusInternalServerError, "Failed to load agent")
		return
	}

	txs, err := h.store.ListTransactionsByAgent(r.Context(), agent.ID, 50)
	if err != nil {
		server.AddError(r.Context(), err)
		writeError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}
