package api

import (
	"net/http"

	"github.com/clawdnet/clawdnet/internal/server"
)

// registration is one entry in the ERC-8004 discovery document.
type registration struct {
	AgentID       string `json:"agentId"`
	AgentRegistry string `json:"agentRegistry"`
}

// wellKnownDoc is the agent-registration.json shape consumed by domain
// verifiers. The extended agents array carries the marketplace's own view.
type wellKnownDoc struct {
	Registrations []registration   `json:"registrations"`
	Agents        []wellKnownAgent `json:"agents"`
}

type wellKnownAgent struct {
	AgentID     string `json:"agentId"`
	Handle      string `json:"handle"`
	Name        string `json:"name"`
	Endpoint    string `json:"endpoint,omitempty"`
	Wallet      string `json:"agentWallet,omitempty"`
	X402Support bool   `json:"x402Support"`
}

// HandleWellKnown serves GET /.well-known/agent-registration.json listing all
// locally-registered agents for ERC-8004 domain verification.
func (h *Handler) HandleWellKnown(w http.ResponseWriter, r *http.Request) {
	agents, err := h.store.ListAgents(r.Context())
	if err != nil {
		server.AddError(r.Context(), err)
		writeError(w, http.StatusInternalServerError, "Failed to list agents")
		return
	}

	doc := wellKnownDoc{
		Registrations: make([]registration, 0, len(agents)),
		Agents:        make([]wellKnownAgent, 0, len(agents)),
	}
	for _, a := range agents {
		doc.Registrations = append(doc.Registrations, registration{
			AgentID:       a.ID,
			AgentRegistry: h.registry,
		})
		doc.Agents = append(doc.Agents, wellKnownAgent{
			AgentID:     a.ID,
			Handle:      a.Handle,
			Name:        a.Name,
			Endpoint:    a.Endpoint,
			Wallet:      a.Wallet,
			X402Support: a.X402Support,
		})
	}

	writeJSON(w, http.StatusOK, doc)
}
