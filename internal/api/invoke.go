package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clawdnet/clawdnet/internal/domain"
	"github.com/clawdnet/clawdnet/internal/server"
)

// invokeRequest is the invoke endpoint's body shape.
type invokeRequest struct {
	Skill   string         `json:"skill"`
	Input   map[string]any `json:"input"`
	Message string         `json:"message"`
	Payment map[string]any `json:"payment"`
}

// HandleInvoke runs the invocation pipeline for POST /api/agents/{handle}/invoke.
func (h *Handler) HandleInvoke(w http.ResponseWriter, r *http.Request) {
	// Top-level catch: anything unexpected becomes a generic 500 with the
	// internals only in the server log.
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("invoke panicked",
				slog.String("request_id", server.GetRequestID(r.Context())),
				slog.Any("panic", rec),
			)
			writeError(w, http.StatusInternalServerError, "Failed to invoke agent")
		}
	}()

	var body invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Skill == "" {
		writeError(w, http.StatusBadRequest, "skill is required")
		return
	}

	input := body.Input
	if input == nil {
		input = map[string]any{}
	}
	if body.Message != "" {
		input["message"] = body.Message
	}

	req := &domain.InvocationRequest{
		AgentHandle:  chi.URLParam(r, "handle"),
		Skill:        body.Skill,
		Input:        input,
		Proof:        extractProof(r, body.Payment),
		CallerHandle: r.Header.Get("X-Caller-Handle"),
	}

	outcome, invokeErr := h.orchestrator.Invoke(r.Context(), req)
	if invokeErr != nil {
		server.AddError(r.Context(), invokeErr)
		writeInvokeError(w, invokeErr)
		return
	}

	if outcome.Challenge != nil {
		w.Header().Set("X-PAYMENT-REQUIRED", "true")
		writeJSON(w, http.StatusPaymentRequired, outcome.Challenge)
		return
	}

	server.AddLogField(r.Context(), "source", string(outcome.Result.Source))
	writeJSON(w, http.StatusOK, outcome.Result)
}

// extractProof pulls the payment proof from the headers or the body field.
// Headers win; X-PAYMENT and x-payment are the same header to net/http.
func extractProof(r *http.Request, bodyPayment map[string]any) string {
	if v := r.Header.Get("X-Payment"); v != "" {
		return v
	}
	if v := r.Header.Get("Payment-Signature"); v != "" {
		return v
	}
	if len(bodyPayment) > 0 {
		raw, err := json.Marshal(bodyPayment)
		if err == nil {
			return string(raw)
		}
	}
	return ""
}
