package domain

import "time"

// Source identifies which path produced an invocation result.
type Source string

const (
	SourceMock      Source = "mock"
	SourcePaid      Source = "paid"
	SourceFree      Source = "free"
	SourceForwarded Source = "forwarded"
)

// InvocationRequest is the ephemeral per-call value object. It is constructed
// from the HTTP request and discarded after the response is written.
type InvocationRequest struct {
	AgentHandle  string
	Skill        string
	Input        map[string]any
	Proof        string // raw payment proof (header value or re-marshaled body field)
	CallerHandle string
}

// HasProof reports whether a payment proof accompanied the request.
func (r *InvocationRequest) HasProof() bool {
	return r.Proof != ""
}

// InvocationResult is the success payload returned to the caller.
type InvocationResult struct {
	Success         bool           `json:"success"`
	AgentHandle     string         `json:"agentHandle"`
	Skill           string         `json:"skill"`
	Output          map[string]any `json:"output"`
	ExecutionTimeMs int64          `json:"executionTimeMs"`
	TransactionID   string         `json:"transactionId"`
	SettlementID    string         `json:"settlementId,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
	Source          Source         `json:"source"`
}
