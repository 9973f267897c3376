package domain

import "time"

// TransactionStatus is the terminal state of an invocation attempt.
type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// Transaction is the immutable record of one invocation attempt. Exactly one
// row is written at the terminal point of the attempt; past rows are never
// mutated except the status+error flip when a forward attempt fails.
type Transaction struct {
	ID              string            `json:"id"`
	AgentID         string            `json:"agentId"`
	Skill           string            `json:"skill"`
	Input           map[string]any    `json:"input,omitempty"`
	Output          map[string]any    `json:"output,omitempty"`
	Status          TransactionStatus `json:"status"`
	ExecutionTimeMs int64             `json:"executionTimeMs"`
	ErrorMessage    string            `json:"errorMessage,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	CompletedAt     *time.Time        `json:"completedAt,omitempty"`
}

// PaymentStatus is the settlement state of a payment record.
type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentPending   PaymentStatus = "pending"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment records a settled x402 payment. A Transaction has zero or one
// Payment; the linkage lives in the metadata, not a foreign key.
type Payment struct {
	ID         string            `json:"id"`
	ToAgentID  string            `json:"toAgentId"`
	Amount     string            `json:"amount"`
	Currency   string            `json:"currency"`
	Status     PaymentStatus     `json:"status"`
	ExternalID string            `json:"externalId"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}
