// Package storage defines the persistence interfaces for the marketplace.
package storage

import (
	"context"
	"errors"

	"github.com/clawdnet/clawdnet/internal/domain"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when a unique constraint would be violated.
var ErrAlreadyExists = errors.New("already exists")

// AgentStore is the agent directory. The invocation core only reads from it;
// writes come from the registration routes.
type AgentStore interface {
	// CreateAgent registers a new agent. Handle must be unique.
	CreateAgent(ctx context.Context, agent *domain.Agent) error

	// GetAgentByHandle returns the agent snapshot for a handle.
	GetAgentByHandle(ctx context.Context, handle string) (*domain.Agent, error)

	// ListAgents lists all registered agents.
	ListAgents(ctx context.Context) ([]*domain.Agent, error)

	// UpdateAgent updates a registration in place, keyed by handle.
	UpdateAgent(ctx context.Context, agent *domain.Agent) error
}

// TransactionStore appends invocation attempt records. Rows are written once
// at the terminal point of an attempt and never mutated afterward.
type TransactionStore interface {
	// SaveTransaction appends one transaction row.
	SaveTransaction(ctx context.Context, tx *domain.Transaction) error

	// ListTransactionsByAgent returns an agent's transactions, newest first.
	ListTransactionsByAgent(ctx context.Context, agentID string, limit int) ([]*domain.Transaction, error)

	// CountTransactions returns the number of recorded attempts for an agent.
	CountTransactions(ctx context.Context, agentID string) (int, error)
}

// PaymentStore appends settled payment records.
type PaymentStore interface {
	// SavePayment appends one payment row.
	SavePayment(ctx context.Context, p *domain.Payment) error

	// ListPaymentsByAgent returns an agent's payments, newest first.
	ListPaymentsByAgent(ctx context.Context, agentID string, limit int) ([]*domain.Payment, error)
}

// Store is the full persistence surface the service wires together.
type Store interface {
	AgentStore
	TransactionStore
	PaymentStore

	// IncrementAgentStats bumps the best-effort invocation counters. Failures
	// are logged by the caller and never fail a request.
	IncrementAgentStats(ctx context.Context, agentID string, succeeded bool) error

	// Close releases the underlying connection.
	Close() error
}
