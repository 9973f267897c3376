// Package direct provides the in-process event publisher used by
// single-instance deployments.
package direct

import (
	"context"
	"log/slog"

	"github.com/clawdnet/clawdnet/internal/effects"
)

// Publisher implements effects.Publisher by emitting a structured log line.
// This is the default when no external bus is configured.
type Publisher struct {
	logger *slog.Logger
}

// NewPublisher creates a direct publisher.
func NewPublisher(logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{logger: logger}
}

// Publish logs the lifecycle event.
func (p *Publisher) Publish(ctx context.Context, event *effects.Event) error {
	p.logger.Info("invocation event",
		slog.String("type", event.Type),
		slog.String("agent", event.AgentHandle),
		slog.String("skill", event.Skill),
		slog.String("transaction_id", event.TransactionID),
		slog.String("source", event.Source),
		slog.Bool("succeeded", event.Succeeded),
	)
	return nil
}

// Close is a no-op for the direct publisher.
func (p *Publisher) Close() error {
	return nil
}
