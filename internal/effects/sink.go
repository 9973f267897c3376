package effects

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/clawdnet/clawdnet/internal/domain"
	"github.com/clawdnet/clawdnet/internal/storage"
)

// Sink fans an invocation outcome out to its non-critical side effects on a
// detached goroutine. Each effect runs with a fresh bounded context so a
// caller disconnect cannot cancel bookkeeping that already has an outcome.
type Sink struct {
	store     storage.Store
	publisher Publisher
	webhooks  *WebhookDispatcher
	logger    *slog.Logger
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewSink creates an effect sink. publisher and webhooks may be nil to disable
// those effects.
func NewSink(store storage.Store, publisher Publisher, webhooks *WebhookDispatcher, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		store:     store,
		publisher: publisher,
		webhooks:  webhooks,
		logger:    logger,
		timeout:   10 * time.Second,
	}
}

// InvocationRecorded fires the side effects for one recorded invocation:
// stat increment, lifecycle event, and the agent's webhook if registered.
// Returns immediately; failures are logged and swallowed.
func (s *Sink) InvocationRecorded(agent *domain.Agent, tx *domain.Transaction, source domain.Source) {
	event := &Event{
		Type:          EventTypeInvocation,
		AgentID:       agent.ID,
		AgentHandle:   agent.Handle,
		Skill:         tx.Skill,
		TransactionID: tx.ID,
		Source:        string(source),
		Succeeded:     tx.Status == domain.TransactionCompleted,
		Timestamp:     time.Now().UTC(),
	}
	webhookURL := agent.WebhookURL

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.store.IncrementAgentStats(ctx, event.AgentID, event.Succeeded); err != nil {
			s.logger.Warn("stat increment failed",
				slog.String("agent", event.AgentHandle),
				slog.String("error", err.Error()),
			)
		}

		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, event); err != nil {
				s.logger.Warn("event publish failed",
					slog.String("agent", event.AgentHandle),
					slog.String("error", err.Error()),
				)
			}
		}

		if s.webhooks != nil && webhookURL != "" {
			if err := s.webhooks.Dispatch(ctx, webhookURL, event); err != nil {
				s.logger.Warn("webhook delivery failed",
					slog.String("agent", event.AgentHandle),
					slog.String("url", webhookURL),
					slog.String("error", err.Error()),
				)
			}
		}
	}()
}

// Wait blocks until all in-flight effects finish. Used by shutdown and tests.
func (s *Sink) Wait() {
	s.wg.Wait()
}
