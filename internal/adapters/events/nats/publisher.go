// Package nats publishes invocation lifecycle events to a NATS bus so other
// marketplace instances (feed builders, stat aggregators) can consume them.
package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/clawdnet/clawdnet/internal/effects"
)

// SubjectPrefix is the subject namespace for invocation events. The agent
// handle is appended per event: clawdnet.invocations.<handle>.
const SubjectPrefix = "clawdnet.invocations"

// Publisher implements effects.Publisher over a NATS connection.
type Publisher struct {
	nc *nats.Conn
}

// NewPublisher connects to the NATS server at url.
func NewPublisher(url string) (*Publisher, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &Publisher{nc: nc}, nil
}

// Publish sends the event as JSON on the agent's invocation subject.
func (p *Publisher) Publish(ctx context.Context, event *effects.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	subject := fmt.Sprintf("%s.%s", SubjectPrefix, event.AgentHandle)
	return p.nc.Publish(subject, payload)
}

// Close drains and closes the connection.
func (p *Publisher) Close() error {
	return p.nc.Drain()
}
