// Package effects runs the non-critical side effects of an invocation: stat
// increments, webhook delivery, and lifecycle event publishing. Effects are
// attempted once, logged on failure, and never block or fail the request that
// spawned them.
package effects

import (
	"context"
	"time"
)

// Event is the invocation lifecycle event handed to publishers and webhooks.
type Event struct {
	Type          string    `json:"type"`
	AgentID       string    `json:"agentId"`
	AgentHandle   string    `json:"agentHandle"`
	Skill         string    `json:"skill"`
	TransactionID string    `json:"transactionId"`
	Source        string    `json:"source"`
	Succeeded     bool      `json:"succeeded"`
	Timestamp     time.Time `json:"timestamp"`
}

// EventTypeInvocation marks a completed (or failed) invocation attempt.
const EventTypeInvocation = "agent.invocation"

// Publisher delivers lifecycle events to interested parties.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}
