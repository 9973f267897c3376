// Package domain provides the canonical types shared by the invocation pipeline.
package domain

import (
	"strings"
	"time"
)

// AgentStatus is the directory-reported availability of an agent.
type AgentStatus string

const (
	StatusOnline  AgentStatus = "online"
	StatusBusy    AgentStatus = "busy"
	StatusOffline AgentStatus = "offline"
)

// Skill is a named capability an agent exposes, each with an independent price.
// Price is a decimal string denominated in USDC; "0" or "" means free.
type Skill struct {
	Name        string `json:"name"`
	Price       string `json:"price,omitempty"`
	Description string `json:"description,omitempty"`
}

// Agent is the normalized agent snapshot read at invocation time.
// All downstream pipeline states consume this shape, never raw storage rows.
type Agent struct {
	ID          string      `json:"id"`
	Handle      string      `json:"handle"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Endpoint    string      `json:"endpoint,omitempty"`
	Status      AgentStatus `json:"status"`
	Wallet      string      `json:"agentWallet,omitempty"`
	X402Support bool        `json:"x402Support"`
	Skills      []Skill     `json:"skills,omitempty"`
	WebhookURL  string      `json:"webhookUrl,omitempty"`

	// OwnerKeyHash is the SHA-256 hash of the API key allowed to mutate this
	// registration. Never serialized to clients.
	OwnerKeyHash string `json:"-"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// placeholder endpoint values left by registrations that have not deployed yet
var placeholderEndpoints = map[string]bool{
	"pending":     true,
	"placeholder": true,
	"tbd":         true,
}

// HasRealEndpoint reports whether the agent has a forwardable endpoint.
// Empty strings, known placeholders, and non-HTTP values do not count.
func (a *Agent) HasRealEndpoint() bool {
	ep := strings.TrimSpace(a.Endpoint)
	if ep == "" || placeholderEndpoints[strings.ToLower(ep)] {
		return false
	}
	return strings.HasPrefix(ep, "http://") || strings.HasPrefix(ep, "https://")
}

// PriceFor returns the configured price for a skill, or "0" when the skill is
// unknown or unpriced.
func (a *Agent) PriceFor(skill string) string {
	for _, s := range a.Skills {
		if s.Name == skill {
			if s.Price == "" {
				return "0"
			}
			return s.Price
		}
	}
	return "0"
}

// Invokable reports whether the directory status permits invocation.
// Only offline blocks; busy agents are still invokable.
func (a *Agent) Invokable() bool {
	return a.Status != StatusOffline
}
