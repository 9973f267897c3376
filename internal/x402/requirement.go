package x402

import (
	"fmt"

	"github.com/clawdnet/clawdnet/internal/domain"
)

// DefaultMaxTimeoutSeconds is the authorization validity window offered in
// every challenge.
const DefaultMaxTimeoutSeconds = 300

// BuildRequirement derives the payment requirement for one priced skill. It is
// a pure function of its inputs: identical (agent, skill, price, network)
// always yields an identical Requirement, which keeps repeated 402 challenges
// byte-identical for client retry and caching.
func BuildRequirement(agent *domain.Agent, skill, price, network string) Requirement {
	resolved, asset := AssetFor(network)
	return Requirement{
		Scheme:            "exact",
		Network:           resolved,
		MaxAmountRequired: price,
		Resource:          fmt.Sprintf("/api/agents/%s/invoke", agent.Handle),
		Description:       fmt.Sprintf("Payment for %s skill '%s'", agent.Name, skill),
		MimeType:          "application/json",
		PayTo:             agent.Wallet,
		MaxTimeoutSeconds: DefaultMaxTimeoutSeconds,
		Asset:             asset,
	}
}

// Challenge wraps a requirement in the 402 response body.
func Challenge(req Requirement) PaymentRequired {
	return PaymentRequired{
		Version: ProtocolVersion,
		Accepts: []Requirement{req},
		Error:   "Payment required to invoke this skill",
	}
}
