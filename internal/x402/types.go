// Package x402 implements the HTTP 402 payment challenge and facilitator
// verification used to gate priced skill invocations.
package x402

// ProtocolVersion is the x402 payload version spoken on the wire.
const ProtocolVersion = "1"

// Requirement defines a single acceptable payment option. It is an element in
// the "accepts" array of a PaymentRequired challenge.
type Requirement struct {
	// Scheme is the payment scheme identifier. Only "exact" is issued.
	Scheme string `json:"scheme"`

	// Network is the blockchain network in CAIP-2 form (e.g. "eip155:84532").
	Network string `json:"network"`

	// MaxAmountRequired is the skill price as a decimal USDC string.
	MaxAmountRequired string `json:"maxAmountRequired"`

	// Resource is the invoke path being paid for.
	Resource string `json:"resource"`

	// Description names the agent and skill for human display.
	Description string `json:"description"`

	// MimeType is the content type of the paid resource.
	MimeType string `json:"mimeType"`

	// PayTo is the agent's payout wallet address.
	PayTo string `json:"payTo"`

	// MaxTimeoutSeconds is the validity window for a payment authorization.
	MaxTimeoutSeconds int `json:"maxTimeoutSeconds"`

	// Asset is the payment token contract address on Network.
	Asset string `json:"asset"`
}

// PaymentRequired is the 402 response body. Two calls for the same
// (agent, skill) must produce byte-identical Accepts entries so clients can
// cache and retry against the challenge.
type PaymentRequired struct {
	Version string        `json:"version"`
	Accepts []Requirement `json:"accepts"`
	Error   string        `json:"error,omitempty"`
}

// VerificationResult is the normalized facilitator verdict. It is never
// persisted directly, only folded into Transaction/Payment records.
type VerificationResult struct {
	Valid               bool
	PayerAddress        string
	SettlementReference string
	ErrorReason         string
}

// verifyRequest is the body POSTed to the facilitator /verify endpoint.
type verifyRequest struct {
	Payment             map[string]any `json:"payment"`
	PaymentRequirements Requirement    `json:"paymentRequirements"`
}

// verifyResponse tolerates the facilitator API's non-uniform field naming:
// acceptance arrives as valid, isValid, or success, and the settlement
// reference as settlementId, transactionHash, or transaction.
type verifyResponse struct {
	Valid           *bool  `json:"valid"`
	IsValid         *bool  `json:"isValid"`
	Success         *bool  `json:"success"`
	Payer           string `json:"payer"`
	SettlementID    string `json:"settlementId"`
	TransactionHash string `json:"transactionHash"`
	Transaction     string `json:"transaction"`
	InvalidReason   string `json:"invalidReason"`
	ErrorReason     string `json:"errorReason"`
	Error           string `json:"error"`
}

func (r *verifyResponse) accepted() bool {
	for _, b := range []*bool{r.Valid, r.IsValid, r.Success} {
		if b != nil && *b {
			return true
		}
	}
	return false
}

func (r *verifyResponse) settlementRef() string {
	switch {
	case r.SettlementID != "":
		return r.SettlementID
	case r.TransactionHash != "":
		return r.TransactionHash
	default:
		return r.Transaction
	}
}

func (r *verifyResponse) reason() string {
	switch {
	case r.InvalidReason != "":
		return r.InvalidReason
	case r.ErrorReason != "":
		return r.ErrorReason
	default:
		return r.Error
	}
}
