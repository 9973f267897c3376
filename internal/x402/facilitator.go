package x402

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// DefaultFacilitatorURL is the public testnet facilitator used when no URL is
// configured.
const DefaultFacilitatorURL = "https://x402.org/facilitator"

// DefaultVerifyTimeout bounds a single verification call.
const DefaultVerifyTimeout = 10 * time.Second

// FacilitatorClient verifies payment proofs by delegating to an external
// facilitator service.
type FacilitatorClient struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewFacilitatorClient creates a facilitator client. An empty baseURL falls
// back to the X402_FACILITATOR_URL environment variable, then to the public
// testnet facilitator.
func NewFacilitatorClient(baseURL string, timeout time.Duration, logger *slog.Logger) *FacilitatorClient {
	if baseURL == "" {
		baseURL = os.Getenv("X402_FACILITATOR_URL")
	}
	if baseURL == "" {
		baseURL = DefaultFacilitatorURL
	}
	if timeout <= 0 {
		timeout = DefaultVerifyTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FacilitatorClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  logger,
	}
}

// BaseURL returns the configured facilitator base URL.
func (c *FacilitatorClient) BaseURL() string {
	return c.baseURL
}

// Verify submits a decoded proof and the requirement it must satisfy to the
// facilitator's /verify endpoint. Any transport error, non-2xx response, or
// malformed body yields an invalid result with a reason; Verify never returns
// an error because a facilitator failure must not crash the request.
func (c *FacilitatorClient) Verify(ctx context.Context, proof map[string]any, requirement Requirement) VerificationResult {
	body, err := json.Marshal(verifyRequest{
		Payment:             proof,
		PaymentRequirements: requirement,
	})
	if err != nil {
		return VerificationResult{Valid: false, ErrorReason: fmt.Sprintf("marshal verify request: %v", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return VerificationResult{Valid: false, ErrorReason: fmt.Sprintf("create verify request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("facilitator verify failed", slog.String("error", err.Error()))
		return VerificationResult{Valid: false, ErrorReason: "facilitator unreachable"}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return VerificationResult{Valid: false, ErrorReason: "read facilitator response"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("facilitator verify rejected",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(respBody)),
		)
		return VerificationResult{
			Valid:       false,
			ErrorReason: fmt.Sprintf("facilitator returned status %d", resp.StatusCode),
		}
	}

	var vr verifyResponse
	if err := json.Unmarshal(respBody, &vr); err != nil {
		return VerificationResult{Valid: false, ErrorReason: "malformed facilitator response"}
	}

	if !vr.accepted() {
		reason := vr.reason()
		if reason == "" {
			reason = "payment rejected by facilitator"
		}
		return VerificationResult{Valid: false, ErrorReason: reason}
	}

	return VerificationResult{
		Valid:               true,
		PayerAddress:        vr.Payer,
		SettlementReference: vr.settlementRef(),
	}
}
