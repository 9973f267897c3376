package x402

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func verifyWith(t *testing.T, handler http.HandlerFunc) VerificationResult {
	t.Helper()

	server := httptest.NewServer(handler)
	defer server.Close()

	client := NewFacilitatorClient(server.URL, 2*time.Second, nil)
	req := BuildRequirement(testAgent(), "text-generation", "0.05", NetworkBaseSepolia)
	return client.Verify(context.Background(), map[string]any{"signature": "0xsig"}, req)
}

func TestVerifyAccepted(t *testing.T) {
	var gotBody map[string]any
	result := verifyWith(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/verify" {
			t.Errorf("expected POST /verify, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode verify request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"valid":        true,
			"payer":        "0xpayer",
			"settlementId": "settle-1",
		})
	})

	if !result.Valid {
		t.Fatalf("expected valid result, got reason %q", result.ErrorReason)
	}
	if result.PayerAddress != "0xpayer" {
		t.Errorf("unexpected payer %q", result.PayerAddress)
	}
	if result.SettlementReference != "settle-1" {
		t.Errorf("unexpected settlement reference %q", result.SettlementReference)
	}
	if _, ok := gotBody["payment"]; !ok {
		t.Errorf("verify request missing payment field: %v", gotBody)
	}
	if _, ok := gotBody["paymentRequirements"]; !ok {
		t.Errorf("verify request missing paymentRequirements field: %v", gotBody)
	}
}

func TestVerifyAcceptedAltFieldNames(t *testing.T) {
	result := verifyWith(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success":         true,
			"transactionHash": "0xhash",
		})
	})

	if !result.Valid {
		t.Fatalf("expected valid result, got reason %q", result.ErrorReason)
	}
	if result.SettlementReference != "0xhash" {
		t.Errorf("expected transactionHash as settlement reference, got %q", result.SettlementReference)
	}
}

func TestVerifyRejectedWithReason(t *testing.T) {
	result := verifyWith(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"isValid":       false,
			"invalidReason": "authorization expired",
		})
	})

	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if result.ErrorReason != "authorization expired" {
		t.Errorf("unexpected reason %q", result.ErrorReason)
	}
}

func TestVerifyRejectedWithoutReason(t *testing.T) {
	result := verifyWith(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"valid": false})
	})

	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if result.ErrorReason != "payment rejected by facilitator" {
		t.Errorf("unexpected reason %q", result.ErrorReason)
	}
}

func TestVerifyNon2xx(t *testing.T) {
	result := verifyWith(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if result.ErrorReason != "facilitator returned status 500" {
		t.Errorf("unexpected reason %q", result.ErrorReason)
	}
}

func TestVerifyMalformedBody(t *testing.T) {
	result := verifyWith(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if result.ErrorReason != "malformed facilitator response" {
		t.Errorf("unexpected reason %q", result.ErrorReason)
	}
}

func TestVerifyUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // nothing is listening anymore

	client := NewFacilitatorClient(server.URL, time.Second, nil)
	req := BuildRequirement(testAgent(), "text-generation", "0.05", NetworkBaseSepolia)
	result := client.Verify(context.Background(), map[string]any{}, req)

	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if result.ErrorReason != "facilitator unreachable" {
		t.Errorf("unexpected reason %q", result.ErrorReason)
	}
}

func TestNewFacilitatorClientDefaults(t *testing.T) {
	t.Setenv("X402_FACILITATOR_URL", "")
	if got := NewFacilitatorClient("", 0, nil).BaseURL(); got != DefaultFacilitatorURL {
		t.Errorf("expected default facilitator URL, got %q", got)
	}

	t.Setenv("X402_FACILITATOR_URL", "http://localhost:9402")
	if got := NewFacilitatorClient("", 0, nil).BaseURL(); got != "http://localhost:9402" {
		t.Errorf("expected env facilitator URL, got %q", got)
	}

	if got := NewFacilitatorClient("http://explicit:1234", 0, nil).BaseURL(); got != "http://explicit:1234" {
		t.Errorf("expected explicit URL to win, got %q", got)
	}
}
