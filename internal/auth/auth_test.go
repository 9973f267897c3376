package auth

import (
	"net/http/httptest"
	"testing"
)

func TestValidateAPIKey(t *testing.T) {
	key := "sk-clawdnet-test"
	a := NewAuthenticator([]string{HashAPIKey(key), HashAPIKey("another")})

	hash, err := a.ValidateAPIKey(key)
	if err != nil {
		t.Fatalf("ValidateAPIKey failed: %v", err)
	}
	if hash != HashAPIKey(key) {
		t.Errorf("returned hash does not match")
	}

	if _, err := a.ValidateAPIKey("wrong"); err == nil {
		t.Errorf("expected rejection for unknown key")
	}
}

func TestExtractAPIKey(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/agents", nil)
	r.Header.Set("Authorization", "Bearer my-key")

	key, err := ExtractAPIKey(r)
	if err != nil {
		t.Fatalf("ExtractAPIKey failed: %v", err)
	}
	if key != "my-key" {
		t.Errorf("expected my-key, got %q", key)
	}
}

func TestExtractAPIKeyErrors(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"no scheme", "just-a-token"},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/agents", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if _, err := ExtractAPIKey(r); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestHashAPIKey(t *testing.T) {
	hash := HashAPIKey("some-key")
	if len(hash) != 64 {
		t.Errorf("expected 64-char hex hash, got %d chars", len(hash))
	}
	if hash != HashAPIKey("some-key") {
		t.Errorf("hash must be deterministic")
	}
	if hash == HashAPIKey("other-key") {
		t.Errorf("distinct keys must hash differently")
	}
}
