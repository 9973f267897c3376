// Package forwarder relays invocations to an agent's real HTTP endpoint.
package forwarder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds one forwarded call.
const DefaultTimeout = 30 * time.Second

// FailureClass categorizes why a forward attempt failed.
type FailureClass string

const (
	FailureAgentError FailureClass = "agent_error"
	FailureTimeout    FailureClass = "timeout"
	FailureNetwork    FailureClass = "network_error"
)

// Error is a classified forward failure.
type Error struct {
	Class      FailureClass
	StatusCode int // set for agent_error
	StatusText string
	Err        error
}

func (e *Error) Error() string {
	switch e.Class {
	case FailureAgentError:
		return fmt.Sprintf("agent endpoint returned %d %s", e.StatusCode, e.StatusText)
	case FailureTimeout:
		return "agent endpoint timed out"
	default:
		return fmt.Sprintf("agent endpoint unreachable: %v", e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Classify extracts the failure class from a forward error, defaulting to
// network_error for unrecognized errors.
func Classify(err error) FailureClass {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Class
	}
	return FailureNetwork
}

// Response is the normalized downstream response. Body is parsed JSON when the
// endpoint returned JSON, otherwise the raw text wrapped as {"text": ...}.
type Response struct {
	Body       map[string]any
	StatusCode int
}

// Forwarder POSTs invocation payloads to real agent endpoints with a bounded
// timeout and platform-identifying headers.
type Forwarder struct {
	client  *http.Client
	timeout time.Duration
}

// New creates a forwarder. A nil client gets a default client; the SSRF-guarded
// transport is injected by the caller in production wiring.
func New(client *http.Client, timeout time.Duration) *Forwarder {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Forwarder{client: client, timeout: timeout}
}

// Forward relays a payload to an endpoint. Headers identify the call as
// platform-forwarded; requestID and callerHandle are propagated when set.
func (f *Forwarder) Forward(ctx context.Context, endpoint string, payload map[string]any, requestID, callerHandle string) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Class: FailureNetwork, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Class: FailureNetwork, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-ClawdNet-Forwarded", "true")
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}
	if callerHandle != "" {
		req.Header.Set("X-Caller-Handle", callerHandle)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, &Error{Class: FailureTimeout, Err: err}
		}
		return nil, &Error{Class: FailureNetwork, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Class: FailureNetwork, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			Class:      FailureAgentError,
			StatusCode: resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
		}
	}

	return &Response{Body: normalizeBody(resp.Header.Get("Content-Type"), raw), StatusCode: resp.StatusCode}, nil
}

func normalizeBody(contentType string, raw []byte) map[string]any {
	if strings.Contains(contentType, "application/json") {
		var parsed map[string]any
		if err := json.Unmarshal(raw, &parsed); err == nil {
			return parsed
		}
	}
	return map[string]any{"text": string(raw)}
}
