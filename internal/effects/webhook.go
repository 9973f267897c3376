package effects

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookDispatcher delivers invocation events to agent-registered webhook
// URLs. Delivery is best-effort with a small bounded retry.
type WebhookDispatcher struct {
	client  *http.Client
	retries int
}

// NewWebhookDispatcher creates a dispatcher with a bounded per-attempt timeout.
func NewWebhookDispatcher(timeout time.Duration, retries int) *WebhookDispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	return &WebhookDispatcher{
		client:  &http.Client{Timeout: timeout},
		retries: retries,
	}
}

// Dispatch POSTs the event to url, retrying on failure up to the configured
// count. The last error is returned for logging; callers never propagate it.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, url string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal webhook event: %w", err)
	}

	var lastErr error
	attempts := d.retries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = d.doRequest(ctx, url, body)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	return lastErr
}

func (d *WebhookDispatcher) doRequest(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-ClawdNet-Event", EventTypeInvocation)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
