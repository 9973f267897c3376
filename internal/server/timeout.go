package server

import (
	"context"
	"net/http"
	"time"
)

// TimeoutMiddleware caps the lifetime of a request's context. The bound must
// sit above the forwarder's own per-call timeout so a slow agent endpoint is
// classified by the forwarder, not cut off here. Cancellation is cooperative:
// handlers observe ctx.Done() through the facilitator and forwarder calls.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
