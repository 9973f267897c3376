package server

import (
	"context"
	"net/http"

	"github.com/clawdnet/clawdnet/internal/auth"
)

// ownerKeyHashKey is the context key for the authenticated owner's key hash.
type ownerKeyHashKey struct{}

// AuthMiddleware validates API keys for the registration mutation routes and
// injects the owner key hash into the context. The hash is what agent
// registrations are keyed to.
func AuthMiddleware(authenticator *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey, err := auth.ExtractAPIKey(r)
			if err != nil {
				http.Error(w, "Missing or malformed Authorization header", http.StatusUnauthorized)
				return
			}

			keyHash, err := authenticator.ValidateAPIKey(apiKey)
			if err != nil {
				http.Error(w, "Invalid API key", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ownerKeyHashKey{}, keyHash)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetOwnerKeyHash retrieves the authenticated owner's key hash from context.
// Returns an empty string outside authenticated routes.
func GetOwnerKeyHash(ctx context.Context) string {
	if h, ok := ctx.Value(ownerKeyHashKey{}).(string); ok {
		return h
	}
	return ""
}
