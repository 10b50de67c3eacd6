package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

type contextKey string

const (
	AnalystKey contextKey = "analyst"
	APIKeyKey  contextKey = "api_key"
)

// DefaultAnalyst is attributed to unauthenticated requests; auth is optional
// when no keys are configured.
const DefaultAnalyst = "web_user"

// APIKeyAuth validates API key from Authorization header. validKeys maps
// analyst id to key. With an empty map every request passes as DefaultAnalyst.
func APIKeyAuth(validKeys map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(validKeys) == 0 || r.URL.Path == "/health" || r.URL.Path == "/ready" {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				http.Error(w, "missing Authorization header", http.StatusUnauthorized)
				return
			}

			// Support both "Bearer <key>" and "<key>" formats
			apiKey := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if apiKey == "" {
				http.Error(w, "invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			// Constant-time comparison to prevent timing attacks
			valid := false
			var analyst string
			for a, key := range validKeys {
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
					valid = true
					analyst = a
					break
				}
			}
			if !valid {
				http.Error(w, "invalid API key", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), AnalystKey, analyst)
			ctx = context.WithValue(ctx, APIKeyKey, apiKey)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAnalystFromContext extracts the authenticated analyst id, falling back
// to DefaultAnalyst.
func GetAnalystFromContext(ctx context.Context) string {
	if analyst, ok := ctx.Value(AnalystKey).(string); ok && analyst != "" {
		return analyst
	}
	return DefaultAnalyst
}
