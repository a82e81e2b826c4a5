// auth/middleware.go
package auth

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// contextKey is a custom type for context keys.
type contextKey string

// Context keys
const (
	CredentialKey contextKey = "credential"
	EpochKey      contextKey = "epoch"
)

// GetCredential extracts the credential from context.
func GetCredential(ctx context.Context) *Credential {
	cred, _ := ctx.Value(CredentialKey).(*Credential)
	return cred
}

// GetEpoch extracts the credential epoch from context.
func GetEpoch(ctx context.Context) int64 {
	epoch, _ := ctx.Value(EpochKey).(int64)
	return epoch
}

// RequireCredential ensures the request has a usable Bling credential,
// refreshing an expired one in place. Authentication failures answer 401
// with the authorization URL so the presentation layer can show the auth
// prompt; they never reach the wrapped handler.
func RequireCredential(manager *Manager, registry *SessionRegistry, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, state := registry.Session(r)
			if err := session.Save(r, w); err != nil {
				http.Error(w, "Failed to establish session", http.StatusInternalServerError)
				return
			}

			cred, err := manager.ValidCredential(r.Context(), state)
			if err != nil {
				var refreshErr *RefreshError
				if errors.As(err, &refreshErr) {
					logger.Warn("refresh failed, re-authorization required", zap.Error(err))
				}
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error":             "bling authentication required",
					"authorization_url": "/auth/connect",
				})
				return
			}

			ctx := context.WithValue(r.Context(), CredentialKey, cred)
			ctx = context.WithValue(ctx, EpochKey, state.Epoch())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
