package middleware

import (
	"context"
	"net/http"

	"github.com/englishassessment/backend/internal/identity"
	"go.uber.org/zap"
)

// TokenVerifier defines the interface for bearer token verification
type TokenVerifier interface {
	// Verify validates a raw bearer token and returns the caller it identifies.
	// Returns an error wrapping models.ErrUnauthenticated when the token is not acceptable.
	Verify(ctx context.Context, token string) (*identity.Identity, error)
}

// Auth verifies the bearer token and stores the caller's identity in the request context
func Auth(verifier TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := identity.ExtractBearerToken(r.Header.Get("Authorization"))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			id, err := verifier.Verify(r.Context(), token)
			if err != nil {
				logger.Debug("token rejected",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// GetIdentity retrieves the verified caller from context
func GetIdentity(ctx context.Context) (*identity.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*identity.Identity)
	return id, ok && id != nil
}

// WithIdentity returns a copy of ctx carrying id
func WithIdentity(ctx context.Context, id *identity.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}
