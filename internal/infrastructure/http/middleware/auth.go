package middleware

import (
	"context"
	"net/http"

	"github.com/alchemorsel/fridgechef/internal/infrastructure/security"
	"github.com/alchemorsel/fridgechef/pkg/errors"
	"go.uber.org/zap"
)

type contextKey string

const claimsKey contextKey = "session_claims"

// Authenticate requires a valid session cookie. The verified claims are
// stored in the request context.
func (m *Middleware) Authenticate(sessions *security.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := sessions.TokenFromRequest(r)
			if !ok {
				writeError(w, r, errors.NewUnauthorizedError("Unauthorized"))
				return
			}

			claims, err := sessions.Verify(r.Context(), token)
			if err != nil {
				m.logger.Info("Session validation failed",
					zap.Error(err),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, r, errors.NewUnauthorizedError("Unauthorized"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WithClaims stores session claims in ctx
func WithClaims(ctx context.Context, claims *security.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the session claims of an authenticated request
func ClaimsFromContext(ctx context.Context) (*security.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*security.Claims)
	return claims, ok
}

// PrincipalFromContext returns the authenticated principal
func PrincipalFromContext(ctx context.Context) (security.Principal, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return security.Principal{}, false
	}
	return claims.Principal(), true
}
