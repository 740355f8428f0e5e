// Package security issues and verifies session tokens
package security

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alchemorsel/fridgechef/internal/infrastructure/config"
	"github.com/alchemorsel/fridgechef/internal/ports/outbound"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const issuer = "fridgechef"

var (
	// ErrInvalidToken covers malformed, tampered and expired tokens
	ErrInvalidToken = errors.New("invalid session token")
	// ErrTokenRevoked is returned for tokens revoked by logout or account deletion
	ErrTokenRevoked = errors.New("session token has been revoked")
)

// Principal is the identity carried by a session
type Principal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Claims represents the session token claims
type Claims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Principal returns the identity bound into the token
func (c *Claims) Principal() Principal {
	return Principal{ID: c.UserID, Username: c.Username}
}

// SessionManager signs session tokens and moves them in and out of the
// session cookie
type SessionManager struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
	sessions   outbound.SessionStore
	logger     *zap.Logger
	now        func() time.Time
}

// NewSessionManager creates a session manager. Outside production an empty
// secret is replaced by a random one, so sessions do not survive a restart.
func NewSessionManager(cfg *config.Config, sessions outbound.SessionStore, logger *zap.Logger) (*SessionManager, error) {
	logger = logger.Named("sessions")

	secret := []byte(cfg.Auth.JWTSecret)
	if len(secret) == 0 {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("auth.jwt_secret is required in production")
		}
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		logger.Warn("No JWT secret configured, using an ephemeral one")
	}

	ttl := cfg.Auth.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &SessionManager{
		secret:     secret,
		ttl:        ttl,
		cookieName: cfg.Auth.CookieName,
		secure:     cfg.IsProduction(),
		sessions:   sessions,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Issue signs a token for p and tracks it so it can be revoked later
func (m *SessionManager) Issue(ctx context.Context, p Principal) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		UserID:   p.ID,
		Username: p.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	if err := m.sessions.Track(ctx, p.ID, claims.ID, m.ttl); err != nil {
		m.logger.Warn("Failed to track session", zap.String("user_id", p.ID), zap.Error(err))
	}
	return token, claims, nil
}

// Verify parses token and checks its signature, expiry and revocation
func (m *SessionManager) Verify(ctx context.Context, token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	revoked, err := m.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		m.logger.Warn("Failed to check token revocation", zap.Error(err))
	} else if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// Revoke makes the token unusable for the rest of its lifetime
func (m *SessionManager) Revoke(ctx context.Context, claims *Claims) error {
	if claims.ExpiresAt == nil {
		return nil
	}
	remaining := claims.ExpiresAt.Sub(m.now())
	if remaining <= 0 {
		return nil
	}
	return m.sessions.Revoke(ctx, claims.ID, remaining)
}

// SetCookie writes the session cookie
func (m *SessionManager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		Expires:  m.now().Add(m.ttl),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest returns the session token carried by the request cookie
func (m *SessionManager) TokenFromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// CookieName returns the configured cookie name
func (m *SessionManager) CookieName() string {
	return m.cookieName
}
