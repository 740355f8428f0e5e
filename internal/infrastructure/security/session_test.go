package security

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alchemorsel/fridgechef/internal/infrastructure/config"
	"github.com/alchemorsel/fridgechef/internal/infrastructure/persistence/memory"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

// SessionManagerTestSuite provides a test suite for SessionManager
type SessionManagerTestSuite struct {
	suite.Suite
	config   *config.Config
	store    *memory.SessionStore
	manager  *SessionManager
	now      time.Time
	ctx      context.Context
	alice    Principal
}

func (suite *SessionManagerTestSuite) SetupTest() {
	suite.config = &config.Config{
		App: config.AppConfig{Environment: "test"},
		Auth: config.AuthConfig{
			JWTSecret:  "test-secret-key-for-testing-only-32-bytes",
			SessionTTL: 24 * time.Hour,
			CookieName: "fridgechef_session",
		},
	}
	suite.store = memory.NewSessionStore(0)

	manager, err := NewSessionManager(suite.config, suite.store, zap.NewNop())
	require.NoError(suite.T(), err)
	suite.now = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return suite.now }
	suite.manager = manager

	suite.ctx = context.Background()
	suite.alice = Principal{ID: "64b7f0c2a1b2c3d4e5f60901", Username: "alice"}
}

func (suite *SessionManagerTestSuite) TestIssueAndVerify() {
	suite.Run("Issue_ShouldBindPrincipal", func() {
		// Act
		token, claims, err := suite.manager.Issue(suite.ctx, suite.alice)

		// Assert
		require.NoError(suite.T(), err)
		assert.Len(suite.T(), strings.Split(token, "."), 3)
		assert.NotEmpty(suite.T(), claims.ID)
		assert.Equal(suite.T(), suite.now.Add(24*time.Hour).Unix(), claims.ExpiresAt.Unix())

		verified, err := suite.manager.Verify(suite.ctx, token)
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), suite.alice, verified.Principal())
	})

	suite.Run("Expired_ShouldBeRejected", func() {
		token, _, err := suite.manager.Issue(suite.ctx, suite.alice)
		require.NoError(suite.T(), err)

		suite.now = suite.now.Add(25 * time.Hour)
		_, err = suite.manager.Verify(suite.ctx, token)

		assert.ErrorIs(suite.T(), err, ErrInvalidToken)
	})

	suite.Run("Tampered_ShouldBeRejected", func() {
		token, _, err := suite.manager.Issue(suite.ctx, suite.alice)
		require.NoError(suite.T(), err)

		_, err = suite.manager.Verify(suite.ctx, token[:len(token)-2]+"xx")

		assert.ErrorIs(suite.T(), err, ErrInvalidToken)
	})

	suite.Run("OtherSecret_ShouldBeRejected", func() {
		claims := &Claims{UserID: "x", RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer}}
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("another-secret"))
		require.NoError(suite.T(), err)

		_, err = suite.manager.Verify(suite.ctx, forged)

		assert.ErrorIs(suite.T(), err, ErrInvalidToken)
	})

	suite.Run("NoneAlgorithm_ShouldBeRejected", func() {
		claims := &Claims{UserID: "x", RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer}}
		forged, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(suite.T(), err)

		_, err = suite.manager.Verify(suite.ctx, forged)

		assert.ErrorIs(suite.T(), err, ErrInvalidToken)
	})
}

func (suite *SessionManagerTestSuite) TestRevocation() {
	suite.Run("Revoke_ShouldRejectToken", func() {
		// Arrange
		token, claims, err := suite.manager.Issue(suite.ctx, suite.alice)
		require.NoError(suite.T(), err)

		// Act
		require.NoError(suite.T(), suite.manager.Revoke(suite.ctx, claims))

		// Assert
		_, err = suite.manager.Verify(suite.ctx, token)
		assert.ErrorIs(suite.T(), err, ErrTokenRevoked)
	})

	suite.Run("RevokeAll_ShouldRejectEveryUserToken", func() {
		first, _, err := suite.manager.Issue(suite.ctx, suite.alice)
		require.NoError(suite.T(), err)
		second, _, err := suite.manager.Issue(suite.ctx, suite.alice)
		require.NoError(suite.T(), err)

		require.NoError(suite.T(), suite.store.RevokeAll(suite.ctx, suite.alice.ID))

		for _, token := range []string{first, second} {
			_, err := suite.manager.Verify(suite.ctx, token)
			assert.ErrorIs(suite.T(), err, ErrTokenRevoked)
		}
	})
}

func (suite *SessionManagerTestSuite) TestCookies() {
	suite.Run("SetCookie_ShouldBeHTTPOnlyLax", func() {
		rec := httptest.NewRecorder()

		suite.manager.SetCookie(rec, "token-value")

		cookies := rec.Result().Cookies()
		require.Len(suite.T(), cookies, 1)
		c := cookies[0]
		assert.Equal(suite.T(), "fridgechef_session", c.Name)
		assert.Equal(suite.T(), "token-value", c.Value)
		assert.True(suite.T(), c.HttpOnly)
		assert.False(suite.T(), c.Secure)
		assert.Equal(suite.T(), http.SameSiteLaxMode, c.SameSite)
		assert.Equal(suite.T(), 86400, c.MaxAge)
	})

	suite.Run("ClearCookie_ShouldExpire", func() {
		rec := httptest.NewRecorder()

		suite.manager.ClearCookie(rec)

		cookies := rec.Result().Cookies()
		require.Len(suite.T(), cookies, 1)
		assert.Equal(suite.T(), -1, cookies[0].MaxAge)
	})

	suite.Run("TokenFromRequest_ShouldReadCookie", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "fridgechef_session", Value: "abc"})

		token, ok := suite.manager.TokenFromRequest(req)

		assert.True(suite.T(), ok)
		assert.Equal(suite.T(), "abc", token)

		_, ok = suite.manager.TokenFromRequest(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.False(suite.T(), ok)
	})
}

func TestNewSessionManager(t *testing.T) {
	t.Run("production requires a secret", func(t *testing.T) {
		cfg := &config.Config{App: config.AppConfig{Environment: "production"}}

		_, err := NewSessionManager(cfg, memory.NewSessionStore(0), zap.NewNop())

		assert.Error(t, err)
	})

	t.Run("production marks cookies secure", func(t *testing.T) {
		cfg := &config.Config{
			App:  config.AppConfig{Environment: "production"},
			Auth: config.AuthConfig{JWTSecret: "s3cret", CookieName: "sid"},
		}

		m, err := NewSessionManager(cfg, memory.NewSessionStore(0), zap.NewNop())
		require.NoError(t, err)
		rec := httptest.NewRecorder()
		m.SetCookie(rec, "v")

		assert.True(t, rec.Result().Cookies()[0].Secure)
	})

	t.Run("development falls back to an ephemeral secret", func(t *testing.T) {
		cfg := &config.Config{App: config.AppConfig{Environment: "development"}}

		m, err := NewSessionManager(cfg, memory.NewSessionStore(0), zap.NewNop())

		require.NoError(t, err)
		assert.Len(t, m.secret, 32)
		assert.Equal(t, 24*time.Hour, m.ttl)
	})
}

func TestSessionManagerTestSuite(t *testing.T) {
	suite.Run(t, new(SessionManagerTestSuite))
}
