package handlers

import (
	"net/http"

	"github.com/alchemorsel/fridgechef/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/fridgechef/internal/infrastructure/security"
	"github.com/alchemorsel/fridgechef/internal/ports/inbound"
	"github.com/alchemorsel/fridgechef/pkg/errors"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AuthHandlers handles signup, login and the session cookie
type AuthHandlers struct {
	responder
	userService inbound.UserService
	sessions    *security.SessionManager
	requireAuth func(http.Handler) http.Handler
}

// NewAuthHandlers creates a new authentication handlers instance
func NewAuthHandlers(
	userService inbound.UserService,
	sessions *security.SessionManager,
	mw *middleware.Middleware,
	logger *zap.Logger,
) *AuthHandlers {
	return &AuthHandlers{
		responder:   newResponder(logger.Named("auth-handlers")),
		userService: userService,
		sessions:    sessions,
		requireAuth: mw.Authenticate(sessions),
	}
}

// credentialsRequest is the signup and login body
type credentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the public part of an account
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func newUserResponse(u *inbound.UserDTO) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username}
}

// Routes mounts the auth endpoints. Only /session needs a cookie.
func (h *AuthHandlers) Routes(r chi.Router) {
	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.With(h.requireAuth).Get("/session", h.Session)
}

// Signup handles POST /api/v1/auth/signup
func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if appErr := h.decode(w, r, &req, maxJSONBody); appErr != nil {
		h.writeError(w, r, withMessage(appErr, "Missing fields"))
		return
	}

	created, err := h.userService.Register(r.Context(), inbound.CredentialsCommand{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User created",
		"user":    newUserResponse(created),
	})
}

// Login handles POST /api/v1/auth/login. Missing fields are reported as bad
// credentials so the form leaks nothing about which part was wrong.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if appErr := h.decode(w, r, &req, maxJSONBody); appErr != nil {
		if appErr.Code == errors.CodeValidationFailed {
			appErr = errors.NewInvalidCredentialsError()
		}
		h.writeError(w, r, appErr)
		return
	}

	found, err := h.userService.Authenticate(r.Context(), inbound.CredentialsCommand{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := startSession(r, w, h.sessions, found); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("User logged in", zap.String("user_id", found.ID))
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Successfully logged in",
		"user":    newUserResponse(found),
	})
}

// Logout handles POST /api/v1/auth/logout. The cookie is cleared even when
// the token was already invalid.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := h.sessions.TokenFromRequest(r); ok {
		if claims, err := h.sessions.Verify(r.Context(), token); err == nil {
			if err := h.sessions.Revoke(r.Context(), claims); err != nil {
				h.writeError(w, r, errors.NewDatabaseError("revoke session", err))
				return
			}
			h.logger.Info("User logged out", zap.String("user_id", claims.UserID))
		}
	}

	h.sessions.ClearCookie(w)
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Session handles GET /api/v1/auth/session. The user is read back from the
// store so a deleted or renamed account is reflected at once.
func (h *AuthHandlers) Session(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.writeError(w, r, errors.NewUnauthorizedError("Unauthorized"))
		return
	}

	found, err := h.userService.GetByID(r.Context(), principal.ID)
	if err != nil {
		if errors.Is(err, errors.CodeUserNotFound) {
			err = errors.NewUnauthorizedError("Unauthorized")
		}
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"user": newUserResponse(found)})
}

// startSession issues a token for u and sets it as the session cookie
func startSession(r *http.Request, w http.ResponseWriter, sessions *security.SessionManager, u *inbound.UserDTO) error {
	token, _, err := sessions.Issue(r.Context(), security.Principal{ID: u.ID, Username: u.Username})
	if err != nil {
		return errors.Wrap(err, "failed to issue session")
	}
	sessions.SetCookie(w, token)
	return nil
}
