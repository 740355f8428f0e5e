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

// AccountHandlers lets a signed-in user manage their own account
type AccountHandlers struct {
	responder
	userService inbound.UserService
	sessions    *security.SessionManager
}

// NewAccountHandlers creates a new account handlers instance
func NewAccountHandlers(userService inbound.UserService, sessions *security.SessionManager, logger *zap.Logger) *AccountHandlers {
	return &AccountHandlers{
		responder:   newResponder(logger.Named("account-handlers")),
		userService: userService,
		sessions:    sessions,
	}
}

type renameRequest struct {
	Username string `json:"username" validate:"required"`
}

// Routes mounts the account endpoints under an authenticated router
func (h *AccountHandlers) Routes(r chi.Router) {
	r.Patch("/username", h.UpdateUsername)
	r.Put("/password", h.ChangePassword)
	r.Delete("/", h.DeleteAccount)
}

// UpdateUsername handles PATCH /api/v1/account/username. The session is
// reissued so the cookie carries the new name.
func (h *AccountHandlers) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		h.writeError(w, r, errors.NewUnauthorizedError("Unauthorized"))
		return
	}

	var req renameRequest
	if appErr := h.decode(w, r, &req, maxJSONBody); appErr != nil {
		h.writeError(w, r, withMessage(appErr, "Username is required"))
		return
	}

	updated, err := h.userService.UpdateUsername(r.Context(), claims.UserID, req.Username)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.sessions.Revoke(r.Context(), claims); err != nil {
		h.logger.Warn("Failed to revoke renamed session", zap.String("user_id", claims.UserID), zap.Error(err))
	}
	if err := startSession(r, w, h.sessions, updated); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Username updated",
		"user":    newUserResponse(updated),
	})
}

// ChangePassword handles PUT /api/v1/account/password
func (h *AccountHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.writeError(w, r, errors.NewUnauthorizedError("Unauthorized"))
		return
	}

	var cmd inbound.ChangePasswordCommand
	if appErr := h.decode(w, r, &cmd, maxJSONBody); appErr != nil {
		h.writeError(w, r, appErr)
		return
	}

	if err := h.userService.ChangePassword(r.Context(), principal.ID, cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

// DeleteAccount handles DELETE /api/v1/account. Recipes and sessions go with
// the account.
func (h *AccountHandlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.writeError(w, r, errors.NewUnauthorizedError("Unauthorized"))
		return
	}

	if err := h.userService.Delete(r.Context(), principal.ID); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.sessions.ClearCookie(w)
	h.logger.Info("Account deleted", zap.String("user_id", principal.ID))
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}
