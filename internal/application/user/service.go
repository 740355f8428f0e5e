// Package user provides the application layer for user management
package user

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/alchemorsel/fridgechef/internal/domain/user"
	"github.com/alchemorsel/fridgechef/internal/ports/inbound"
	"github.com/alchemorsel/fridgechef/internal/ports/outbound"
	"github.com/alchemorsel/fridgechef/pkg/errors"
	"go.uber.org/zap"
)

// UserService implements user management use cases
type UserService struct {
	userRepo   outbound.UserRepository
	recipeRepo outbound.RecipeRepository
	sessions   outbound.SessionStore
	bcryptCost int
	logger     *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo outbound.UserRepository,
	recipeRepo outbound.RecipeRepository,
	sessions outbound.SessionStore,
	bcryptCost int,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		recipeRepo: recipeRepo,
		sessions:   sessions,
		bcryptCost: bcryptCost,
		logger:     logger.Named("user-service"),
	}
}

var _ inbound.UserService = (*UserService)(nil)

// Register creates a new user account
func (s *UserService) Register(ctx context.Context, cmd inbound.CredentialsCommand) (*inbound.UserDTO, error) {
	s.logger.Info("Registering new user", zap.String("username", cmd.Username))

	newUser, err := user.NewUser(cmd.Username, cmd.Password, s.bcryptCost)
	if err != nil {
		if stderrors.Is(err, user.ErrMissingFields) {
			return nil, errors.NewValidationError("Missing fields").WithCause(err)
		}
		if stderrors.Is(err, user.ErrPasswordTooLong) {
			return nil, errors.NewValidationError("Password too long").WithCause(err)
		}
		return nil, errors.Wrap(err, "failed to create user")
	}

	if err := s.userRepo.Create(ctx, newUser); err != nil {
		if stderrors.Is(err, user.ErrUsernameTaken) {
			return nil, errors.NewUsernameAlreadyExistsError(newUser.Username())
		}
		return nil, errors.NewDatabaseError("create user", err)
	}

	s.logger.Info("User registered successfully",
		zap.String("user_id", newUser.ID()),
		zap.String("username", newUser.Username()),
	)
	return toDTO(newUser), nil
}

// Authenticate checks a username and password and returns the principal.
// Unknown users and wrong passwords fail the same way.
func (s *UserService) Authenticate(ctx context.Context, cmd inbound.CredentialsCommand) (*inbound.UserDTO, error) {
	username := strings.TrimSpace(cmd.Username)
	if username == "" || cmd.Password == "" {
		return nil, errors.NewInvalidCredentialsError()
	}

	found, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if !stderrors.Is(err, user.ErrUserNotFound) {
			return nil, errors.NewDatabaseError("find user", err)
		}
		user.CompareDummy(cmd.Password)
		s.logger.Warn("Login attempt for unknown user", zap.String("username", username))
		return nil, errors.NewInvalidCredentialsError()
	}

	if !found.CheckPassword(cmd.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("username", username))
		return nil, errors.NewInvalidCredentialsError()
	}

	s.logger.Info("User authenticated", zap.String("user_id", found.ID()))
	return toDTO(found), nil
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, id string) (*inbound.UserDTO, error) {
	found, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDTO(found), nil
}

// GetByUsername retrieves a user by username
func (s *UserService) GetByUsername(ctx context.Context, username string) (*inbound.UserDTO, error) {
	found, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if stderrors.Is(err, user.ErrUserNotFound) {
			return nil, errors.NewUserNotFoundError(username)
		}
		return nil, errors.NewDatabaseError("find user", err)
	}
	return toDTO(found), nil
}

// UpdateUsername renames the account
func (s *UserService) UpdateUsername(ctx context.Context, id, username string) (*inbound.UserDTO, error) {
	found, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := found.Rename(username); err != nil {
		return nil, errors.NewValidationError("Username is required").WithCause(err)
	}

	if err := s.userRepo.Update(ctx, found); err != nil {
		if stderrors.Is(err, user.ErrUsernameTaken) {
			return nil, errors.NewUsernameAlreadyExistsError(found.Username())
		}
		return nil, errors.NewDatabaseError("update user", err)
	}

	s.logger.Info("Username changed",
		zap.String("user_id", id),
		zap.String("username", found.Username()),
	)
	return toDTO(found), nil
}

// ChangePassword changes user password after verifying the current one
func (s *UserService) ChangePassword(ctx context.Context, id string, cmd inbound.ChangePasswordCommand) error {
	found, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if err := found.ChangePassword(cmd.CurrentPassword, cmd.NewPassword, s.bcryptCost); err != nil {
		switch {
		case stderrors.Is(err, user.ErrInvalidPassword):
			return errors.NewUnauthorizedError("Current password is incorrect")
		case stderrors.Is(err, user.ErrMissingFields):
			return errors.NewValidationError("New password is required")
		case stderrors.Is(err, user.ErrPasswordTooLong):
			return errors.NewValidationError("Password too long").WithCause(err)
		default:
			return errors.Wrap(err, "failed to update password")
		}
	}

	if err := s.userRepo.Update(ctx, found); err != nil {
		return errors.NewDatabaseError("save password", err)
	}

	s.logger.Info("User password changed", zap.String("user_id", id))
	return nil
}

// Delete removes the account, its saved recipes and every live session
func (s *UserService) Delete(ctx context.Context, id string) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	removed, err := s.recipeRepo.DeleteByOwner(ctx, id)
	if err != nil {
		return errors.NewDatabaseError("delete user recipes", err)
	}

	if err := s.sessions.RevokeAll(ctx, id); err != nil {
		return errors.NewDatabaseError("revoke sessions", err)
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		if stderrors.Is(err, user.ErrUserNotFound) {
			return errors.NewUserNotFoundError(id)
		}
		return errors.NewDatabaseError("delete user", err)
	}

	s.logger.Info("User deleted",
		zap.String("user_id", id),
		zap.Int64("recipes_removed", removed),
	)
	return nil
}

func (s *UserService) find(ctx context.Context, id string) (*user.User, error) {
	found, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, user.ErrUserNotFound) {
			return nil, errors.NewUserNotFoundError(id)
		}
		return nil, errors.NewDatabaseError("find user", err)
	}
	return found, nil
}

func toDTO(u *user.User) *inbound.UserDTO {
	return &inbound.UserDTO{
		ID:        u.ID(),
		Username:  u.Username(),
		CreatedAt: u.CreatedAt(),
	}
}
