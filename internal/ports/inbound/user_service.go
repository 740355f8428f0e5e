package inbound

import (
	"context"
	"time"
)

// UserService defines account management use cases
type UserService interface {
	Register(ctx context.Context, cmd CredentialsCommand) (*UserDTO, error)
	Authenticate(ctx context.Context, cmd CredentialsCommand) (*UserDTO, error)
	GetByID(ctx context.Context, id string) (*UserDTO, error)
	GetByUsername(ctx context.Context, username string) (*UserDTO, error)
	UpdateUsername(ctx context.Context, id, username string) (*UserDTO, error)
	ChangePassword(ctx context.Context, id string, cmd ChangePasswordCommand) error
	// Delete removes the account together with its recipes and sessions
	Delete(ctx context.Context, id string) error
}

// CredentialsCommand carries a username and password for signup and login
type CredentialsCommand struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePasswordCommand for password updates
type ChangePasswordCommand struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// UserDTO is the public view of an account
type UserDTO struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}
