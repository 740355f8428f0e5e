// Package user defines the user domain entity
package user

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Domain errors for user operations
var (
	ErrMissingFields   = errors.New("username and password are required")
	ErrUsernameTaken   = errors.New("username already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// MaxPasswordBytes is the longest password bcrypt accepts
const MaxPasswordBytes = 72

// User represents a registered account
type User struct {
	id           string
	username     string
	passwordHash string
	createdAt    time.Time
	updatedAt    time.Time
}

// NewUser creates a new user, hashing the password with the given bcrypt cost.
// The id is assigned by the repository on insert.
func NewUser(username, password string, cost int) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingFields
	}

	hash, err := hashPassword(password, cost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &User{
		username:     username,
		passwordHash: hash,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Rehydrate rebuilds a user from persisted state
func Rehydrate(id, username, passwordHash string, createdAt, updatedAt time.Time) *User {
	return &User{
		id:           id,
		username:     username,
		passwordHash: passwordHash,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// ID returns the user's ID
func (u *User) ID() string {
	return u.id
}

// Username returns the user's unique login name
func (u *User) Username() string {
	return u.username
}

// PasswordHash returns the stored bcrypt hash
func (u *User) PasswordHash() string {
	return u.passwordHash
}

// CreatedAt returns the creation time
func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

// UpdatedAt returns the last modification time
func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}

// AssignID sets the identity chosen by the store
func (u *User) AssignID(id string) {
	u.id = id
}

// CheckPassword compares a plaintext password against the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)) == nil
}

// Rename changes the username
func (u *User) Rename(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrMissingFields
	}
	u.username = username
	u.updatedAt = time.Now()
	return nil
}

// ChangePassword replaces the password after verifying the current one
func (u *User) ChangePassword(current, next string, cost int) error {
	if !u.CheckPassword(current) {
		return ErrInvalidPassword
	}
	if next == "" {
		return ErrMissingFields
	}

	hash, err := hashPassword(next, cost)
	if err != nil {
		return err
	}
	u.passwordHash = hash
	u.updatedAt = time.Now()
	return nil
}

func hashPassword(password string, cost int) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// dummyHash is compared against when a username does not exist so that a
// failed lookup costs as much as a failed password check.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("fridgechef-timing"), bcrypt.DefaultCost)

// CompareDummy burns one bcrypt comparison.
func CompareDummy(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
