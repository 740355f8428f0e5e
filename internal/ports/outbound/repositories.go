// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"io"
	"time"

	"github.com/alchemorsel/fridgechef/internal/domain/recipe"
	"github.com/alchemorsel/fridgechef/internal/domain/user"
)

// RecipeRepository defines the interface for saved recipe persistence.
// Every operation is scoped to the owning user.
type RecipeRepository interface {
	// Save inserts the recipe and fills in its id and timestamps.
	// Returns recipe.ErrRecipeAlreadySaved when the owner already saved that external id.
	Save(ctx context.Context, r *recipe.SavedRecipe) error

	// ListByOwner returns the owner's recipes, newest first
	ListByOwner(ctx context.Context, ownerID string) ([]*recipe.SavedRecipe, error)

	// Search returns the owner's recipes whose title, summary or any
	// ingredient name contains query, ignoring case. Newest first.
	Search(ctx context.Context, ownerID, query string) ([]*recipe.SavedRecipe, error)

	// FindByID returns recipe.ErrRecipeNotFound for missing and foreign records alike
	FindByID(ctx context.Context, ownerID, id string) (*recipe.SavedRecipe, error)
	Delete(ctx context.Context, ownerID, id string) error

	// DeleteByOwner removes every recipe of the owner and reports how many went
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create assigns the user id. Returns user.ErrUsernameTaken on a duplicate name.
	Create(ctx context.Context, u *user.User) error
	Update(ctx context.Context, u *user.User) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*user.User, error)
	FindByUsername(ctx context.Context, username string) (*user.User, error)
}

// SessionStore keeps track of issued session tokens so they can be revoked
// before they expire.
type SessionStore interface {
	// Track records that token jti belongs to the user
	Track(ctx context.Context, userID, jti string, ttl time.Duration) error
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// RevokeAll revokes every tracked token of the user
	RevokeAll(ctx context.Context, userID string) error
}

// ChatRequest is the body forwarded to the recipe suggestion backend
type ChatRequest struct {
	Message     string `json:"message,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

// ChatBackend opens a streamed chat turn against the upstream suggestion service
type ChatBackend interface {
	// Stream returns the NDJSON response body. The caller must close it.
	Stream(ctx context.Context, req ChatRequest) (io.ReadCloser, error)
	// Ping checks the backend is reachable
	Ping(ctx context.Context) error
}

// MetricsRecorder receives application level counters
type MetricsRecorder interface {
	RecordChatEvent(eventType string)
	RecordChatTurn(outcome string)
	RecordRecipeSaved()
}
