package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/alchemorsel/fridgechef/internal/domain/user"
	"github.com/alchemorsel/fridgechef/internal/ports/outbound"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository implements outbound.UserRepository in memory
type UserRepository struct {
	users      map[string]*user.User
	byUsername map[string]string
	mutex      sync.RWMutex
}

// NewUserRepository creates a new in-memory user repository
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:      make(map[string]*user.User),
		byUsername: make(map[string]string),
	}
}

var _ outbound.UserRepository = (*UserRepository)(nil)

// Create stores a new user and assigns its id
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	key := u.Username()
	if _, taken := r.byUsername[key]; taken {
		return user.ErrUsernameTaken
	}

	u.AssignID(primitive.NewObjectID().Hex())
	r.users[u.ID()] = snapshot(u)
	r.byUsername[key] = u.ID()
	return nil
}

// Update replaces the stored user, moving the username index when it changed
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	current, exists := r.users[u.ID()]
	if !exists {
		return user.ErrUserNotFound
	}

	oldKey, newKey := current.Username(), u.Username()
	if oldKey != newKey {
		if owner, taken := r.byUsername[newKey]; taken && owner != u.ID() {
			return user.ErrUsernameTaken
		}
		delete(r.byUsername, oldKey)
		r.byUsername[newKey] = u.ID()
	}

	r.users[u.ID()] = snapshot(u)
	return nil
}

// Delete removes a user
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	current, exists := r.users[id]
	if !exists {
		return user.ErrUserNotFound
	}
	delete(r.byUsername, current.Username())
	delete(r.users, id)
	return nil
}

// FindByID looks a user up by id
func (r *UserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	u, exists := r.users[id]
	if !exists {
		return nil, user.ErrUserNotFound
	}
	return snapshot(u), nil
}

// FindByUsername looks a user up by username
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	id, exists := r.byUsername[strings.TrimSpace(username)]
	if !exists {
		return nil, user.ErrUserNotFound
	}
	return snapshot(r.users[id]), nil
}

func snapshot(u *user.User) *user.User {
	return user.Rehydrate(u.ID(), u.Username(), u.PasswordHash(), u.CreatedAt(), u.UpdatedAt())
}
