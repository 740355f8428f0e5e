package memory

import (
	"context"
	"sync"
	"time"

	"github.com/alchemorsel/fridgechef/internal/ports/outbound"
)

// sessionItem is a tracked or revoked token with its expiry
type sessionItem struct {
	userID    string
	expiresAt time.Time
}

// SessionStore implements outbound.SessionStore in memory
type SessionStore struct {
	tracked map[string]sessionItem
	revoked map[string]time.Time
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
	mutex   sync.RWMutex
}

// NewSessionStore creates an in-memory session store. Expired entries are
// swept every interval until Close is called.
func NewSessionStore(interval time.Duration) *SessionStore {
	s := &SessionStore{
		tracked: make(map[string]sessionItem),
		revoked: make(map[string]time.Time),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if interval > 0 {
		go s.cleanup(interval)
	}
	return s
}

var _ outbound.SessionStore = (*SessionStore)(nil)

// Track records a freshly issued token
func (s *SessionStore) Track(ctx context.Context, userID, jti string, ttl time.Duration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.tracked[jti] = sessionItem{userID: userID, expiresAt: s.now().Add(ttl)}
	return nil
}

// Revoke marks a token as unusable until ttl has passed
func (s *SessionStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.revoked[jti] = s.now().Add(ttl)
	delete(s.tracked, jti)
	return nil
}

// IsRevoked reports whether jti was revoked and has not expired yet
func (s *SessionStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	expiresAt, exists := s.revoked[jti]
	return exists && s.now().Before(expiresAt), nil
}

// RevokeAll revokes every live token tracked for the user
func (s *SessionStore) RevokeAll(ctx context.Context, userID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for jti, item := range s.tracked {
		if item.userID != userID {
			continue
		}
		s.revoked[jti] = item.expiresAt
		delete(s.tracked, jti)
	}
	return nil
}

// Close stops the sweeper
func (s *SessionStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *SessionStore) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

func (s *SessionStore) sweep() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	for jti, item := range s.tracked {
		if now.After(item.expiresAt) {
			delete(s.tracked, jti)
		}
	}
	for jti, expiresAt := range s.revoked {
		if now.After(expiresAt) {
			delete(s.revoked, jti)
		}
	}
}
