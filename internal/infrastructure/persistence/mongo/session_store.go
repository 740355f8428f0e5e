package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alchemorsel/fridgechef/internal/ports/outbound"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SessionStore implements outbound.SessionStore on the sessions
// collection. The TTL index on expiresAt removes stale documents.
type SessionStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewSessionStore creates a session store
func NewSessionStore(cm *ConnectionManager) *SessionStore {
	return &SessionStore{coll: cm.Sessions(), now: time.Now}
}

var _ outbound.SessionStore = (*SessionStore)(nil)

// Track records a freshly issued token
func (s *SessionStore) Track(ctx context.Context, userID, jti string, ttl time.Duration) error {
	doc := SessionDocument{JTI: jti, UserID: userID, ExpiresAt: s.now().Add(ttl).UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": jti}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to track session: %w", err)
	}
	return nil
}

// Revoke marks a token as unusable until ttl has passed
func (s *SessionStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	update := bson.M{"$set": bson.M{
		"revoked":   true,
		"expiresAt": s.now().Add(ttl).UTC(),
	}}
	_, err := s.coll.UpdateByID(ctx, jti, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// IsRevoked reports whether jti was revoked and has not expired yet. The
// TTL monitor runs about once a minute so expiry is checked here as well.
func (s *SessionStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var doc SessionDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": jti, "revoked": true}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up session: %w", err)
	}
	return s.now().Before(doc.ExpiresAt), nil
}

// RevokeAll revokes every token tracked for the user
func (s *SessionStore) RevokeAll(ctx context.Context, userID string) error {
	_, err := s.coll.UpdateMany(ctx,
		bson.M{"userId": userID, "revoked": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"revoked": true}})
	if err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return nil
}
