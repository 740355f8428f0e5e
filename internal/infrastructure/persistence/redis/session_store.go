// Package redis provides the Redis-backed session store
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alchemorsel/fridgechef/internal/infrastructure/config"
	"github.com/alchemorsel/fridgechef/internal/ports/outbound"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "fridgechef:session:"

// SessionStore implements outbound.SessionStore. A live token is kept under
// its jti with the user id as value and indexed in a per-user set. Revoked
// tokens get their own key that expires together with the token.
type SessionStore struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// NewClient builds a client from configuration and checks the connection
func NewClient(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (redis.UniversalClient, error) {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        []string{cfg.Addr()},
		Password:     cfg.Password,
		DB:           cfg.Database,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  10 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", cfg.Addr()), zap.Int("db", cfg.Database))
	return client, nil
}

// NewSessionStore creates a session store on client
func NewSessionStore(client redis.UniversalClient, logger *zap.Logger) *SessionStore {
	return &SessionStore{client: client, logger: logger.Named("session-store")}
}

var _ outbound.SessionStore = (*SessionStore)(nil)

func liveKey(jti string) string    { return keyPrefix + "live:" + jti }
func revokedKey(jti string) string { return keyPrefix + "revoked:" + jti }
func userKey(userID string) string { return keyPrefix + "user:" + userID }

// Track records a freshly issued token
func (s *SessionStore) Track(ctx context.Context, userID, jti string, ttl time.Duration) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, liveKey(jti), userID, ttl)
		pipe.SAdd(ctx, userKey(userID), jti)
		pipe.Expire(ctx, userKey(userID), ttl)
		return nil
	})
	if err != nil {
		s.logger.Error("Session track failed", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

// Revoke marks a token as unusable until ttl has passed
func (s *SessionStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, revokedKey(jti), 1, ttl)
		pipe.Del(ctx, liveKey(jti))
		return nil
	})
	if err != nil {
		s.logger.Error("Session revoke failed", zap.Error(err))
		return err
	}
	return nil
}

// IsRevoked reports whether jti was revoked and has not expired yet
func (s *SessionStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		s.logger.Error("Session lookup failed", zap.Error(err))
		return false, err
	}
	return n > 0, nil
}

// RevokeAll revokes every live token tracked for the user, keeping each
// revocation only as long as the token would have lived
func (s *SessionStore) RevokeAll(ctx context.Context, userID string) error {
	jtis, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		s.logger.Error("Session list failed", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	for _, jti := range jtis {
		ttl, err := s.client.PTTL(ctx, liveKey(jti)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if ttl <= 0 {
			continue
		}
		if err := s.Revoke(ctx, jti, ttl); err != nil {
			return err
		}
	}

	if err := s.client.Del(ctx, userKey(userID)).Err(); err != nil {
		s.logger.Error("Session index cleanup failed", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}
