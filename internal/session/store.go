package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store tracks active session tokens so logout can revoke them before
// the JWT expiry. A nil *Store is valid and makes every token that parses
// count as active (stateless fallback when Redis is not configured).
type Store struct {
	redis *redis.Client
}

// NewStore creates a session store backed by Redis.
func NewStore(redisClient *redis.Client) *Store {
	if redisClient == nil {
		return nil
	}
	return &Store{redis: redisClient}
}

func (s *Store) key(tokenID string) string {
	return fmt.Sprintf("session:%s", tokenID)
}

// Register records a freshly issued token as active for ttl.
func (s *Store) Register(ctx context.Context, sess Session, ttl time.Duration) error {
	if s == nil {
		return nil
	}
	if err := s.redis.Set(ctx, s.key(sess.TokenID), sess.UserID, ttl).Err(); err != nil {
		return fmt.Errorf("session: register: %w", err)
	}
	return nil
}

// Active reports whether the token has been registered and not revoked.
func (s *Store) Active(ctx context.Context, tokenID string) (bool, error) {
	if s == nil {
		return true, nil
	}
	_, err := s.redis.Get(ctx, s.key(tokenID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("session: lookup: %w", err)
	}
	return true, nil
}

// Revoke removes the token, ending the session.
func (s *Store) Revoke(ctx context.Context, tokenID string) error {
	if s == nil {
		return nil
	}
	if err := s.redis.Del(ctx, s.key(tokenID)).Err(); err != nil {
		return fmt.Errorf("session: revoke: %w", err)
	}
	return nil
}
