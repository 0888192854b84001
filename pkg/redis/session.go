package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const sessionPrefix = "session:"

// SessionKey is the Redis key holding a live session.
func SessionKey(sessionID uuid.UUID) string {
	return sessionPrefix + sessionID.String()
}

// Sessions records which access-token sessions are live. A token whose
// session key has expired or was deleted is rejected by the auth middleware.
type Sessions struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewSessions(rdb *goredis.Client, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Sessions{rdb: rdb, ttl: ttl}
}

// Create marks the session live for the owner.
func (s *Sessions) Create(ctx context.Context, sessionID, userID uuid.UUID) error {
	if err := s.rdb.Set(ctx, SessionKey(sessionID), userID.String(), s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Active reports whether the session key exists.
func (s *Sessions) Active(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	n, err := s.rdb.Exists(ctx, SessionKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	return n > 0, nil
}

// Revoke deletes the session key and reports whether it was live.
func (s *Sessions) Revoke(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	n, err := s.rdb.Del(ctx, SessionKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("revoke session: %w", err)
	}
	return n > 0, nil
}
