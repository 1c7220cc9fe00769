package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore marks sessions ended by logout or forced expiry.
// Key format: revoked:<username> → unix timestamp of the revocation.
// Tokens issued at or before that instant are rejected by the auth
// middleware; the key expires together with the longest-lived token.
type RevocationStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRevocationStore creates a RevocationStore. ttl should match the JWT
// lifetime so revocation marks outlive every token they invalidate.
func NewRevocationStore(client *redis.Client, ttl time.Duration) *RevocationStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RevocationStore{client: client, ttl: ttl}
}

// Revoke records that all of username's tokens issued up to now are invalid.
func (s *RevocationStore) Revoke(ctx context.Context, username string) error {
	now := time.Now().Unix()
	if err := s.client.Set(ctx, s.key(username), strconv.FormatInt(now, 10), s.ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokedAt returns the revocation instant for username, if any.
func (s *RevocationStore) RevokedAt(ctx context.Context, username string) (time.Time, bool, error) {
	val, err := s.client.Get(ctx, s.key(username)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("revocation check: %w", err)
	}
	ts, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("revocation check: bad value %q", val)
	}
	return time.Unix(ts, 0), true, nil
}

func (s *RevocationStore) key(username string) string {
	return "revoked:" + username
}
