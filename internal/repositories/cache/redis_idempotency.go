// Package cache provides the Redis-backed advisory idempotency key store.
package cache

import (
	"context"
	"fmt"
	"time"

	portsrepo "github.com/finacore/bankledger/internal/core/ports/repositories"
	"github.com/redis/go-redis/v9"
)

const idempotencyKeyPrefix = "idempotency:"

// RedisIdempotencyStore tracks in-flight idempotency keys in Redis. It is an
// advisory fast-path only; the database unique constraint remains the
// authority on duplicates.
type RedisIdempotencyStore struct {
	client *redis.Client
}

func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

var _ portsrepo.IdempotencyKeyStore = (*RedisIdempotencyStore)(nil)

// SetIfAbsent registers a key if no other caller holds it. It reports true
// when the key was newly claimed.
func (s *RedisIdempotencyStore) SetIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, idempotencyKeyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to register idempotency key: %w", err)
	}
	return ok, nil
}

// Exists reports whether a key is currently registered.
func (s *RedisIdempotencyStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, idempotencyKeyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	return n > 0, nil
}

// Remove releases a key so the same request may be retried immediately.
func (s *RedisIdempotencyStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, idempotencyKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to remove idempotency key: %w", err)
	}
	return nil
}

// TTL returns the remaining lifetime of a registered key.
func (s *RedisIdempotencyStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, idempotencyKeyPrefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read idempotency key ttl: %w", err)
	}
	return ttl, nil
}
