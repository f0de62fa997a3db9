package repositories

import (
	"context"
	"time"
)

// IdempotencyKeyStore is the fast-path duplicate-detection store backing the
// idempotency guard: a shared, lock-free set with expiry. It is advisory
// only; the transactions table's unique key constraint stays authoritative.
type IdempotencyKeyStore interface {
	// SetIfAbsent registers key with the given TTL and reports whether the
	// key was newly set (single atomic set-if-absent operation).
	SetIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Exists reports whether key is currently registered.
	Exists(ctx context.Context, key string) (bool, error)

	// Remove deletes key. Explicit cleanup only; expiry handles the rest.
	Remove(ctx context.Context, key string) error

	// TTL returns the remaining lifetime of key, or a negative duration when
	// the key does not exist.
	TTL(ctx context.Context, key string) (time.Duration, error)
}
