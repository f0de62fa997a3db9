package services

import (
	"context"
	"log/slog"
	"time"

	portsrepo "github.com/finacore/bankledger/internal/core/ports/repositories"
	portssvc "github.com/finacore/bankledger/internal/core/ports/services"
	"github.com/finacore/bankledger/internal/middleware"
)

// idempotencyRetention is how long a registered key blocks duplicates on the
// fast path. The database unique constraint has no expiry and stays the
// ultimate authority.
const idempotencyRetention = 24 * time.Hour

// idempotencyService is the advisory duplicate check in front of the engine.
// Fail-open: when the key store is unreachable the request proceeds and a
// true duplicate is caught by the transactions unique key constraint instead.
type idempotencyService struct {
	store portsrepo.IdempotencyKeyStore
}

// NewIdempotencyService creates the idempotency guard over a key store.
func NewIdempotencyService(store portsrepo.IdempotencyKeyStore) portssvc.IdempotencyGuard {
	return &idempotencyService{store: store}
}

var _ portssvc.IdempotencyGuard = (*idempotencyService)(nil)

// TryRegister registers the key and reports whether it was newly seen.
// Returns true on store errors.
func (s *idempotencyService) TryRegister(ctx context.Context, key string) bool {
	registered, err := s.store.SetIfAbsent(ctx, key, idempotencyRetention)
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Idempotency key store unreachable, failing open",
			slog.String("key", key), slog.String("error", err.Error()))
		return true
	}
	if !registered {
		middleware.GetLoggerFromCtx(ctx).Warn("Duplicate idempotency key detected", slog.String("key", key))
	}
	return registered
}

// Exists reports whether the key is registered. Diagnostics only; returns
// false on store errors.
func (s *idempotencyService) Exists(ctx context.Context, key string) bool {
	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Failed to check idempotency key",
			slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	return exists
}

// Remove releases the key so a retry of the same request is not blocked for
// the full retention window. Errors are logged, not returned: removal never
// affects correctness.
func (s *idempotencyService) Remove(ctx context.Context, key string) {
	if err := s.store.Remove(ctx, key); err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Failed to remove idempotency key",
			slog.String("key", key), slog.String("error", err.Error()))
	}
}

// NopGuard admits every request. Used when no key store is configured; the
// unique constraint on idempotency keys still rejects true duplicates.
type NopGuard struct{}

var _ portssvc.IdempotencyGuard = NopGuard{}

func (NopGuard) TryRegister(context.Context, string) bool { return true }
func (NopGuard) Exists(context.Context, string) bool      { return false }
func (NopGuard) Remove(context.Context, string)           {}
