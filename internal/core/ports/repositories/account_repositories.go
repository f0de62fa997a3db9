package repositories

import (
	"context"

	"github.com/finacore/bankledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// AccountReader defines read operations for account data.
type AccountReader interface {
	// FindAccountByID retrieves an account without locking it.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
}

// AccountWriter defines write operations for account data.
type AccountWriter interface {
	// SaveAccount inserts a new account.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccountStatus transitions an account's lifecycle status.
	UpdateAccountStatus(ctx context.Context, accountID string, status domain.AccountStatus) error
}

// AccountLocker exposes the exclusive-lock-acquire-by-id primitive the
// orchestrator builds its mutual exclusion on. Both methods must be called
// inside a database transaction; the lock is held until commit or rollback.
type AccountLocker interface {
	// FindAccountByIDForUpdate retrieves an account and takes an exclusive
	// row lock on it, blocking until the lock is granted or the transaction's
	// lock-wait timeout expires (apperrors.ErrLockTimeout).
	FindAccountByIDForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Account, error)

	// UpdateAccountBalanceInTx persists a locked account's new balance.
	UpdateAccountBalanceInTx(ctx context.Context, tx pgx.Tx, account domain.Account) error
}

// AccountRepositoryFacade combines all account repository interfaces.
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	AccountLocker
}
