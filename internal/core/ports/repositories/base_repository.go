package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager defines methods for database transaction management.
// The engine wraps each write operation in one transaction so that account
// balances, the transaction row, and ledger entries commit together or not
// at all.
type TransactionManager interface {
	// Begin starts a new database transaction with the engine's lock-wait
	// timeout applied.
	Begin(ctx context.Context) (pgx.Tx, error)

	// Commit commits a transaction.
	Commit(ctx context.Context, tx pgx.Tx) error

	// Rollback rolls back a transaction. Safe to call after Commit.
	Rollback(ctx context.Context, tx pgx.Tx) error
}
