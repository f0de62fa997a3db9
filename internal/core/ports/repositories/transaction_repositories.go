package repositories

import (
	"context"

	"github.com/finacore/bankledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// TransactionReader defines read operations for transaction records.
type TransactionReader interface {
	// FindTransactionByID retrieves a single transaction.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// FindTransactionByIdempotencyKey retrieves the transaction registered
	// under the given idempotency key, or apperrors.ErrNotFound.
	FindTransactionByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error)

	// ListTransactionsByAccountID retrieves transactions where the account is
	// source or destination, newest first, using token-based pagination.
	ListTransactionsByAccountID(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.Transaction, *string, error)
}

// TransactionWriter defines write operations for transaction records.
// Both run inside the engine's database transaction.
type TransactionWriter interface {
	// InsertTransactionInTx persists a new PENDING transaction. A unique
	// violation on the idempotency key is reported as apperrors.ErrDuplicate.
	InsertTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error

	// UpdateTransactionStatusInTx finalizes a transaction row as POSTED or
	// FAILED with its completion timestamp.
	UpdateTransactionStatusInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error
}

// TransactionRepositoryFacade combines the transaction repository interfaces.
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
}
