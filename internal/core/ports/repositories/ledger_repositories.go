package repositories

import (
	"context"

	"github.com/finacore/bankledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// LedgerEntryRepository is the append-only ledger store. There is
// deliberately no update or delete method on this interface: the absence of
// a mutation path is the enforcement mechanism for ledger immutability.
type LedgerEntryRepository interface {
	// InsertEntriesInTx appends ledger entries within the engine's database
	// transaction. Entries become visible only when that transaction commits.
	InsertEntriesInTx(ctx context.Context, tx pgx.Tx, entries []domain.LedgerEntry) error

	// FindEntriesByTransactionID retrieves all entries of one transaction.
	FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error)

	// FindEntriesByAccountID retrieves an account's entries in chronological
	// order (oldest first).
	FindEntriesByAccountID(ctx context.Context, accountID string) ([]domain.LedgerEntry, error)

	// SumEntriesByAccountAndType returns the total amount of the account's
	// entries of the given type. Zero when there are none.
	SumEntriesByAccountAndType(ctx context.Context, accountID string, entryType domain.EntryType) (decimal.Decimal, error)
}
