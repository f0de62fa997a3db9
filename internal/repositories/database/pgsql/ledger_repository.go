package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/finacore/bankledger/internal/apperrors"
	"github.com/finacore/bankledger/internal/core/domain"
	portsrepo "github.com/finacore/bankledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PgxLedgerRepository persists immutable ledger entries. There are no update
// or delete operations on this table; entries are only ever appended.
type PgxLedgerRepository struct {
	BaseRepository
}

func NewLedgerRepository(pool *pgxpool.Pool, lockTimeout time.Duration) *PgxLedgerRepository {
	return &PgxLedgerRepository{
		BaseRepository: BaseRepository{Pool: pool, LockTimeout: lockTimeout},
	}
}

var _ portsrepo.LedgerEntryRepository = (*PgxLedgerRepository)(nil)

const ledgerColumns = `entry_id, transaction_id, account_id, entry_type, amount, currency, created_at`

func scanLedgerEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var (
		entry     domain.LedgerEntry
		entryType string
	)
	err := row.Scan(
		&entry.EntryID,
		&entry.TransactionID,
		&entry.AccountID,
		&entryType,
		&entry.Amount,
		&entry.Currency,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	entry.Type = domain.EntryType(entryType)
	return &entry, nil
}

// InsertEntriesInTx appends the ledger entries of a transaction atomically
// within the caller's database transaction.
func (r *PgxLedgerRepository) InsertEntriesInTx(ctx context.Context, tx pgx.Tx, entries []domain.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	query := `
		INSERT INTO ledger_entries (entry_id, transaction_id, account_id, entry_type, amount, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	batch := &pgx.Batch{}
	for _, entry := range entries {
		batch.Queue(query,
			entry.EntryID,
			entry.TransactionID,
			entry.AccountID,
			entry.Type,
			entry.Amount,
			entry.Currency,
			entry.CreatedAt,
		)
	}
	results := tx.SendBatch(ctx, batch)
	defer results.Close()
	for range entries {
		if _, err := results.Exec(); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: ledger entry already recorded", apperrors.ErrDuplicate)
			}
			return fmt.Errorf("failed to insert ledger entry: %w", err)
		}
	}
	return nil
}

// FindEntriesByTransactionID retrieves all entries posted for a transaction.
func (r *PgxLedgerRepository) FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE transaction_id = $1 ORDER BY created_at ASC, entry_id ASC;`
	rows, err := r.Pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries for transaction %s: %w", transactionID, err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// FindEntriesByAccountID retrieves the full entry history of an account in
// chronological order.
func (r *PgxLedgerRepository) FindEntriesByAccountID(ctx context.Context, accountID string) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE account_id = $1 ORDER BY created_at ASC, entry_id ASC;`
	rows, err := r.Pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries for account %s: %w", accountID, err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// SumEntriesByAccountAndType returns the total amount of an account's entries
// of a single type. Accounts with no entries of that type sum to zero.
func (r *PgxLedgerRepository) SumEntriesByAccountAndType(ctx context.Context, accountID string, entryType domain.EntryType) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE account_id = $1 AND entry_type = $2;`
	var sum decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, accountID, entryType).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum %s entries for account %s: %w", entryType, accountID, err)
	}
	return sum, nil
}

func collectEntries(rows pgx.Rows) ([]domain.LedgerEntry, error) {
	entries := make([]domain.LedgerEntry, 0)
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry row: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entry rows: %w", err)
	}
	return entries, nil
}
