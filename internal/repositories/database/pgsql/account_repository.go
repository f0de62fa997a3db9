package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finacore/bankledger/internal/apperrors"
	"github.com/finacore/bankledger/internal/core/domain"
	portsrepo "github.com/finacore/bankledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new repository for account data.
func NewAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{pool: pool}
}

var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

const accountColumns = `account_id, holder_name, balance_amount, balance_currency, status, created_at, updated_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account   domain.Account
		amount    decimal.Decimal
		currency  string
		status    string
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(
		&account.AccountID,
		&account.HolderName,
		&amount,
		&currency,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	balance, err := domain.NewMoney(amount, currency)
	if err != nil {
		return nil, fmt.Errorf("corrupt balance on account %s: %w", account.AccountID, err)
	}
	account.Balance = balance
	account.Status = domain.AccountStatus(status)
	account.CreatedAt = createdAt
	account.UpdatedAt = updatedAt
	return &account, nil
}

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	query := `
		INSERT INTO accounts (account_id, holder_name, balance_amount, balance_currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.pool.Exec(ctx, query,
		account.AccountID,
		account.HolderName,
		account.Balance.Amount,
		account.Balance.Currency,
		account.Status,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, account.AccountID)
		}
		return fmt.Errorf("failed to save account %s: %w", account.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves an account without locking it.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`
	account, err := scanAccount(r.pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	return account, nil
}

// FindAccountByIDForUpdate retrieves an account and takes an exclusive row
// lock, blocking until granted or the transaction's lock_timeout expires.
func (r *PgxAccountRepository) FindAccountByIDForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1 FOR UPDATE;`
	account, err := scanAccount(tx.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		if mapped := mapLockError(err); errors.Is(mapped, apperrors.ErrLockTimeout) {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to lock account %s: %w", accountID, err)
	}
	return account, nil
}

// UpdateAccountBalanceInTx persists a locked account's balance. The CHECK
// constraint on balance_amount backs the non-negative invariant at the
// storage layer.
func (r *PgxAccountRepository) UpdateAccountBalanceInTx(ctx context.Context, tx pgx.Tx, account domain.Account) error {
	query := `
		UPDATE accounts
		SET balance_amount = $2, updated_at = $3
		WHERE account_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query, account.AccountID, account.Balance.Amount, account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update balance for account %s: %w", account.AccountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %s during balance update", apperrors.ErrNotFound, account.AccountID)
	}
	return nil
}

// UpdateAccountStatus transitions the lifecycle status of an account.
func (r *PgxAccountRepository) UpdateAccountStatus(ctx context.Context, accountID string, status domain.AccountStatus) error {
	query := `
		UPDATE accounts
		SET status = $2, updated_at = now()
		WHERE account_id = $1;
	`
	cmdTag, err := r.pool.Exec(ctx, query, accountID, status)
	if err != nil {
		return fmt.Errorf("failed to update status of account %s: %w", accountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
