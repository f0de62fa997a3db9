package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/finacore/bankledger/internal/apperrors"
	"github.com/finacore/bankledger/internal/core/domain"
	portsrepo "github.com/finacore/bankledger/internal/core/ports/repositories"
	portssvc "github.com/finacore/bankledger/internal/core/ports/services"
	"github.com/finacore/bankledger/internal/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// movement is one balance change applied by a transaction: the account, the
// entry type recorded in the ledger, and whether it subtracts from the
// balance (DEBIT and FEE do, CREDIT does not).
type movement struct {
	accountID string
	entryType domain.EntryType
}

func (m movement) subtracts() bool {
	return m.entryType == domain.EntryDebit || m.entryType == domain.EntryFee
}

// transactionService is the atomic ledger transaction engine. It coordinates
// each operation as one database transaction: idempotency checks, ordered
// account locking, balance validation, mutation, ledger append and the
// PENDING -> POSTED/FAILED state transition.
type transactionService struct {
	txManager   portsrepo.TransactionManager
	accountRepo portsrepo.AccountRepositoryFacade
	txnRepo     portsrepo.TransactionRepositoryFacade
	ledgerRepo  portsrepo.LedgerEntryRepository
	guard       portssvc.IdempotencyGuard
	publisher   portssvc.TransactionEventPublisher
	now         func() time.Time
}

// NewTransactionService creates the transaction orchestrator.
func NewTransactionService(
	txManager portsrepo.TransactionManager,
	accountRepo portsrepo.AccountRepositoryFacade,
	txnRepo portsrepo.TransactionRepositoryFacade,
	ledgerRepo portsrepo.LedgerEntryRepository,
	guard portssvc.IdempotencyGuard,
	publisher portssvc.TransactionEventPublisher,
) portssvc.TransactionOrchestrator {
	return &transactionService{
		txManager:   txManager,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		ledgerRepo:  ledgerRepo,
		guard:       guard,
		publisher:   publisher,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

var _ portssvc.TransactionOrchestrator = (*transactionService)(nil)

// Withdraw atomically removes funds from an account.
func (s *transactionService) Withdraw(ctx context.Context, accountID string, req portssvc.OperationRequest) (*domain.Transaction, error) {
	txn := s.newTransaction(domain.Withdrawal, req)
	txn.SourceAccountID = &accountID
	return s.process(ctx, txn)
}

// Deposit atomically adds funds to an account.
func (s *transactionService) Deposit(ctx context.Context, accountID string, req portssvc.OperationRequest) (*domain.Transaction, error) {
	txn := s.newTransaction(domain.Deposit, req)
	txn.DestinationAccountID = &accountID
	return s.process(ctx, txn)
}

// Transfer atomically moves funds between two distinct accounts.
func (s *transactionService) Transfer(ctx context.Context, sourceAccountID, destinationAccountID string, req portssvc.OperationRequest) (*domain.Transaction, error) {
	txn := s.newTransaction(domain.Transfer, req)
	txn.SourceAccountID = &sourceAccountID
	txn.DestinationAccountID = &destinationAccountID
	return s.process(ctx, txn)
}

// ChargeFee atomically charges a fee against an account.
func (s *transactionService) ChargeFee(ctx context.Context, accountID string, req portssvc.OperationRequest) (*domain.Transaction, error) {
	txn := s.newTransaction(domain.Fee, req)
	txn.DestinationAccountID = &accountID
	return s.process(ctx, txn)
}

func (s *transactionService) newTransaction(txType domain.TransactionType, req portssvc.OperationRequest) domain.Transaction {
	return domain.Transaction{
		TransactionID:  uuid.NewString(),
		Type:           txType,
		Status:         domain.StatusPending,
		Amount:         req.Amount,
		Currency:       req.Currency,
		IdempotencyKey: req.IdempotencyKey,
		InitiatedBy:    req.InitiatedBy,
		CreatedAt:      s.now(),
	}
}

// movements returns the balance changes a transaction applies, in the order
// their ledger entries are written.
func movements(txn domain.Transaction) []movement {
	switch txn.Type {
	case domain.Withdrawal:
		return []movement{{accountID: *txn.SourceAccountID, entryType: domain.EntryDebit}}
	case domain.Deposit:
		return []movement{{accountID: *txn.DestinationAccountID, entryType: domain.EntryCredit}}
	case domain.Transfer:
		return []movement{
			{accountID: *txn.SourceAccountID, entryType: domain.EntryDebit},
			{accountID: *txn.DestinationAccountID, entryType: domain.EntryCredit},
		}
	case domain.Fee:
		return []movement{{accountID: *txn.DestinationAccountID, entryType: domain.EntryFee}}
	}
	return nil
}

// lockOrder returns the distinct account ids a transaction touches, sorted
// ascending. Every operation requests locks in this fixed global order, which
// is the sole deadlock-avoidance mechanism for concurrent transfers over the
// same account pair.
func lockOrder(moves []movement) []string {
	seen := make(map[string]struct{}, len(moves))
	ids := make([]string, 0, len(moves))
	for _, m := range moves {
		if _, ok := seen[m.accountID]; !ok {
			seen[m.accountID] = struct{}{}
			ids = append(ids, m.accountID)
		}
	}
	sort.Strings(ids)
	return ids
}

// process runs the engine's algorithm. The transaction row, account balances
// and ledger entries commit together or not at all, with one deliberate
// exception: an insufficient-funds outcome commits the transaction row as
// FAILED while leaving everything else untouched.
func (s *transactionService) process(ctx context.Context, txn domain.Transaction) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx).With(
		slog.String("transaction_id", txn.TransactionID),
		slog.String("type", string(txn.Type)),
		slog.String("idempotency_key", txn.IdempotencyKey),
	)

	// Replays are safe no-ops: a key that already completed returns the
	// original result unchanged, POSTED or FAILED alike.
	existing, err := s.txnRepo.FindTransactionByIdempotencyKey(ctx, txn.IdempotencyKey)
	if err == nil {
		logger.Info("Idempotency key already processed, returning prior result",
			slog.String("prior_transaction_id", existing.TransactionID),
			slog.String("prior_status", string(existing.Status)))
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}

	// Advisory fast path. A registered-but-unfinished key means another
	// request with the same key is in flight right now.
	if !s.guard.TryRegister(ctx, txn.IdempotencyKey) {
		logger.Warn("Idempotency key already registered by an in-flight request")
		return nil, apperrors.ErrDuplicateInProgress
	}

	// Release the key when nothing reached the database, so a retry after a
	// transient failure (lock timeout, rollback) is not blocked for the full
	// retention window. Committed outcomes keep the key; replays of those are
	// answered from the transactions table anyway.
	committed := false
	defer func() {
		if !committed {
			s.guard.Remove(ctx, txn.IdempotencyKey)
		}
	}()

	if err := txn.Validate(); err != nil {
		return nil, err
	}

	moves := movements(txn)

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.txManager.Rollback(ctx, tx) // no-op once committed

	if err := s.txnRepo.InsertTransactionInTx(ctx, tx, txn); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// A concurrent duplicate slipped past the guard and lost the race
			// on the unique constraint. Treat as already processed.
			if rbErr := s.txManager.Rollback(ctx, tx); rbErr != nil {
				logger.Error("Rollback after duplicate key failed", slog.String("error", rbErr.Error()))
			}
			winner, findErr := s.txnRepo.FindTransactionByIdempotencyKey(ctx, txn.IdempotencyKey)
			if findErr != nil {
				return nil, apperrors.ErrDuplicateInProgress
			}
			logger.Info("Concurrent duplicate detected by unique constraint, returning winner",
				slog.String("prior_transaction_id", winner.TransactionID))
			return winner, nil
		}
		return nil, fmt.Errorf("failed to insert transaction record: %w", err)
	}

	amount, err := domain.NewMoney(txn.Amount, txn.Currency)
	if err != nil {
		return nil, err
	}

	// Lock every touched account in the fixed global order.
	locked := make(map[string]*domain.Account, len(moves))
	for _, accountID := range lockOrder(moves) {
		account, err := s.accountRepo.FindAccountByIDForUpdate(ctx, tx, accountID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
			}
			return nil, fmt.Errorf("failed to lock account %s: %w", accountID, err)
		}
		locked[accountID] = account
	}

	// Balance validation on the debit side before any mutation.
	for _, m := range moves {
		if !m.subtracts() {
			continue
		}
		account := locked[m.accountID]
		sufficient, err := account.Balance.GreaterOrEqual(amount)
		if err != nil {
			return nil, err
		}
		if !sufficient {
			err := s.failInsufficientFunds(ctx, tx, txn, account, amount, logger)
			if apperrors.IsInsufficientFunds(err) {
				// FAILED row is committed; keep the key registered.
				committed = true
			}
			return nil, err
		}
	}

	// Apply and persist the balance changes on the locked snapshots.
	for _, m := range moves {
		account := locked[m.accountID]
		if m.subtracts() {
			err = account.Debit(amount)
		} else {
			err = account.Credit(amount)
		}
		if err != nil {
			return nil, err
		}
	}
	for _, accountID := range lockOrder(moves) {
		account := locked[accountID]
		account.UpdatedAt = s.now()
		if err := s.accountRepo.UpdateAccountBalanceInTx(ctx, tx, *account); err != nil {
			return nil, fmt.Errorf("failed to persist balance for account %s: %w", accountID, err)
		}
	}

	// One ledger entry per monetary movement.
	entries := make([]domain.LedgerEntry, len(moves))
	for i, m := range moves {
		entries[i] = domain.LedgerEntry{
			EntryID:       uuid.NewString(),
			TransactionID: txn.TransactionID,
			AccountID:     m.accountID,
			Type:          m.entryType,
			Amount:        txn.Amount,
			Currency:      txn.Currency,
			CreatedAt:     s.now(),
		}
		if err := entries[i].Validate(); err != nil {
			return nil, err
		}
	}
	if err := s.ledgerRepo.InsertEntriesInTx(ctx, tx, entries); err != nil {
		return nil, fmt.Errorf("failed to append ledger entries: %w", err)
	}

	if err := txn.MarkPosted(s.now()); err != nil {
		return nil, err
	}
	if err := s.txnRepo.UpdateTransactionStatusInTx(ctx, tx, txn); err != nil {
		return nil, fmt.Errorf("failed to mark transaction posted: %w", err)
	}
	if err := s.txManager.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	logger.Info("Transaction posted", slog.String("amount", amount.String()))
	if s.publisher != nil {
		s.publisher.PublishPosted(ctx, txn)
	}
	return &txn, nil
}

// failInsufficientFunds commits the transaction row as FAILED — the one
// deliberate exception to all-or-nothing — and returns the typed error. No
// balance was mutated and no ledger entry written at this point.
func (s *transactionService) failInsufficientFunds(ctx context.Context, tx pgx.Tx, txn domain.Transaction, account *domain.Account, amount domain.Money, logger *slog.Logger) error {
	if err := txn.MarkFailed(s.now()); err != nil {
		return err
	}
	if err := s.txnRepo.UpdateTransactionStatusInTx(ctx, tx, txn); err != nil {
		return fmt.Errorf("failed to mark transaction failed: %w", err)
	}
	if err := s.txManager.Commit(ctx, tx); err != nil {
		return fmt.Errorf("failed to commit failed transaction: %w", err)
	}
	logger.Warn("Transaction failed: insufficient funds",
		slog.String("account_id", account.AccountID),
		slog.String("requested", amount.String()),
		slog.String("available", account.Balance.String()))
	return &apperrors.InsufficientFundsError{
		AccountID: account.AccountID,
		Requested: amount.Amount,
		Available: account.Balance.Amount,
		Currency:  amount.Currency,
	}
}

// GetTransactionHistory lists an account's transactions, newest first.
func (s *transactionService) GetTransactionHistory(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		return nil, nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	transactions, next, err := s.txnRepo.ListTransactionsByAccountID(ctx, accountID, limit, nextToken)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list transactions for account %s: %w", accountID, err)
	}
	return transactions, next, nil
}
