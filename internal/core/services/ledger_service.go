package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/finacore/bankledger/internal/apperrors"
	"github.com/finacore/bankledger/internal/core/domain"
	portsrepo "github.com/finacore/bankledger/internal/core/ports/repositories"
	portssvc "github.com/finacore/bankledger/internal/core/ports/services"
	"github.com/finacore/bankledger/internal/middleware"
	"github.com/shopspring/decimal"
)

// ledgerService verifies ledger integrity and reconstructs balances from the
// append-only entry set. Read path only; it never writes.
type ledgerService struct {
	ledgerRepo  portsrepo.LedgerEntryRepository
	txnRepo     portsrepo.TransactionReader
	accountRepo portsrepo.AccountReader
}

// NewLedgerService creates the audit-side ledger service.
func NewLedgerService(ledgerRepo portsrepo.LedgerEntryRepository, txnRepo portsrepo.TransactionReader, accountRepo portsrepo.AccountReader) portssvc.LedgerAuditor {
	return &ledgerService{
		ledgerRepo:  ledgerRepo,
		txnRepo:     txnRepo,
		accountRepo: accountRepo,
	}
}

var _ portssvc.LedgerAuditor = (*ledgerService)(nil)

// GetAccountLedger returns an account's entries in chronological order.
func (s *ledgerService) GetAccountLedger(ctx context.Context, accountID string) ([]domain.LedgerEntry, error) {
	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	entries, err := s.ledgerRepo.FindEntriesByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ledger for account %s: %w", accountID, err)
	}
	return entries, nil
}

// GetTransactionEntries returns all ledger entries of one transaction.
func (s *ledgerService) GetTransactionEntries(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error) {
	entries, err := s.ledgerRepo.FindEntriesByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ledger entries for transaction %s: %w", transactionID, err)
	}
	return entries, nil
}

// ValidateDoubleEntry checks the type-specific double-entry equality for a
// transaction:
//
//	WITHDRAWAL  total debits  == amount
//	DEPOSIT     total credits == amount
//	TRANSFER    total debits + total credits == 2 * amount
//	FEE         total fees    == amount
func (s *ledgerService) ValidateDoubleEntry(ctx context.Context, transactionID string) (bool, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entries, err := s.ledgerRepo.FindEntriesByTransactionID(ctx, transactionID)
	if err != nil {
		return false, fmt.Errorf("failed to fetch entries for transaction %s: %w", transactionID, err)
	}
	if len(entries) == 0 {
		logger.Warn("No ledger entries found for transaction", slog.String("transaction_id", transactionID))
		return false, nil
	}

	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Ledger entries reference unknown transaction", slog.String("transaction_id", transactionID))
			return false, nil
		}
		return false, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}

	var debits, credits, fees decimal.Decimal
	for _, e := range entries {
		switch {
		case e.IsDebit():
			debits = debits.Add(e.Amount)
		case e.IsCredit():
			credits = credits.Add(e.Amount)
		case e.IsFee():
			fees = fees.Add(e.Amount)
		}
	}

	var balanced bool
	switch txn.Type {
	case domain.Withdrawal:
		balanced = debits.Equal(txn.Amount)
	case domain.Deposit:
		balanced = credits.Equal(txn.Amount)
	case domain.Transfer:
		balanced = debits.Add(credits).Equal(txn.Amount.Mul(decimal.NewFromInt(2)))
	case domain.Fee:
		balanced = fees.Equal(txn.Amount)
	}

	logger.Debug("Double-entry validation",
		slog.String("transaction_id", transactionID),
		slog.String("debits", debits.String()),
		slog.String("credits", credits.String()),
		slog.String("fees", fees.String()),
		slog.Bool("balanced", balanced))
	return balanced, nil
}

// CalculateBalance reconstructs the authoritative balance of an account from
// its ledger entries: credits - debits - fees.
func (s *ledgerService) CalculateBalance(ctx context.Context, accountID string) (domain.Money, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return domain.Money{}, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}

	credits, err := s.ledgerRepo.SumEntriesByAccountAndType(ctx, accountID, domain.EntryCredit)
	if err != nil {
		return domain.Money{}, fmt.Errorf("failed to sum credits for account %s: %w", accountID, err)
	}
	debits, err := s.ledgerRepo.SumEntriesByAccountAndType(ctx, accountID, domain.EntryDebit)
	if err != nil {
		return domain.Money{}, fmt.Errorf("failed to sum debits for account %s: %w", accountID, err)
	}
	fees, err := s.ledgerRepo.SumEntriesByAccountAndType(ctx, accountID, domain.EntryFee)
	if err != nil {
		return domain.Money{}, fmt.Errorf("failed to sum fees for account %s: %w", accountID, err)
	}

	// Built directly rather than through NewMoney: a corrupt ledger can
	// reconstruct a negative balance, and the auditor must report it.
	return domain.Money{
		Amount:   credits.Sub(debits).Sub(fees),
		Currency: account.Balance.Currency,
	}, nil
}

// ValidateAccountLedger reports whether every transaction referenced by the
// account's ledger entries passes double-entry validation. An empty ledger
// is valid.
func (s *ledgerService) ValidateAccountLedger(ctx context.Context, accountID string) (bool, error) {
	entries, err := s.GetAccountLedger(ctx, accountID)
	if err != nil {
		return false, err
	}

	seen := make(map[string]struct{})
	for _, e := range entries {
		if _, ok := seen[e.TransactionID]; ok {
			continue
		}
		seen[e.TransactionID] = struct{}{}
		balanced, err := s.ValidateDoubleEntry(ctx, e.TransactionID)
		if err != nil {
			return false, err
		}
		if !balanced {
			return false, nil
		}
	}
	return true, nil
}

// Reconcile reports whether the balance reconstructed from the ledger equals
// the stored account balance, alongside the stored balance itself.
func (s *ledgerService) Reconcile(ctx context.Context, accountID string) (bool, domain.Money, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return false, domain.Money{}, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	calculated, err := s.CalculateBalance(ctx, accountID)
	if err != nil {
		return false, domain.Money{}, err
	}
	return calculated.Equal(account.Balance), account.Balance, nil
}
