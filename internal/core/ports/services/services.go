package services

import (
	"context"

	"github.com/finacore/bankledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// OperationRequest carries the caller-facing parameters of a monetary
// operation, already authenticated upstream (InitiatedBy is the verified
// initiator identity passed through by the gateway).
type OperationRequest struct {
	Amount         decimal.Decimal
	Currency       string
	IdempotencyKey string
	InitiatedBy    string
}

// TransactionOrchestrator coordinates withdraw, deposit, transfer and fee
// operations as atomic, idempotent units.
type TransactionOrchestrator interface {
	Withdraw(ctx context.Context, accountID string, req OperationRequest) (*domain.Transaction, error)
	Deposit(ctx context.Context, accountID string, req OperationRequest) (*domain.Transaction, error)
	Transfer(ctx context.Context, sourceAccountID, destinationAccountID string, req OperationRequest) (*domain.Transaction, error)
	ChargeFee(ctx context.Context, accountID string, req OperationRequest) (*domain.Transaction, error)
	GetTransactionHistory(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.Transaction, *string, error)
}

// LedgerAuditor is the read side consumed by audit and reporting callers.
// It never participates in the write path.
type LedgerAuditor interface {
	GetAccountLedger(ctx context.Context, accountID string) ([]domain.LedgerEntry, error)
	GetTransactionEntries(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error)
	ValidateDoubleEntry(ctx context.Context, transactionID string) (bool, error)
	ValidateAccountLedger(ctx context.Context, accountID string) (bool, error)
	CalculateBalance(ctx context.Context, accountID string) (domain.Money, error)
	Reconcile(ctx context.Context, accountID string) (bool, domain.Money, error)
}

// AccountSvcFacade manages account lifecycle outside the transaction path.
type AccountSvcFacade interface {
	CreateAccount(ctx context.Context, holderName string, initialBalance decimal.Decimal, currency string) (*domain.Account, error)
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)
	FreezeAccount(ctx context.Context, accountID string) (*domain.Account, error)
	CloseAccount(ctx context.Context, accountID string) (*domain.Account, error)
}

// IdempotencyGuard is the advisory fast-path duplicate check. Fail-open: a
// store outage lets the request proceed and the database unique constraint
// remains the correctness backstop.
type IdempotencyGuard interface {
	TryRegister(ctx context.Context, key string) bool
	Exists(ctx context.Context, key string) bool
	Remove(ctx context.Context, key string)
}

// TransactionEventPublisher emits events for POSTED transactions to
// downstream consumers. Best-effort: publication happens after commit and a
// failure never affects the committed transaction.
type TransactionEventPublisher interface {
	PublishPosted(ctx context.Context, txn domain.Transaction)
}
