package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/finacore/bankledger/internal/apperrors"
	"github.com/shopspring/decimal"
)

// TransactionType identifies the kind of monetary operation.
type TransactionType string

const (
	Withdrawal TransactionType = "WITHDRAWAL"
	Deposit    TransactionType = "DEPOSIT"
	Transfer   TransactionType = "TRANSFER"
	Fee        TransactionType = "FEE"
)

// TransactionStatus is the processing state of a transaction.
// PENDING transitions exactly once to POSTED or FAILED; both are terminal.
type TransactionStatus string

const (
	StatusPending TransactionStatus = "PENDING"
	StatusPosted  TransactionStatus = "POSTED"
	StatusFailed  TransactionStatus = "FAILED"
)

// Transaction records one requested monetary operation. The idempotency key
// is globally unique; its database constraint is the authoritative duplicate
// prevention mechanism.
type Transaction struct {
	TransactionID        string            `json:"transactionID"`
	Type                 TransactionType   `json:"type"`
	SourceAccountID      *string           `json:"sourceAccountID,omitempty"`
	DestinationAccountID *string           `json:"destinationAccountID,omitempty"`
	Status               TransactionStatus `json:"status"`
	Amount               decimal.Decimal   `json:"amount"`
	Currency             string            `json:"currency"`
	IdempotencyKey       string            `json:"idempotencyKey"`
	InitiatedBy          string            `json:"initiatedBy"`
	CreatedAt            time.Time         `json:"createdAt"`
	CompletedAt          *time.Time        `json:"completedAt,omitempty"`
}

// Validate enforces the shape invariants for the transaction type: positive
// amount, valid currency, and the per-type source/destination nullability.
func (t *Transaction) Validate() error {
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: transaction amount must be positive", apperrors.ErrValidation)
	}
	if len(strings.TrimSpace(t.Currency)) != 3 {
		return fmt.Errorf("%w: currency must be a 3-letter ISO 4217 code", apperrors.ErrValidation)
	}
	if t.IdempotencyKey == "" {
		return fmt.Errorf("%w: idempotency key is required", apperrors.ErrValidation)
	}
	if strings.TrimSpace(t.InitiatedBy) == "" {
		return fmt.Errorf("%w: initiatedBy is required", apperrors.ErrValidation)
	}

	switch t.Type {
	case Withdrawal:
		if t.SourceAccountID == nil {
			return fmt.Errorf("%w: withdrawal requires a source account", apperrors.ErrValidation)
		}
		if t.DestinationAccountID != nil {
			return fmt.Errorf("%w: withdrawal cannot have a destination account", apperrors.ErrValidation)
		}
	case Deposit:
		if t.DestinationAccountID == nil {
			return fmt.Errorf("%w: deposit requires a destination account", apperrors.ErrValidation)
		}
		if t.SourceAccountID != nil {
			return fmt.Errorf("%w: deposit cannot have a source account", apperrors.ErrValidation)
		}
	case Transfer:
		if t.SourceAccountID == nil || t.DestinationAccountID == nil {
			return fmt.Errorf("%w: transfer requires both source and destination accounts", apperrors.ErrValidation)
		}
		if *t.SourceAccountID == *t.DestinationAccountID {
			return fmt.Errorf("%w: cannot transfer to the same account", apperrors.ErrValidation)
		}
	case Fee:
		if t.DestinationAccountID == nil {
			return fmt.Errorf("%w: fee requires a destination account", apperrors.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown transaction type %q", apperrors.ErrValidation, t.Type)
	}
	return nil
}

// MarkPosted finalizes the transaction as successfully committed.
func (t *Transaction) MarkPosted(now time.Time) error {
	if t.Status != StatusPending {
		return fmt.Errorf("%w: cannot post transaction in status %s", apperrors.ErrTransactionFinal, t.Status)
	}
	t.Status = StatusPosted
	t.CompletedAt = &now
	return nil
}

// MarkFailed finalizes the transaction as failed.
func (t *Transaction) MarkFailed(now time.Time) error {
	if t.Status != StatusPending {
		return fmt.Errorf("%w: cannot fail transaction in status %s", apperrors.ErrTransactionFinal, t.Status)
	}
	t.Status = StatusFailed
	t.CompletedAt = &now
	return nil
}

// IsPending reports whether the transaction has not yet been finalized.
func (t *Transaction) IsPending() bool {
	return t.Status == StatusPending
}
