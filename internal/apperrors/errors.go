package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrCurrencyMismatch indicates a monetary operation between different currencies.
var ErrCurrencyMismatch = errors.New("currency mismatch")

// ErrNegativeResult indicates a monetary subtraction that would go below zero.
var ErrNegativeResult = errors.New("amount cannot be negative")

// ErrAccountInactive indicates a debit or credit against a FROZEN or CLOSED account.
var ErrAccountInactive = errors.New("account is not active")

// ErrTransactionFinal indicates an attempt to transition a transaction that is
// already POSTED or FAILED.
var ErrTransactionFinal = errors.New("transaction already finalized")

// ErrDuplicateInProgress indicates that another request with the same
// idempotency key is still being processed. Retryable conflict: callers
// should retry after the in-flight request settles.
var ErrDuplicateInProgress = errors.New("request with this idempotency key is already in progress")

// ErrLockTimeout indicates the engine gave up waiting for an account row lock.
// Retryable; no partial mutation is visible when this is returned.
var ErrLockTimeout = errors.New("timed out waiting for account lock")

// ErrInternal is a generic internal error for failures the caller cannot act on.
var ErrInternal = errors.New("internal error")

// InsufficientFundsError reports a debit that exceeds the available balance.
// The associated transaction is committed as FAILED; the account is untouched.
type InsufficientFundsError struct {
	AccountID string
	Requested decimal.Decimal
	Available decimal.Decimal
	Currency  string
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds on account %s: requested %s %s, available %s %s",
		e.AccountID, e.Requested, e.Currency, e.Available, e.Currency)
}

// IsInsufficientFunds reports whether err wraps an InsufficientFundsError.
func IsInsufficientFunds(err error) bool {
	var ife *InsufficientFundsError
	return errors.As(err, &ife)
}
