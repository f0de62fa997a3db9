package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/finacore/bankledger/internal/apperrors"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountActive AccountStatus = "ACTIVE"
	AccountFrozen AccountStatus = "FROZEN"
	AccountClosed AccountStatus = "CLOSED" // terminal; accounts are never deleted
)

// Account is a bank account holding a non-negative balance. Balance mutation
// goes through Debit and Credit only; both refuse non-ACTIVE accounts.
type Account struct {
	AccountID  string        `json:"accountID"`
	HolderName string        `json:"holderName"`
	Balance    Money         `json:"balance"`
	Status     AccountStatus `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// Validate checks account invariants before persistence.
func (a *Account) Validate() error {
	if strings.TrimSpace(a.HolderName) == "" {
		return fmt.Errorf("%w: holder name is required", apperrors.ErrValidation)
	}
	if a.Balance.Amount.IsNegative() {
		return fmt.Errorf("%w: account balance", apperrors.ErrNegativeResult)
	}
	switch a.Status {
	case AccountActive, AccountFrozen, AccountClosed:
	default:
		return fmt.Errorf("%w: unknown account status %q", apperrors.ErrValidation, a.Status)
	}
	return nil
}

// IsActive reports whether the account may take part in transactions.
func (a *Account) IsActive() bool {
	return a.Status == AccountActive
}

// Debit subtracts amount from the balance. Fails on non-ACTIVE accounts and
// on results that would go negative.
func (a *Account) Debit(amount Money) error {
	if !a.IsActive() {
		return fmt.Errorf("%w: cannot debit account %s with status %s", apperrors.ErrAccountInactive, a.AccountID, a.Status)
	}
	newBalance, err := a.Balance.Subtract(amount)
	if err != nil {
		return err
	}
	a.Balance = newBalance
	return nil
}

// Credit adds amount to the balance. Fails on non-ACTIVE accounts.
func (a *Account) Credit(amount Money) error {
	if !a.IsActive() {
		return fmt.Errorf("%w: cannot credit account %s with status %s", apperrors.ErrAccountInactive, a.AccountID, a.Status)
	}
	newBalance, err := a.Balance.Add(amount)
	if err != nil {
		return err
	}
	a.Balance = newBalance
	return nil
}
