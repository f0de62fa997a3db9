package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/finacore/bankledger/internal/apperrors"
	"github.com/shopspring/decimal"
)

// EntryType classifies a ledger entry.
type EntryType string

const (
	EntryDebit  EntryType = "DEBIT"  // money out of the account
	EntryCredit EntryType = "CREDIT" // money into the account
	EntryFee    EntryType = "FEE"    // fee charged to the account
)

// LedgerEntry is one immutable line in the append-only ledger. Entries are
// only ever inserted; corrections happen through compensating entries.
type LedgerEntry struct {
	EntryID       string          `json:"entryID"`
	TransactionID string          `json:"transactionID"`
	AccountID     string          `json:"accountID"`
	Type          EntryType       `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Validate checks entry invariants before insertion.
func (e *LedgerEntry) Validate() error {
	if e.TransactionID == "" {
		return fmt.Errorf("%w: ledger entry requires a transaction ID", apperrors.ErrValidation)
	}
	if e.AccountID == "" {
		return fmt.Errorf("%w: ledger entry requires an account ID", apperrors.ErrValidation)
	}
	switch e.Type {
	case EntryDebit, EntryCredit, EntryFee:
	default:
		return fmt.Errorf("%w: unknown entry type %q", apperrors.ErrValidation, e.Type)
	}
	if e.Amount.IsNegative() {
		return fmt.Errorf("%w: ledger entry amount", apperrors.ErrNegativeResult)
	}
	if len(strings.TrimSpace(e.Currency)) != 3 {
		return fmt.Errorf("%w: currency must be a 3-letter ISO 4217 code", apperrors.ErrValidation)
	}
	return nil
}

// IsDebit reports whether the entry moves money out of the account.
func (e *LedgerEntry) IsDebit() bool { return e.Type == EntryDebit }

// IsCredit reports whether the entry moves money into the account.
func (e *LedgerEntry) IsCredit() bool { return e.Type == EntryCredit }

// IsFee reports whether the entry is a fee charge.
func (e *LedgerEntry) IsFee() bool { return e.Type == EntryFee }
