package dto

import (
	"time"

	"github.com/finacore/bankledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerEntryResponse defines the data returned for a single ledger entry.
type LedgerEntryResponse struct {
	EntryID       string          `json:"entryID"`
	TransactionID string          `json:"transactionID"`
	AccountID     string          `json:"accountID"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// LedgerResponse wraps the entries of an account or transaction.
type LedgerResponse struct {
	Entries []LedgerEntryResponse `json:"entries"`
}

// ValidationResponse reports the outcome of a double-entry check.
type ValidationResponse struct {
	Balanced bool `json:"balanced"`
}

// ToLedgerEntryResponse converts a domain.LedgerEntry to its DTO.
func ToLedgerEntryResponse(entry *domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		EntryID:       entry.EntryID,
		TransactionID: entry.TransactionID,
		AccountID:     entry.AccountID,
		Type:          string(entry.Type),
		Amount:        entry.Amount,
		Currency:      entry.Currency,
		CreatedAt:     entry.CreatedAt,
	}
}

// ToLedgerEntryResponses converts a slice of entries to DTOs.
func ToLedgerEntryResponses(entries []domain.LedgerEntry) []LedgerEntryResponse {
	responses := make([]LedgerEntryResponse, len(entries))
	for i, entry := range entries {
		responses[i] = ToLedgerEntryResponse(&entry)
	}
	return responses
}
