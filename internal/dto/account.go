package dto

import (
	"time"

	"github.com/finacore/bankledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to open a new account.
type CreateAccountRequest struct {
	HolderName     string          `json:"holderName" binding:"required"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	Currency       string          `json:"currency" binding:"required,len=3,uppercase"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID  string          `json:"accountID"`
	HolderName string          `json:"holderName"`
	Balance    decimal.Decimal `json:"balance"`
	Currency   string          `json:"currency"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO.
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:  acc.AccountID,
		HolderName: acc.HolderName,
		Balance:    acc.Balance.Amount,
		Currency:   acc.Balance.Currency,
		Status:     string(acc.Status),
		CreatedAt:  acc.CreatedAt,
		UpdatedAt:  acc.UpdatedAt,
	}
}

// AccountBalanceResponse defines the data returned for a balance query. The
// stored balance comes from the account row; the calculated balance is
// derived from ledger entries by the auditor.
type AccountBalanceResponse struct {
	AccountID         string          `json:"accountID"`
	StoredBalance     decimal.Decimal `json:"storedBalance"`
	CalculatedBalance decimal.Decimal `json:"calculatedBalance"`
	Currency          string          `json:"currency"`
	Reconciled        bool            `json:"reconciled"`
}
