package dto

import (
	"time"

	"github.com/finacore/bankledger/internal/core/domain"
	portssvc "github.com/finacore/bankledger/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// OperationRequest defines the body shared by withdraw, deposit and fee
// endpoints. The initiator identity comes from the X-Initiated-By header, not
// the body.
type OperationRequest struct {
	AccountID      string          `json:"accountID" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Currency       string          `json:"currency" binding:"required,len=3,uppercase"`
	IdempotencyKey string          `json:"idempotencyKey" binding:"required,max=128"`
}

// TransferRequest defines the body for a transfer between two accounts.
type TransferRequest struct {
	SourceAccountID      string          `json:"sourceAccountID" binding:"required"`
	DestinationAccountID string          `json:"destinationAccountID" binding:"required"`
	Amount               decimal.Decimal `json:"amount" binding:"required"`
	Currency             string          `json:"currency" binding:"required,len=3,uppercase"`
	IdempotencyKey       string          `json:"idempotencyKey" binding:"required,max=128"`
}

// TransactionResponse defines the data returned for a transaction.
type TransactionResponse struct {
	TransactionID        string          `json:"transactionID"`
	Type                 string          `json:"type"`
	SourceAccountID      *string         `json:"sourceAccountID,omitempty"`
	DestinationAccountID *string         `json:"destinationAccountID,omitempty"`
	Status               string          `json:"status"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	IdempotencyKey       string          `json:"idempotencyKey"`
	InitiatedBy          string          `json:"initiatedBy"`
	CreatedAt            time.Time       `json:"createdAt"`
	CompletedAt          *time.Time      `json:"completedAt,omitempty"`
}

// ListTransactionsParams defines query parameters for transaction history.
type ListTransactionsParams struct {
	Limit     int     `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// ListTransactionsResponse wraps a page of transactions.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:        txn.TransactionID,
		Type:                 string(txn.Type),
		SourceAccountID:      txn.SourceAccountID,
		DestinationAccountID: txn.DestinationAccountID,
		Status:               string(txn.Status),
		Amount:               txn.Amount,
		Currency:             txn.Currency,
		IdempotencyKey:       txn.IdempotencyKey,
		InitiatedBy:          txn.InitiatedBy,
		CreatedAt:            txn.CreatedAt,
		CompletedAt:          txn.CompletedAt,
	}
}

// ToTransactionResponses converts a slice of domain.Transaction to DTOs.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txns))
	for i, txn := range txns {
		responses[i] = ToTransactionResponse(&txn)
	}
	return responses
}

// ToOperationRequest maps the request body and initiator to the service-layer
// operation parameters.
func (r OperationRequest) ToOperationRequest(initiatedBy string) portssvc.OperationRequest {
	return portssvc.OperationRequest{
		Amount:         r.Amount,
		Currency:       r.Currency,
		IdempotencyKey: r.IdempotencyKey,
		InitiatedBy:    initiatedBy,
	}
}

// ToOperationRequest maps the transfer body and initiator to the
// service-layer operation parameters.
func (r TransferRequest) ToOperationRequest(initiatedBy string) portssvc.OperationRequest {
	return portssvc.OperationRequest{
		Amount:         r.Amount,
		Currency:       r.Currency,
		IdempotencyKey: r.IdempotencyKey,
		InitiatedBy:    initiatedBy,
	}
}
