package handlers

import (
	"log/slog"
	"net/http"

	"github.com/finacore/bankledger/internal/core/domain"
	portssvc "github.com/finacore/bankledger/internal/core/ports/services"
	"github.com/finacore/bankledger/internal/dto"
	"github.com/finacore/bankledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// transactionHandler handles the monetary operation endpoints.
type transactionHandler struct {
	txnService portssvc.TransactionOrchestrator
}

func newTransactionHandler(ts portssvc.TransactionOrchestrator) *transactionHandler {
	return &transactionHandler{
		txnService: ts,
	}
}

// registerTransactionRoutes registers the monetary operation routes.
func registerTransactionRoutes(rg *gin.RouterGroup, txnService portssvc.TransactionOrchestrator) {
	h := newTransactionHandler(txnService)

	transactions := rg.Group("/transactions")
	{
		transactions.POST("/withdraw", h.withdraw)
		transactions.POST("/deposit", h.deposit)
		transactions.POST("/transfer", h.transfer)
		transactions.POST("/fee", h.chargeFee)
	}
}

type singleAccountOperation func(c *gin.Context, accountID string, req portssvc.OperationRequest) (*domain.Transaction, error)

// runOperation handles the shared bind/initiate/respond flow of the
// single-account endpoints. A replayed transaction returns 200; a freshly
// posted one returns 201.
func (h *transactionHandler) runOperation(c *gin.Context, name string, op singleAccountOperation) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.OperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for "+name, slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	initiatedBy, _ := middleware.GetInitiatorFromCtx(c.Request.Context())
	txn, err := op(c, req.AccountID, req.ToOperationRequest(initiatedBy))
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Transaction processed",
		slog.String("operation", name),
		slog.String("transaction_id", txn.TransactionID),
		slog.String("status", string(txn.Status)),
	)
	c.JSON(operationStatus(txn), dto.ToTransactionResponse(txn))
}

func (h *transactionHandler) withdraw(c *gin.Context) {
	h.runOperation(c, "Withdraw", func(c *gin.Context, accountID string, req portssvc.OperationRequest) (*domain.Transaction, error) {
		return h.txnService.Withdraw(c.Request.Context(), accountID, req)
	})
}

func (h *transactionHandler) deposit(c *gin.Context) {
	h.runOperation(c, "Deposit", func(c *gin.Context, accountID string, req portssvc.OperationRequest) (*domain.Transaction, error) {
		return h.txnService.Deposit(c.Request.Context(), accountID, req)
	})
}

func (h *transactionHandler) chargeFee(c *gin.Context) {
	h.runOperation(c, "ChargeFee", func(c *gin.Context, accountID string, req portssvc.OperationRequest) (*domain.Transaction, error) {
		return h.txnService.ChargeFee(c.Request.Context(), accountID, req)
	})
}

func (h *transactionHandler) transfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Transfer", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	initiatedBy, _ := middleware.GetInitiatorFromCtx(c.Request.Context())
	txn, err := h.txnService.Transfer(c.Request.Context(), req.SourceAccountID, req.DestinationAccountID, req.ToOperationRequest(initiatedBy))
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Transaction processed",
		slog.String("operation", "Transfer"),
		slog.String("transaction_id", txn.TransactionID),
		slog.String("status", string(txn.Status)),
	)
	c.JSON(operationStatus(txn), dto.ToTransactionResponse(txn))
}

func (h *transactionHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")
	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	transactions, nextToken, err := h.txnService.GetTransactionHistory(c.Request.Context(), accountID, params.Limit, params.NextToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(transactions),
		NextToken:    nextToken,
	})
}

// operationStatus picks the response code for a processed operation. A
// transaction that finished as FAILED (insufficient funds, replayed or not)
// is reported with 200 since no new balance movement happened; a POSTED one
// returns 201.
func operationStatus(txn *domain.Transaction) int {
	if txn.Status == domain.StatusFailed {
		return http.StatusOK
	}
	return http.StatusCreated
}
