package handlers

import (
	"net/http"

	portssvc "github.com/finacore/bankledger/internal/core/ports/services"
	"github.com/finacore/bankledger/internal/dto"
	"github.com/gin-gonic/gin"
)

// auditHandler exposes the read-only ledger audit endpoints.
type auditHandler struct {
	auditor portssvc.LedgerAuditor
}

func newAuditHandler(auditor portssvc.LedgerAuditor) *auditHandler {
	return &auditHandler{
		auditor: auditor,
	}
}

// registerAuditRoutes registers the read-only audit routes.
func registerAuditRoutes(rg *gin.RouterGroup, auditor portssvc.LedgerAuditor) {
	h := newAuditHandler(auditor)

	audit := rg.Group("/audit")
	{
		audit.GET("/accounts/:accountID/ledger", h.getAccountLedger)
		audit.GET("/accounts/:accountID/validate", h.validateAccountLedger)
		audit.GET("/accounts/:accountID/balance", h.getAccountBalance)
		audit.GET("/transactions/:transactionID/entries", h.getTransactionEntries)
		audit.GET("/transactions/:transactionID/validate", h.validateTransaction)
	}
}

func (h *auditHandler) getAccountLedger(c *gin.Context) {
	accountID := c.Param("accountID")

	entries, err := h.auditor.GetAccountLedger(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LedgerResponse{Entries: dto.ToLedgerEntryResponses(entries)})
}

func (h *auditHandler) getTransactionEntries(c *gin.Context) {
	transactionID := c.Param("transactionID")

	entries, err := h.auditor.GetTransactionEntries(c.Request.Context(), transactionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LedgerResponse{Entries: dto.ToLedgerEntryResponses(entries)})
}

func (h *auditHandler) validateTransaction(c *gin.Context) {
	transactionID := c.Param("transactionID")

	balanced, err := h.auditor.ValidateDoubleEntry(c.Request.Context(), transactionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ValidationResponse{Balanced: balanced})
}

func (h *auditHandler) validateAccountLedger(c *gin.Context) {
	accountID := c.Param("accountID")

	balanced, err := h.auditor.ValidateAccountLedger(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ValidationResponse{Balanced: balanced})
}

// getAccountBalance reports both the stored account balance and the balance
// recomputed from ledger entries, with a reconciliation verdict.
func (h *auditHandler) getAccountBalance(c *gin.Context) {
	ctx := c.Request.Context()
	accountID := c.Param("accountID")

	calculated, err := h.auditor.CalculateBalance(ctx, accountID)
	if err != nil {
		respondError(c, err)
		return
	}
	reconciled, stored, err := h.auditor.Reconcile(ctx, accountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AccountBalanceResponse{
		AccountID:         accountID,
		StoredBalance:     stored.Amount,
		CalculatedBalance: calculated.Amount,
		Currency:          calculated.Currency,
		Reconciled:        reconciled,
	})
}
