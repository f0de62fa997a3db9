package domain_test

import (
	"testing"

	"github.com/finacore/bankledger/internal/apperrors"
	"github.com/finacore/bankledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeAccount(balance string) domain.Account {
	return domain.Account{
		AccountID:  "acc-1",
		HolderName: "Holder",
		Balance:    domain.MustMoney(balance, "USD"),
		Status:     domain.AccountActive,
	}
}

func TestAccountDebit(t *testing.T) {
	acc := activeAccount("100.00")

	require.NoError(t, acc.Debit(domain.MustMoney("40.00", "USD")))
	assert.True(t, acc.Balance.Amount.Equal(decimal.RequireFromString("60.00")))

	// Draining to exactly zero is allowed.
	require.NoError(t, acc.Debit(domain.MustMoney("60.00", "USD")))
	assert.True(t, acc.Balance.IsZero())

	err := acc.Debit(domain.MustMoney("0.01", "USD"))
	assert.ErrorIs(t, err, apperrors.ErrNegativeResult)
	assert.True(t, acc.Balance.IsZero(), "failed debit must not change the balance")
}

func TestAccountCredit(t *testing.T) {
	acc := activeAccount("0.00")

	require.NoError(t, acc.Credit(domain.MustMoney("25.50", "USD")))
	assert.True(t, acc.Balance.Amount.Equal(decimal.RequireFromString("25.50")))

	err := acc.Credit(domain.MustMoney("1.00", "EUR"))
	assert.ErrorIs(t, err, apperrors.ErrCurrencyMismatch)
}

func TestAccountInactiveRejectsMutation(t *testing.T) {
	for _, status := range []domain.AccountStatus{domain.AccountFrozen, domain.AccountClosed} {
		acc := activeAccount("100.00")
		acc.Status = status

		assert.ErrorIs(t, acc.Debit(domain.MustMoney("1.00", "USD")), apperrors.ErrAccountInactive)
		assert.ErrorIs(t, acc.Credit(domain.MustMoney("1.00", "USD")), apperrors.ErrAccountInactive)
		assert.True(t, acc.Balance.Amount.Equal(decimal.RequireFromString("100.00")))
	}
}

func TestAccountValidate(t *testing.T) {
	acc := activeAccount("10.00")
	require.NoError(t, acc.Validate())

	acc.HolderName = "  "
	assert.ErrorIs(t, acc.Validate(), apperrors.ErrValidation)

	acc = activeAccount("10.00")
	acc.Status = "SUSPENDED"
	assert.ErrorIs(t, acc.Validate(), apperrors.ErrValidation)
}
