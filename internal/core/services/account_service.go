package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finacore/bankledger/internal/apperrors"
	"github.com/finacore/bankledger/internal/core/domain"
	portsrepo "github.com/finacore/bankledger/internal/core/ports/repositories"
	portssvc "github.com/finacore/bankledger/internal/core/ports/services"
	"github.com/finacore/bankledger/internal/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// accountService manages account lifecycle. Balance mutation is the
// orchestrator's job; this service never touches balances after creation.
type accountService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	now         func() time.Time
}

// NewAccountService creates a new account service.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade) portssvc.AccountSvcFacade {
	return &accountService{
		accountRepo: accountRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount opens a new ACTIVE account with a non-negative initial balance.
func (s *accountService) CreateAccount(ctx context.Context, holderName string, initialBalance decimal.Decimal, currency string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	balance, err := domain.NewMoney(initialBalance, currency)
	if err != nil {
		return nil, err
	}

	now := s.now()
	account := domain.Account{
		AccountID:  uuid.NewString(),
		HolderName: holderName,
		Balance:    balance,
		Status:     domain.AccountActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("holder", holderName))
	return &account, nil
}

// GetAccount retrieves an account by ID.
func (s *accountService) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	return account, nil
}

// FreezeAccount suspends an ACTIVE account. Frozen accounts reject debits
// and credits but may be reactivated by closing-side tooling later.
func (s *accountService) FreezeAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.transition(ctx, accountID, domain.AccountFrozen)
}

// CloseAccount permanently closes an account. CLOSED is terminal: the record
// is kept forever, never deleted.
func (s *accountService) CloseAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.transition(ctx, accountID, domain.AccountClosed)
}

func (s *accountService) transition(ctx context.Context, accountID string, target domain.AccountStatus) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	if account.Status == domain.AccountClosed {
		return nil, fmt.Errorf("%w: account %s is closed", apperrors.ErrAccountInactive, accountID)
	}
	if account.Status == target {
		return account, nil
	}

	if err := s.accountRepo.UpdateAccountStatus(ctx, accountID, target); err != nil {
		logger.Error("Failed to update account status", slog.String("account_id", accountID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to update status of account %s: %w", accountID, err)
	}

	account.Status = target
	account.UpdatedAt = s.now()
	logger.Info("Account status changed", slog.String("account_id", accountID), slog.String("status", string(target)))
	return account, nil
}
