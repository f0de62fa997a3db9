package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/finacore/bankledger/internal/apperrors"
	"github.com/finacore/bankledger/internal/core/domain"
	portsrepo "github.com/finacore/bankledger/internal/core/ports/repositories"
	portssvc "github.com/finacore/bankledger/internal/core/ports/services"
	"github.com/finacore/bankledger/internal/core/services"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx is an in-memory stand-in for a database transaction. Writes are
// staged on the tx and applied on Commit; account row locks are real mutexes
// held from acquisition until Commit or Rollback, so lock-ordering bugs in
// the engine show up as actual deadlocks here.
type fakeTx struct {
	pgx.Tx
	held          []string
	stagedAccts   map[string]domain.Account
	insertedTxns  []domain.Transaction
	statusUpdates []domain.Transaction
	stagedEntries []domain.LedgerEntry
	reservedKeys  []string
	finished      bool
}

type fakeBank struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
	rowLocks map[string]*sync.Mutex
	txns     map[string]domain.Transaction
	byKey    map[string]string
	inFlight map[string]struct{}
	entries  []domain.LedgerEntry
}

var (
	_ portsrepo.TransactionManager          = (*fakeBank)(nil)
	_ portsrepo.AccountRepositoryFacade     = (*fakeBank)(nil)
	_ portsrepo.TransactionRepositoryFacade = (*fakeBank)(nil)
	_ portsrepo.LedgerEntryRepository       = (*fakeBank)(nil)
)

func newFakeBank() *fakeBank {
	return &fakeBank{
		accounts: make(map[string]domain.Account),
		rowLocks: make(map[string]*sync.Mutex),
		txns:     make(map[string]domain.Transaction),
		byKey:    make(map[string]string),
		inFlight: make(map[string]struct{}),
	}
}

func (b *fakeBank) addAccount(account domain.Account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[account.AccountID] = account
	b.rowLocks[account.AccountID] = &sync.Mutex{}
}

// --- TransactionManager ---

func (b *fakeBank) Begin(ctx context.Context) (pgx.Tx, error) {
	return &fakeTx{stagedAccts: make(map[string]domain.Account)}, nil
}

func (b *fakeBank) Commit(ctx context.Context, tx pgx.Tx) error {
	ft := tx.(*fakeTx)
	if ft.finished {
		return errors.New("transaction already finished")
	}

	b.mu.Lock()
	for _, txn := range ft.insertedTxns {
		b.txns[txn.TransactionID] = txn
		b.byKey[txn.IdempotencyKey] = txn.TransactionID
	}
	for _, txn := range ft.statusUpdates {
		b.txns[txn.TransactionID] = txn
	}
	for id, account := range ft.stagedAccts {
		b.accounts[id] = account
	}
	b.entries = append(b.entries, ft.stagedEntries...)
	for _, key := range ft.reservedKeys {
		delete(b.inFlight, key)
	}
	b.mu.Unlock()

	b.releaseLocks(ft)
	ft.finished = true
	return nil
}

func (b *fakeBank) Rollback(ctx context.Context, tx pgx.Tx) error {
	ft := tx.(*fakeTx)
	if ft.finished {
		return nil
	}
	b.mu.Lock()
	for _, key := range ft.reservedKeys {
		delete(b.inFlight, key)
	}
	b.mu.Unlock()
	b.releaseLocks(ft)
	ft.finished = true
	return nil
}

func (b *fakeBank) releaseLocks(ft *fakeTx) {
	for i := len(ft.held) - 1; i >= 0; i-- {
		b.rowLocks[ft.held[i]].Unlock()
	}
	ft.held = nil
}

// --- AccountRepositoryFacade ---

func (b *fakeBank) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	account, ok := b.accounts[accountID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &account, nil
}

func (b *fakeBank) SaveAccount(ctx context.Context, account domain.Account) error {
	b.addAccount(account)
	return nil
}

func (b *fakeBank) UpdateAccountStatus(ctx context.Context, accountID string, status domain.AccountStatus) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	account, ok := b.accounts[accountID]
	if !ok {
		return apperrors.ErrNotFound
	}
	account.Status = status
	b.accounts[accountID] = account
	return nil
}

func (b *fakeBank) FindAccountByIDForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Account, error) {
	b.mu.Lock()
	rowLock, ok := b.rowLocks[accountID]
	b.mu.Unlock()
	if !ok {
		return nil, apperrors.ErrNotFound
	}

	// Blocks like SELECT ... FOR UPDATE until the holder commits or rolls back.
	rowLock.Lock()
	ft := tx.(*fakeTx)
	ft.held = append(ft.held, accountID)

	b.mu.Lock()
	defer b.mu.Unlock()
	account := b.accounts[accountID]
	return &account, nil
}

func (b *fakeBank) UpdateAccountBalanceInTx(ctx context.Context, tx pgx.Tx, account domain.Account) error {
	ft := tx.(*fakeTx)
	ft.stagedAccts[account.AccountID] = account
	return nil
}

// --- TransactionRepositoryFacade ---

func (b *fakeBank) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	txn, ok := b.txns[transactionID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &txn, nil
}

func (b *fakeBank) FindTransactionByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.byKey[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	txn := b.txns[id]
	return &txn, nil
}

func (b *fakeBank) ListTransactionsByAccountID(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var result []domain.Transaction
	for _, txn := range b.txns {
		if (txn.SourceAccountID != nil && *txn.SourceAccountID == accountID) ||
			(txn.DestinationAccountID != nil && *txn.DestinationAccountID == accountID) {
			result = append(result, txn)
		}
	}
	return result, nil, nil
}

func (b *fakeBank) InsertTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, committed := b.byKey[txn.IdempotencyKey]; committed {
		return fmt.Errorf("%w: idempotency key %s", apperrors.ErrDuplicate, txn.IdempotencyKey)
	}
	if _, racing := b.inFlight[txn.IdempotencyKey]; racing {
		return fmt.Errorf("%w: idempotency key %s", apperrors.ErrDuplicate, txn.IdempotencyKey)
	}
	b.inFlight[txn.IdempotencyKey] = struct{}{}

	ft := tx.(*fakeTx)
	ft.insertedTxns = append(ft.insertedTxns, txn)
	ft.reservedKeys = append(ft.reservedKeys, txn.IdempotencyKey)
	return nil
}

func (b *fakeBank) UpdateTransactionStatusInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error {
	ft := tx.(*fakeTx)
	ft.statusUpdates = append(ft.statusUpdates, txn)
	return nil
}

// --- LedgerEntryRepository ---

func (b *fakeBank) InsertEntriesInTx(ctx context.Context, tx pgx.Tx, entries []domain.LedgerEntry) error {
	ft := tx.(*fakeTx)
	ft.stagedEntries = append(ft.stagedEntries, entries...)
	return nil
}

func (b *fakeBank) FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var result []domain.LedgerEntry
	for _, e := range b.entries {
		if e.TransactionID == transactionID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (b *fakeBank) FindEntriesByAccountID(ctx context.Context, accountID string) ([]domain.LedgerEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var result []domain.LedgerEntry
	for _, e := range b.entries {
		if e.AccountID == accountID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (b *fakeBank) SumEntriesByAccountAndType(ctx context.Context, accountID string, entryType domain.EntryType) (decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sum := decimal.Zero
	for _, e := range b.entries {
		if e.AccountID == accountID && e.Type == entryType {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func newEngineOverFakeBank(bank *fakeBank) portssvc.TransactionOrchestrator {
	return services.NewTransactionService(bank, bank, bank, bank, services.NopGuard{}, nil)
}

// Opposing transfers over the same account pair would deadlock if locks were
// taken in request order instead of a fixed global order. The fake's row
// locks are real mutexes, so an ordering regression hangs this test.
func TestConcurrentOpposingTransfers(t *testing.T) {
	bank := newFakeBank()
	a := domain.Account{AccountID: "11111111-aaaa-4aaa-8aaa-aaaaaaaaaaaa", HolderName: "A", Balance: domain.MustMoney("1000.00", "USD"), Status: domain.AccountActive}
	c := domain.Account{AccountID: "22222222-bbbb-4bbb-8bbb-bbbbbbbbbbbb", HolderName: "B", Balance: domain.MustMoney("1000.00", "USD"), Status: domain.AccountActive}
	bank.addAccount(a)
	bank.addAccount(c)

	engine := newEngineOverFakeBank(bank)
	ctx := context.Background()
	const iterations = 25

	var wg sync.WaitGroup
	wg.Add(2)
	run := func(sourceID, destinationID string) {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			req := portssvc.OperationRequest{
				Amount:         decimal.RequireFromString("1.00"),
				Currency:       "USD",
				IdempotencyKey: uuid.NewString(),
				InitiatedBy:    "load-test",
			}
			_, err := engine.Transfer(ctx, sourceID, destinationID, req)
			assert.NoError(t, err)
		}
	}
	go run(a.AccountID, c.AccountID)
	go run(c.AccountID, a.AccountID)
	wg.Wait()

	finalA, err := bank.FindAccountByID(ctx, a.AccountID)
	require.NoError(t, err)
	finalC, err := bank.FindAccountByID(ctx, c.AccountID)
	require.NoError(t, err)

	// Money is conserved and opposing flows cancel out.
	total := finalA.Balance.Amount.Add(finalC.Balance.Amount)
	assert.True(t, total.Equal(decimal.RequireFromString("2000.00")), "total drifted to %s", total)
	assert.True(t, finalA.Balance.Amount.Equal(decimal.RequireFromString("1000.00")))
	assert.True(t, finalC.Balance.Amount.Equal(decimal.RequireFromString("1000.00")))

	// Every transfer posted two entries: one debit, one credit.
	bank.mu.Lock()
	txnCount := len(bank.txns)
	entryCount := len(bank.entries)
	bank.mu.Unlock()
	assert.Equal(t, 2*iterations, txnCount)
	assert.Equal(t, 4*iterations, entryCount)
}

// Concurrent requests sharing one idempotency key must move money exactly
// once: one caller wins, the rest observe the winner's transaction or a
// retryable conflict.
func TestConcurrentDuplicateDeposits(t *testing.T) {
	bank := newFakeBank()
	account := domain.Account{AccountID: "33333333-cccc-4ccc-8ccc-cccccccccccc", HolderName: "C", Balance: domain.MustMoney("0.00", "USD"), Status: domain.AccountActive}
	bank.addAccount(account)

	engine := newEngineOverFakeBank(bank)
	ctx := context.Background()
	sharedKey := uuid.NewString()
	const callers = 8

	var wg sync.WaitGroup
	wg.Add(callers)
	results := make([]error, callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			req := portssvc.OperationRequest{
				Amount:         decimal.RequireFromString("10.00"),
				Currency:       "USD",
				IdempotencyKey: sharedKey,
				InitiatedBy:    "load-test",
			}
			_, err := engine.Deposit(ctx, account.AccountID, req)
			results[i] = err
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrDuplicateInProgress)
	}
	require.GreaterOrEqual(t, successes, 1)

	final, err := bank.FindAccountByID(ctx, account.AccountID)
	require.NoError(t, err)
	assert.True(t, final.Balance.Amount.Equal(decimal.RequireFromString("10.00")), "balance is %s, deposited more than once", final.Balance.Amount)

	bank.mu.Lock()
	defer bank.mu.Unlock()
	assert.Len(t, bank.txns, 1)
	assert.Len(t, bank.entries, 1)
}

// A failed withdrawal leaves a FAILED transaction row and nothing else. A
// replay with the same key returns that FAILED row without retrying.
func TestInsufficientFundsCommitsOnlyTheFailedRow(t *testing.T) {
	bank := newFakeBank()
	account := domain.Account{AccountID: "44444444-dddd-4ddd-8ddd-dddddddddddd", HolderName: "D", Balance: domain.MustMoney("5.00", "USD"), Status: domain.AccountActive}
	bank.addAccount(account)

	engine := newEngineOverFakeBank(bank)
	ctx := context.Background()
	req := portssvc.OperationRequest{
		Amount:         decimal.RequireFromString("10.00"),
		Currency:       "USD",
		IdempotencyKey: uuid.NewString(),
		InitiatedBy:    "user-1",
	}

	_, err := engine.Withdraw(ctx, account.AccountID, req)
	require.Error(t, err)
	require.True(t, apperrors.IsInsufficientFunds(err))

	final, findErr := bank.FindAccountByID(ctx, account.AccountID)
	require.NoError(t, findErr)
	assert.True(t, final.Balance.Amount.Equal(decimal.RequireFromString("5.00")))

	failed, findErr := bank.FindTransactionByIdempotencyKey(ctx, req.IdempotencyKey)
	require.NoError(t, findErr)
	assert.Equal(t, domain.StatusFailed, failed.Status)
	require.NotNil(t, failed.CompletedAt)

	entries, findErr := bank.FindEntriesByTransactionID(ctx, failed.TransactionID)
	require.NoError(t, findErr)
	assert.Empty(t, entries)

	// Replay returns the FAILED outcome without a second attempt.
	replayed, replayErr := engine.Withdraw(ctx, account.AccountID, req)
	require.NoError(t, replayErr)
	assert.Equal(t, failed.TransactionID, replayed.TransactionID)
	assert.Equal(t, domain.StatusFailed, replayed.Status)
}
