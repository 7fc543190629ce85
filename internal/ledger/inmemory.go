package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type inMemoryLedger struct {
	mu       sync.RWMutex
	accounts map[string]Account
	history  map[string][]Transaction
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit
// tests and for running without a database in development.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		accounts: make(map[string]Account),
		history:  make(map[string][]Transaction),
	}
}

func (l *inMemoryLedger) EnsureAccount(_ context.Context, tenantID, accountID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.accounts[accountID]; !exists {
		l.accounts[accountID] = Account{
			ID:        accountID,
			TenantID:  tenantID,
			Balance:   decimal.Zero,
			Active:    true,
			CreatedAt: time.Now().UTC(),
		}
	}
	return nil
}

func (l *inMemoryLedger) Account(_ context.Context, accountID string) (Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	account, ok := l.accounts[accountID]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (l *inMemoryLedger) Adjust(_ context.Context, accountID string, amount decimal.Decimal, description string, actor Actor) (Transaction, error) {
	if err := validateAdjustment(amount, description, actor); err != nil {
		return Transaction{}, err
	}

	// The read-modify-write of the balance plus the history append is one
	// critical section per ledger; concurrent adjustments serialize here.
	l.mu.Lock()
	defer l.mu.Unlock()

	account, ok := l.accounts[accountID]
	if !ok {
		return Transaction{}, ErrAccountNotFound
	}
	if account.TenantID != actor.TenantID {
		return Transaction{}, ErrTenantMismatch
	}
	if !account.Active {
		return Transaction{}, ErrAccountInactive
	}

	account.Balance = account.Balance.Add(amount)
	l.accounts[accountID] = account

	txn := Transaction{
		ID:           uuid.NewString(),
		AccountID:    accountID,
		Amount:       amount,
		Description:  description,
		ActorID:      actor.ID,
		BalanceAfter: account.Balance,
		CreatedAt:    time.Now().UTC(),
	}
	l.history[accountID] = append(l.history[accountID], txn)
	return txn, nil
}

func (l *inMemoryLedger) History(_ context.Context, accountID string, page Page) ([]Transaction, error) {
	page = page.normalize()

	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.accounts[accountID]; !ok {
		return nil, ErrAccountNotFound
	}

	entries := l.history[accountID]
	// Entries are appended in commit order; history reads newest first.
	out := make([]Transaction, 0, page.Limit)
	for i := len(entries) - 1 - page.Offset; i >= 0 && len(out) < page.Limit; i-- {
		out = append(out, entries[i])
	}
	return out, nil
}

func (l *inMemoryLedger) Balance(_ context.Context, accountID string) (decimal.Decimal, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	account, ok := l.accounts[accountID]
	if !ok {
		return decimal.Zero, ErrAccountNotFound
	}
	return account.Balance, nil
}
