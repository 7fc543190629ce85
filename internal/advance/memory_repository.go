package advance

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]AdvancePayment
}

// NewMemoryRepository constructs an in-memory repository for tests and
// database-less development runs.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]AdvancePayment)}
}

func (r *memoryRepository) Create(_ context.Context, payment AdvancePayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storage[payment.ID] = payment
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (AdvancePayment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	payment, ok := r.storage[id]
	if !ok {
		return AdvancePayment{}, ErrNotFound
	}
	return payment, nil
}

func (r *memoryRepository) Consume(_ context.Context, id string, draw decimal.Decimal) (AdvancePayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment, ok := r.storage[id]
	if !ok {
		return AdvancePayment{}, ErrNotFound
	}
	if draw.GreaterThan(payment.RemainingBalance) {
		return AdvancePayment{}, InsufficientBalanceError{Requested: draw, Remaining: payment.RemainingBalance}
	}
	payment.RemainingBalance = payment.RemainingBalance.Sub(draw)
	r.storage[id] = payment
	return payment, nil
}

func (r *memoryRepository) TotalBalance(_ context.Context, tenantID, customerID string) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := decimal.Zero
	for _, payment := range r.storage {
		if payment.TenantID == tenantID && payment.CustomerID == customerID {
			total = total.Add(payment.RemainingBalance)
		}
	}
	return total, nil
}

func (r *memoryRepository) ListByCustomer(_ context.Context, tenantID, customerID string) ([]AdvancePayment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []AdvancePayment
	for _, payment := range r.storage {
		if payment.TenantID == tenantID && payment.CustomerID == customerID {
			out = append(out, payment)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
