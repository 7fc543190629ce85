package commission

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Commission
}

// NewMemoryRepository constructs an in-memory repository for tests and
// database-less development runs.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Commission)}
}

func (r *memoryRepository) CreateAll(_ context.Context, commissions []Commission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// All-or-nothing: reject the whole batch before touching storage.
	for _, commission := range commissions {
		if _, exists := r.storage[commission.ID]; exists {
			return ErrDuplicateID
		}
	}
	for _, commission := range commissions {
		r.storage[commission.ID] = commission
	}
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Commission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	commission, ok := r.storage[id]
	if !ok {
		return Commission{}, ErrNotFound
	}
	return commission, nil
}

func (r *memoryRepository) ListByReseller(_ context.Context, tenantID, resellerID string) ([]Commission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Commission
	for _, commission := range r.storage {
		if commission.TenantID == tenantID && commission.ResellerID == resellerID {
			out = append(out, commission)
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

func (r *memoryRepository) Summarize(_ context.Context, tenantID, resellerID string) (Summary, error) {
	// Single pass under one lock acquisition: the three figures always come
	// from the same snapshot.
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary := Summary{TotalEarned: decimal.Zero, Pending: decimal.Zero, Paid: decimal.Zero}
	for _, commission := range r.storage {
		if commission.TenantID != tenantID || commission.ResellerID != resellerID {
			continue
		}
		switch commission.Status {
		case StatusPending:
			summary.Pending = summary.Pending.Add(commission.Amount)
			summary.CountPending++
		case StatusPaid:
			summary.Paid = summary.Paid.Add(commission.Amount)
			summary.CountPaid++
		}
	}
	summary.TotalEarned = summary.Pending.Add(summary.Paid)
	return summary, nil
}

func (r *memoryRepository) MarkPaid(_ context.Context, id, notes string) (Commission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	commission, ok := r.storage[id]
	if !ok {
		return Commission{}, ErrNotFound
	}
	if commission.Status != StatusPending {
		return Commission{}, InvalidStateTransitionError{From: commission.Status}
	}

	now := time.Now().UTC()
	if notes == "" {
		notes = "Commission paid"
	}
	commission.Status = StatusPaid
	commission.PaidAt = &now
	commission.Notes = notes
	r.storage[id] = commission
	return commission, nil
}

func (r *memoryRepository) MarkAllPaid(_ context.Context, tenantID, resellerID, notes string) ([]Commission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if notes == "" {
		notes = "Commission paid"
	}
	now := time.Now().UTC()

	var out []Commission
	for id, commission := range r.storage {
		if commission.TenantID != tenantID || commission.ResellerID != resellerID || commission.Status != StatusPending {
			continue
		}
		commission.Status = StatusPaid
		commission.PaidAt = &now
		commission.Notes = notes
		r.storage[id] = commission
		out = append(out, commission)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *memoryRepository) TenantStats(_ context.Context, tenantID string) (Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{Total: decimal.Zero, Pending: decimal.Zero, Paid: decimal.Zero}
	for _, commission := range r.storage {
		if commission.TenantID != tenantID {
			continue
		}
		switch commission.Status {
		case StatusPending:
			stats.Pending = stats.Pending.Add(commission.Amount)
			stats.PendingCount++
		case StatusPaid:
			stats.Paid = stats.Paid.Add(commission.Amount)
			stats.PaidCount++
		}
	}
	stats.Total = stats.Pending.Add(stats.Paid)
	stats.TotalCount = stats.PendingCount + stats.PaidCount
	return stats, nil
}
