package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Actor identifies the user on whose authority a mutating operation runs.
// Every mutation receives an explicit actor; there is no ambient auth state.
type Actor struct {
	ID       string
	TenantID string
}

// Account is a tenant-scoped balance holder. The balance always equals the
// sum of the amounts of its transactions.
type Account struct {
	ID        string
	TenantID  string
	Balance   decimal.Decimal
	Active    bool
	CreatedAt time.Time
}

// Transaction is an immutable ledger entry. BalanceAfter snapshots the
// account balance that resulted from applying this entry.
type Transaction struct {
	ID           string
	AccountID    string
	Amount       decimal.Decimal
	Description  string
	ActorID      string
	BalanceAfter decimal.Decimal
	CreatedAt    time.Time
}

// Page bounds a history read so it can be resumed where it left off.
type Page struct {
	Limit  int
	Offset int
}

const defaultHistoryLimit = 50

func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = defaultHistoryLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Ledger defines the contract implemented by ledger backends (e.g. Postgres).
type Ledger interface {
	EnsureAccount(ctx context.Context, tenantID, accountID string) error
	Account(ctx context.Context, accountID string) (Account, error)
	Adjust(ctx context.Context, accountID string, amount decimal.Decimal, description string, actor Actor) (Transaction, error)
	History(ctx context.Context, accountID string, page Page) ([]Transaction, error)
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)
}
