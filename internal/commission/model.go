package commission

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the settlement state of a commission. The only transition is
// pending to paid; paid is terminal.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

// Commission is an accrual record earned by a reseller from a downstream
// customer payment.
type Commission struct {
	ID         string
	TenantID   string
	ResellerID string
	PaymentID  string
	InvoiceID  string
	Amount     decimal.Decimal
	Percentage decimal.Decimal
	Status     Status
	Notes      string
	PaidAt     *time.Time
	CreatedAt  time.Time
}

// Summary aggregates a reseller's commissions at a single point in time.
// Pending plus Paid always equals TotalEarned.
type Summary struct {
	TotalEarned  decimal.Decimal
	Pending      decimal.Decimal
	Paid         decimal.Decimal
	CountPending int
	CountPaid    int
}

// Stats aggregates all commissions inside a tenant.
type Stats struct {
	Total        decimal.Decimal
	Pending      decimal.Decimal
	Paid         decimal.Decimal
	TotalCount   int
	PendingCount int
	PaidCount    int
}

// ErrNotFound indicates no commission exists for the identifier.
var ErrNotFound = errors.New("commission not found")

// ErrDuplicateID indicates a commission with the same identifier already
// exists.
var ErrDuplicateID = errors.New("commission id already exists")

// InvalidStateTransitionError reports an attempt to settle a commission that
// is not pending. The record is left unchanged.
type InvalidStateTransitionError struct {
	From Status
}

func (e InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("commission cannot move from %s to %s", e.From, StatusPaid)
}
