package advance

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AdvancePayment is a prepaid credit pool for a customer, drawn down by
// later consumption. It is distinct from wallet cash: recording one never
// touches any wallet balance.
type AdvancePayment struct {
	ID               string
	TenantID         string
	CustomerID       string
	Amount           decimal.Decimal
	RemainingBalance decimal.Decimal
	Method           string
	Reference        string
	PaymentDate      time.Time
	ReceivedBy       string
	CreatedAt        time.Time
}

// ErrNotFound indicates no advance payment exists for the identifier.
var ErrNotFound = errors.New("advance payment not found")

// InsufficientBalanceError reports a draw exceeding the remaining balance.
type InsufficientBalanceError struct {
	Requested decimal.Decimal
	Remaining decimal.Decimal
}

func (e InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient advance balance: requested %s, remaining %s (short %s)",
		e.Requested, e.Remaining, e.Shortfall())
}

// Shortfall is the amount by which the draw exceeds the remaining balance.
func (e InsufficientBalanceError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Remaining)
}
