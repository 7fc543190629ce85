package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrAccountNotFound indicates no account exists for the given identifier.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountInactive indicates the account no longer accepts adjustments.
	ErrAccountInactive = errors.New("account is inactive")

	// ErrTenantMismatch indicates the actor and the target account belong to
	// different tenants. Surfaced as a generic denial; callers must not leak
	// which side of the mismatch failed.
	ErrTenantMismatch = errors.New("operation not permitted")
)

// ValidationError reports a malformed or out-of-range input field. The
// operation it rejects has no side effect.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

const maxDescriptionLength = 255

func validateAdjustment(amount decimal.Decimal, description string, actor Actor) error {
	if amount.IsZero() {
		return ValidationError{Field: "amount", Reason: "must be non-zero"}
	}
	if description == "" {
		return ValidationError{Field: "description", Reason: "is required"}
	}
	if len(description) > maxDescriptionLength {
		return ValidationError{Field: "description", Reason: fmt.Sprintf("must be at most %d characters", maxDescriptionLength)}
	}
	if actor.ID == "" || actor.TenantID == "" {
		return ValidationError{Field: "actor", Reason: "is required"}
	}
	return nil
}
