package commission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/netbill/netbill/internal/audit"
	"github.com/netbill/netbill/internal/ledger"
)

// Role is the position of a reseller in the tenant's sales hierarchy. Role
// resolution happens upstream; callers pass the resolved role in.
type Role string

const (
	RoleReseller    Role = "reseller"
	RoleSubReseller Role = "sub-reseller"
)

// Default accrual percentages per role, with a reduced cut for the parent
// reseller of a sub-reseller.
var (
	rateReseller    = decimal.NewFromInt(10)
	rateSubReseller = decimal.NewFromInt(5)
	rateParent      = decimal.NewFromInt(3)

	oneHundred = decimal.NewFromInt(100)
)

// Service exposes commission accrual and settlement operations.
type Service struct {
	repo  Repository
	audit audit.Recorder
}

// NewService builds a commission service.
func NewService(repo Repository, recorder audit.Recorder) *Service {
	return &Service{repo: repo, audit: recorder}
}

// AccrualInput describes a settled customer payment for which commissions
// are due.
type AccrualInput struct {
	ResellerID    string
	ResellerRole  Role
	ParentID      string
	ParentRole    Role
	PaymentID     string
	InvoiceID     string
	PaymentAmount decimal.Decimal
}

// Accrue creates pending commissions for the reseller that owns the paying
// customer, plus a parent-reseller commission when a sub-reseller's customer
// pays. Resellers without a commissionable role accrue nothing.
func (s *Service) Accrue(ctx context.Context, input AccrualInput, actor ledger.Actor) ([]Commission, error) {
	if !input.PaymentAmount.IsPositive() {
		return nil, ledger.ValidationError{Field: "payment_amount", Reason: "must be greater than zero"}
	}
	if input.ResellerID == "" {
		return nil, ledger.ValidationError{Field: "reseller_id", Reason: "is required"}
	}
	if actor.ID == "" || actor.TenantID == "" {
		return nil, ledger.ValidationError{Field: "actor", Reason: "is required"}
	}

	rate, ok := rateForRole(input.ResellerRole)
	if !ok {
		return nil, nil
	}

	accrued := []Commission{newCommission(actor.TenantID, input.ResellerID, input, rate)}

	// A sub-reseller's parent takes a reduced cut of the same payment.
	if input.ResellerRole == RoleSubReseller && input.ParentID != "" && input.ParentRole == RoleReseller {
		accrued = append(accrued, newCommission(actor.TenantID, input.ParentID, input, rateParent))
	}

	// One transactional insert: a failed parent accrual never strands the
	// sub-reseller's commission.
	if err := s.repo.CreateAll(ctx, accrued); err != nil {
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, audit.Event{
			Type:        audit.KindCommissionAccrued,
			Description: "commissions accrued for payment",
			Metadata: map[string]any{
				"payment_id": input.PaymentID,
				"count":      len(accrued),
				"actor_id":   actor.ID,
			},
		})
	}

	return accrued, nil
}

// Summarize aggregates the reseller's commissions within the actor's tenant
// from one snapshot.
func (s *Service) Summarize(ctx context.Context, resellerID string, actor ledger.Actor) (Summary, error) {
	return s.repo.Summarize(ctx, actor.TenantID, resellerID)
}

// ListByReseller returns the reseller's commissions within the actor's
// tenant, newest first.
func (s *Service) ListByReseller(ctx context.Context, resellerID string, actor ledger.Actor) ([]Commission, error) {
	return s.repo.ListByReseller(ctx, actor.TenantID, resellerID)
}

// MarkPaid settles a pending commission on the actor's authority.
func (s *Service) MarkPaid(ctx context.Context, commissionID, notes string, actor ledger.Actor) (Commission, error) {
	commission, err := s.repo.Get(ctx, commissionID)
	if err != nil {
		return Commission{}, err
	}
	if commission.TenantID != actor.TenantID {
		return Commission{}, ledger.ErrTenantMismatch
	}

	commission, err = s.repo.MarkPaid(ctx, commissionID, notes)
	if err != nil {
		return Commission{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, audit.Event{
			Type:        audit.KindCommissionPaid,
			Description: commission.Notes,
			Metadata: map[string]any{
				"commission_id": commission.ID,
				"reseller_id":   commission.ResellerID,
				"amount":        commission.Amount.String(),
				"actor_id":      actor.ID,
			},
		})
	}

	return commission, nil
}

// MarkAllPaid settles every pending commission of the reseller within the
// actor's tenant and returns the settled records.
func (s *Service) MarkAllPaid(ctx context.Context, resellerID, notes string, actor ledger.Actor) ([]Commission, error) {
	if resellerID == "" {
		return nil, ledger.ValidationError{Field: "reseller_id", Reason: "is required"}
	}

	settled, err := s.repo.MarkAllPaid(ctx, actor.TenantID, resellerID, notes)
	if err != nil {
		return nil, err
	}

	if s.audit != nil && len(settled) > 0 {
		total := decimal.Zero
		for _, commission := range settled {
			total = total.Add(commission.Amount)
		}
		_ = s.audit.Record(ctx, audit.Event{
			Type:        audit.KindCommissionPaid,
			Description: "pending commissions settled in bulk",
			Metadata: map[string]any{
				"reseller_id": resellerID,
				"count":       len(settled),
				"total":       total.String(),
				"actor_id":    actor.ID,
			},
		})
	}

	return settled, nil
}

// TenantStats aggregates every commission in the actor's tenant.
func (s *Service) TenantStats(ctx context.Context, actor ledger.Actor) (Stats, error) {
	return s.repo.TenantStats(ctx, actor.TenantID)
}

func rateForRole(role Role) (decimal.Decimal, bool) {
	switch role {
	case RoleReseller:
		return rateReseller, true
	case RoleSubReseller:
		return rateSubReseller, true
	default:
		return decimal.Zero, false
	}
}

func newCommission(tenantID, resellerID string, input AccrualInput, rate decimal.Decimal) Commission {
	return Commission{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		ResellerID: resellerID,
		PaymentID:  input.PaymentID,
		InvoiceID:  input.InvoiceID,
		Amount:     input.PaymentAmount.Mul(rate).Div(oneHundred),
		Percentage: rate,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
}
