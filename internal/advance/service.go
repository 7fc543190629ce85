package advance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/netbill/netbill/internal/audit"
	"github.com/netbill/netbill/internal/ledger"
)

// Service exposes advance payment operations.
type Service struct {
	repo  Repository
	audit audit.Recorder
}

// NewService builds an advance payment service.
func NewService(repo Repository, recorder audit.Recorder) *Service {
	return &Service{repo: repo, audit: recorder}
}

// RecordInput captures the data required to record a prepaid credit.
type RecordInput struct {
	CustomerID  string
	Amount      decimal.Decimal
	Method      string
	Reference   string
	PaymentDate time.Time
}

// Record creates a prepaid credit with the remaining balance set to the full
// amount. Wallet balances are unaffected.
func (s *Service) Record(ctx context.Context, input RecordInput, actor ledger.Actor) (AdvancePayment, error) {
	if !input.Amount.IsPositive() {
		return AdvancePayment{}, ledger.ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if input.CustomerID == "" {
		return AdvancePayment{}, ledger.ValidationError{Field: "customer_id", Reason: "is required"}
	}
	if actor.ID == "" || actor.TenantID == "" {
		return AdvancePayment{}, ledger.ValidationError{Field: "actor", Reason: "is required"}
	}
	if input.PaymentDate.IsZero() {
		input.PaymentDate = time.Now().UTC()
	}

	payment := AdvancePayment{
		ID:               uuid.NewString(),
		TenantID:         actor.TenantID,
		CustomerID:       input.CustomerID,
		Amount:           input.Amount,
		RemainingBalance: input.Amount,
		Method:           input.Method,
		Reference:        input.Reference,
		PaymentDate:      input.PaymentDate,
		ReceivedBy:       actor.ID,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, payment); err != nil {
		return AdvancePayment{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, audit.Event{
			Type:        audit.KindAdvanceRecorded,
			Description: "advance payment recorded",
			Metadata: map[string]any{
				"payment_id":  payment.ID,
				"customer_id": payment.CustomerID,
				"amount":      payment.Amount.String(),
				"received_by": actor.ID,
			},
		})
	}

	return payment, nil
}

// Consume draws down a prepaid credit on the actor's authority. The draw
// must be positive and no greater than the remaining balance, and the
// payment must belong to the actor's tenant.
func (s *Service) Consume(ctx context.Context, paymentID string, draw decimal.Decimal, actor ledger.Actor) (AdvancePayment, error) {
	if !draw.IsPositive() {
		return AdvancePayment{}, ledger.ValidationError{Field: "draw", Reason: "must be greater than zero"}
	}

	payment, err := s.repo.Get(ctx, paymentID)
	if err != nil {
		return AdvancePayment{}, err
	}
	if payment.TenantID != actor.TenantID {
		return AdvancePayment{}, ledger.ErrTenantMismatch
	}

	payment, err = s.repo.Consume(ctx, paymentID, draw)
	if err != nil {
		return AdvancePayment{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, audit.Event{
			Type:        audit.KindAdvanceConsumed,
			Description: "advance payment consumed",
			Metadata: map[string]any{
				"payment_id": payment.ID,
				"draw":       draw.String(),
				"remaining":  payment.RemainingBalance.String(),
			},
		})
	}

	return payment, nil
}

// Get retrieves an advance payment within the actor's tenant.
func (s *Service) Get(ctx context.Context, paymentID string, actor ledger.Actor) (AdvancePayment, error) {
	payment, err := s.repo.Get(ctx, paymentID)
	if err != nil {
		return AdvancePayment{}, err
	}
	if payment.TenantID != actor.TenantID {
		return AdvancePayment{}, ledger.ErrTenantMismatch
	}
	return payment, nil
}

// TotalBalance sums the customer's remaining prepaid credit within the
// actor's tenant.
func (s *Service) TotalBalance(ctx context.Context, customerID string, actor ledger.Actor) (decimal.Decimal, error) {
	return s.repo.TotalBalance(ctx, actor.TenantID, customerID)
}

// ListByCustomer returns the customer's advance payments within the actor's
// tenant, newest first.
func (s *Service) ListByCustomer(ctx context.Context, customerID string, actor ledger.Actor) ([]AdvancePayment, error) {
	return s.repo.ListByCustomer(ctx, actor.TenantID, customerID)
}
