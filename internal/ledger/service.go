package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/netbill/netbill/internal/audit"
)

// Service exposes wallet ledger operations and emits audit events for
// mutations. Every operation runs on an explicit actor and is confined to
// the actor's tenant; audit delivery is best-effort and never fails the
// operation.
type Service struct {
	store Ledger
	audit audit.Recorder
}

// NewService builds a ledger service on top of a backend.
func NewService(store Ledger, recorder audit.Recorder) *Service {
	return &Service{store: store, audit: recorder}
}

// EnsureAccount provisions an account in the actor's tenant if it does not
// exist and returns it. When the identifier already belongs to another
// tenant's account the actor is denied without seeing the row.
func (s *Service) EnsureAccount(ctx context.Context, accountID string, actor Actor) (Account, error) {
	if err := s.store.EnsureAccount(ctx, actor.TenantID, accountID); err != nil {
		return Account{}, err
	}
	return s.Account(ctx, accountID, actor)
}

// Account retrieves account metadata within the actor's tenant.
func (s *Service) Account(ctx context.Context, accountID string, actor Actor) (Account, error) {
	account, err := s.store.Account(ctx, accountID)
	if err != nil {
		return Account{}, err
	}
	if account.TenantID != actor.TenantID {
		return Account{}, ErrTenantMismatch
	}
	return account, nil
}

// Adjust applies a signed balance change on the actor's authority.
func (s *Service) Adjust(ctx context.Context, accountID string, amount decimal.Decimal, description string, actor Actor) (Transaction, error) {
	txn, err := s.store.Adjust(ctx, accountID, amount, description, actor)
	if err != nil {
		return Transaction{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, audit.Event{
			Type:        audit.KindWalletAdjusted,
			Description: txn.Description,
			Metadata: map[string]any{
				"account_id":    txn.AccountID,
				"transaction":   txn.ID,
				"amount":        txn.Amount.String(),
				"balance_after": txn.BalanceAfter.String(),
				"actor_id":      actor.ID,
			},
		})
	}

	return txn, nil
}

// History lists ledger entries for an account in the actor's tenant,
// newest first.
func (s *Service) History(ctx context.Context, accountID string, page Page, actor Actor) ([]Transaction, error) {
	if _, err := s.Account(ctx, accountID, actor); err != nil {
		return nil, err
	}
	return s.store.History(ctx, accountID, page)
}

// Balance returns the current balance of an account in the actor's tenant.
func (s *Service) Balance(ctx context.Context, accountID string, actor Actor) (decimal.Decimal, error) {
	account, err := s.Account(ctx, accountID, actor)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}
