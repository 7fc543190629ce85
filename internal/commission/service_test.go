package commission

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/netbill/netbill/internal/ledger"
)

const (
	testTenant   = "11111111-1111-1111-1111-111111111111"
	testReseller = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
	testParent   = "99999999-9999-9999-9999-999999999999"
)

var testActor = ledger.Actor{ID: "eeeeeeee-eeee-eeee-eeee-eeeeeeeeeeee", TenantID: testTenant}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedCommission(t *testing.T, repo Repository, resellerID, amount string, status Status) Commission {
	t.Helper()
	svc := NewService(repo, nil)
	accrued, err := svc.Accrue(context.Background(), AccrualInput{
		ResellerID:    resellerID,
		ResellerRole:  RoleReseller,
		PaymentID:     "payment",
		PaymentAmount: dec(amount).Mul(dec("10")), // 10% rate yields the target amount
	}, testActor)
	if err != nil {
		t.Fatalf("seed accrue: %v", err)
	}
	commission := accrued[0]
	if status == StatusPaid {
		commission, err = repo.MarkPaid(context.Background(), commission.ID, "")
		if err != nil {
			t.Fatalf("seed mark paid: %v", err)
		}
	}
	return commission
}

func TestAccrueResellerRate(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	ctx := context.Background()

	accrued, err := svc.Accrue(ctx, AccrualInput{
		ResellerID:    testReseller,
		ResellerRole:  RoleReseller,
		PaymentID:     "payment-1",
		InvoiceID:     "invoice-1",
		PaymentAmount: dec("200.00"),
	}, testActor)
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if len(accrued) != 1 {
		t.Fatalf("expected one commission, got %d", len(accrued))
	}
	commission := accrued[0]
	if !commission.Amount.Equal(dec("20.00")) {
		t.Fatalf("expected 10%% commission of 20.00, got %s", commission.Amount)
	}
	if commission.Status != StatusPending {
		t.Fatalf("new commission not pending: %s", commission.Status)
	}
	if commission.TenantID != testTenant {
		t.Fatalf("commission not stamped with tenant")
	}
}

func TestAccrueSubResellerWithParent(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	ctx := context.Background()

	accrued, err := svc.Accrue(ctx, AccrualInput{
		ResellerID:    testReseller,
		ResellerRole:  RoleSubReseller,
		ParentID:      testParent,
		ParentRole:    RoleReseller,
		PaymentID:     "payment-2",
		PaymentAmount: dec("100.00"),
	}, testActor)
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if len(accrued) != 2 {
		t.Fatalf("expected sub-reseller and parent commissions, got %d", len(accrued))
	}
	if !accrued[0].Amount.Equal(dec("5.00")) {
		t.Fatalf("expected 5%% sub-reseller cut, got %s", accrued[0].Amount)
	}
	if !accrued[1].Amount.Equal(dec("3.00")) || accrued[1].ResellerID != testParent {
		t.Fatalf("expected 3%% parent cut for %s, got %s for %s", testParent, accrued[1].Amount, accrued[1].ResellerID)
	}
}

func TestAccrueNonCommissionableRole(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)

	accrued, err := svc.Accrue(context.Background(), AccrualInput{
		ResellerID:    testReseller,
		ResellerRole:  Role("card-distributor"),
		PaymentID:     "payment-3",
		PaymentAmount: dec("100.00"),
	}, testActor)
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if len(accrued) != 0 {
		t.Fatalf("expected no commissions for non-commissionable role, got %d", len(accrued))
	}
}

func TestSummarizeIsMutuallyConsistent(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	seedCommission(t, repo, testReseller, "50.00", StatusPending)
	seedCommission(t, repo, testReseller, "30.00", StatusPaid)

	summary, err := svc.Summarize(ctx, testReseller, testActor)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if !summary.TotalEarned.Equal(dec("80.00")) {
		t.Fatalf("expected total 80.00, got %s", summary.TotalEarned)
	}
	if !summary.Pending.Equal(dec("50.00")) || !summary.Paid.Equal(dec("30.00")) {
		t.Fatalf("expected pending 50.00 / paid 30.00, got %s / %s", summary.Pending, summary.Paid)
	}
	if summary.CountPending != 1 || summary.CountPaid != 1 {
		t.Fatalf("unexpected counts: %d pending, %d paid", summary.CountPending, summary.CountPaid)
	}
	if !summary.Pending.Add(summary.Paid).Equal(summary.TotalEarned) {
		t.Fatalf("pending %s + paid %s != total %s", summary.Pending, summary.Paid, summary.TotalEarned)
	}
}

func TestMarkPaidMovesSummaryToPaid(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	pending := seedCommission(t, repo, testReseller, "50.00", StatusPending)
	seedCommission(t, repo, testReseller, "30.00", StatusPaid)

	paid, err := svc.MarkPaid(ctx, pending.ID, "settled in cash", testActor)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.Status != StatusPaid || paid.PaidAt == nil {
		t.Fatalf("commission not settled: %+v", paid)
	}
	if paid.Notes != "settled in cash" {
		t.Fatalf("notes not recorded: %q", paid.Notes)
	}

	summary, err := svc.Summarize(ctx, testReseller, testActor)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if !summary.Pending.IsZero() || !summary.Paid.Equal(dec("80.00")) || !summary.TotalEarned.Equal(dec("80.00")) {
		t.Fatalf("expected 0 pending / 80.00 paid / 80.00 total, got %s / %s / %s",
			summary.Pending, summary.Paid, summary.TotalEarned)
	}
}

func TestMarkPaidIsTerminal(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	paid := seedCommission(t, repo, testReseller, "30.00", StatusPaid)
	firstPaidAt := *paid.PaidAt

	_, err := svc.MarkPaid(ctx, paid.ID, "again", testActor)
	var invalidState InvalidStateTransitionError
	if !errors.As(err, &invalidState) {
		t.Fatalf("expected InvalidStateTransitionError, got %v", err)
	}
	if invalidState.From != StatusPaid {
		t.Fatalf("unexpected transition source %s", invalidState.From)
	}

	// Row unchanged.
	unchanged, err := repo.Get(ctx, paid.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !unchanged.Amount.Equal(paid.Amount) || unchanged.Notes != paid.Notes || !unchanged.PaidAt.Equal(firstPaidAt) {
		t.Fatalf("failed settlement mutated the record: %+v", unchanged)
	}
}

func TestMarkPaidCrossTenantDenied(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, nil)

	pending := seedCommission(t, repo, testReseller, "50.00", StatusPending)

	outsider := ledger.Actor{ID: "ffffffff-ffff-ffff-ffff-ffffffffffff", TenantID: "22222222-2222-2222-2222-222222222222"}
	if _, err := svc.MarkPaid(context.Background(), pending.ID, "", outsider); !errors.Is(err, ledger.ErrTenantMismatch) {
		t.Fatalf("expected ErrTenantMismatch, got %v", err)
	}

	unchanged, _ := repo.Get(context.Background(), pending.ID)
	if unchanged.Status != StatusPending {
		t.Fatalf("cross-tenant settlement changed status to %s", unchanged.Status)
	}
}

func TestTenantStatsAggregatesAllResellers(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	seedCommission(t, repo, testReseller, "50.00", StatusPending)
	seedCommission(t, repo, testParent, "30.00", StatusPaid)

	stats, err := svc.TenantStats(ctx, testActor)
	if err != nil {
		t.Fatalf("tenant stats: %v", err)
	}
	if !stats.Total.Equal(dec("80.00")) || stats.TotalCount != 2 {
		t.Fatalf("expected total 80.00 over 2 rows, got %s over %d", stats.Total, stats.TotalCount)
	}
	if stats.PendingCount != 1 || stats.PaidCount != 1 {
		t.Fatalf("unexpected counts: %d pending, %d paid", stats.PendingCount, stats.PaidCount)
	}
}

func TestMarkAllPaidSettlesOnlyPending(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	seedCommission(t, repo, testReseller, "50.00", StatusPending)
	seedCommission(t, repo, testReseller, "20.00", StatusPending)
	seedCommission(t, repo, testReseller, "30.00", StatusPaid)

	settled, err := svc.MarkAllPaid(ctx, testReseller, "monthly settlement", testActor)
	if err != nil {
		t.Fatalf("mark all paid: %v", err)
	}
	if len(settled) != 2 {
		t.Fatalf("expected 2 settled commissions, got %d", len(settled))
	}
	for _, commission := range settled {
		if commission.Status != StatusPaid || commission.PaidAt == nil || commission.Notes != "monthly settlement" {
			t.Fatalf("commission not settled: %+v", commission)
		}
	}

	summary, err := svc.Summarize(ctx, testReseller, testActor)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if !summary.Pending.IsZero() || !summary.Paid.Equal(dec("100.00")) {
		t.Fatalf("expected 0 pending / 100.00 paid, got %s / %s", summary.Pending, summary.Paid)
	}

	// Nothing left to settle on a repeat call.
	again, err := svc.MarkAllPaid(ctx, testReseller, "", testActor)
	if err != nil {
		t.Fatalf("repeat mark all paid: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("repeat settlement touched %d commissions", len(again))
	}
}

func TestMarkAllPaidIsTenantScoped(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	pending := seedCommission(t, repo, testReseller, "50.00", StatusPending)

	outsider := ledger.Actor{ID: "ffffffff-ffff-ffff-ffff-ffffffffffff", TenantID: "22222222-2222-2222-2222-222222222222"}
	settled, err := svc.MarkAllPaid(ctx, testReseller, "", outsider)
	if err != nil {
		t.Fatalf("mark all paid: %v", err)
	}
	if len(settled) != 0 {
		t.Fatalf("foreign tenant settled %d commissions", len(settled))
	}

	unchanged, _ := repo.Get(ctx, pending.ID)
	if unchanged.Status != StatusPending {
		t.Fatalf("foreign settlement changed status to %s", unchanged.Status)
	}
}

func TestSummariesAreTenantScoped(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	seedCommission(t, repo, testReseller, "50.00", StatusPending)

	outsider := ledger.Actor{ID: "ffffffff-ffff-ffff-ffff-ffffffffffff", TenantID: "22222222-2222-2222-2222-222222222222"}

	summary, err := svc.Summarize(ctx, testReseller, outsider)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if !summary.TotalEarned.IsZero() || summary.CountPending != 0 {
		t.Fatalf("foreign tenant sees summary %+v", summary)
	}

	commissions, err := svc.ListByReseller(ctx, testReseller, outsider)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(commissions) != 0 {
		t.Fatalf("foreign tenant sees %d commissions", len(commissions))
	}
}

func TestCreateAllIsAllOrNothing(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	existing := seedCommission(t, repo, testReseller, "50.00", StatusPending)

	fresh := existing
	fresh.ID = "11111111-2222-3333-4444-555555555555"
	if err := repo.CreateAll(ctx, []Commission{fresh, existing}); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	// The batch failed, so its first element must not have landed either.
	if _, err := repo.Get(ctx, fresh.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("partial batch persisted: %v", err)
	}
}
