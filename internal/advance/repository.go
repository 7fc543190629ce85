package advance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/netbill/netbill/internal/infra"
)

// Repository persists advance payments. Aggregate queries carry the tenant
// so rows never cross tenant boundaries.
type Repository interface {
	Create(ctx context.Context, payment AdvancePayment) error
	Get(ctx context.Context, id string) (AdvancePayment, error)
	Consume(ctx context.Context, id string, draw decimal.Decimal) (AdvancePayment, error)
	TotalBalance(ctx context.Context, tenantID, customerID string) (decimal.Decimal, error)
	ListByCustomer(ctx context.Context, tenantID, customerID string) ([]AdvancePayment, error)
}

// PostgresRepository stores advance payments in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts an advance payment row.
func (r *PostgresRepository) Create(ctx context.Context, payment AdvancePayment) error {
	id, err := uuid.Parse(payment.ID)
	if err != nil {
		return err
	}
	tenantID, err := uuid.Parse(payment.TenantID)
	if err != nil {
		return err
	}
	customerID, err := uuid.Parse(payment.CustomerID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO advance_payments
        (id, tenant_id, customer_id, amount, remaining_balance, method, reference, payment_date, received_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, tenantID, customerID, payment.Amount, payment.RemainingBalance,
		payment.Method, payment.Reference, payment.PaymentDate.UTC(), payment.ReceivedBy, payment.CreatedAt.UTC())
	return err
}

// Get fetches an advance payment by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (AdvancePayment, error) {
	paymentID, err := uuid.Parse(id)
	if err != nil {
		return AdvancePayment{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, tenant_id, customer_id, amount, remaining_balance, method, reference, payment_date, received_by, created_at
        FROM advance_payments WHERE id = $1`, paymentID)
	return scanPayment(row)
}

// Consume atomically draws down the remaining balance. The payment row is
// locked so two concurrent draws cannot both pass the balance check.
func (r *PostgresRepository) Consume(ctx context.Context, id string, draw decimal.Decimal) (AdvancePayment, error) {
	paymentID, err := uuid.Parse(id)
	if err != nil {
		return AdvancePayment{}, ErrNotFound
	}

	var payment AdvancePayment
	err = infra.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT id, tenant_id, customer_id, amount, remaining_balance, method, reference, payment_date, received_by, created_at
            FROM advance_payments WHERE id = $1 FOR UPDATE`, paymentID)
		p, err := scanPayment(row)
		if err != nil {
			return err
		}

		if draw.GreaterThan(p.RemainingBalance) {
			return InsufficientBalanceError{Requested: draw, Remaining: p.RemainingBalance}
		}

		p.RemainingBalance = p.RemainingBalance.Sub(draw)
		if _, err := tx.Exec(ctx, `UPDATE advance_payments SET remaining_balance = $1 WHERE id = $2`,
			p.RemainingBalance, paymentID); err != nil {
			return err
		}
		payment = p
		return nil
	})
	if err != nil {
		return AdvancePayment{}, err
	}
	return payment, nil
}

// TotalBalance sums the remaining balances of the customer's advance
// payments within the tenant at query time.
func (r *PostgresRepository) TotalBalance(ctx context.Context, tenantID, customerID string) (decimal.Decimal, error) {
	id, err := uuid.Parse(customerID)
	if err != nil {
		return decimal.Zero, ErrNotFound
	}
	var total decimal.Decimal
	if err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(remaining_balance), 0)
        FROM advance_payments WHERE tenant_id = $1 AND customer_id = $2`, tenantID, id).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// ListByCustomer returns the customer's advance payments within the tenant,
// newest first.
func (r *PostgresRepository) ListByCustomer(ctx context.Context, tenantID, customerID string) ([]AdvancePayment, error) {
	id, err := uuid.Parse(customerID)
	if err != nil {
		return nil, ErrNotFound
	}
	rows, err := r.db.Query(ctx, `SELECT id, tenant_id, customer_id, amount, remaining_balance, method, reference, payment_date, received_by, created_at
        FROM advance_payments WHERE tenant_id = $1 AND customer_id = $2 ORDER BY created_at DESC, id DESC`, tenantID, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AdvancePayment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, payment)
	}
	return out, rows.Err()
}

func scanPayment(row pgx.Row) (AdvancePayment, error) {
	var (
		payment     AdvancePayment
		id          uuid.UUID
		tenantID    uuid.UUID
		customerID  uuid.UUID
		paymentDate time.Time
		createdAt   time.Time
	)
	if err := row.Scan(&id, &tenantID, &customerID, &payment.Amount, &payment.RemainingBalance,
		&payment.Method, &payment.Reference, &paymentDate, &payment.ReceivedBy, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AdvancePayment{}, ErrNotFound
		}
		return AdvancePayment{}, err
	}
	payment.ID = id.String()
	payment.TenantID = tenantID.String()
	payment.CustomerID = customerID.String()
	payment.PaymentDate = paymentDate.UTC()
	payment.CreatedAt = createdAt.UTC()
	return payment, nil
}
