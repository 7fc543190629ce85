package commission

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

// Repository persists commission records. Reseller queries carry the tenant
// so rows never cross tenant boundaries.
type Repository interface {
	CreateAll(ctx context.Context, commissions []Commission) error
	Get(ctx context.Context, id string) (Commission, error)
	ListByReseller(ctx context.Context, tenantID, resellerID string) ([]Commission, error)
	Summarize(ctx context.Context, tenantID, resellerID string) (Summary, error)
	MarkPaid(ctx context.Context, id, notes string) (Commission, error)
	MarkAllPaid(ctx context.Context, tenantID, resellerID, notes string) ([]Commission, error)
	TenantStats(ctx context.Context, tenantID string) (Stats, error)
}

// PostgresRepository stores commissions in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateAll inserts the commission rows in one transaction, so a multi-level
// accrual either lands completely or not at all.
func (r *PostgresRepository) CreateAll(ctx context.Context, commissions []Commission) error {
	return infra.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		for _, commission := range commissions {
			id, err := uuid.Parse(commission.ID)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `INSERT INTO commissions
                (id, tenant_id, reseller_id, payment_id, invoice_id, amount, percentage, status, notes, paid_at, created_at)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				id, commission.TenantID, commission.ResellerID, commission.PaymentID, commission.InvoiceID,
				commission.Amount, commission.Percentage, string(commission.Status), commission.Notes,
				commission.PaidAt, commission.CreatedAt.UTC()); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get fetches a commission by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Commission, error) {
	commissionID, err := uuid.Parse(id)
	if err != nil {
		return Commission{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, selectColumns+` WHERE id = $1`, commissionID)
	return scanCommission(row)
}

// ListByReseller returns the reseller's commissions within the tenant,
// newest first.
func (r *PostgresRepository) ListByReseller(ctx context.Context, tenantID, resellerID string) ([]Commission, error) {
	rows, err := r.db.Query(ctx, selectColumns+` WHERE tenant_id = $1 AND reseller_id = $2 ORDER BY created_at DESC, id DESC`, tenantID, resellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Commission
	for rows.Next() {
		commission, err := scanCommission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, commission)
	}
	return out, rows.Err()
}

// Summarize aggregates the reseller's commissions in one status-grouped
// query, so the three figures come from a single snapshot and stay mutually
// consistent under concurrent inserts.
func (r *PostgresRepository) Summarize(ctx context.Context, tenantID, resellerID string) (Summary, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COALESCE(SUM(amount), 0), COUNT(*)
        FROM commissions WHERE tenant_id = $1 AND reseller_id = $2 GROUP BY status`, tenantID, resellerID)
	if err != nil {
		return Summary{}, err
	}
	defer rows.Close()

	summary := Summary{TotalEarned: decimal.Zero, Pending: decimal.Zero, Paid: decimal.Zero}
	for rows.Next() {
		var (
			status Status
			sum    decimal.Decimal
			count  int
		)
		if err := rows.Scan(&status, &sum, &count); err != nil {
			return Summary{}, err
		}
		switch status {
		case StatusPending:
			summary.Pending = sum
			summary.CountPending = count
		case StatusPaid:
			summary.Paid = sum
			summary.CountPaid = count
		}
	}
	if err := rows.Err(); err != nil {
		return Summary{}, err
	}
	summary.TotalEarned = summary.Pending.Add(summary.Paid)
	return summary, nil
}

// MarkPaid settles a pending commission. The row is locked so concurrent
// settlements cannot both observe pending.
func (r *PostgresRepository) MarkPaid(ctx context.Context, id, notes string) (Commission, error) {
	commissionID, err := uuid.Parse(id)
	if err != nil {
		return Commission{}, ErrNotFound
	}

	var commission Commission
	err = infra.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, selectColumns+` WHERE id = $1 FOR UPDATE`, commissionID)
		c, err := scanCommission(row)
		if err != nil {
			return err
		}
		if c.Status != StatusPending {
			return InvalidStateTransitionError{From: c.Status}
		}

		now := time.Now().UTC()
		if notes == "" {
			notes = "Commission paid"
		}
		if _, err := tx.Exec(ctx, `UPDATE commissions SET status = $1, paid_at = $2, notes = $3 WHERE id = $4`,
			string(StatusPaid), now, notes, commissionID); err != nil {
			return err
		}

		c.Status = StatusPaid
		c.PaidAt = &now
		c.Notes = notes
		commission = c
		return nil
	})
	if err != nil {
		return Commission{}, err
	}
	return commission, nil
}

// MarkAllPaid settles every pending commission of the reseller within the
// tenant in one transaction and returns the settled rows, newest first.
func (r *PostgresRepository) MarkAllPaid(ctx context.Context, tenantID, resellerID, notes string) ([]Commission, error) {
	if notes == "" {
		notes = "Commission paid"
	}

	var out []Commission
	err := infra.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		now := time.Now().UTC()
		rows, err := tx.Query(ctx, `UPDATE commissions
            SET status = $1, paid_at = $2, notes = $3
            WHERE tenant_id = $4 AND reseller_id = $5 AND status = $6
            RETURNING id, tenant_id, reseller_id, payment_id, invoice_id, amount, percentage, status, notes, paid_at, created_at`,
			string(StatusPaid), now, notes, tenantID, resellerID, string(StatusPending))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			commission, err := scanCommission(rows)
			if err != nil {
				return err
			}
			out = append(out, commission)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TenantStats aggregates all commissions in the tenant from one snapshot.
func (r *PostgresRepository) TenantStats(ctx context.Context, tenantID string) (Stats, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COALESCE(SUM(amount), 0), COUNT(*)
        FROM commissions WHERE tenant_id = $1 GROUP BY status`, tenantID)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	stats := Stats{Total: decimal.Zero, Pending: decimal.Zero, Paid: decimal.Zero}
	for rows.Next() {
		var (
			status Status
			sum    decimal.Decimal
			count  int
		)
		if err := rows.Scan(&status, &sum, &count); err != nil {
			return Stats{}, err
		}
		switch status {
		case StatusPending:
			stats.Pending = sum
			stats.PendingCount = count
		case StatusPaid:
			stats.Paid = sum
			stats.PaidCount = count
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}
	stats.Total = stats.Pending.Add(stats.Paid)
	stats.TotalCount = stats.PendingCount + stats.PaidCount
	return stats, nil
}

const selectColumns = `SELECT id, tenant_id, reseller_id, payment_id, invoice_id, amount, percentage, status, notes, paid_at, created_at
    FROM commissions`

func scanCommission(row pgx.Row) (Commission, error) {
	var (
		commission Commission
		id         uuid.UUID
		status     string
		paidAt     *time.Time
		createdAt  time.Time
	)
	if err := row.Scan(&id, &commission.TenantID, &commission.ResellerID, &commission.PaymentID,
		&commission.InvoiceID, &commission.Amount, &commission.Percentage, &status,
		&commission.Notes, &paidAt, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Commission{}, ErrNotFound
		}
		return Commission{}, err
	}
	commission.ID = id.String()
	commission.Status = Status(status)
	commission.PaidAt = paidAt
	commission.CreatedAt = createdAt.UTC()
	return commission, nil
}
