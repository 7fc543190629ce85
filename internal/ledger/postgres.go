package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/netbill/netbill/internal/infra"
)

// PostgresLedger persists accounts and wallet transactions in PostgreSQL.
// Adjustments serialize per account through a row lock on the account row.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// EnsureAccount guarantees an account row exists for the identifier.
func (l *PostgresLedger) EnsureAccount(ctx context.Context, tenantID, accountID string) error {
	acctID, err := uuid.Parse(accountID)
	if err != nil {
		return ValidationError{Field: "account_id", Reason: "must be a UUID"}
	}
	tenant, err := uuid.Parse(tenantID)
	if err != nil {
		return ValidationError{Field: "tenant_id", Reason: "must be a UUID"}
	}
	_, err = l.db.Exec(ctx, `INSERT INTO accounts (id, tenant_id, balance, active, created_at)
        VALUES ($1, $2, 0, TRUE, NOW())
        ON CONFLICT (id) DO NOTHING`, acctID, tenant)
	return err
}

// Account fetches account metadata by identifier.
func (l *PostgresLedger) Account(ctx context.Context, accountID string) (Account, error) {
	acctID, err := uuid.Parse(accountID)
	if err != nil {
		return Account{}, ErrAccountNotFound
	}
	row := l.db.QueryRow(ctx, `SELECT id, tenant_id, balance, active, created_at
        FROM accounts WHERE id = $1`, acctID)
	return scanAccount(row)
}

// Adjust applies a signed balance change and appends the matching ledger
// entry inside a single transaction. The account row is locked for the
// duration of the read-modify-write so concurrent adjustments cannot lose
// updates.
func (l *PostgresLedger) Adjust(ctx context.Context, accountID string, amount decimal.Decimal, description string, actor Actor) (Transaction, error) {
	if err := validateAdjustment(amount, description, actor); err != nil {
		return Transaction{}, err
	}
	acctID, err := uuid.Parse(accountID)
	if err != nil {
		return Transaction{}, ErrAccountNotFound
	}

	var txn Transaction
	err = infra.WithTx(ctx, l.db, func(tx pgx.Tx) error {
		var (
			tenantID uuid.UUID
			balance  decimal.Decimal
			active   bool
		)
		row := tx.QueryRow(ctx, `SELECT tenant_id, balance, active
            FROM accounts WHERE id = $1 FOR UPDATE`, acctID)
		if err := row.Scan(&tenantID, &balance, &active); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrAccountNotFound
			}
			return err
		}

		if tenantID.String() != actor.TenantID {
			return ErrTenantMismatch
		}
		if !active {
			return ErrAccountInactive
		}

		newBalance := balance.Add(amount)
		if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = $1 WHERE id = $2`, newBalance, acctID); err != nil {
			return err
		}

		txnID := uuid.New()
		now := time.Now().UTC()
		if _, err := tx.Exec(ctx, `INSERT INTO wallet_transactions
            (id, account_id, amount, description, actor_id, balance_after, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			txnID, acctID, amount, description, actor.ID, newBalance, now); err != nil {
			return err
		}

		txn = Transaction{
			ID:           txnID.String(),
			AccountID:    accountID,
			Amount:       amount,
			Description:  description,
			ActorID:      actor.ID,
			BalanceAfter: newBalance,
			CreatedAt:    now,
		}
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	return txn, nil
}

// History lists ledger entries for the account, newest first. The seq column
// is assigned at commit, so the ordering matches commit order even when
// timestamps collide.
func (l *PostgresLedger) History(ctx context.Context, accountID string, page Page) ([]Transaction, error) {
	page = page.normalize()
	acctID, err := uuid.Parse(accountID)
	if err != nil {
		return nil, ErrAccountNotFound
	}

	rows, err := l.db.Query(ctx, `SELECT id, account_id, amount, description, actor_id, balance_after, created_at
        FROM wallet_transactions
        WHERE account_id = $1
        ORDER BY seq DESC
        LIMIT $2 OFFSET $3`, acctID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var (
			txn       Transaction
			id        uuid.UUID
			accountID uuid.UUID
		)
		if err := rows.Scan(&id, &accountID, &txn.Amount, &txn.Description, &txn.ActorID, &txn.BalanceAfter, &txn.CreatedAt); err != nil {
			return nil, err
		}
		txn.ID = id.String()
		txn.AccountID = accountID.String()
		txn.CreatedAt = txn.CreatedAt.UTC()
		out = append(out, txn)
	}
	return out, rows.Err()
}

// Balance returns the current balance for the account.
func (l *PostgresLedger) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	acctID, err := uuid.Parse(accountID)
	if err != nil {
		return decimal.Zero, ErrAccountNotFound
	}
	var balance decimal.Decimal
	if err := l.db.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1`, acctID).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrAccountNotFound
		}
		return decimal.Zero, fmt.Errorf("query balance: %w", err)
	}
	return balance, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		account   Account
		id        uuid.UUID
		tenantID  uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &tenantID, &account.Balance, &account.Active, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	account.ID = id.String()
	account.TenantID = tenantID.String()
	account.CreatedAt = createdAt.UTC()
	return account, nil
}
