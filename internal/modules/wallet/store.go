// README: Wallet store backed by PostgreSQL; ledger insert and balance bump share one transaction.
package wallet

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gazflow/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Credit records amount for the order's driver unless the order was already
// credited. It reports whether money moved.
func (s *Store) Credit(ctx context.Context, c Credit) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
        INSERT INTO wallet_credits (order_id, driver_id, amount)
        VALUES ($1, $2, $3)
        ON CONFLICT (order_id) DO NOTHING`,
		string(c.OrderID), string(c.DriverID), c.Amount)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	tag, err = tx.Exec(ctx, `
        UPDATE profiles SET wallet_balance = wallet_balance + $2 WHERE id = $1`,
		string(c.DriverID), c.Amount)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, ErrNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Balance(ctx context.Context, driverID types.ID) (int64, error) {
	var balance int64
	err := s.db.QueryRow(ctx, `SELECT wallet_balance FROM profiles WHERE id = $1`, string(driverID)).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return balance, err
}

func (s *Store) ListCredits(ctx context.Context, driverID types.ID, limit int) ([]Credit, error) {
	rows, err := s.db.Query(ctx, `
        SELECT order_id, driver_id, amount, created_at
        FROM wallet_credits
        WHERE driver_id = $1
        ORDER BY created_at DESC
        LIMIT $2`, string(driverID), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Credit
	for rows.Next() {
		var c Credit
		var orderID, did string
		if err := rows.Scan(&orderID, &did, &c.Amount, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.OrderID = types.ID(orderID)
		c.DriverID = types.ID(did)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Uncredited lists delivered orders with a driver but no ledger entry.
func (s *Store) Uncredited(ctx context.Context, limit int) ([]Pending, error) {
	rows, err := s.db.Query(ctx, `
        SELECT o.id, o.livreur_id
        FROM orders o
        LEFT JOIN wallet_credits w ON w.order_id = o.id
        WHERE o.status = 'DELIVERED' AND o.livreur_id IS NOT NULL AND w.order_id IS NULL
        ORDER BY o.delivered_at
        LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Pending
	for rows.Next() {
		var orderID, driverID string
		if err := rows.Scan(&orderID, &driverID); err != nil {
			return nil, err
		}
		out = append(out, Pending{OrderID: types.ID(orderID), DriverID: types.ID(driverID)})
	}
	return out, rows.Err()
}
