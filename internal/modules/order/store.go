// README: Order store backed by PostgreSQL/PostGIS; status changes are conditional updates.
package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"gazflow/internal/geo"
	"gazflow/internal/types"
)

const uniqueViolation = "23505"

const orderColumns = `
    id, client_id, livreur_id, status, status_version,
    items, total_amount, delivery_fee, currency, payment_method,
    delivery_address, ST_AsText(delivery_location),
    created_at, updated_at, assigned_at, started_at, arrived_at, delivered_at, cancelled_at, cancel_reason`

const activeFilter = `status NOT IN ('DELIVERED', 'CANCELLED')`

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, o *Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	var location *string
	if o.DeliveryLocation != nil {
		v := geo.EncodePoint(*o.DeliveryLocation)
		location = &v
	}
	_, err = s.db.Exec(ctx, `
        INSERT INTO orders (
            id, client_id, livreur_id, status, status_version,
            items, total_amount, delivery_fee, currency, payment_method,
            delivery_address, delivery_location, created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5,
            $6::jsonb, $7, $8, $9, $10,
            $11, ST_GeogFromText($12::text), $13, $14
        )`,
		string(o.ID),
		string(o.ClientID),
		toStringPtr(o.DriverID),
		string(o.Status),
		o.StatusVersion,
		string(items),
		o.TotalAmount.Amount,
		o.DeliveryFee.Amount,
		o.TotalAmount.Currency,
		string(o.PaymentMethod),
		o.DeliveryAddress,
		location,
		o.CreatedAt,
		o.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrActiveOrder
	}
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Order, error) {
	row := s.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, string(id))
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, driverID *types.ID, reason *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE orders
        SET status = $1,
            status_version = status_version + 1,
            livreur_id = COALESCE($2, livreur_id),
            cancel_reason = COALESCE($3, cancel_reason),
            updated_at = NOW(),
            assigned_at = CASE WHEN $1 = 'ASSIGNED' THEN NOW() ELSE assigned_at END,
            started_at = CASE WHEN $1 = 'IN_PROGRESS' THEN NOW() ELSE started_at END,
            arrived_at = CASE WHEN $1 = 'ARRIVED' THEN NOW() ELSE arrived_at END,
            delivered_at = CASE WHEN $1 = 'DELIVERED' THEN NOW() ELSE delivered_at END,
            cancelled_at = CASE WHEN $1 = 'CANCELLED' THEN NOW() ELSE cancelled_at END
        WHERE id = $4 AND status = $5 AND status_version = $6`,
		string(to),
		toStringPtr(driverID),
		reason,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO order_state_events (
            order_id, from_status, to_status, actor_role, actor_id, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.OrderID),
		string(e.FromStatus),
		string(e.ToStatus),
		string(e.ActorRole),
		toStringPtr(e.ActorID),
		e.CreatedAt,
	)
	return err
}

func (s *Store) ActiveByClient(ctx context.Context, clientID types.ID) (*Order, error) {
	row := s.db.QueryRow(ctx, `
        SELECT `+orderColumns+` FROM orders
        WHERE client_id = $1 AND `+activeFilter+`
        ORDER BY created_at DESC
        LIMIT 1`, string(clientID))
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

func (s *Store) ListByClient(ctx context.Context, clientID types.ID) ([]*Order, error) {
	return s.list(ctx, `
        SELECT `+orderColumns+` FROM orders
        WHERE client_id = $1
        ORDER BY created_at DESC`, string(clientID))
}

func (s *Store) ListForDriver(ctx context.Context, driverID types.ID) ([]*Order, error) {
	return s.list(ctx, `
        SELECT `+orderColumns+` FROM orders
        WHERE status = 'PENDING' OR livreur_id = $1
        ORDER BY created_at DESC`, string(driverID))
}

func (s *Store) ListActive(ctx context.Context) ([]*Order, error) {
	return s.list(ctx, `
        SELECT `+orderColumns+` FROM orders
        WHERE `+activeFilter+`
        ORDER BY created_at DESC`)
}

func (s *Store) ListAll(ctx context.Context, limit int) ([]*Order, error) {
	return s.list(ctx, `
        SELECT `+orderColumns+` FROM orders
        ORDER BY created_at DESC
        LIMIT $1`, limit)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*Order, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var id, clientID, status, method string
	var driverID, location *string
	var items []byte
	var currency string

	err := row.Scan(
		&id, &clientID, &driverID, &status, &o.StatusVersion,
		&items, &o.TotalAmount.Amount, &o.DeliveryFee.Amount, &currency, &method,
		&o.DeliveryAddress, &location,
		&o.CreatedAt, &o.UpdatedAt, &o.AssignedAt, &o.StartedAt, &o.ArrivedAt, &o.DeliveredAt, &o.CancelledAt, &o.CancelReason,
	)
	if err != nil {
		return nil, err
	}
	o.ID = types.ID(id)
	o.ClientID = types.ID(clientID)
	o.Status = Status(status)
	o.PaymentMethod = PaymentMethod(method)
	o.TotalAmount.Currency = currency
	o.DeliveryFee.Currency = currency
	if driverID != nil {
		d := types.ID(*driverID)
		o.DriverID = &d
	}
	if location != nil {
		o.DeliveryLocation = geo.DecodePtr(*location)
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("decode items of order %s: %w", id, err)
		}
	}
	return &o, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
