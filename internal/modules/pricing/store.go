// README: Pricing store backed by PostgreSQL reference tables.
package pricing

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Prices returns product_id -> price for region. Products without a regional
// price are absent.
func (s *Store) Prices(ctx context.Context, region string, productIDs []int64) (map[int64]int64, error) {
	rows, err := s.db.Query(ctx, `
        SELECT product_id, price FROM regional_pricing
        WHERE region_id = $1 AND product_id = ANY($2)`, region, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]int64, len(productIDs))
	for rows.Next() {
		var id, price int64
		if err := rows.Scan(&id, &price); err != nil {
			return nil, err
		}
		out[id] = price
	}
	return out, rows.Err()
}

type catalogRow struct {
	ID          int64
	Size        string
	Description string
	Price       int64
}

func (s *Store) Catalog(ctx context.Context, region string) ([]catalogRow, error) {
	rows, err := s.db.Query(ctx, `
        SELECT p.id, p.size, p.description, rp.price
        FROM products p
        JOIN regional_pricing rp ON rp.product_id = p.id
        WHERE rp.region_id = $1
        ORDER BY p.id`, region)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalogRow
	for rows.Next() {
		var r catalogRow
		if err := rows.Scan(&r.ID, &r.Size, &r.Description, &r.Price); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
