// README: Profile store backed by PostgreSQL/PostGIS.
package profile

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gazflow/internal/geo"
	"gazflow/internal/types"
)

const profileColumns = `
    id, email, full_name, phone, role, is_online, ST_AsText(last_location),
    last_seen_at, wallet_balance, kyc_status, created_at`

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Profile, error) {
	row := s.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, string(id))
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// Ensure inserts a CLIENT profile for a first-time identity and returns the row.
func (s *Store) Ensure(ctx context.Context, id types.ID, email string) (*Profile, error) {
	_, err := s.db.Exec(ctx, `
        INSERT INTO profiles (id, email) VALUES ($1, $2)
        ON CONFLICT (id) DO NOTHING`, string(id), email)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Store) List(ctx context.Context, role types.Role) ([]*Profile, error) {
	if role == "" {
		return s.list(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY created_at DESC`)
	}
	return s.list(ctx, `SELECT `+profileColumns+` FROM profiles WHERE role = $1 ORDER BY created_at DESC`, string(role))
}

func (s *Store) ListOnlineDrivers(ctx context.Context) ([]*Profile, error) {
	return s.list(ctx, `
        SELECT `+profileColumns+` FROM profiles
        WHERE role = 'LIVREUR' AND is_online
        ORDER BY last_seen_at DESC NULLS LAST`)
}

// UpdatePresence writes the online flag and, when given, the position. The
// previous position is kept when loc is nil.
func (s *Store) UpdatePresence(ctx context.Context, p Presence) (*Profile, error) {
	var loc *string
	if p.Location != nil {
		v := geo.EncodePoint(*p.Location)
		loc = &v
	}
	row := s.db.QueryRow(ctx, `
        UPDATE profiles
        SET is_online = $2,
            last_location = COALESCE(ST_GeogFromText($3::text), last_location),
            last_seen_at = NOW()
        WHERE id = $1 AND role = 'LIVREUR'
        RETURNING `+profileColumns,
		string(p.DriverID), p.Online, loc)
	out, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return out, err
}

func (s *Store) SetRole(ctx context.Context, id types.ID, role types.Role) (*Profile, error) {
	row := s.db.QueryRow(ctx, `
        UPDATE profiles
        SET role = $2,
            is_online = CASE WHEN $2 = 'LIVREUR' THEN is_online ELSE FALSE END
        WHERE id = $1
        RETURNING `+profileColumns, string(id), string(role))
	out, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return out, err
}

func (s *Store) SetKYC(ctx context.Context, id types.ID, status KYCStatus) (*Profile, error) {
	row := s.db.QueryRow(ctx, `
        UPDATE profiles SET kyc_status = $2 WHERE id = $1
        RETURNING `+profileColumns, string(id), string(status))
	out, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return out, err
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*Profile, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	var id, role, kyc string
	var loc *string
	err := row.Scan(
		&id, &p.Email, &p.FullName, &p.Phone, &role, &p.IsOnline, &loc,
		&p.LastSeenAt, &p.WalletBalance, &kyc, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.ID = types.ID(id)
	p.Role = types.Role(role)
	p.KYCStatus = KYCStatus(kyc)
	if loc != nil {
		p.LastLocation = geo.DecodePtr(*loc)
	}
	return &p, nil
}
