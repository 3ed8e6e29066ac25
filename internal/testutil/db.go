// Package testutil holds helpers for DB- and Redis-backed tests. They skip
// unless the environment points at a live server.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"gazflow/internal/infra"
)

// DB connects to GAZFLOW_TEST_DSN, applies migrations and empties every table.
func DB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("GAZFLOW_TEST_DSN")
	if dsn == "" {
		t.Skip("GAZFLOW_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	if err := infra.Migrate(ctx, dsn); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	db, err := infra.NewDB(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	if _, err := db.Exec(ctx, `TRUNCATE TABLE ai_usage, wallet_credits, order_state_events, orders, regional_pricing, products, profiles`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return db
}

// SeedProfile inserts a profile row with the given role.
func SeedProfile(t *testing.T, db *pgxpool.Pool, id, role string) {
	t.Helper()
	_, err := db.Exec(context.Background(),
		`INSERT INTO profiles (id, email, full_name, role) VALUES ($1, $2, $3, $4)`,
		id, id+"@example.com", "User "+id, role)
	if err != nil {
		t.Fatalf("seed profile %s: %v", id, err)
	}
}

// SeedProduct inserts a product priced in region.
func SeedProduct(t *testing.T, db *pgxpool.Pool, id int64, size, region string, price int64) {
	t.Helper()
	ctx := context.Background()
	if _, err := db.Exec(ctx, `INSERT INTO products (id, size, description) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`, id, size, "Gas bottle "+size); err != nil {
		t.Fatalf("seed product %d: %v", id, err)
	}
	if _, err := db.Exec(ctx, `INSERT INTO regional_pricing (region_id, product_id, price) VALUES ($1, $2, $3)`, region, id, price); err != nil {
		t.Fatalf("seed price %d: %v", id, err)
	}
}

// Redis connects to GAZFLOW_TEST_REDIS_ADDR and flushes the selected database.
func Redis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("GAZFLOW_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("GAZFLOW_TEST_REDIS_ADDR not set; skipping Redis-backed tests")
	}
	rdb := infra.NewRedis(addr)
	t.Cleanup(func() { _ = rdb.Close() })
	if err := rdb.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	return rdb
}
