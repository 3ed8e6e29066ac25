// README: DB-backed insights tests (aggregates, lazy monthly reset and quota boundary).
package insights

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gazflow/internal/testutil"
)

func TestStoreStats(t *testing.T) {
	db := testutil.DB(t)
	testutil.SeedProfile(t, db, "c1", "CLIENT")
	testutil.SeedProfile(t, db, "c2", "CLIENT")
	testutil.SeedProfile(t, db, "d1", "LIVREUR")
	ctx := context.Background()

	_, err := db.Exec(ctx, `
        INSERT INTO orders (id, client_id, status, items, total_amount, delivery_fee, currency, payment_method, delivery_address)
        VALUES ('o1', 'c1', 'DELIVERED', '[]', 7000, 1000, 'XOF', 'CASH', 'a'),
               ('o2', 'c2', 'PENDING', '[]', 8000, 1000, 'XOF', 'CASH', 'b')`)
	require.NoError(t, err)

	st, err := NewStore(db).Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(15000), st.Revenue)
	assert.Equal(t, 2, st.Orders)
	assert.Equal(t, 1, st.ActiveOrders)
	assert.Equal(t, 1, st.Delivered)
	assert.Equal(t, 1, st.Drivers)
	assert.Equal(t, 0, st.OnlineDrivers)
	assert.Equal(t, 2, st.Clients)
}

func TestUseTokenCrossMonthReset(t *testing.T) {
	db := testutil.DB(t)
	store := NewStore(db)
	ctx := context.Background()

	_, err := db.Exec(ctx, "INSERT INTO ai_usage VALUES ('user_reset', 0, '2000-01')")
	require.NoError(t, err)
	require.NoError(t, store.UseToken(ctx, "user_reset"))

	var remaining int
	require.NoError(t, db.QueryRow(ctx, "SELECT tokens_remaining FROM ai_usage WHERE uid = 'user_reset'").Scan(&remaining))
	assert.Equal(t, DefaultTokens-1, remaining)
}

func TestUseTokenInsufficient(t *testing.T) {
	db := testutil.DB(t)
	store := NewStore(db)
	ctx := context.Background()

	_, err := db.Exec(ctx, "INSERT INTO ai_usage VALUES ('user_zero', 0, TO_CHAR(NOW(), 'YYYY-MM'))")
	require.NoError(t, err)
	assert.ErrorIs(t, store.UseToken(ctx, "user_zero"), ErrInsufficientTokens)
	assert.ErrorIs(t, store.UseToken(ctx, "nobody"), ErrInsufficientTokens)

	require.NoError(t, store.EnsureUser(ctx, "nobody"))
	require.NoError(t, store.EnsureUser(ctx, "nobody"))
	require.NoError(t, store.UseToken(ctx, "nobody"))
}
