package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gazflow/internal/testutil"
	"gazflow/internal/types"
)

func TestStorePresenceRoundTrip(t *testing.T) {
	db := testutil.DB(t)
	testutil.SeedProfile(t, db, "d1", "LIVREUR")
	testutil.SeedProfile(t, db, "c1", "CLIENT")
	store := NewStore(db)
	ctx := context.Background()

	p, err := store.UpdatePresence(ctx, Presence{DriverID: "d1", Online: true, Location: &types.Point{Lat: 14.6928, Lng: -17.4467}})
	require.NoError(t, err)
	assert.True(t, p.IsOnline)
	require.NotNil(t, p.LastLocation)
	assert.InDelta(t, 14.6928, p.LastLocation.Lat, 1e-6)
	assert.InDelta(t, -17.4467, p.LastLocation.Lng, 1e-6)

	p, err = store.UpdatePresence(ctx, Presence{DriverID: "d1", Online: false})
	require.NoError(t, err)
	assert.False(t, p.IsOnline)
	require.NotNil(t, p.LastLocation, "going offline keeps the last position")

	_, err = store.UpdatePresence(ctx, Presence{DriverID: "c1", Online: true})
	assert.ErrorIs(t, err, ErrNotFound)

	online, err := store.ListOnlineDrivers(ctx)
	require.NoError(t, err)
	assert.Empty(t, online)

	created, err := store.Ensure(ctx, "fresh", "fresh@example.com")
	require.NoError(t, err)
	assert.Equal(t, types.RoleClient, created.Role)
}
