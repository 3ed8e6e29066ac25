package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gazflow/internal/testutil"
	"gazflow/internal/types"
)

func TestIndexTrackWithinUntrack(t *testing.T) {
	rdb := testutil.Redis(t)
	idx := NewIndex(rdb)
	ctx := context.Background()

	plateau := types.Point{Lat: 5.3240, Lng: -4.0170}
	require.NoError(t, idx.Track(ctx, "near", types.Point{Lat: 5.3300, Lng: -4.0200}))
	require.NoError(t, idx.Track(ctx, "far", types.Point{Lat: 5.4500, Lng: -3.9000}))

	hits, err := idx.Within(ctx, plateau, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, types.ID("near"), hits[0].DriverID)
	assert.Less(t, hits[0].DistanceKm, 2.0)

	hits, err = idx.Within(ctx, plateau, 50)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, types.ID("far"), hits[1].DriverID)

	require.NoError(t, idx.Untrack(ctx, "near"))
	hits, err = idx.Within(ctx, plateau, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
