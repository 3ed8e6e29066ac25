package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gazflow/internal/testutil"
)

type memRepo struct {
	prices map[string]map[int64]int64
}

func (m memRepo) Prices(_ context.Context, region string, ids []int64) (map[int64]int64, error) {
	out := map[int64]int64{}
	for _, id := range ids {
		if p, ok := m.prices[region][id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m memRepo) Catalog(_ context.Context, region string) ([]catalogRow, error) {
	var out []catalogRow
	for id, p := range m.prices[region] {
		out = append(out, catalogRow{ID: id, Size: "6kg", Price: p})
	}
	return out, nil
}

func newTestService() *Service {
	return NewService(memRepo{prices: map[string]map[int64]int64{
		"dakar":   {1: 6000, 2: 12000},
		"abidjan": {1: 6500},
	}}, "dakar", "XOF")
}

func TestService_Quote(t *testing.T) {
	svc := newTestService()

	tests := []struct {
		name    string
		lines   []Line
		want    int64
		wantErr error
	}{
		{name: "single bottle", lines: []Line{{ProductID: 1, Qty: 1}}, want: 6000},
		{name: "mixed sizes", lines: []Line{{ProductID: 1, Qty: 2}, {ProductID: 2, Qty: 1}}, want: 24000},
		{name: "repeated product", lines: []Line{{ProductID: 1, Qty: 1}, {ProductID: 1, Qty: 1}}, want: 12000},
		{name: "unknown product", lines: []Line{{ProductID: 1, Qty: 1}, {ProductID: 7, Qty: 1}}, wantErr: ErrUnknownProduct},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.Quote(context.Background(), tc.lines)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Amount)
			assert.Equal(t, "XOF", got.Currency)
		})
	}
}

func TestService_RegionScoping(t *testing.T) {
	svc := NewService(newTestService().store, "abidjan", "XOF")

	prices, err := svc.PriceOf(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, int64(6500), prices[1].Amount)
	_, ok := prices[2]
	assert.False(t, ok)

	catalog, err := svc.Catalog(context.Background())
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	assert.Equal(t, int64(6500), catalog[0].Price.Amount)
}

func TestStoreCatalog(t *testing.T) {
	db := testutil.DB(t)
	testutil.SeedProduct(t, db, 1, "6kg", "default", 6000)
	testutil.SeedProduct(t, db, 2, "12kg", "default", 12000)
	testutil.SeedProduct(t, db, 2, "12kg", "kaolack", 12500)

	svc := NewService(NewStore(db), "default", "XOF")
	catalog, err := svc.Catalog(context.Background())
	require.NoError(t, err)
	require.Len(t, catalog, 2)
	assert.Equal(t, "6kg", catalog[0].Size)
	assert.Equal(t, int64(12000), catalog[1].Price.Amount)

	total, err := svc.Quote(context.Background(), []Line{{ProductID: 2, Qty: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(24000), total.Amount)
}
