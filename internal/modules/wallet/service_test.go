package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gazflow/internal/config"
	"gazflow/internal/types"
)

func TestCreditOnceIsIdempotent(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, config.WalletConfig{DriverCredit: 500})
	ctx := context.Background()

	ok, err := svc.CreditOnce(ctx, "d1", "o1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CreditOnce(ctx, "d1", "o1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, int64(500), repo.balances["d1"])
}

func TestCreditOnceConcurrent(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, config.WalletConfig{DriverCredit: 500})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.CreditOnce(ctx, "d1", "o1")
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(500), repo.balances["d1"])
}

func TestReconcileAppliesMissedCredits(t *testing.T) {
	repo := newMemRepo()
	repo.delivered = []Pending{{OrderID: "o1", DriverID: "d1"}, {OrderID: "o2", DriverID: "d1"}, {OrderID: "o3", DriverID: "d2"}}
	svc := NewService(repo, config.WalletConfig{DriverCredit: 500})
	ctx := context.Background()

	_, err := svc.CreditOnce(ctx, "d1", "o1")
	require.NoError(t, err)

	n, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(1000), repo.balances["d1"])
	assert.Equal(t, int64(500), repo.balances["d2"])

	n, err = svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReconcileSkipsFailures(t *testing.T) {
	repo := newMemRepo()
	repo.delivered = []Pending{{OrderID: "o1", DriverID: "ghost"}, {OrderID: "o2", DriverID: "d1"}}
	repo.missing = map[types.ID]bool{"ghost": true}
	svc := NewService(repo, config.WalletConfig{DriverCredit: 500})

	n, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSummaryAccess(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, config.WalletConfig{DriverCredit: 500})
	ctx := context.Background()
	_, _ = svc.CreditOnce(ctx, "d1", "o1")

	s, err := svc.Summary(ctx, types.Actor{ID: "d1", Role: types.RoleDriver}, "d1")
	require.NoError(t, err)
	assert.Equal(t, int64(500), s.Balance)
	assert.Len(t, s.Credits, 1)

	_, err = svc.Summary(ctx, types.Actor{ID: "d2", Role: types.RoleDriver}, "d1")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Summary(ctx, types.Actor{ID: "a1", Role: types.RoleAdmin}, "d1")
	require.NoError(t, err)
}

type memRepo struct {
	mu        sync.Mutex
	credits   map[types.ID]Credit
	balances  map[types.ID]int64
	delivered []Pending
	missing   map[types.ID]bool
}

func newMemRepo() *memRepo {
	return &memRepo{credits: map[types.ID]Credit{}, balances: map[types.ID]int64{}}
}

func (r *memRepo) Credit(_ context.Context, c Credit) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.missing[c.DriverID] {
		return false, errors.New("no such driver")
	}
	if _, ok := r.credits[c.OrderID]; ok {
		return false, nil
	}
	r.credits[c.OrderID] = c
	r.balances[c.DriverID] += c.Amount
	return true, nil
}

func (r *memRepo) Balance(_ context.Context, id types.ID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[id], nil
}

func (r *memRepo) ListCredits(_ context.Context, id types.ID, _ int) ([]Credit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Credit
	for _, c := range r.credits {
		if c.DriverID == id {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memRepo) Uncredited(_ context.Context, _ int) ([]Pending, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Pending
	for _, p := range r.delivered {
		if _, ok := r.credits[p.OrderID]; !ok {
			out = append(out, p)
		}
	}
	return out, nil
}
