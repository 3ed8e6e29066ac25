// README: Pricing service: regional catalog and order quotes.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"gazflow/internal/types"
)

var ErrUnknownProduct = errors.New("unknown product")

type Repository interface {
	Prices(ctx context.Context, region string, productIDs []int64) (map[int64]int64, error)
	Catalog(ctx context.Context, region string) ([]catalogRow, error)
}

type Service struct {
	store    Repository
	region   string
	currency string
}

func NewService(store Repository, region, currency string) *Service {
	return &Service{store: store, region: region, currency: currency}
}

func (s *Service) Catalog(ctx context.Context) ([]Product, error) {
	rows, err := s.store.Catalog(ctx, s.region)
	if err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, Product{
			ID:          r.ID,
			Size:        r.Size,
			Description: r.Description,
			Price:       s.money(r.Price),
		})
	}
	return out, nil
}

// PriceOf returns unit prices for the known products among productIDs.
func (s *Service) PriceOf(ctx context.Context, productIDs []int64) (map[int64]types.Money, error) {
	raw, err := s.store.Prices(ctx, s.region, dedupe(productIDs))
	if err != nil {
		return nil, err
	}
	out := make(map[int64]types.Money, len(raw))
	for id, price := range raw {
		out[id] = s.money(price)
	}
	return out, nil
}

// Quote sums price*qty over lines. Any product without a regional price
// fails the whole quote with ErrUnknownProduct.
func (s *Service) Quote(ctx context.Context, lines []Line) (types.Money, error) {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	prices, err := s.PriceOf(ctx, ids)
	if err != nil {
		return types.Money{}, err
	}
	total := s.money(0)
	for _, l := range lines {
		p, ok := prices[l.ProductID]
		if !ok {
			return types.Money{}, fmt.Errorf("%w: %d", ErrUnknownProduct, l.ProductID)
		}
		total = total.Add(p.Times(int64(l.Qty)))
	}
	return total, nil
}

func (s *Service) money(amount int64) types.Money {
	return types.Money{Amount: amount, Currency: s.currency}
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
