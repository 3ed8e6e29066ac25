// README: Wallet service credits drivers for deliveries and repairs missed credits on a ticker.
package wallet

import (
	"context"
	"errors"
	"log"
	"time"

	"gazflow/internal/config"
	"gazflow/internal/types"
)

var (
	ErrNotFound  = errors.New("wallet not found")
	ErrForbidden = errors.New("forbidden")
)

type Repository interface {
	Credit(ctx context.Context, c Credit) (bool, error)
	Balance(ctx context.Context, driverID types.ID) (int64, error)
	ListCredits(ctx context.Context, driverID types.ID, limit int) ([]Credit, error)
	Uncredited(ctx context.Context, limit int) ([]Pending, error)
}

type Service struct {
	store Repository
	cfg   config.WalletConfig
}

func NewService(store Repository, cfg config.WalletConfig) *Service {
	return &Service{store: store, cfg: cfg}
}

// CreditOnce pays the flat per-delivery credit to driverID for orderID. Calling
// it again for the same order is a no-op that returns false.
func (s *Service) CreditOnce(ctx context.Context, driverID, orderID types.ID) (bool, error) {
	return s.store.Credit(ctx, Credit{OrderID: orderID, DriverID: driverID, Amount: s.cfg.DriverCredit})
}

type Summary struct {
	DriverID types.ID
	Balance  int64
	Credits  []Credit
}

// Summary returns a driver's balance and latest credits to the driver or an admin.
func (s *Service) Summary(ctx context.Context, actor types.Actor, driverID types.ID) (*Summary, error) {
	if !(actor.Is(types.RoleDriver) && actor.ID == driverID) && !actor.Is(types.RoleAdmin) {
		return nil, ErrForbidden
	}
	balance, err := s.store.Balance(ctx, driverID)
	if err != nil {
		return nil, err
	}
	credits, err := s.store.ListCredits(ctx, driverID, 50)
	if err != nil {
		return nil, err
	}
	return &Summary{DriverID: driverID, Balance: balance, Credits: credits}, nil
}

// Reconcile credits every delivered order that has no ledger entry. It returns
// how many credits were applied.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	pending, err := s.store.Uncredited(ctx, 100)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, p := range pending {
		ok, err := s.CreditOnce(ctx, p.DriverID, p.OrderID)
		if err != nil {
			log.Printf("wallet reconcile: order %s: %v", p.OrderID, err)
			continue
		}
		if ok {
			applied++
		}
	}
	return applied, nil
}

func (s *Service) RunReconciler(ctx context.Context) {
	seconds := s.cfg.ReconcileSeconds
	if seconds <= 0 {
		seconds = 60
	}
	ticker := time.NewTicker(time.Duration(seconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Reconcile(ctx)
			if err != nil {
				log.Printf("wallet reconcile: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("wallet reconcile: applied %d missed credits", n)
			}
		}
	}
}
