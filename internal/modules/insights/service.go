package insights

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gazflow/internal/ai"
	"gazflow/internal/types"
)

var ErrForbidden = errors.New("forbidden")

type Repository interface {
	Stats(ctx context.Context) (Stats, error)
	UseToken(ctx context.Context, uid string) error
	EnsureUser(ctx context.Context, uid string) error
}

type Service struct {
	store      Repository
	summarizer ai.Summarizer
	currency   string
	timeout    time.Duration
}

// NewService builds the dashboard service. summarizer may be nil when no AI
// key is configured.
func NewService(store Repository, summarizer ai.Summarizer, currency string) *Service {
	return &Service{store: store, summarizer: summarizer, currency: currency, timeout: 20 * time.Second}
}

func (s *Service) Dashboard(ctx context.Context, actor types.Actor) (*Dashboard, error) {
	if !actor.Is(types.RoleAdmin) {
		return nil, ErrForbidden
	}
	st, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	st.Currency = s.currency

	text, generated := s.insight(ctx, string(actor.ID), st)
	return &Dashboard{Stats: st, Insight: text, Generated: generated}, nil
}

// insight never fails; every problem degrades to a fixed sentence.
func (s *Service) insight(ctx context.Context, uid string, st Stats) (string, bool) {
	if s.summarizer == nil {
		return fallbackNoKey, false
	}
	if err := s.useToken(ctx, uid); err != nil {
		if errors.Is(err, ErrInsufficientTokens) {
			return fallbackQuota, false
		}
		log.Printf("insights: ai quota for %s: %v", uid, err)
		return fallbackError, false
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	text, err := s.summarizer.Summarize(ctx, prompt(st))
	if err != nil {
		log.Printf("insights: summarize: %v", err)
		return fallbackError, false
	}
	if strings.TrimSpace(text) == "" {
		return fallbackEmpty, false
	}
	return text, true
}

// useToken deducts one token, creating the row on first use.
func (s *Service) useToken(ctx context.Context, uid string) error {
	err := s.store.UseToken(ctx, uid)
	if !errors.Is(err, ErrInsufficientTokens) {
		return err
	}
	// Row may be missing: try to create it, then retry the deduction once.
	if initErr := s.store.EnsureUser(ctx, uid); initErr != nil {
		return initErr
	}
	return s.store.UseToken(ctx, uid)
}

func prompt(st Stats) string {
	return fmt.Sprintf(`Tu es un expert Business Analyst pour une startup de livraison de gaz en Afrique de l'Ouest.
Analyse ces données et donne 3 conseils stratégiques courts (max 2 phrases chacun) pour optimiser les ventes ou la logistique.
Données : Revenu: %d %s, Commandes: %d (actives %d, livrées %d, annulées %d), Livreurs: %d (en ligne %d), Clients: %d`,
		st.Revenue, st.Currency, st.Orders, st.ActiveOrders, st.Delivered, st.Cancelled, st.Drivers, st.OnlineDrivers, st.Clients)
}
