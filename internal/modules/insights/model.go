package insights

import "errors"

// ErrInsufficientTokens is returned when a user has no AI tokens left this month.
var ErrInsufficientTokens = errors.New("insufficient tokens")

// DefaultTokens is the number of AI insight calls granted per user per month.
const DefaultTokens = 100

type Stats struct {
	Revenue       int64
	Currency      string
	Orders        int
	ActiveOrders  int
	Delivered     int
	Cancelled     int
	Drivers       int
	OnlineDrivers int
	Clients       int
}

type Dashboard struct {
	Stats   Stats
	Insight string
	// Generated is false when Insight is the fallback text.
	Generated bool
}

const (
	fallbackNoKey = "L'IA est en attente de configuration."
	fallbackError = "Erreur lors de la connexion à l'IA d'analyse."
	fallbackQuota = "Quota d'analyses IA atteint pour ce mois."
	fallbackEmpty = "Impossible de générer des analyses."
)
