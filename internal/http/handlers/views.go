// README: JSON shapes returned by the API.
package handlers

import (
	"time"

	"gazflow/internal/modules/dispatch"
	"gazflow/internal/modules/insights"
	"gazflow/internal/modules/order"
	"gazflow/internal/modules/pricing"
	"gazflow/internal/modules/profile"
	"gazflow/internal/modules/tracking"
	"gazflow/internal/modules/wallet"
	"gazflow/internal/types"
)

type pointView struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func newPointView(p *types.Point) *pointView {
	if p == nil {
		return nil
	}
	return &pointView{Lat: p.Lat, Lng: p.Lng}
}

type orderView struct {
	ID               types.ID     `json:"id"`
	ClientID         types.ID     `json:"client_id"`
	DriverID         *types.ID    `json:"livreur_id"`
	Status           order.Status `json:"status"`
	Items            []order.Item `json:"items"`
	TotalAmount      int64        `json:"total_amount"`
	DeliveryFee      int64        `json:"delivery_fee"`
	Currency         string       `json:"currency"`
	PaymentMethod    string       `json:"payment_method"`
	DeliveryAddress  string       `json:"delivery_address"`
	DeliveryLocation *pointView   `json:"delivery_location"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
	CancelReason     *string      `json:"cancel_reason,omitempty"`
}

func newOrderView(o *order.Order) orderView {
	return orderView{
		ID:               o.ID,
		ClientID:         o.ClientID,
		DriverID:         o.DriverID,
		Status:           o.Status,
		Items:            o.Items,
		TotalAmount:      o.TotalAmount.Amount,
		DeliveryFee:      o.DeliveryFee.Amount,
		Currency:         o.TotalAmount.Currency,
		PaymentMethod:    string(o.PaymentMethod),
		DeliveryAddress:  o.DeliveryAddress,
		DeliveryLocation: newPointView(o.DeliveryLocation),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
		CancelReason:     o.CancelReason,
	}
}

func newOrderViews(orders []*order.Order) []orderView {
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, newOrderView(o))
	}
	return out
}

type profileView struct {
	ID            types.ID          `json:"id"`
	Email         string            `json:"email"`
	FullName      string            `json:"full_name"`
	Phone         *string           `json:"phone"`
	Role          types.Role        `json:"role"`
	IsOnline      bool              `json:"is_online"`
	LastLocation  *pointView        `json:"last_location"`
	LastSeenAt    *time.Time        `json:"last_seen_at"`
	WalletBalance int64             `json:"wallet_balance"`
	KYCStatus     profile.KYCStatus `json:"kyc_status"`
	CreatedAt     time.Time         `json:"created_at"`
}

func newProfileView(p *profile.Profile) profileView {
	return profileView{
		ID:            p.ID,
		Email:         p.Email,
		FullName:      p.FullName,
		Phone:         p.Phone,
		Role:          p.Role,
		IsOnline:      p.IsOnline,
		LastLocation:  newPointView(p.LastLocation),
		LastSeenAt:    p.LastSeenAt,
		WalletBalance: p.WalletBalance,
		KYCStatus:     p.KYCStatus,
		CreatedAt:     p.CreatedAt,
	}
}

type candidateView struct {
	profileView
	DistanceKm *float64 `json:"distance_km"`
}

func newCandidateViews(cs []dispatch.Candidate) []candidateView {
	out := make([]candidateView, 0, len(cs))
	for _, c := range cs {
		out = append(out, candidateView{profileView: newProfileView(c.Driver), DistanceKm: c.DistanceKm})
	}
	return out
}

type snapshotView struct {
	OrderID         types.ID     `json:"order_id"`
	Status          order.Status `json:"status"`
	DriverID        *types.ID    `json:"livreur_id"`
	DriverName      string       `json:"livreur_name,omitempty"`
	DriverPhone     *string      `json:"livreur_phone,omitempty"`
	DriverPoint     *pointView   `json:"driver_point"`
	DriverSeenAt    *time.Time   `json:"driver_seen_at,omitempty"`
	ClientPoint     *pointView   `json:"client_point"`
	DeliveryAddress string       `json:"delivery_address"`
	EtaHintMinutes  int          `json:"eta_hint_minutes"`
	ProgressPercent int          `json:"progress_percent"`
	Stale           bool         `json:"stale"`
}

func newSnapshotView(s tracking.Snapshot) snapshotView {
	return snapshotView{
		OrderID:         s.OrderID,
		Status:          s.Status,
		DriverID:        s.DriverID,
		DriverName:      s.DriverName,
		DriverPhone:     s.DriverPhone,
		DriverPoint:     newPointView(s.DriverPoint),
		DriverSeenAt:    s.DriverSeenAt,
		ClientPoint:     newPointView(s.ClientPoint),
		DeliveryAddress: s.DeliveryAddress,
		EtaHintMinutes:  s.EtaHintMinutes,
		ProgressPercent: s.ProgressPercent,
		Stale:           s.Stale,
	}
}

type markerView struct {
	DriverID types.ID   `json:"livreur_id"`
	Name     string     `json:"name"`
	Point    *pointView `json:"point"`
	SeenAt   *time.Time `json:"seen_at"`
	Stale    bool       `json:"stale"`
}

type boardView struct {
	Orders  []snapshotView `json:"orders"`
	Drivers []markerView   `json:"drivers"`
}

func newBoardView(b *tracking.Board) boardView {
	out := boardView{Orders: make([]snapshotView, 0, len(b.Orders)), Drivers: make([]markerView, 0, len(b.Drivers))}
	for _, s := range b.Orders {
		out.Orders = append(out.Orders, newSnapshotView(s))
	}
	for _, d := range b.Drivers {
		out.Drivers = append(out.Drivers, markerView{DriverID: d.DriverID, Name: d.Name, Point: newPointView(d.Point), SeenAt: d.SeenAt, Stale: d.Stale})
	}
	return out
}

type productView struct {
	ID          int64  `json:"product_id"`
	Size        string `json:"size"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Currency    string `json:"currency"`
}

func newProductViews(ps []pricing.Product) []productView {
	out := make([]productView, 0, len(ps))
	for _, p := range ps {
		out = append(out, productView{ID: p.ID, Size: p.Size, Description: p.Description, Price: p.Price.Amount, Currency: p.Price.Currency})
	}
	return out
}

type creditView struct {
	OrderID   types.ID  `json:"order_id"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

type walletView struct {
	DriverID types.ID     `json:"livreur_id"`
	Balance  int64        `json:"wallet_balance"`
	Credits  []creditView `json:"credits"`
}

func newWalletView(s *wallet.Summary) walletView {
	out := walletView{DriverID: s.DriverID, Balance: s.Balance, Credits: make([]creditView, 0, len(s.Credits))}
	for _, c := range s.Credits {
		out.Credits = append(out.Credits, creditView{OrderID: c.OrderID, Amount: c.Amount, CreatedAt: c.CreatedAt})
	}
	return out
}

type dashboardView struct {
	Revenue       int64  `json:"revenue"`
	Currency      string `json:"currency"`
	Orders        int    `json:"orders"`
	ActiveOrders  int    `json:"active_orders"`
	Delivered     int    `json:"delivered"`
	Cancelled     int    `json:"cancelled"`
	Drivers       int    `json:"drivers"`
	OnlineDrivers int    `json:"online_drivers"`
	Clients       int    `json:"clients"`
	Insight       string `json:"insight"`
	Generated     bool   `json:"insight_generated"`
}

func newDashboardView(d *insights.Dashboard) dashboardView {
	s := d.Stats
	return dashboardView{
		Revenue:       s.Revenue,
		Currency:      s.Currency,
		Orders:        s.Orders,
		ActiveOrders:  s.ActiveOrders,
		Delivered:     s.Delivered,
		Cancelled:     s.Cancelled,
		Drivers:       s.Drivers,
		OnlineDrivers: s.OnlineDrivers,
		Clients:       s.Clients,
		Insight:       d.Insight,
		Generated:     d.Generated,
	}
}
