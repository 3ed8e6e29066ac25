// README: Service surfaces the handlers depend on; satisfied by the module services.
package handlers

import (
	"context"

	"gazflow/internal/modules/dispatch"
	"gazflow/internal/modules/insights"
	"gazflow/internal/modules/order"
	"gazflow/internal/modules/pricing"
	"gazflow/internal/modules/profile"
	"gazflow/internal/modules/tracking"
	"gazflow/internal/modules/wallet"
	"gazflow/internal/types"
)

type OrderService interface {
	Create(ctx context.Context, cmd order.CreateCommand) (*order.Order, error)
	View(ctx context.Context, actor types.Actor, id types.ID) (*order.Order, error)
	ActiveForClient(ctx context.Context, actor types.Actor) (*order.Order, error)
	HistoryForClient(ctx context.Context, actor types.Actor) ([]*order.Order, error)
	Start(ctx context.Context, cmd order.ActionCommand) (*order.Order, error)
	Arrive(ctx context.Context, cmd order.ActionCommand) (*order.Order, error)
	Deliver(ctx context.Context, cmd order.ActionCommand) (*order.Order, error)
	Cancel(ctx context.Context, cmd order.CancelCommand) (*order.Order, error)
	Transition(ctx context.Context, cmd order.TransitionCommand) (*order.Order, error)
	ListActive(ctx context.Context, actor types.Actor) ([]*order.Order, error)
	ListAll(ctx context.Context, actor types.Actor, limit int) ([]*order.Order, error)
}

type DispatchService interface {
	EligibleDrivers(ctx context.Context, actor types.Actor, orderID types.ID) ([]dispatch.Candidate, error)
	NearbyDrivers(ctx context.Context, actor types.Actor, orderID types.ID, radiusKm float64) ([]dispatch.Candidate, error)
	PendingOrders(ctx context.Context, actor types.Actor) ([]*order.Order, error)
	Accept(ctx context.Context, actor types.Actor, orderID types.ID) (*order.Order, error)
	AdminAssign(ctx context.Context, actor types.Actor, orderID, driverID types.ID) (*order.Order, error)
}

type TrackingService interface {
	Snapshot(ctx context.Context, actor types.Actor, orderID types.ID) (*tracking.Snapshot, error)
	Board(ctx context.Context, actor types.Actor) (*tracking.Board, error)
}

type ProfileService interface {
	Get(ctx context.Context, actor types.Actor, id types.ID) (*profile.Profile, error)
	List(ctx context.Context, actor types.Actor, role types.Role) ([]*profile.Profile, error)
	SetOnline(ctx context.Context, actor types.Actor, online bool, loc *types.Point) (*profile.Profile, error)
	ReportLocation(ctx context.Context, actor types.Actor, pos types.Point) (*profile.Profile, error)
	SetRole(ctx context.Context, actor types.Actor, id types.ID, role types.Role) (*profile.Profile, error)
	SetKYC(ctx context.Context, actor types.Actor, id types.ID, status profile.KYCStatus) (*profile.Profile, error)
}

type WalletService interface {
	Summary(ctx context.Context, actor types.Actor, driverID types.ID) (*wallet.Summary, error)
}

type CatalogService interface {
	Catalog(ctx context.Context) ([]pricing.Product, error)
}

type InsightsService interface {
	Dashboard(ctx context.Context, actor types.Actor) (*insights.Dashboard, error)
}
