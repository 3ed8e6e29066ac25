// Package tracking builds live-map views by joining order state with the
// assigned driver's last published position.
package tracking

import (
	"context"
	"errors"
	"time"

	"gazflow/internal/modules/order"
	"gazflow/internal/modules/profile"
	"gazflow/internal/types"
)

var ErrForbidden = errors.New("forbidden")

type Orders interface {
	View(ctx context.Context, actor types.Actor, id types.ID) (*order.Order, error)
	ListActive(ctx context.Context, actor types.Actor) ([]*order.Order, error)
}

type Drivers interface {
	Lookup(ctx context.Context, id types.ID) (*profile.Profile, error)
	OnlineDrivers(ctx context.Context) ([]*profile.Profile, error)
}

type Projector struct {
	orders  Orders
	drivers Drivers
	// maxAge drops driver positions older than this; zero keeps all.
	maxAge time.Duration
	now    func() time.Time
}

func NewProjector(orders Orders, drivers Drivers, maxAge time.Duration) *Projector {
	return &Projector{orders: orders, drivers: drivers, maxAge: maxAge, now: time.Now}
}

// Snapshot builds the tracking view of one order for actor.
func (p *Projector) Snapshot(ctx context.Context, actor types.Actor, orderID types.ID) (*Snapshot, error) {
	o, err := p.orders.View(ctx, actor, orderID)
	if errors.Is(err, order.ErrForbidden) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	driver, err := p.assignedDriver(ctx, o, nil)
	if err != nil {
		return nil, err
	}
	snap := p.project(o, driver)
	return &snap, nil
}

// Board returns the admin live map.
func (p *Projector) Board(ctx context.Context, actor types.Actor) (*Board, error) {
	if !actor.Is(types.RoleAdmin) {
		return nil, ErrForbidden
	}
	orders, err := p.orders.ListActive(ctx, actor)
	if err != nil {
		return nil, err
	}
	online, err := p.drivers.OnlineDrivers(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[types.ID]*profile.Profile, len(online))
	board := &Board{Drivers: make([]DriverMarker, 0, len(online))}
	for _, d := range online {
		byID[d.ID] = d
		pt, stale := p.fresh(d)
		board.Drivers = append(board.Drivers, DriverMarker{DriverID: d.ID, Name: d.FullName, Point: pt, SeenAt: d.LastSeenAt, Stale: stale})
	}
	board.Orders = make([]Snapshot, 0, len(orders))
	for _, o := range orders {
		// An assigned driver who went offline keeps their last point on the order.
		driver, err := p.assignedDriver(ctx, o, byID)
		if err != nil {
			return nil, err
		}
		board.Orders = append(board.Orders, p.project(o, driver))
	}
	return board, nil
}

// assignedDriver returns the driver shown on o, or nil. known short-circuits
// the lookup and records its result, misses included.
func (p *Projector) assignedDriver(ctx context.Context, o *order.Order, known map[types.ID]*profile.Profile) (*profile.Profile, error) {
	if o.DriverID == nil || !showsDriver(o.Status) {
		return nil, nil
	}
	id := *o.DriverID
	if d, ok := known[id]; ok {
		return d, nil
	}
	d, err := p.drivers.Lookup(ctx, id)
	if errors.Is(err, profile.ErrNotFound) {
		d, err = nil, nil
	}
	if err != nil {
		return nil, err
	}
	if known != nil {
		known[id] = d
	}
	return d, nil
}

func (p *Projector) project(o *order.Order, driver *profile.Profile) Snapshot {
	snap := Snapshot{
		OrderID:         o.ID,
		Status:          o.Status,
		DriverID:        o.DriverID,
		ClientPoint:     o.DeliveryLocation,
		DeliveryAddress: o.DeliveryAddress,
		EtaHintMinutes:  etaHint(o.Status),
		ProgressPercent: progress(o.Status),
	}
	if driver != nil {
		snap.DriverName = driver.FullName
		snap.DriverPhone = driver.Phone
		snap.DriverSeenAt = driver.LastSeenAt
		snap.DriverPoint, snap.Stale = p.fresh(driver)
	}
	return snap
}

// fresh returns the driver's last position unless it is older than maxAge.
func (p *Projector) fresh(d *profile.Profile) (*types.Point, bool) {
	if d.LastLocation == nil {
		return nil, false
	}
	if p.maxAge > 0 && (d.LastSeenAt == nil || p.now().Sub(*d.LastSeenAt) > p.maxAge) {
		return nil, true
	}
	pt := *d.LastLocation
	return &pt, false
}
