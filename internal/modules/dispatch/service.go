// README: Dispatch service: eligible drivers, driver self-accept and admin assignment.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"gazflow/internal/geo"
	"gazflow/internal/modules/order"
	"gazflow/internal/modules/profile"
	"gazflow/internal/types"
)

var (
	ErrDriverUnavailable = errors.New("driver unavailable")
	ErrForbidden         = errors.New("forbidden")
)

type Orders interface {
	Get(ctx context.Context, id types.ID) (*order.Order, error)
	Assign(ctx context.Context, cmd order.AssignCommand) (*order.Order, error)
	ListForDriver(ctx context.Context, actor types.Actor) ([]*order.Order, error)
}

type Drivers interface {
	Lookup(ctx context.Context, id types.ID) (*profile.Profile, error)
	OnlineDrivers(ctx context.Context) ([]*profile.Profile, error)
}

// SpatialIndex answers radius queries over online driver positions.
type SpatialIndex interface {
	Within(ctx context.Context, p types.Point, radiusKm float64) ([]Nearby, error)
}

type Service struct {
	orders  Orders
	drivers Drivers
	index   SpatialIndex
}

func NewService(orders Orders, drivers Drivers, index SpatialIndex) *Service {
	return &Service{orders: orders, drivers: drivers, index: index}
}

// EligibleDrivers lists online drivers for an admin. With an order id whose
// order has a delivery location, drivers are ranked nearest first and drivers
// without a position go last.
func (s *Service) EligibleDrivers(ctx context.Context, actor types.Actor, orderID types.ID) ([]Candidate, error) {
	if !actor.Is(types.RoleAdmin) {
		return nil, ErrForbidden
	}
	drivers, err := s.drivers.OnlineDrivers(ctx)
	if err != nil {
		return nil, err
	}

	var target *types.Point
	if orderID != "" {
		o, err := s.orders.Get(ctx, orderID)
		if err != nil {
			return nil, err
		}
		target = o.DeliveryLocation
	}

	out := make([]Candidate, 0, len(drivers))
	for _, d := range drivers {
		c := Candidate{Driver: d}
		if target != nil && d.LastLocation != nil {
			km := geo.DistanceKm(*target, *d.LastLocation)
			c.DistanceKm = &km
		}
		out = append(out, c)
	}
	if target != nil {
		geo.SortByDistance(out, func(c Candidate) (float64, bool) {
			if c.DistanceKm == nil {
				return 0, false
			}
			return *c.DistanceKm, true
		})
	}
	return out, nil
}

// NearbyDrivers searches the spatial index around an order's delivery
// location. Hits whose profile is gone or offline are dropped.
func (s *Service) NearbyDrivers(ctx context.Context, actor types.Actor, orderID types.ID, radiusKm float64) ([]Candidate, error) {
	if !actor.Is(types.RoleAdmin) {
		return nil, ErrForbidden
	}
	if radiusKm <= 0 {
		radiusKm = defaultRadiusKm
	}
	if radiusKm > maxRadiusKm {
		radiusKm = maxRadiusKm
	}
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.DeliveryLocation == nil {
		return nil, fmt.Errorf("%w: order %s has no delivery location", order.ErrBadRequest, orderID)
	}
	if s.index == nil {
		return s.EligibleDrivers(ctx, actor, orderID)
	}

	hits, err := s.index.Within(ctx, *o.DeliveryLocation, radiusKm)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		p, err := s.drivers.Lookup(ctx, h.DriverID)
		if errors.Is(err, profile.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !p.IsDriver() || !p.IsOnline {
			continue
		}
		km := h.DistanceKm
		out = append(out, Candidate{Driver: p, DistanceKm: &km})
	}
	return out, nil
}

// PendingOrders lists the pool a driver can accept from plus their own orders.
func (s *Service) PendingOrders(ctx context.Context, actor types.Actor) ([]*order.Order, error) {
	return s.orders.ListForDriver(ctx, actor)
}

// Accept lets an online driver take a pending order for themself.
func (s *Service) Accept(ctx context.Context, actor types.Actor, orderID types.ID) (*order.Order, error) {
	if !actor.Is(types.RoleDriver) {
		return nil, order.ErrForbidden
	}
	if err := s.checkAvailable(ctx, actor.ID); err != nil {
		return nil, err
	}
	return s.orders.Assign(ctx, order.AssignCommand{OrderID: orderID, DriverID: actor.ID, Actor: actor})
}

// AdminAssign assigns driverID to a pending order on behalf of an admin.
func (s *Service) AdminAssign(ctx context.Context, actor types.Actor, orderID, driverID types.ID) (*order.Order, error) {
	if !actor.Is(types.RoleAdmin) {
		return nil, order.ErrForbidden
	}
	if driverID == "" {
		return nil, fmt.Errorf("%w: driver id is required", order.ErrBadRequest)
	}
	if err := s.checkAvailable(ctx, driverID); err != nil {
		return nil, err
	}
	return s.orders.Assign(ctx, order.AssignCommand{OrderID: orderID, DriverID: driverID, Actor: actor})
}

func (s *Service) checkAvailable(ctx context.Context, driverID types.ID) error {
	p, err := s.drivers.Lookup(ctx, driverID)
	if errors.Is(err, profile.ErrNotFound) {
		return fmt.Errorf("%w: %s is not a driver", ErrDriverUnavailable, driverID)
	}
	if err != nil {
		return err
	}
	if !p.IsDriver() {
		return fmt.Errorf("%w: %s is not a driver", ErrDriverUnavailable, driverID)
	}
	if !p.IsOnline {
		return fmt.Errorf("%w: %s is offline", ErrDriverUnavailable, driverID)
	}
	return nil
}
