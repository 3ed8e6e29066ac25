// README: Profile service: self-service presence for drivers, admin role and KYC management.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gazflow/internal/geo"
	"gazflow/internal/types"
)

var (
	ErrNotFound   = errors.New("profile not found")
	ErrForbidden  = errors.New("forbidden")
	ErrBadRequest = errors.New("bad request")
)

type Repository interface {
	Get(ctx context.Context, id types.ID) (*Profile, error)
	Ensure(ctx context.Context, id types.ID, email string) (*Profile, error)
	List(ctx context.Context, role types.Role) ([]*Profile, error)
	ListOnlineDrivers(ctx context.Context) ([]*Profile, error)
	UpdatePresence(ctx context.Context, p Presence) (*Profile, error)
	SetRole(ctx context.Context, id types.ID, role types.Role) (*Profile, error)
	SetKYC(ctx context.Context, id types.ID, status KYCStatus) (*Profile, error)
}

// DriverIndex mirrors online driver positions into a spatial index.
type DriverIndex interface {
	Track(ctx context.Context, driverID types.ID, pos types.Point) error
	Untrack(ctx context.Context, driverID types.ID) error
}

// Notifier is told after every profile write.
type Notifier interface {
	ProfileChanged(ctx context.Context, id types.ID, role types.Role)
}

type Service struct {
	store    Repository
	index    DriverIndex
	notifier Notifier
}

func NewService(store Repository, index DriverIndex, notifier Notifier) *Service {
	return &Service{store: store, index: index, notifier: notifier}
}

// Resolve returns the caller's profile, creating a CLIENT profile on first sight.
func (s *Service) Resolve(ctx context.Context, id types.ID, email string) (*Profile, error) {
	if id == "" {
		return nil, ErrForbidden
	}
	return s.store.Ensure(ctx, id, email)
}

// Get returns a profile to its owner or an admin.
func (s *Service) Get(ctx context.Context, actor types.Actor, id types.ID) (*Profile, error) {
	if actor.ID != id && !actor.Is(types.RoleAdmin) {
		return nil, ErrForbidden
	}
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, actor types.Actor, role types.Role) ([]*Profile, error) {
	if !actor.Is(types.RoleAdmin) {
		return nil, ErrForbidden
	}
	if role != "" && !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrBadRequest, role)
	}
	return s.store.List(ctx, role)
}

// Lookup reads a profile without an access check, for other modules.
func (s *Service) Lookup(ctx context.Context, id types.ID) (*Profile, error) {
	return s.store.Get(ctx, id)
}

// OnlineDrivers lists drivers currently flagged online.
func (s *Service) OnlineDrivers(ctx context.Context) ([]*Profile, error) {
	return s.store.ListOnlineDrivers(ctx)
}

// SetOnline flips the caller's own online flag. A position may accompany it
// only when going online; last_location is frozen while offline.
func (s *Service) SetOnline(ctx context.Context, actor types.Actor, online bool, loc *types.Point) (*Profile, error) {
	return s.writePresence(ctx, actor, Presence{DriverID: actor.ID, Online: online, Location: loc})
}

// ReportLocation records the caller's position and reasserts online.
func (s *Service) ReportLocation(ctx context.Context, actor types.Actor, pos types.Point) (*Profile, error) {
	return s.writePresence(ctx, actor, Presence{DriverID: actor.ID, Online: true, Location: &pos})
}

func (s *Service) writePresence(ctx context.Context, actor types.Actor, p Presence) (*Profile, error) {
	if !actor.Is(types.RoleDriver) {
		return nil, ErrForbidden
	}
	if !p.Online && p.Location != nil {
		return nil, fmt.Errorf("%w: location is only recorded while online", ErrBadRequest)
	}
	if p.Location != nil && !geo.Valid(*p.Location) {
		return nil, fmt.Errorf("%w: location out of range", ErrBadRequest)
	}
	out, err := s.store.UpdatePresence(ctx, p)
	if err != nil {
		return nil, err
	}
	s.syncIndex(ctx, out)
	s.notify(ctx, out)
	return out, nil
}

func (s *Service) SetRole(ctx context.Context, actor types.Actor, id types.ID, role types.Role) (*Profile, error) {
	if !actor.Is(types.RoleAdmin) {
		return nil, ErrForbidden
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrBadRequest, role)
	}
	out, err := s.store.SetRole(ctx, id, role)
	if err != nil {
		return nil, err
	}
	s.syncIndex(ctx, out)
	s.notify(ctx, out)
	return out, nil
}

func (s *Service) SetKYC(ctx context.Context, actor types.Actor, id types.ID, status KYCStatus) (*Profile, error) {
	if !actor.Is(types.RoleAdmin) {
		return nil, ErrForbidden
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown kyc status %q", ErrBadRequest, status)
	}
	out, err := s.store.SetKYC(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, out)
	return out, nil
}

// syncIndex is best effort; the profiles table stays authoritative.
func (s *Service) syncIndex(ctx context.Context, p *Profile) {
	if s.index == nil {
		return
	}
	var err error
	if p.IsDriver() && p.IsOnline && p.LastLocation != nil {
		err = s.index.Track(ctx, p.ID, *p.LastLocation)
	} else {
		err = s.index.Untrack(ctx, p.ID)
	}
	if err != nil {
		log.Printf("profile %s: driver index sync: %v", p.ID, err)
	}
}

func (s *Service) notify(ctx context.Context, p *Profile) {
	if s.notifier == nil {
		return
	}
	s.notifier.ProfileChanged(ctx, p.ID, p.Role)
}
