// README: Position sources and presence sinks the Location Reporter samples and publishes to.
package location

import (
	"context"
	"errors"
	"sync"
	"time"

	"gazflow/internal/types"
)

// Sampling period while a driver is online.
const (
	DefaultInterval = 10 * time.Second
	MinInterval     = 8 * time.Second
	MaxInterval     = 15 * time.Second
)

// ClampInterval maps a configured period onto the allowed sampling range.
func ClampInterval(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultInterval
	case d < MinInterval:
		return MinInterval
	case d > MaxInterval:
		return MaxInterval
	}
	return d
}

var ErrNoFix = errors.New("no position fix")

// PositionSource reads the device position.
type PositionSource interface {
	Position(ctx context.Context) (types.Point, error)
}

// PresencePublisher writes the driver's presence row. pos is nil when only
// the online flag changes.
type PresencePublisher interface {
	PublishPresence(ctx context.Context, online bool, pos *types.Point) error
}

// StaticSource always reports the same point.
type StaticSource types.Point

func (s StaticSource) Position(context.Context) (types.Point, error) {
	return types.Point(s), nil
}

// RouteSource walks a fixed list of points, one per sample, and stays on the
// last one. It stands in for a GPS on simulated drivers.
type RouteSource struct {
	mu     sync.Mutex
	points []types.Point
	next   int
}

func NewRouteSource(points ...types.Point) *RouteSource {
	return &RouteSource{points: points}
}

func (r *RouteSource) Position(context.Context) (types.Point, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.points) == 0 {
		return types.Point{}, ErrNoFix
	}
	p := r.points[r.next]
	if r.next < len(r.points)-1 {
		r.next++
	}
	return p, nil
}
