package tracking

import (
	"time"

	"gazflow/internal/modules/order"
	"gazflow/internal/types"
)

type Snapshot struct {
	OrderID         types.ID
	Status          order.Status
	DriverID        *types.ID
	DriverName      string
	DriverPhone     *string
	DriverPoint     *types.Point
	DriverSeenAt    *time.Time
	ClientPoint     *types.Point
	DeliveryAddress string
	EtaHintMinutes  int
	ProgressPercent int
	// Stale is set when a driver position existed but was older than the
	// configured max age and was dropped.
	Stale bool
}

type DriverMarker struct {
	DriverID types.ID
	Name     string
	Point    *types.Point
	SeenAt   *time.Time
	Stale    bool
}

// Board is the admin live view: every active order plus every online driver.
type Board struct {
	Orders  []Snapshot
	Drivers []DriverMarker
}

// etaHint is a fixed bucket per status, not a distance estimate.
func etaHint(s order.Status) int {
	switch s {
	case order.StatusPending, order.StatusAssigned:
		return 25
	case order.StatusInProgress:
		return 15
	}
	return 0
}

func progress(s order.Status) int {
	switch s {
	case order.StatusPending:
		return 25
	case order.StatusAssigned:
		return 50
	case order.StatusInProgress:
		return 75
	case order.StatusArrived:
		return 90
	case order.StatusDelivered:
		return 100
	}
	return 0
}

// showsDriver reports whether the driver marker belongs on the map for s.
func showsDriver(s order.Status) bool {
	switch s {
	case order.StatusAssigned, order.StatusInProgress, order.StatusArrived:
		return true
	}
	return false
}
