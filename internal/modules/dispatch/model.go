package dispatch

import (
	"gazflow/internal/modules/profile"
)

type Candidate struct {
	Driver *profile.Profile
	// DistanceKm is nil when either side has no known position.
	DistanceKm *float64
}

const (
	// defaultRadiusKm bounds a nearby search when the caller gives none.
	defaultRadiusKm = 10.0
	// maxRadiusKm caps caller-supplied radii.
	maxRadiusKm = 100.0
)
