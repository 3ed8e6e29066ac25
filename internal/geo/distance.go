package geo

import (
	"math"
	"sort"

	"gazflow/internal/types"
)

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance in kilometres between a and b.
func DistanceKm(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// SortByDistance orders items by ascending distance. Items without a
// distance (ok == false) keep their relative order after the ranked ones.
func SortByDistance[T any](items []T, dist func(T) (float64, bool)) {
	sort.SliceStable(items, func(i, j int) bool {
		di, oki := dist(items[i])
		dj, okj := dist(items[j])
		switch {
		case oki && okj:
			return di < dj
		case oki:
			return true
		default:
			return false
		}
	})
}
