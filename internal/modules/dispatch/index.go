// README: Online driver positions mirrored into a Redis GEO set for radius search.
package dispatch

import (
	"context"

	"github.com/redis/go-redis/v9"

	"gazflow/internal/types"
)

const driverGeoKey = "dispatch:drivers"

// Nearby is one GEO search hit.
type Nearby struct {
	DriverID   types.ID
	DistanceKm float64
}

type Index struct {
	redis *redis.Client
}

func NewIndex(redis *redis.Client) *Index {
	return &Index{redis: redis}
}

func (s *Index) Track(ctx context.Context, driverID types.ID, pos types.Point) error {
	return s.redis.GeoAdd(ctx, driverGeoKey, &redis.GeoLocation{
		Name:      string(driverID),
		Longitude: pos.Lng,
		Latitude:  pos.Lat,
	}).Err()
}

func (s *Index) Untrack(ctx context.Context, driverID types.ID) error {
	return s.redis.ZRem(ctx, driverGeoKey, string(driverID)).Err()
}

// Within returns tracked drivers within radiusKm of p, nearest first.
func (s *Index) Within(ctx context.Context, p types.Point, radiusKm float64) ([]Nearby, error) {
	results, err := s.redis.GeoSearchLocation(ctx, driverGeoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  p.Lng,
			Latitude:   p.Lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
		},
		WithDist: true,
	}).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Nearby, len(results))
	for i, r := range results {
		out[i] = Nearby{DriverID: types.ID(r.Name), DistanceKm: r.Dist}
	}
	return out, nil
}
