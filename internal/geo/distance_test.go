package geo

import (
	"math"
	"testing"

	"gazflow/internal/types"
)

func TestDistanceKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		a, b      types.Point
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "same point",
			a:         types.Point{Lat: 5.3484, Lng: -4.0305},
			b:         types.Point{Lat: 5.3484, Lng: -4.0305},
			wantKm:    0,
			tolerance: 0.001,
		},
		{
			name:      "Abidjan Plateau to Cocody (~6km)",
			a:         types.Point{Lat: 5.3236, Lng: -4.0197},
			b:         types.Point{Lat: 5.3600, Lng: -3.9800},
			wantKm:    5.9,
			tolerance: 1.0,
		},
		{
			name:      "Dakar to Abidjan (~2000km)",
			a:         types.Point{Lat: 14.7167, Lng: -17.4677},
			b:         types.Point{Lat: 5.3600, Lng: -4.0083},
			wantKm:    1800,
			tolerance: 150,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("DistanceKm() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestDistanceKm_Symmetry(t *testing.T) {
	a := types.Point{Lat: 25.0, Lng: 121.0}
	b := types.Point{Lat: 26.0, Lng: 122.0}
	if d1, d2 := DistanceKm(a, b), DistanceKm(b, a); math.Abs(d1-d2) > 0.0001 {
		t.Errorf("haversine is not symmetric: %f vs %f", d1, d2)
	}
}

func TestSortByDistance_UnrankedLast(t *testing.T) {
	type item struct {
		id   string
		dist float64
		ok   bool
	}
	items := []item{
		{"x", 0, false},
		{"c", 5, true},
		{"a", 1, true},
		{"y", 0, false},
		{"b", 3, true},
	}
	SortByDistance(items, func(i item) (float64, bool) { return i.dist, i.ok })

	got := ""
	for _, i := range items {
		got += i.id
	}
	if got != "abcxy" {
		t.Errorf("unexpected sort order: %s", got)
	}
}
