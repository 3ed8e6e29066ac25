// Package geo converts positions to and from the textual point forms used by
// the store, and holds small geographic helpers.
package geo

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"gazflow/internal/types"
)

// SRID is the spatial reference used for every stored point (WGS84).
const SRID = 4326

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?(?:[eE][-+]?\d+)?`)

// Encode renders a position as "SRID=4326;POINT(lng lat)". Longitude always
// comes first.
func Encode(lat, lng float64) string {
	return "SRID=" + strconv.Itoa(SRID) + ";" + EncodeWKT(lat, lng)
}

// EncodeWKT renders a position as "POINT(lng lat)" without the SRID prefix.
func EncodeWKT(lat, lng float64) string {
	return "POINT(" + formatCoord(lng) + " " + formatCoord(lat) + ")"
}

// EncodePoint is Encode for a types.Point.
func EncodePoint(p types.Point) string {
	return Encode(p.Lat, p.Lng)
}

// Decode accepts the textual point form ("POINT(lng lat)", optionally
// SRID-qualified), a GeoJSON-like object with coordinates [lng, lat] (as a
// map, raw JSON bytes or a JSON string), or nil. Malformed, absent or
// out-of-range input yields ok == false.
func Decode(raw any) (types.Point, bool) {
	switch v := raw.(type) {
	case nil:
		return types.Point{}, false
	case string:
		return decodeString(v)
	case *string:
		if v == nil {
			return types.Point{}, false
		}
		return decodeString(*v)
	case []byte:
		return decodeString(string(v))
	case json.RawMessage:
		return decodeString(string(v))
	case map[string]any:
		return decodeCoordinates(v["coordinates"])
	case GeoJSON:
		return fromLngLat(v.Coordinates)
	case *GeoJSON:
		if v == nil {
			return types.Point{}, false
		}
		return fromLngLat(v.Coordinates)
	}
	return types.Point{}, false
}

// DecodePtr is Decode returning nil for absent or malformed input.
func DecodePtr(raw any) *types.Point {
	p, ok := Decode(raw)
	if !ok {
		return nil
	}
	return &p
}

// GeoJSON is the structured point shape returned by joined reads.
type GeoJSON struct {
	Type        string    `json:"type,omitempty"`
	Coordinates []float64 `json:"coordinates"`
}

// Valid reports whether p is finite and inside the WGS84 bounds.
func Valid(p types.Point) bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

func decodeString(s string) (types.Point, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.Point{}, false
	}
	if strings.HasPrefix(s, "{") {
		var g GeoJSON
		if err := json.Unmarshal([]byte(s), &g); err != nil {
			return types.Point{}, false
		}
		return fromLngLat(g.Coordinates)
	}
	// Drop "SRID=4326;" so the SRID is not mistaken for a coordinate.
	if strings.HasPrefix(strings.ToUpper(s), "SRID=") {
		i := strings.IndexByte(s, ';')
		if i < 0 {
			return types.Point{}, false
		}
		s = s[i+1:]
	}
	tokens := numberPattern.FindAllString(s, 2)
	if len(tokens) < 2 {
		return types.Point{}, false
	}
	lng, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil {
		return types.Point{}, false
	}
	lat, err := strconv.ParseFloat(tokens[1], 64)
	if err != nil {
		return types.Point{}, false
	}
	return checked(types.Point{Lat: lat, Lng: lng})
}

func decodeCoordinates(v any) (types.Point, bool) {
	switch c := v.(type) {
	case []float64:
		return fromLngLat(c)
	case []any:
		if len(c) < 2 {
			return types.Point{}, false
		}
		lng, ok1 := toFloat(c[0])
		lat, ok2 := toFloat(c[1])
		if !ok1 || !ok2 {
			return types.Point{}, false
		}
		return checked(types.Point{Lat: lat, Lng: lng})
	}
	return types.Point{}, false
}

func fromLngLat(c []float64) (types.Point, bool) {
	if len(c) < 2 {
		return types.Point{}, false
	}
	return checked(types.Point{Lat: c[1], Lng: c[0]})
}

func checked(p types.Point) (types.Point, bool) {
	if !Valid(p) {
		return types.Point{}, false
	}
	return p, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
