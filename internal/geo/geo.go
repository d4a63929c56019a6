// Package geo holds the great-circle distance and nearest-neighbor ranking
// used to pick candidate hospitals.
package geo

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

const earthRadiusKm = 6371.0

// ErrInvalidPoint reports a coordinate that is not finite or out of range.
var ErrInvalidPoint = errors.New("invalid coordinates")

type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate requires finite latitude in [-90, 90] and longitude in [-180, 180].
func (p Point) Validate() error {
	if !finite(p.Latitude) || !finite(p.Longitude) {
		return fmt.Errorf("%w: latitude and longitude must be finite numbers", ErrInvalidPoint)
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%w: latitude %g out of range [-90, 90]", ErrInvalidPoint, p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: longitude %g out of range [-180, 180]", ErrInvalidPoint, p.Longitude)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b Point) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push h a hair past 1 for antipodal points
	h = math.Min(1, math.Max(0, h))

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(degrees float64) float64 {
	return degrees * (math.Pi / 180)
}

// Midpoint is the coordinate average of a and b. Good enough for picking a
// traffic sample point on urban-scale trips.
func Midpoint(a, b Point) Point {
	return Point{
		Latitude:  (a.Latitude + b.Latitude) / 2,
		Longitude: (a.Longitude + b.Longitude) / 2,
	}
}

// Ranked pairs an item with its distance from the query origin.
type Ranked[T any] struct {
	Item     T
	Distance float64
}

// Nearest ranks items by distance from origin and returns the first k.
// Equal distances keep the input order. k <= 0 returns every item.
func Nearest[T any](origin Point, items []T, locate func(T) Point, k int) []Ranked[T] {
	ranked := make([]Ranked[T], len(items))
	for i, it := range items {
		ranked[i] = Ranked[T]{Item: it, Distance: Haversine(origin, locate(it))}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Distance < ranked[j].Distance
	})
	if k > 0 && k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}
