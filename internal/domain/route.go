package domain

import (
	"fmt"
	"math"
)

// RouteLeg is one origin->destination hop. Values keep full precision;
// rounding happens only when the leg is presented.
// Estimated marks legs computed from straight-line distance instead of a routing service.
type RouteLeg struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
	Estimated   bool    `json:"estimated"`
}

// Represents the resolved totals of a single- or multi-leg route.
// DistanceKm is never negative. A DistanceResult only exists for a route
// whose every leg resolved; there are no partial totals.
type DistanceResult struct {
	DistanceKm  float64
	DurationMin float64
	Origin      Coordinates
	Destination Coordinates
	Waypoints   []Coordinates
	Legs        []RouteLeg
}

// EstimatedLegs counts legs that used the straight-line fallback.
func (r DistanceResult) EstimatedLegs() int {
	n := 0
	for _, l := range r.Legs {
		if l.Estimated {
			n++
		}
	}
	return n
}

// RoundedDistanceKm returns the total distance rounded to one decimal place.
func (r DistanceResult) RoundedDistanceKm() float64 {
	return math.Round(r.DistanceKm*10) / 10
}

// RoundedDurationMin returns the total duration rounded to a whole minute.
func (r DistanceResult) RoundedDurationMin() int {
	return int(math.Round(r.DurationMin))
}

// FormatDuration renders whole minutes as "45 min" or "1h 5min".
func FormatDuration(minutes int) string {
	if minutes >= 60 {
		return fmt.Sprintf("%dh %dmin", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%d min", minutes)
}
