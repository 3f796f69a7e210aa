package domain

import (
	"fmt"
	"math"
	"strings"
)

// VehicleClass drives the per-km rate and the minimum fare.
type VehicleClass string

const (
	VehicleCar   VehicleClass = "car"
	VehicleMoped VehicleClass = "moped"
)

const (
	BaseFee      = 8.00
	ExtraStopFee = 5.00
	// MaxDistanceKm caps priced distances so totals stay finite.
	MaxDistanceKm = 100000.0
)

type tariff struct {
	perKmRate   float64
	minimumFare float64
}

var tariffs = map[VehicleClass]tariff{
	VehicleCar:   {perKmRate: 3.50, minimumFare: 18.00},
	VehicleMoped: {perKmRate: 2.50, minimumFare: 12.00},
}

// ParseVehicleClass accepts the canonical names and the driver-type names used
// by the dashboard ("motorista", "motoboy"). An empty value means car.
func ParseVehicleClass(s string) (VehicleClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "car", "motorista":
		return VehicleCar, nil
	case "moped", "motoboy":
		return VehicleMoped, nil
	}
	return "", fmt.Errorf("parse vehicle class %q: %w", s, ErrInvalidInput)
}

// PriceQuote is a derived, never-persisted breakdown of a suggested price.
type PriceQuote struct {
	VehicleClass   VehicleClass `json:"vehicle_class"`
	DistanceKm     float64      `json:"distance_km"`
	BaseFee        float64      `json:"base_fee"`
	PerKmRate      float64      `json:"per_km_rate"`
	MinimumFare    float64      `json:"minimum_fare"`
	ExtraStops     int          `json:"extra_stops"`
	PerStopFee     float64      `json:"per_stop_fee"`
	SuggestedTotal float64      `json:"suggested_total"`
}

// round2 rounds to the nearest cent, half away from zero.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Quote computes the full price breakdown. Unknown classes are priced as car,
// negative or non-finite distances as zero, distances above MaxDistanceKm as
// MaxDistanceKm and negative stop counts as no extra stops.
func Quote(distanceKm float64, class VehicleClass, extraStops int) PriceQuote {
	t, ok := tariffs[class]
	if !ok {
		class = VehicleCar
		t = tariffs[VehicleCar]
	}
	switch {
	case distanceKm < 0 || math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0):
		distanceKm = 0
	case distanceKm > MaxDistanceKm:
		distanceKm = MaxDistanceKm
	}
	if extraStops < 0 {
		extraStops = 0
	}

	candidate := round2(BaseFee + distanceKm*t.perKmRate)
	perStopFee := float64(extraStops) * ExtraStopFee

	return PriceQuote{
		VehicleClass:   class,
		DistanceKm:     distanceKm,
		BaseFee:        BaseFee,
		PerKmRate:      t.perKmRate,
		MinimumFare:    t.minimumFare,
		ExtraStops:     extraStops,
		PerStopFee:     perStopFee,
		SuggestedTotal: round2(math.Max(candidate, t.minimumFare) + perStopFee),
	}
}

// Estimate returns the suggested price for a route. It is pure and never fails.
func Estimate(distanceKm float64, class VehicleClass, extraStops int) float64 {
	return Quote(distanceKm, class, extraStops).SuggestedTotal
}

// ExtraStops is the number of stops beyond the first.
func ExtraStops(validStops int) int {
	return max(0, validStops-1)
}
