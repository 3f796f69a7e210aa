package domain

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0

// Immutable geographic coordinates (latitude, longitude) in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports whether the coordinates fall inside the WGS84 ranges.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return fmt.Errorf("coordinates: NaN component: %w", ErrInvalidInput)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("coordinates: latitude %.6f out of range: %w", c.Lat, ErrInvalidInput)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("coordinates: longitude %.6f out of range: %w", c.Lon, ErrInvalidInput)
	}
	return nil
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

func toRad(deg float64) float64 {
	return deg * (math.Pi / 180)
}

// HaversineKm returns the great-circle distance between a and b in kilometers.
func HaversineKm(a, b Coordinates) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
