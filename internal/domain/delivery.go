package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// DeliveryDraft carries what the delivery-creation form copies into the
// external delivery record once a quote is accepted.
type DeliveryDraft struct {
	Origin       string       `json:"origin"`
	Destination  string       `json:"destination"`
	Description  string       `json:"description"`
	Value        float64      `json:"value"`
	VehicleClass VehicleClass `json:"vehicle_class"`
	Stops        []RouteStop  `json:"stops"`
	DistanceKm   *float64     `json:"distance_km,omitempty"`
	DurationMin  *int         `json:"duration_min,omitempty"`
}

// DestinationLabel is the single stop's address, or "<n> stops: A → B" built
// from the first comma segment of each stop.
func DestinationLabel(stops []RouteStop) string {
	if len(stops) == 1 {
		return strings.TrimSpace(stops[0].Address)
	}

	heads := make([]string, 0, len(stops))
	for _, s := range stops {
		heads = append(heads, FirstSegment(s.Address))
	}
	return fmt.Sprintf("%d stops: %s", len(stops), strings.Join(heads, " → "))
}

func stopLine(i int, s RouteStop) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stop %d: %s", i+1, strings.TrimSpace(s.Address))
	if s.RecipientName != "" {
		fmt.Fprintf(&b, " (%s)", s.RecipientName)
	}
	if s.Description != "" {
		fmt.Fprintf(&b, " - %s", s.Description)
	}
	return b.String()
}

// RouteSummary joins the per-stop lines, the distance line (when a result is
// present) and a free-text note with " | ".
func RouteSummary(stops []RouteStop, result *DistanceResult, note string) string {
	lines := make([]string, 0, len(stops)+2)
	for i, s := range stops {
		lines = append(lines, stopLine(i, s))
	}
	if result != nil {
		lines = append(lines, fmt.Sprintf(
			"Distance: %skm | Time: %dmin",
			strconv.FormatFloat(result.RoundedDistanceKm(), 'f', -1, 64),
			result.RoundedDurationMin(),
		))
	}
	if note = strings.TrimSpace(note); note != "" {
		lines = append(lines, note)
	}
	return strings.Join(lines, " | ")
}
