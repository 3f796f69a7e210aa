package services

import (
	"context"
	"delivery-quote-service/internal/domain"
	"delivery-quote-service/internal/ports"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Upper bound of concurrent geocoding calls for one route.
const geocodeConcurrency = 4

// RouteAggregator chains legs origin -> stop1 -> stop2 -> ... and sums them.
//
// Addresses are geocoded up front (concurrently, each distinct address once);
// legs are then resolved strictly in order. Any geocoding or leg failure fails
// the whole route: partial totals are never returned.
type RouteAggregator struct {
	geocoder ports.Geocoder
	legs     LegStrategy
	log      logrus.FieldLogger
}

func NewRouteAggregator(geocoder ports.Geocoder, legs LegStrategy, log logrus.FieldLogger) *RouteAggregator {
	return &RouteAggregator{geocoder: geocoder, legs: legs, log: log}
}

type geocodeOutcome struct {
	result domain.GeocodeResult
	err    error
}

// ResolveRoute computes the totals for origin followed by stops in order.
// Blank stops are skipped; at least one non-blank stop is required.
func (a *RouteAggregator) ResolveRoute(
	ctx context.Context,
	origin string,
	stops []string,
) (domain.DistanceResult, error) {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return domain.DistanceResult{}, fmt.Errorf("resolve route: origin must be non-empty: %w", domain.ErrInvalidInput)
	}

	addresses := make([]string, 0, 1+len(stops))
	addresses = append(addresses, origin)
	for _, s := range stops {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		addresses = append(addresses, s)
	}
	if len(addresses) < 2 {
		return domain.DistanceResult{}, fmt.Errorf("resolve route: at least one stop is required: %w", domain.ErrInvalidInput)
	}

	coords, err := a.geocodeAll(ctx, addresses)
	if err != nil {
		return domain.DistanceResult{}, fmt.Errorf("resolve route: %w", err)
	}

	legs := make([]domain.RouteLeg, 0, len(coords)-1)
	totalDistanceKm := 0.0
	totalDurationMin := 0.0

	for i := 1; i < len(coords); i++ {
		leg, err := a.legs.ResolveLeg(ctx, coords[i-1], coords[i])
		if err != nil {
			return domain.DistanceResult{}, fmt.Errorf(
				"resolve route: leg %d %q -> %q: %w: %w",
				i, addresses[i-1], addresses[i], domain.ErrRouteFailed, err,
			)
		}

		legs = append(legs, leg)
		totalDistanceKm += leg.DistanceKm
		totalDurationMin += leg.DurationMin
	}

	return domain.DistanceResult{
		DistanceKm:  totalDistanceKm,
		DurationMin: totalDurationMin,
		Origin:      coords[0],
		Destination: coords[len(coords)-1],
		Waypoints:   coords,
		Legs:        legs,
	}, nil
}

// geocodeAll resolves every address, calling the geocoder once per distinct
// address. On failure the first failing address in route order is reported.
func (a *RouteAggregator) geocodeAll(ctx context.Context, addresses []string) ([]domain.Coordinates, error) {
	distinct := make(map[string]*geocodeOutcome, len(addresses))
	order := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if _, ok := distinct[addr]; ok {
			continue
		}
		distinct[addr] = &geocodeOutcome{}
		order = append(order, addr)
	}

	var g errgroup.Group
	g.SetLimit(geocodeConcurrency)
	for _, addr := range order {
		out := distinct[addr]
		g.Go(func() error {
			out.result, out.err = a.geocoder.Geocode(ctx, addr)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	coords := make([]domain.Coordinates, 0, len(addresses))
	for i, addr := range addresses {
		out := distinct[addr]
		if out.err != nil {
			role := domain.RoleDestination
			if i == 0 {
				role = domain.RoleOrigin
			}
			return nil, &domain.AddressNotFoundError{
				Role:     role,
				Position: i,
				Address:  addr,
				Err:      out.err,
			}
		}
		coords = append(coords, out.result.Coordinates)
	}

	return coords, nil
}
