package services

import (
	"context"
	"delivery-quote-service/internal/domain"
	"delivery-quote-service/internal/ports"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	// Road-network distance over straight-line distance.
	RoadDistanceFactor = 1.3
	// Average urban driving speed used for estimated legs.
	AverageUrbanSpeedKmh = 30.0
)

// LegStrategy computes one origin->destination leg.
type LegStrategy interface {
	ResolveLeg(ctx context.Context, origin, destination domain.Coordinates) (domain.RouteLeg, error)
}

// PrimaryRouteStrategy asks the routing service for the driving leg.
type PrimaryRouteStrategy struct {
	Provider ports.RouteProvider
}

func (s PrimaryRouteStrategy) ResolveLeg(ctx context.Context, origin, destination domain.Coordinates) (domain.RouteLeg, error) {
	if s.Provider == nil {
		return domain.RouteLeg{}, fmt.Errorf("primary route strategy: no provider: %w", domain.ErrProviderUnavailable)
	}

	leg, err := s.Provider.Route(ctx, origin, destination)
	if err != nil {
		return domain.RouteLeg{}, err
	}
	leg.Estimated = false
	return leg, nil
}

// FallbackRouteStrategy estimates the leg from great-circle distance.
type FallbackRouteStrategy struct{}

func (FallbackRouteStrategy) ResolveLeg(_ context.Context, origin, destination domain.Coordinates) (domain.RouteLeg, error) {
	road := domain.HaversineKm(origin, destination) * RoadDistanceFactor

	return domain.RouteLeg{
		DistanceKm:  road,
		DurationMin: (road / AverageUrbanSpeedKmh) * 60,
		Estimated:   true,
	}, nil
}

// LegResolver makes exactly one primary attempt and, on any failure, exactly
// one fallback computation. Routing failures are never surfaced to callers.
type LegResolver struct {
	primary  LegStrategy
	fallback LegStrategy
	log      logrus.FieldLogger
}

func NewLegResolver(primary, fallback LegStrategy, log logrus.FieldLogger) *LegResolver {
	if fallback == nil {
		fallback = FallbackRouteStrategy{}
	}
	return &LegResolver{primary: primary, fallback: fallback, log: log}
}

// ResolveLeg returns an error only for invalid coordinates or a cancelled caller context.
func (r *LegResolver) ResolveLeg(ctx context.Context, origin, destination domain.Coordinates) (domain.RouteLeg, error) {
	if err := origin.Validate(); err != nil {
		return domain.RouteLeg{}, fmt.Errorf("resolve leg: origin: %w", err)
	}
	if err := destination.Validate(); err != nil {
		return domain.RouteLeg{}, fmt.Errorf("resolve leg: destination: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return domain.RouteLeg{}, fmt.Errorf("resolve leg: %w", err)
	}

	if r.primary != nil {
		leg, err := r.primary.ResolveLeg(ctx, origin, destination)
		if err == nil && leg.DistanceKm >= 0 && leg.DurationMin >= 0 {
			return leg, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return domain.RouteLeg{}, fmt.Errorf("resolve leg: %w", ctxErr)
		}
		r.log.WithError(err).Info("routing service unavailable, estimating leg from straight-line distance")
	}

	leg, err := r.fallback.ResolveLeg(ctx, origin, destination)
	if err != nil {
		return domain.RouteLeg{}, fmt.Errorf("resolve leg: fallback: %w", err)
	}
	return leg, nil
}
