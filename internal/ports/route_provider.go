package ports

import (
	"context"
	"delivery-quote-service/internal/domain"
)

// Contract for retrieving road travel distance and duration between two coordinates.
type RouteProvider interface {
	// Return the driving leg between origin and destination, or an error when
	// the service is unreachable, answers non-OK, or has no route.
	Route(ctx context.Context, origin, destination domain.Coordinates) (domain.RouteLeg, error)
}
