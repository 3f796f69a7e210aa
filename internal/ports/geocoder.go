package ports

import (
	"context"
	"delivery-quote-service/internal/domain"
)

// Contract for resolving a free-text address to a coordinate.
// A miss (empty result, provider or network failure) is reported as an
// error wrapping domain.ErrNotFound.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.GeocodeResult, error)
}

// Contract for autocomplete lookups. Results are in provider relevance order.
type AddressSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.AddressSuggestion, error)
}

// Port: optional persistent cache of geocoding results keyed by normalized address.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.GeocodeResult, error)
	PutMany(ctx context.Context, results map[string]domain.GeocodeResult) error
}
