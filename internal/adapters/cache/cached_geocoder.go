package cache

import (
	"context"
	"delivery-quote-service/internal/domain"
	"delivery-quote-service/internal/ports"

	"github.com/sirupsen/logrus"
)

// CachedGeocoder consults a GeocodeCache before the wrapped geocoder and
// stores successful results. Misses are never cached, and cache errors only
// cost a provider call.
type CachedGeocoder struct {
	next  ports.Geocoder
	cache ports.GeocodeCache
	log   logrus.FieldLogger
}

func NewCachedGeocoder(next ports.Geocoder, cache ports.GeocodeCache, log logrus.FieldLogger) *CachedGeocoder {
	return &CachedGeocoder{next: next, cache: cache, log: log}
}

func (g *CachedGeocoder) Geocode(ctx context.Context, address string) (domain.GeocodeResult, error) {
	key := Key(address)

	hits, err := g.cache.GetMany(ctx, []string{key})
	if err != nil {
		g.log.WithError(err).Warn("geocode cache read failed")
	} else if r, ok := hits[key]; ok {
		return r, nil
	}

	r, err := g.next.Geocode(ctx, address)
	if err != nil {
		return domain.GeocodeResult{}, err
	}

	if err := g.cache.PutMany(ctx, map[string]domain.GeocodeResult{key: r}); err != nil {
		g.log.WithError(err).Warn("geocode cache write failed")
	}
	return r, nil
}
