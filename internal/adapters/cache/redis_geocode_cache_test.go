package cache

import (
	"context"
	"delivery-quote-service/internal/adapters/fake"
	"delivery-quote-service/internal/domain"
	"delivery-quote-service/internal/platform/logging"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisCache(t *testing.T, ttl time.Duration) (*RedisGeocodeCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisGeocodeCache(rdb, ttl, logging.Discard()), mr
}

var paulista = domain.GeocodeResult{
	Coordinates: domain.Coordinates{Lat: -23.5614, Lon: -46.6559},
	DisplayName: "Avenida Paulista, Bela Vista, São Paulo",
}

func TestRedisGeocodeCacheRoundTrip(t *testing.T) {
	c, _ := newRedisCache(t, time.Hour)
	ctx := context.Background()

	if err := c.PutMany(ctx, map[string]domain.GeocodeResult{"Av. Paulista,  1500": paulista}); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := c.GetMany(ctx, []string{"av. paulista, 1500", "Rua Augusta"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
	if got["av. paulista, 1500"] != paulista {
		t.Fatalf("entry = %+v", got)
	}
}

func TestRedisGeocodeCacheExpires(t *testing.T) {
	c, mr := newRedisCache(t, time.Minute)
	ctx := context.Background()

	if err := c.PutMany(ctx, map[string]domain.GeocodeResult{"Av. Paulista": paulista}); err != nil {
		t.Fatalf("put: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	got, err := c.GetMany(ctx, []string{"Av. Paulista"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expired entry returned: %+v", got)
	}
}

func TestRedisGeocodeCacheSkipsCorruptEntries(t *testing.T) {
	c, mr := newRedisCache(t, time.Hour)
	mr.Set(redisKeyPrefix+"rua augusta", "{not json")

	got, err := c.GetMany(context.Background(), []string{"Rua Augusta"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("corrupt entry returned: %+v", got)
	}
}

func TestCachedGeocoderServesRepeatsFromCache(t *testing.T) {
	c, _ := newRedisCache(t, time.Hour)
	geo := fake.NewGeocoder(map[string]domain.GeocodeResult{"Av. Paulista": paulista})
	g := NewCachedGeocoder(geo, c, logging.Discard())
	ctx := context.Background()

	for range 3 {
		r, err := g.Geocode(ctx, "Av. Paulista")
		if err != nil {
			t.Fatalf("geocode: %v", err)
		}
		if r != paulista {
			t.Fatalf("result = %+v", r)
		}
	}
	if n := len(geo.Calls()); n != 1 {
		t.Fatalf("provider calls = %d, want 1", n)
	}
}

func TestCachedGeocoderNeverCachesMisses(t *testing.T) {
	c, _ := newRedisCache(t, time.Hour)
	geo := fake.NewGeocoder(nil)
	g := NewCachedGeocoder(geo, c, logging.Discard())
	ctx := context.Background()

	for range 2 {
		if _, err := g.Geocode(ctx, "nowhere"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	}
	if n := len(geo.Calls()); n != 2 {
		t.Fatalf("provider calls = %d, want 2", n)
	}
}

func TestCachedGeocoderSurvivesCacheOutage(t *testing.T) {
	c, mr := newRedisCache(t, time.Hour)
	mr.Close()

	geo := fake.NewGeocoder(map[string]domain.GeocodeResult{"Av. Paulista": paulista})
	g := NewCachedGeocoder(geo, c, logging.Discard())

	r, err := g.Geocode(context.Background(), "Av. Paulista")
	if err != nil {
		t.Fatalf("geocode: %v", err)
	}
	if r != paulista {
		t.Fatalf("result = %+v", r)
	}
}

func TestKeyNormalizes(t *testing.T) {
	if got := Key("  Av.  Paulista,\t1500 "); got != "av. paulista, 1500" {
		t.Fatalf("key = %q", got)
	}
}
