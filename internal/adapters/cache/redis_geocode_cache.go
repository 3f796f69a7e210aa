package cache

import (
	"context"
	"delivery-quote-service/internal/domain"
	"delivery-quote-service/internal/platform/obs"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const redisKeyPrefix = "geocode:"

// RedisGeocodeCache stores geocoding results as JSON strings with a TTL.
type RedisGeocodeCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
	log logrus.FieldLogger
}

func NewRedisGeocodeCache(rdb redis.UniversalClient, ttl time.Duration, log logrus.FieldLogger) *RedisGeocodeCache {
	return &RedisGeocodeCache{rdb: rdb, ttl: ttl, log: log}
}

func (c *RedisGeocodeCache) GetMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.GeocodeResult, err error) {
	defer obs.Time(ctx, c.log, "geocode.cache.redis.GetMany")(&err)

	if c.rdb == nil {
		return nil, errors.New("geocode cache: redis client is nil")
	}

	uniq := uniqueKeys(addresses)
	out := make(map[string]domain.GeocodeResult, len(uniq))
	if len(uniq) == 0 {
		return out, nil
	}

	keys := make([]string, len(uniq))
	for i, k := range uniq {
		keys[i] = redisKeyPrefix + k
	}

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: mget: %w", err)
	}

	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var r domain.GeocodeResult
		if err := json.Unmarshal([]byte(s), &r); err != nil {
			c.log.WithError(err).WithField("key", keys[i]).Warn("dropping corrupt geocode cache entry")
			continue
		}
		out[uniq[i]] = r
	}

	return out, nil
}

func (c *RedisGeocodeCache) PutMany(ctx context.Context, results map[string]domain.GeocodeResult) (err error) {
	defer obs.Time(ctx, c.log, "geocode.cache.redis.PutMany")(&err)

	if c.rdb == nil {
		return errors.New("geocode cache: redis client is nil")
	}
	if len(results) == 0 {
		return nil
	}

	pipe := c.rdb.Pipeline()
	for addr, r := range results {
		key := Key(addr)
		if key == "" {
			return fmt.Errorf("insert geocode cache: empty address key")
		}

		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("insert geocode cache address=%q: marshal: %w", addr, err)
		}
		pipe.Set(ctx, redisKeyPrefix+key, b, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert geocode cache: exec pipeline: %w", err)
	}
	return nil
}
