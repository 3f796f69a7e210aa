package cache

import (
	"context"
	"database/sql"
	"delivery-quote-service/internal/domain"
	"delivery-quote-service/internal/platform/obs"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// SQLGeocodeCache is a Postgres-backed cache of geocoding results keyed by Key(address).
// Entries older than TTL are ignored; TTL <= 0 keeps entries forever.
type SQLGeocodeCache struct {
	DB  *sql.DB
	TTL time.Duration
	log logrus.FieldLogger
}

func NewSQLGeocodeCache(db *sql.DB, ttl time.Duration, log logrus.FieldLogger) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db, TTL: ttl, log: log}
}

// Fetch cached results for the given addresses. Misses are absent from the map.
func (s *SQLGeocodeCache) GetMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.GeocodeResult, err error) {
	defer obs.Time(ctx, s.log, "geocode.cache.sql.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	uniq := uniqueKeys(addresses)
	if len(uniq) == 0 {
		return map[string]domain.GeocodeResult{}, nil
	}

	q := `
	SELECT address, lat, lon, display_name
	FROM geocode_cache
	WHERE address = ANY($1::text[])
	  AND ($2::bigint <= 0 OR updated_at > now() - ($2::bigint * interval '1 second'));
	`

	rows, err := s.DB.QueryContext(ctx, q, uniq, int64(s.TTL/time.Second))
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.GeocodeResult, len(uniq))
	for rows.Next() {
		var addr, name string
		var lat, lon float64
		if err := rows.Scan(&addr, &lat, &lon, &name); err != nil {
			return nil, fmt.Errorf("get geocode cache: scan rows: %w", err)
		}
		out[addr] = domain.GeocodeResult{
			Coordinates: domain.Coordinates{Lat: lat, Lon: lon},
			DisplayName: name,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get geocode cache: row iteration: %w", err)
	}

	return out, nil
}

// Store address -> result mappings in the cache.
func (s *SQLGeocodeCache) PutMany(ctx context.Context, results map[string]domain.GeocodeResult) (err error) {
	defer obs.Time(ctx, s.log, "geocode.cache.sql.PutMany")(&err)

	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}

	if len(results) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert geocode cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO geocode_cache (address, lat, lon, display_name, updated_at)
	VALUES ($1, $2, $3, $4, now())
	ON CONFLICT (address) DO UPDATE
	SET lat = EXCLUDED.lat,
		lon = EXCLUDED.lon,
		display_name = EXCLUDED.display_name,
		updated_at = EXCLUDED.updated_at;
	`)
	if err != nil {
		return fmt.Errorf("insert geocode cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for addr, r := range results {
		key := Key(addr)
		if key == "" {
			return fmt.Errorf("insert geocode cache: empty address key")
		}

		if _, err := stmt.ExecContext(ctx, key, r.Coordinates.Lat, r.Coordinates.Lon, r.DisplayName); err != nil {
			return fmt.Errorf("insert geocode cache address=%q: %w", addr, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert geocode cache commit: %w", err)
	}

	return nil
}
