package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// InitSchema creates the geocode_cache table used by SQLGeocodeCache.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_geocode_cache_updated_at
	ON geocode_cache(updated_at);
	`

	for _, q := range []string{createGeocodeCacheQuery, createIndexQuery} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("init schema: exec: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit: %w", err)
	}
	return nil
}

// Prune deletes entries not refreshed within maxAge and returns how many.
func Prune(ctx context.Context, db *sql.DB, maxAge time.Duration) (int64, error) {
	if db == nil {
		return 0, errors.New("prune: DB is nil")
	}

	res, err := db.ExecContext(ctx,
		`DELETE FROM geocode_cache WHERE updated_at < now() - ($1::bigint * interval '1 second');`,
		int64(maxAge/time.Second),
	)
	if err != nil {
		return 0, fmt.Errorf("prune: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune: rows affected: %w", err)
	}
	return n, nil
}
