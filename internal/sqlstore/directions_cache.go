package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"staff-ride-router/internal/database"
	"staff-ride-router/internal/models"
)

type directionsCacheRepository struct {
	store *Store
}

func (r *directionsCacheRepository) Get(ctx context.Context, waypoints []models.Coordinates) (*models.DirectionsCacheEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := `SELECT distance_meters, duration_secs, geometry FROM directions_cache WHERE cache_key = ?`

	entry := models.DirectionsCacheEntry{Waypoints: waypoints}
	var geometry string
	err := r.store.db.QueryRowContext(ctx, r.store.rebind(query), database.DirectionsCacheKey(waypoints)).Scan(
		&entry.Directions.DistanceMeters, &entry.Directions.DurationSecs, &geometry,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get directions cache entry: %w", err)
	}

	if geometry != "" {
		g, err := geojson.UnmarshalGeometry([]byte(geometry))
		if err != nil {
			return nil, fmt.Errorf("failed to decode cached geometry: %w", err)
		}
		if ls, ok := g.Geometry().(orb.LineString); ok {
			entry.Directions.Geometry = ls
		}
	}
	return &entry, nil
}

func (r *directionsCacheRepository) Set(ctx context.Context, entry *models.DirectionsCacheEntry) error {
	var geometry string
	if len(entry.Directions.Geometry) > 0 {
		b, err := geojson.NewGeometry(entry.Directions.Geometry).MarshalJSON()
		if err != nil {
			return fmt.Errorf("failed to encode geometry: %w", err)
		}
		geometry = string(b)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	query := `INSERT INTO directions_cache (cache_key, distance_meters, duration_secs, geometry, created_at)
	          VALUES (?, ?, ?, ?, ?)
	          ON CONFLICT (cache_key) DO UPDATE SET
	              distance_meters = excluded.distance_meters,
	              duration_secs = excluded.duration_secs,
	              geometry = excluded.geometry,
	              created_at = excluded.created_at`
	_, err := r.store.db.ExecContext(ctx, r.store.rebind(query),
		database.DirectionsCacheKey(entry.Waypoints),
		entry.Directions.DistanceMeters, entry.Directions.DurationSecs, geometry, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to set directions cache entry: %w", err)
	}
	return nil
}

func (r *directionsCacheRepository) Clear(ctx context.Context) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, err := r.store.db.ExecContext(ctx, `DELETE FROM directions_cache`); err != nil {
		return fmt.Errorf("failed to clear directions cache: %w", err)
	}
	return nil
}
