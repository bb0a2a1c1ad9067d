package sqlstore

import (
	"context"
	"fmt"

	"staff-ride-router/internal/models"
)

type settingsRepository struct {
	store *Store
}

func (r *settingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := `SELECT destination_name, destination_lat, destination_lng, grid_size, sigma,
	                 learning_rate, epochs, min_passengers, max_passengers, cost_per_km, seed
	          FROM settings WHERE id = 1`

	var s models.Settings
	var seed int64
	err := r.store.db.QueryRowContext(ctx, query).Scan(
		&s.DestinationName, &s.DestinationLat, &s.DestinationLng, &s.GridSize, &s.Sigma,
		&s.LearningRate, &s.Epochs, &s.MinPassengers, &s.MaxPassengers, &s.CostPerKm, &seed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	s.Seed = uint64(seed)
	return &s, nil
}

func (r *settingsRepository) Update(ctx context.Context, s *models.Settings) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	query := `UPDATE settings SET destination_name = ?, destination_lat = ?, destination_lng = ?,
	                 grid_size = ?, sigma = ?, learning_rate = ?, epochs = ?,
	                 min_passengers = ?, max_passengers = ?, cost_per_km = ?, seed = ?
	          WHERE id = 1`
	_, err := r.store.db.ExecContext(ctx, r.store.rebind(query),
		s.DestinationName, s.DestinationLat, s.DestinationLng, s.GridSize, s.Sigma,
		s.LearningRate, s.Epochs, s.MinPassengers, s.MaxPassengers, s.CostPerKm, int64(s.Seed),
	)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	return nil
}
