package database

import (
	"context"

	"staff-ride-router/internal/models"
)

// DataStore is the interface for data persistence
type DataStore interface {
	Close() error
	HealthCheck(ctx context.Context) error
	Staff() StaffRepository
	Settings() SettingsRepository
	Runs() RunRepository
	DirectionsCache() DirectionsCacheRepository
}

// StaffRepository handles staff roster persistence
type StaffRepository interface {
	List(ctx context.Context, search string) ([]models.StaffMember, error)
	GetByID(ctx context.Context, id int64) (*models.StaffMember, error)
	GetByIDs(ctx context.Context, ids []int64) ([]models.StaffMember, error)
	Create(ctx context.Context, m *models.StaffMember) (*models.StaffMember, error)
	Update(ctx context.Context, m *models.StaffMember) (*models.StaffMember, error)
	Delete(ctx context.Context, id int64) error
}

// SettingsRepository handles settings persistence
type SettingsRepository interface {
	Get(ctx context.Context) (*models.Settings, error)
	Update(ctx context.Context, s *models.Settings) error
}

// RunRepository handles optimizer run history
type RunRepository interface {
	List(ctx context.Context, limit, offset int) ([]models.Run, int, error)
	GetByID(ctx context.Context, id int64) (*models.Run, []models.RunAssignment, error)
	Create(ctx context.Context, run *models.Run, assignments []models.RunAssignment) (*models.Run, error)
	Delete(ctx context.Context, id int64) error
}

// DirectionsCacheRepository handles directions cache persistence
type DirectionsCacheRepository interface {
	Get(ctx context.Context, waypoints []models.Coordinates) (*models.DirectionsCacheEntry, error)
	Set(ctx context.Context, entry *models.DirectionsCacheEntry) error
	Clear(ctx context.Context) error
}
