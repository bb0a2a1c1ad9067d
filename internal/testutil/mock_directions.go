package testutil

import (
	"context"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"staff-ride-router/internal/database"
	"staff-ride-router/internal/models"
)

// MockDirectionsProvider is a mock directions provider for testing.
// It returns the great-circle legs scaled by ScaleFactor and a geometry through every waypoint.
type MockDirectionsProvider struct {
	ScaleFactor float64
	Err         error

	mu    sync.Mutex
	Calls [][]models.Coordinates
}

func NewMockDirectionsProvider() *MockDirectionsProvider {
	return &MockDirectionsProvider{
		ScaleFactor: 1.3,
	}
}

func (m *MockDirectionsProvider) GetRoute(ctx context.Context, waypoints []models.Coordinates) (*models.RouteDirections, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, append([]models.Coordinates(nil), waypoints...))
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	ls := make(orb.LineString, len(waypoints))
	var meters float64
	for i, w := range waypoints {
		ls[i] = w.Point()
		if i > 0 {
			meters += geo.DistanceHaversine(ls[i-1], ls[i])
		}
	}
	meters *= m.ScaleFactor

	// Assume average speed of 40 km/h for duration
	return &models.RouteDirections{
		DistanceMeters: meters,
		DurationSecs:   meters / 40000 * 3600,
		Geometry:       ls,
	}, nil
}

// CallCount returns the number of GetRoute calls
func (m *MockDirectionsProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockDirectionsCache is an in-memory DirectionsCacheRepository for testing
type MockDirectionsCache struct {
	mu      sync.Mutex
	entries map[string]*models.DirectionsCacheEntry
}

func NewMockDirectionsCache() *MockDirectionsCache {
	return &MockDirectionsCache{
		entries: make(map[string]*models.DirectionsCacheEntry),
	}
}

func (c *MockDirectionsCache) Get(ctx context.Context, waypoints []models.Coordinates) (*models.DirectionsCacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[database.DirectionsCacheKey(waypoints)]; ok {
		return entry, nil
	}
	return nil, nil
}

func (c *MockDirectionsCache) Set(ctx context.Context, entry *models.DirectionsCacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[database.DirectionsCacheKey(entry.Waypoints)] = entry
	return nil
}

func (c *MockDirectionsCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*models.DirectionsCacheEntry)
	return nil
}

// Count returns the number of entries in the cache
func (c *MockDirectionsCache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
