package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staff-ride-router/internal/database"
	"staff-ride-router/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var _ database.DataStore = (*Store)(nil)

func TestRebind(t *testing.T) {
	pg := &Store{dialect: DialectPostgres}
	lite := &Store{dialect: DialectSQLite}
	q := `SELECT * FROM staff WHERE id = ? AND name = ? LIMIT ?`

	assert.Equal(t, `SELECT * FROM staff WHERE id = $1 AND name = $2 LIMIT $3`, pg.rebind(q))
	assert.Equal(t, q, lite.rebind(q))
}

func TestNewSQLiteCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.HealthCheck(context.Background()))
	require.NoError(t, s.Close())

	// reopening keeps the existing schema
	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, DialectSQLite, s.Dialect())
}

func TestStaffCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Staff()

	created, err := repo.Create(ctx, &models.StaffMember{Name: "Ama Mensah", Address: "Osu", Lat: 5.556, Lng: -0.182})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ama Mensah", got.Name)
	assert.Equal(t, 5.556, got.Lat)

	got.Address = "Labone"
	_, err = repo.Update(ctx, got)
	require.NoError(t, err)

	got, err = repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Labone", got.Address)

	require.NoError(t, repo.Delete(ctx, created.ID))
	got, err = repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStaffNotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Staff()

	assert.ErrorIs(t, repo.Delete(ctx, 404), database.ErrNotFound)
	_, err := repo.Update(ctx, &models.StaffMember{ID: 404, Name: "x"})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestStaffListSearchAndIDs(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Staff()

	var ids []int64
	for _, m := range []models.StaffMember{
		{Name: "Kofi", Address: "East Legon", Lat: 5.63, Lng: -0.16},
		{Name: "Abena", Address: "Tema", Lat: 5.67, Lng: -0.01},
		{Name: "Yaw", Address: "Legon Hall", Lat: 5.65, Lng: -0.19},
	} {
		m := m
		created, err := repo.Create(ctx, &m)
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Abena", all[0].Name)

	found, err := repo.List(ctx, "legon")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	some, err := repo.GetByIDs(ctx, []int64{ids[2], ids[0]})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, ids[0], some[0].ID)

	none, err := repo.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSettingsSeededWithDefaults(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Settings()

	s, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), *s)

	s.MaxPassengers = 6
	s.DestinationName = "Airport City"
	s.Seed = 1 << 63
	require.NoError(t, repo.Update(ctx, s))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, got.MaxPassengers)
	assert.Equal(t, "Airport City", got.DestinationName)
	assert.Equal(t, uint64(1<<63), got.Seed)
}

func TestRunsLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Runs()

	run := &models.Run{
		RunID:       "5f7a3c1e-0000-4000-8000-000000000001",
		Destination: models.Coordinates{Lat: 5.58, Lng: -0.14},
		Params:      models.DefaultSettings(),
		Notes:       "morning shift",
		Summary:     models.OptimizationSummary{TotalRecords: 5, RouteCount: 1, RoutedStaff: 4, UnassignedCount: 1, TotalDistanceKm: 12.5, TotalCost: 31.25},
	}
	assignments := []models.RunAssignment{
		{RouteName: "Route 1", StopOrder: 0, StaffID: 1, StaffName: "A", Lat: 5.6, Lng: -0.1},
		{RouteName: "Route 1", StopOrder: 1, StaffID: 2, StaffName: "B", Lat: 5.61, Lng: -0.1, DistanceFromPrevKm: 1.1},
		{StaffID: 3, StaffName: "C", Lat: 5.7, Lng: -0.2, Unassigned: true, Reason: models.ReasonNoRouteCapacity},
	}

	created, err := repo.Create(ctx, run, assignments)
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, rows, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, run.Summary, got.Summary)
	assert.Equal(t, run.Params, got.Params)
	assert.Equal(t, "morning shift", got.Notes)
	require.Len(t, rows, 3)
	assert.Equal(t, created.ID, rows[0].RunID)
	assert.Equal(t, 1.1, rows[1].DistanceFromPrevKm)
	assert.True(t, rows[2].Unassigned)
	assert.Equal(t, models.ReasonNoRouteCapacity, rows[2].Reason)

	list, total, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, created.ID))
	got, _, err = repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), database.ErrNotFound)
}

func TestRunsListPaging(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Runs()

	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, &models.Run{RunID: string(rune('a' + i)), Params: models.DefaultSettings()}, nil)
		require.NoError(t, err)
	}

	page, total, err := repo.List(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 2)
}

func TestDirectionsCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).DirectionsCache()
	waypoints := []models.Coordinates{{Lat: 5.6, Lng: -0.17}, {Lat: 5.5826, Lng: -0.1435}}

	miss, err := repo.Get(ctx, waypoints)
	require.NoError(t, err)
	assert.Nil(t, miss)

	entry := &models.DirectionsCacheEntry{
		Waypoints: waypoints,
		Directions: models.RouteDirections{
			DistanceMeters: 4200,
			DurationSecs:   540,
			Geometry:       orb.LineString{{-0.17, 5.6}, {-0.16, 5.59}, {-0.1435, 5.5826}},
		},
	}
	require.NoError(t, repo.Set(ctx, entry))

	// nearby coordinates share the rounded key
	hit, err := repo.Get(ctx, []models.Coordinates{{Lat: 5.600001, Lng: -0.170001}, {Lat: 5.5826, Lng: -0.1435}})
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, 4200.0, hit.Directions.DistanceMeters)
	assert.Equal(t, entry.Directions.Geometry, hit.Directions.Geometry)

	entry.Directions.DistanceMeters = 4300
	require.NoError(t, repo.Set(ctx, entry))
	hit, err = repo.Get(ctx, waypoints)
	require.NoError(t, err)
	assert.Equal(t, 4300.0, hit.Directions.DistanceMeters)

	require.NoError(t, repo.Clear(ctx))
	miss, err = repo.Get(ctx, waypoints)
	require.NoError(t, err)
	assert.Nil(t, miss)
}
