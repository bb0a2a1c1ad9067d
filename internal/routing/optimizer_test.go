package routing

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staff-ride-router/internal/clustering"
	"staff-ride-router/internal/models"
	"staff-ride-router/internal/testutil"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Epochs = 200
	return cfg
}

func optimize(t *testing.T, staff []models.StaffLocation, cfg Config) *models.OptimizationResult {
	t.Helper()
	result, err := NewOptimizer().Optimize(context.Background(), &OptimizationRequest{
		Staff:  testutil.Records(staff),
		Config: cfg,
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

// assertConservation checks every valid staff id is either routed or unassigned, once
func assertConservation(t *testing.T, staff []models.StaffLocation, result *models.OptimizationResult) {
	t.Helper()
	count := make(map[int64]int)
	for _, r := range result.Routes {
		for _, id := range r.StaffIDs() {
			count[id]++
		}
	}
	for _, u := range result.Unassigned {
		count[u.StaffID]++
	}
	for _, s := range staff {
		assert.Equal(t, 1, count[s.ID], "staff %d", s.ID)
	}
	assert.Len(t, count, len(staff))
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(*Config)
		field string
	}{
		{"grid", func(c *Config) { c.GridSize = 0 }, "grid_size"},
		{"grid too large", func(c *Config) { c.GridSize = clustering.MaxGridSize + 1 }, "grid_size"},
		{"grid overflow", func(c *Config) { c.GridSize = 1 << 32 }, "grid_size"},
		{"sigma", func(c *Config) { c.Sigma = -1 }, "sigma"},
		{"sigma nan", func(c *Config) { c.Sigma = math.NaN() }, "sigma"},
		{"learning rate", func(c *Config) { c.LearningRate = 0 }, "learning_rate"},
		{"learning rate high", func(c *Config) { c.LearningRate = 1.01 }, "learning_rate"},
		{"epochs", func(c *Config) { c.Epochs = -5 }, "epochs"},
		{"min", func(c *Config) { c.MinPassengers = 0 }, "min_passengers"},
		{"max below min", func(c *Config) { c.MaxPassengers = 2 }, "max_passengers"},
		{"cost", func(c *Config) { c.CostPerKm = -0.1 }, "cost_per_km"},
		{"destination", func(c *Config) { c.Destination.Lat = 95 }, "destination"},
		{"workers", func(c *Config) { c.Workers = -1 }, "workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mut(&cfg)

			result, err := NewOptimizer().Optimize(context.Background(), &OptimizationRequest{
				Staff:  testutil.Records(testutil.StaffLine(testutil.Office, 6, 0.01)),
				Config: cfg,
			})

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Nil(t, result)
		})
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestOptimizeEmptyInputIsConfigurationError(t *testing.T) {
	_, err := NewOptimizer().Optimize(context.Background(), &OptimizationRequest{Config: DefaultConfig()})

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "staff", cfgErr.Field)
}

func TestOptimizeAllInvalidIsConfigurationError(t *testing.T) {
	records := []models.StaffRecord{
		{ID: 1, Latitude: models.ParseCoordinate("abc"), Longitude: models.Coordinate(0)},
		{ID: 2},
	}

	_, err := NewOptimizer().Optimize(context.Background(), &OptimizationRequest{Staff: records, Config: DefaultConfig()})

	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestOptimizeTwelveStaffSingleCluster(t *testing.T) {
	cfg := testConfig()
	cfg.GridSize = 1
	staff := testutil.StaffGrid(testutil.Office, 3, 4, 0.01)

	result := optimize(t, staff, cfg)

	require.Len(t, result.Routes, 3)
	for i, r := range result.Routes {
		assert.Len(t, r.Stops, 4)
		assert.Equal(t, 0, r.Rebalanced)
		assert.Equal(t, []string{"Route 1", "Route 2", "Route 3"}[i], r.Name)
	}
	assert.Empty(t, result.Unassigned)
	assert.Equal(t, 1, result.Summary.ClusterCount)
	assertConservation(t, staff, result)
}

func TestOptimizeFiveStaffLeavesOneUnassigned(t *testing.T) {
	cfg := testConfig()
	cfg.GridSize = 1
	staff := testutil.StaffLine(testutil.Office, 5, 0.01)

	result := optimize(t, staff, cfg)

	require.Len(t, result.Routes, 1)
	assert.Len(t, result.Routes[0].Stops, 4)
	require.Len(t, result.Unassigned, 1)
	assert.Equal(t, models.ReasonNoRouteCapacity, result.Unassigned[0].Reason)
	assert.NotEmpty(t, result.Warnings)
	assertConservation(t, staff, result)
}

func TestOptimizeLoneUndersizedClusterIsResidue(t *testing.T) {
	cfg := testConfig()
	cfg.GridSize = 1
	staff := testutil.StaffLine(testutil.Office, cfg.MinPassengers-1, 0.01)

	result := optimize(t, staff, cfg)

	assert.Empty(t, result.Routes)
	require.Len(t, result.Unassigned, len(staff))
	for _, u := range result.Unassigned {
		assert.Equal(t, models.ReasonUndersizedCluster, u.Reason)
	}
	assert.Equal(t, 0.0, result.Summary.TotalCost)
	assert.Equal(t, 0.0, result.Summary.AverageCostPerRoute)
}

func TestOptimizeConservationAndBounds(t *testing.T) {
	for _, seed := range []uint64{1, 2, 3, 42} {
		cfg := testConfig()
		cfg.Seed = seed
		staff := testutil.RandomStaff(testutil.Office, 37, 0.03, seed)

		result := optimize(t, staff, cfg)

		assertConservation(t, staff, result)
		for _, r := range result.Routes {
			assert.GreaterOrEqual(t, len(r.Stops), cfg.MinPassengers)
			assert.LessOrEqual(t, len(r.Stops), cfg.MaxPassengers)
			assert.GreaterOrEqual(t, r.DistanceKm, 0.0)
			assert.InDelta(t, r.DistanceKm*cfg.CostPerKm, r.Cost, 1e-9)
		}
		assert.Len(t, result.Clusters, len(staff))
	}
}

func TestOptimizeScoresMatchScorer(t *testing.T) {
	cfg := testConfig()
	staff := testutil.RandomStaff(testutil.Office, 20, 0.03, 5)

	result := optimize(t, staff, cfg)

	var total float64
	for _, r := range result.Routes {
		stops := make([]models.StaffLocation, len(r.Stops))
		for i := range r.Stops {
			stops[i] = r.Stops[i].Staff
		}
		d, c, err := Score(stops, cfg.Destination, cfg.CostPerKm)
		require.NoError(t, err)
		assert.InDelta(t, d, r.DistanceKm, 1e-9)
		assert.InDelta(t, c, r.Cost, 1e-9)
		assert.InDelta(t, r.DistanceKm, r.Stops[len(r.Stops)-1].CumulativeKm+r.FinalLegKm, 1e-9)
		total += c
	}
	assert.InDelta(t, total, result.Summary.TotalCost, 1e-9)
	assert.Equal(t, len(staff)-len(result.Unassigned), result.Summary.RoutedStaff)
}

func TestOptimizeIsDeterministic(t *testing.T) {
	cfg := testConfig()
	staff := testutil.RandomStaff(testutil.Office, 40, 0.03, 11)

	a := optimize(t, staff, cfg)
	b := optimize(t, staff, cfg)

	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, a.Clusters, b.Clusters)
	assert.Equal(t, a.Routes, b.Routes)
	assert.Equal(t, a.Unassigned, b.Unassigned)
	assert.Equal(t, a.Summary, b.Summary)
}

func TestOptimizeParallelMatchesSequential(t *testing.T) {
	cfg := testConfig()
	staff := testutil.RandomStaff(testutil.Office, 40, 0.03, 13)

	seq := optimize(t, staff, cfg)
	cfg.Workers = 4
	par := optimize(t, staff, cfg)

	assert.Equal(t, seq.Clusters, par.Clusters)
	assert.Equal(t, seq.Routes, par.Routes)
	assert.Equal(t, seq.Unassigned, par.Unassigned)
	assert.Equal(t, seq.Summary, par.Summary)
}

func TestOptimizeFiltersBadRecords(t *testing.T) {
	cfg := testConfig()
	cfg.GridSize = 1
	staff := testutil.StaffLine(testutil.Office, 4, 0.01)
	records := testutil.Records(staff)
	records = append(records,
		models.StaffRecord{ID: 50, Name: "No coords"},
		models.StaffRecord{ID: 51, Latitude: models.ParseCoordinate("x"), Longitude: models.Coordinate(1)},
		models.StaffRecord{ID: 2, Name: "Dup", Latitude: models.Coordinate(5.6), Longitude: models.Coordinate(-0.1)},
	)

	result, err := NewOptimizer().Optimize(context.Background(), &OptimizationRequest{Staff: records, Config: cfg})
	require.NoError(t, err)

	require.Len(t, result.Filtered, 3)
	assert.Equal(t, models.ReasonInvalidCoordinates, result.Filtered[0].Reason)
	assert.Equal(t, models.ReasonInvalidCoordinates, result.Filtered[1].Reason)
	assert.Equal(t, models.ReasonDuplicateID, result.Filtered[2].Reason)
	assert.Equal(t, 7, result.Summary.TotalRecords)
	assert.Equal(t, 4, result.Summary.ValidStaff)
	assert.Equal(t, 3, result.Summary.FilteredCount)
	assertConservation(t, staff, result)
}

func TestOptimizeHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOptimizer().Optimize(ctx, &OptimizationRequest{
		Staff:  testutil.Records(testutil.StaffLine(testutil.Office, 6, 0.01)),
		Config: testConfig(),
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildClusterIsolatesFailure(t *testing.T) {
	cfg := testConfig()
	c := models.Cluster{ID: 4, Members: []models.StaffLocation{
		{ID: 1, Lat: math.NaN(), Lng: 0},
		{ID: 2, Lat: 5.6, Lng: -0.1},
		{ID: 3, Lat: 5.61, Lng: -0.1},
	}}

	out := buildCluster(&c, cfg)

	var routingErr *ErrRoutingFailed
	require.True(t, errors.As(out.err, &routingErr))
	assert.Equal(t, 4, routingErr.ClusterID)
	assert.Empty(t, out.routes)
}

func TestFilterRecordsKeepsInputOrder(t *testing.T) {
	records := []models.StaffRecord{
		{ID: 3, Latitude: models.Coordinate(1), Longitude: models.Coordinate(1)},
		{ID: 1, Latitude: models.Coordinate(2), Longitude: models.Coordinate(2)},
		{ID: 2, Latitude: models.Coordinate(3), Longitude: models.Coordinate(200)},
	}

	staff, filtered := FilterRecords(records)

	require.Len(t, staff, 2)
	assert.Equal(t, int64(3), staff[0].ID)
	assert.Equal(t, int64(1), staff[1].ID)
	require.Len(t, filtered, 1)
	assert.Equal(t, int64(2), filtered[0].StaffID)
}

func TestConfigFromSettingsRoundTrip(t *testing.T) {
	s := models.DefaultSettings()

	cfg := ConfigFromSettings(&s)
	var back models.Settings
	back.DestinationName = s.DestinationName
	cfg.ApplyTo(&back)

	assert.Equal(t, s, back)
	assert.NoError(t, cfg.Validate())
}
