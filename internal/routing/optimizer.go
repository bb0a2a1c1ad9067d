package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"staff-ride-router/internal/clustering"
	"staff-ride-router/internal/metrics"
	"staff-ride-router/internal/models"
)

// OptimizationRequest contains the input for one optimizer run
type OptimizationRequest struct {
	Staff  []models.StaffRecord
	Config Config
}

// Optimizer runs the cluster-and-route pipeline
type Optimizer struct{}

// NewOptimizer creates an optimizer
func NewOptimizer() *Optimizer {
	return &Optimizer{}
}

type clusterOutcome struct {
	routes    []models.Route
	leftovers []models.StaffLocation
	err       error
}

// Optimize clusters the valid staff records, builds capacity-bounded routes to the
// destination and scores them. Invalid configuration and an empty roster return a
// *ConfigurationError and no result. Bad records are filtered and reported; staff that
// cannot be routed are listed in Unassigned.
func (o *Optimizer) Optimize(ctx context.Context, req *OptimizationRequest) (*models.OptimizationResult, error) {
	start := time.Now()
	result, err := o.optimize(ctx, req)
	metrics.OptimizerDuration.Observe(time.Since(start).Seconds())

	var cfgErr *ConfigurationError
	switch {
	case err == nil:
		metrics.OptimizerRuns.WithLabelValues("ok").Inc()
	case errors.As(err, &cfgErr):
		metrics.OptimizerRuns.WithLabelValues("config_error").Inc()
	default:
		metrics.OptimizerRuns.WithLabelValues("error").Inc()
	}
	return result, err
}

func (o *Optimizer) optimize(ctx context.Context, req *OptimizationRequest) (*models.OptimizationResult, error) {
	cfg := req.Config
	if err := cfg.Validate(); err != nil {
		log.Warn().Str("component", "routing").Err(err).Msg("rejected configuration")
		return nil, err
	}

	runID := uuid.NewString()
	log.Info().Str("component", "routing").Str("run_id", runID).Int("records", len(req.Staff)).
		Int("min", cfg.MinPassengers).Int("max", cfg.MaxPassengers).Msg("starting optimization")

	staff, filtered := FilterRecords(req.Staff)
	for _, f := range filtered {
		metrics.FilteredRecords.WithLabelValues(f.Reason).Inc()
	}
	if len(staff) == 0 {
		return nil, &ConfigurationError{Field: "staff", Reason: "no staff with valid coordinates"}
	}

	som, err := clustering.NewTopologyMap(clustering.TopologyConfig{
		GridSize:     cfg.GridSize,
		Sigma:        cfg.Sigma,
		LearningRate: cfg.LearningRate,
		Epochs:       cfg.Epochs,
		Seed:         cfg.Seed,
	})
	if err != nil {
		return nil, topologyError(err)
	}

	initial, err := som.Assign(ctx, staff)
	if err != nil {
		if errors.Is(err, clustering.ErrEmptyInput) {
			return nil, &ConfigurationError{Field: "staff", Reason: "no staff to cluster"}
		}
		return nil, fmt.Errorf("failed to cluster staff: %w", err)
	}

	assign := clustering.Balance(staff, initial, cfg.MinPassengers)
	clusters := clustering.Group(staff, assign)
	log.Debug().Str("component", "routing").Str("run_id", runID).Int("clusters", len(clusters)).Msg("clusters balanced")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outcomes, err := buildClusters(ctx, clusters, cfg)
	if err != nil {
		return nil, err
	}

	var (
		routes     []models.Route
		leftovers  []Leftover
		unassigned []models.UnassignedStaff
		warnings   = []string{}
	)
	for i, c := range clusters {
		out := outcomes[i]
		if out.err != nil {
			log.Error().Str("component", "routing").Str("run_id", runID).Int("cluster", c.ID).Err(out.err).Msg("cluster failed")
			warnings = append(warnings, fmt.Sprintf("cluster %d could not be routed: %v", c.ID, out.err))
			for _, m := range c.Members {
				unassigned = append(unassigned, models.UnassignedStaff{
					StaffID:   m.ID,
					Name:      m.Name,
					ClusterID: c.ID,
					Reason:    models.ReasonClusterFailed,
				})
			}
			continue
		}
		routes = append(routes, out.routes...)
		undersized := len(c.Members) < cfg.MinPassengers
		for _, m := range out.leftovers {
			leftovers = append(leftovers, Leftover{Staff: m, ClusterID: c.ID, Undersized: undersized})
		}
	}

	residue, err := Rebalance(routes, leftovers, cfg.Destination, cfg.MaxPassengers)
	if err != nil {
		return nil, fmt.Errorf("failed to rebalance leftovers: %w", err)
	}
	unassigned = append(unassigned, residue...)

	for i := range routes {
		routes[i].Name = fmt.Sprintf("Route %d", i+1)
		if err := scoreRoute(&routes[i], cfg.Destination, cfg.CostPerKm); err != nil {
			return nil, fmt.Errorf("failed to score %s: %w", routes[i].Name, err)
		}
	}

	if len(filtered) > 0 {
		warnings = append(warnings, fmt.Sprintf("%d record(s) excluded before clustering", len(filtered)))
	}
	if len(unassigned) > 0 {
		warnings = append(warnings, fmt.Sprintf("%d staff member(s) could not be assigned to any route", len(unassigned)))
		metrics.UnassignedStaff.Add(float64(len(unassigned)))
	}

	if routes == nil {
		routes = []models.Route{}
	}
	if unassigned == nil {
		unassigned = []models.UnassignedStaff{}
	}
	if filtered == nil {
		filtered = []models.FilteredRecord{}
	}

	result := &models.OptimizationResult{
		RunID:       runID,
		Destination: cfg.Destination,
		Routes:      routes,
		Unassigned:  unassigned,
		Filtered:    filtered,
		Clusters:    map[int64]int(assign),
		Summary:     summarize(len(req.Staff), len(staff), len(clusters), routes, unassigned, filtered),
		Warnings:    warnings,
	}

	log.Info().Str("component", "routing").Str("run_id", runID).
		Int("routes", result.Summary.RouteCount).
		Int("routed", result.Summary.RoutedStaff).
		Int("unassigned", result.Summary.UnassignedCount).
		Int("filtered", result.Summary.FilteredCount).
		Float64("total_km", result.Summary.TotalDistanceKm).
		Msg("optimization complete")

	return result, nil
}

// FilterRecords validates raw records. Records with a missing or invalid coordinate, and
// repeats of an id already accepted, are excluded and reported.
func FilterRecords(records []models.StaffRecord) ([]models.StaffLocation, []models.FilteredRecord) {
	staff := make([]models.StaffLocation, 0, len(records))
	var filtered []models.FilteredRecord
	seen := make(map[int64]bool, len(records))

	for _, r := range records {
		var dq *DataQualityError
		loc, ok := r.Location()
		switch {
		case !ok:
			dq = &DataQualityError{StaffID: r.ID, Name: r.Name, Reason: models.ReasonInvalidCoordinates}
		case seen[r.ID]:
			dq = &DataQualityError{StaffID: r.ID, Name: r.Name, Reason: models.ReasonDuplicateID}
		}
		if dq != nil {
			log.Debug().Str("component", "routing").Err(dq).Msg("record filtered")
			filtered = append(filtered, models.FilteredRecord{StaffID: dq.StaffID, Name: dq.Name, Reason: dq.Reason})
			continue
		}
		seen[r.ID] = true
		staff = append(staff, loc)
	}

	return staff, filtered
}

func buildClusters(ctx context.Context, clusters []models.Cluster, cfg Config) ([]clusterOutcome, error) {
	outcomes := make([]clusterOutcome, len(clusters))

	if cfg.Workers <= 1 {
		for i := range clusters {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			outcomes[i] = buildCluster(&clusters[i], cfg)
		}
		return outcomes, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := range clusters {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = buildCluster(&clusters[i], cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func buildCluster(c *models.Cluster, cfg Config) (out clusterOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = clusterOutcome{err: &ErrRoutingFailed{ClusterID: c.ID, Members: len(c.Members), Reason: fmt.Sprint(r)}}
		}
	}()

	routes, leftovers := BuildRoutes(c.ID, c.Members, cfg.Destination, cfg.MinPassengers, cfg.MaxPassengers)
	for i := range routes {
		if err := scoreRoute(&routes[i], cfg.Destination, cfg.CostPerKm); err != nil {
			return clusterOutcome{err: &ErrRoutingFailed{ClusterID: c.ID, Members: len(c.Members), Reason: err.Error()}}
		}
	}
	return clusterOutcome{routes: routes, leftovers: leftovers}
}

func summarize(total, valid, clusters int, routes []models.Route, unassigned []models.UnassignedStaff, filtered []models.FilteredRecord) models.OptimizationSummary {
	s := models.OptimizationSummary{
		TotalRecords:    total,
		ValidStaff:      valid,
		FilteredCount:   len(filtered),
		UnassignedCount: len(unassigned),
		ClusterCount:    clusters,
		RouteCount:      len(routes),
	}
	for i := range routes {
		s.RoutedStaff += len(routes[i].Stops)
		s.TotalDistanceKm += routes[i].DistanceKm
		s.TotalCost += routes[i].Cost
	}
	if len(routes) > 0 {
		s.AverageCostPerRoute = s.TotalCost / float64(len(routes))
	}
	return s
}

func topologyError(err error) error {
	var topoErr *clustering.ErrInvalidTopology
	if errors.As(err, &topoErr) {
		return &ConfigurationError{Field: topoErr.Field, Reason: topoErr.Reason}
	}
	return err
}
