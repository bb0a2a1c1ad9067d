package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"staff-ride-router/internal/models"
	"staff-ride-router/internal/routing"
)

// OptimizeRequest represents the request for an optimizer run. Inline records take
// precedence over StaffIDs; with neither, the whole stored roster is used.
type OptimizeRequest struct {
	Staff      []models.StaffRecord `json:"staff,omitempty"`
	StaffIDs   []int64              `json:"staff_ids,omitempty"`
	Params     *ParamOverrides      `json:"params,omitempty"`
	Directions bool                 `json:"directions"`
	Save       bool                 `json:"save"`
	Notes      string               `json:"notes,omitempty"`
}

// ParamOverrides replaces individual stored settings for one run
type ParamOverrides struct {
	DestinationLat *float64 `json:"destination_lat,omitempty"`
	DestinationLng *float64 `json:"destination_lng,omitempty"`
	GridSize       *int     `json:"grid_size,omitempty"`
	Sigma          *float64 `json:"sigma,omitempty"`
	LearningRate   *float64 `json:"learning_rate,omitempty"`
	Epochs         *int     `json:"epochs,omitempty"`
	MinPassengers  *int     `json:"min_passengers,omitempty"`
	MaxPassengers  *int     `json:"max_passengers,omitempty"`
	CostPerKm      *float64 `json:"cost_per_km,omitempty"`
	Seed           *uint64  `json:"seed,omitempty"`
}

// apply copies the set overrides onto cfg
func (p *ParamOverrides) apply(cfg *routing.Config) {
	if p == nil {
		return
	}
	if p.DestinationLat != nil {
		cfg.Destination.Lat = *p.DestinationLat
	}
	if p.DestinationLng != nil {
		cfg.Destination.Lng = *p.DestinationLng
	}
	if p.GridSize != nil {
		cfg.GridSize = *p.GridSize
	}
	if p.Sigma != nil {
		cfg.Sigma = *p.Sigma
	}
	if p.LearningRate != nil {
		cfg.LearningRate = *p.LearningRate
	}
	if p.Epochs != nil {
		cfg.Epochs = *p.Epochs
	}
	if p.MinPassengers != nil {
		cfg.MinPassengers = *p.MinPassengers
	}
	if p.MaxPassengers != nil {
		cfg.MaxPassengers = *p.MaxPassengers
	}
	if p.CostPerKm != nil {
		cfg.CostPerKm = *p.CostPerKm
	}
	if p.Seed != nil {
		cfg.Seed = *p.Seed
	}
}

// OptimizeResponse is the optimizer result plus the stored run id when saved
type OptimizeResponse struct {
	*models.OptimizationResult
	SavedRunID int64 `json:"saved_run_id,omitempty"`
}

// HandleOptimize handles POST /api/v1/optimize
func (h *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.handleValidationError(w, "Invalid request body")
		return
	}

	settings, err := h.DB.Settings().Get(r.Context())
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	cfg := routing.ConfigFromSettings(settings)
	req.Params.apply(&cfg)
	cfg.Workers = h.Workers

	req.StaffIDs = distinctIDs(req.StaffIDs)
	records, err := h.optimizeRecords(r.Context(), &req)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}
	if len(req.StaffIDs) > 0 && len(req.Staff) == 0 && len(records) != len(req.StaffIDs) {
		h.handleValidationError(w, "Some staff members not found")
		return
	}

	log.Info().Str("component", "http").Int("records", len(records)).Bool("directions", req.Directions).
		Bool("save", req.Save).Msg("optimize requested")

	optimizer := h.Optimizer
	if optimizer == nil {
		optimizer = routing.NewOptimizer()
	}
	result, err := optimizer.Optimize(r.Context(), &routing.OptimizationRequest{Staff: records, Config: cfg})
	if err != nil {
		var cfgErr *routing.ConfigurationError
		if errors.As(err, &cfgErr) {
			h.handleConfigurationError(w, cfgErr)
			return
		}
		h.handleInternalError(w, err)
		return
	}

	if req.Directions && h.Directions != nil {
		routing.EnrichWithDirections(r.Context(), h.Directions, result)
	}

	resp := OptimizeResponse{OptimizationResult: result}
	if req.Save {
		params := *settings
		cfg.ApplyTo(&params)
		run, err := h.DB.Runs().Create(r.Context(), &models.Run{
			RunID:       result.RunID,
			Destination: result.Destination,
			Params:      params,
			Notes:       req.Notes,
			Summary:     result.Summary,
		}, runAssignments(result, records))
		if err != nil {
			h.handleInternalError(w, err)
			return
		}
		resp.SavedRunID = run.ID
		log.Info().Str("component", "http").Str("run_id", result.RunID).Int64("id", run.ID).Msg("saved run")
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// optimizeRecords resolves the staff records a request runs on
func (h *Handler) optimizeRecords(ctx context.Context, req *OptimizeRequest) ([]models.StaffRecord, error) {
	if len(req.Staff) > 0 {
		return req.Staff, nil
	}

	var (
		members []models.StaffMember
		err     error
	)
	if len(req.StaffIDs) > 0 {
		members, err = h.DB.Staff().GetByIDs(ctx, req.StaffIDs)
	} else {
		members, err = h.DB.Staff().List(ctx, "")
	}
	if err != nil {
		return nil, err
	}

	records := make([]models.StaffRecord, len(members))
	for i := range members {
		records[i] = members[i].Record()
	}
	return records, nil
}

// runAssignments flattens routes and residue into the rows stored with a run
func runAssignments(result *models.OptimizationResult, records []models.StaffRecord) []models.RunAssignment {
	var rows []models.RunAssignment
	for _, route := range result.Routes {
		for _, stop := range route.Stops {
			rows = append(rows, models.RunAssignment{
				RouteName:          route.Name,
				ClusterID:          route.ClusterID,
				StopOrder:          stop.Order,
				StaffID:            stop.Staff.ID,
				StaffName:          stop.Staff.Name,
				StaffAddress:       stop.Staff.Address,
				Lat:                stop.Staff.Lat,
				Lng:                stop.Staff.Lng,
				DistanceFromPrevKm: stop.DistanceFromPrevKm,
			})
		}
	}

	if len(result.Unassigned) == 0 {
		return rows
	}
	locations := make(map[int64]models.StaffLocation, len(records))
	for _, rec := range records {
		if loc, ok := rec.Location(); ok {
			if _, seen := locations[loc.ID]; !seen {
				locations[loc.ID] = loc
			}
		}
	}
	for _, u := range result.Unassigned {
		loc := locations[u.StaffID]
		rows = append(rows, models.RunAssignment{
			ClusterID:    u.ClusterID,
			StaffID:      u.StaffID,
			StaffName:    u.Name,
			StaffAddress: loc.Address,
			Lat:          loc.Lat,
			Lng:          loc.Lng,
			Unassigned:   true,
			Reason:       u.Reason,
		})
	}
	return rows
}

// distinctIDs drops repeated ids, keeping first occurrences in order
func distinctIDs(ids []int64) []int64 {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
