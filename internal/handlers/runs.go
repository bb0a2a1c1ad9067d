package handlers

import (
	"net/http"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"staff-ride-router/internal/models"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// RunListResponse represents a page of stored runs
type RunListResponse struct {
	Runs   []models.Run `json:"runs"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// RunDetailResponse is a stored run with its assignment rows
type RunDetailResponse struct {
	Run         *models.Run            `json:"run"`
	Assignments []models.RunAssignment `json:"assignments"`
}

// HandleListRuns handles GET /api/v1/runs
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultRunsLimit)
	if limit == 0 || limit > maxRunsLimit {
		limit = maxRunsLimit
	}
	offset := queryInt(r, "offset", 0)

	runs, total, err := h.DB.Runs().List(r.Context(), limit, offset)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, RunListResponse{
		Runs:   runs,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// HandleGetRun handles GET /api/v1/runs/{id}
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.handleValidationError(w, "Invalid run ID")
		return
	}

	run, assignments, err := h.DB.Runs().GetByID(r.Context(), id)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}
	if run == nil {
		h.handleNotFound(w, "Run not found")
		return
	}

	h.writeJSON(w, http.StatusOK, RunDetailResponse{Run: run, Assignments: assignments})
}

// HandleDeleteRun handles DELETE /api/v1/runs/{id}
func (h *Handler) HandleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.handleValidationError(w, "Invalid run ID")
		return
	}

	if err := h.DB.Runs().Delete(r.Context(), id); err != nil {
		if h.checkNotFound(err) {
			h.handleNotFound(w, "Run not found")
			return
		}
		h.handleInternalError(w, err)
		return
	}

	log.Info().Str("component", "http").Int64("id", id).Msg("deleted run")
	w.WriteHeader(http.StatusNoContent)
}

// HandleRunGeoJSON handles GET /api/v1/runs/{id}/geojson. The collection holds the
// destination, one point per stop or unassigned member, and one line per route.
func (h *Handler) HandleRunGeoJSON(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.handleValidationError(w, "Invalid run ID")
		return
	}

	run, assignments, err := h.DB.Runs().GetByID(r.Context(), id)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}
	if run == nil {
		h.handleNotFound(w, "Run not found")
		return
	}

	body, err := RunFeatureCollection(run, assignments).MarshalJSON()
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// RunFeatureCollection renders a stored run as GeoJSON. Assignments are expected in stored
// order, which keeps each route's stops in pickup order.
func RunFeatureCollection(run *models.Run, assignments []models.RunAssignment) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	dest := run.Destination.Point()

	var (
		order = []string{}
		lines = map[string]orb.LineString{}
	)
	for _, a := range assignments {
		p := orb.Point{a.Lng, a.Lat}
		f := geojson.NewFeature(p)
		f.Properties["staff_id"] = a.StaffID
		f.Properties["name"] = a.StaffName
		f.Properties["cluster_id"] = a.ClusterID
		if a.Unassigned {
			f.Properties["kind"] = "unassigned"
			f.Properties["reason"] = a.Reason
			fc.Append(f)
			continue
		}
		f.Properties["kind"] = "stop"
		f.Properties["route"] = a.RouteName
		f.Properties["stop_order"] = a.StopOrder
		fc.Append(f)

		if _, ok := lines[a.RouteName]; !ok {
			order = append(order, a.RouteName)
		}
		lines[a.RouteName] = append(lines[a.RouteName], p)
	}

	for _, name := range order {
		f := geojson.NewFeature(append(lines[name], dest))
		f.Properties["kind"] = "route"
		f.Properties["route"] = name
		fc.Append(f)
	}

	d := geojson.NewFeature(dest)
	d.Properties["kind"] = "destination"
	d.Properties["name"] = run.Params.DestinationName
	fc.Append(d)

	return fc
}
