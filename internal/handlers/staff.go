package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"staff-ride-router/internal/models"
)

// geocodeRetries is the retry budget for a single address lookup
const geocodeRetries = 3

// StaffListResponse represents the list response
type StaffListResponse struct {
	Staff []models.StaffMember `json:"staff"`
	Total int                  `json:"total"`
}

// StaffRequest is the body of create and update calls. Coordinates are optional when an
// address is given; the address is geocoded instead.
type StaffRequest struct {
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// ImportRequest is the body of a bulk import
type ImportRequest struct {
	Staff []models.StaffRecord `json:"staff"`
}

// ImportResponse reports what a bulk import stored and what it left out
type ImportResponse struct {
	Imported int                     `json:"imported"`
	Skipped  []models.FilteredRecord `json:"skipped"`
	Staff    []models.StaffMember    `json:"staff"`
}

// ReasonGeocodingFailed marks an imported record whose address could not be resolved
const ReasonGeocodingFailed = "geocoding_failed"

// HandleListStaff handles GET /api/v1/staff
func (h *Handler) HandleListStaff(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")

	staff, err := h.DB.Staff().List(r.Context(), search)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	log.Debug().Str("component", "http").Str("search", search).Int("count", len(staff)).Msg("listed staff")
	h.writeJSON(w, http.StatusOK, StaffListResponse{
		Staff: staff,
		Total: len(staff),
	})
}

// HandleGetStaff handles GET /api/v1/staff/{id}
func (h *Handler) HandleGetStaff(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.handleValidationError(w, "Invalid staff ID")
		return
	}

	member, err := h.DB.Staff().GetByID(r.Context(), id)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}
	if member == nil {
		h.handleNotFound(w, "Staff member not found")
		return
	}

	h.writeJSON(w, http.StatusOK, member)
}

// HandleCreateStaff handles POST /api/v1/staff
func (h *Handler) HandleCreateStaff(w http.ResponseWriter, r *http.Request) {
	var req StaffRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.handleValidationError(w, "Invalid request body")
		return
	}

	member := &models.StaffMember{}
	if !h.applyStaffRequest(w, r, &req, member) {
		return
	}

	created, err := h.DB.Staff().Create(r.Context(), member)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	log.Info().Str("component", "http").Int64("id", created.ID).Str("name", created.Name).Msg("created staff")
	h.writeJSON(w, http.StatusCreated, created)
}

// HandleUpdateStaff handles PUT /api/v1/staff/{id}
func (h *Handler) HandleUpdateStaff(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.handleValidationError(w, "Invalid staff ID")
		return
	}

	var req StaffRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.handleValidationError(w, "Invalid request body")
		return
	}

	existing, err := h.DB.Staff().GetByID(r.Context(), id)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}
	if existing == nil {
		h.handleNotFound(w, "Staff member not found")
		return
	}

	// an unchanged address keeps its stored coordinates
	if req.Latitude == nil && req.Longitude == nil && strings.TrimSpace(req.Address) == existing.Address {
		lat, lng := existing.Lat, existing.Lng
		req.Latitude, req.Longitude = &lat, &lng
	}
	if !h.applyStaffRequest(w, r, &req, existing) {
		return
	}

	updated, err := h.DB.Staff().Update(r.Context(), existing)
	if err != nil {
		if h.checkNotFound(err) {
			h.handleNotFound(w, "Staff member not found")
			return
		}
		h.handleInternalError(w, err)
		return
	}

	log.Info().Str("component", "http").Int64("id", updated.ID).Msg("updated staff")
	h.writeJSON(w, http.StatusOK, updated)
}

// HandleDeleteStaff handles DELETE /api/v1/staff/{id}
func (h *Handler) HandleDeleteStaff(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.handleValidationError(w, "Invalid staff ID")
		return
	}

	if err := h.DB.Staff().Delete(r.Context(), id); err != nil {
		if h.checkNotFound(err) {
			h.handleNotFound(w, "Staff member not found")
			return
		}
		h.handleInternalError(w, err)
		return
	}

	log.Info().Str("component", "http").Int64("id", id).Msg("deleted staff")
	w.WriteHeader(http.StatusNoContent)
}

// HandleImportStaff handles POST /api/v1/staff/import. Records with valid coordinates are
// stored as given; records without them are geocoded from their address when possible.
// Everything else is skipped and reported.
func (h *Handler) HandleImportStaff(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.handleValidationError(w, "Invalid request body")
		return
	}
	if len(req.Staff) == 0 {
		h.handleValidationError(w, "At least one staff record is required")
		return
	}

	resp := ImportResponse{
		Skipped: []models.FilteredRecord{},
		Staff:   []models.StaffMember{},
	}
	for _, rec := range req.Staff {
		member, reason := h.memberFromRecord(r.Context(), rec)
		if member == nil {
			resp.Skipped = append(resp.Skipped, models.FilteredRecord{StaffID: rec.ID, Name: rec.Name, Reason: reason})
			continue
		}
		created, err := h.DB.Staff().Create(r.Context(), member)
		if err != nil {
			h.handleInternalError(w, err)
			return
		}
		resp.Staff = append(resp.Staff, *created)
	}
	resp.Imported = len(resp.Staff)

	log.Info().Str("component", "http").Int("imported", resp.Imported).Int("skipped", len(resp.Skipped)).Msg("imported staff")
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) memberFromRecord(ctx context.Context, rec models.StaffRecord) (*models.StaffMember, string) {
	if strings.TrimSpace(rec.Name) == "" {
		return nil, "missing_name"
	}
	if loc, ok := rec.Location(); ok {
		return &models.StaffMember{Name: loc.Name, Address: loc.Address, Lat: loc.Lat, Lng: loc.Lng}, ""
	}
	if h.Geocoder == nil || strings.TrimSpace(rec.Address) == "" {
		return nil, models.ReasonInvalidCoordinates
	}
	result, err := h.Geocoder.GeocodeWithRetry(ctx, rec.Address, geocodeRetries)
	if err != nil {
		log.Warn().Str("component", "http").Str("address", rec.Address).Err(err).Msg("import geocoding failed")
		return nil, ReasonGeocodingFailed
	}
	return &models.StaffMember{Name: rec.Name, Address: rec.Address, Lat: result.Coords.Lat, Lng: result.Coords.Lng}, ""
}

// applyStaffRequest validates req and copies it onto m, geocoding the address when no
// coordinates were sent. It writes the error response and returns false on failure.
func (h *Handler) applyStaffRequest(w http.ResponseWriter, r *http.Request, req *StaffRequest, m *models.StaffMember) bool {
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	if req.Name == "" {
		h.handleValidationError(w, "Name is required")
		return false
	}

	switch {
	case req.Latitude != nil && req.Longitude != nil:
		coords := models.Coordinates{Lat: *req.Latitude, Lng: *req.Longitude}
		if !coords.Valid() {
			h.handleValidationError(w, "Latitude must be in [-90, 90] and longitude in [-180, 180]")
			return false
		}
		m.Lat, m.Lng = coords.Lat, coords.Lng
	case req.Latitude != nil || req.Longitude != nil:
		h.handleValidationError(w, "Latitude and longitude must be given together")
		return false
	case req.Address == "":
		h.handleValidationError(w, "Either coordinates or an address is required")
		return false
	case h.Geocoder == nil:
		h.handleValidationError(w, "Coordinates are required when geocoding is disabled")
		return false
	default:
		result, err := h.Geocoder.GeocodeWithRetry(r.Context(), req.Address, geocodeRetries)
		if err != nil {
			log.Warn().Str("component", "http").Str("address", req.Address).Err(err).Msg("geocoding failed")
			h.handleGeocodingError(w, err)
			return false
		}
		m.Lat, m.Lng = result.Coords.Lat, result.Coords.Lng
	}

	m.Name = req.Name
	m.Address = req.Address
	return true
}
