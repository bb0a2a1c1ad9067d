package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"staff-ride-router/internal/models"
	"staff-ride-router/internal/routing"
)

// HandleGetSettings handles GET /api/v1/settings
func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.DB.Settings().Get(r.Context())
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, settings)
}

// HandleUpdateSettings handles PUT /api/v1/settings. The body replaces the stored settings
// and must form a valid optimizer configuration.
func (h *Handler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req models.Settings
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.handleValidationError(w, "Invalid request body")
		return
	}

	req.DestinationName = strings.TrimSpace(req.DestinationName)
	if req.DestinationName == "" {
		h.handleValidationError(w, "Destination name is required")
		return
	}
	if err := routing.ConfigFromSettings(&req).Validate(); err != nil {
		var cfgErr *routing.ConfigurationError
		if errors.As(err, &cfgErr) {
			h.handleConfigurationError(w, cfgErr)
			return
		}
		h.handleValidationError(w, err.Error())
		return
	}

	if err := h.DB.Settings().Update(r.Context(), &req); err != nil {
		h.handleInternalError(w, err)
		return
	}

	log.Info().Str("component", "http").Str("destination", req.DestinationName).
		Int("min", req.MinPassengers).Int("max", req.MaxPassengers).Msg("updated settings")
	h.writeJSON(w, http.StatusOK, req)
}
