package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"staff-ride-router/internal/geocoding"
)

// HandleAddressSearch handles GET /api/v1/address-search
func (h *Handler) HandleAddressSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("address")

	if len(query) < 4 || h.Geocoder == nil {
		h.writeJSON(w, http.StatusOK, []geocoding.GeocodingResult{})
		return
	}

	results, err := h.Geocoder.Search(r.Context(), query, 5)
	if err != nil {
		log.Warn().Str("component", "http").Str("query", query).Err(err).Msg("address search failed")
		h.writeJSON(w, http.StatusOK, []geocoding.GeocodingResult{})
		return
	}

	if results == nil {
		results = []geocoding.GeocodingResult{}
	}
	log.Debug().Str("component", "http").Str("query", query).Int("results", len(results)).Msg("address search")
	h.writeJSON(w, http.StatusOK, results)
}
