package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"staff-ride-router/internal/database"
	"staff-ride-router/internal/metrics"
	"staff-ride-router/internal/models"
)

// DefaultOSRMURL is the public OSRM demo server
const DefaultOSRMURL = "https://router.project-osrm.org"

// DirectionsProvider returns road distance, duration and geometry for an ordered waypoint list
type DirectionsProvider interface {
	GetRoute(ctx context.Context, waypoints []models.Coordinates) (*models.RouteDirections, error)
}

// ErrDirectionsFailed is returned when the OSRM route API fails
type ErrDirectionsFailed struct {
	Waypoints int
	Reason    string
}

func (e *ErrDirectionsFailed) Error() string {
	return fmt.Sprintf("directions lookup failed: %s", e.Reason)
}

type osrmDirections struct {
	baseURL    string
	httpClient *http.Client
	cache      database.DirectionsCacheRepository
	limiter    *rate.Limiter
}

type osrmRouteResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Routes  []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Distance float64           `json:"distance"`
	Duration float64           `json:"duration"`
	Geometry *geojson.Geometry `json:"geometry"`
}

// NewOSRMDirections creates an OSRM directions provider. An empty baseURL uses the public
// demo server; requests are paced to 10 per second.
func NewOSRMDirections(baseURL string, cache database.DirectionsCacheRepository) DirectionsProvider {
	if baseURL == "" {
		baseURL = DefaultOSRMURL
	}
	return &osrmDirections{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache:   cache,
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
	}
}

func (c *osrmDirections) GetRoute(ctx context.Context, waypoints []models.Coordinates) (*models.RouteDirections, error) {
	if len(waypoints) < 2 {
		return nil, &ErrDirectionsFailed{Waypoints: len(waypoints), Reason: "at least two waypoints required"}
	}

	if c.cache != nil {
		cached, err := c.cache.Get(ctx, waypoints)
		if err != nil {
			log.Warn().Str("component", "osrm").Err(err).Msg("cache read failed")
		} else if cached != nil {
			metrics.DirectionsRequests.WithLabelValues("hit").Inc()
			dir := cached.Directions
			return &dir, nil
		}
	}

	dir, err := c.fetchRoute(ctx, waypoints)
	if err != nil {
		metrics.DirectionsRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.DirectionsRequests.WithLabelValues("miss").Inc()

	if c.cache != nil {
		entry := &models.DirectionsCacheEntry{Waypoints: waypoints, Directions: *dir}
		if err := c.cache.Set(ctx, entry); err != nil {
			log.Warn().Str("component", "osrm").Err(err).Msg("cache write failed")
		}
	}

	return dir, nil
}

func (c *osrmDirections) fetchRoute(ctx context.Context, waypoints []models.Coordinates) (*models.RouteDirections, error) {
	n := len(waypoints)
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &ErrDirectionsFailed{Waypoints: n, Reason: err.Error()}
		}
	}

	coords := make([]string, n)
	for i, p := range waypoints {
		coords[i] = fmt.Sprintf("%.6f,%.6f", p.Lng, p.Lat)
	}
	queryURL := fmt.Sprintf("%s/route/v1/driving/%s?overview=full&geometries=geojson", c.baseURL, strings.Join(coords, ";"))

	log.Debug().Str("component", "osrm").Int("waypoints", n).Msg("route request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, &ErrDirectionsFailed{Waypoints: n, Reason: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Str("component", "osrm").Int("waypoints", n).Err(err).Msg("route request failed")
		return nil, &ErrDirectionsFailed{Waypoints: n, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Error().Str("component", "osrm").Int("waypoints", n).Int("status", resp.StatusCode).Msg("route API error")
		return nil, &ErrDirectionsFailed{
			Waypoints: n,
			Reason:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	var osrmResp osrmRouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&osrmResp); err != nil {
		return nil, &ErrDirectionsFailed{Waypoints: n, Reason: err.Error()}
	}

	if osrmResp.Code != "Ok" {
		return nil, &ErrDirectionsFailed{Waypoints: n, Reason: fmt.Sprintf("OSRM error: %s %s", osrmResp.Code, osrmResp.Message)}
	}
	if len(osrmResp.Routes) == 0 {
		return nil, &ErrDirectionsFailed{Waypoints: n, Reason: "no routes returned"}
	}

	route := osrmResp.Routes[0]
	dir := &models.RouteDirections{
		DistanceMeters: route.Distance,
		DurationSecs:   route.Duration,
	}
	if route.Geometry != nil {
		if ls, ok := route.Geometry.Geometry().(orb.LineString); ok {
			dir.Geometry = ls
		}
	}

	log.Debug().Str("component", "osrm").Int("waypoints", n).Float64("distance_m", dir.DistanceMeters).Msg("route resolved")
	return dir, nil
}
