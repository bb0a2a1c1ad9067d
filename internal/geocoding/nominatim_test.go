package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestGeocoder(server *httptest.Server) *nominatimGeocoder {
	return &nominatimGeocoder{
		baseURL:     server.URL,
		httpClient:  server.Client(),
		limiter:     rate.NewLimiter(rate.Inf, 1),
		baseBackoff: time.Millisecond,
	}
}

func respond(w http.ResponseWriter, results []nominatimResponse) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

func TestNominatimGeocodeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "Osu, Accra", r.URL.Query().Get("q"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		respond(w, []nominatimResponse{{Lat: "5.5560", Lon: "-0.1820", DisplayName: "Osu, Accra, Ghana"}})
	}))
	defer server.Close()

	result, err := newTestGeocoder(server).Geocode(context.Background(), "Osu, Accra")

	require.NoError(t, err)
	assert.Equal(t, 5.556, result.Coords.Lat)
	assert.Equal(t, -0.182, result.Coords.Lng)
	assert.Equal(t, "Osu, Accra, Ghana", result.DisplayName)
}

func TestNominatimGeocodeNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, []nominatimResponse{})
	}))
	defer server.Close()

	_, err := newTestGeocoder(server).Geocode(context.Background(), "Nowhere")

	var geoErr *ErrGeocodingFailed
	require.True(t, errors.As(err, &geoErr))
	assert.Equal(t, "Nowhere", geoErr.Address)
	assert.Equal(t, "no results found", geoErr.Reason)
}

func TestNominatimGeocodeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("Service Unavailable"))
	}))
	defer server.Close()

	_, err := newTestGeocoder(server).Geocode(context.Background(), "Tema")

	var geoErr *ErrGeocodingFailed
	require.True(t, errors.As(err, &geoErr))
	assert.Contains(t, geoErr.Reason, "HTTP 503")
}

func TestNominatimGeocodeInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := newTestGeocoder(server).Geocode(context.Background(), "Tema")

	var geoErr *ErrGeocodingFailed
	assert.True(t, errors.As(err, &geoErr))
}

func TestNominatimGeocodeInvalidLatLon(t *testing.T) {
	tests := []struct {
		name string
		resp nominatimResponse
	}{
		{"bad latitude", nominatimResponse{Lat: "north", Lon: "-0.1"}},
		{"bad longitude", nominatimResponse{Lat: "5.6", Lon: ""}},
		{"out of range", nominatimResponse{Lat: "95", Lon: "-0.1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				respond(w, []nominatimResponse{tt.resp})
			}))
			defer server.Close()

			_, err := newTestGeocoder(server).Geocode(context.Background(), "Labadi")

			var geoErr *ErrGeocodingFailed
			assert.True(t, errors.As(err, &geoErr))
		})
	}
}

func TestNominatimGeocodeWithRetrySuccess(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		respond(w, []nominatimResponse{{Lat: "5.6", Lon: "-0.17", DisplayName: "Adabraka"}})
	}))
	defer server.Close()

	result, err := newTestGeocoder(server).GeocodeWithRetry(context.Background(), "Adabraka", 3)

	require.NoError(t, err)
	assert.Equal(t, "Adabraka", result.DisplayName)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestNominatimGeocodeWithRetryAllFail(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestGeocoder(server).GeocodeWithRetry(context.Background(), "Dansoman", 2)

	var geoErr *ErrGeocodingFailed
	assert.True(t, errors.As(err, &geoErr))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestNominatimGeocodeContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, []nominatimResponse{{Lat: "5.6", Lon: "-0.17"}})
	}))
	defer server.Close()

	g := newTestGeocoder(server)
	g.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	g.limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.Geocode(ctx, "Achimota")

	assert.Error(t, err)
}

func TestNominatimSearchSkipsBadResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		respond(w, []nominatimResponse{
			{Lat: "5.60", Lon: "-0.17", DisplayName: "East Legon"},
			{Lat: "x", Lon: "-0.17", DisplayName: "Broken"},
			{Lat: "5.65", Lon: "-0.15", DisplayName: "Spintex"},
		})
	}))
	defer server.Close()

	results, err := newTestGeocoder(server).Search(context.Background(), "Accra", 5)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "East Legon", results[0].DisplayName)
	assert.Equal(t, "Spintex", results[1].DisplayName)
}

func TestNewNominatimGeocoderDefaults(t *testing.T) {
	g := NewNominatimGeocoder("").(*nominatimGeocoder)

	assert.Equal(t, DefaultNominatimURL, g.baseURL)
	assert.NotNil(t, g.limiter)
}
