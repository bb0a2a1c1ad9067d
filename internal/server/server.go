package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"staff-ride-router/internal/config"
	"staff-ride-router/internal/database"
	"staff-ride-router/internal/distance"
	"staff-ride-router/internal/geocoding"
	"staff-ride-router/internal/handlers"
	"staff-ride-router/internal/metrics"
	"staff-ride-router/internal/rediscache"
	"staff-ride-router/internal/routing"
	"staff-ride-router/internal/sqlstore"
)

// Server wraps the HTTP server and all dependencies
type Server struct {
	httpServer *http.Server
	handler    *handlers.Handler
	db         database.DataStore
	closers    []io.Closer
	listener   net.Listener
	addr       string
}

// New creates and initializes a new server (does not start it). The store is PostgreSQL
// when DatabaseURL is set and SQLite otherwise; directions are cached in Redis when
// RedisURL is set and in the store otherwise.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	db, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var closers []io.Closer
	cache := db.DirectionsCache()
	if cfg.RedisURL != "" {
		rc, err := rediscache.New(ctx, cfg.RedisURL, cfg.DirectionsCacheTTL)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize directions cache: %w", err)
		}
		cache = rc
		closers = append(closers, rc)
	}

	handler := &handlers.Handler{
		DB:         db,
		Geocoder:   geocoding.NewNominatimGeocoder(cfg.NominatimURL),
		Directions: distance.NewOSRMDirections(cfg.OSRMURL, cache),
		Optimizer:  routing.NewOptimizer(),
		Workers:    cfg.Workers,
	}

	s := NewWithHandler(cfg.ServerAddr, handler)
	s.closers = closers
	return s, nil
}

// NewWithHandler builds a server around ready dependencies
func NewWithHandler(addr string, handler *handlers.Handler) *Server {
	metrics.RegisterDefault()

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      Routes(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
		db:         handler.DB,
		addr:       addr,
	}
}

func openStore(ctx context.Context, cfg config.Config) (*sqlstore.Store, error) {
	if cfg.DatabaseURL != "" {
		db, err := sqlstore.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize data store: %w", err)
		}
		return db, nil
	}

	path := cfg.SQLitePath
	if path == "" {
		var err error
		if path, err = database.GetDefaultDBPath(); err != nil {
			return nil, err
		}
	}
	db, err := sqlstore.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize data store: %w", err)
	}
	return db, nil
}

// Start starts the server and returns the actual address (useful for random port)
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = listener
	actualAddr := listener.Addr().String()
	log.Info().Str("component", "http").Str("addr", actualAddr).Msg("starting server")

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Str("component", "http").Err(err).Msg("server error")
		}
	}()

	return actualAddr, nil
}

// Shutdown gracefully shuts down the server and closes its stores
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			log.Warn().Str("component", "http").Err(err).Msg("failed to close dependency")
		}
	}
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Routes registers every endpoint and wraps the mux in the logging and metrics middleware
func Routes(handler *handlers.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", healthHandler(handler.DB))
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/v1/staff", handler.HandleListStaff)
	mux.HandleFunc("POST /api/v1/staff", handler.HandleCreateStaff)
	mux.HandleFunc("POST /api/v1/staff/import", handler.HandleImportStaff)
	mux.HandleFunc("GET /api/v1/staff/{id}", handler.HandleGetStaff)
	mux.HandleFunc("PUT /api/v1/staff/{id}", handler.HandleUpdateStaff)
	mux.HandleFunc("DELETE /api/v1/staff/{id}", handler.HandleDeleteStaff)

	mux.HandleFunc("GET /api/v1/settings", handler.HandleGetSettings)
	mux.HandleFunc("PUT /api/v1/settings", handler.HandleUpdateSettings)

	mux.HandleFunc("POST /api/v1/optimize", handler.HandleOptimize)

	mux.HandleFunc("GET /api/v1/runs", handler.HandleListRuns)
	mux.HandleFunc("GET /api/v1/runs/{id}", handler.HandleGetRun)
	mux.HandleFunc("DELETE /api/v1/runs/{id}", handler.HandleDeleteRun)
	mux.HandleFunc("GET /api/v1/runs/{id}/geojson", handler.HandleRunGeoJSON)

	mux.HandleFunc("GET /api/v1/address-search", handler.HandleAddressSearch)

	return loggingMiddleware(corsMiddleware(mux))
}

func healthHandler(db database.DataStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.HealthCheck(ctx); err != nil {
			log.Warn().Str("component", "http").Err(err).Msg("health check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"status":"unavailable"}`)
			return
		}
		fmt.Fprint(w, `{"status":"ok"}`)
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		duration := time.Since(start)
		// the mux records the matched pattern on the request; unmatched paths share one label
		path := r.Pattern
		if path == "" {
			path = "unmatched"
		} else if i := strings.IndexByte(path, ' '); i >= 0 {
			path = path[i+1:]
		}
		status := strconv.Itoa(lrw.statusCode)
		metrics.HTTPRequests.WithLabelValues(r.Method, path, status).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, path, status).Observe(duration.Seconds())

		log.Info().Str("component", "http").Str("method", r.Method).Str("path", r.URL.Path).
			Int("status", lrw.statusCode).Dur("duration", duration).Msg("request")
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Only allow localhost origins (local dashboards and development)
		if origin == "" ||
			strings.HasPrefix(origin, "http://localhost:") ||
			strings.HasPrefix(origin, "http://127.0.0.1:") {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
