package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"staff-ride-router/internal/database"
	"staff-ride-router/internal/models"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const schemaVersion = 1

// Dialect selects the SQL flavour the store speaks
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Store is a database/sql data store implementing database.DataStore for SQLite and
// PostgreSQL. Queries are written with ? placeholders and rebound per dialect.
type Store struct {
	db      *sql.DB
	dialect Dialect
	dsn     string
	mu      sync.RWMutex

	staffRepo      database.StaffRepository
	settingsRepo   database.SettingsRepository
	runRepo        database.RunRepository
	directionsRepo database.DirectionsCacheRepository
}

// NewSQLite opens (or creates) a SQLite database at dbPath. ":memory:" gives a private
// in-memory database.
func NewSQLite(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	log.Info().Str("component", "store").Str("path", dbPath).Msg("opening SQLite database")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection: keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	return newStore(db, DialectSQLite, dbPath)
}

// NewPostgres connects to PostgreSQL through the pgx stdlib driver
func NewPostgres(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	log.Info().Str("component", "store").Msg("connected to PostgreSQL")
	return newStore(db, DialectPostgres, databaseURL)
}

func newStore(db *sql.DB, dialect Dialect, dsn string) (*Store, error) {
	s := &Store{db: db, dialect: dialect, dsn: dsn}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.staffRepo = &staffRepository{store: s}
	s.settingsRepo = &settingsRepository{store: s}
	s.runRepo = &runRepository{store: s}
	s.directionsRepo = &directionsCacheRepository{store: s}
	return s, nil
}

// Dialect returns the SQL dialect of the underlying database
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// rebind rewrites ? placeholders to $1, $2, ... for PostgreSQL
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) initSchema() error {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return s.createSchema()
	}
	if version < schemaVersion {
		_, err := s.db.Exec(s.rebind("UPDATE schema_version SET version = ?"), schemaVersion)
		return err
	}
	return nil
}

func (s *Store) createSchema() error {
	schema := sqliteSchema
	if s.dialect == DialectPostgres {
		schema = postgresSchema
	}

	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if _, err := s.db.Exec(s.rebind("INSERT INTO schema_version (version) VALUES (?)"), schemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	d := models.DefaultSettings()
	if _, err := s.db.Exec(s.rebind(insertDefaultSettings),
		d.DestinationName, d.DestinationLat, d.DestinationLng, d.GridSize, d.Sigma, d.LearningRate,
		d.Epochs, d.MinPassengers, d.MaxPassengers, d.CostPerKm, int64(d.Seed),
	); err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}

	log.Info().Str("component", "store").Str("dialect", string(s.dialect)).Int("version", schemaVersion).Msg("schema initialized")
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if s.dialect == DialectSQLite {
		s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}
	return s.db.Close()
}

// HealthCheck verifies the database connection
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Repository accessors
func (s *Store) Staff() database.StaffRepository                     { return s.staffRepo }
func (s *Store) Settings() database.SettingsRepository               { return s.settingsRepo }
func (s *Store) Runs() database.RunRepository                        { return s.runRepo }
func (s *Store) DirectionsCache() database.DirectionsCacheRepository { return s.directionsRepo }
