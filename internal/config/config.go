package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"staff-ride-router/internal/models"
	"staff-ride-router/internal/routing"
)

// Config stores all configuration of the application.
// Values come from defaults, an optional config file, then environment variables.
type Config struct {
	ServerAddr         string        `mapstructure:"SERVER_ADDR"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	RedisURL           string        `mapstructure:"REDIS_URL"`
	SQLitePath         string        `mapstructure:"SQLITE_PATH"`
	OSRMURL            string        `mapstructure:"OSRM_URL"`
	NominatimURL       string        `mapstructure:"NOMINATIM_URL"`
	DirectionsCacheTTL time.Duration `mapstructure:"DIRECTIONS_CACHE_TTL"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	LogFormat          string        `mapstructure:"LOG_FORMAT"`

	// Optimizer parameters
	DestinationLat float64 `mapstructure:"RIDE_DESTINATION_LAT"`
	DestinationLng float64 `mapstructure:"RIDE_DESTINATION_LNG"`
	GridSize       int     `mapstructure:"RIDE_GRID_SIZE"`
	Sigma          float64 `mapstructure:"RIDE_SIGMA"`
	LearningRate   float64 `mapstructure:"RIDE_LEARNING_RATE"`
	Epochs         int     `mapstructure:"RIDE_EPOCHS"`
	MinPassengers  int     `mapstructure:"RIDE_MIN_PASSENGERS"`
	MaxPassengers  int     `mapstructure:"RIDE_MAX_PASSENGERS"`
	CostPerKm      float64 `mapstructure:"RIDE_COST_PER_KM"`
	Seed           uint64  `mapstructure:"RIDE_SEED"`
	Workers        int     `mapstructure:"RIDE_WORKERS"`
}

// DefaultConfigName is the config file looked up in the working directory when no path is given
const DefaultConfigName = "ridecfg"

func setDefaults(v *viper.Viper) {
	d := models.DefaultSettings()

	v.SetDefault("SERVER_ADDR", "127.0.0.1:8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SQLITE_PATH", "")
	v.SetDefault("OSRM_URL", "")
	v.SetDefault("NOMINATIM_URL", "")
	v.SetDefault("DIRECTIONS_CACHE_TTL", 7*24*time.Hour)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "")

	v.SetDefault("RIDE_DESTINATION_LAT", d.DestinationLat)
	v.SetDefault("RIDE_DESTINATION_LNG", d.DestinationLng)
	v.SetDefault("RIDE_GRID_SIZE", d.GridSize)
	v.SetDefault("RIDE_SIGMA", d.Sigma)
	v.SetDefault("RIDE_LEARNING_RATE", d.LearningRate)
	v.SetDefault("RIDE_EPOCHS", d.Epochs)
	v.SetDefault("RIDE_MIN_PASSENGERS", d.MinPassengers)
	v.SetDefault("RIDE_MAX_PASSENGERS", d.MaxPassengers)
	v.SetDefault("RIDE_COST_PER_KM", d.CostPerKm)
	v.SetDefault("RIDE_SEED", d.Seed)
	v.SetDefault("RIDE_WORKERS", 0)
}

// Load reads configuration. A .env file in the working directory is loaded first if present.
// path names a config file (yaml, json, toml or env); when empty, ./ridecfg.* is used if it exists.
func Load(path string) (Config, error) {
	var config Config

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return config, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return config, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	v.AutomaticEnv()

	if err := v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("failed to decode config: %w", err)
	}
	config.DatabaseURL = strings.TrimSpace(config.DatabaseURL)
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	return config, nil
}

// Optimizer returns the optimizer parameters as a run config
func (c Config) Optimizer() routing.Config {
	return routing.Config{
		GridSize:      c.GridSize,
		Sigma:         c.Sigma,
		LearningRate:  c.LearningRate,
		Epochs:        c.Epochs,
		MinPassengers: c.MinPassengers,
		MaxPassengers: c.MaxPassengers,
		CostPerKm:     c.CostPerKm,
		Destination:   models.Coordinates{Lat: c.DestinationLat, Lng: c.DestinationLng},
		Seed:          c.Seed,
		Workers:       c.Workers,
	}
}

// SetupLogging configures the global zerolog logger. format "console" writes human-readable
// output to stderr; anything else writes JSON, unless empty and stderr is a terminal.
func SetupLogging(level, format string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	console := format == "console"
	if format == "" {
		if fi, err := os.Stderr.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
			console = true
		}
	}
	if console {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}
