package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"staff-ride-router/internal/config"
	"staff-ride-router/internal/database"
	"staff-ride-router/internal/distance"
	"staff-ride-router/internal/models"
	"staff-ride-router/internal/routing"
	"staff-ride-router/internal/sample"
)

type options struct {
	input      string
	configPath string
	format     string
	sample     int
	directions bool
	cachePath  string
}

func main() {
	var opts options
	flag.StringVar(&opts.input, "input", "", "staff roster file (yaml or json)")
	flag.StringVar(&opts.configPath, "config", "", "path to a config file (default ./ridecfg.*)")
	flag.StringVar(&opts.format, "format", "json", "output format: json or yaml")
	flag.IntVar(&opts.sample, "sample", 0, "generate N sample staff in Accra instead of reading -input")
	flag.BoolVar(&opts.directions, "directions", false, "attach OSRM road directions to each route")
	flag.StringVar(&opts.cachePath, "cache", "", "directions cache file (default ~/.staff-ride-router/directions_cache.json)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("ridecli failed")
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
	}
	config.SetupLogging(cfg.LogLevel, cfg.LogFormat)

	if opts.format != "json" && opts.format != "yaml" {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	var records []models.StaffRecord
	switch {
	case opts.sample > 0:
		records = sample.Accra(opts.sample, cfg.Seed)
	case opts.input != "":
		records, err = readRecords(opts.input)
		if err != nil {
			return err
		}
	default:
		return errors.New("either -input or -sample is required")
	}

	optimizer := routing.NewOptimizer()
	result, err := optimizer.Optimize(ctx, &routing.OptimizationRequest{Staff: records, Config: cfg.Optimizer()})
	if err != nil {
		return err
	}

	if opts.directions {
		var cache database.DirectionsCacheRepository
		if fc, err := database.NewFileDirectionsCache(opts.cachePath); err != nil {
			log.Warn().Err(err).Msg("directions cache unavailable")
		} else {
			cache = fc
		}
		routing.EnrichWithDirections(ctx, distance.NewOSRMDirections(cfg.OSRMURL, cache), result)
	}

	return writeResult(out, opts.format, result)
}

// readRecords loads a roster. YAML parsing also accepts JSON documents. The file may hold a
// plain list or a mapping with a "staff" list.
func readRecords(path string) ([]models.StaffRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}

	var records []models.StaffRecord
	if err := yaml.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var wrapped struct {
		Staff []models.StaffRecord `yaml:"staff"`
	}
	if err := yaml.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse roster %s: %w", path, err)
	}
	return wrapped.Staff, nil
}

// writeResult prints the result. YAML output goes through the JSON encoding so both
// formats share field names.
func writeResult(out io.Writer, format string, result *models.OptimizationResult) error {
	if format == "yaml" {
		b, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		var doc yaml.Node
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return fmt.Errorf("failed to convert result: %w", err)
		}
		blockStyle(&doc)

		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(&doc); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

// blockStyle drops the flow and quoting styles a JSON source leaves on every node
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
