// Package config loads worldsim settings from WORLDSIM_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/talgya/worldforge/internal/archive/s3"
	"github.com/talgya/worldforge/internal/engine"
)

// Config holds every setting for a worldsim run. Generation parameters are
// required; the rest are operational and optional.
type Config struct {
	Seed                 uint64   `env:"WORLDSIM_SEED,required"`
	Width                int      `env:"WORLDSIM_WIDTH,required"`
	Height               int      `env:"WORLDSIM_HEIGHT,required"`
	Plates               int      `env:"WORLDSIM_PLATES,required"`
	SeedSettlements      int      `env:"WORLDSIM_SEED_SETTLEMENTS,required"`
	SettlementPopulation int      `env:"WORLDSIM_SETTLEMENT_POPULATION,required"`
	Cultures             []string `env:"WORLDSIM_CULTURES,required" envSeparator:","`
	Years                int      `env:"WORLDSIM_YEARS,required"`

	DBPath        string `env:"WORLDSIM_DB_PATH" envDefault:"worldsim.db"`
	ContentDir    string `env:"WORLDSIM_CONTENT_DIR"` // empty: built-in content
	AutosaveYears int    `env:"WORLDSIM_AUTOSAVE_YEARS" envDefault:"10"`
	HTTPAddr      string `env:"WORLDSIM_HTTP_ADDR"` // empty: no HTTP API

	ArchiveDir         string `env:"WORLDSIM_ARCHIVE_DIR"`
	ArchiveS3Bucket    string `env:"WORLDSIM_ARCHIVE_S3_BUCKET"`
	ArchiveS3Region    string `env:"WORLDSIM_ARCHIVE_S3_REGION" envDefault:"us-east-1"`
	ArchiveS3Endpoint  string `env:"WORLDSIM_ARCHIVE_S3_ENDPOINT"`
	ArchiveS3PathStyle bool   `env:"WORLDSIM_ARCHIVE_S3_PATH_STYLE"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	for i, c := range cfg.Cultures {
		cfg.Cultures[i] = strings.TrimSpace(c)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that env parsing cannot.
func (c Config) Validate() error {
	var errs []error
	if err := c.Params().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Years < 0 {
		errs = append(errs, fmt.Errorf("WORLDSIM_YEARS must not be negative, got %d", c.Years))
	}
	if c.AutosaveYears < 0 {
		errs = append(errs, fmt.Errorf("WORLDSIM_AUTOSAVE_YEARS must not be negative, got %d", c.AutosaveYears))
	}
	if c.ArchiveDir != "" && c.ArchiveS3Bucket != "" {
		errs = append(errs, errors.New("WORLDSIM_ARCHIVE_DIR and WORLDSIM_ARCHIVE_S3_BUCKET are exclusive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Params returns the world generation parameters.
func (c Config) Params() engine.Params {
	return engine.Params{
		Seed:                 c.Seed,
		Width:                c.Width,
		Height:               c.Height,
		Plates:               c.Plates,
		SeedSettlements:      c.SeedSettlements,
		SettlementPopulation: c.SettlementPopulation,
		Cultures:             c.Cultures,
	}
}

// S3 returns the S3 archive settings; ok is false when no bucket is set.
func (c Config) S3() (cfg s3.Config, ok bool) {
	if c.ArchiveS3Bucket == "" {
		return s3.Config{}, false
	}
	return s3.Config{
		Bucket:    c.ArchiveS3Bucket,
		Region:    c.ArchiveS3Region,
		Endpoint:  c.ArchiveS3Endpoint,
		PathStyle: c.ArchiveS3PathStyle,
	}, true
}
