package config

import (
	"errors"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/talgya/worldforge/internal/engine"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("WORLDSIM_SEED", "1234")
	t.Setenv("WORLDSIM_WIDTH", "64")
	t.Setenv("WORLDSIM_HEIGHT", "48")
	t.Setenv("WORLDSIM_PLATES", "6")
	t.Setenv("WORLDSIM_SEED_SETTLEMENTS", "4")
	t.Setenv("WORLDSIM_SETTLEMENT_POPULATION", "30")
	t.Setenv("WORLDSIM_CULTURES", "northmen, deep halls")
	t.Setenv("WORLDSIM_YEARS", "200")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "worldsim.db" || cfg.AutosaveYears != 10 || cfg.ArchiveS3Region != "us-east-1" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if !slices.Equal(cfg.Cultures, []string{"northmen", "deep halls"}) {
		t.Fatalf("cultures = %q", cfg.Cultures)
	}

	p := cfg.Params()
	if p.Seed != 1234 || p.Width != 64 || p.Height != 48 || p.Plates != 6 ||
		p.SeedSettlements != 4 || p.SettlementPopulation != 30 {
		t.Fatalf("params = %+v", p)
	}
	if _, ok := cfg.S3(); ok {
		t.Fatal("S3 enabled without a bucket")
	}
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	os.Unsetenv("WORLDSIM_SEED")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad int", "WORLDSIM_WIDTH", "wide"},
		{"zero width", "WORLDSIM_WIDTH", "0"},
		{"negative years", "WORLDSIM_YEARS", "-1"},
		{"negative autosave", "WORLDSIM_AUTOSAVE_YEARS", "-5"},
		{"negative seed", "WORLDSIM_SEED", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Fatalf("%s=%q accepted", tt.key, tt.val)
			}
		})
	}
}

func TestValidateWrapsParams(t *testing.T) {
	setRequired(t)
	t.Setenv("WORLDSIM_PLATES", "0")
	if _, err := Load(); !errors.Is(err, engine.ErrInvalidParams) {
		t.Fatalf("err = %v, want ErrInvalidParams", err)
	}
}

func TestArchiveBackends(t *testing.T) {
	setRequired(t)
	t.Setenv("WORLDSIM_ARCHIVE_S3_BUCKET", "histories")
	t.Setenv("WORLDSIM_ARCHIVE_S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("WORLDSIM_ARCHIVE_S3_PATH_STYLE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s3cfg, ok := cfg.S3()
	if !ok || s3cfg.Bucket != "histories" || !s3cfg.PathStyle || s3cfg.Endpoint != "http://localhost:9000" {
		t.Fatalf("s3 = %+v, %v", s3cfg, ok)
	}

	t.Setenv("WORLDSIM_ARCHIVE_DIR", t.TempDir())
	if _, err := Load(); err == nil {
		t.Fatal("both archive backends accepted")
	}
}
