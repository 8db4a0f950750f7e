// Command worldsim generates a world and simulates its history, resuming
// from the saved state when there is one.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/talgya/worldforge/internal/api"
	"github.com/talgya/worldforge/internal/archive"
	"github.com/talgya/worldforge/internal/archive/fs"
	"github.com/talgya/worldforge/internal/archive/s3"
	"github.com/talgya/worldforge/internal/config"
	"github.com/talgya/worldforge/internal/engine"
	"github.com/talgya/worldforge/internal/persistence"
	"github.com/talgya/worldforge/internal/resources"
	"github.com/talgya/worldforge/internal/telemetry"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		slog.Error("worldsim failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// ── Content ───────────────────────────────────────────────────────
	res := resources.Default()
	if cfg.ContentDir != "" {
		if res, err = resources.Load(os.DirFS(cfg.ContentDir)); err != nil {
			return fmt.Errorf("load content: %w", err)
		}
		slog.Info("content loaded", "dir", cfg.ContentDir)
	}

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Telemetry ─────────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.New(reg)
	opts := []engine.Option{engine.WithLogger(logger), engine.WithObserver(metrics)}

	store, err := openArchive(ctx, cfg)
	if err != nil {
		return err
	}

	// ── Load or Generate World ───────────────────────────────────────
	w, runID, err := loadOrGenerate(ctx, db, store, cfg, res, opts)
	if err != nil {
		return err
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	var srv *api.Server
	if cfg.HTTPAddr != "" {
		srv = &api.Server{DB: db, Gatherer: reg, Addr: cfg.HTTPAddr, Seed: w.Params.Seed}
		go func() {
			if err := srv.Run(ctx); err != nil {
				slog.Error("HTTP server error", "error", err)
			}
		}()
	}

	// ── Simulation ────────────────────────────────────────────────────
	save := func(w *engine.World) error {
		if err := db.SaveWorld(context.WithoutCancel(ctx), w, runID); err != nil {
			return err
		}
		if store != nil {
			key, err := archive.Save(context.WithoutCancel(ctx), store, w)
			if err != nil {
				return err
			}
			slog.Info("snapshot archived", "key", key)
		}
		return nil
	}

	runner := engine.NewRunner(w)
	runner.CheckpointEvery = cfg.AutosaveYears
	runner.OnCheckpoint = save
	if srv != nil {
		runner.OnYear = func(s engine.YearSummary) error {
			srv.Publish(s)
			return nil
		}
	}

	fmt.Printf("\n%s souls across %d sites in year %d. Simulating %d years... (Ctrl+C to stop)\n",
		humanize.Comma(int64(w.Living())), w.Sites.Len(), w.Date.Year, cfg.Years)

	runErr := runner.Run(ctx, cfg.Years)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.Error("simulation stopped", "error", runErr)
	}

	// Final save on shutdown.
	slog.Info("final save...")
	if err := save(w); err != nil {
		return fmt.Errorf("final save: %w", err)
	}

	fmt.Printf("History stopped in year %d: %s living, %s events recorded.\n",
		w.Date.Year, humanize.Comma(int64(w.Living())), humanize.Comma(int64(w.Events.Len())))
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// loadOrGenerate resumes the saved world, falls back to the newest archived
// snapshot for the configured seed, or generates and saves a new one.
func loadOrGenerate(ctx context.Context, db *persistence.DB, store archive.Store, cfg config.Config, res *resources.Resources, opts []engine.Option) (*engine.World, uuid.UUID, error) {
	ok, err := db.HasWorld(ctx)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if ok {
		slog.Info("found saved world state, loading...")
		w, err := db.LoadWorld(ctx, res, opts...)
		if err != nil {
			return nil, uuid.Nil, err
		}
		if w.Params.Seed != cfg.Seed {
			slog.Warn("saved world has a different seed; resuming it anyway",
				"saved", w.Params.Seed, "configured", cfg.Seed)
		}
		runID, err := db.RunID(ctx)
		if err != nil {
			return nil, uuid.Nil, err
		}
		if runID == uuid.Nil {
			runID = uuid.New()
		}
		slog.Info("world state restored",
			"run", runID,
			"year", w.Date.Year,
			"living", humanize.Comma(int64(w.Living())),
			"events", humanize.Comma(int64(w.Events.Len())),
		)
		return w, runID, nil
	}

	var w *engine.World
	if store != nil {
		w, err = archive.Latest(ctx, store, cfg.Seed, res, opts...)
		switch {
		case err == nil:
			slog.Info("world restored from archive", "seed", cfg.Seed, "year", w.Date.Year)
		case errors.Is(err, archive.ErrNotFound):
			w = nil
		default:
			return nil, uuid.Nil, err
		}
	}
	if w == nil {
		slog.Info("no saved state found, generating new world...")
		if w, err = engine.Generate(cfg.Params(), res, opts...); err != nil {
			return nil, uuid.Nil, err
		}
	}
	runID := uuid.New()
	if err := db.SaveWorld(ctx, w, runID); err != nil {
		return nil, uuid.Nil, fmt.Errorf("initial save: %w", err)
	}
	slog.Info("world ready", "run", runID, "sites", w.Sites.Len(), "creatures", w.Creatures.Len())
	return w, runID, nil
}

// openArchive returns the configured snapshot archive, or nil.
func openArchive(ctx context.Context, cfg config.Config) (archive.Store, error) {
	if s3cfg, ok := cfg.S3(); ok {
		s, err := s3.New(ctx, s3cfg)
		if err != nil {
			return nil, fmt.Errorf("open s3 archive: %w", err)
		}
		slog.Info("archiving snapshots to s3", "bucket", s3cfg.Bucket)
		return s, nil
	}
	if cfg.ArchiveDir != "" {
		s, err := fs.New(cfg.ArchiveDir)
		if err != nil {
			return nil, err
		}
		slog.Info("archiving snapshots to disk", "dir", cfg.ArchiveDir)
		return s, nil
	}
	return nil, nil
}
