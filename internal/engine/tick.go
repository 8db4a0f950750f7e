package engine

import (
	"context"
	"fmt"
	"log/slog"
)

// Runner drives a world through many years.
type Runner struct {
	World *World

	// CheckpointEvery is the number of years between OnCheckpoint calls;
	// zero disables checkpoints.
	CheckpointEvery int

	// Callbacks, populated during setup.
	OnYear       func(YearSummary) error // After every year
	OnCheckpoint func(*World) error      // Every CheckpointEvery years
}

// NewRunner creates a runner for w.
func NewRunner(w *World) *Runner {
	return &Runner{World: w}
}

// Run simulates up to years years. The context is checked between years
// only; a year in progress always completes.
func (r *Runner) Run(ctx context.Context, years int) error {
	w := r.World
	w.logger.Info("history run started", "year", w.Date.Year, "years", years)

	for i := 1; i <= years; i++ {
		if err := ctx.Err(); err != nil {
			w.logger.Info("history run stopped", "year", w.Date.Year, "reason", err)
			return err
		}

		summary := w.SimulateYear()

		if r.OnYear != nil {
			if err := r.OnYear(summary); err != nil {
				return fmt.Errorf("year %d: %w", summary.Year, err)
			}
		}
		if r.CheckpointEvery > 0 && i%r.CheckpointEvery == 0 && r.OnCheckpoint != nil {
			if err := r.OnCheckpoint(w); err != nil {
				return fmt.Errorf("checkpoint at year %d: %w", summary.Year, err)
			}
		}
	}

	w.logger.Info("history run finished",
		slog.Int("year", w.Date.Year),
		slog.Int("living", w.Living()),
		slog.Int("sites", w.Sites.Len()),
	)
	return nil
}
