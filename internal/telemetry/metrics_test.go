package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/talgya/worldforge/internal/engine"
	"github.com/talgya/worldforge/internal/history"
	"github.com/talgya/worldforge/internal/resources"
)

func TestObserveYear(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveYear(nil, engine.YearSummary{
		Year:         4,
		Living:       120,
		Sites:        5,
		OngoingPlots: 2,
		Events:       map[history.EventKind]int{history.EventBirth: 7, history.EventDeath: 3},
	}, 20*time.Millisecond)
	m.ObserveYear(nil, engine.YearSummary{
		Year:   5,
		Living: 118,
		Sites:  5,
		Events: map[history.EventKind]int{history.EventBirth: 1},
	}, 10*time.Millisecond)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"year", testutil.ToFloat64(m.Year), 5},
		{"living", testutil.ToFloat64(m.Living), 118},
		{"sites", testutil.ToFloat64(m.Sites), 5},
		{"plots", testutil.ToFloat64(m.OngoingPlots), 0},
		{"births", testutil.ToFloat64(m.Events.WithLabelValues("birth")), 8},
		{"deaths", testutil.ToFloat64(m.Events.WithLabelValues("death")), 3},
		{"burials", testutil.ToFloat64(m.Events.WithLabelValues("burial")), 0},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if n := testutil.CollectAndCount(m.Events); n != len(history.EventKinds) {
		t.Errorf("event series = %d, want %d", n, len(history.EventKinds))
	}
	if n := testutil.CollectAndCount(m.YearSeconds); n != 1 {
		t.Errorf("histogram series = %d", n)
	}
}

func TestWiredAsObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	w, err := engine.Generate(engine.Params{
		Seed: 11, Width: 48, Height: 48, Plates: 4,
		SeedSettlements: 2, SettlementPopulation: 15,
		Cultures: []string{"northmen"},
	}, resources.Default(), engine.WithObserver(m))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	s := w.SimulateYear()

	if got := testutil.ToFloat64(m.Living); got != float64(s.Living) {
		t.Fatalf("living gauge = %v, summary = %d", got, s.Living)
	}
	if got := testutil.ToFloat64(m.Year); got != 1 {
		t.Fatalf("year gauge = %v", got)
	}
}
