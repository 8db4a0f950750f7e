package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/talgya/worldforge/internal/history"
	"github.com/talgya/worldforge/internal/resources"
	"github.com/talgya/worldforge/internal/rng"
	"github.com/talgya/worldforge/internal/store"
	"github.com/talgya/worldforge/internal/world"
)

func testParams() Params {
	return Params{
		Seed:                 20240611,
		Width:                48,
		Height:               48,
		Plates:               4,
		SeedSettlements:      3,
		SettlementPopulation: 24,
		Cultures:             []string{"northmen", "deep halls"},
	}
}

func mustGenerate(t *testing.T, p Params, opts ...Option) *World {
	t.Helper()
	w, err := Generate(p, resources.Default(), opts...)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return w
}

func mustSnapshot(t *testing.T, w *World) []byte {
	t.Helper()
	data, err := w.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return data
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		ok     bool
	}{
		{"valid", func(*Params) {}, true},
		{"zero seed is a seed", func(p *Params) { p.Seed = 0 }, true},
		{"zero width", func(p *Params) { p.Width = 0 }, false},
		{"negative height", func(p *Params) { p.Height = -1 }, false},
		{"no plates", func(p *Params) { p.Plates = 0 }, false},
		{"no settlements", func(p *Params) { p.SeedSettlements = 0 }, false},
		{"no population", func(p *Params) { p.SettlementPopulation = 0 }, false},
		{"no cultures", func(p *Params) { p.Cultures = nil }, false},
		{"blank culture", func(p *Params) { p.Cultures = []string{""} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidParams) {
				t.Fatalf("err = %v, want ErrInvalidParams", err)
			}
		})
	}
}

func TestGenerateRejectsInvalidParams(t *testing.T) {
	p := testParams()
	p.Width = 0
	if _, err := Generate(p, resources.Default()); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("err = %v", err)
	}
}

func TestGenerateUnknownCulturePanics(t *testing.T) {
	p := testParams()
	p.Cultures = []string{"atlanteans"}
	defer func() {
		var mre *store.MissingResourceError
		err, _ := recover().(error)
		if !errors.As(err, &mre) {
			t.Fatalf("recovered %v, want *store.MissingResourceError", err)
		}
	}()
	Generate(p, resources.Default())
}

func TestGenerateSeedsSites(t *testing.T) {
	p := testParams()
	w := mustGenerate(t, p)

	if w.Sites.Len() != p.SeedSettlements {
		t.Fatalf("sites = %d", w.Sites.Len())
	}
	for id, s := range w.Sites.All() {
		if s.Population() != p.SettlementPopulation {
			t.Errorf("site %v population = %d", id, s.Population())
		}
		if s.Leader == nil {
			t.Errorf("site %v has no leader", id)
		}
		if !w.Grid.At(s.Position).Habitable {
			t.Errorf("site %v on uninhabitable cell", id)
		}
	}
	if w.Creatures.Len() != p.SeedSettlements*p.SettlementPopulation {
		t.Fatalf("creatures = %d", w.Creatures.Len())
	}
	if w.Cultures.Len() != len(p.Cultures) {
		t.Fatalf("cultures = %d", w.Cultures.Len())
	}
}

func TestDeterministicHistory(t *testing.T) {
	run := func() []byte {
		w := mustGenerate(t, testParams())
		for range 8 {
			w.SimulateYear()
		}
		return mustSnapshot(t, w)
	}
	a, b := run(), run()
	if !bytes.Equal(a, b) {
		t.Fatal("identical inputs produced different snapshots")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	res := resources.Default()
	w := mustGenerate(t, testParams())
	for range 4 {
		w.SimulateYear()
	}
	data := mustSnapshot(t, w)

	restored, err := Restore(data, res)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if again := mustSnapshot(t, restored); !bytes.Equal(data, again) {
		t.Fatal("round trip changed the snapshot")
	}

	// Both worlds continue identically.
	for range 3 {
		w.SimulateYear()
		restored.SimulateYear()
	}
	if !bytes.Equal(mustSnapshot(t, w), mustSnapshot(t, restored)) {
		t.Fatal("restored world diverged")
	}
}

func TestRestoreRejectsGarbage(t *testing.T) {
	res := resources.Default()
	if _, err := Restore([]byte("{"), res); err == nil {
		t.Fatal("restored truncated JSON")
	}
	if _, err := Restore([]byte(`{"version": 99}`), res); err == nil {
		t.Fatal("restored unknown version")
	}
}

// corrupt rewrites one field of one element of a snapshot arena.
func corrupt(t *testing.T, data []byte, arena string, field, value string) []byte {
	t.Helper()
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	var elems []map[string]json.RawMessage
	if err := json.Unmarshal(doc[arena], &elems); err != nil {
		t.Fatalf("decode %s: %v", arena, err)
	}
	if len(elems) == 0 {
		t.Fatalf("arena %s is empty", arena)
	}
	elems[0][field] = json.RawMessage(value)
	var err error
	if doc[arena], err = json.Marshal(elems); err != nil {
		t.Fatalf("encode %s: %v", arena, err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("encode snapshot: %v", err)
	}
	return out
}

func TestRestoreRejectsDanglingIDs(t *testing.T) {
	w := mustGenerate(t, testParams())
	w.SimulateYear()
	data := mustSnapshot(t, w)
	res := resources.Default()

	if _, err := Restore(corrupt(t, data, "sites", "food", "1"), res); err != nil {
		t.Fatalf("untouched references rejected: %v", err)
	}

	tests := []struct {
		name         string
		arena, field string
		value        string
	}{
		{"creature home", "creatures", "home", "9999"},
		{"creature spouse", "creatures", "spouse", "9999"},
		{"relationship key", "creatures", "relationships", `{"9999":{"opinion":-30}}`},
		{"site roster", "sites", "roster", "[0, 9999]"},
		{"site leader", "sites", "leader", "9999"},
		{"lineage culture", "lineages", "culture", "7"},
		{"culture content", "cultures", "def", "9999"},
		{"event site", "events", "site", "9999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Restore(corrupt(t, data, tt.arena, tt.field, tt.value), res)
			var idErr *store.IDError
			if !errors.As(err, &idErr) {
				t.Fatalf("Restore err = %v, want *store.IDError", err)
			}
		})
	}
}

func TestYearInvariants(t *testing.T) {
	w := mustGenerate(t, testParams())
	prevDate := w.Date
	prevEvents := w.Events.Len()

	for range 10 {
		s := w.SimulateYear()
		if !prevDate.Before(w.Date) {
			t.Fatalf("date did not advance: %v -> %v", prevDate, w.Date)
		}
		if s.FirstEvent != prevEvents || w.Events.Len() < prevEvents {
			t.Fatalf("event log not append-only: first=%d prev=%d len=%d", s.FirstEvent, prevEvents, w.Events.Len())
		}
		prevDate, prevEvents = w.Date, w.Events.Len()

		checkRosters(t, w)
		checkPlots(t, w)
	}
}

func checkRosters(t *testing.T, w *World) {
	t.Helper()
	for sid, s := range w.Sites.All() {
		for _, id := range s.Roster {
			c := w.Creatures.View(id)
			if !c.Alive() || c.Home != sid {
				t.Fatalf("site %v roster holds %v (alive=%v home=%v)", sid, id, c.Alive(), c.Home)
			}
		}
		for _, id := range s.Cemetery {
			if w.alive(id) {
				t.Fatalf("site %v cemetery holds living %v", sid, id)
			}
		}
	}
}

func checkPlots(t *testing.T, w *World) {
	t.Helper()
	for pid, p := range w.Plots.All() {
		sum := 0
		for _, s := range p.Supporters {
			c := w.Creatures.View(s.Creature)
			if c.SupportsPlot == nil || *c.SupportsPlot != pid {
				t.Fatalf("plot %v supporter %v lacks back-reference", pid, s.Creature)
			}
			sum += s.Level
		}
		if sum != p.Strength {
			t.Fatalf("plot %v strength %d != %d", pid, p.Strength, sum)
		}
		if !p.Ongoing() && len(p.Supporters) != 0 {
			t.Fatalf("resolved plot %v keeps supporters", pid)
		}
	}
	for id, c := range w.Creatures.All() {
		if c.SupportsPlot == nil {
			continue
		}
		p := w.Plots.View(*c.SupportsPlot)
		if !p.IsSupporter(id) {
			t.Fatalf("creature %v points at plot %v but is not listed", id, *c.SupportsPlot)
		}
	}
}

func TestSpawnRandomVillageExhausts(t *testing.T) {
	w := mustGenerate(t, testParams())
	for i := range w.Grid.Cells {
		w.Grid.Cells[i].Habitable = false
	}
	before := w.Sites.Len()

	r := rng.New(77)
	_, err := w.SpawnRandomVillage(w.Cultures.IDs()[0], &r)
	var nse *world.NoSiteError
	if !errors.As(err, &nse) || nse.Attempts != 100 {
		t.Fatalf("err = %v, want NoSiteError after 100 attempts", err)
	}
	if !errors.Is(err, world.ErrNoSiteFound) {
		t.Fatal("error does not wrap ErrNoSiteFound")
	}
	if w.Sites.Len() != before {
		t.Fatal("a site was added")
	}

	// The year still completes; founding is skipped.
	w.SimulateYear()
}

func TestElectionLeavesRival(t *testing.T) {
	w := mustGenerate(t, testParams())
	for sid, s := range w.Sites.All() {
		if s.Leader == nil {
			t.Fatalf("site %v has no leader", sid)
		}
		leader := *s.Leader
		rivals := 0
		for _, id := range s.Roster {
			c := w.Creatures.View(id)
			if history.TierOf(c.OpinionOf(leader)) <= history.TierRival {
				rivals++
			}
		}
		if rivals == 0 {
			t.Fatalf("site %v: nobody resents leader %v", sid, leader)
		}
	}
}

func TestPlotsArise(t *testing.T) {
	w := mustGenerate(t, testParams())

	resolved := false
	for year := 0; year < 100 && !resolved; year++ {
		w.SimulateYear()
		checkPlots(t, w)
		for _, p := range w.Plots.All() {
			if !p.Ongoing() {
				resolved = true
			}
		}
	}
	if w.Plots.Len() == 0 {
		t.Fatal("no plot started in 100 years")
	}
	if !resolved {
		t.Fatalf("none of %d plots resolved in 100 years", w.Plots.Len())
	}

	started, ended := 0, 0
	for _, ev := range w.Events.All() {
		switch ev.Kind {
		case history.EventPlotStarted:
			started++
		case history.EventPlotResolved:
			ended++
		}
	}
	if started != w.Plots.Len() || ended == 0 {
		t.Fatalf("events: %d started, %d resolved for %d plots", started, ended, w.Plots.Len())
	}
}

func TestPlotResolvesOnTargetDeath(t *testing.T) {
	w := mustGenerate(t, testParams())
	roster := w.roster(w.Sites.IDs()[0])
	plotter, target := roster[0], roster[1]

	pid := w.StartPlot(plotter, target)
	if got := w.Creatures.View(plotter).SupportsPlot; got == nil || *got != pid {
		t.Fatal("plotter is not the first supporter")
	}
	w.kill(target, history.Death{Date: w.Date, Cause: history.CauseMurder, Killer: &plotter, Plot: &pid})
	w.processPlots()

	p := w.Plots.View(pid)
	if p.Status != history.PlotSucceeded {
		t.Fatalf("status = %s", p.Status)
	}
	if w.Creatures.View(plotter).SupportsPlot != nil {
		t.Fatal("back-reference kept")
	}
	last := w.Events.View(w.Events.IDs()[w.Events.Len()-1])
	if last.Kind != history.EventPlotResolved {
		t.Fatalf("last event = %s", last.Kind)
	}
}

func TestBiography(t *testing.T) {
	w := mustGenerate(t, testParams())
	for range 5 {
		w.SimulateYear()
	}
	id := w.Creatures.IDs()[0]
	bio := w.Biography(id)
	if len(bio) == 0 {
		t.Fatal("empty biography; every creature has a birth event")
	}
	for i, eid := range bio {
		ev := w.Events.View(eid)
		if !ev.Mentions(id) {
			t.Fatalf("event %v does not mention %v", eid, id)
		}
		if i > 0 && eid.Index() <= bio[i-1].Index() {
			t.Fatal("biography out of log order")
		}
		if w.Describe(&ev) == "" {
			t.Fatalf("event %v has no description", eid)
		}
	}
}

type countingObserver struct {
	years []int
}

func (o *countingObserver) ObserveYear(w *World, s YearSummary, _ time.Duration) {
	o.years = append(o.years, s.Year)
}

func TestRunner(t *testing.T) {
	obs := &countingObserver{}
	w := mustGenerate(t, testParams(), WithObserver(obs))

	r := NewRunner(w)
	r.CheckpointEvery = 2
	years, checkpoints := 0, 0
	r.OnYear = func(YearSummary) error { years++; return nil }
	r.OnCheckpoint = func(*World) error { checkpoints++; return nil }

	if err := r.Run(context.Background(), 5); err != nil {
		t.Fatalf("run: %v", err)
	}
	if years != 5 || checkpoints != 2 || len(obs.years) != 5 {
		t.Fatalf("years=%d checkpoints=%d observed=%d", years, checkpoints, len(obs.years))
	}
	if w.Date.Year != 5 {
		t.Fatalf("year = %d", w.Date.Year)
	}
}

func TestRunnerStopsBetweenYears(t *testing.T) {
	w := mustGenerate(t, testParams())
	ctx, cancel := context.WithCancel(context.Background())

	r := NewRunner(w)
	r.OnYear = func(s YearSummary) error {
		if s.Year == 2 {
			cancel()
		}
		return nil
	}
	if err := r.Run(ctx, 10); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if w.Date.Year != 2 {
		t.Fatalf("stopped at year %d, want 2", w.Date.Year)
	}
}

func TestRunnerHookError(t *testing.T) {
	w := mustGenerate(t, testParams())
	boom := errors.New("boom")
	r := NewRunner(w)
	r.OnYear = func(YearSummary) error { return boom }
	if err := r.Run(context.Background(), 3); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if w.Date.Year != 1 {
		t.Fatalf("year = %d", w.Date.Year)
	}
}
