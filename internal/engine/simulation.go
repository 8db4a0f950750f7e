// Package engine generates a world and advances its history one year at a
// time. Each year runs its subsystems in a fixed order over the site list
// and the creature list, so a run is a pure function of its parameters.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/worldforge/internal/history"
	"github.com/talgya/worldforge/internal/resources"
	"github.com/talgya/worldforge/internal/rng"
	"github.com/talgya/worldforge/internal/store"
	"github.com/talgya/worldforge/internal/world"
)

// ErrInvalidParams wraps every parameter validation failure.
var ErrInvalidParams = errors.New("invalid parameters")

// Params are the generation inputs. Nothing is defaulted.
type Params struct {
	Seed                 uint64   `json:"seed"`
	Width                int      `json:"width"`
	Height               int      `json:"height"`
	Plates               int      `json:"plates"`
	SeedSettlements      int      `json:"seed_settlements"`
	SettlementPopulation int      `json:"settlement_population"`
	Cultures             []string `json:"cultures"`
}

// Validate rejects zero sizes and counts and an empty culture list.
func (p Params) Validate() error {
	checks := []struct {
		name  string
		value int
	}{
		{"width", p.Width},
		{"height", p.Height},
		{"plates", p.Plates},
		{"seed settlements", p.SeedSettlements},
		{"settlement population", p.SettlementPopulation},
	}
	for _, c := range checks {
		if c.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidParams, c.name, c.value)
		}
	}
	if len(p.Cultures) == 0 {
		return fmt.Errorf("%w: no cultures", ErrInvalidParams)
	}
	for _, name := range p.Cultures {
		if name == "" {
			return fmt.Errorf("%w: empty culture name", ErrInvalidParams)
		}
	}
	return nil
}

func (p Params) genConfig() world.GenConfig {
	return world.GenConfig{Width: p.Width, Height: p.Height, Plates: p.Plates}
}

// Arena names, used in borrow and id panics.
const (
	creaturesStore = "creatures"
	sitesStore     = "sites"
	lineagesStore  = "lineages"
	culturesStore  = "cultures"
	artifactsStore = "artifacts"
	factionsStore  = "factions"
	plotsStore     = "plots"
	eventsStore    = "events"
)

// World is the full generated and simulated entity graph.
type World struct {
	Params Params
	Date   history.Date

	// Rng is the root stream. Each year derives its subsystem streams from
	// the current state and then advances it once.
	Rng rng.Rng

	Grid *world.Grid

	Creatures *store.Arena[history.Creature]
	Sites     *store.Arena[history.Site]
	Lineages  *store.Arena[history.Lineage]
	Cultures  *store.Arena[history.Culture]
	Artifacts *store.Arena[history.Artifact]
	Factions  *store.Arena[history.Faction]
	Plots     *store.Arena[history.Plot]
	Events    *store.Arena[history.WorldEvent]

	res       *resources.Resources
	logger    *slog.Logger
	observers []Observer
}

// Observer is notified after every simulated year.
type Observer interface {
	ObserveYear(w *World, summary YearSummary, elapsed time.Duration)
}

// Option configures a World.
type Option func(*World)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(w *World) { w.logger = l }
}

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(w *World) { w.observers = append(w.observers, o) }
}

func newWorld(params Params, res *resources.Resources, opts []Option) *World {
	w := &World{
		Params:    params,
		Date:      history.Date{Year: 0, Month: 1, Day: 1},
		Creatures: store.NewArena[history.Creature](creaturesStore),
		Sites:     store.NewArena[history.Site](sitesStore),
		Lineages:  store.NewArena[history.Lineage](lineagesStore),
		Cultures:  store.NewArena[history.Culture](culturesStore),
		Artifacts: store.NewArena[history.Artifact](artifactsStore),
		Factions:  store.NewArena[history.Faction](factionsStore),
		Plots:     store.NewArena[history.Plot](plotsStore),
		Events:    store.NewArena[history.WorldEvent](eventsStore),
		res:       res,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Resources returns the content catalogue the world was built with.
func (w *World) Resources() *resources.Resources { return w.res }

// Generate builds a new world: cultures, topology, seed sites with their
// starting population, leaders and factions.
func Generate(params Params, res *resources.Resources, opts ...Option) (*World, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	w := newWorld(params, res, opts)
	w.Rng = rng.New(params.Seed)

	for _, name := range params.Cultures {
		def := res.Cultures.IDOf(name)
		r := w.Rng.Derive("culture/" + name)
		w.Cultures.Add(*history.NewCulture(res, def, &r))
	}

	w.Grid = world.Generate(params.genConfig(), w.Rng, res)
	w.logger.Info("world generated",
		"grid", w.Grid.String(),
		"seed", params.Seed,
	)
	counts := world.BiomeCounts(w.Grid)
	for _, b := range res.Biomes.IDs() {
		w.logger.Debug("biome coverage", "biome", res.Biomes.Name(b), "cells", counts[b])
	}

	pr := w.Rng.Derive("placement")
	positions, err := world.PlaceSeedSites(w.Grid, &pr, params.SeedSettlements)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	cultures := w.Cultures.IDs()
	for i, pos := range positions {
		r := w.Rng.Derivef("site/%d", i)
		culture := cultures[i%len(cultures)]
		site := w.addSite(culture, pos, &r)
		w.populate(site, params.SettlementPopulation, &r)
	}

	w.seedProfessions()
	w.processLeadership()
	w.seedFactions()

	// Generation used the initial state; the first year must not.
	w.Rng.NextU32()

	w.logger.Info("history seeded",
		"sites", w.Sites.Len(),
		"creatures", humanize.Comma(int64(w.Creatures.Len())),
		"lineages", w.Lineages.Len(),
	)
	return w, nil
}

// YearSummary reports what one simulated year did.
type YearSummary struct {
	Year         int                       `json:"year"`
	Births       int                       `json:"births"`
	Deaths       int                       `json:"deaths"`
	Marriages    int                       `json:"marriages"`
	Founded      int                       `json:"founded"`
	Living       int                       `json:"living"`
	Sites        int                       `json:"sites"`
	OngoingPlots int                       `json:"ongoing_plots"`
	Events       map[history.EventKind]int `json:"events"`
	FirstEvent   int                       `json:"first_event"` // index of the year's first event
}

// stream derives a subsystem stream for the current year.
func (w *World) stream(key string) rng.Rng { return w.Rng.Derive(key) }

func (w *World) streamf(format string, args ...any) rng.Rng { return w.Rng.Derivef(format, args...) }

// SimulateYear advances the world by one year.
func (w *World) SimulateYear() YearSummary {
	start := time.Now()
	w.Date = w.Date.AddYears(1)
	first := w.Events.Len()

	w.processDeaths()
	w.processFamilies()
	w.processMarriages()
	w.processProfessions()
	w.processArtifacts()
	w.processEconomy()
	w.processLeadership()
	w.processFounding()
	w.processInteractions()
	w.processFactions()
	w.processPlots()

	w.Rng.NextU32()

	s := w.summarize(first)
	elapsed := time.Since(start)
	w.logger.Info("year simulated",
		"date", w.Date.String(),
		"living", humanize.Comma(int64(s.Living)),
		"births", s.Births,
		"deaths", s.Deaths,
		"sites", s.Sites,
		"events", humanize.Comma(int64(w.Events.Len())),
		"elapsed", elapsed,
	)
	for _, o := range w.observers {
		o.ObserveYear(w, s, elapsed)
	}
	return s
}

func (w *World) summarize(first int) YearSummary {
	s := YearSummary{
		Year:       w.Date.Year,
		Sites:      w.Sites.Len(),
		Events:     make(map[history.EventKind]int),
		FirstEvent: first,
	}
	for i := first; i < w.Events.Len(); i++ {
		id, _ := w.Events.Validate(i)
		w.Events.Read(id, func(ev *history.WorldEvent) { s.Events[ev.Kind]++ })
	}
	s.Births = s.Events[history.EventBirth]
	s.Deaths = s.Events[history.EventDeath]
	s.Marriages = s.Events[history.EventMarriage]
	s.Founded = s.Events[history.EventSiteFounded]
	s.Living = w.Living()
	for _, p := range w.Plots.All() {
		if p.Ongoing() {
			s.OngoingPlots++
		}
	}
	return s
}

// Living returns the number of living creatures.
func (w *World) Living() int {
	n := 0
	for _, c := range w.Creatures.All() {
		if c.Alive() {
			n++
		}
	}
	return n
}

// record appends an event dated today and returns its id.
func (w *World) record(ev history.WorldEvent) store.ID[history.WorldEvent] {
	ev.Date = w.Date
	return w.Events.Add(ev)
}

// FullName returns a creature's given name and lineage surname.
func (w *World) FullName(id store.ID[history.Creature]) string {
	c := w.Creatures.View(id)
	if c.Lineage == nil {
		return c.Name
	}
	return c.Name + " " + w.Lineages.View(*c.Lineage).Surname
}
