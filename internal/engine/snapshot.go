package engine

import (
	"encoding/json"
	"fmt"

	"github.com/talgya/worldforge/internal/history"
	"github.com/talgya/worldforge/internal/resources"
	"github.com/talgya/worldforge/internal/rng"
	"github.com/talgya/worldforge/internal/store"
	"github.com/talgya/worldforge/internal/world"
)

// SnapshotVersion is bumped whenever the snapshot layout changes.
const SnapshotVersion = 1

// snapshot is the persisted form of a World. The grid is not stored; it is
// regenerated from the seed.
type snapshot struct {
	Version   int                              `json:"version"`
	Params    Params                           `json:"params"`
	Date      history.Date                     `json:"date"`
	Rng       rng.Rng                          `json:"rng"`
	Creatures *store.Arena[history.Creature]   `json:"creatures"`
	Sites     *store.Arena[history.Site]       `json:"sites"`
	Lineages  *store.Arena[history.Lineage]    `json:"lineages"`
	Cultures  *store.Arena[history.Culture]    `json:"cultures"`
	Artifacts *store.Arena[history.Artifact]   `json:"artifacts"`
	Factions  *store.Arena[history.Faction]    `json:"factions"`
	Plots     *store.Arena[history.Plot]       `json:"plots"`
	Events    *store.Arena[history.WorldEvent] `json:"events"`
}

// Snapshot serialises every store, the date, the parameters and the live
// root stream state.
func (w *World) Snapshot() ([]byte, error) {
	data, err := json.Marshal(snapshot{
		Version:   SnapshotVersion,
		Params:    w.Params,
		Date:      w.Date,
		Rng:       w.Rng,
		Creatures: w.Creatures,
		Sites:     w.Sites,
		Lineages:  w.Lineages,
		Cultures:  w.Cultures,
		Artifacts: w.Artifacts,
		Factions:  w.Factions,
		Plots:     w.Plots,
		Events:    w.Events,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return data, nil
}

// Restore rebuilds a world from a snapshot. Simulation continues exactly
// where the snapshot was taken.
func Restore(data []byte, res *resources.Resources, opts ...Option) (*World, error) {
	var params struct {
		Version int    `json:"version"`
		Params  Params `json:"params"`
	}
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	if params.Version != SnapshotVersion {
		return nil, fmt.Errorf("restore: unsupported snapshot version %d", params.Version)
	}
	if err := params.Params.Validate(); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}

	w := newWorld(params.Params, res, opts)
	snap := snapshot{
		Creatures: w.Creatures,
		Sites:     w.Sites,
		Lineages:  w.Lineages,
		Cultures:  w.Cultures,
		Artifacts: w.Artifacts,
		Factions:  w.Factions,
		Plots:     w.Plots,
		Events:    w.Events,
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	if err := w.checkRefs(); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	w.Date = snap.Date
	w.Rng = snap.Rng
	w.Grid = world.Generate(w.Params.genConfig(), rng.New(w.Params.Seed), res)

	w.logger.Info("world restored",
		"date", w.Date.String(),
		"creatures", w.Creatures.Len(),
		"events", w.Events.Len(),
	)
	return w, nil
}

// refs collects the first dangling id found while walking a decoded world.
type refs struct {
	err error
}

func ref[T any](r *refs, check func(store.ID[T]) error, id store.ID[T], owner string) {
	if r.err != nil {
		return
	}
	if err := check(id); err != nil {
		r.err = fmt.Errorf("%s: %w", owner, err)
	}
}

func refOpt[T any](r *refs, check func(store.ID[T]) error, id *store.ID[T], owner string) {
	if id != nil {
		ref(r, check, *id, owner)
	}
}

func refAll[T any](r *refs, check func(store.ID[T]) error, ids []store.ID[T], owner string) {
	for _, id := range ids {
		ref(r, check, id, owner)
	}
}

// checkRefs validates every id stored in the arenas against its target
// arena or catalogue. Decoded ids are untrusted until this passes.
func (w *World) checkRefs() error {
	r := &refs{}
	creature, site, plot := w.Creatures.Check, w.Sites.Check, w.Plots.Check
	faction, artifact, lineage := w.Factions.Check, w.Artifacts.Check, w.Lineages.Check
	culture := w.Cultures.Check
	profession := w.res.Professions.Check

	for id, c := range w.Creatures.All() {
		owner := "creature " + id.String()
		ref(r, w.res.Species.Check, c.Species, owner)
		refOpt(r, lineage, c.Lineage, owner)
		ref(r, culture, c.Culture, owner)
		ref(r, site, c.Home, owner)
		refOpt(r, profession, c.Profession, owner)
		refOpt(r, creature, c.Spouse, owner)
		refAll(r, creature, c.Parents, owner)
		refAll(r, creature, c.Children, owner)
		for other := range c.Relationships {
			ref(r, creature, other, owner)
		}
		refOpt(r, faction, c.Faction, owner)
		refOpt(r, plot, c.SupportsPlot, owner)
		refAll(r, artifact, c.Artifacts, owner)
		if c.Death != nil {
			refOpt(r, creature, c.Death.Killer, owner)
			refOpt(r, plot, c.Death.Plot, owner)
		}
	}
	for id, s := range w.Sites.All() {
		owner := "site " + id.String()
		ref(r, culture, s.Culture, owner)
		refAll(r, creature, s.Roster, owner)
		refAll(r, creature, s.Cemetery, owner)
		for _, st := range s.Structures {
			refAll(r, creature, st.Occupants, owner)
		}
		refOpt(r, creature, s.Leader, owner)
		refOpt(r, faction, s.Faction, owner)
	}
	for id, l := range w.Lineages.All() {
		owner := "lineage " + id.String()
		ref(r, culture, l.Culture, owner)
		refOpt(r, creature, l.Founder, owner)
	}
	for id, c := range w.Cultures.All() {
		owner := "culture " + id.String()
		ref(r, w.res.Cultures.Check, c.Def, owner)
		ref(r, w.res.Species.Check, c.Species, owner)
	}
	for id, a := range w.Artifacts.All() {
		owner := "artifact " + id.String()
		ref(r, w.res.Materials.Check, a.Material, owner)
		ref(r, creature, a.Creator, owner)
		refOpt(r, creature, a.Owner, owner)
	}
	for id, f := range w.Factions.All() {
		owner := "faction " + id.String()
		ref(r, site, f.Seat, owner)
		ref(r, creature, f.Founder, owner)
		refOpt(r, creature, f.Leader, owner)
		refAll(r, creature, f.Members, owner)
		for s := range f.Influence {
			ref(r, site, s, owner)
		}
		for other := range f.Relations {
			ref(r, faction, other, owner)
		}
	}
	for id, p := range w.Plots.All() {
		owner := "plot " + id.String()
		ref(r, creature, p.Goal.Target, owner)
		ref(r, creature, p.Plotter, owner)
		for _, s := range p.Supporters {
			ref(r, creature, s.Creature, owner)
		}
	}
	for id, ev := range w.Events.All() {
		owner := "event " + id.String()
		refAll(r, creature, ev.Creatures, owner)
		refOpt(r, site, ev.Site, owner)
		refOpt(r, artifact, ev.Artifact, owner)
		refOpt(r, plot, ev.Plot, owner)
		refOpt(r, faction, ev.Faction, owner)
		refOpt(r, profession, ev.Profession, owner)
	}
	return r.err
}
