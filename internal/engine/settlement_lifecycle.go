// Settlement lifecycle — crowded sites send households out to found new
// villages on free habitable cells.
package engine

import (
	"errors"
	"slices"

	"github.com/talgya/worldforge/internal/history"
	"github.com/talgya/worldforge/internal/rng"
	"github.com/talgya/worldforge/internal/store"
	"github.com/talgya/worldforge/internal/world"
)

const (
	// emigrationThreshold is the population above which a site may found
	// a village.
	emigrationThreshold = 60
	foundingChance      = 0.5
	// emigrantShare is the fraction of residents that leave.
	emigrantShare = 0.2
)

// processFounding lets crowded sites found villages. A failed site search
// is skipped for this year only.
func (w *World) processFounding() {
	r := w.stream("founding")
	for _, site := range w.Sites.IDs() {
		parent := w.Sites.View(site)
		if parent.Population() <= emigrationThreshold || !r.Chance(foundingChance) {
			continue
		}

		village, err := w.SpawnRandomVillage(parent.Culture, &r)
		if err != nil {
			var nse *world.NoSiteError
			if errors.As(err, &nse) {
				w.logger.Info("no founding site available", "site", parent.Name, "attempts", nse.Attempts)
				continue
			}
			panic(err)
		}

		emigrants := w.emigrate(site, village)
		ev := history.WorldEvent{Kind: history.EventSiteFounded, Site: history.Ptr(village)}
		if len(emigrants) > 0 {
			ev.Creatures = emigrants[:1]
		}
		w.record(ev)
		w.logger.Info("village founded",
			"village", w.Sites.View(village).Name,
			"from", parent.Name,
			"emigrants", len(emigrants),
		)
	}
}

// SpawnRandomVillage creates an empty village of the given culture on a
// free habitable cell at least three cells from every inhabited site. It
// returns a *world.NoSiteError after world.MaxSiteAttempts failed draws.
func (w *World) SpawnRandomVillage(culture store.ID[history.Culture], r *rng.Rng) (store.ID[history.Site], error) {
	var occupied []world.Position
	for _, s := range w.Sites.All() {
		if !s.Abandoned() {
			occupied = append(occupied, s.Position)
		}
	}
	pos, err := world.FindSiteLocation(w.Grid, r, occupied)
	if err != nil {
		return store.ID[history.Site]{}, err
	}
	return w.addSite(culture, pos, r), nil
}

// emigrate moves whole households, grouped by lineage in roster order,
// from one site to another until the emigrant share is reached. Leaders
// stay. It returns the emigrants.
func (w *World) emigrate(from, to store.ID[history.Site]) []store.ID[history.Creature] {
	src := w.Sites.View(from)
	want := max(1, int(float64(src.Population())*emigrantShare))

	var lineages []store.ID[history.Lineage]
	for _, id := range w.roster(from) {
		if l := w.Creatures.View(id).Lineage; l != nil && !slices.Contains(lineages, *l) {
			lineages = append(lineages, *l)
		}
	}

	var moved []store.ID[history.Creature]
	for _, l := range lineages {
		if len(moved) >= want {
			break
		}
		for _, id := range w.roster(from) {
			c := w.Creatures.View(id)
			if c.Lineage == nil || *c.Lineage != l || (src.Leader != nil && *src.Leader == id) {
				continue
			}
			w.Sites.Update(from, func(s *history.Site) { s.RemoveResident(id) })
			w.Sites.Update(to, func(s *history.Site) { s.AddResident(id) })
			w.Creatures.Update(id, func(c *history.Creature) { c.Home = to })
			moved = append(moved, id)
		}
	}
	return moved
}
