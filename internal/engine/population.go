// Population dynamics — aging, death, burial, inheritance, births and
// immigration.
package engine

import (
	"math"
	"slices"

	"github.com/talgya/worldforge/internal/economy"
	"github.com/talgya/worldforge/internal/history"
	"github.com/talgya/worldforge/internal/rng"
	"github.com/talgya/worldforge/internal/store"
)

const (
	baseHazard       = 0.004 // yearly chance of illness for anyone
	starvationHazard = 0.15  // added at full hunger
	birthChance      = 0.3   // per fertile couple per year, before hunger
	immigrationOdds  = 0.25  // per prosperous site per year
)

// processDeaths rolls death for every living creature in creature order.
// Each living creature consumes exactly one draw.
func (w *World) processDeaths() {
	r := w.stream("deaths")
	for _, id := range w.Creatures.IDs() {
		c := w.Creatures.View(id)
		if !c.Alive() {
			continue
		}
		species := w.res.Species.View(c.Species)
		hunger := w.Sites.View(c.Home).Hunger

		age := float64(c.Age(w.Date))
		lifespan := float64(species.Lifespan)
		old := 0.0
		if onset := lifespan * 0.6; age > onset {
			old = math.Pow((age-onset)/(lifespan*0.4), 2) * 0.25
		}
		if age >= lifespan*1.2 {
			old = 1
		}
		starving := hunger * starvationHazard

		if r.Float() >= baseHazard+old+starving {
			continue
		}
		cause := history.CauseIllness
		switch {
		case old >= starving && old > baseHazard:
			cause = history.CauseOldAge
		case starving > baseHazard:
			cause = history.CauseStarvation
		}
		w.kill(id, history.Death{Date: w.Date, Cause: cause})
	}
}

// kill records a death and everything that follows from it: burial, the
// widowed spouse, inherited artifacts, faction and plot membership.
func (w *World) kill(id store.ID[history.Creature], death history.Death) {
	w.Creatures.Update(id, func(c *history.Creature) { c.Die(death) })
	c := w.Creatures.View(id)

	w.record(history.WorldEvent{
		Kind:      history.EventDeath,
		Creatures: deathParties(id, death),
		Site:      history.Ptr(c.Home),
		Plot:      death.Plot,
		Cause:     death.Cause,
	})
	w.Sites.Update(c.Home, func(s *history.Site) { s.Bury(id) })
	w.record(history.WorldEvent{
		Kind:      history.EventBurial,
		Creatures: []store.ID[history.Creature]{id},
		Site:      history.Ptr(c.Home),
	})

	if c.Spouse != nil {
		w.Creatures.Update(*c.Spouse, func(s *history.Creature) { s.Spouse = nil })
	}

	if len(c.Artifacts) > 0 {
		if heir, ok := w.heirOf(&c); ok {
			for _, a := range c.Artifacts {
				w.Artifacts.Update(a, func(art *history.Artifact) { art.Owner = history.Ptr(heir) })
				w.Creatures.Update(heir, func(h *history.Creature) { h.Artifacts = append(h.Artifacts, a) })
				w.record(history.WorldEvent{
					Kind:      history.EventArtifactInherited,
					Creatures: []store.ID[history.Creature]{heir, id},
					Artifact:  history.Ptr(a),
				})
			}
		} else {
			for _, a := range c.Artifacts {
				w.Artifacts.Update(a, func(art *history.Artifact) { art.Owner = nil })
			}
		}
		w.Creatures.Update(id, func(c *history.Creature) { c.Artifacts = nil })
	}

	if c.Faction != nil {
		w.Factions.Update(*c.Faction, func(f *history.Faction) { f.RemoveMember(id) })
	}
	if c.SupportsPlot != nil {
		pid := *c.SupportsPlot
		w.Plots.Update(pid, func(p *history.Plot) {
			w.Creatures.Update(id, func(c *history.Creature) { p.RemoveSupporter(id, c) })
		})
	}
}

func deathParties(id store.ID[history.Creature], d history.Death) []store.ID[history.Creature] {
	if d.Killer != nil {
		return []store.ID[history.Creature]{id, *d.Killer}
	}
	return []store.ID[history.Creature]{id}
}

// heirOf returns the first living child, else the living spouse.
func (w *World) heirOf(c *history.Creature) (store.ID[history.Creature], bool) {
	for _, child := range c.Children {
		if w.alive(child) {
			return child, true
		}
	}
	if c.Spouse != nil && w.alive(*c.Spouse) {
		return *c.Spouse, true
	}
	return store.ID[history.Creature]{}, false
}

// processFamilies handles births from married couples and immigrant
// households, site by site.
func (w *World) processFamilies() {
	r := w.stream("families")
	for _, site := range w.Sites.IDs() {
		s := w.Sites.View(site)
		if s.Abandoned() {
			continue
		}
		n := 0
		for _, mother := range w.roster(site) {
			m := w.Creatures.View(mother)
			if m.Sex != history.Female || m.Spouse == nil || !w.fertile(&m) {
				continue
			}
			father := *m.Spouse
			if f := w.Creatures.View(father); !f.Alive() || f.Home != site {
				continue
			}
			if !r.Chance(birthChance * (1 - s.Hunger)) {
				continue
			}
			fr := w.streamf("family/%d/%d", site.Index(), n)
			n++
			w.bear(site, mother, father, &fr)
		}

		adults, children := w.census(site)
		if economy.Prosperous(w.Sites.View(site).Food, economy.Demand(adults, children)) && r.Chance(immigrationOdds) {
			fr := w.streamf("family/%d/%d", site.Index(), n)
			members := w.spawnHousehold(site, 5, &fr)
			w.logger.Debug("immigrants arrive", "site", s.Name, "count", len(members))
		}
	}
}

// fertile reports whether a living creature is within its species' fertile ages.
func (w *World) fertile(c *history.Creature) bool {
	if !c.Alive() {
		return false
	}
	species := w.res.Species.View(c.Species)
	return species.FertileAge.Contains(float64(c.Age(w.Date)))
}

// bear creates a newborn of the mother's species in the father's lineage.
func (w *World) bear(site store.ID[history.Site], mother, father store.ID[history.Creature], r *rng.Rng) {
	m := w.Creatures.View(mother)
	f := w.Creatures.View(father)
	culture := w.Cultures.View(m.Culture)

	sex := history.Male
	if r.Chance(0.5) {
		sex = history.Female
	}
	species := w.res.Species.View(m.Species)
	child := history.Creature{
		Name:    culture.FirstName(sex, r),
		Sex:     sex,
		Species: m.Species,
		Attributes: history.Attributes{
			Strength:     (m.Strength+f.Strength)/2 + r.Range(-1, 2),
			Agility:      (m.Agility+f.Agility)/2 + r.Range(-1, 2),
			Constitution: (m.Constitution+f.Constitution)/2 + r.Range(-1, 2),
			Unallocated:  r.Range(0, 3),
		},
		Lineage: f.Lineage,
		Culture: m.Culture,
		Home:    site,
		Born:    w.Date,
	}
	if child.Strength < 1 {
		child.Strength = species.Strength
	}
	id := w.Creatures.Add(child)
	w.linkParents(id, father, mother)
	w.Sites.Update(site, func(s *history.Site) { s.AddResident(id) })
	w.record(history.WorldEvent{
		Kind:      history.EventBirth,
		Creatures: []store.ID[history.Creature]{id, mother, father},
		Site:      history.Ptr(site),
	})
}

// census counts living adults and children at a site.
func (w *World) census(site store.ID[history.Site]) (adults, children int) {
	for _, id := range w.roster(site) {
		if w.adult(id) {
			adults++
		} else {
			children++
		}
	}
	return adults, children
}

// adult reports whether a creature is alive and past its species' maturity.
func (w *World) adult(id store.ID[history.Creature]) bool {
	c := w.Creatures.View(id)
	return c.Alive() && c.Age(w.Date) >= w.res.Species.View(c.Species).Maturity
}

// alive reports whether a creature is alive.
func (w *World) alive(id store.ID[history.Creature]) (ok bool) {
	w.Creatures.Read(id, func(c *history.Creature) { ok = c.Alive() })
	return ok
}

// population returns the number of living residents of a site.
func (w *World) population(site store.ID[history.Site]) (n int) {
	w.Sites.Read(site, func(s *history.Site) { n = s.Population() })
	return n
}

// roster returns a copy of a site's living residents.
func (w *World) roster(site store.ID[history.Site]) []store.ID[history.Creature] {
	var out []store.ID[history.Creature]
	w.Sites.Read(site, func(s *history.Site) { out = slices.Clone(s.Roster) })
	return out
}
