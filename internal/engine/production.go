// Production — professions, experience, crafted artifacts and the yearly
// food economy of every site.
package engine

import (
	"fmt"

	"github.com/talgya/worldforge/internal/economy"
	"github.com/talgya/worldforge/internal/history"
	"github.com/talgya/worldforge/internal/resources"
	"github.com/talgya/worldforge/internal/rng"
	"github.com/talgya/worldforge/internal/store"
)

const (
	professionChange = 0.02 // yearly chance an adult switches trade
	minXPGain        = 20
	maxXPGain        = 60
	artifactLevel    = 5 // minimum crafter level
	artifactChance   = 0.05
)

// seedProfessions gives the starting adults a trade and experience that
// reflects their years of work.
func (w *World) seedProfessions() {
	r := w.stream("professions/seed")
	for _, id := range w.Creatures.IDs() {
		if !w.adult(id) {
			continue
		}
		prof := w.pickProfession(&r)
		w.Creatures.Update(id, func(c *history.Creature) {
			c.Profession = &prof
			working := c.Age(w.Date) - w.res.Species.View(c.Species).Maturity
			c.GainXP(r.Range(0, working*maxXPGain/2+1))
		})
	}
}

// pickProfession draws a profession weighted by its content weight.
func (w *World) pickProfession(r *rng.Rng) store.ID[resources.Profession] {
	ids := w.res.Professions.IDs()
	weights := make([]float64, len(ids))
	for i, id := range ids {
		weights[i] = w.res.Professions.View(id).Weight
	}
	return ids[r.Weighted(weights)]
}

// processProfessions assigns a trade to adults without one, lets a few
// change trade and grants yearly experience, in creature order.
func (w *World) processProfessions() {
	r := w.stream("professions")
	for _, id := range w.Creatures.IDs() {
		if !w.adult(id) {
			continue
		}
		c := w.Creatures.View(id)

		changed := false
		prof := c.Profession
		switch {
		case prof == nil:
			p := w.pickProfession(&r)
			prof, changed = &p, true
		case r.Chance(professionChange):
			if p := w.pickProfession(&r); p != *prof {
				prof, changed = &p, true
			}
		}
		gain := r.Range(minXPGain, maxXPGain+1)

		w.Creatures.Update(id, func(c *history.Creature) {
			c.Profession = prof
			c.GainXP(gain)
		})
		if changed {
			w.record(history.WorldEvent{
				Kind:       history.EventProfessionChange,
				Creatures:  []store.ID[history.Creature]{id},
				Site:       history.Ptr(c.Home),
				Profession: prof,
			})
		}
	}
}

// processArtifacts lets skilled crafters create named artifacts.
func (w *World) processArtifacts() {
	r := w.stream("artifacts")
	for _, id := range w.Creatures.IDs() {
		c := w.Creatures.View(id)
		if !c.Alive() || c.Profession == nil {
			continue
		}
		prof := w.res.Professions.View(*c.Profession)
		level := c.Level()
		if !prof.Crafter || level < artifactLevel {
			continue
		}
		if !r.Chance(min(1, artifactChance+0.01*float64(level-artifactLevel))) {
			continue
		}

		material := prof.MaterialID
		if material == nil {
			m := rng.Pick(&r, w.res.Materials.IDs())
			material = &m
		}
		culture := w.Cultures.View(c.Culture)
		concepts := culture.Concepts()
		concept := "work"
		if len(concepts) > 0 {
			concept = rng.Pick(&r, concepts)
		}
		mat := w.res.Materials.View(*material)

		art := w.Artifacts.Add(history.Artifact{
			Name:     fmt.Sprintf("%s, the %s %s", culture.Translate(concept), mat.Name, concept),
			Material: *material,
			Creator:  id,
			Owner:    history.Ptr(id),
			Created:  w.Date,
			Value:    mat.Value * level,
		})
		w.Creatures.Update(id, func(c *history.Creature) { c.Artifacts = append(c.Artifacts, art) })
		w.record(history.WorldEvent{
			Kind:      history.EventArtifactCreated,
			Creatures: []store.ID[history.Creature]{id},
			Site:      history.Ptr(c.Home),
			Artifact:  history.Ptr(art),
		})
	}
}

// processEconomy settles food for every site, builds houses with the
// surplus and moves unhoused residents in.
func (w *World) processEconomy() {
	for _, site := range w.Sites.IDs() {
		s := w.Sites.View(site)
		if s.Abandoned() {
			continue
		}
		fertility := w.Grid.At(s.Position).Fertility

		produced := 0.0
		adults, children := 0, 0
		for _, id := range w.roster(site) {
			if !w.adult(id) {
				children++
				continue
			}
			adults++
			c := w.Creatures.View(id)
			if c.Profession != nil {
				produced += economy.Yield(w.res.Professions.View(*c.Profession).Food, fertility, c.Level())
			}
		}

		h := economy.Balance(s.Food, produced, economy.Demand(adults, children))
		w.Sites.Update(site, func(s *history.Site) {
			s.Food = h.Stock
			s.Hunger = h.Hunger()

			build := economy.Affordable(s.Food, economy.HousesNeeded(s.Population(), s.CountStructures(history.StructureHouse)))
			for range build {
				s.Structures = append(s.Structures, history.Structure{Kind: history.StructureHouse})
			}
			s.Food -= float64(build) * economy.HouseCost
			house(s)
		})
		if h.Starving() {
			w.logger.Debug("site starving", "site", s.Name, "shortfall", h.Shortfall)
		}
	}
}

// house moves unhoused residents into houses with free room, in roster order.
func house(s *history.Site) {
	for _, id := range s.Roster {
		if s.Housed(id) {
			continue
		}
		for k := range s.Structures {
			st := &s.Structures[k]
			if st.Kind == history.StructureHouse && len(st.Occupants) < economy.HouseCapacity {
				st.Occupants = append(st.Occupants, id)
				break
			}
		}
	}
}
