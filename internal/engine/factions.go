// Faction dynamics — founding, recruitment, influence updates and
// inter-faction relations.
package engine

import (
	"fmt"

	"github.com/talgya/worldforge/internal/history"
	"github.com/talgya/worldforge/internal/store"
)

const (
	factionFoundingChance = 0.15
	factionMinPopulation  = 10
	recruitChance         = 0.1
	relationDecay         = 0.024 // share of a relation lost each year
	rivalryPenalty        = 5
	sameKindRelation      = -20
)

var factionStyle = map[history.FactionKind]struct{ title, concept string }{
	history.FactionPolitical: {"Council", "crown"},
	history.FactionEconomic:  {"Compact", "gold"},
	history.FactionMilitary:  {"Brotherhood", "iron"},
	history.FactionReligious: {"Circle", "star"},
}

// seedFactions gives every led seed site its first faction.
func (w *World) seedFactions() {
	for _, site := range w.Sites.IDs() {
		if leader := w.Sites.View(site).Leader; leader != nil {
			w.foundFaction(site, *leader)
		}
	}
}

// foundFaction creates a faction seated at site with founder as leader.
func (w *World) foundFaction(site store.ID[history.Site], founder store.ID[history.Creature]) store.ID[history.Faction] {
	c := w.Creatures.View(founder)
	profession := ""
	if c.Profession != nil {
		profession = w.res.Professions.Name(*c.Profession)
	}
	kind := history.FactionKindFor(profession)
	style := factionStyle[kind]
	culture := w.Cultures.View(c.Culture)
	name := fmt.Sprintf("%s of the %s", style.title, culture.Translate(style.concept))

	if c.Faction != nil {
		w.Factions.Update(*c.Faction, func(f *history.Faction) { f.RemoveMember(founder) })
	}
	id := w.Factions.Add(history.NewFaction(name, kind, site, founder, w.Date))
	for _, other := range w.Factions.IDs() {
		if other == id {
			continue
		}
		rel := 0.0
		if w.Factions.View(other).Kind == kind {
			rel = sameKindRelation
		}
		w.setRelation(id, other, rel)
	}

	w.Sites.Update(site, func(s *history.Site) {
		if s.Faction == nil {
			s.Faction = history.Ptr(id)
		}
	})
	w.Creatures.Update(founder, func(c *history.Creature) { c.Faction = history.Ptr(id) })
	w.record(history.WorldEvent{
		Kind:      history.EventFactionFounded,
		Creatures: []store.ID[history.Creature]{founder},
		Site:      history.Ptr(site),
		Faction:   history.Ptr(id),
	})
	w.logger.Debug("faction founded", "faction", name, "kind", kind.String())
	return id
}

// setRelation sets a symmetric relation between two factions.
func (w *World) setRelation(a, b store.ID[history.Faction], value float64) {
	w.Factions.Update(a, func(f *history.Faction) { f.SetRelation(b, value) })
	w.Factions.Update(b, func(f *history.Faction) { f.SetRelation(a, value) })
}

// processFactions runs the yearly faction update.
func (w *World) processFactions() {
	r := w.stream("factions")

	// Founding: led sites without a faction.
	for _, site := range w.Sites.IDs() {
		s := w.Sites.View(site)
		if s.Faction != nil || s.Leader == nil || s.Population() < factionMinPopulation {
			continue
		}
		if r.Chance(factionFoundingChance) {
			w.foundFaction(site, *s.Leader)
		}
	}

	// Recruitment at the seat; leaderless factions pick their most
	// experienced member.
	for _, fid := range w.Factions.IDs() {
		f := w.Factions.View(fid)
		for _, id := range w.roster(f.Seat) {
			c := w.Creatures.View(id)
			if c.Faction != nil || !w.adult(id) {
				continue
			}
			if f.Leader != nil && c.OpinionOf(*f.Leader) < 0 {
				continue
			}
			if !r.Chance(recruitChance) {
				continue
			}
			w.Creatures.Update(id, func(c *history.Creature) { c.Faction = history.Ptr(fid) })
			w.Factions.Update(fid, func(f *history.Faction) { f.AddMember(id) })
		}
		if f.Leader == nil {
			w.Factions.Update(fid, func(f *history.Faction) {
				best := -1
				for _, m := range f.Members {
					if xp := w.Creatures.View(m).Experience; xp > best {
						f.Leader, best = history.Ptr(m), xp
					}
				}
			})
		}
	}

	w.updateFactionInfluence()

	// Relations drift toward zero; rival leaders sour them.
	ids := w.Factions.IDs()
	for _, fid := range ids {
		w.Factions.Update(fid, func(f *history.Faction) {
			for other, rel := range f.Relations {
				f.Relations[other] = rel - rel*relationDecay
			}
		})
	}
	for i, a := range ids {
		for _, b := range ids[i+1:] {
			fa, fb := w.Factions.View(a), w.Factions.View(b)
			if fa.Leader == nil || fb.Leader == nil {
				continue
			}
			leader := w.Creatures.View(*fa.Leader)
			if history.TierOf(leader.OpinionOf(*fb.Leader)) <= history.TierRival {
				w.setRelation(a, b, fa.Relations[b]-rivalryPenalty)
			}
		}
	}
}

// updateFactionInfluence recalculates faction influence per site as the
// share of living residents who are members.
func (w *World) updateFactionInfluence() {
	counts := make(map[store.ID[history.Faction]]map[store.ID[history.Site]]int)
	alive := make(map[store.ID[history.Site]]int)
	for _, site := range w.Sites.IDs() {
		for _, id := range w.roster(site) {
			alive[site]++
			if f := w.Creatures.View(id).Faction; f != nil {
				if counts[*f] == nil {
					counts[*f] = make(map[store.ID[history.Site]]int)
				}
				counts[*f][site]++
			}
		}
	}
	for _, fid := range w.Factions.IDs() {
		w.Factions.Update(fid, func(f *history.Faction) {
			clear(f.Influence)
			for site, n := range counts[fid] {
				f.Influence[site] = float64(n) / float64(alive[site]) * 100
			}
		})
	}
}
