// Governance — every inhabited site keeps a living resident leader; a
// vacancy goes to the most experienced adult. The runner-up, unless family,
// resents the winner and becomes their rival.
package engine

import (
	"slices"

	"github.com/talgya/worldforge/internal/history"
	"github.com/talgya/worldforge/internal/store"
)

// electionGrievance is the opinion a passed-over candidate loses toward the
// new leader.
const electionGrievance = 25

// processLeadership fills missing leaders in site order.
func (w *World) processLeadership() {
	for _, site := range w.Sites.IDs() {
		s := w.Sites.View(site)
		if s.Leader != nil && w.alive(*s.Leader) {
			continue
		}

		var candidates []store.ID[history.Creature]
		for _, id := range w.roster(site) {
			if w.adult(id) {
				candidates = append(candidates, id)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		// Most experienced first; ties keep roster order.
		slices.SortStableFunc(candidates, func(a, b store.ID[history.Creature]) int {
			return w.Creatures.View(b).Experience - w.Creatures.View(a).Experience
		})
		leader := history.Ptr(candidates[0])

		w.Sites.Update(site, func(s *history.Site) { s.Leader = leader })
		w.resentLeader(*leader, candidates[1:])
		w.record(history.WorldEvent{
			Kind:      history.EventLeaderElected,
			Creatures: []store.ID[history.Creature]{*leader},
			Site:      history.Ptr(site),
		})
		w.logger.Debug("leader elected", "site", s.Name, "leader", w.FullName(*leader))
	}
}

// resentLeader turns the strongest non-family loser of an election into a
// rival of the winner.
func (w *World) resentLeader(leader store.ID[history.Creature], losers []store.ID[history.Creature]) {
	l := w.Creatures.View(leader)
	for _, id := range losers {
		c := w.Creatures.View(id)
		if kin(leader, &l, id, &c) || (l.Spouse != nil && *l.Spouse == id) {
			continue
		}
		w.Creatures.Update(id, func(loser *history.Creature) {
			rel := loser.RelationTo(leader)
			rel.Opinion = min(rel.Opinion-electionGrievance, history.RivalOpinion)
		})
		return
	}
}
