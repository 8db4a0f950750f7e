// Relationship dynamics — marriages and casual encounters between residents.
package engine

import (
	"slices"

	"github.com/talgya/worldforge/internal/history"
	"github.com/talgya/worldforge/internal/rng"
	"github.com/talgya/worldforge/internal/store"
)

const (
	// arrangedMarriage is the chance a single adult with no friend among
	// the candidates still marries someone.
	arrangedMarriage = 0.2
	maxInteractions  = 20
)

// processMarriages pairs unmarried adults of opposite sex at each site,
// preferring the candidate the man likes best if that is a friend.
func (w *World) processMarriages() {
	for _, site := range w.Sites.IDs() {
		r := w.streamf("marriages/%d", site.Index())
		var men, women []store.ID[history.Creature]
		for _, id := range w.roster(site) {
			c := w.Creatures.View(id)
			if c.Spouse != nil || !w.adult(id) {
				continue
			}
			if c.Sex == history.Male {
				men = append(men, id)
			} else {
				women = append(women, id)
			}
		}

		for _, man := range men {
			m := w.Creatures.View(man)
			var candidates []store.ID[history.Creature]
			for _, woman := range women {
				f := w.Creatures.View(woman)
				if f.Spouse == nil && f.Species == m.Species && !kin(man, &m, woman, &f) {
					candidates = append(candidates, woman)
				}
			}
			if len(candidates) == 0 {
				continue
			}

			bride, best := candidates[0], m.OpinionOf(candidates[0])
			for _, c := range candidates[1:] {
				if o := m.OpinionOf(c); o > best {
					bride, best = c, o
				}
			}
			if history.TierOf(best) < history.TierFriend {
				if !r.Chance(arrangedMarriage) {
					continue
				}
				bride = rng.Pick(&r, candidates)
			}

			w.marry(man, bride)
			w.record(history.WorldEvent{
				Kind:      history.EventMarriage,
				Creatures: []store.ID[history.Creature]{man, bride},
				Site:      history.Ptr(site),
			})
		}
	}
}

// kin reports whether two creatures are parent and child or siblings.
func kin(aID store.ID[history.Creature], a *history.Creature, bID store.ID[history.Creature], b *history.Creature) bool {
	if slices.Contains(a.Parents, bID) || slices.Contains(b.Parents, aID) {
		return true
	}
	for _, p := range a.Parents {
		if slices.Contains(b.Parents, p) {
			return true
		}
	}
	return false
}

// processInteractions lets random pairs of adult residents talk. The number
// of encounters scales with population.
func (w *World) processInteractions() {
	for _, site := range w.Sites.IDs() {
		var alive []store.ID[history.Creature]
		for _, id := range w.roster(site) {
			if w.adult(id) {
				alive = append(alive, id)
			}
		}
		if len(alive) < 2 {
			continue
		}

		interactions := min(maxInteractions, max(1, len(alive)/4))
		r := w.streamf("interactions/%d", site.Index())
		for range interactions {
			i := r.Range(0, len(alive))
			j := r.Range(0, len(alive)-1)
			if j >= i {
				j++
			}
			history.SimplifiedInteraction(w.Creatures, alive[i], alive[j], &r)
		}
	}
}
