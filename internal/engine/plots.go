// Plots — rivals conspire to kill each other. Each year new plots start,
// supporters are recruited, attempts are made and every ongoing plot is
// verified against the world.
package engine

import (
	"slices"

	"github.com/talgya/worldforge/internal/history"
	"github.com/talgya/worldforge/internal/store"
)

const (
	plotStartChance   = 0.1
	plotRecruitChance = 0.5
	plotAttemptChance = 0.2
	// foiledPenalty is the opinion a target loses toward a plotter whose
	// attempt failed.
	foiledPenalty = 20
)

// processPlots runs plot creation, recruitment, attempts and verification.
func (w *World) processPlots() {
	r := w.stream("plots")

	// Creation: a living adult who is free picks their worst living rival.
	for _, id := range w.Creatures.IDs() {
		c := w.Creatures.View(id)
		if c.SupportsPlot != nil || !w.adult(id) {
			continue
		}
		target, ok := w.worstRival(&c)
		if !ok || !r.Chance(plotStartChance) {
			continue
		}
		w.StartPlot(id, target)
	}

	// Recruitment among the plotter's neighbours.
	for _, pid := range w.ongoingPlots() {
		p := w.Plots.View(pid)
		plotter := w.Creatures.View(p.Plotter)
		for _, id := range w.roster(plotter.Home) {
			if id == p.Plotter || id == p.Goal.Target {
				continue
			}
			c := w.Creatures.View(id)
			if c.SupportsPlot != nil || !w.adult(id) {
				continue
			}
			if history.TierOf(c.OpinionOf(p.Plotter)) < history.TierFriend || c.OpinionOf(p.Goal.Target) > 0 {
				continue
			}
			if r.Chance(plotRecruitChance) {
				w.joinPlot(pid, id)
			}
		}
	}

	// Attempts.
	for _, pid := range w.ongoingPlots() {
		p := w.Plots.View(pid)
		if !w.alive(p.Goal.Target) || !r.Chance(plotAttemptChance) {
			continue
		}
		if r.Chance(p.SuccessChance()) {
			w.kill(p.Goal.Target, history.Death{
				Date:   w.Date,
				Cause:  history.CauseMurder,
				Killer: history.Ptr(p.Plotter),
				Plot:   history.Ptr(pid),
			})
			continue
		}
		w.Creatures.Update(p.Goal.Target, func(c *history.Creature) {
			rel := c.RelationTo(p.Plotter)
			rel.Opinion -= foiledPenalty
			rel.AddTag(history.TagTarget)
		})
	}

	// Verification of every ongoing plot.
	for _, pid := range w.ongoingPlots() {
		var changed bool
		w.Plots.Update(pid, func(p *history.Plot) {
			changed = p.VerifySuccess(pid, w.Creatures, w.Date)
		})
		if !changed {
			continue
		}
		p := w.Plots.View(pid)
		w.record(history.WorldEvent{
			Kind:      history.EventPlotResolved,
			Creatures: []store.ID[history.Creature]{p.Plotter, p.Goal.Target},
			Plot:      history.Ptr(pid),
			Cause:     string(p.Status),
		})
	}
}

// StartPlot creates a kill plot by plotter against target with the plotter
// as its first supporter.
func (w *World) StartPlot(plotter, target store.ID[history.Creature]) store.ID[history.Plot] {
	t := w.Creatures.View(target)
	level := t.Level()
	pid := w.Plots.Add(history.NewPlot(plotter, history.Goal{Kind: history.GoalKill, Target: target}, level, w.Date))
	w.joinPlot(pid, plotter)
	w.record(history.WorldEvent{
		Kind:      history.EventPlotStarted,
		Creatures: []store.ID[history.Creature]{plotter, target},
		Plot:      history.Ptr(pid),
	})
	return pid
}

// joinPlot adds a supporter, holding the plot and the creature exclusively.
func (w *World) joinPlot(pid store.ID[history.Plot], id store.ID[history.Creature]) bool {
	var ok bool
	w.Plots.Update(pid, func(p *history.Plot) {
		w.Creatures.Update(id, func(c *history.Creature) {
			ok = p.AddSupporter(pid, id, c)
		})
	})
	return ok
}

// worstRival returns the living creature c likes least, if that opinion is
// rival or worse. Ties go to the lowest id.
func (w *World) worstRival(c *history.Creature) (store.ID[history.Creature], bool) {
	keys := make([]store.ID[history.Creature], 0, len(c.Relationships))
	for id := range c.Relationships {
		keys = append(keys, id)
	}
	slices.SortFunc(keys, func(a, b store.ID[history.Creature]) int { return a.Index() - b.Index() })

	var target store.ID[history.Creature]
	worst, found := history.RivalOpinion+1, false
	for _, id := range keys {
		if o := c.Relationships[id].Opinion; o < worst && w.alive(id) {
			target, worst, found = id, o, true
		}
	}
	return target, found
}

func (w *World) ongoingPlots() []store.ID[history.Plot] {
	var out []store.ID[history.Plot]
	for id, p := range w.Plots.All() {
		if p.Ongoing() {
			out = append(out, id)
		}
	}
	return out
}
