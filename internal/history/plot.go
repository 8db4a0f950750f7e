// Plots — conspiracies a creature starts against another. A plot is ongoing
// until its goal is met or its plotter dies; both outcomes are terminal.
package history

import (
	"math"
	"slices"

	"github.com/talgya/worldforge/internal/store"
)

// GoalKind is the tag of a plot goal.
type GoalKind string

const GoalKill GoalKind = "kill"

// Goal is what a plot tries to achieve.
type Goal struct {
	Kind   GoalKind           `json:"kind"`
	Target store.ID[Creature] `json:"target"`
}

// PlotStatus is the state of the plot machine.
type PlotStatus string

const (
	PlotOngoing   PlotStatus = "ongoing"
	PlotSucceeded PlotStatus = "succeeded"
	PlotFailed    PlotStatus = "failed"
)

// Supporter is a creature backing a plot and the level it contributed.
type Supporter struct {
	Creature store.ID[Creature] `json:"creature"`
	Level    int                `json:"level"`
}

// Plot is a creature-initiated conspiracy.
type Plot struct {
	Goal       Goal               `json:"goal"`
	Plotter    store.ID[Creature] `json:"plotter"`
	Difficulty int                `json:"difficulty"`
	Supporters []Supporter        `json:"supporters,omitempty"`
	Strength   int                `json:"strength"` // sum of supporter levels
	Status     PlotStatus         `json:"status"`
	Started    Date               `json:"started"`
	Resolved   *Date              `json:"resolved,omitempty"`
}

// NewPlot creates an ongoing plot. Difficulty is the target's level.
func NewPlot(plotter store.ID[Creature], goal Goal, targetLevel int, now Date) Plot {
	return Plot{
		Goal:       goal,
		Plotter:    plotter,
		Difficulty: max(1, targetLevel),
		Status:     PlotOngoing,
		Started:    now,
	}
}

// Ongoing reports whether the plot has not resolved yet.
func (p *Plot) Ongoing() bool { return p.Status == PlotOngoing }

// AddSupporter enlists c (whose id is cid) in plot self. It refuses dead
// creatures, creatures already backing a plot and resolved plots.
func (p *Plot) AddSupporter(self store.ID[Plot], cid store.ID[Creature], c *Creature) bool {
	if !p.Ongoing() || !c.Alive() || c.SupportsPlot != nil {
		return false
	}
	level := c.Level()
	p.Supporters = append(p.Supporters, Supporter{Creature: cid, Level: level})
	p.Strength += level
	c.SupportsPlot = &self
	return true
}

// RemoveSupporter withdraws c from the plot and clears its back-reference.
func (p *Plot) RemoveSupporter(cid store.ID[Creature], c *Creature) bool {
	i := slices.IndexFunc(p.Supporters, func(s Supporter) bool { return s.Creature == cid })
	if i < 0 {
		return false
	}
	p.Strength -= p.Supporters[i].Level
	p.Supporters = slices.Delete(p.Supporters, i, i+1)
	c.SupportsPlot = nil
	return true
}

// IsSupporter reports whether cid backs the plot.
func (p *Plot) IsSupporter(cid store.ID[Creature]) bool {
	return slices.ContainsFunc(p.Supporters, func(s Supporter) bool { return s.Creature == cid })
}

// SuccessChance returns 1 once strength reaches difficulty and
// (strength/difficulty)³ below it.
func (p *Plot) SuccessChance() float64 {
	if p.Strength >= p.Difficulty {
		return 1
	}
	if p.Strength <= 0 {
		return 0
	}
	return math.Pow(float64(p.Strength)/float64(p.Difficulty), 3)
}

// VerifySuccess checks an ongoing plot against the world. The plot succeeds
// once its target is dead and fails if the plotter died first. On either
// transition every supporter's back-reference is cleared and the list is
// emptied. It returns true if the status changed.
func (p *Plot) VerifySuccess(self store.ID[Plot], creatures *store.Arena[Creature], now Date) bool {
	if !p.Ongoing() {
		return false
	}
	target := creatures.View(p.Goal.Target)
	plotter := creatures.View(p.Plotter)

	switch {
	case target.Death != nil && (plotter.Death == nil || !plotter.Death.Date.Before(target.Death.Date)):
		p.Status = PlotSucceeded
	case plotter.Death != nil:
		p.Status = PlotFailed
	default:
		return false
	}

	for _, s := range p.Supporters {
		creatures.Update(s.Creature, func(c *Creature) {
			if c.SupportsPlot != nil && *c.SupportsPlot == self {
				c.SupportsPlot = nil
			}
		})
	}
	p.Supporters = nil
	p.Strength = 0
	p.Resolved = &now
	return true
}
