package history

import (
	"github.com/talgya/worldforge/internal/resources"
	"github.com/talgya/worldforge/internal/store"
)

// Sex represents biological sex for demographic simulation.
type Sex uint8

const (
	Male   Sex = 0
	Female Sex = 1
)

func (s Sex) String() string {
	if s == Female {
		return "female"
	}
	return "male"
}

// Attributes are a creature's physical scores plus points not yet spent.
type Attributes struct {
	Strength     int `json:"strength"`
	Agility      int `json:"agility"`
	Constitution int `json:"constitution"`
	Unallocated  int `json:"unallocated"`
}

// Causes of death.
const (
	CauseOldAge     = "old age"
	CauseIllness    = "illness"
	CauseStarvation = "starvation"
	CauseMurder     = "murder"
)

// Death records how and when a creature died.
type Death struct {
	Date   Date                `json:"date"`
	Cause  string              `json:"cause"`
	Killer *store.ID[Creature] `json:"killer,omitempty"`
	Plot   *store.ID[Plot]     `json:"plot,omitempty"`
}

// Creature is a person in the world.
type Creature struct {
	Name    string                      `json:"name"`
	Sex     Sex                         `json:"sex"`
	Species store.ID[resources.Species] `json:"species"`
	Attributes

	Lineage    *store.ID[Lineage]              `json:"lineage,omitempty"`
	Culture    store.ID[Culture]               `json:"culture"`
	Home       store.ID[Site]                  `json:"home"`
	Profession *store.ID[resources.Profession] `json:"profession,omitempty"`
	Experience int                             `json:"experience"` // never decreases

	Born  Date   `json:"born"`
	Death *Death `json:"death,omitempty"`

	// Family
	Spouse   *store.ID[Creature]  `json:"spouse,omitempty"`
	Parents  []store.ID[Creature] `json:"parents,omitempty"`
	Children []store.ID[Creature] `json:"children,omitempty"`

	// Social
	Relationships map[store.ID[Creature]]*Relationship `json:"relationships,omitempty"`
	Faction       *store.ID[Faction]                   `json:"faction,omitempty"`
	SupportsPlot  *store.ID[Plot]                      `json:"supports_plot,omitempty"`

	Artifacts []store.ID[Artifact] `json:"artifacts,omitempty"`
}

// Alive reports whether the creature has no death record.
func (c *Creature) Alive() bool { return c.Death == nil }

// Age returns the creature's age in whole years at now.
func (c *Creature) Age(now Date) int { return now.YearsSince(c.Born) }

// Level returns the creature's experience level.
func (c *Creature) Level() int { return XPToLevel(c.Experience) }

// GainXP adds experience. Negative amounts are ignored.
func (c *Creature) GainXP(n int) {
	if n > 0 {
		c.Experience += n
	}
}

// RelationTo returns the creature's relationship toward other, creating a
// neutral entry if none exists.
func (c *Creature) RelationTo(other store.ID[Creature]) *Relationship {
	if c.Relationships == nil {
		c.Relationships = make(map[store.ID[Creature]]*Relationship)
	}
	rel, ok := c.Relationships[other]
	if !ok {
		rel = &Relationship{}
		c.Relationships[other] = rel
	}
	return rel
}

// OpinionOf returns the opinion toward other without creating an entry.
func (c *Creature) OpinionOf(other store.ID[Creature]) int {
	if rel, ok := c.Relationships[other]; ok {
		return rel.Opinion
	}
	return 0
}

// Die records the death. It is a no-op for the already dead.
func (c *Creature) Die(d Death) {
	if c.Death != nil {
		return
	}
	c.Death = &d
}
