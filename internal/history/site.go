package history

import (
	"slices"

	"github.com/talgya/worldforge/internal/store"
	"github.com/talgya/worldforge/internal/world"
)

// StructureKind names a building type.
type StructureKind string

const (
	StructureHouse    StructureKind = "house"
	StructureHall     StructureKind = "hall"
	StructureWorkshop StructureKind = "workshop"
	StructureTemple   StructureKind = "temple"
)

// Structure is a building with the creatures living or working in it.
type Structure struct {
	Kind      StructureKind        `json:"kind"`
	Occupants []store.ID[Creature] `json:"occupants,omitempty"`
}

// Site is a settlement on the grid.
type Site struct {
	Name     string            `json:"name"`
	Position world.Position    `json:"position"`
	Culture  store.ID[Culture] `json:"culture"`
	Founded  Date              `json:"founded"`

	// Demographics
	Roster         []store.ID[Creature] `json:"roster"`
	Cemetery       []store.ID[Creature] `json:"cemetery,omitempty"`
	PopulationPeak int                  `json:"population_peak"`

	Structures []Structure `json:"structures,omitempty"`
	Food       float64     `json:"food"`   // stock carried between years
	Hunger     float64     `json:"hunger"` // unmet share of last year's demand

	// Governance
	Leader  *store.ID[Creature] `json:"leader,omitempty"`
	Faction *store.ID[Faction]  `json:"faction,omitempty"`
}

// Population returns the number of living residents.
func (s *Site) Population() int { return len(s.Roster) }

// Abandoned reports whether nobody lives at the site any more.
func (s *Site) Abandoned() bool { return len(s.Roster) == 0 }

// AddResident appends a creature to the roster and tracks the peak.
func (s *Site) AddResident(id store.ID[Creature]) {
	s.Roster = append(s.Roster, id)
	if len(s.Roster) > s.PopulationPeak {
		s.PopulationPeak = len(s.Roster)
	}
}

// RemoveResident drops a creature from the roster and every structure.
// It returns false if the creature was not a resident.
func (s *Site) RemoveResident(id store.ID[Creature]) bool {
	i := slices.Index(s.Roster, id)
	if i < 0 {
		return false
	}
	s.Roster = slices.Delete(s.Roster, i, i+1)
	for k := range s.Structures {
		s.Structures[k].Occupants = slices.DeleteFunc(s.Structures[k].Occupants, func(o store.ID[Creature]) bool {
			return o == id
		})
	}
	if s.Leader != nil && *s.Leader == id {
		s.Leader = nil
	}
	return true
}

// Bury moves a resident into the cemetery.
func (s *Site) Bury(id store.ID[Creature]) {
	s.RemoveResident(id)
	s.Cemetery = append(s.Cemetery, id)
}

// CountStructures returns how many structures of kind exist.
func (s *Site) CountStructures(kind StructureKind) int {
	n := 0
	for _, st := range s.Structures {
		if st.Kind == kind {
			n++
		}
	}
	return n
}

// Housed reports whether the creature occupies any house.
func (s *Site) Housed(id store.ID[Creature]) bool {
	for _, st := range s.Structures {
		if st.Kind == StructureHouse && slices.Contains(st.Occupants, id) {
			return true
		}
	}
	return false
}
