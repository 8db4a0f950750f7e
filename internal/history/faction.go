// Factions — political, economic, martial and religious organisations that
// recruit creatures and hold influence over sites.
package history

import (
	"slices"

	"github.com/talgya/worldforge/internal/store"
)

// FactionKind categorizes the nature of a faction.
type FactionKind uint8

const (
	FactionPolitical FactionKind = iota // Governance-focused
	FactionEconomic                     // Trade and wealth
	FactionMilitary                     // Martial power
	FactionReligious                    // Spiritual and cultural
)

var factionKindNames = [...]string{"political", "economic", "military", "religious"}

func (k FactionKind) String() string { return factionKindNames[k] }

// FactionKindFor returns the faction kind a profession leans toward.
func FactionKindFor(profession string) FactionKind {
	switch profession {
	case "soldier":
		return FactionMilitary
	case "merchant", "jeweler":
		return FactionEconomic
	case "priest", "scholar":
		return FactionReligious
	default:
		return FactionPolitical
	}
}

// Faction represents an organization with members, influence and relations.
type Faction struct {
	Name    string             `json:"name"`
	Kind    FactionKind        `json:"kind"`
	Seat    store.ID[Site]     `json:"seat"`
	Founder store.ID[Creature] `json:"founder"`
	Founded Date               `json:"founded"`

	Leader  *store.ID[Creature]  `json:"leader,omitempty"`
	Members []store.ID[Creature] `json:"members"`

	// Influence per site (0–100).
	Influence map[store.ID[Site]]float64 `json:"influence"`

	// Relations with other factions (-100 to +100).
	Relations map[store.ID[Faction]]float64 `json:"relations"`
}

// NewFaction creates a faction with its founder as the first member and leader.
func NewFaction(name string, kind FactionKind, seat store.ID[Site], founder store.ID[Creature], now Date) Faction {
	return Faction{
		Name:      name,
		Kind:      kind,
		Seat:      seat,
		Founder:   founder,
		Founded:   now,
		Leader:    &founder,
		Members:   []store.ID[Creature]{founder},
		Influence: make(map[store.ID[Site]]float64),
		Relations: make(map[store.ID[Faction]]float64),
	}
}

// SetRelation sets the relation toward other, clamped to [-100, 100].
func (f *Faction) SetRelation(other store.ID[Faction], value float64) {
	f.Relations[other] = max(-100, min(100, value))
}

// AddMember enlists a creature once.
func (f *Faction) AddMember(id store.ID[Creature]) {
	if !slices.Contains(f.Members, id) {
		f.Members = append(f.Members, id)
	}
}

// RemoveMember drops a creature and clears the leader if it was them.
func (f *Faction) RemoveMember(id store.ID[Creature]) {
	f.Members = slices.DeleteFunc(f.Members, func(m store.ID[Creature]) bool { return m == id })
	if f.Leader != nil && *f.Leader == id {
		f.Leader = nil
	}
}
