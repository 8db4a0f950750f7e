package history

import (
	"slices"

	"github.com/talgya/worldforge/internal/resources"
	"github.com/talgya/worldforge/internal/store"
)

// EventKind tags a WorldEvent.
type EventKind string

const (
	EventBirth             EventKind = "birth"
	EventDeath             EventKind = "death"
	EventMarriage          EventKind = "marriage"
	EventProfessionChange  EventKind = "profession change"
	EventArtifactCreated   EventKind = "artifact created"
	EventArtifactInherited EventKind = "artifact inherited"
	EventLeaderElected     EventKind = "leader elected"
	EventBurial            EventKind = "burial"
	EventSiteFounded       EventKind = "site founded"
	EventPlotStarted       EventKind = "plot started"
	EventPlotResolved      EventKind = "plot resolved"
	EventFactionFounded    EventKind = "faction founded"
)

// EventKinds lists every kind in declaration order.
var EventKinds = []EventKind{
	EventBirth, EventDeath, EventMarriage, EventProfessionChange,
	EventArtifactCreated, EventArtifactInherited, EventLeaderElected, EventBurial,
	EventSiteFounded, EventPlotStarted, EventPlotResolved, EventFactionFounded,
}

// WorldEvent is an immutable record in the world's append-only log. Its
// index in the log is its stable id.
type WorldEvent struct {
	Kind EventKind `json:"kind"`
	Date Date      `json:"date"`

	// Creatures lists the creatures involved, principal first.
	Creatures  []store.ID[Creature]            `json:"creatures,omitempty"`
	Site       *store.ID[Site]                 `json:"site,omitempty"`
	Artifact   *store.ID[Artifact]             `json:"artifact,omitempty"`
	Plot       *store.ID[Plot]                 `json:"plot,omitempty"`
	Faction    *store.ID[Faction]              `json:"faction,omitempty"`
	Profession *store.ID[resources.Profession] `json:"profession,omitempty"`
	Cause      string                          `json:"cause,omitempty"`
}

// Mentions reports whether the event involves creature c.
func (e *WorldEvent) Mentions(c store.ID[Creature]) bool {
	return slices.Contains(e.Creatures, c)
}

// Ptr returns a pointer to a copy of id, for optional event fields.
func Ptr[T any](id store.ID[T]) *store.ID[T] { return &id }
