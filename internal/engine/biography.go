package engine

import (
	"fmt"

	"github.com/talgya/worldforge/internal/history"
	"github.com/talgya/worldforge/internal/store"
)

// Biography returns the ids of every event mentioning the creature, in log order.
func (w *World) Biography(id store.ID[history.Creature]) []store.ID[history.WorldEvent] {
	var out []store.ID[history.WorldEvent]
	for eid, ev := range w.Events.All() {
		if ev.Mentions(id) {
			out = append(out, eid)
		}
	}
	return out
}

// Describe renders an event as one line of prose.
func (w *World) Describe(ev *history.WorldEvent) string {
	name := func(i int) string {
		if i < len(ev.Creatures) {
			return w.FullName(ev.Creatures[i])
		}
		return "someone"
	}
	site := "the wilds"
	if ev.Site != nil {
		site = w.Sites.View(*ev.Site).Name
	}

	switch ev.Kind {
	case history.EventBirth:
		return fmt.Sprintf("%s is born in %s", name(0), site)
	case history.EventDeath:
		if len(ev.Creatures) > 1 {
			return fmt.Sprintf("%s is killed by %s in %s", name(0), name(1), site)
		}
		return fmt.Sprintf("%s dies of %s in %s", name(0), ev.Cause, site)
	case history.EventBurial:
		return fmt.Sprintf("%s is buried in %s", name(0), site)
	case history.EventMarriage:
		return fmt.Sprintf("%s marries %s in %s", name(0), name(1), site)
	case history.EventProfessionChange:
		prof := "a new trade"
		if ev.Profession != nil {
			prof = w.res.Professions.Name(*ev.Profession)
		}
		return fmt.Sprintf("%s becomes a %s", name(0), prof)
	case history.EventArtifactCreated:
		return fmt.Sprintf("%s creates %s", name(0), w.artifactName(ev))
	case history.EventArtifactInherited:
		return fmt.Sprintf("%s inherits %s from %s", name(0), w.artifactName(ev), name(1))
	case history.EventLeaderElected:
		return fmt.Sprintf("%s becomes leader of %s", name(0), site)
	case history.EventSiteFounded:
		return fmt.Sprintf("%s is founded", site)
	case history.EventPlotStarted:
		return fmt.Sprintf("%s begins plotting against %s", name(0), name(1))
	case history.EventPlotResolved:
		return fmt.Sprintf("the plot of %s against %s has %s", name(0), name(1), ev.Cause)
	case history.EventFactionFounded:
		faction := "a faction"
		if ev.Faction != nil {
			faction = w.Factions.View(*ev.Faction).Name
		}
		return fmt.Sprintf("%s founds the %s in %s", name(0), faction, site)
	default:
		return string(ev.Kind)
	}
}

func (w *World) artifactName(ev *history.WorldEvent) string {
	if ev.Artifact == nil {
		return "an artifact"
	}
	return w.Artifacts.View(*ev.Artifact).Name
}
