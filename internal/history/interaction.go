package history

import (
	"github.com/talgya/worldforge/internal/rng"
	"github.com/talgya/worldforge/internal/store"
)

// Interaction is the outcome of a casual encounter between two creatures.
type Interaction int

const (
	ChitChat Interaction = iota
	GoodTalk
	AwkwardTalk
	Insult
)

var interactionNames = [...]string{"chit-chat", "good talk", "awkward talk", "insult"}

func (i Interaction) String() string { return interactionNames[i] }

// BaseWeights are the unmodified outcome weights, indexed by Interaction.
var BaseWeights = [4]float64{1.0, 0.1, 0.2, 0.1}

// interactionDeltas holds the opinion change of (initiator→target, target→initiator).
var interactionDeltas = [4][2]int{
	ChitChat:    {1, 1},
	GoodTalk:    {5, 5},
	AwkwardTalk: {-1, -1},
	Insult:      {-1, -5},
}

// Deltas returns the opinion change applied to the initiator's view of the
// target and to the target's view of the initiator.
func (i Interaction) Deltas() (initiator, target int) {
	d := interactionDeltas[i]
	return d[0], d[1]
}

// InteractionWeights returns the outcome weights given the initiator's
// opinion of the target. Only the insult weight is modified.
func InteractionWeights(initiatorOpinion int) [4]float64 {
	w := BaseWeights
	switch tier := TierOf(initiatorOpinion); {
	case tier <= TierRival:
		w[Insult] *= 2
	case tier >= TierFriend:
		w[Insult] *= 0.5
	}
	return w
}

// SelectInteraction returns the outcome whose cumulative band contains f,
// where f lies in [0, sum(weights)).
func SelectInteraction(weights [4]float64, f float64) Interaction {
	acc := 0.0
	for i, w := range weights {
		acc += w
		if f < acc {
			return Interaction(i)
		}
	}
	return Insult
}

// SimplifiedInteraction resolves one encounter: initiator talks to target,
// both relationship entries are created if missing and the outcome's opinion
// deltas are applied. The two creatures are updated one after the other.
func SimplifiedInteraction(creatures *store.Arena[Creature], initiator, target store.ID[Creature], r *rng.Rng) Interaction {
	if initiator == target {
		return ChitChat
	}

	var opinion int
	creatures.Update(initiator, func(c *Creature) {
		opinion = c.RelationTo(target).Opinion
	})
	weights := InteractionWeights(opinion)
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	outcome := SelectInteraction(weights, r.Float()*sum)

	di, dt := outcome.Deltas()
	creatures.Update(initiator, func(c *Creature) {
		c.RelationTo(target).Opinion += di
	})
	creatures.Update(target, func(c *Creature) {
		c.RelationTo(initiator).Opinion += dt
	})
	return outcome
}
