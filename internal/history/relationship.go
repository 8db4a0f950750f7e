package history

import "slices"

// Opinion thresholds.
const (
	EnemyOpinion  = -50
	RivalOpinion  = -20
	FriendOpinion = 20
	CloseOpinion  = 50
)

// Tier is the coarse reading of an opinion score.
type Tier int

const (
	TierEnemy Tier = iota - 2
	TierRival
	TierNeutral
	TierFriend
	TierClose
)

var tierNames = map[Tier]string{
	TierEnemy:   "enemy",
	TierRival:   "rival",
	TierNeutral: "neutral",
	TierFriend:  "friend",
	TierClose:   "close",
}

func (t Tier) String() string { return tierNames[t] }

// TierOf maps an opinion score to its tier.
func TierOf(opinion int) Tier {
	switch {
	case opinion <= EnemyOpinion:
		return TierEnemy
	case opinion <= RivalOpinion:
		return TierRival
	case opinion >= CloseOpinion:
		return TierClose
	case opinion >= FriendOpinion:
		return TierFriend
	default:
		return TierNeutral
	}
}

// Relationship tags.
const (
	TagSpouse = "spouse"
	TagParent = "parent"
	TagChild  = "child"
	TagTarget = "plot target"
)

// Relationship is one creature's view of another. Entries are never removed.
type Relationship struct {
	Opinion int      `json:"opinion"`
	Tags    []string `json:"tags,omitempty"`
}

// Tier returns the opinion tier.
func (r *Relationship) Tier() Tier { return TierOf(r.Opinion) }

// HasTag reports whether the relationship carries tag.
func (r *Relationship) HasTag(tag string) bool { return slices.Contains(r.Tags, tag) }

// AddTag adds tag once.
func (r *Relationship) AddTag(tag string) {
	if !r.HasTag(tag) {
		r.Tags = append(r.Tags, tag)
	}
}
