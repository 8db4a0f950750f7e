package history

// MaxLevel is the highest attainable level.
const MaxLevel = 20

// LevelToXP returns the experience needed to reach level L.
func LevelToXP(level int) int {
	return 50 * level * (level - 1)
}

// XPToLevel returns the largest level L ≤ MaxLevel with LevelToXP(L) ≤ xp.
func XPToLevel(xp int) int {
	level := 1
	for level < MaxLevel && LevelToXP(level+1) <= xp {
		level++
	}
	return level
}
