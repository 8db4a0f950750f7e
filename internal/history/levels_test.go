package history

import "testing"

func TestXPLevelInverse(t *testing.T) {
	for level := 1; level <= MaxLevel; level++ {
		xp := LevelToXP(level)
		if got := XPToLevel(xp); got != level {
			t.Errorf("XPToLevel(LevelToXP(%d)) = %d", level, got)
		}
		if level > 1 {
			if got := XPToLevel(xp - 1); got != level-1 {
				t.Errorf("XPToLevel(LevelToXP(%d)-1) = %d, want %d", level, got, level-1)
			}
		}
	}
}

func TestXPToLevelCaps(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{299, 2},
		{300, 3},
		{LevelToXP(MaxLevel) * 10, MaxLevel},
	}
	for _, tt := range tests {
		if got := XPToLevel(tt.xp); got != tt.want {
			t.Errorf("XPToLevel(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func TestTierOf(t *testing.T) {
	tests := []struct {
		opinion int
		want    Tier
	}{
		{-80, TierEnemy},
		{-50, TierEnemy},
		{-49, TierRival},
		{-20, TierRival},
		{-19, TierNeutral},
		{0, TierNeutral},
		{19, TierNeutral},
		{20, TierFriend},
		{49, TierFriend},
		{50, TierClose},
	}
	for _, tt := range tests {
		if got := TierOf(tt.opinion); got != tt.want {
			t.Errorf("TierOf(%d) = %v, want %v", tt.opinion, got, tt.want)
		}
	}
}

func TestDateOrdering(t *testing.T) {
	a := Date{Year: 3, Month: 5, Day: 10}
	tests := []struct {
		b    Date
		want int
	}{
		{Date{Year: 3, Month: 5, Day: 10}, 0},
		{Date{Year: 4, Month: 1, Day: 1}, -1},
		{Date{Year: 3, Month: 6, Day: 1}, -1},
		{Date{Year: 3, Month: 5, Day: 9}, 1},
		{Date{Year: 2, Month: 12, Day: 30}, 1},
	}
	for _, tt := range tests {
		if got := a.Compare(tt.b); got != tt.want {
			t.Errorf("%v.Compare(%v) = %d, want %d", a, tt.b, got, tt.want)
		}
	}
	if !a.Before(a.AddYears(1)) {
		t.Error("AddYears(1) is not after the original date")
	}
	if got := a.AddYears(10).YearsSince(a); got != 10 {
		t.Errorf("YearsSince = %d", got)
	}
	if got := (Date{Year: 13, Month: 5, Day: 9}).YearsSince(a); got != 9 {
		t.Errorf("YearsSince before birthday = %d", got)
	}
}
