package rng

// SplitMix is the 64-bit math-layer stream (splitmix64). The topology
// generator uses it for noise seeds and per-cell jitter.
type SplitMix struct {
	State uint64 `json:"state"`
}

const golden64 = 0x9E3779B97F4A7C15

// NewSplitMix seeds a splitmix64 stream.
func NewSplitMix(seed uint64) SplitMix {
	return SplitMix{State: seed}
}

// Next advances by the golden gamma and returns the mixed value.
func (s *SplitMix) Next() uint64 {
	s.State += golden64
	return Mix64(s.State)
}

// Float returns a float64 in [0, 1) built from the top 53 bits.
func (s *SplitMix) Float() float64 {
	return float64(s.Next()>>11) / (1 << 53)
}

// Mix64 is the splitmix64 finaliser applied to a single value.
func Mix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Hash2 returns a stable hash for 2D integer coordinates and a seed.
// It is a pure function, so per-cell work can run in any order.
func Hash2(seed uint64, x, y int) uint64 {
	return Mix64(seed ^ Mix64(uint64(uint32(x))|uint64(uint32(y))<<32))
}

// Unit maps a hash to a float64 in [0, 1).
func Unit(h uint64) float64 {
	return float64(h>>11) / (1 << 53)
}

// SplitMix returns a math-layer stream seeded from this stream's state.
// The receiver is not advanced.
func (r Rng) SplitMix() SplitMix {
	return NewSplitMix(Mix64(uint64(r.State)<<32 | uint64(Hash32(r.State))))
}

// Seed64 returns the first value of r.SplitMix(), for seeding other
// generators such as noise fields.
func (r Rng) Seed64() uint64 {
	sm := r.SplitMix()
	return sm.Next()
}
