// Package rng provides the deterministic pseudo-random streams used by world
// generation and history simulation.
//
// Rng is the general-purpose stream: a 32-bit xorshift state, seeded through a
// Murmur-style finaliser and advanced once on construction so adjacent seeds do
// not start correlated. Derive produces keyed child streams without touching
// the parent, so unrelated derivations can happen in any order.
//
// Every operation below is specified by exact constants and operation order and
// must stay bit-for-bit stable: saved worlds depend on it.
package rng

import (
	"fmt"
	"hash/fnv"
	"math"
)

// zeroFallback replaces a zero state, which is a fixed point of xorshift.
const zeroFallback uint32 = 0x6D2B79F5

// Rng is a seedable, derivable xorshift32 stream.
// The zero value is not usable; construct with New.
type Rng struct {
	State uint32 `json:"state"`
}

// New creates a stream from a 64-bit seed.
func New(seed uint64) Rng {
	return fromState(uint32(seed) ^ uint32(seed>>32))
}

func fromState(x uint32) Rng {
	s := Hash32(x)
	if s == 0 {
		s = zeroFallback
	}
	r := Rng{State: s}
	r.step()
	return r
}

// Hash32 mixes 32-bit input into a well-distributed 32-bit output
// (Murmur3 finaliser constants).
func Hash32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}

// HashKey returns the 32-bit FNV-1a hash of key.
func HashKey(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32()
}

func (r *Rng) step() uint32 {
	x := r.State
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	r.State = x
	return x
}

// Derive returns an independent child stream keyed by key.
// The parent is not advanced.
func (r Rng) Derive(key string) Rng {
	return fromState(r.State ^ Hash32(HashKey(key)))
}

// Derivef is Derive with a formatted key.
func (r Rng) Derivef(format string, args ...any) Rng {
	return r.Derive(fmt.Sprintf(format, args...))
}

// NextU32 advances the stream and returns the new state.
func (r *Rng) NextU32() uint32 {
	return r.step()
}

// NextU64 draws two words, high word first.
func (r *Rng) NextU64() uint64 {
	hi := uint64(r.step())
	lo := uint64(r.step())
	return hi<<32 | lo
}

// Float returns a float64 in [0, 1).
func (r *Rng) Float() float64 {
	return float64(r.step()) / (1 << 32)
}

// Range returns an int in [lo, hi). The span must fit in 32 bits.
func (r *Rng) Range(lo, hi int) int {
	if hi <= lo {
		panic(fmt.Sprintf("rng: empty range [%d, %d)", lo, hi))
	}
	span := uint64(hi - lo)
	if span > 1<<32 {
		panic(fmt.Sprintf("rng: range [%d, %d) wider than 32 bits", lo, hi))
	}
	return lo + int((uint64(r.step())*span)>>32)
}

// RangeF returns a float64 in [lo, hi).
func (r *Rng) RangeF(lo, hi float64) float64 {
	return lo + r.Float()*(hi-lo)
}

// Chance returns true with probability p. p outside [0, 1] is a programming error.
func (r *Rng) Chance(p float64) bool {
	if p < 0 || p > 1 || math.IsNaN(p) {
		panic(fmt.Sprintf("rng: chance %v outside [0, 1]", p))
	}
	return r.Float() < p
}

// Pick returns a uniformly chosen element. Panics on an empty slice.
func Pick[T any](r *Rng, items []T) T {
	if len(items) == 0 {
		panic("rng: pick from empty slice")
	}
	return items[r.Range(0, len(items))]
}

// Shuffle permutes items in place (Fisher–Yates from the end).
func Shuffle[T any](r *Rng, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := r.Range(0, i+1)
		items[i], items[j] = items[j], items[i]
	}
}

// Weighted picks an index with probability proportional to weights.
// Non-positive weights are never chosen; all-zero weights panic.
func (r *Rng) Weighted(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		panic("rng: weighted pick with no positive weight")
	}
	f := r.Float() * total
	last := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		if f < w {
			return i
		}
		f -= w
	}
	return last
}
