// Package markov trains character-level Markov chains on name corpora and
// samples plausible new words from them.
package markov

import (
	"sort"
	"strings"
	"unicode"

	"github.com/talgya/worldforge/internal/rng"
)

const (
	startMark = '^'
	endMark   = '$'
)

// MaxAttempts bounds the rejection loop in Generate.
const MaxAttempts = 100

// Edge is one possible next character with its observed count.
type Edge struct {
	Next   rune `json:"next"`
	Weight int  `json:"weight"`
}

// Row holds the outgoing edges of one prefix, sorted by rune.
type Row struct {
	Total int    `json:"total"`
	Edges []Edge `json:"edges"`
}

// Model is a trained transition table: n-gram prefix → next-character distribution.
type Model struct {
	Order int            `json:"order"`
	Table map[string]Row `json:"table"`
}

// Train builds a model of the given order from a corpus of words.
func Train(order int, corpus []string) *Model {
	if order < 1 {
		order = 1
	}
	counts := make(map[string]map[rune]int)
	for _, raw := range corpus {
		word := []rune(strings.ToLower(strings.TrimSpace(raw)))
		if len(word) == 0 {
			continue
		}
		prefix := []rune(strings.Repeat(string(startMark), order))
		for _, ch := range append(word, endMark) {
			key := string(prefix)
			if counts[key] == nil {
				counts[key] = make(map[rune]int)
			}
			counts[key][ch]++
			prefix = append(prefix[1:len(prefix):len(prefix)], ch)
		}
	}

	m := &Model{Order: order, Table: make(map[string]Row, len(counts))}
	for key, next := range counts {
		row := Row{Edges: make([]Edge, 0, len(next))}
		for ch, n := range next {
			row.Edges = append(row.Edges, Edge{Next: ch, Weight: n})
			row.Total += n
		}
		sort.Slice(row.Edges, func(i, j int) bool { return row.Edges[i].Next < row.Edges[j].Next })
		m.Table[key] = row
	}
	return m
}

// Empty reports whether the model has no transitions.
func (m *Model) Empty() bool { return m == nil || len(m.Table) == 0 }

// Generate samples words until one has a rune length in [minLen, maxLen] and
// returns it capitalised. After MaxAttempts rejections the last candidate is
// accepted, truncated to maxLen. An empty model is a content error.
func (m *Model) Generate(r *rng.Rng, minLen, maxLen int) string {
	if m.Empty() {
		panic("markov: generate from empty model")
	}
	var last []rune
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		word := m.walk(r, maxLen)
		if len(word) >= minLen && len(word) <= maxLen {
			return capitalize(word)
		}
		if len(word) > 0 {
			last = word
		}
	}
	if len(last) > maxLen {
		last = last[:maxLen]
	}
	return capitalize(last)
}

// walk follows the chain from the start prefix. It stops at the end marker,
// at a prefix with no continuation, or once the word exceeds maxLen.
func (m *Model) walk(r *rng.Rng, maxLen int) []rune {
	prefix := []rune(strings.Repeat(string(startMark), m.Order))
	var out []rune
	for {
		row, ok := m.Table[string(prefix)]
		if !ok || row.Total == 0 {
			return out
		}
		next := row.pick(r)
		if next == endMark {
			return out
		}
		out = append(out, next)
		if len(out) > maxLen {
			return out
		}
		prefix = append(prefix[1:len(prefix):len(prefix)], next)
	}
}

func (row Row) pick(r *rng.Rng) rune {
	f := r.Range(0, row.Total)
	for _, e := range row.Edges {
		if f < e.Weight {
			return e.Next
		}
		f -= e.Weight
	}
	return row.Edges[len(row.Edges)-1].Next
}

func capitalize(word []rune) string {
	if len(word) == 0 {
		return ""
	}
	out := make([]rune, len(word))
	copy(out, word)
	out[0] = unicode.ToUpper(out[0])
	return string(out)
}
