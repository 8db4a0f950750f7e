// Site placement — scores habitable cells for the seed settlements and finds
// free cells for villages founded during the simulation.
package world

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/talgya/worldforge/internal/resources"
	"github.com/talgya/worldforge/internal/rng"
	"github.com/talgya/worldforge/internal/store"
)

const (
	// MaxSiteAttempts bounds the random search in FindSiteLocation.
	MaxSiteAttempts = 100
	// MinSiteDistSq is the minimum squared distance between two sites.
	MinSiteDistSq = 9
)

// ErrNoSiteFound reports that no free habitable cell could be found.
var ErrNoSiteFound = errors.New("no site found")

// NoSiteError is returned when the site search gives up.
type NoSiteError struct {
	Attempts int
}

func (e *NoSiteError) Error() string {
	return fmt.Sprintf("no site found after %d attempts", e.Attempts)
}

func (e *NoSiteError) Unwrap() error { return ErrNoSiteFound }

// PlaceSeedSites picks n well-scored habitable cells, best first, keeping
// every pair at least MinSiteDistSq apart. The stream supplies a small
// tie-breaking jitter per candidate.
func PlaceSeedSites(g *Grid, r *rng.Rng, n int) ([]Position, error) {
	type scored struct {
		pos   Position
		score float64
	}
	var candidates []scored

	for i := range g.Cells {
		c := &g.Cells[i]
		if !c.Habitable {
			continue
		}
		p := g.PositionOf(i)
		s := siteScore(g, p, c) + r.Float()*0.05
		candidates = append(candidates, scored{p, s})
	}

	// Sort by score descending; equal scores keep grid order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	sites := make([]Position, 0, n)
	for _, c := range candidates {
		if len(sites) >= n {
			break
		}
		if tooClose(c.pos, sites) {
			continue
		}
		sites = append(sites, c.pos)
	}
	if len(sites) < n {
		return sites, fmt.Errorf("place seed sites: placed %d of %d: %w", len(sites), n, ErrNoSiteFound)
	}
	return sites, nil
}

// FindSiteLocation draws up to MaxSiteAttempts random cells and returns the
// first habitable one far enough from every occupied position. Each attempt
// consumes exactly two draws.
func FindSiteLocation(g *Grid, r *rng.Rng, occupied []Position) (Position, error) {
	for attempt := 0; attempt < MaxSiteAttempts; attempt++ {
		p := Position{X: r.Range(0, g.Width), Y: r.Range(0, g.Height)}
		if !g.At(p).Habitable || tooClose(p, occupied) {
			continue
		}
		return p, nil
	}
	return Position{}, &NoSiteError{Attempts: MaxSiteAttempts}
}

// siteScore evaluates how desirable a cell is for a settlement.
// Prefers fertile soil, vegetation and varied surroundings.
func siteScore(g *Grid, p Position, c *Cell) float64 {
	score := c.Fertility*2 + c.Soil + c.Vegetation*0.5

	// Bonus for nearby biome diversity (economic complexity).
	biomes := make(map[store.ID[resources.Biome]]bool)
	water := false
	for _, n := range g.Neighbors(p) {
		nc := g.At(n)
		biomes[nc.Biome] = true
		if !nc.Habitable {
			water = true
		}
	}
	score += float64(len(biomes)) * 0.3

	// Bonus for an unworkable neighbour, usually coast.
	if water {
		score += 0.5
	}

	return score + math.Log1p(c.Moisture)*0.2
}

func tooClose(p Position, existing []Position) bool {
	for _, q := range existing {
		if p.DistSq(q) < MinSiteDistSq {
			return true
		}
	}
	return false
}
