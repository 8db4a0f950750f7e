// Package world provides the terrain grid, the topology generator and
// settlement site placement.
package world

import (
	"fmt"

	"github.com/talgya/worldforge/internal/resources"
	"github.com/talgya/worldforge/internal/store"
)

// Position is a cell coordinate on the grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// DistSq returns the squared euclidean distance between two positions.
func (p Position) DistSq(q Position) int {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// Cell holds the generated scalars and classification of one grid cell.
// All scalars are normalised to [0, 1].
type Cell struct {
	Elevation   float64 `json:"elevation"`
	Temperature float64 `json:"temperature"`
	Moisture    float64 `json:"moisture"`
	Vegetation  float64 `json:"vegetation"`
	Soil        float64 `json:"soil"`
	Plate       int     `json:"plate"`

	Region store.ID[resources.Region] `json:"region"`
	Biome  store.ID[resources.Biome]  `json:"biome"`

	// Copied from the biome at classification time.
	Habitable bool    `json:"habitable"`
	Fertility float64 `json:"fertility"`
}

// Grid is a fixed-size 2D map stored row-major.
type Grid struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Cells  []Cell `json:"cells"`
}

// NewGrid creates an empty grid.
func NewGrid(width, height int) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		Cells:  make([]Cell, width*height),
	}
}

// InBounds returns true if the position lies on the grid.
func (g *Grid) InBounds(p Position) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.Width && p.Y < g.Height
}

// Index returns the row-major index of p.
func (g *Grid) Index(p Position) int { return p.Y*g.Width + p.X }

// PositionOf is the inverse of Index.
func (g *Grid) PositionOf(i int) Position { return Position{X: i % g.Width, Y: i / g.Width} }

// At returns the cell at p, or nil if out of bounds.
func (g *Grid) At(p Position) *Cell {
	if !g.InBounds(p) {
		return nil
	}
	return &g.Cells[g.Index(p)]
}

// neighbourOffsets lists the 4-neighbourhood in a fixed order: right, down, left, up.
var neighbourOffsets = [4]Position{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

// Neighbors returns the in-bounds 4-neighbours of p in a fixed order.
func (g *Grid) Neighbors(p Position) []Position {
	out := make([]Position, 0, 4)
	for _, d := range neighbourOffsets {
		n := Position{X: p.X + d.X, Y: p.Y + d.Y}
		if g.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// CellCount returns the number of cells.
func (g *Grid) CellCount() int { return len(g.Cells) }

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d, cells=%d)", g.Width, g.Height, g.CellCount())
}

// BiomeCounts returns how many cells each biome covers.
func BiomeCounts(g *Grid) map[store.ID[resources.Biome]]int {
	counts := make(map[store.ID[resources.Biome]]int)
	for i := range g.Cells {
		counts[g.Cells[i].Biome]++
	}
	return counts
}
