// Topology generation in three deterministic passes: plate tectonics,
// precipitation, biome classification. Every smoothing or diffusion step is
// double-buffered, so each cell is a pure function of the previous buffer.
package world

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/worldforge/internal/resources"
	"github.com/talgya/worldforge/internal/rng"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Width  int // cells
	Height int // cells
	Plates int // tectonic plate seeds
}

// DefaultGenConfig returns the standard 256×256 map with eight plates.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:  256,
		Height: 256,
		Plates: 8,
	}
}

// SmallTestConfig returns a tiny world for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Width:  48,
		Height: 48,
		Plates: 5,
	}
}

const (
	upliftScale      = 0.35 // elevation change per unit of plate convergence
	smoothingPasses  = 8
	detailAmplitude  = 0.25
	moistureDecay    = 0.94 // fraction carried to the next cell
	rainShadow       = 2.5  // moisture lost per unit of elevation climbed
	lapseRate        = 0.55 // temperature lost per unit of elevation above sea
	biomeJitter      = 0.03
	continentalShare = 0.55
)

type plate struct {
	seed   Position
	dx, dy float64 // drift
	base   float64 // base elevation
}

// Generate builds a classified grid. It is a pure function of cfg, the root
// stream state and the content catalogue.
func Generate(cfg GenConfig, root rng.Rng, res *resources.Resources) *Grid {
	g := NewGrid(cfg.Width, cfg.Height)
	topo := root.Derive("topology")

	elevation := tectonics(g, cfg.Plates, topo.Derive("plates"))
	for i := range g.Cells {
		g.Cells[i].Elevation = elevation[i]
	}

	precipitation(g, res, topo.Derive("precipitation"))
	classify(g, res, topo.Derive("biomes"))
	return g
}

// tectonics seeds plates, grows them, accumulates elevation at boundaries
// and returns the normalised elevation field.
func tectonics(g *Grid, count int, r rng.Rng) []float64 {
	if count < 1 {
		count = 1
	}
	plates := make([]plate, count)
	for i := range plates {
		angle := r.RangeF(0, 2*math.Pi)
		speed := r.RangeF(0.2, 1.0)
		p := plate{
			seed: Position{X: r.Range(0, g.Width), Y: r.Range(0, g.Height)},
			dx:   math.Cos(angle) * speed,
			dy:   math.Sin(angle) * speed,
		}
		if r.Chance(continentalShare) {
			p.base = r.RangeF(0.45, 0.65)
		} else {
			p.base = r.RangeF(0.05, 0.25)
		}
		plates[i] = p
	}

	owner := growPlates(g, plates)
	for i := range g.Cells {
		g.Cells[i].Plate = owner[i]
	}

	// Collisions: every boundary pair contributes once, right and down.
	delta := make([]float64, len(g.Cells))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			i := y*g.Width + x
			for _, d := range [2]Position{{1, 0}, {0, 1}} {
				n := Position{X: x + d.X, Y: y + d.Y}
				if !g.InBounds(n) {
					continue
				}
				j := g.Index(n)
				a, b := owner[i], owner[j]
				if a == b {
					continue
				}
				conv := (plates[a].dx-plates[b].dx)*float64(d.X) + (plates[a].dy-plates[b].dy)*float64(d.Y)
				delta[i] += conv * upliftScale
				delta[j] += conv * upliftScale
			}
		}
	}
	delta = smooth(g, delta, smoothingPasses)

	detail := opensimplex.NewNormalized(int64(r.Seed64()))
	freq := 4.0 / float64(max(g.Width, g.Height))
	elev := make([]float64, len(g.Cells))
	for i := range elev {
		p := g.PositionOf(i)
		n := octaveNoise(detail, float64(p.X), float64(p.Y), 4, freq, 0.5)
		elev[i] = plates[owner[i]].base + delta[i] + (n-0.5)*detailAmplitude
	}
	normalize(elev)
	return elev
}

// growPlates assigns every cell to a plate by breadth-first growth from the
// plate seeds, in seed order.
func growPlates(g *Grid, plates []plate) []int {
	owner := make([]int, len(g.Cells))
	for i := range owner {
		owner[i] = -1
	}
	queue := make([]int, 0, len(g.Cells))
	for pi, p := range plates {
		i := g.Index(p.seed)
		if owner[i] != -1 {
			continue // two seeds on one cell; the first plate keeps it
		}
		owner[i] = pi
		queue = append(queue, i)
	}
	for head := 0; head < len(queue); head++ {
		i := queue[head]
		for _, n := range g.Neighbors(g.PositionOf(i)) {
			j := g.Index(n)
			if owner[j] == -1 {
				owner[j] = owner[i]
				queue = append(queue, j)
			}
		}
	}
	return owner
}

// smooth blends each cell with the mean of its neighbours, double-buffered.
func smooth(g *Grid, field []float64, passes int) []float64 {
	cur := field
	next := make([]float64, len(field))
	for pass := 0; pass < passes; pass++ {
		for i := range cur {
			ns := g.Neighbors(g.PositionOf(i))
			if len(ns) == 0 {
				next[i] = cur[i]
				continue
			}
			sum := 0.0
			for _, n := range ns {
				sum += cur[g.Index(n)]
			}
			next[i] = 0.5*cur[i] + 0.5*sum/float64(len(ns))
		}
		cur, next = next, cur
	}
	return cur
}

// precipitation computes temperature, classifies regions, diffuses moisture
// from water regions and derives vegetation and soil fertility.
func precipitation(g *Grid, res *resources.Resources, r rng.Rng) {
	tempNoise := opensimplex.NewNormalized(int64(r.Derive("temperature").Seed64()))
	soilNoise := opensimplex.NewNormalized(int64(r.Derive("soil").Seed64()))
	freq := 3.0 / float64(max(g.Width, g.Height))

	water := make([]bool, len(g.Cells))
	for i := range g.Cells {
		c := &g.Cells[i]
		p := g.PositionOf(i)
		lat := 0.0
		if g.Height > 1 {
			lat = math.Abs(float64(p.Y)/float64(g.Height-1)-0.5) * 2
		}
		n := octaveNoise(tempNoise, float64(p.X), float64(p.Y), 3, freq, 0.5)
		t := (1-lat)*0.85 + (n-0.5)*0.3 - math.Max(0, c.Elevation-0.3)*lapseRate + 0.1
		c.Temperature = clamp01(t)
		c.Region = res.ClassifyRegion(c.Elevation, c.Temperature)
		water[i] = res.Regions.View(c.Region).Water
	}

	moisture := make([]float64, len(g.Cells))
	for i := range moisture {
		if water[i] {
			moisture[i] = 1
		}
	}
	next := make([]float64, len(g.Cells))
	passes := max(g.Width, g.Height) / 4
	for pass := 0; pass < passes; pass++ {
		for i := range moisture {
			if water[i] {
				next[i] = 1
				continue
			}
			best := 0.0
			for _, n := range g.Neighbors(g.PositionOf(i)) {
				j := g.Index(n)
				climb := math.Max(0, g.Cells[i].Elevation-g.Cells[j].Elevation)
				carried := moisture[j] * moistureDecay * math.Max(0, 1-climb*rainShadow)
				if carried > best {
					best = carried
				}
			}
			next[i] = best
		}
		moisture, next = next, moisture
	}

	for i := range g.Cells {
		c := &g.Cells[i]
		p := g.PositionOf(i)
		c.Moisture = moisture[i]
		suit := clamp01(1 - math.Abs(c.Temperature-0.6)*1.4)
		c.Vegetation = clamp01(c.Moisture * suit * 1.1)
		lowland := clamp01(1 - math.Abs(c.Elevation-0.4)*2.5)
		n := octaveNoise(soilNoise, float64(p.X), float64(p.Y), 3, freq*2, 0.5)
		c.Soil = clamp01(0.45*c.Vegetation + 0.35*lowland + 0.2*n)
	}
}

// classify applies per-cell jitter and assigns the first matching biome.
func classify(g *Grid, res *resources.Resources, r rng.Rng) {
	seed := r.Seed64()
	for i := range g.Cells {
		c := &g.Cells[i]
		p := g.PositionOf(i)
		j := (rng.Unit(rng.Hash2(seed, p.X, p.Y)) - 0.5) * 2 * biomeJitter
		veg := clamp01(c.Vegetation + j)
		c.Biome = res.ClassifyBiome(c.Elevation, c.Temperature, veg, c.Soil)
		b := res.Biomes.View(c.Biome)
		c.Habitable = b.Habitable
		c.Fertility = b.Fertility
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

func normalize(field []float64) {
	if len(field) == 0 {
		return
	}
	lo, hi := field[0], field[0]
	for _, v := range field {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	for i := range field {
		if span == 0 {
			field[i] = 0.5
			continue
		}
		field[i] = (field[i] - lo) / span
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
