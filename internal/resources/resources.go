// Package resources holds the static content catalogue (biomes, regions,
// tiles, materials, species, professions, actions, cultures) that generation
// reads. Content is loaded once from JSON files; lookups by name afterwards
// either succeed or panic as a content error.
package resources

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/talgya/worldforge/internal/store"
)

//go:embed content/*.json
var embedded embed.FS

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// Biome classifies a terrain cell. All four ranges must contain the cell.
type Biome struct {
	Name        string  `json:"name"`
	Tile        string  `json:"tile"`
	Elevation   Range   `json:"elevation"`
	Temperature Range   `json:"temperature"`
	Vegetation  Range   `json:"vegetation"`
	Soil        Range   `json:"soil"`
	Habitable   bool    `json:"habitable"`
	Fertility   float64 `json:"fertility"` // food yield multiplier

	TileID store.ID[Tile] `json:"-"`
}

// Region is a coarse elevation/temperature band. Water regions feed moisture.
type Region struct {
	Name        string `json:"name"`
	Elevation   Range  `json:"elevation"`
	Temperature Range  `json:"temperature"`
	Water       bool   `json:"water"`
}

// Tile is the rendering hint for a biome.
type Tile struct {
	Name  string `json:"name"`
	Glyph string `json:"glyph"`
	Color string `json:"color"`
}

// Material is what artifacts are made from.
type Material struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"` // metal, wood, stone, organic, gem
	Value int    `json:"value"`
}

// Action is an innate ability; combat layers resolve them.
type Action struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Species describes a creature kind.
type Species struct {
	Name         string   `json:"name"`
	Lifespan     int      `json:"lifespan"`     // typical years
	Maturity     int      `json:"maturity"`     // adult age
	FertileAge   Range    `json:"fertile_age"`  // years
	Strength     int      `json:"strength"`     // base attribute
	Agility      int      `json:"agility"`      // base attribute
	Constitution int      `json:"constitution"` // base attribute
	Actions      []string `json:"actions"`

	ActionIDs []store.ID[Action] `json:"-"`
}

// Profession is a creature's trade.
type Profession struct {
	Name     string  `json:"name"`
	Food     float64 `json:"food"`     // yearly food per worker before fertility
	Weight   float64 `json:"weight"`   // relative chance of being chosen
	Crafter  bool    `json:"crafter"`  // may create artifacts
	Material string  `json:"material"` // preferred artifact material

	MaterialID *store.ID[Material] `json:"-"`
}

// CultureDef is the content side of a culture: name corpora and concepts.
type CultureDef struct {
	Name        string   `json:"name"`
	Species     string   `json:"species"`
	FirstMale   []string `json:"first_male"`
	FirstFemale []string `json:"first_female"`
	Last        []string `json:"last"`
	City        []string `json:"city"`
	Concepts    []string `json:"concepts"`

	SpeciesID store.ID[Species] `json:"-"`
}

// Resources is the full content catalogue.
type Resources struct {
	Biomes      *store.Catalogue[Biome]
	Regions     *store.Catalogue[Region]
	Tiles       *store.Catalogue[Tile]
	Materials   *store.Catalogue[Material]
	Actions     *store.Catalogue[Action]
	Species     *store.Catalogue[Species]
	Professions *store.Catalogue[Profession]
	Cultures    *store.Catalogue[CultureDef]
}

// ErrInvalidContent wraps every content validation failure.
var ErrInvalidContent = errors.New("invalid content")

// Default loads the embedded content. It panics if that content is broken.
func Default() *Resources {
	sub, err := fs.Sub(embedded, "content")
	if err != nil {
		panic(err)
	}
	res, err := Load(sub)
	if err != nil {
		panic(fmt.Sprintf("embedded content: %v", err))
	}
	return res
}

// Load reads every content file from fsys and cross-checks references.
func Load(fsys fs.FS) (*Resources, error) {
	res := &Resources{
		Biomes:      store.NewCatalogue[Biome]("biomes"),
		Regions:     store.NewCatalogue[Region]("regions"),
		Tiles:       store.NewCatalogue[Tile]("tiles"),
		Materials:   store.NewCatalogue[Material]("materials"),
		Actions:     store.NewCatalogue[Action]("actions"),
		Species:     store.NewCatalogue[Species]("species"),
		Professions: store.NewCatalogue[Profession]("professions"),
		Cultures:    store.NewCatalogue[CultureDef]("cultures"),
	}

	// Referenced catalogues load first.
	if err := loadInto(fsys, "tiles.json", res.Tiles, func(t Tile) string { return t.Name }, nil); err != nil {
		return nil, err
	}
	if err := loadInto(fsys, "materials.json", res.Materials, func(m Material) string { return m.Name }, nil); err != nil {
		return nil, err
	}
	if err := loadInto(fsys, "actions.json", res.Actions, func(a Action) string { return a.Name }, nil); err != nil {
		return nil, err
	}
	if err := loadInto(fsys, "regions.json", res.Regions, func(r Region) string { return r.Name }, nil); err != nil {
		return nil, err
	}
	err := loadInto(fsys, "biomes.json", res.Biomes, func(b Biome) string { return b.Name }, func(b *Biome) error {
		if !res.Tiles.Has(b.Tile) {
			return fmt.Errorf("biome %s: unknown tile %q", b.Name, b.Tile)
		}
		b.TileID = res.Tiles.IDOf(b.Tile)
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = loadInto(fsys, "species.json", res.Species, func(s Species) string { return s.Name }, func(s *Species) error {
		if s.Lifespan <= s.Maturity {
			return fmt.Errorf("species %s: lifespan %d not above maturity %d", s.Name, s.Lifespan, s.Maturity)
		}
		s.ActionIDs = s.ActionIDs[:0]
		for _, a := range s.Actions {
			if !res.Actions.Has(a) {
				return fmt.Errorf("species %s: unknown action %q", s.Name, a)
			}
			s.ActionIDs = append(s.ActionIDs, res.Actions.IDOf(a))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = loadInto(fsys, "professions.json", res.Professions, func(p Profession) string { return p.Name }, func(p *Profession) error {
		if p.Material == "" {
			return nil
		}
		if !res.Materials.Has(p.Material) {
			return fmt.Errorf("profession %s: unknown material %q", p.Name, p.Material)
		}
		id := res.Materials.IDOf(p.Material)
		p.MaterialID = &id
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = loadInto(fsys, "cultures.json", res.Cultures, func(c CultureDef) string { return c.Name }, func(c *CultureDef) error {
		if !res.Species.Has(c.Species) {
			return fmt.Errorf("culture %s: unknown species %q", c.Name, c.Species)
		}
		if len(c.FirstMale) == 0 || len(c.FirstFemale) == 0 || len(c.Last) == 0 || len(c.City) == 0 {
			return fmt.Errorf("culture %s: every name corpus must be non-empty", c.Name)
		}
		c.SpeciesID = res.Species.IDOf(c.Species)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func loadInto[T any](fsys fs.FS, file string, cat *store.Catalogue[T], name func(T) string, resolve func(*T) error) error {
	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	var entries []T
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("decode %s: %w", file, err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("%s: %w: no entries", file, ErrInvalidContent)
	}
	for i := range entries {
		n := name(entries[i])
		if n == "" {
			return fmt.Errorf("%s entry %d: %w: missing name", file, i, ErrInvalidContent)
		}
		if cat.Has(n) {
			return fmt.Errorf("%s: %w: duplicate name %q", file, ErrInvalidContent, n)
		}
		if resolve != nil {
			if err := resolve(&entries[i]); err != nil {
				return fmt.Errorf("%s: %w: %v", file, ErrInvalidContent, err)
			}
		}
		cat.Add(n, entries[i])
	}
	return nil
}

// ClassifyBiome returns the first biome, in catalogue order, whose ranges all
// contain the given values. No match is a content error.
func (r *Resources) ClassifyBiome(elevation, temperature, vegetation, soil float64) store.ID[Biome] {
	for id, b := range r.Biomes.All() {
		if b.Elevation.Contains(elevation) && b.Temperature.Contains(temperature) &&
			b.Vegetation.Contains(vegetation) && b.Soil.Contains(soil) {
			return id
		}
	}
	panic(fmt.Sprintf("resources: no biome matches elevation=%.3f temperature=%.3f vegetation=%.3f soil=%.3f",
		elevation, temperature, vegetation, soil))
}

// ClassifyRegion returns the first region containing the elevation and temperature.
func (r *Resources) ClassifyRegion(elevation, temperature float64) store.ID[Region] {
	for id, reg := range r.Regions.All() {
		if reg.Elevation.Contains(elevation) && reg.Temperature.Contains(temperature) {
			return id
		}
	}
	panic(fmt.Sprintf("resources: no region matches elevation=%.3f temperature=%.3f", elevation, temperature))
}
