package history

import (
	"slices"
	"strings"
	"unicode"

	"github.com/talgya/worldforge/internal/markov"
	"github.com/talgya/worldforge/internal/resources"
	"github.com/talgya/worldforge/internal/rng"
	"github.com/talgya/worldforge/internal/store"
)

// NameCategory selects one of a culture's name models.
type NameCategory string

const (
	FirstMale   NameCategory = "first_male"
	FirstFemale NameCategory = "first_female"
	LastName    NameCategory = "last"
	CityName    NameCategory = "city"
	Word        NameCategory = "word"
)

// markovOrder is the n-gram length of every culture model.
const markovOrder = 2

var nameLengths = map[NameCategory][2]int{
	FirstMale:   {3, 9},
	FirstFemale: {3, 9},
	LastName:    {4, 12},
	CityName:    {4, 12},
	Word:        {3, 7},
}

// Culture carries the name models and language of one people.
type Culture struct {
	Name       string                         `json:"name"`
	Def        store.ID[resources.CultureDef] `json:"def"`
	Species    store.ID[resources.Species]    `json:"species"`
	Models     map[NameCategory]*markov.Model `json:"models"`
	Dictionary map[string]string              `json:"dictionary"` // concept → word
}

// NewCulture trains the culture's models from its content corpora and
// generates a word for every concept in content order.
func NewCulture(res *resources.Resources, def store.ID[resources.CultureDef], r *rng.Rng) *Culture {
	d := res.Cultures.View(def)
	c := &Culture{
		Name:    d.Name,
		Def:     def,
		Species: d.SpeciesID,
		Models: map[NameCategory]*markov.Model{
			FirstMale:   markov.Train(markovOrder, d.FirstMale),
			FirstFemale: markov.Train(markovOrder, d.FirstFemale),
			LastName:    markov.Train(markovOrder, d.Last),
			CityName:    markov.Train(markovOrder, d.City),
		},
		Dictionary: make(map[string]string, len(d.Concepts)),
	}

	var corpus []string
	for _, list := range [][]string{d.FirstMale, d.FirstFemale, d.Last, d.City} {
		corpus = append(corpus, list...)
	}
	c.Models[Word] = markov.Train(markovOrder, corpus)

	for _, concept := range d.Concepts {
		c.Dictionary[concept] = c.Generate(Word, r)
	}
	return c
}

// Generate samples a name of the given category.
func (c *Culture) Generate(cat NameCategory, r *rng.Rng) string {
	bounds := nameLengths[cat]
	return c.Models[cat].Generate(r, bounds[0], bounds[1])
}

// FirstName samples a given name for sex.
func (c *Culture) FirstName(sex Sex, r *rng.Rng) string {
	if sex == Female {
		return c.Generate(FirstFemale, r)
	}
	return c.Generate(FirstMale, r)
}

// Translate returns the culture's word for concept, or the concept itself
// capitalised if the language has none.
func (c *Culture) Translate(concept string) string {
	if w, ok := c.Dictionary[concept]; ok {
		return w
	}
	runes := []rune(strings.ToLower(concept))
	if len(runes) > 0 {
		runes[0] = unicode.ToUpper(runes[0])
	}
	return string(runes)
}

// Concepts returns the dictionary keys in a stable order.
func (c *Culture) Concepts() []string {
	keys := make([]string, 0, len(c.Dictionary))
	for k := range c.Dictionary {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Lineage is a family line sharing a surname.
type Lineage struct {
	Surname string              `json:"surname"`
	Culture store.ID[Culture]   `json:"culture"`
	Founder *store.ID[Creature] `json:"founder,omitempty"`
	Founded Date                `json:"founded"`
}

// Artifact is a named object crafted by a skilled creature.
type Artifact struct {
	Name     string                       `json:"name"`
	Material store.ID[resources.Material] `json:"material"`
	Creator  store.ID[Creature]           `json:"creator"`
	Owner    *store.ID[Creature]          `json:"owner,omitempty"`
	Created  Date                         `json:"created"`
	Value    int                          `json:"value"`
}
