// Creature spawning — seed sites, households (single creatures and nuclear
// families) and newborns, each drawn from its own derived stream.
package engine

import (
	"github.com/talgya/worldforge/internal/history"
	"github.com/talgya/worldforge/internal/rng"
	"github.com/talgya/worldforge/internal/store"
	"github.com/talgya/worldforge/internal/world"
)

// singleChance is the probability that a new household is one adult.
const singleChance = 0.35

// addSite creates an empty site with a name from the culture's city model.
func (w *World) addSite(culture store.ID[history.Culture], pos world.Position, r *rng.Rng) store.ID[history.Site] {
	var name string
	w.Cultures.Read(culture, func(c *history.Culture) {
		name = c.Generate(history.CityName, r)
	})
	return w.Sites.Add(history.Site{
		Name:     name,
		Position: pos,
		Culture:  culture,
		Founded:  w.Date,
		Roster:   []store.ID[history.Creature]{},
	})
}

// populate fills a site with households until it holds exactly n creatures.
func (w *World) populate(site store.ID[history.Site], n int, r *rng.Rng) {
	for k := 0; w.population(site) < n; k++ {
		hr := r.Derivef("family/%d/%d", site.Index(), k)
		remaining := n - w.population(site)
		w.spawnHousehold(site, remaining, &hr)
	}
}

// spawnHousehold founds a new lineage at site with at most limit members:
// either a single adult or a married couple with up to three children.
func (w *World) spawnHousehold(site store.ID[history.Site], limit int, r *rng.Rng) []store.ID[history.Creature] {
	cultureID := w.Sites.View(site).Culture
	culture := w.Cultures.View(cultureID)
	species := w.res.Species.View(culture.Species)

	surname := culture.Generate(history.LastName, r)
	lineage := w.Lineages.Add(history.Lineage{
		Surname: surname,
		Culture: cultureID,
		Founded: w.Date,
	})

	adultAge := func() int {
		return r.Range(species.Maturity, max(species.Maturity+1, int(species.FertileAge.Max)))
	}

	if limit <= 1 || r.Chance(singleChance) {
		sex := history.Male
		if r.Chance(0.5) {
			sex = history.Female
		}
		id := w.spawnCreature(site, &culture, lineage, sex, adultAge(), r)
		w.Lineages.Update(lineage, func(l *history.Lineage) { l.Founder = &id })
		return []store.ID[history.Creature]{id}
	}

	husband := w.spawnCreature(site, &culture, lineage, history.Male, adultAge(), r)
	wife := w.spawnCreature(site, &culture, lineage, history.Female, adultAge(), r)
	w.Lineages.Update(lineage, func(l *history.Lineage) { l.Founder = &husband })
	w.marry(husband, wife)
	members := []store.ID[history.Creature]{husband, wife}

	children := min(r.Range(0, 4), limit-2)
	for range children {
		sex := history.Male
		if r.Chance(0.5) {
			sex = history.Female
		}
		child := w.spawnCreature(site, &culture, lineage, sex, r.Range(0, species.Maturity), r)
		w.linkParents(child, husband, wife)
		members = append(members, child)
	}
	return members
}

// spawnCreature creates a creature of the given age living at site and
// records its birth.
func (w *World) spawnCreature(site store.ID[history.Site], culture *history.Culture, lineage store.ID[history.Lineage], sex history.Sex, age int, r *rng.Rng) store.ID[history.Creature] {
	species := w.res.Species.View(culture.Species)
	cultureID := w.Sites.View(site).Culture
	c := history.Creature{
		Name:    culture.FirstName(sex, r),
		Sex:     sex,
		Species: culture.Species,
		Attributes: history.Attributes{
			Strength:     species.Strength + r.Range(-2, 3),
			Agility:      species.Agility + r.Range(-2, 3),
			Constitution: species.Constitution + r.Range(-2, 3),
			Unallocated:  r.Range(0, 3),
		},
		Lineage: &lineage,
		Culture: cultureID,
		Home:    site,
		Born: history.Date{
			Year:  w.Date.Year - age,
			Month: r.Range(1, history.MonthsPerYear+1),
			Day:   r.Range(1, history.DaysPerMonth+1),
		},
	}
	id := w.Creatures.Add(c)
	w.Sites.Update(site, func(s *history.Site) { s.AddResident(id) })
	w.record(history.WorldEvent{
		Kind:      history.EventBirth,
		Creatures: []store.ID[history.Creature]{id},
		Site:      history.Ptr(site),
	})
	return id
}

// marry links two creatures as spouses. The wife joins the husband's lineage.
func (w *World) marry(husband, wife store.ID[history.Creature]) {
	var lineage *store.ID[history.Lineage]
	w.Creatures.Update(husband, func(c *history.Creature) {
		c.Spouse = history.Ptr(wife)
		rel := c.RelationTo(wife)
		rel.AddTag(history.TagSpouse)
		rel.Opinion += 10
		lineage = c.Lineage
	})
	w.Creatures.Update(wife, func(c *history.Creature) {
		c.Spouse = history.Ptr(husband)
		c.Lineage = lineage
		rel := c.RelationTo(husband)
		rel.AddTag(history.TagSpouse)
		rel.Opinion += 10
	})
}

// linkParents records the family ties between a child and its parents.
func (w *World) linkParents(child, father, mother store.ID[history.Creature]) {
	w.Creatures.Update(child, func(c *history.Creature) {
		c.Parents = []store.ID[history.Creature]{father, mother}
		for _, p := range c.Parents {
			rel := c.RelationTo(p)
			rel.AddTag(history.TagParent)
			rel.Opinion += 30
		}
	})
	for _, p := range []store.ID[history.Creature]{father, mother} {
		w.Creatures.Update(p, func(c *history.Creature) {
			c.Children = append(c.Children, child)
			rel := c.RelationTo(child)
			rel.AddTag(history.TagChild)
			rel.Opinion += 30
		})
	}
}
