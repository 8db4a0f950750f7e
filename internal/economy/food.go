// Package economy provides the settlement food economy: yields, consumption,
// stock and housing. All functions are pure; the engine applies the results.
package economy

import "math"

const (
	// FoodPerAdult is the yearly consumption of one adult.
	FoodPerAdult = 1.0
	// FoodPerChild is the yearly consumption of one child.
	FoodPerChild = 0.5
	// Spoilage is the fraction of stock lost each year.
	Spoilage = 0.2
	// StockYears caps the stock at this many years of consumption.
	StockYears = 3.0

	// HouseCapacity is how many creatures one house shelters.
	HouseCapacity = 6
	// HouseCost is the food spent building one house.
	HouseCost = 2.0

	// BaseFoodPrice is the price of one unit of food in balanced supply.
	BaseFoodPrice = 2.0
)

// Yield returns one worker's yearly food output.
func Yield(professionFood, fertility float64, level int) float64 {
	if professionFood <= 0 {
		return 0
	}
	skill := 1 + 0.05*float64(max(0, level-1))
	return professionFood * (0.5 + fertility) * skill
}

// Demand returns the yearly food need of a population.
func Demand(adults, children int) float64 {
	return float64(adults)*FoodPerAdult + float64(children)*FoodPerChild
}

// Harvest is the outcome of one settlement year.
type Harvest struct {
	Produced  float64 `json:"produced"`
	Consumed  float64 `json:"consumed"`
	Spoiled   float64 `json:"spoiled"`
	Stock     float64 `json:"stock"`     // carried into next year
	Shortfall float64 `json:"shortfall"` // unmet demand
}

// Starving reports whether demand went unmet.
func (h Harvest) Starving() bool { return h.Shortfall > 0 }

// Hunger returns unmet demand as a fraction of demand, in [0, 1].
func (h Harvest) Hunger() float64 {
	need := h.Consumed + h.Shortfall
	if need <= 0 {
		return 0
	}
	return h.Shortfall / need
}

// Balance settles one year: spoil the old stock, add production, feed the
// population and cap what is left.
func Balance(stock, produced, demand float64) Harvest {
	h := Harvest{Produced: produced}
	h.Spoiled = stock * Spoilage
	available := stock - h.Spoiled + produced
	if available >= demand {
		h.Consumed = demand
		h.Stock = math.Min(available-demand, demand*StockYears)
	} else {
		h.Consumed = available
		h.Shortfall = demand - available
	}
	return h
}

// HousesNeeded returns how many houses must be added so that population
// creatures fit into houses plus the new ones.
func HousesNeeded(population, houses int) int {
	need := (population + HouseCapacity - 1) / HouseCapacity
	return max(0, need-houses)
}

// Affordable returns how many of want houses the stock can pay for.
func Affordable(stock float64, want int) int {
	return min(want, int(stock/HouseCost))
}

// FoodPrice calculates price from supply and demand pressure, bounded by a
// floor and a ceiling around BaseFoodPrice.
func FoodPrice(supply, demand float64) float64 {
	if supply < 0.25 {
		supply = 0.25 // prevent division by zero
	}
	price := BaseFoodPrice * demand / supply

	floor := BaseFoodPrice * 0.25
	ceiling := BaseFoodPrice * 8
	if price < floor {
		price = floor
	}
	if price > ceiling {
		price = ceiling
	}
	return price
}

// Prosperous reports whether a settlement can take in newcomers: the stock
// covers a full year of demand and food is not dear.
func Prosperous(stock, demand float64) bool {
	return demand > 0 && stock >= demand && FoodPrice(stock, demand) <= BaseFoodPrice
}
