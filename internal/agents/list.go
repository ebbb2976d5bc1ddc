package agents

import (
	"math/rand"
)

// CategoryOdds is the chance a category lands on a freshly generated list.
type CategoryOdds struct {
	Category string  `json:"category" yaml:"category"`
	Chance   float64 `json:"chance" yaml:"chance"`
}

// ListPolicy controls shopping-list generation. Odds are evaluated in slice
// order so seeded runs draw random numbers identically.
type ListPolicy struct {
	Odds         []CategoryOdds `json:"odds" yaml:"odds"`
	Variety      []string       `json:"variety" yaml:"variety"`
	VarietyPicks int            `json:"variety_picks" yaml:"variety_picks"`
}

// DefaultListPolicy returns the grocery defaults: essentials are common,
// plus three center-store picks to pull shoppers into the aisles.
func DefaultListPolicy() ListPolicy {
	return ListPolicy{
		Odds: []CategoryOdds{
			{"Meat", 0.8},
			{"Dairy", 0.8},
			{"Produce", 0.8},
			{"Bakery", 0.6},
			{"Frozen", 0.5},
			{"Cereal", 0.4},
			{"Soda", 0.4},
			{"Chips", 0.4},
			{"Pasta", 0.3},
			{"Household", 0.1},
			{"Juice", 0.3},
			{"Water", 0.2},
			{"Baby", 0.1},
		},
		Variety: []string{
			"Cereal", "Juice", "Soda", "Pasta", "Sauce", "Chips", "Cookies",
			"Oil/Condiments", "Water", "Household", "Pet Food", "Baby",
			"Tea/Coffee", "Canned Veg",
		},
		VarietyPicks: 3,
	}
}

// Generate draws a new shuffled shopping list: one Bernoulli draw per odds
// entry, then VarietyPicks uniform picks (with replacement) from Variety.
func (p ListPolicy) Generate(rng *rand.Rand) []string {
	list := make([]string, 0, len(p.Odds)+p.VarietyPicks)

	for _, o := range p.Odds {
		if rng.Float64() < o.Chance {
			list = append(list, o.Category)
		}
	}

	if len(p.Variety) > 0 {
		for i := 0; i < p.VarietyPicks; i++ {
			list = append(list, p.Variety[rng.Intn(len(p.Variety))])
		}
	}

	rng.Shuffle(len(list), func(i, j int) {
		list[i], list[j] = list[j], list[i]
	})
	return list
}
