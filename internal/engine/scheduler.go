package engine

import (
	"math/rand"

	"github.com/talgya/aisleflow/internal/agents"
)

// Scheduler activates every shopper exactly once per tick in a fresh random
// order drawn from the run's random source.
type Scheduler struct {
	rng      *rand.Rand
	shoppers []*agents.Shopper
	order    []*agents.Shopper
}

// NewScheduler creates a random-activation scheduler over shoppers.
func NewScheduler(rng *rand.Rand, shoppers []*agents.Shopper) *Scheduler {
	return &Scheduler{
		rng:      rng,
		shoppers: shoppers,
		order:    make([]*agents.Shopper, len(shoppers)),
	}
}

// Tick shuffles the population and calls activate on each shopper in turn.
// Each call completes before the next begins.
func (sc *Scheduler) Tick(activate func(*agents.Shopper)) {
	copy(sc.order, sc.shoppers)
	sc.rng.Shuffle(len(sc.order), func(i, j int) {
		sc.order[i], sc.order[j] = sc.order[j], sc.order[i]
	})
	for _, s := range sc.order {
		activate(s)
	}
}

// Len returns the population size.
func (sc *Scheduler) Len() int { return len(sc.shoppers) }
