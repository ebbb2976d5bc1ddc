// Shopper behavior: greedy goal seeking with stochastic exploration.
// Every tick a shopper moves one cell, then tries to pick its current goal.
package agents

import (
	"math/rand"
	"slices"

	"github.com/talgya/aisleflow/internal/traffic"
	"github.com/talgya/aisleflow/internal/world"
)

// DefaultExploreRate is the chance a shopper ignores the greedy move.
const DefaultExploreRate = 0.1

// Env is the shared, read-mostly context a shopper steps against. Grid and
// Index are never mutated; Heat and Rng are mutated only by the stepping shopper.
type Env struct {
	Grid   *world.Grid
	Index  *world.Index
	Heat   *traffic.Heatmap
	Rng    *rand.Rand
	Policy ListPolicy

	Spawns      []world.Coord // Entrance coordinates; may be empty
	Fallback    world.Coord   // Used when Spawns is empty
	ExploreRate float64
}

// Outcome reports what a shopper accomplished during one step.
type Outcome struct {
	Picked     string // Category popped from the list, if any
	CheckedOut bool   // Trip completed and shopper respawned
}

// Step runs Move then Interact.
func (s *Shopper) Step(env *Env) Outcome {
	s.Move(env)
	return s.Interact(env)
}

// Move records a visit at the current cell, then steps to a neighbouring
// passable cell. With probability 1-ExploreRate the candidate closest to the
// goal wins; otherwise a random candidate is taken. A shopper with no passable
// neighbour stays put.
func (s *Shopper) Move(env *Env) {
	if !s.Placed {
		return
	}

	env.Heat.Increment(s.Pos, traffic.VisitWeight)
	s.Visits++

	target, hasTarget := env.Index.Nearest(s.Goal(), s.Pos)

	candidates := ValidMoves(env.Grid, s.Pos)
	if len(candidates) == 0 {
		return
	}

	var next world.Coord
	if hasTarget {
		slices.SortStableFunc(candidates, func(a, b world.Coord) int {
			return world.Manhattan(a, target) - world.Manhattan(b, target)
		})
		if env.Rng.Float64() < env.ExploreRate {
			next = candidates[env.Rng.Intn(len(candidates))]
		} else {
			next = candidates[0]
		}
	} else {
		// Goal not stocked anywhere: wander.
		next = candidates[env.Rng.Intn(len(candidates))]
	}

	s.Pos = next
}

// ValidMoves returns the passable Moore neighbours of c in fixed offset order.
func ValidMoves(g *world.Grid, c world.Coord) []world.Coord {
	neighbors := g.Neighbors8(c)
	out := neighbors[:0]
	for _, n := range neighbors {
		if g.Passable(n) {
			out = append(out, n)
		}
	}
	return out
}

// Interact picks the current goal if a matching shelf is adjacent, or
// completes the trip if the list is empty and a checkout is adjacent or
// underfoot. At most one of the two happens per step.
func (s *Shopper) Interact(env *Env) Outcome {
	if !s.Placed {
		return Outcome{}
	}

	if len(s.List) > 0 {
		goal := s.List[0]
		if env.Grid.NeighborIs(s.Pos, world.KindShelf, goal) {
			s.List = s.List[1:]
			s.Picks++
			env.Heat.Increment(s.Pos, traffic.DwellWeight)
			return Outcome{Picked: goal}
		}
		return Outcome{}
	}

	if env.Grid.AdjacentTo(s.Pos, world.KindCheckout, "") {
		s.Finished = true
		s.Trips++
		s.Respawn(env)
		return Outcome{CheckedOut: true}
	}
	return Outcome{}
}

// Respawn gives the shopper a fresh list and moves it to a random entrance.
// With no entrances it goes to the fallback cell if that cell is passable;
// otherwise it stays where it is.
func (s *Shopper) Respawn(env *Env) {
	s.List = env.Policy.Generate(env.Rng)
	s.Finished = false
	if pos, ok := env.spawnPoint(); ok {
		s.Pos = pos
		s.Placed = true
	}
}

// spawnPoint picks a uniformly random entrance, or the fallback when the
// spawn set is empty. ok is false if the fallback is unusable.
func (env *Env) spawnPoint() (world.Coord, bool) {
	if len(env.Spawns) > 0 {
		return env.Spawns[env.Rng.Intn(len(env.Spawns))], true
	}
	if env.Grid.Passable(env.Fallback) {
		return env.Fallback, true
	}
	return world.Coord{}, false
}
