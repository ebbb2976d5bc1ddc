// Simulation ties the store grid, product index, shoppers, and heatmap
// together and advances them one tick at a time.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/talgya/aisleflow/internal/agents"
	"github.com/talgya/aisleflow/internal/traffic"
	"github.com/talgya/aisleflow/internal/world"
)

// maxEvents bounds the recent-event log.
const maxEvents = 1000

// Options configures a simulation run.
type Options struct {
	Shoppers    int
	Seed        int64
	Catalog     world.Catalog
	Policy      agents.ListPolicy
	ExploreRate float64
	Fallback    world.Coord // Spawn cell when the layout has no entrance
}

// DefaultOptions returns the standard run: 50 shoppers over the grocery catalog.
func DefaultOptions() Options {
	return Options{
		Shoppers:    50,
		Seed:        42,
		Catalog:     world.DefaultCatalog(),
		Policy:      agents.DefaultListPolicy(),
		ExploreRate: agents.DefaultExploreRate,
		Fallback:    agents.DefaultFallbackSpawn,
	}
}

// Event is a notable occurrence during a run.
type Event struct {
	Tick      uint64           `json:"tick"`
	ShopperID agents.ShopperID `json:"shopper_id"`
	Category  string           `json:"category"` // "checkout"
	Detail    string           `json:"detail"`
}

// Counters aggregates shopper activity over the run.
type Counters struct {
	Visits int `json:"visits"`
	Picks  int `json:"picks"`
	Trips  int `json:"trips"`
}

// Simulation holds the complete state of one run. It is not safe for
// concurrent use; callers serialise access (see Engine.Do).
type Simulation struct {
	Grid      *world.Grid
	Index     *world.Index
	Heat      *traffic.Heatmap
	Shoppers  []*agents.Shopper
	Scheduler *Scheduler
	Events    []Event
	LastTick  uint64
	Seed      int64

	env *agents.Env
}

// New builds a world from layout rows and spawns the shopper population.
// Layout problems are returned as errors wrapping world.ErrInvalidLayout.
func New(rows []string, opts Options) (*Simulation, error) {
	if opts.Shoppers < 0 {
		return nil, fmt.Errorf("shoppers must be non-negative, got %d", opts.Shoppers)
	}
	if opts.ExploreRate < 0 || opts.ExploreRate > 1 {
		return nil, fmt.Errorf("explore rate must be between 0 and 1, got %f", opts.ExploreRate)
	}
	if opts.Catalog == nil {
		opts.Catalog = world.DefaultCatalog()
	}

	grid, err := world.NewGrid(rows, opts.Catalog)
	if err != nil {
		return nil, fmt.Errorf("build grid: %w", err)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	env := &agents.Env{
		Grid:        grid,
		Index:       world.BuildIndex(grid),
		Heat:        traffic.NewHeatmap(grid.Width(), grid.Height()),
		Rng:         rng,
		Policy:      opts.Policy,
		Spawns:      grid.Entrances(),
		Fallback:    opts.Fallback,
		ExploreRate: opts.ExploreRate,
	}

	shoppers := agents.NewSpawner().SpawnPopulation(opts.Shoppers, env)

	sim := &Simulation{
		Grid:      grid,
		Index:     env.Index,
		Heat:      env.Heat,
		Shoppers:  shoppers,
		Scheduler: NewScheduler(rng, shoppers),
		Seed:      opts.Seed,
		env:       env,
	}

	slog.Debug("simulation constructed",
		"grid", grid.String(),
		"shoppers", len(shoppers),
		"categories", len(env.Index.Categories()),
		"seed", opts.Seed,
	)
	return sim, nil
}

// Tick activates every shopper once in random order.
func (s *Simulation) Tick() {
	s.LastTick++
	tick := s.LastTick
	s.Scheduler.Tick(func(a *agents.Shopper) {
		out := a.Step(s.env)
		if out.CheckedOut {
			s.Events = append(s.Events, Event{
				Tick:      tick,
				ShopperID: a.ID,
				Category:  "checkout",
				Detail:    fmt.Sprintf("shopper %d checked out and respawned at %s", a.ID, a.Pos),
			})
			slog.Debug("shopper checked out", "tick", tick, "shopper", a.ID, "trips", a.Trips)
		}
	})

	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
}

// Run advances the simulation n ticks.
func (s *Simulation) Run(n int) {
	for i := 0; i < n; i++ {
		s.Tick()
	}
}

// CurrentTick returns the number of ticks processed.
func (s *Simulation) CurrentTick() uint64 {
	return s.LastTick
}

// HeatmapSnapshot returns a copy of the heatmap indexed [y][x].
func (s *Simulation) HeatmapSnapshot() [][]int {
	return s.Heat.Snapshot()
}

// AgentPositions returns the positions of placed shoppers in ID order.
func (s *Simulation) AgentPositions() []world.Coord {
	out := make([]world.Coord, 0, len(s.Shoppers))
	for _, a := range s.Shoppers {
		if a.Placed {
			out = append(out, a.Pos)
		}
	}
	return out
}

// Agents returns snapshots of every shopper in ID order.
func (s *Simulation) Agents() []agents.Snapshot {
	out := make([]agents.Snapshot, len(s.Shoppers))
	for i, a := range s.Shoppers {
		out[i] = a.Snapshot()
	}
	return out
}

// Summary computes the current traffic report.
func (s *Simulation) Summary() traffic.Summary {
	return traffic.Summarize(s.Grid, s.Heat)
}

// Counters sums shopper activity.
func (s *Simulation) Counters() Counters {
	var c Counters
	for _, a := range s.Shoppers {
		c.Visits += a.Visits
		c.Picks += a.Picks
		c.Trips += a.Trips
	}
	return c
}

// Layout returns the top-down layout rows the world was built from.
func (s *Simulation) Layout() []string {
	return s.Grid.Rows()
}

// RecentEvents returns up to n of the newest events, oldest first.
func (s *Simulation) RecentEvents(n int) []Event {
	start := 0
	if n >= 0 && len(s.Events) > n {
		start = len(s.Events) - n
	}
	return append([]Event(nil), s.Events[start:]...)
}
