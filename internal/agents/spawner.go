// Shopper spawning: creates the initial population at the store entrances.
package agents

import "github.com/talgya/aisleflow/internal/world"

// DefaultFallbackSpawn is used when a layout has no entrance. If it is an
// obstacle or off the grid, the shopper is left unplaced (or where it stands
// on respawn) rather than put on a blocked cell.
var DefaultFallbackSpawn = world.Coord{X: 1, Y: 1}

// Spawner creates shoppers with sequential IDs.
type Spawner struct {
	nextID ShopperID
}

// NewSpawner creates a spawner whose first shopper gets ID 0.
func NewSpawner() *Spawner {
	return &Spawner{}
}

// SetNextID sets the next shopper ID to be issued.
func (sp *Spawner) SetNextID(id ShopperID) {
	sp.nextID = id
}

// SpawnPopulation creates count shoppers, each with a generated list and
// placed on a random spawn point. Shoppers with no usable spawn point stay
// unplaced.
func (sp *Spawner) SpawnPopulation(count int, env *Env) []*Shopper {
	shoppers := make([]*Shopper, 0, count)
	for i := 0; i < count; i++ {
		shoppers = append(shoppers, sp.spawnOne(env))
	}
	return shoppers
}

func (sp *Spawner) spawnOne(env *Env) *Shopper {
	s := &Shopper{
		ID:   sp.nextID,
		List: env.Policy.Generate(env.Rng),
	}
	sp.nextID++

	if pos, ok := env.spawnPoint(); ok {
		s.Pos = pos
		s.Placed = true
	}
	return s
}
