// Package agents provides the shopper data model, shopping-list generation,
// and the per-tick move/interact behavior.
package agents

import (
	"github.com/talgya/aisleflow/internal/world"
)

// ShopperID is a unique identifier for a shopper.
type ShopperID uint64

// State is the shopper's position in its trip cycle.
type State uint8

const (
	StateUnplaced          State = iota // Never placed on the grid
	StateShopping                       // Working through a non-empty list
	StateHeadingToCheckout              // List empty, seeking a checkout
)

func (s State) String() string {
	switch s {
	case StateUnplaced:
		return "unplaced"
	case StateShopping:
		return "shopping"
	case StateHeadingToCheckout:
		return "heading_to_checkout"
	default:
		return "unknown"
	}
}

// Shopper is a mobile goal-seeking agent. It is only mutated by its own Step.
type Shopper struct {
	ID     ShopperID   `json:"id"`
	Pos    world.Coord `json:"pos"`
	Placed bool        `json:"placed"`

	// List is consumed front to back; List[0] is the current goal.
	List     []string `json:"shopping_list"`
	Finished bool     `json:"finished"`

	// Lifetime counters.
	Visits int `json:"visits"` // Move attempts while placed (+1 heat each)
	Picks  int `json:"picks"`  // Successful shelf interactions (+5 heat each)
	Trips  int `json:"trips"`  // Completed checkouts
}

// State derives the trip state from position and list.
func (s *Shopper) State() State {
	switch {
	case !s.Placed:
		return StateUnplaced
	case len(s.List) == 0:
		return StateHeadingToCheckout
	default:
		return StateShopping
	}
}

// Goal returns the category the shopper is currently walking toward.
func (s *Shopper) Goal() string {
	if len(s.List) == 0 {
		return world.CheckoutCategory
	}
	return s.List[0]
}

// Snapshot is a read-only copy of a shopper for rendering and the API.
type Snapshot struct {
	ID       ShopperID   `json:"id"`
	Pos      world.Coord `json:"pos"`
	Placed   bool        `json:"placed"`
	State    string      `json:"state"`
	List     []string    `json:"shopping_list"`
	Finished bool        `json:"finished"`
	Trips    int         `json:"trips"`
}

// Snapshot copies the shopper's visible state.
func (s *Shopper) Snapshot() Snapshot {
	return Snapshot{
		ID:       s.ID,
		Pos:      s.Pos,
		Placed:   s.Placed,
		State:    s.State().String(),
		List:     append([]string{}, s.List...),
		Finished: s.Finished,
		Trips:    s.Trips,
	}
}
