package world

import "sort"

// Index maps a product category to every coordinate where it is shelved.
// Checkout cells are indexed under CheckoutCategory so agents can target them
// the same way as products. Read-only after BuildIndex.
type Index struct {
	locations map[string][]Coord
}

// BuildIndex collects shelf and checkout coordinates from the grid in scan
// order (y ascending, then x ascending).
func BuildIndex(g *Grid) *Index {
	idx := &Index{locations: make(map[string][]Coord)}
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			c := Coord{X: x, Y: y}
			cell := g.cell(c)
			switch cell.Kind {
			case KindShelf:
				idx.locations[cell.Category] = append(idx.locations[cell.Category], c)
			case KindCheckout:
				idx.locations[CheckoutCategory] = append(idx.locations[CheckoutCategory], c)
			}
		}
	}
	return idx
}

// LocationsOf returns a copy of the coordinates for category. An unknown
// category yields an empty slice.
func (idx *Index) LocationsOf(category string) []Coord {
	return append([]Coord(nil), idx.locations[category]...)
}

// Nearest returns the location of category closest to from by Manhattan
// distance. Ties go to the location found first in scan order.
func (idx *Index) Nearest(category string, from Coord) (Coord, bool) {
	locs := idx.locations[category]
	if len(locs) == 0 {
		return Coord{}, false
	}

	best := locs[0]
	bestDist := Manhattan(best, from)
	for _, loc := range locs[1:] {
		if d := Manhattan(loc, from); d < bestDist {
			best, bestDist = loc, d
		}
	}
	return best, true
}

// Categories returns every indexed category, sorted.
func (idx *Index) Categories() []string {
	out := make([]string, 0, len(idx.locations))
	for cat := range idx.locations {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}
