// Package world provides the store floor grid, cell classification, and the
// product index built from a layout.
//
// Layouts are read bottom-up: the last layout string is row y = 0, and x is the
// column index within a string.
package world

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLayout is returned for empty, ragged, or unrecognised layouts.
	ErrInvalidLayout = errors.New("invalid layout")
	// ErrOutOfBounds is returned when a coordinate lies outside the grid.
	ErrOutOfBounds = errors.New("coordinate out of bounds")
)

// LayoutError pinpoints the layout position that failed to parse.
type LayoutError struct {
	Row    int // Index into the layout strings (top-down)
	Col    int
	Reason string
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("layout row %d col %d: %s", e.Row, e.Col, e.Reason)
}

func (e *LayoutError) Unwrap() error { return ErrInvalidLayout }

// Coord is a grid position. 0 <= X < width, 0 <= Y < height.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Manhattan returns |dx| + |dy| between two coordinates.
func Manhattan(a, b Coord) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// CellKind classifies a grid cell.
type CellKind uint8

const (
	KindFloor CellKind = iota
	KindWall
	KindEntrance
	KindCheckout
	KindShelf
)

func (k CellKind) String() string {
	switch k {
	case KindFloor:
		return "Floor"
	case KindWall:
		return "Wall"
	case KindEntrance:
		return "Entrance"
	case KindCheckout:
		return "Checkout"
	case KindShelf:
		return "Shelf"
	default:
		return "Unknown"
	}
}

// Cell is the immutable classification of one coordinate.
type Cell struct {
	Kind     CellKind `json:"kind"`
	Category string   `json:"category,omitempty"` // Shelf category, empty otherwise
}

// IsObstacle reports whether agents are blocked by this cell.
func (c Cell) IsObstacle() bool {
	return c.Kind == KindWall || c.Kind == KindShelf
}

// neighborOffsets is the Moore neighborhood, center excluded. The order is
// fixed so that candidate lists (and therefore seeded runs) are reproducible.
var neighborOffsets = [8]Coord{
	{X: -1, Y: -1}, {X: -1, Y: 0}, {X: -1, Y: 1},
	{X: 0, Y: -1}, {X: 0, Y: 1},
	{X: 1, Y: -1}, {X: 1, Y: 0}, {X: 1, Y: 1},
}

// Grid is the classified store floor. It is never mutated after NewGrid.
type Grid struct {
	width, height int
	cells         []Cell // Row-major, index y*width + x
	rows          []string
	entrances     []Coord
	checkouts     []Coord
	catalog       Catalog
}

// NewGrid classifies a rectangular layout using the given catalog.
// Every row must have the same length and every code must be in the catalog.
func NewGrid(rows []string, catalog Catalog) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty layout", ErrInvalidLayout)
	}

	height := len(rows)
	width := len(rows[0])
	g := &Grid{
		width:   width,
		height:  height,
		cells:   make([]Cell, width*height),
		rows:    append([]string(nil), rows...),
		catalog: catalog,
	}

	// Scan bottom-up so coordinate order matches y ascending.
	for y := 0; y < height; y++ {
		rowIdx := height - 1 - y
		row := rows[rowIdx]
		if len(row) != width {
			return nil, &LayoutError{Row: rowIdx, Col: len(row), Reason: fmt.Sprintf("width %d, want %d", len(row), width)}
		}
		for x := 0; x < width; x++ {
			spec, ok := catalog[row[x]]
			if !ok {
				return nil, &LayoutError{Row: rowIdx, Col: x, Reason: fmt.Sprintf("unknown cell code %q", row[x])}
			}
			c := Coord{X: x, Y: y}
			g.cells[y*width+x] = Cell{Kind: spec.Kind, Category: spec.Category}
			switch spec.Kind {
			case KindEntrance:
				g.entrances = append(g.entrances, c)
			case KindCheckout:
				g.checkouts = append(g.checkouts, c)
			}
		}
	}

	return g, nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Rows returns a copy of the layout in its original top-down order.
func (g *Grid) Rows() []string {
	return append([]string(nil), g.rows...)
}

// Catalog returns the code table the grid was built with.
func (g *Grid) Catalog() Catalog { return g.catalog }

// InBounds reports whether c lies within the grid.
func (g *Grid) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < g.width && c.Y >= 0 && c.Y < g.height
}

// Classify returns the cell at c, or ErrOutOfBounds.
func (g *Grid) Classify(c Coord) (Cell, error) {
	if !g.InBounds(c) {
		return Cell{}, fmt.Errorf("classify %s: %w", c, ErrOutOfBounds)
	}
	return g.cells[c.Y*g.width+c.X], nil
}

// cell is Classify without the bounds error, for coordinates already checked.
func (g *Grid) cell(c Coord) Cell {
	return g.cells[c.Y*g.width+c.X]
}

// IsObstacle reports whether c is a wall or shelf. Coordinates outside the
// grid are treated as obstacles.
func (g *Grid) IsObstacle(c Coord) bool {
	if !g.InBounds(c) {
		return true
	}
	return g.cell(c).IsObstacle()
}

// Passable is the inverse of IsObstacle.
func (g *Grid) Passable(c Coord) bool {
	return !g.IsObstacle(c)
}

// Neighbors8 returns the in-bounds Moore neighbors of c, excluding c itself.
func (g *Grid) Neighbors8(c Coord) []Coord {
	out := make([]Coord, 0, 8)
	for _, d := range neighborOffsets {
		n := Coord{X: c.X + d.X, Y: c.Y + d.Y}
		if g.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// AdjacentTo reports whether c or one of its neighbors has the given kind
// (and category, for shelves). An empty category matches any shelf.
func (g *Grid) AdjacentTo(c Coord, kind CellKind, category string) bool {
	if g.InBounds(c) && matches(g.cell(c), kind, category) {
		return true
	}
	return g.NeighborIs(c, kind, category)
}

// NeighborIs reports whether one of the Moore neighbors of c (center excluded)
// has the given kind and category.
func (g *Grid) NeighborIs(c Coord, kind CellKind, category string) bool {
	for _, d := range neighborOffsets {
		n := Coord{X: c.X + d.X, Y: c.Y + d.Y}
		if g.InBounds(n) && matches(g.cell(n), kind, category) {
			return true
		}
	}
	return false
}

func matches(cell Cell, kind CellKind, category string) bool {
	if cell.Kind != kind {
		return false
	}
	return category == "" || cell.Category == category
}

// Entrances returns the spawn set in scan order (y ascending, then x).
func (g *Grid) Entrances() []Coord {
	return append([]Coord(nil), g.entrances...)
}

// Checkouts returns every checkout coordinate in scan order.
func (g *Grid) Checkouts() []Coord {
	return append([]Coord(nil), g.checkouts...)
}

// KindCounts returns the number of cells of each kind.
func (g *Grid) KindCounts() map[CellKind]int {
	counts := make(map[CellKind]int)
	for _, c := range g.cells {
		counts[c.Kind]++
	}
	return counts
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d, entrances=%d, checkouts=%d)", g.width, g.height, len(g.entrances), len(g.checkouts))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
