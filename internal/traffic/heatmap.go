// Package traffic accumulates per-cell shopper visits and summarises them
// into congestion and dead-zone metrics.
package traffic

import "github.com/talgya/aisleflow/internal/world"

// Heat weights applied by shoppers.
const (
	VisitWeight = 1 // Every move attempt, including staying in place
	DwellWeight = 5 // Successful pick from a shelf
)

// Heatmap is a width×height grid of non-negative visit counts. Counts never
// decrease during a run.
type Heatmap struct {
	width, height int
	counts        []int // Row-major, index y*width + x
	total         int
}

// NewHeatmap creates an all-zero heatmap.
func NewHeatmap(width, height int) *Heatmap {
	return &Heatmap{
		width:  width,
		height: height,
		counts: make([]int, width*height),
	}
}

// Increment adds amount to the count at c. Non-positive amounts and
// coordinates outside the grid are ignored.
func (h *Heatmap) Increment(c world.Coord, amount int) {
	if amount <= 0 || !h.inBounds(c) {
		return
	}
	h.counts[c.Y*h.width+c.X] += amount
	h.total += amount
}

// ValueAt returns the count at c, 0 for unvisited or out-of-bounds cells.
func (h *Heatmap) ValueAt(c world.Coord) int {
	if !h.inBounds(c) {
		return 0
	}
	return h.counts[c.Y*h.width+c.X]
}

// Total returns the sum of all counts.
func (h *Heatmap) Total() int { return h.total }

// Width returns the number of columns.
func (h *Heatmap) Width() int { return h.width }

// Height returns the number of rows.
func (h *Heatmap) Height() int { return h.height }

// Snapshot copies the counts into rows indexed [y][x], y = 0 first.
func (h *Heatmap) Snapshot() [][]int {
	out := make([][]int, h.height)
	for y := range out {
		out[y] = append([]int(nil), h.counts[y*h.width:(y+1)*h.width]...)
	}
	return out
}

// FromSnapshot rebuilds a heatmap from [y][x] rows, such as a stored run's.
// Short rows are zero-padded to the widest row; negative counts are dropped.
func FromSnapshot(rows [][]int) *Heatmap {
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	h := NewHeatmap(width, len(rows))
	for y, row := range rows {
		for x, v := range row {
			h.Increment(world.Coord{X: x, Y: y}, v)
		}
	}
	return h
}

func (h *Heatmap) inBounds(c world.Coord) bool {
	return c.X >= 0 && c.X < h.width && c.Y >= 0 && c.Y < h.height
}
