package traffic

import (
	"fmt"

	"github.com/talgya/aisleflow/internal/world"
)

// Summary is the traffic report handed to the layout advisor.
type Summary struct {
	MaxCount     int         `json:"max_count"`  // Peak congestion
	MaxAt        world.Coord `json:"max_at"`     // First cell (scan order) holding MaxCount
	DeadSpots    int         `json:"dead_spots"` // Floor cells never visited
	FloorCells   int         `json:"floor_cells"`
	VisitedCells int         `json:"visited_cells"`
	TotalMass    int         `json:"total_mass"`
}

// Summarize computes congestion and dead-zone metrics. Only plain floor cells
// count toward dead spots; entrances and checkouts do not.
func Summarize(g *world.Grid, h *Heatmap) Summary {
	var s Summary
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			c := world.Coord{X: x, Y: y}
			v := h.ValueAt(c)
			if v > s.MaxCount {
				s.MaxCount = v
				s.MaxAt = c
			}
			if v > 0 {
				s.VisitedCells++
			}
			cell, err := g.Classify(c)
			if err != nil || cell.Kind != world.KindFloor {
				continue
			}
			s.FloorCells++
			if v == 0 {
				s.DeadSpots++
			}
		}
	}
	s.TotalMass = h.Total()
	return s
}

// Report renders the summary in the form the layout advisor expects.
func (s Summary) Report() string {
	return fmt.Sprintf("Max Traffic: %d, Unvisited Floor Tiles: %d", s.MaxCount, s.DeadSpots)
}

// DeadRatio returns the fraction of floor cells never visited.
func (s Summary) DeadRatio() float64 {
	if s.FloorCells == 0 {
		return 0
	}
	return float64(s.DeadSpots) / float64(s.FloorCells)
}
