package traffic

import (
	"testing"

	"github.com/talgya/aisleflow/internal/world"
)

func TestHeatmapIncrement(t *testing.T) {
	h := NewHeatmap(4, 3)

	h.Increment(world.Coord{X: 1, Y: 2}, VisitWeight)
	h.Increment(world.Coord{X: 1, Y: 2}, DwellWeight)
	h.Increment(world.Coord{X: 3, Y: 0}, 2)

	// Ignored: non-positive amounts and off-grid coordinates.
	h.Increment(world.Coord{X: 0, Y: 0}, 0)
	h.Increment(world.Coord{X: 0, Y: 0}, -4)
	h.Increment(world.Coord{X: 4, Y: 0}, 1)
	h.Increment(world.Coord{X: 0, Y: -1}, 1)

	tests := []struct {
		at   world.Coord
		want int
	}{
		{world.Coord{X: 1, Y: 2}, 6},
		{world.Coord{X: 3, Y: 0}, 2},
		{world.Coord{X: 0, Y: 0}, 0},
		{world.Coord{X: 9, Y: 9}, 0},
	}
	for _, tt := range tests {
		if got := h.ValueAt(tt.at); got != tt.want {
			t.Errorf("ValueAt(%s) = %d, want %d", tt.at, got, tt.want)
		}
	}
	if h.Total() != 8 {
		t.Errorf("Total = %d, want 8", h.Total())
	}
}

func TestHeatmapSnapshotIsIndexedYX(t *testing.T) {
	h := NewHeatmap(3, 2)
	h.Increment(world.Coord{X: 2, Y: 1}, 4)

	snap := h.Snapshot()
	if len(snap) != 2 || len(snap[0]) != 3 {
		t.Fatalf("snapshot shape = %dx%d, want 2 rows of 3", len(snap), len(snap[0]))
	}
	if snap[1][2] != 4 {
		t.Errorf("snap[1][2] = %d, want 4", snap[1][2])
	}

	snap[1][2] = 100
	if h.ValueAt(world.Coord{X: 2, Y: 1}) != 4 {
		t.Error("Snapshot shares storage with the heatmap")
	}
}

func TestFromSnapshotRoundTrip(t *testing.T) {
	h := NewHeatmap(3, 2)
	h.Increment(world.Coord{X: 0, Y: 0}, 3)
	h.Increment(world.Coord{X: 2, Y: 1}, 7)

	back := FromSnapshot(h.Snapshot())
	if back.Width() != 3 || back.Height() != 2 {
		t.Fatalf("size = %dx%d, want 3x2", back.Width(), back.Height())
	}
	if back.Total() != 10 || back.ValueAt(world.Coord{X: 2, Y: 1}) != 7 {
		t.Errorf("rebuilt heatmap total=%d (2,1)=%d, want 10 and 7", back.Total(), back.ValueAt(world.Coord{X: 2, Y: 1}))
	}
}
