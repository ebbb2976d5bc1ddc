package world

import (
	"errors"
	"slices"
	"testing"
)

// milkStore is a 5x5 store: entrance at (1,1), milk shelf at (2,2),
// checkout at (3,3). Rows are top-down, so the last string is y = 0.
var milkStore = []string{
	"#####",
	"#..X#",
	"#.m.#",
	"#E..#",
	"#####",
}

func testCatalog() Catalog {
	c := DefaultCatalog()
	c['m'] = CellSpec{Kind: KindShelf, Category: "Milk"}
	return c
}

func mustGrid(t *testing.T, rows []string) *Grid {
	t.Helper()
	g, err := NewGrid(rows, testCatalog())
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	return g
}

func TestNewGridClassifiesBottomUp(t *testing.T) {
	g := mustGrid(t, milkStore)

	if g.Width() != 5 || g.Height() != 5 {
		t.Fatalf("size = %dx%d, want 5x5", g.Width(), g.Height())
	}

	tests := []struct {
		at       Coord
		kind     CellKind
		category string
	}{
		{Coord{0, 0}, KindWall, ""},
		{Coord{1, 1}, KindEntrance, ""},
		{Coord{2, 1}, KindFloor, ""},
		{Coord{2, 2}, KindShelf, "Milk"},
		{Coord{3, 3}, KindCheckout, ""},
		{Coord{4, 4}, KindWall, ""},
	}
	for _, tt := range tests {
		cell, err := g.Classify(tt.at)
		if err != nil {
			t.Fatalf("Classify(%s): %v", tt.at, err)
		}
		if cell.Kind != tt.kind || cell.Category != tt.category {
			t.Errorf("Classify(%s) = %s/%q, want %s/%q", tt.at, cell.Kind, cell.Category, tt.kind, tt.category)
		}
	}
}

func TestNewGridRejectsBadLayouts(t *testing.T) {
	tests := []struct {
		name      string
		rows      []string
		wantRowed bool // expect a *LayoutError
	}{
		{"nil", nil, false},
		{"empty row", []string{""}, false},
		{"ragged", []string{"###", "#.", "###"}, true},
		{"unknown code", []string{"###", "#?#", "###"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrid(tt.rows, DefaultCatalog())
			if !errors.Is(err, ErrInvalidLayout) {
				t.Fatalf("err = %v, want ErrInvalidLayout", err)
			}
			var le *LayoutError
			if errors.As(err, &le) != tt.wantRowed {
				t.Errorf("errors.As LayoutError = %v, want %v (err=%v)", !tt.wantRowed, tt.wantRowed, err)
			}
		})
	}
}

func TestUnknownCodeErrorPinpointsCell(t *testing.T) {
	_, err := NewGrid([]string{"###", "#?#", "###"}, DefaultCatalog())
	var le *LayoutError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LayoutError, got %v", err)
	}
	if le.Row != 1 || le.Col != 1 {
		t.Errorf("error at row %d col %d, want row 1 col 1", le.Row, le.Col)
	}
}

func TestClassifyOutOfBounds(t *testing.T) {
	g := mustGrid(t, milkStore)
	for _, c := range []Coord{{-1, 0}, {0, -1}, {5, 0}, {0, 5}} {
		if _, err := g.Classify(c); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Classify(%s) err = %v, want ErrOutOfBounds", c, err)
		}
	}
}

func TestObstacles(t *testing.T) {
	g := mustGrid(t, milkStore)

	tests := []struct {
		at       Coord
		obstacle bool
	}{
		{Coord{0, 2}, true},  // wall
		{Coord{2, 2}, true},  // shelf
		{Coord{1, 1}, false}, // entrance
		{Coord{3, 3}, false}, // checkout
		{Coord{1, 2}, false}, // floor
		{Coord{-1, 2}, true}, // off grid
		{Coord{2, 9}, true},  // off grid
	}
	for _, tt := range tests {
		if got := g.IsObstacle(tt.at); got != tt.obstacle {
			t.Errorf("IsObstacle(%s) = %v, want %v", tt.at, got, tt.obstacle)
		}
		if got := g.Passable(tt.at); got == tt.obstacle {
			t.Errorf("Passable(%s) = %v, want %v", tt.at, got, !tt.obstacle)
		}
	}
}

func TestNeighbors8FixedOrder(t *testing.T) {
	g := mustGrid(t, milkStore)

	got := g.Neighbors8(Coord{0, 0})
	want := []Coord{{0, 1}, {1, 0}, {1, 1}}
	if !slices.Equal(got, want) {
		t.Errorf("corner neighbors = %v, want %v", got, want)
	}

	got = g.Neighbors8(Coord{2, 2})
	want = []Coord{{1, 1}, {1, 2}, {1, 3}, {2, 1}, {2, 3}, {3, 1}, {3, 2}, {3, 3}}
	if !slices.Equal(got, want) {
		t.Errorf("center neighbors = %v, want %v", got, want)
	}
}

func TestAdjacency(t *testing.T) {
	g := mustGrid(t, milkStore)

	tests := []struct {
		name     string
		at       Coord
		kind     CellKind
		category string
		adjacent bool // AdjacentTo, center included
		neighbor bool // NeighborIs, center excluded
	}{
		{"on checkout", Coord{3, 3}, KindCheckout, "", true, false},
		{"beside checkout", Coord{2, 3}, KindCheckout, "", true, true},
		{"diagonal to checkout", Coord{2, 2}, KindCheckout, "", true, true},
		{"far from checkout", Coord{1, 1}, KindCheckout, "", false, false},
		{"diagonal to milk", Coord{1, 1}, KindShelf, "Milk", true, true},
		{"wrong category", Coord{1, 1}, KindShelf, "Meat", false, false},
		{"any shelf", Coord{3, 1}, KindShelf, "", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.AdjacentTo(tt.at, tt.kind, tt.category); got != tt.adjacent {
				t.Errorf("AdjacentTo = %v, want %v", got, tt.adjacent)
			}
			if got := g.NeighborIs(tt.at, tt.kind, tt.category); got != tt.neighbor {
				t.Errorf("NeighborIs = %v, want %v", got, tt.neighbor)
			}
		})
	}
}

func TestSpawnAndCheckoutSets(t *testing.T) {
	g := mustGrid(t, []string{
		"#####",
		"#E.X#",
		"#...#",
		"#X.E#",
		"#####",
	})

	if got, want := g.Entrances(), []Coord{{3, 1}, {1, 3}}; !slices.Equal(got, want) {
		t.Errorf("Entrances = %v, want %v", got, want)
	}
	if got, want := g.Checkouts(), []Coord{{1, 1}, {3, 3}}; !slices.Equal(got, want) {
		t.Errorf("Checkouts = %v, want %v", got, want)
	}

	counts := g.KindCounts()
	if counts[KindWall] != 16 || counts[KindFloor] != 5 {
		t.Errorf("KindCounts walls=%d floor=%d, want 16 and 5", counts[KindWall], counts[KindFloor])
	}
}

func TestRowsIsACopy(t *testing.T) {
	g := mustGrid(t, milkStore)
	rows := g.Rows()
	rows[0] = "mutated"
	if g.Rows()[0] != "#####" {
		t.Error("Rows exposed internal state")
	}
}

func TestManhattan(t *testing.T) {
	if d := Manhattan(Coord{1, 1}, Coord{3, 4}); d != 5 {
		t.Errorf("Manhattan = %d, want 5", d)
	}
	if d := Manhattan(Coord{3, 4}, Coord{1, 1}); d != 5 {
		t.Errorf("Manhattan reversed = %d, want 5", d)
	}
}
