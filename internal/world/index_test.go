package world

import (
	"slices"
	"testing"
)

func TestNearestTieBreaksInScanOrder(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		from Coord
		want Coord
	}{
		{
			// (1,3) and (3,3) are both 3 away; lower x wins on the same row.
			name: "same row",
			rows: []string{
				"#####",
				"#m.m#",
				"#...#",
				"#...#",
				"#####",
			},
			from: Coord{2, 1},
			want: Coord{1, 3},
		},
		{
			// (3,1) and (1,3) are both 2 away; lower y wins before x.
			name: "lower row first",
			rows: []string{
				"#####",
				"#m..#",
				"#...#",
				"#..m#",
				"#####",
			},
			from: Coord{2, 2},
			want: Coord{3, 1},
		},
		{
			name: "strictly closer wins",
			rows: []string{
				"#####",
				"#m..#",
				"#...#",
				"#..m#",
				"#####",
			},
			from: Coord{1, 2},
			want: Coord{1, 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := BuildIndex(mustGrid(t, tt.rows))
			got, ok := idx.Nearest("Milk", tt.from)
			if !ok {
				t.Fatal("Nearest found nothing")
			}
			if got != tt.want {
				t.Errorf("Nearest from %s = %s, want %s", tt.from, got, tt.want)
			}
		})
	}
}

func TestNearestMissingCategory(t *testing.T) {
	idx := BuildIndex(mustGrid(t, milkStore))
	if _, ok := idx.Nearest("Caviar", Coord{1, 1}); ok {
		t.Error("Nearest found a category that is not stocked")
	}
	if locs := idx.LocationsOf("Caviar"); len(locs) != 0 {
		t.Errorf("LocationsOf unknown = %v, want empty", locs)
	}
}

func TestIndexCoversShelvesAndCheckouts(t *testing.T) {
	idx := BuildIndex(mustGrid(t, milkStore))

	if got := idx.LocationsOf("Milk"); !slices.Equal(got, []Coord{{2, 2}}) {
		t.Errorf("Milk locations = %v", got)
	}
	if got := idx.LocationsOf(CheckoutCategory); !slices.Equal(got, []Coord{{3, 3}}) {
		t.Errorf("Checkout locations = %v", got)
	}
	if got, want := idx.Categories(), []string{CheckoutCategory, "Milk"}; !slices.Equal(got, want) {
		t.Errorf("Categories = %v, want %v", got, want)
	}
}
