// Initial layout generation using a deterministic striping heuristic.
// The "noise" style swaps the stripe pattern for layered simplex noise so
// neighbouring aisle cells tend to share a product.
package world

import (
	"fmt"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Layout styles understood by GenerateLayout.
const (
	StyleStriped = "striped"
	StyleNoise   = "noise"
)

// MinLayoutSize is the smallest width/height GenerateLayout accepts.
const MinLayoutSize = 12

// GenConfig holds layout generation parameters.
type GenConfig struct {
	Width  int
	Height int
	Style  string // StyleStriped or StyleNoise
	Seed   int64  // Noise style only (0 = random)
}

// DefaultGenConfig returns the canonical 48×48 striped store.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:  48,
		Height: 48,
		Style:  StyleStriped,
	}
}

// GenerateLayout builds a store layout as top-down rows of cell codes.
func GenerateLayout(cfg GenConfig) ([]string, error) {
	w, h := cfg.Width, cfg.Height
	if w < MinLayoutSize || h < MinLayoutSize {
		return nil, fmt.Errorf("%w: %dx%d is below the %dx%d minimum", ErrInvalidLayout, w, h, MinLayoutSize, MinLayoutSize)
	}

	var pick func(x, y int) byte
	switch cfg.Style {
	case "", StyleStriped:
		pick = func(x, y int) byte {
			return VarietyCodes[(x+y)%len(VarietyCodes)]
		}
	case StyleNoise:
		seed := cfg.Seed
		if seed == 0 {
			seed = rand.Int63()
		}
		noise := opensimplex.NewNormalized(seed)
		pick = func(x, y int) byte {
			v := octaveNoise(noise, float64(x), float64(y), 3, 0.09, 0.5)
			i := int(v * float64(len(VarietyCodes)))
			if i < 0 {
				i = 0
			}
			if i >= len(VarietyCodes) {
				i = len(VarietyCodes) - 1
			}
			return VarietyCodes[i]
		}
	default:
		return nil, fmt.Errorf("unknown layout style %q", cfg.Style)
	}

	grid := make([][]byte, h)
	for y := range grid {
		grid[y] = make([]byte, w)
		for x := range grid[y] {
			if x == 0 || x == w-1 || y == 0 || y == h-1 {
				grid[y][x] = CodeWall
			} else {
				grid[y][x] = CodeFloor
			}
		}
	}

	// Perimeter anchors: meat along the back wall, frozen down the left side.
	for x := 2; x < w-2; x++ {
		grid[h-2][x] = 'M'
	}
	for y := 5; y < h-5; y++ {
		grid[y][2] = 'Z'
	}

	// Center aisles, two shelves wide, broken in the middle for cross-traffic.
	mid := h / 2
	for x := 8; x < w-8; x += 5 {
		for y := 8; y < h-8; y++ {
			if y == mid || y == mid-1 {
				continue
			}
			code := pick(x, y)
			grid[y][x] = code
			grid[y][x+1] = code
		}
	}

	grid[1][w/2] = CodeEntrance
	grid[4][5] = CodeCheckout

	rows := make([]string, h)
	for y, row := range grid {
		rows[y] = string(row)
	}
	return rows, nil
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
