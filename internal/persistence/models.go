package persistence

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/aisleflow/internal/engine"
)

// Run is a completed (or stopped) simulation run.
type Run struct {
	ID          string `db:"id" json:"id"`
	CreatedAt   string `db:"created_at" json:"created_at"` // RFC 3339, UTC
	Seed        int64  `db:"seed" json:"seed"`
	Shoppers    int    `db:"shoppers" json:"shoppers"`
	Ticks       int    `db:"ticks" json:"ticks"`
	Width       int    `db:"width" json:"width"`
	Height      int    `db:"height" json:"height"`
	Layout      string `db:"layout" json:"layout"`
	HeatmapJSON string `db:"heatmap_json" json:"-"`
	MaxCount    int    `db:"max_count" json:"max_count"`
	DeadSpots   int    `db:"dead_spots" json:"dead_spots"`
	Visits      int    `db:"visits" json:"visits"`
	Picks       int    `db:"picks" json:"picks"`
	Trips       int    `db:"trips" json:"trips"`
}

// NewRun captures the current state of a simulation as a run record.
func NewRun(sim *engine.Simulation) (*Run, error) {
	heat, err := json.Marshal(sim.HeatmapSnapshot())
	if err != nil {
		return nil, fmt.Errorf("marshal heatmap: %w", err)
	}
	summary := sim.Summary()
	counters := sim.Counters()
	return &Run{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC().Format(time.RFC3339Nano),
		Seed:        sim.Seed,
		Shoppers:    len(sim.Shoppers),
		Ticks:       int(sim.CurrentTick()),
		Width:       sim.Grid.Width(),
		Height:      sim.Grid.Height(),
		Layout:      strings.Join(sim.Layout(), "\n"),
		HeatmapJSON: string(heat),
		MaxCount:    summary.MaxCount,
		DeadSpots:   summary.DeadSpots,
		Visits:      counters.Visits,
		Picks:       counters.Picks,
		Trips:       counters.Trips,
	}, nil
}

// Rows returns the layout as top-down rows.
func (r *Run) Rows() []string {
	if r.Layout == "" {
		return nil
	}
	return strings.Split(r.Layout, "\n")
}

// Heatmap decodes the stored heatmap, indexed [y][x].
func (r *Run) Heatmap() ([][]int, error) {
	var out [][]int
	if err := json.Unmarshal([]byte(r.HeatmapJSON), &out); err != nil {
		return nil, fmt.Errorf("decode heatmap for run %s: %w", r.ID, err)
	}
	return out, nil
}

// Created parses CreatedAt.
func (r *Run) Created() time.Time {
	t, _ := time.Parse(time.RFC3339Nano, r.CreatedAt)
	return t
}

// Advice is a layout-advisor response recorded against a run.
type Advice struct {
	ID              string `db:"id" json:"id"`
	RunID           string `db:"run_id" json:"run_id"`
	CreatedAt       string `db:"created_at" json:"created_at"`
	SuggestionsJSON string `db:"suggestions_json" json:"-"`
	Layout          string `db:"layout" json:"layout"`
	Changed         int    `db:"changed" json:"changed"` // 1 if the layout differs from the run's
}

// NewAdvice builds an advice record.
func NewAdvice(runID string, suggestions, layout []string, changed bool) (*Advice, error) {
	sj, err := json.Marshal(suggestions)
	if err != nil {
		return nil, fmt.Errorf("marshal suggestions: %w", err)
	}
	a := &Advice{
		ID:              uuid.NewString(),
		RunID:           runID,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339Nano),
		SuggestionsJSON: string(sj),
		Layout:          strings.Join(layout, "\n"),
	}
	if changed {
		a.Changed = 1
	}
	return a, nil
}

// Suggestions decodes the stored suggestion list.
func (a *Advice) Suggestions() ([]string, error) {
	var out []string
	if err := json.Unmarshal([]byte(a.SuggestionsJSON), &out); err != nil {
		return nil, fmt.Errorf("decode suggestions for advice %s: %w", a.ID, err)
	}
	return out, nil
}

// Rows returns the proposed layout as top-down rows.
func (a *Advice) Rows() []string {
	if a.Layout == "" {
		return nil
	}
	return strings.Split(a.Layout, "\n")
}
