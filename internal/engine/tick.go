// Package engine provides the store simulation and the paced tick loop that drives it.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Defaults for a dashboard-driven run.
const (
	DefaultBudget      = 400 // Ticks per run
	DefaultReportEvery = 25  // Dashboard refresh cadence
)

// Engine drives ticks at a configurable pace. All callbacks run while the
// engine lock is held, so Do can be used to read or swap state between ticks.
type Engine struct {
	mu sync.Mutex

	tick        uint64        // Ticks completed in the current run
	Budget      uint64        // Stop after this many ticks (0 = unlimited)
	Speed       float64       // Multiplier: 1.0 = one tick per Interval, 0 = paused
	Interval    time.Duration // Base tick interval (0 = as fast as possible)
	ReportEvery uint64        // OnReport cadence in ticks (0 = never)

	// ExitOnComplete makes Run return once the budget is spent instead of
	// idling until Reset or cancellation.
	ExitOnComplete bool

	OnTick     func(tick uint64) // Every tick
	OnReport   func(tick uint64) // Every ReportEvery ticks
	OnComplete func(tick uint64) // Once, when the budget is reached

	completed bool
}

// NewEngine creates an engine with the default run budget and cadence.
func NewEngine() *Engine {
	return &Engine{
		Budget:      DefaultBudget,
		Speed:       1.0,
		Interval:    100 * time.Millisecond,
		ReportEvery: DefaultReportEvery,
	}
}

// Status is a point-in-time view of the engine.
type Status struct {
	Tick      uint64  `json:"tick"`
	Budget    uint64  `json:"budget"`
	Speed     float64 `json:"speed"`
	Completed bool    `json:"completed"`
	Progress  float64 `json:"progress"` // 0 to 1, 0 when unbudgeted
}

// Run loops until ctx is cancelled (or, with ExitOnComplete, until the
// budget is spent).
func (e *Engine) Run(ctx context.Context) {
	st := e.Status()
	slog.Info("simulation engine started", "budget", st.Budget, "speed", st.Speed, "interval", e.Interval)
	defer func() {
		slog.Info("simulation engine stopped", "tick", e.Status().Tick)
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		e.mu.Lock()
		idle := e.Speed <= 0 || e.completed
		if idle && e.completed && e.ExitOnComplete {
			e.mu.Unlock()
			return
		}
		var target time.Duration
		if !idle {
			e.step()
			target = time.Duration(float64(e.Interval) / e.Speed)
		}
		e.mu.Unlock()

		if idle {
			// Paused or finished. Check again shortly.
			target = 100 * time.Millisecond
		}
		if target <= 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(target):
		}
	}
}

// step advances one tick. Caller holds e.mu.
func (e *Engine) step() {
	e.tick++

	if e.OnTick != nil {
		e.OnTick(e.tick)
	}

	if e.ReportEvery > 0 && e.tick%e.ReportEvery == 0 && e.OnReport != nil {
		e.OnReport(e.tick)
	}

	if e.Budget > 0 && e.tick >= e.Budget {
		e.completed = true
		if e.OnComplete != nil {
			e.OnComplete(e.tick)
		}
	}
}

// Do runs fn between ticks with the engine lock held.
func (e *Engine) Do(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn()
}

// Reset starts a new run from tick zero.
func (e *Engine) Reset() {
	e.ResetWith(nil)
}

// ResetWith runs fn and starts a new run under one lock hold, so no tick
// lands between swapping state and rewinding the counter.
func (e *Engine) ResetWith(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fn != nil {
		fn()
	}
	e.tick = 0
	e.completed = false
}

// SetSpeed changes the pace; 0 pauses.
func (e *Engine) SetSpeed(speed float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Speed = speed
}

// Status returns the current tick, speed, and progress.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statusLocked()
}

func (e *Engine) statusLocked() Status {
	st := Status{
		Tick:      e.tick,
		Budget:    e.Budget,
		Speed:     e.Speed,
		Completed: e.completed,
	}
	if e.Budget > 0 {
		st.Progress = float64(e.tick) / float64(e.Budget)
	}
	return st
}
