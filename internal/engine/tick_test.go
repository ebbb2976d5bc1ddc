package engine

import (
	"context"
	"testing"
	"time"
)

func TestEngineRunsToBudget(t *testing.T) {
	eng := NewEngine()
	eng.Interval = 0
	eng.Budget = 10
	eng.ReportEvery = 4
	eng.ExitOnComplete = true

	var ticks, reports, completes int
	eng.OnTick = func(uint64) { ticks++ }
	eng.OnReport = func(uint64) { reports++ }
	eng.OnComplete = func(tick uint64) {
		completes++
		if tick != 10 {
			t.Errorf("OnComplete tick = %d, want 10", tick)
		}
	}

	done := make(chan struct{})
	go func() {
		eng.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not exit after its budget")
	}

	if ticks != 10 || reports != 2 || completes != 1 {
		t.Errorf("ticks=%d reports=%d completes=%d, want 10/2/1", ticks, reports, completes)
	}
	st := eng.Status()
	if !st.Completed || st.Progress != 1 || st.Tick != 10 {
		t.Errorf("status = %+v, want completed at tick 10", st)
	}

	eng.Reset()
	if st := eng.Status(); st.Tick != 0 || st.Completed {
		t.Errorf("after Reset status = %+v", st)
	}
}

func TestEngineStopsOnCancel(t *testing.T) {
	eng := NewEngine()
	eng.Interval = 0
	eng.Budget = 0

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eng.OnTick = func(tick uint64) {
		if tick == 3 {
			cancel()
		}
	}

	eng.Run(ctx)
	if got := eng.Status().Tick; got != 3 {
		t.Errorf("stopped at tick %d, want 3", got)
	}
}

func TestEnginePaused(t *testing.T) {
	eng := NewEngine()
	eng.SetSpeed(0)
	eng.OnTick = func(uint64) { t.Error("paused engine ticked") }

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	eng.Run(ctx)

	if st := eng.Status(); st.Tick != 0 || st.Speed != 0 {
		t.Errorf("status = %+v, want paused at tick 0", st)
	}
}

func TestResetWithSwapsStateAtomically(t *testing.T) {
	eng := NewEngine()
	eng.Interval = 0
	eng.Budget = 5
	eng.ExitOnComplete = true

	var sim *Simulation
	fresh, err := New(milkStore, milkOptions(2))
	if err != nil {
		t.Fatal(err)
	}
	sim = fresh
	eng.OnTick = func(uint64) { sim.Tick() }
	eng.Run(context.Background())

	replacement, err := New(milkStore, milkOptions(1))
	if err != nil {
		t.Fatal(err)
	}
	eng.ResetWith(func() { sim = replacement })

	if st := eng.Status(); st.Tick != 0 || st.Completed {
		t.Errorf("after ResetWith status = %+v", st)
	}
	if sim.CurrentTick() != 0 || len(sim.Shoppers) != 1 {
		t.Errorf("replacement not installed: tick %d shoppers %d", sim.CurrentTick(), len(sim.Shoppers))
	}

	eng.Run(context.Background())
	if sim.CurrentTick() != 5 {
		t.Errorf("replacement ran %d ticks, want 5", sim.CurrentTick())
	}
}

func TestSetSpeedWhileRunning(t *testing.T) {
	eng := NewEngine()
	eng.Interval = 0
	eng.Budget = 200
	eng.ExitOnComplete = true

	done := make(chan struct{})
	go func() {
		eng.Run(context.Background())
		close(done)
	}()
	for i := 1; i <= 20; i++ {
		eng.SetSpeed(float64(i))
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not finish")
	}

	if st := eng.Status(); !st.Completed || st.Speed != 20 {
		t.Errorf("status = %+v, want completed at speed 20", st)
	}
}
