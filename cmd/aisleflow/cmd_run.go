package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/aisleflow/internal/config"
	"github.com/talgya/aisleflow/internal/engine"
	"github.com/talgya/aisleflow/internal/persistence"
	"github.com/talgya/aisleflow/internal/traffic"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one headless simulation and print the traffic report",
		Long: `Run builds the store from the configured layout, walks the shopper
population for the configured number of ticks as fast as possible, and
prints a traffic summary. The run is recorded unless --no-save is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, cfg); err != nil {
				return err
			}
			noSave, _ := cmd.Flags().GetBool("no-save")
			heat, _ := cmd.Flags().GetBool("heatmap")
			jsonOut, _ := cmd.Flags().GetBool("json")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sim, err := runHeadless(ctx, cfg)
			if err != nil {
				return err
			}

			var run *persistence.Run
			if !noSave {
				run, err = saveRun(ctx, cfg, sim)
				if err != nil {
					return err
				}
			}

			summary := sim.Summary()
			if jsonOut {
				out := map[string]any{
					"tick":     sim.CurrentTick(),
					"seed":     sim.Seed,
					"summary":  summary,
					"counters": sim.Counters(),
				}
				if run != nil {
					out["run_id"] = run.ID
				}
				if heat {
					out["heatmap"] = sim.HeatmapSnapshot()
				}
				return json.NewEncoder(os.Stdout).Encode(out)
			}

			printSummary(sim, summary)
			if run != nil {
				fmt.Printf("Saved run %s\n", run.ID)
			}
			if heat {
				fmt.Print(renderHeatmap(sim.HeatmapSnapshot()))
			}
			return nil
		},
	}
	addRunFlags(cmd)
	cmd.Flags().Bool("heatmap", false, "Print the heatmap after the summary")
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

// runHeadless drives the engine unpaced until the tick budget is spent or
// ctx is cancelled.
func runHeadless(ctx context.Context, cfg *config.Config) (*engine.Simulation, error) {
	if cfg.Simulation.Ticks == 0 {
		return nil, fmt.Errorf("headless runs need a tick budget (set --ticks or simulation.ticks)")
	}
	seed := resolveSeed(ctx, cfg)
	rows, err := loadLayout(cfg, seed)
	if err != nil {
		return nil, err
	}
	sim, err := engine.New(rows, simOptions(cfg, seed))
	if err != nil {
		return nil, err
	}

	eng := engine.NewEngine()
	eng.Interval = 0
	eng.Budget = uint64(cfg.Simulation.Ticks)
	eng.ReportEvery = uint64(cfg.Simulation.ReportEvery)
	eng.ExitOnComplete = true
	eng.OnTick = func(uint64) { sim.Tick() }
	eng.OnReport = func(tick uint64) {
		s := sim.Summary()
		slog.Debug("progress", "tick", tick, "max_count", s.MaxCount, "dead_spots", s.DeadSpots)
	}
	eng.Run(ctx)

	if ctx.Err() != nil {
		slog.Warn("run interrupted", "tick", sim.CurrentTick())
	}
	return sim, nil
}

func saveRun(ctx context.Context, cfg *config.Config, sim *engine.Simulation) (*persistence.Run, error) {
	db, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	run, err := persistence.NewRun(sim)
	if err != nil {
		return nil, err
	}
	if err := db.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		return nil, err
	}
	return run, nil
}

func printSummary(sim *engine.Simulation, s traffic.Summary) {
	c := sim.Counters()
	fmt.Printf("Store %dx%d, %s shoppers, seed %d\n",
		sim.Grid.Width(), sim.Grid.Height(), humanize.Comma(int64(len(sim.Shoppers))), sim.Seed)
	fmt.Printf("Ticks:        %s\n", humanize.Comma(int64(sim.CurrentTick())))
	fmt.Printf("Steps taken:  %s\n", humanize.Comma(int64(c.Visits)))
	fmt.Printf("Items picked: %s\n", humanize.Comma(int64(c.Picks)))
	fmt.Printf("Checkouts:    %s\n", humanize.Comma(int64(c.Trips)))
	fmt.Printf("Busiest cell: %s (%s visits)\n", s.MaxAt, humanize.Comma(int64(s.MaxCount)))
	fmt.Printf("Dead floor:   %s of %s cells (%.1f%%)\n",
		humanize.Comma(int64(s.DeadSpots)), humanize.Comma(int64(s.FloorCells)), s.DeadRatio()*100)
	fmt.Println(s.Report())
}

// heatRamp shades cells from unvisited to hottest.
const heatRamp = " .:-=+*#%@"

// renderHeatmap draws the [y][x] heatmap top row first, matching layout rows.
func renderHeatmap(heat [][]int) string {
	peak := 0
	for _, row := range heat {
		for _, v := range row {
			peak = max(peak, v)
		}
	}
	var out []byte
	for y := len(heat) - 1; y >= 0; y-- {
		for _, v := range heat[y] {
			i := 0
			if peak > 0 && v > 0 {
				i = 1 + v*(len(heatRamp)-2)/peak
			}
			out = append(out, heatRamp[i])
		}
		out = append(out, '\n')
	}
	return string(out)
}
