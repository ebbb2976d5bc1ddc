package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/aisleflow/internal/persistence"
	"github.com/talgya/aisleflow/internal/traffic"
	"github.com/talgya/aisleflow/internal/world"
)

func newAdviseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advise [run-id]",
		Short: "Ask the layout advisor to rearrange a recorded run's store",
		Long: `Advise loads a recorded run (the latest when no ID is given), sends its
layout and traffic report to the model, and prints the suggestions and
the proposed layout. The advice is recorded against the run. Requires
ANTHROPIC_API_KEY.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			outPath, _ := cmd.Flags().GetString("out")

			adv := newAdvisor(cfg)
			if !adv.Enabled() {
				return fmt.Errorf("advisor disabled: set ANTHROPIC_API_KEY or llm.api_key")
			}

			db, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			var run *persistence.Run
			if len(args) == 1 {
				run, err = db.GetRun(ctx, args[0])
			} else {
				run, err = db.LatestRun(ctx)
			}
			if err != nil {
				return err
			}

			rows := run.Rows()
			grid, err := world.NewGrid(rows, world.DefaultCatalog())
			if err != nil {
				return fmt.Errorf("rebuild run %s: %w", run.ID, err)
			}
			snap, err := run.Heatmap()
			if err != nil {
				return err
			}
			summary := traffic.Summarize(grid, traffic.FromSnapshot(snap))

			res := adv.Advise(ctx, rows, summary)

			record, err := persistence.NewAdvice(run.ID, res.Suggestions, res.Layout, res.Changed)
			if err != nil {
				return err
			}
			if err := db.SaveAdvice(ctx, record); err != nil {
				return err
			}

			if outPath != "" && res.Error == "" {
				if err := os.WriteFile(outPath, []byte(world.FormatLayout(res.Layout)+"\n"), 0o644); err != nil {
					return fmt.Errorf("write layout: %w", err)
				}
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"run_id":    run.ID,
					"advice_id": record.ID,
					"report":    summary.Report(),
					"result":    res,
				})
			}

			fmt.Printf("Run %s: %s\n\n", run.ID, summary.Report())
			fmt.Println("Suggestions:")
			for _, s := range res.Suggestions {
				fmt.Printf("  %s\n", s)
			}
			if res.Changed {
				fmt.Println("\nProposed layout:")
				fmt.Println(world.FormatLayout(res.Layout))
			} else {
				fmt.Println("\nLayout unchanged.")
			}
			if outPath != "" && res.Error == "" {
				fmt.Printf("\nWrote %s\n", outPath)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Output as JSON")
	cmd.Flags().String("out", "", "Write the proposed layout to this file")
	return cmd
}
