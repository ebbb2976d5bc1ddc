package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talgya/aisleflow/internal/advisor"
	"github.com/talgya/aisleflow/internal/api"
	"github.com/talgya/aisleflow/internal/config"
	"github.com/talgya/aisleflow/internal/engine"
	"github.com/talgya/aisleflow/internal/llm"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a paced simulation behind the HTTP API",
		Long: `Serve runs the simulation at the configured tick interval and exposes
its state over HTTP and a websocket stream. Completed runs are recorded
unless --no-save is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, cfg); err != nil {
				return err
			}
			noSave, _ := cmd.Flags().GetBool("no-save")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			seed := resolveSeed(ctx, cfg)
			rows, err := loadLayout(cfg, seed)
			if err != nil {
				return err
			}
			opts := simOptions(cfg, seed)
			sim, err := engine.New(rows, opts)
			if err != nil {
				return err
			}

			eng := engine.NewEngine()
			eng.Budget = uint64(cfg.Simulation.Ticks)
			eng.Interval = cfg.Simulation.Interval
			eng.ReportEvery = uint64(cfg.Simulation.ReportEvery)

			srv := api.NewServer(sim, eng, opts)
			srv.Port = cfg.API.Port
			srv.AdminKey = cfg.API.AdminKey
			srv.CORSOrigins = cfg.API.CORSOrigins
			if cfg.LLM.Enabled {
				srv.Advisor = newAdvisor(cfg)
			}

			if !noSave {
				db, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer db.Close()
				srv.DB = db
			}

			go eng.Run(ctx)

			err = srv.ListenAndServe(ctx)
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			slog.Info("shutdown complete")
			return err
		},
	}
	addRunFlags(cmd)
	return cmd
}

// newAdvisor returns nil when no API key is configured.
func newAdvisor(cfg *config.Config) *advisor.Advisor {
	client := llm.NewClient(llm.Options{
		APIKey:       cfg.LLM.APIKey,
		BaseURL:      cfg.LLM.BaseURL,
		Model:        cfg.LLM.Model,
		Timeout:      cfg.LLM.Timeout,
		MaxPerMinute: cfg.LLM.MaxPerMinute,
	})
	if client == nil {
		slog.Warn("advisor disabled (no ANTHROPIC_API_KEY set)")
		return nil
	}
	slog.Info("advisor enabled", "llm", cfg.LLM)
	return advisor.New(client, nil)
}
