// Command aisleflow simulates shopper traffic through a store layout.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/talgya/aisleflow/internal/agents"
	"github.com/talgya/aisleflow/internal/config"
	"github.com/talgya/aisleflow/internal/engine"
	"github.com/talgya/aisleflow/internal/entropy"
	"github.com/talgya/aisleflow/internal/logging"
	"github.com/talgya/aisleflow/internal/persistence"
	"github.com/talgya/aisleflow/internal/world"
)

var (
	version = "0.1.0-dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "aisleflow",
		Short: "Shopper traffic simulation for retail floor plans",
		Long: `aisleflow walks a population of shoppers through a store layout,
records where they go as a heatmap, and can ask a model to rearrange
merchandise so traffic spreads more evenly.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug, trace (overrides config)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newServeCmd(),
		newLayoutCmd(),
		newAdviseCmd(),
		newRunsCmd(),
	)
	return rootCmd
}

// loadConfig reads config from --config and installs the default logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	slog.SetDefault(logging.NewLogger(cfg.Logging.Level, os.Stderr))
	return cfg, nil
}

// addRunFlags registers the flags shared by run and serve.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Int64("seed", 0, "Random seed (0 = config value, or a fresh seed)")
	cmd.Flags().Int("ticks", 0, "Ticks per run (0 = config value)")
	cmd.Flags().Int("shoppers", -1, "Shopper population (-1 = config value)")
	cmd.Flags().String("layout", "", "Layout file (overrides config)")
	cmd.Flags().Bool("no-save", false, "Do not record the run")
}

// applyRunFlags folds explicitly set flags into cfg.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	if v, _ := cmd.Flags().GetInt64("seed"); v != 0 {
		cfg.Simulation.Seed = v
	}
	if v, _ := cmd.Flags().GetInt("ticks"); v > 0 {
		cfg.Simulation.Ticks = v
	}
	if v, _ := cmd.Flags().GetInt("shoppers"); v >= 0 {
		cfg.Simulation.Shoppers = v
	}
	if v, _ := cmd.Flags().GetString("layout"); v != "" {
		cfg.Layout.File = v
	}
	return cfg.Validate()
}

// resolveSeed returns the configured seed, drawing one when it is zero.
func resolveSeed(ctx context.Context, cfg *config.Config) int64 {
	if cfg.Simulation.Seed != 0 {
		return cfg.Simulation.Seed
	}
	seed := entropy.NewClient(cfg.Entropy.RandomOrgKey).Seed(ctx)
	slog.Info("drew fresh seed", "seed", seed)
	return seed
}

// loadLayout reads the configured layout file or generates one.
func loadLayout(cfg *config.Config, seed int64) ([]string, error) {
	if cfg.Layout.File != "" {
		rows, err := world.LoadLayout(cfg.Layout.File)
		if err != nil {
			return nil, err
		}
		slog.Info("layout loaded", "file", cfg.Layout.File, "rows", len(rows))
		return rows, nil
	}
	return world.GenerateLayout(world.GenConfig{
		Width:  cfg.Layout.Width,
		Height: cfg.Layout.Height,
		Style:  cfg.Layout.Style,
		Seed:   seed,
	})
}

func simOptions(cfg *config.Config, seed int64) engine.Options {
	opts := engine.DefaultOptions()
	opts.Shoppers = cfg.Simulation.Shoppers
	opts.Seed = seed
	opts.ExploreRate = cfg.Simulation.ExploreRate
	opts.Fallback = agents.DefaultFallbackSpawn
	return opts
}

// openStore opens the configured run store, creating the sqlite directory.
func openStore(cfg *config.Config) (*persistence.DB, error) {
	if cfg.Storage.Driver == "sqlite" {
		if dir := filepath.Dir(cfg.Storage.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
	}
	return persistence.Open(cfg.Storage.Driver, cfg.Storage.DSN)
}
