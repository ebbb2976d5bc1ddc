package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/talgya/aisleflow/internal/world"
)

func newLayoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the configured store layout",
		Long: `Layout prints the layout a run would use: the configured layout file,
or a generated one. With --check it also builds the grid and lists the
product categories it stocks.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if v, _ := cmd.Flags().GetString("style"); v != "" {
				cfg.Layout.Style = v
			}
			if v, _ := cmd.Flags().GetInt("width"); v > 0 {
				cfg.Layout.Width = v
			}
			if v, _ := cmd.Flags().GetInt("height"); v > 0 {
				cfg.Layout.Height = v
			}
			if v, _ := cmd.Flags().GetString("file"); v != "" {
				cfg.Layout.File = v
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			seed, _ := cmd.Flags().GetInt64("seed")

			rows, err := loadLayout(cfg, seed)
			if err != nil {
				return err
			}
			fmt.Println(world.FormatLayout(rows))

			if check, _ := cmd.Flags().GetBool("check"); check {
				grid, err := world.NewGrid(rows, world.DefaultCatalog())
				if err != nil {
					return err
				}
				idx := world.BuildIndex(grid)
				fmt.Fprintf(os.Stderr, "%s\n", grid)
				fmt.Fprintf(os.Stderr, "categories: %s\n", strings.Join(idx.Categories(), ", "))
			}
			return nil
		},
	}
	cmd.Flags().String("style", "", "Generation style: striped or noise")
	cmd.Flags().Int("width", 0, "Generated layout width")
	cmd.Flags().Int("height", 0, "Generated layout height")
	cmd.Flags().String("file", "", "Read and normalize this layout file instead of generating")
	cmd.Flags().Int64("seed", 0, "Noise style seed (0 = random)")
	cmd.Flags().Bool("check", false, "Build the grid and describe it on stderr")
	return cmd
}
