package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			jsonOut, _ := cmd.Flags().GetBool("json")

			db, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(runs)
			}
			if len(runs) == 0 {
				fmt.Println("No runs recorded.")
				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tWHEN\tSTORE\tSHOPPERS\tTICKS\tMAX\tDEAD\tCHECKOUTS")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%s\t%s\t%s\t%s\t%s\n",
					r.ID,
					humanize.Time(r.Created()),
					r.Width, r.Height,
					humanize.Comma(int64(r.Shoppers)),
					humanize.Comma(int64(r.Ticks)),
					humanize.Comma(int64(r.MaxCount)),
					humanize.Comma(int64(r.DeadSpots)),
					humanize.Comma(int64(r.Trips)),
				)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum runs to list")
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}
