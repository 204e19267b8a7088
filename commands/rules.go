package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRulesCommand(newApp func(*cobra.Command) (*App, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the active validation rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			set, err := app.Cache.GetAll()
			if err != nil {
				return fmt.Errorf("load rule set: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCATEGORY\tSEVERITY\tWEIGHT\tBLOCKER\tMESSAGE")
			for _, r := range set.Rules {
				blocker := ""
				if r.HardBlocker {
					blocker = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%s\t%s\n",
					r.ID, r.Category, r.Severity, r.Weight, blocker, r.Explanation)
			}
			return w.Flush()
		},
	}
}
