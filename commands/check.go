package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexdef/lexdef/definition"
	"github.com/lexdef/lexdef/duplicate"
)

func newCheckCommand(newApp func(*cobra.Command) (*App, error)) *cobra.Command {
	var (
		category string
		org      []string
		legal    []string
		basis    []string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "check <term>",
		Short: "Check whether an equivalent definition already exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			req := definition.NewGenerationRequest(args[0])
			req.Category = category
			req.OrgContext = definition.NewContextSet(org...)
			req.LegalContext = definition.NewContextSet(legal...)
			req.LegalBasis = definition.NewContextSet(basis...)

			result, err := app.Gate.Check(cmd.Context(), req)
			if err != nil {
				return err
			}

			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
			}

			out := cmd.OutOrStdout()
			switch result.Action {
			case duplicate.ActionProceed:
				fmt.Fprintln(out, "PROCEED: no equivalent definition found")
			case duplicate.ActionUseExisting:
				fmt.Fprintf(out, "USE_EXISTING: %q (version %d, %s)\n",
					result.Existing.Term, result.Existing.Version, result.Existing.Status)
			case duplicate.ActionUpdateExisting:
				fmt.Fprintf(out, "UPDATE_EXISTING: %q (version %d, %s)\n",
					result.Existing.Term, result.Existing.Version, result.Existing.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "definition category")
	cmd.Flags().StringSliceVar(&org, "org", nil, "organisational context")
	cmd.Flags().StringSliceVar(&legal, "legal", nil, "legal context")
	cmd.Flags().StringSliceVar(&basis, "basis", nil, "legal basis")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the raw check result")
	return cmd
}
