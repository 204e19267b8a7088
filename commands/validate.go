package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexdef/lexdef/definition"
	"github.com/lexdef/lexdef/validation"
)

func newValidateCommand(newApp func(*cobra.Command) (*App, error)) *cobra.Command {
	var (
		text     string
		file     string
		category string
		org      []string
		legal    []string
		basis    []string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "validate <term>",
		Short: "Validate a definition text against the rule set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if text == "" && file == "" {
				return fmt.Errorf("either --text or --file is required")
			}
			if text == "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read definition text: %w", err)
				}
				text = strings.TrimSpace(string(data))
			}

			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			result := app.Engine.Validate(cmd.Context(), validation.Input{
				Term:         args[0],
				Text:         text,
				Category:     category,
				OrgContext:   definition.NewContextSet(org...),
				LegalContext: definition.NewContextSet(legal...),
				LegalBasis:   definition.NewContextSet(basis...),
			})

			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
			}
			printResult(cmd, result)
			if !result.IsAcceptable {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "definition text to validate")
	cmd.Flags().StringVar(&file, "file", "", "file containing the definition text")
	cmd.Flags().StringVar(&category, "category", "", "definition category")
	cmd.Flags().StringSliceVar(&org, "org", nil, "organisational context")
	cmd.Flags().StringSliceVar(&legal, "legal", nil, "legal context")
	cmd.Flags().StringSliceVar(&basis, "basis", nil, "legal basis")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the raw validation result")
	return cmd
}

func printResult(cmd *cobra.Command, result *validation.Result) {
	out := cmd.OutOrStdout()
	verdict := "REJECTED"
	if result.IsAcceptable {
		verdict = "ACCEPTED"
	}
	fmt.Fprintf(out, "%s  score %.2f\n", verdict, result.OverallScore)

	if result.Degraded {
		fmt.Fprintf(out, "degraded: %s\n", result.System.Error)
		return
	}
	for _, v := range result.Violations {
		fmt.Fprintf(out, "  [%s/%s] %s\n", v.Rule, v.Severity, v.Message)
		if v.Suggestion != "" {
			fmt.Fprintf(out, "      -> %s\n", v.Suggestion)
		}
	}
	if len(result.ErroredRules) > 0 {
		fmt.Fprintf(out, "errored rules: %s\n", strings.Join(result.ErroredRules, ", "))
	}
}
