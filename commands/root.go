package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexdef/lexdef/config"
)

// Version is set at build time.
var Version = "0.1.0"

// NewRootCommand builds the lexdef CLI.
func NewRootCommand() *cobra.Command {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          "lexdef",
		Short:        "Generate and validate legal term definitions",
		Long:         "lexdef generates definitions of legal and administrative terms with an LLM,\nvalidates them against a configurable rule set and guards against duplicates.",
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file, skips layered lookup")

	newApp := func(cmd *cobra.Command) (*App, error) {
		logger := newLogger(verbose)

		var cfg *config.Config
		var err error
		if configPath != "" {
			overlay, err := config.LoadFromFile(configPath)
			if err != nil {
				return nil, err
			}
			cfg = config.DefaultConfig()
			cfg.Merge(overlay)
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
		} else {
			cfg, err = config.NewLoader(logger).Load()
			if err != nil {
				return nil, fmt.Errorf("load configuration: %w", err)
			}
		}

		return NewApp(cmd.Context(), cfg, logger)
	}

	root.AddCommand(
		newServeCommand(newApp),
		newValidateCommand(newApp),
		newCheckCommand(newApp),
		newRulesCommand(newApp),
		newVersionCommand(),
	)
	return root
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
