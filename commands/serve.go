package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lexdef/lexdef/rules"
	"github.com/lexdef/lexdef/server"
)

func newServeCommand(newApp func(*cobra.Command) (*App, error)) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if app.Config.Rules.Watch {
				watcher := rules.NewWatcher(app.Config.Rules.Patterns, app.Cache, app.Logger)
				go func() {
					if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
						app.Logger.Warn("Rule watcher stopped", "error", err)
					}
				}()
			}

			if addr == "" {
				addr = app.Config.Server.Addr
			}

			srv := server.New(app.Orchestrator, app.Gate,
				server.WithLogger(app.Logger),
				server.WithGatherer(app.Metrics))
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides config")
	return cmd
}
