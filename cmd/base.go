package cmd

import (
	"context"

	"github.com/grovetools/termestra/internal/app"
	"github.com/spf13/cobra"
)

func NewBaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "base",
		Short: "Open the tabs, capture their output and log it until interrupted",
		Long: `Opens a GNOME Terminal window with one tab per name in --tab-names, each
running a new tmux session. The output of every session is piped through a
FIFO and logged, along with a housekeeping line every few seconds, until
SIGINT or SIGTERM. Pipes are removed on exit.`,
		Example: `  # Two tabs on a dedicated tmux server
  termestra base --tab-names "build, logs" --tmux-socket termestra

  # Debug output includes every captured line
  termestra base --log-level DEBUG`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return orchestrate(cmd, "base", func(ctx context.Context, a *app.App) error {
				return a.Run(ctx)
			})
		},
	}
	addSessionFlags(cmd, defaultBaseGeometry)
	return cmd
}
