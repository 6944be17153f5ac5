package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/grovetools/termestra/internal/app"
	"github.com/spf13/cobra"
)

// NewTmuxCmd opens the tabs and their tmux sessions, then exits.
func NewTmuxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tmux",
		Short: "Open the tabs and their tmux sessions, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return orchestrate(cmd, "tmux", func(ctx context.Context, a *app.App) error {
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
				return a.Provision(ctx)
			})
		},
	}
	addSessionFlags(cmd, defaultTmuxGeometry)
	return cmd
}
