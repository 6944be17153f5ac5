// Package cmd holds the termestra subcommands.
package cmd

import (
	"github.com/grovetools/termestra/cli"
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the termestra command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := cli.NewStandardCommand(
		"termestra",
		"Orchestrate tmux sessions in GNOME Terminal tabs and log their output",
	)

	rootCmd.AddCommand(NewBaseCmd())
	rootCmd.AddCommand(NewTmuxCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(cli.NewVersionCommand("termestra"))

	return rootCmd
}
