package main

import (
	"os"

	"github.com/grovetools/termestra/cli"
	"github.com/grovetools/termestra/cmd"
)

func main() {
	rootCmd := cmd.NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		_ = cli.NewErrorHandler(verbose).Handle(err)
		os.Exit(cli.ExitCode(err))
	}
}
