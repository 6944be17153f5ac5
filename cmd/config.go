package cmd

import (
	"fmt"

	"github.com/grovetools/termestra/cli"
	"github.com/grovetools/termestra/config"
	"github.com/grovetools/termestra/errors"
	"github.com/spf13/cobra"
)

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the termestra configuration",
	}
	cmd.AddCommand(newConfigSchemaCmd())
	cmd.AddCommand(newConfigShowCmd())
	return cmd
}

func newConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of termestra.yml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Loads the configuration the run commands would use (the file given with
--config, the nearest termestra.yml, or the defaults) and prints it with all
defaults filled in.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := config.Format(format)
			if f != config.FormatYAML && f != config.FormatTOML {
				return errors.ConfigInvalid(fmt.Sprintf("unknown format %q", format)).
					WithDetail("field", "format")
			}

			cfg, path, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			data, err := config.Marshal(cfg, f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if path != "" {
				fmt.Fprintf(out, "# Source: %s\n", path)
			}
			fmt.Fprint(out, string(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", string(config.FormatYAML), "Output format (yaml or toml)")
	return cmd
}
