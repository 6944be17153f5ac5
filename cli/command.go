package cli

import (
	"github.com/grovetools/termestra/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommandOptions holds the persistent options shared by every command
type CommandOptions struct {
	ConfigFile string
	Verbose    bool
	JSONOutput bool
}

// NewStandardCommand creates a new command with the standard persistent flags
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to termestra.yml or termestra.toml")

	SetStyledHelp(cmd)

	return cmd
}

// GetOptions extracts common options from a command
func GetOptions(cmd *cobra.Command) CommandOptions {
	configFile, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	return CommandOptions{
		ConfigFile: configFile,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
	}
}

// LoadConfig loads the file named by --config, or the nearest configuration
// file, falling back to defaults. It returns the path that was read, empty
// for defaults.
func LoadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	opts := GetOptions(cmd)
	if opts.ConfigFile != "" {
		cfg, err := config.Load(opts.ConfigFile)
		return cfg, opts.ConfigFile, err
	}
	return config.LoadDefault()
}

// ApplyFlags copies explicitly set command flags over cfg. Flags that were
// left at their defaults only fill fields the configuration did not set.
func ApplyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	stringFlag := func(name string, target *string) {
		if flags.Lookup(name) == nil {
			return
		}
		value, _ := flags.GetString(name)
		if flags.Changed(name) || *target == "" {
			*target = value
		}
	}

	stringFlag("log-level", &cfg.LogLevel)
	stringFlag("wrk-stub", &cfg.WorkStub)
	stringFlag("geometry", &cfg.Geometry)
	stringFlag("tmux-socket", &cfg.TmuxSocket)

	if flags.Lookup("tab-names") != nil && flags.Changed("tab-names") {
		value, _ := flags.GetString("tab-names")
		cfg.TabNames = config.SplitTabNames(value)
	}

	if verbose, _ := flags.GetBool("verbose"); verbose {
		cfg.LogLevel = logrus.DebugLevel.String()
	}
}
