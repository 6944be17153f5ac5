package cli

import (
	"github.com/grovetools/termestra/config"
	"github.com/grovetools/termestra/errors"
	"github.com/grovetools/termestra/logging"
	"github.com/spf13/cobra"
)

// LoggingConfig derives the logging setup of a run from the optional
// "logging" section of cfg. The resolved log level always wins over the
// section's, and unless the section names a file, the log goes to
// "<prefix>.log".
func LoggingConfig(cmd *cobra.Command, cfg *config.Config, prefix string) (logging.Config, error) {
	var lc logging.Config
	if err := cfg.UnmarshalExtension("logging", &lc); err != nil {
		return lc, errors.ConfigInvalid(err.Error()).WithDetail("field", "logging")
	}

	level, err := cfg.Level()
	if err != nil {
		return lc, errors.ConfigInvalid(err.Error()).WithDetail("field", "log_level")
	}
	lc.Level = level.String()

	if prefix != "" && lc.File.Path == "" {
		lc.File.Enabled = true
		lc.File.Path = prefix + ".log"
	}

	if GetOptions(cmd).JSONOutput {
		lc.Format.Preset = "json"
	}
	return lc, nil
}

// SetupLogging configures the shared logger for a run.
func SetupLogging(cmd *cobra.Command, cfg *config.Config, prefix string) error {
	lc, err := LoggingConfig(cmd, cfg, prefix)
	if err != nil {
		return err
	}
	return logging.Setup(lc)
}
