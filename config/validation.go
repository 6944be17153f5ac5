package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/grovetools/termestra/command"
	"github.com/grovetools/termestra/errors"
)

var fieldValidator = command.NewSafeBuilder()

// socketPattern keeps tmux_socket safe to splice into the terminal's shell
// command line.
var socketPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Validate checks the semantics the schema cannot express.
func (c *Config) Validate() error {
	if c.Geometry != "" {
		if err := fieldValidator.Validate("geometry", c.Geometry); err != nil {
			return errors.ConfigInvalid(err.Error()).WithDetail("field", "geometry")
		}
	}

	if err := ValidateTabNames(c.TabNames); err != nil {
		return err
	}

	if _, err := c.Level(); err != nil {
		return errors.ConfigInvalid(fmt.Sprintf("unknown log level %q", c.LogLevel)).
			WithDetail("field", "log_level")
	}

	if c.TmuxSocket != "" && !socketPattern.MatchString(c.TmuxSocket) {
		return errors.ConfigInvalid(fmt.Sprintf("invalid tmux socket name %q", c.TmuxSocket)).
			WithDetail("field", "tmux_socket")
	}

	if c.Terminal != DefaultTerminal {
		return errors.ConfigInvalid(fmt.Sprintf("unsupported terminal %q", c.Terminal)).
			WithDetail("field", "terminal")
	}

	if c.BufferSize < 2 {
		return errors.ConfigInvalid("buffer_size must be at least 2").WithDetail("field", "buffer_size")
	}

	durations := map[string]Duration{
		"housekeeping_interval": c.HousekeepingInterval,
		"idle_interval":         c.IdleInterval,
		"poll_interval":         c.PollInterval,
		"provision_timeout":     c.ProvisionTimeout,
	}
	for field, d := range durations {
		if d <= 0 {
			return errors.ConfigInvalid(field+" must be positive").WithDetail("field", field)
		}
	}

	return nil
}

// ValidateTabNames rejects an empty list and names that cannot be quoted.
// Repeated names are left to the session registry, which fails the run.
func ValidateTabNames(names []string) error {
	if len(names) == 0 {
		return errors.ConfigInvalid("at least one tab name is required").WithDetail("field", "tab_names")
	}
	for _, name := range names {
		if err := fieldValidator.Validate("sessionName", name); err != nil {
			return errors.ConfigInvalid(err.Error()).WithDetail("field", "tab_names")
		}
	}
	return nil
}

// SplitTabNames parses a comma separated list, trimming each name.
func SplitTabNames(list string) []string {
	parts := strings.Split(list, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		names = append(names, strings.TrimSpace(p))
	}
	return names
}
