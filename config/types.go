package config

import (
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
)

// Default values applied by SetDefaults.
const (
	DefaultWorkStub             = "/tmp/termestra"
	DefaultTabName              = "Tmux terminal"
	DefaultLogLevel             = "info"
	DefaultTerminal             = "gnome"
	DefaultBufferSize           = 4096
	DefaultHousekeepingInterval = 5 * time.Second
	DefaultIdleInterval         = 2 * time.Second
	DefaultPollInterval         = 100 * time.Millisecond
	DefaultProvisionTimeout     = 30 * time.Second
)

// Duration is a time.Duration written as a Go duration string ("5s",
// "100ms") in configuration files.
type Duration time.Duration

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// JSONSchema describes durations as strings in the generated schema.
func (Duration) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Pattern:     `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`,
		Description: "Go duration string, e.g. 5s or 100ms",
	}
}

// Config is the termestra configuration file.
type Config struct {
	WorkStub   string   `yaml:"work_stub,omitempty" toml:"work_stub,omitempty" json:"work_stub,omitempty" jsonschema:"description=Prefix for working files (FIFOs and the log file)"`
	Geometry   string   `yaml:"geometry,omitempty" toml:"geometry,omitempty" json:"geometry,omitempty" jsonschema:"description=Terminal geometry <cols>x<rows>+<x>+<y>,pattern=^[0-9]+x[0-9]+([+-][0-9]+[+-][0-9]+)?$"`
	TabNames   []string `yaml:"tab_names,omitempty" toml:"tab_names,omitempty" json:"tab_names,omitempty" jsonschema:"description=Session (tab) names in creation order,minItems=1"`
	LogLevel   string   `yaml:"log_level,omitempty" toml:"log_level,omitempty" json:"log_level,omitempty" jsonschema:"description=Log level,enum=debug,enum=info,enum=warn,enum=warning,enum=error,enum=DEBUG,enum=INFO,enum=WARNING,enum=ERROR,enum=CRITICAL"`
	TmuxSocket string   `yaml:"tmux_socket,omitempty" toml:"tmux_socket,omitempty" json:"tmux_socket,omitempty" jsonschema:"description=Dedicated tmux server socket name (tmux -L); empty uses the default server"`
	Terminal   string   `yaml:"terminal,omitempty" toml:"terminal,omitempty" json:"terminal,omitempty" jsonschema:"description=Terminal emulator hosting the sessions,enum=gnome"`
	BufferSize int      `yaml:"buffer_size,omitempty" toml:"buffer_size,omitempty" json:"buffer_size,omitempty" jsonschema:"description=Per-session line buffer capacity in bytes,minimum=2"`

	HousekeepingInterval Duration `yaml:"housekeeping_interval,omitempty" toml:"housekeeping_interval,omitempty" json:"housekeeping_interval,omitempty" jsonschema:"description=Interval between housekeeping ticks"`
	IdleInterval         Duration `yaml:"idle_interval,omitempty" toml:"idle_interval,omitempty" json:"idle_interval,omitempty" jsonschema:"description=Interval at which shutdown completion is checked"`
	PollInterval         Duration `yaml:"poll_interval,omitempty" toml:"poll_interval,omitempty" json:"poll_interval,omitempty" jsonschema:"description=Interval between tmux polls while provisioning"`
	ProvisionTimeout     Duration `yaml:"provision_timeout,omitempty" toml:"provision_timeout,omitempty" json:"provision_timeout,omitempty" jsonschema:"description=Upper bound on provisioning a single session"`

	// Extensions captures all other top-level keys, e.g. a "logging" section.
	Extensions map[string]interface{} `yaml:",inline" toml:"-" json:"-" jsonschema:"-"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.WorkStub == "" {
		c.WorkStub = DefaultWorkStub
	}
	if len(c.TabNames) == 0 {
		c.TabNames = []string{DefaultTabName}
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Terminal == "" {
		c.Terminal = DefaultTerminal
	}
	if c.BufferSize == 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.HousekeepingInterval == 0 {
		c.HousekeepingInterval = Duration(DefaultHousekeepingInterval)
	}
	if c.IdleInterval == 0 {
		c.IdleInterval = Duration(DefaultIdleInterval)
	}
	if c.PollInterval == 0 {
		c.PollInterval = Duration(DefaultPollInterval)
	}
	if c.ProvisionTimeout == 0 {
		c.ProvisionTimeout = Duration(DefaultProvisionTimeout)
	}
}

// Level parses LogLevel, accepting the upper-case names used on the
// command line (CRITICAL maps to fatal).
func (c *Config) Level() (logrus.Level, error) {
	switch c.LogLevel {
	case "CRITICAL", "critical":
		return logrus.FatalLevel, nil
	}
	return logrus.ParseLevel(c.LogLevel)
}

// UnmarshalExtension decodes the top-level section key into target, which
// must be a pointer. A missing section leaves target untouched.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	section, ok := c.Extensions[key]
	if !ok {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(section); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}
	return nil
}
