package command

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the default command execution timeout
	DefaultTimeout = 2 * time.Minute

	// MaxTimeout is the maximum allowed timeout
	MaxTimeout = 10 * time.Minute
)

var (
	geometryPattern = regexp.MustCompile(`^[0-9]+x[0-9]+([+-][0-9]+[+-][0-9]+)?$`)
	targetPattern   = regexp.MustCompile(`^[$@%]?[A-Za-z0-9_.:-]+$`)
)

// SafeBuilder provides secure command execution with validation
type SafeBuilder struct {
	defaultTimeout time.Duration
	validators     map[string]func(string) error
	executor       Executor
}

// NewSafeBuilder creates a new SafeBuilder instance with a RealExecutor
func NewSafeBuilder() *SafeBuilder {
	return NewSafeBuilderWithExecutor(&RealExecutor{})
}

// NewSafeBuilderWithExecutor creates a new SafeBuilder with a custom Executor
func NewSafeBuilderWithExecutor(exec Executor) *SafeBuilder {
	return &SafeBuilder{
		defaultTimeout: DefaultTimeout,
		validators:     makeDefaultValidators(),
		executor:       exec,
	}
}

// makeDefaultValidators returns the default set of validators
func makeDefaultValidators() map[string]func(string) error {
	return map[string]func(string) error{
		"sessionName": validateSessionName,
		"paneTarget":  validatePaneTarget,
		"pipePath":    validatePipePath,
		"geometry":    validateGeometry,
	}
}

// validateSessionName ensures a session (tab) name can be quoted into a
// terminal title without breaking the surrounding shell command
func validateSessionName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("session name cannot be empty")
	}

	if strings.ContainsAny(name, "\"`$\\\n\r") {
		return fmt.Errorf("invalid session name: %q (quotes, backslashes, '$' and line breaks are not allowed)", name)
	}

	return nil
}

// validatePaneTarget ensures tmux targets look like "$3:0", "@1" or "name:0.1"
func validatePaneTarget(target string) error {
	if target == "" {
		return fmt.Errorf("pane target cannot be empty")
	}

	if !targetPattern.MatchString(target) {
		return fmt.Errorf("invalid pane target: %s", target)
	}

	return nil
}

// validatePipePath ensures FIFO paths are safe to embed in a `cat > path` command
func validatePipePath(path string) error {
	if path == "" {
		return fmt.Errorf("pipe path cannot be empty")
	}

	// Prevent directory traversal
	if strings.Contains(path, "..") {
		return fmt.Errorf("pipe path cannot contain '..'")
	}

	// Prevent command injection via shell metacharacters
	if strings.ContainsAny(path, ";|&$`'\" \t\n") {
		return fmt.Errorf("pipe path contains invalid characters")
	}

	return nil
}

// validateGeometry accepts X11 geometry strings such as 132x40+125+125
func validateGeometry(geom string) error {
	if !geometryPattern.MatchString(geom) {
		return fmt.Errorf("invalid geometry: %q (expected <cols>x<rows>+<x>+<y>)", geom)
	}
	return nil
}

// Command represents a safe command configuration
type Command struct {
	ctx      context.Context
	cancel   context.CancelFunc
	name     string
	args     []string
	env      []string
	timeout  time.Duration
	executor Executor
}

// Build creates a new command with validation
func (sb *SafeBuilder) Build(ctx context.Context, name string, args ...string) (*Command, error) {
	// Validate command name
	if name == "" {
		return nil, fmt.Errorf("command name cannot be empty")
	}

	// Apply timeout to context; released by Release once the command has run
	timeoutCtx, cancel := context.WithTimeout(ctx, sb.defaultTimeout)

	return &Command{
		ctx:      timeoutCtx,
		cancel:   cancel,
		name:     name,
		args:     args,
		timeout:  sb.defaultTimeout,
		executor: sb.executor,
	}, nil
}

// WithTimeout sets a custom timeout for the command
func (c *Command) WithTimeout(timeout time.Duration) *Command {
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}

	c.Release()
	c.ctx, c.cancel = context.WithTimeout(context.Background(), timeout)
	c.timeout = timeout
	return c
}

// WithEnv sets the environment for the command, in "KEY=VALUE" form.
// A nil environment inherits the current process environment.
func (c *Command) WithEnv(env []string) *Command {
	c.env = env
	return c
}

// Release frees the command's timeout context.
func (c *Command) Release() {
	if c.cancel != nil {
		c.cancel()
	}
}

// String renders the command line for logs and error messages
func (c *Command) String() string {
	return strings.TrimSpace(c.name + " " + strings.Join(c.args, " "))
}

// Validate validates specific arguments
func (sb *SafeBuilder) Validate(argType string, value string) error {
	validator, exists := sb.validators[argType]
	if !exists {
		return fmt.Errorf("no validator for argument type: %s", argType)
	}

	return validator(value)
}

// Exec creates and returns an exec.Cmd
func (c *Command) Exec() *exec.Cmd {
	cmd := c.executor.CommandContext(c.ctx, c.name, c.args...) //nolint:gosec // SafeBuilder provides validation
	if c.env != nil {
		cmd.Env = c.env
	}
	return cmd
}
