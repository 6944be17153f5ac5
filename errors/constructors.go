package errors

import (
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DuplicateSession creates an error for a session name declared twice
func DuplicateSession(name string) *OrchestrationError {
	return New(ErrCodeDuplicateSession, fmt.Sprintf("duplicate session name: %s", name)).
		WithDetail("session", name)
}

// UnknownSession creates an error for a session name that was never declared
func UnknownSession(name string) *OrchestrationError {
	return New(ErrCodeUnknownSession, fmt.Sprintf("unknown session: %s", name)).
		WithDetail("session", name)
}

// AmbiguousSession creates an error for more than one new tmux session
// appearing while a single one was being created
func AmbiguousSession(name string, ids []string) *OrchestrationError {
	return New(ErrCodeAmbiguousSession,
		fmt.Sprintf("more than one new tmux session while creating session '%s': %s", name, strings.Join(ids, ", "))).
		WithDetail("session", name).
		WithDetail("candidates", ids)
}

// ProvisionTimeout creates an error for a session that did not become ready in time
func ProvisionTimeout(name, stage string, timeout time.Duration) *OrchestrationError {
	return New(ErrCodeProvisionTimeout,
		fmt.Sprintf("session '%s' not ready within %s (waiting for %s)", name, timeout, stage)).
		WithDetail("session", name).
		WithDetail("stage", stage).
		WithDetail("timeout", timeout.String())
}

// Canceled creates an error for an operation abandoned because its context ended
func Canceled(op string, err error) *OrchestrationError {
	return Wrap(err, ErrCodeCanceled, fmt.Sprintf("%s canceled", op))
}

// CommandNotFound creates an error for an executable missing from PATH
func CommandNotFound(name string, err error) *OrchestrationError {
	return Wrap(err, ErrCodeCommandNotFound, fmt.Sprintf("%s command not found in PATH", name)).
		WithDetail("command", name)
}

// CommandFailed creates a command execution failure error carrying the
// command's captured error output
func CommandFailed(cmd string, stderr string, err error) *OrchestrationError {
	msg := strings.TrimSpace(stderr)
	oe := Wrap(err, ErrCodeCommandFailed, fmt.Sprintf("'%s' failed with the message:\n%s", cmd, msg)).
		WithDetail("command", cmd).
		WithDetail("stderr", msg)

	// Extract exit code if available
	if exitErr, ok := err.(*exec.ExitError); ok {
		oe = oe.WithDetail("exitCode", exitErr.ExitCode())
	}

	return oe
}

// PipeFailed creates an error for a FIFO that could not be created, redirected or opened
func PipeFailed(path string, err error) *OrchestrationError {
	return Wrap(err, ErrCodePipeFailed, fmt.Sprintf("pipe %s failed", path)).
		WithDetail("path", path)
}

// ConnectionLost creates an error for a pipe connection that dropped with a transport error
func ConnectionLost(session string, err error) *OrchestrationError {
	return Wrap(err, ErrCodeConnectionLost, fmt.Sprintf("connection for session '%s' lost", session)).
		WithDetail("session", session)
}

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *OrchestrationError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *OrchestrationError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}
