package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/grovetools/termestra/errors"
)

// ExitOrchestration is the process exit code for a failed orchestration run.
const ExitOrchestration = 99

// ExitError carries a process exit code up to main.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps an error returned by a command to a process exit code: 0 for
// nil, the carried code for an ExitError, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if stderrors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to stderr
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     os.Stderr,
	}
}

// Handle prints a message for err based on its code and returns err.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	out := h.Out

	oe, _ := errors.As(err)
	detail := func(key string) interface{} {
		if oe == nil {
			return nil
		}
		return oe.Details[key]
	}

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(out, "❌ Configuration not found: %v\n", detail("path"))

	case errors.ErrCodeConfigInvalid:
		fmt.Fprintf(out, "❌ %v\n", err)
		fmt.Fprintf(out, "Run 'termestra config schema' to see the accepted settings.\n")

	case errors.ErrCodeDuplicateSession:
		fmt.Fprintf(out, "❌ Tab name '%v' is used more than once\n", detail("session"))

	case errors.ErrCodeCommandNotFound:
		fmt.Fprintf(out, "❌ Required command '%v' not found. Make sure tmux and gnome-terminal are installed.\n", detail("command"))

	case errors.ErrCodeProvisionTimeout:
		fmt.Fprintf(out, "❌ Session '%v' was not ready within %v (waiting for %v)\n",
			detail("session"), detail("timeout"), detail("stage"))

	case errors.ErrCodeAmbiguousSession:
		fmt.Fprintf(out, "❌ Several tmux sessions appeared while creating '%v': %v\n", detail("session"), detail("candidates"))
		fmt.Fprintf(out, "Another tmux client created a session at the same time; try again or use --tmux-socket.\n")

	default:
		fmt.Fprintf(out, "❌ Error: %v\n", err)
	}

	if h.Verbose && oe != nil {
		fmt.Fprintf(out, "\nError details:\n%s\n", oe.ToJSON())
	}
	return err
}
