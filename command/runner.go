package command

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/grovetools/termestra/errors"
	"github.com/grovetools/termestra/logging"
	"github.com/sirupsen/logrus"
)

// Result is the captured outcome of one external command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner runs external commands through a SafeBuilder and turns failures
// into OrchestrationErrors that carry the command's error output.
type Runner struct {
	builder *SafeBuilder
	logger  *logrus.Entry
}

// NewRunner creates a Runner. A nil builder uses NewSafeBuilder.
func NewRunner(builder *SafeBuilder) *Runner {
	if builder == nil {
		builder = NewSafeBuilder()
	}
	return &Runner{
		builder: builder,
		logger:  logging.NewLogger("command"),
	}
}

// Builder exposes the underlying SafeBuilder, mostly for its validators.
func (r *Runner) Builder() *SafeBuilder {
	return r.builder
}

// Run executes name with args and returns its stdout.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (string, error) {
	res, err := r.Capture(ctx, nil, name, args...)
	return res.Stdout, err
}

// Shell runs script through `sh -c`, the way a terminal would. env, when
// non-nil, replaces the process environment.
func (r *Runner) Shell(ctx context.Context, script string, env []string) (string, error) {
	res, err := r.Capture(ctx, env, "sh", "-c", script)
	return res.Stdout, err
}

// Capture executes a command and returns stdout, stderr and the exit code.
// A non-zero exit is reported as an ErrCodeCommandFailed error; the Result
// is still populated.
func (r *Runner) Capture(ctx context.Context, env []string, name string, args ...string) (Result, error) {
	cmd, err := r.builder.Build(ctx, name, args...)
	if err != nil {
		return Result{}, fmt.Errorf("failed to build command: %w", err)
	}
	defer cmd.Release()
	cmd.WithEnv(env)

	var stdout, stderr bytes.Buffer
	execCmd := cmd.Exec()
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	runErr := execCmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if execCmd.ProcessState != nil {
		res.ExitCode = execCmd.ProcessState.ExitCode()
	} else if runErr != nil {
		res.ExitCode = -1
	}

	r.logger.Debug(describe(cmd.String(), res))

	if runErr != nil {
		if stderrors.Is(runErr, exec.ErrNotFound) {
			return res, errors.CommandNotFound(name, runErr)
		}
		return res, errors.CommandFailed(cmd.String(), res.Stderr, runErr)
	}
	return res, nil
}

func describe(c string, res Result) string {
	status := "succeeds"
	if res.ExitCode != 0 {
		status = "fails"
	}
	return fmt.Sprintf("run %q %s:\nstdout:\n%s\nstderr:\n%s",
		c, status, strings.TrimSpace(res.Stdout), strings.TrimSpace(res.Stderr))
}
