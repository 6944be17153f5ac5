package command

import (
	"context"
	"os/exec"
)

// Executor turns a validated command into an exec.Cmd. Tests swap it to
// observe what tmux, dbus-send or gnome-terminal would have been asked to do.
type Executor interface {
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// RealExecutor runs commands through os/exec.
type RealExecutor struct{}

func (e *RealExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}
