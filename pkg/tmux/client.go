package tmux

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/grovetools/termestra/command"
	"github.com/grovetools/termestra/errors"
)

type Client struct {
	runner *command.Runner
	socket string // Socket name for dedicated tmux server (uses -L flag)
}

func NewClient() (*Client, error) {
	// Tests set TERMESTRA_TMUX_SOCKET so that spawned processes use the same
	// isolated server
	return NewClientWithSocket(os.Getenv("TERMESTRA_TMUX_SOCKET"))
}

// NewClientWithSocket creates a tmux client that uses a dedicated server socket.
// This provides isolation from the default tmux server. An empty socket
// means the default server.
func NewClientWithSocket(socket string) (*Client, error) {
	if _, err := exec.LookPath("tmux"); err != nil {
		return nil, errors.CommandNotFound("tmux", err)
	}

	return &Client{
		runner: command.NewRunner(nil),
		socket: socket,
	}, nil
}

// Socket returns the socket name this client uses, or empty string for default.
func (c *Client) Socket() string {
	return c.socket
}

// KillServer kills the tmux server for this client's socket.
// This is useful for cleaning up isolated test servers.
// If the client uses the default socket, this will kill the default tmux server (use with caution!).
func (c *Client) KillServer(ctx context.Context) error {
	_, err := c.run(ctx, "kill-server")
	// Ignore "no server running" errors - server is already gone
	if err != nil && isNoServer(err) {
		return nil
	}
	return err
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	// Prepend socket flag if using a dedicated server
	if c.socket != "" {
		args = append([]string{"-L", c.socket}, args...)
	}
	return c.runner.Run(ctx, "tmux", args...)
}

func isNoServer(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "no server running") ||
		strings.Contains(msg, "error connecting to") ||
		strings.Contains(msg, "no sessions")
}
