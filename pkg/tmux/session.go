package tmux

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

func (c *Client) HasSession(ctx context.Context, target string) (bool, error) {
	_, err := c.run(ctx, "has-session", "-t", target)
	if err == nil {
		return true, nil
	}

	if strings.Contains(err.Error(), "can't find session") || isNoServer(err) {
		return false, nil
	}

	return false, err
}

// NewSession starts a detached session and returns its id ("$N").
func (c *Client) NewSession(ctx context.Context, name string) (string, error) {
	args := []string{"new-session", "-d", "-P", "-F", "#{session_id}"}
	if name != "" {
		args = append(args, "-s", name)
	}
	output, err := c.run(ctx, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

func (c *Client) KillSession(ctx context.Context, target string) error {
	_, err := c.run(ctx, "kill-session", "-t", target)
	return err
}

// ListSessions returns every session on the server. A server that is not
// running has no sessions.
func (c *Client) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	format := "#{session_id}\t#{session_name}\t#{session_windows}\t#{?session_attached,1,0}"
	output, err := c.run(ctx, "list-sessions", "-F", format)
	if err != nil {
		if isNoServer(err) {
			return []SessionInfo{}, nil
		}
		return nil, err
	}
	return parseSessions(output), nil
}

func parseSessions(output string) []SessionInfo {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	sessions := make([]SessionInfo, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 4)
		if len(parts) < 4 || !strings.HasPrefix(parts[0], "$") {
			continue // Skip malformed lines
		}

		windows, err := strconv.Atoi(parts[2])
		if err != nil {
			windows = 0
		}

		sessions = append(sessions, SessionInfo{
			ID:       parts[0],
			Name:     parts[1],
			Windows:  windows,
			Attached: parts[3] == "1",
		})
	}
	return sessions
}

// CapturePane returns the visible content of target's active pane.
func (c *Client) CapturePane(ctx context.Context, target string) (string, error) {
	// -p prints to stdout; no -e, only the text matters here
	output, err := c.run(ctx, "capture-pane", "-p", "-t", target)
	if err != nil {
		return "", err
	}
	return output, nil
}

// SendKeys types keys into target. Each key is a separate tmux key argument;
// use "Enter" or "C-m" to submit a line.
func (c *Client) SendKeys(ctx context.Context, target string, keys ...string) error {
	args := []string{"send-keys", "-t", target}
	args = append(args, keys...)
	_, err := c.run(ctx, args...)
	return err
}

// PipePane redirects target's output into shellCommand, e.g. "cat > /tmp/fifo".
func (c *Client) PipePane(ctx context.Context, target, shellCommand string) error {
	if shellCommand == "" {
		return fmt.Errorf("pipe-pane command cannot be empty; use StopPipePane")
	}
	_, err := c.run(ctx, "pipe-pane", "-t", target, shellCommand)
	return err
}

// StopPipePane closes any pipe attached to target.
func (c *Client) StopPipePane(ctx context.Context, target string) error {
	_, err := c.run(ctx, "pipe-pane", "-t", target)
	return err
}
