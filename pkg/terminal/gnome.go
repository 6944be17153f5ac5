// Package terminal drives the desktop terminal emulator that hosts the tmux
// sessions: opening the first window and producing the command that opens
// further tabs from inside an existing session.
package terminal

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/grovetools/termestra/command"
	"github.com/grovetools/termestra/logging"
	"github.com/sirupsen/logrus"
)

// Emulator is the terminal control a provisioner needs.
type Emulator interface {
	// CreateWindow opens a new window running tmux.
	CreateWindow(ctx context.Context, geometry, name string) error
	// CreateTabCommand returns a shell command that, typed into an existing
	// session, opens a new tab running tmux.
	CreateTabCommand(name string) string
}

const screenPath = "/org/gnome/Terminal/screen"

var nodePattern = regexp.MustCompile(
	`^  <node name="([0-9a-f]{8}_[0-9a-f]{4}_[0-9a-f]{4}_[0-9a-f]{4}_[0-9a-f]{12})"/>$`)

// Gnome controls GNOME Terminal.
type Gnome struct {
	runner  *command.Runner
	tmuxCmd string
	logger  *logrus.Entry
}

// NewGnome returns a GNOME Terminal controller whose windows and tabs run
// tmuxCmd (e.g. "tmux" or "tmux -L test").
func NewGnome(runner *command.Runner, tmuxCmd string) *Gnome {
	if runner == nil {
		runner = command.NewRunner(nil)
	}
	if tmuxCmd == "" {
		tmuxCmd = "tmux"
	}
	return &Gnome{
		runner:  runner,
		tmuxCmd: tmuxCmd,
		logger:  logging.NewLogger("terminal"),
	}
}

// ScreenNodes lists the terminal screens GNOME Terminal exports on the
// session bus.
func (g *Gnome) ScreenNodes(ctx context.Context) ([]string, error) {
	out, err := g.runner.Run(ctx, "dbus-send",
		"--session", "--type=method_call", "--print-reply",
		"--dest=org.gnome.Terminal", screenPath,
		"org.freedesktop.DBus.Introspectable.Introspect")
	if err != nil {
		return nil, err
	}
	return parseNodes(out), nil
}

func parseNodes(introspection string) []string {
	var nodes []string
	for _, line := range strings.Split(introspection, "\n") {
		if m := nodePattern.FindStringSubmatch(line); m != nil {
			nodes = append(nodes, m[1])
		}
	}
	return nodes
}

// environ returns the process environment pointed at an existing terminal
// screen, so the new window joins the running GNOME Terminal server.
func (g *Gnome) environ(ctx context.Context) []string {
	env := os.Environ()
	nodes, err := g.ScreenNodes(ctx)
	if err != nil || len(nodes) == 0 {
		g.logger.WithError(err).Debug("No GNOME Terminal screen found; leaving GNOME_TERMINAL_SCREEN unset")
		return env
	}
	return append(env, fmt.Sprintf("GNOME_TERMINAL_SCREEN=%s/%s", screenPath, nodes[0]))
}

// CreateWindow opens a GNOME Terminal window titled name running tmux.
func (g *Gnome) CreateWindow(ctx context.Context, geometry, name string) error {
	builder := g.runner.Builder()
	if err := builder.Validate("geometry", geometry); err != nil {
		return err
	}
	if err := builder.Validate("sessionName", name); err != nil {
		return err
	}

	script := fmt.Sprintf(`gnome-terminal --window -t "%s" --geometry=%s -e "%s"`, name, geometry, g.tmuxCmd)
	g.logger.WithField("geometry", geometry).Infof("Creating window %q", name)
	_, err := g.runner.Shell(ctx, script, g.environ(ctx))
	return err
}

// CreateTabCommand returns the command typed into the previous session to
// open a new tab. stderr is dropped to hide the -e deprecation warning.
func (g *Gnome) CreateTabCommand(name string) string {
	return fmt.Sprintf(`gnome-terminal --tab -t "%s" -e "%s" 2> /dev/null`, name, g.tmuxCmd)
}
