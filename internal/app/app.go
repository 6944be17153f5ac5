// Package app wires provisioning, pipe capture and the supervisor into the
// two top-level flows: provisioning sessions only, and provisioning then
// supervising them until shutdown.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/grovetools/termestra/config"
	"github.com/grovetools/termestra/internal/pipe"
	"github.com/grovetools/termestra/internal/provision"
	"github.com/grovetools/termestra/internal/session"
	"github.com/grovetools/termestra/internal/supervisor"
	"github.com/grovetools/termestra/logging"
	"github.com/grovetools/termestra/pkg/terminal"
	"github.com/sirupsen/logrus"
)

// Tmux is the tmux surface the app drives.
type Tmux interface {
	provision.Directory
	provision.Keys
	pipe.Panes
}

// Deps are the collaborators of an App. Application and Dialer are optional.
type Deps struct {
	Tmux        Tmux
	Emulator    terminal.Emulator
	Application supervisor.Application
	Dialer      supervisor.Dialer
	// Supervisor overrides the supervisor options derived from the config,
	// e.g. to inject signal hooks.
	Supervisor *supervisor.Options
}

// WorkPrefix builds "{stub}-{command}-{YYYYmmdd_HHMMSS}", the prefix of the
// log file and every FIFO of one run.
func WorkPrefix(stub, command string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", stub, command, now.Format("20060102_150405"))
}

// App owns the sessions of one run.
type App struct {
	cfg         *config.Config
	prefix      string
	registry    *session.Registry
	tmux        Tmux
	provisioner *provision.Provisioner
	application supervisor.Application
	dial        supervisor.Dialer
	supOpts     supervisor.Options
	pipes       []attachment
	logger      *logrus.Entry
}

// attachment is a FIFO and the pane redirected into it.
type attachment struct {
	target, path string
}

// detachTimeout bounds the pipe-pane calls made while cleaning up.
const detachTimeout = 5 * time.Second

// New declares cfg.TabNames; repeated names fail with ErrCodeDuplicateSession.
func New(cfg *config.Config, prefix string, deps Deps) (*App, error) {
	registry, err := session.NewRegistry(cfg.TabNames...)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:         cfg,
		prefix:      prefix,
		registry:    registry,
		tmux:        deps.Tmux,
		application: deps.Application,
		dial:        deps.Dialer,
		logger:      logging.NewLogger("app"),
	}
	if a.application == nil {
		a.application = NewLogApplication(nil)
	}
	if a.dial == nil {
		a.dial = func(ctx context.Context, s *session.Session) (io.ReadCloser, error) {
			return pipe.Open(ctx, s.PipePath)
		}
	}
	if deps.Supervisor != nil {
		a.supOpts = *deps.Supervisor
	}
	if a.supOpts.HousekeepingInterval == 0 {
		a.supOpts.HousekeepingInterval = cfg.HousekeepingInterval.D()
	}
	if a.supOpts.IdleInterval == 0 {
		a.supOpts.IdleInterval = cfg.IdleInterval.D()
	}

	a.provisioner = provision.New(registry, deps.Tmux, deps.Tmux, deps.Emulator, provision.Options{
		Geometry:     cfg.Geometry,
		PollInterval: cfg.PollInterval.D(),
		Timeout:      cfg.ProvisionTimeout.D(),
		BufferSize:   cfg.BufferSize,
	})
	return a, nil
}

// Registry exposes the session registry.
func (a *App) Registry() *session.Registry { return a.registry }

// Prefix is the work prefix of this run.
func (a *App) Prefix() string { return a.prefix }

// Provision creates a tmux session for every declared name, in order.
func (a *App) Provision(ctx context.Context) error {
	_, err := a.provisioner.CreateAll(ctx, a.registry.Names())
	return err
}

// Attach creates a FIFO per session and redirects the session's pane into it.
func (a *App) Attach(ctx context.Context) error {
	for _, s := range a.registry.Sessions() {
		s.PipePath = pipe.Path(a.prefix, s.ID)
		if err := pipe.Create(s.PipePath); err != nil {
			return err
		}
		a.pipes = append(a.pipes, attachment{path: s.PipePath})

		a.logger.WithField("pipe", s.PipePath).Debugf("Redirecting %s", s)
		if err := pipe.Redirect(ctx, a.tmux, s.Target(), s.PipePath); err != nil {
			return err
		}
		a.pipes[len(a.pipes)-1].target = s.Target()
	}
	return nil
}

// Run provisions and attaches every session, then supervises them until a
// signal or ctx stops it. FIFOs are removed on the way out.
func (a *App) Run(ctx context.Context) error {
	defer a.Cleanup()

	a.logger.WithField("prefix", a.prefix).Debugf("Provisioning %d sessions", a.registry.Len())
	if err := a.Provision(ctx); err != nil {
		return err
	}
	if err := a.Attach(ctx); err != nil {
		return err
	}

	sup := supervisor.New(a.registry, a.application, a.dial, a.supOpts)
	return sup.Run(ctx)
}

// Cleanup stops the pane redirections and removes the FIFOs this app
// created.
func (a *App) Cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), detachTimeout)
	defer cancel()

	for _, p := range a.pipes {
		if p.target != "" {
			if err := pipe.Detach(ctx, a.tmux, p.target); err != nil {
				a.logger.WithError(err).Warnf("Stopping pipe of %s", p.target)
			}
		}
		if err := pipe.Remove(p.path); err != nil {
			a.logger.WithError(err).Warn("Removing pipe")
		}
	}
	a.pipes = nil
}
