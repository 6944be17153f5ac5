// Package provision creates the tmux sessions that back declared names,
// one terminal window or tab at a time.
package provision

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/grovetools/termestra/errors"
	"github.com/grovetools/termestra/internal/framer"
	"github.com/grovetools/termestra/internal/session"
	"github.com/grovetools/termestra/logging"
	"github.com/grovetools/termestra/pkg/terminal"
	"github.com/grovetools/termestra/pkg/tmux"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultTimeout      = 30 * time.Second
)

// Directory lists tmux sessions and reads pane content.
type Directory interface {
	ListSessions(ctx context.Context) ([]tmux.SessionInfo, error)
	CapturePane(ctx context.Context, target string) (string, error)
}

// Keys types into a tmux pane.
type Keys interface {
	SendKeys(ctx context.Context, target string, keys ...string) error
}

// Options tune a Provisioner. Zero values take the package defaults.
type Options struct {
	Geometry     string
	PollInterval time.Duration
	Timeout      time.Duration
	BufferSize   int
}

// Provisioner turns declared session names into live tmux sessions.
type Provisioner struct {
	registry *session.Registry
	dir      Directory
	keys     Keys
	emulator terminal.Emulator
	opts     Options
	last     *session.Session
	logger   *logrus.Entry
}

// New creates a Provisioner registering into registry.
func New(registry *session.Registry, dir Directory, keys Keys, emulator terminal.Emulator, opts Options) *Provisioner {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = framer.DefaultCapacity
	}
	return &Provisioner{
		registry: registry,
		dir:      dir,
		keys:     keys,
		emulator: emulator,
		opts:     opts,
		logger:   logging.NewLogger("provision"),
	}
}

// Last returns the most recently created session, or nil.
func (p *Provisioner) Last() *session.Session {
	return p.last
}

// Create opens a terminal for name, waits for the new tmux session to appear
// and its shell to render, then registers it.
func (p *Provisioner) Create(ctx context.Context, name string) (*session.Session, error) {
	if !p.registry.IsDeclared(name) {
		return nil, errors.UnknownSession(name)
	}
	if p.registry.IsProvisioned(name) {
		return nil, errors.DuplicateSession(name)
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	baseline, err := p.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	if p.last == nil {
		p.logger.WithField("geometry", p.opts.Geometry).Debugf("Opening window for %q", name)
		if err := p.emulator.CreateWindow(ctx, p.opts.Geometry, name); err != nil {
			return nil, err
		}
	} else {
		p.logger.WithField("anchor", p.last.String()).Debugf("Opening tab for %q", name)
		if err := p.keys.SendKeys(ctx, p.last.Target(), p.emulator.CreateTabCommand(name), "Enter"); err != nil {
			return nil, err
		}
	}

	handle, err := p.awaitSession(ctx, name, baseline)
	if err != nil {
		return nil, err
	}

	s, err := session.New(name, handle, p.opts.BufferSize)
	if err != nil {
		return nil, err
	}
	if err := p.awaitPrompt(ctx, s); err != nil {
		return nil, err
	}
	if err := p.registry.Provision(s); err != nil {
		return nil, err
	}
	p.last = s

	p.logger.Infof("Session %s ready", s)
	return s, nil
}

// CreateAll provisions names in order and stops at the first failure.
func (p *Provisioner) CreateAll(ctx context.Context, names []string) ([]*session.Session, error) {
	created := make([]*session.Session, 0, len(names))
	for _, name := range names {
		s, err := p.Create(ctx, name)
		if err != nil {
			return created, err
		}
		created = append(created, s)
	}
	return created, nil
}

func (p *Provisioner) snapshot(ctx context.Context) (map[string]struct{}, error) {
	sessions, err := p.dir.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		ids[s.ID] = struct{}{}
	}
	return ids, nil
}

// awaitSession polls until a session outside baseline shows up and returns
// its id.
func (p *Provisioner) awaitSession(ctx context.Context, name string, baseline map[string]struct{}) (string, error) {
	var handle string
	err := p.poll(ctx, name, "session", func() (bool, error) {
		current, err := p.snapshot(ctx)
		if err != nil {
			return false, err
		}
		var fresh []string
		for id := range current {
			if _, seen := baseline[id]; !seen {
				fresh = append(fresh, id)
			}
		}
		switch len(fresh) {
		case 0:
			return false, nil
		case 1:
			handle = fresh[0]
			return true, nil
		default:
			sort.Strings(fresh)
			return false, errors.AmbiguousSession(name, fresh)
		}
	})
	return handle, err
}

// awaitPrompt polls until the session's pane shows something.
func (p *Provisioner) awaitPrompt(ctx context.Context, s *session.Session) error {
	return p.poll(ctx, s.Name, "prompt", func() (bool, error) {
		out, err := p.dir.CapturePane(ctx, s.Target())
		if err != nil {
			return false, err
		}
		return strings.TrimSpace(out) != "", nil
	})
}

// poll runs check immediately and then on every tick until it reports done,
// fails, or ctx ends.
func (p *Provisioner) poll(ctx context.Context, name, stage string, check func() (bool, error)) error {
	ticker := time.NewTicker(p.opts.PollInterval)
	defer ticker.Stop()

	for {
		done, err := check()
		if ctxErr := p.contextError(ctx, name, stage); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		select {
		case <-ctx.Done():
			return p.contextError(ctx, name, stage)
		case <-ticker.C:
		}
	}
}

func (p *Provisioner) contextError(ctx context.Context, name, stage string) error {
	switch ctx.Err() {
	case nil:
		return nil
	case context.DeadlineExceeded:
		return errors.ProvisionTimeout(name, stage, p.opts.Timeout)
	default:
		return errors.Canceled("provision "+name, ctx.Err())
	}
}
