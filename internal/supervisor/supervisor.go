// Package supervisor runs the event loop that reads every session's pipe,
// frames its output into lines and hands them to an Application.
//
// All session state is owned by the loop goroutine. Reader goroutines only
// block on I/O and pass copies of what they read over a channel.
package supervisor

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/grovetools/termestra/errors"
	"github.com/grovetools/termestra/internal/framer"
	"github.com/grovetools/termestra/internal/session"
	"github.com/grovetools/termestra/logging"
	"github.com/sirupsen/logrus"
)

const (
	DefaultHousekeepingInterval = 5 * time.Second
	DefaultIdleInterval         = 2 * time.Second
	DefaultReadSize             = 4096
)

// Application receives session events. Every method is called from the
// supervisor loop goroutine.
type Application interface {
	ConnMade(name string)
	// ConnLost reports the end of a session's connection. err is nil for a
	// clean close.
	ConnLost(name string, err error)
	DataReceived(name string, lines []framer.Line, elapsed time.Duration)
	Housekeeping()
}

// Dialer opens the read side of a session's pipe. It may block until the
// writer attaches and must return when ctx is done.
type Dialer func(ctx context.Context, s *session.Session) (io.ReadCloser, error)

// Phase is the supervisor's shutdown state.
type Phase int32

const (
	Running Phase = iota
	HaltRequested
	Draining
	Done
)

func (p Phase) String() string {
	switch p {
	case Running:
		return "running"
	case HaltRequested:
		return "halt-requested"
	case Draining:
		return "draining"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Options tune a Supervisor. Zero values take the package defaults.
type Options struct {
	HousekeepingInterval time.Duration
	IdleInterval         time.Duration
	ReadSize             int
	Signals              []os.Signal

	// Notify and StopNotify install and remove signal delivery. They default
	// to signal.Notify and signal.Stop.
	Notify     func(c chan<- os.Signal, sig ...os.Signal)
	StopNotify func(c chan<- os.Signal)

	// Now stamps inbound chunks. Defaults to time.Now.
	Now func() time.Time
}

type eventKind int

const (
	evConnected eventKind = iota
	evData
	evLost
)

type event struct {
	kind eventKind
	name string
	conn io.ReadCloser
	data []byte
	err  error
}

// Supervisor multiplexes pipe events, the housekeeping tick and shutdown
// signals for a set of provisioned sessions.
type Supervisor struct {
	registry *session.Registry
	app      Application
	dial     Dialer
	opts     Options
	phase    atomic.Int32
	conns    map[string]io.ReadCloser
	// cancelDial releases readers still waiting for a writer.
	cancelDial context.CancelFunc
	logger     *logrus.Entry
}

// New creates a Supervisor for every provisioned session in registry.
func New(registry *session.Registry, app Application, dial Dialer, opts Options) *Supervisor {
	if opts.HousekeepingInterval <= 0 {
		opts.HousekeepingInterval = DefaultHousekeepingInterval
	}
	if opts.IdleInterval <= 0 {
		opts.IdleInterval = DefaultIdleInterval
	}
	if opts.ReadSize <= 0 {
		opts.ReadSize = DefaultReadSize
	}
	if len(opts.Signals) == 0 {
		opts.Signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	if opts.Notify == nil {
		opts.Notify = signal.Notify
	}
	if opts.StopNotify == nil {
		opts.StopNotify = signal.Stop
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Supervisor{
		registry: registry,
		app:      app,
		dial:     dial,
		opts:     opts,
		conns:    make(map[string]io.ReadCloser),
		logger:   logging.NewLogger("supervisor"),
	}
}

// Phase reports the current shutdown state. Safe to call from any goroutine.
func (s *Supervisor) Phase() Phase {
	return Phase(s.phase.Load())
}

func (s *Supervisor) setPhase(p Phase) {
	s.phase.Store(int32(p))
	s.logger.Debugf("Phase %s", p)
}

// Run reads every session until a signal or ctx asks it to stop. A halt is
// acted on at the next housekeeping tick, and Run returns at the first idle
// tick after the connections are closed. The first transport error seen is
// returned as an ErrCodeConnectionLost error; clean closes are not errors.
func (s *Supervisor) Run(ctx context.Context) error {
	s.setPhase(Running)

	sigs := make(chan os.Signal, 1)
	s.opts.Notify(sigs, s.opts.Signals...)
	signalsInstalled := true
	defer func() {
		if signalsInstalled {
			s.opts.StopNotify(sigs)
		}
	}()

	events := make(chan event, 64)
	done := make(chan struct{})
	defer close(done)

	dialCtx, cancelDial := context.WithCancel(context.Background())
	s.cancelDial = cancelDial
	defer cancelDial()

	for _, sess := range s.registry.Sessions() {
		go s.read(dialCtx, sess, events, done)
	}

	housekeeping := time.NewTicker(s.opts.HousekeepingInterval)
	defer housekeeping.Stop()
	ticks := housekeeping.C
	// Run returns only on an idle tick, at most one idle interval after the
	// drain.
	idle := time.NewTicker(s.opts.IdleInterval)
	defer idle.Stop()

	ctxDone := ctx.Done()
	var runErr error

	for {
		select {
		case ev := <-events:
			if err := s.handle(ev); err != nil {
				s.logger.WithError(err).Error("Connection lost")
				if runErr == nil {
					runErr = err
				}
				s.requestHalt("connection lost")
			}

		case sig := <-sigs:
			s.requestHalt(sig.String())

		case <-ctxDone:
			ctxDone = nil
			s.requestHalt("context done")

		case <-ticks:
			s.app.Housekeeping()
			if s.Phase() == HaltRequested {
				s.drain()
				s.opts.StopNotify(sigs)
				signalsInstalled = false
				// No housekeeping once done.
				housekeeping.Stop()
				ticks = nil
				s.setPhase(Done)
			}

		case <-idle.C:
			if s.Phase() == Done {
				return runErr
			}
		}
	}
}

func (s *Supervisor) requestHalt(reason string) {
	if s.Phase() != Running {
		return
	}
	s.logger.WithField("reason", reason).Info("Halt requested")
	s.setPhase(HaltRequested)
}

// drain closes every open connection and releases pending dials. Closed
// connections are reported to the Application right away.
func (s *Supervisor) drain() {
	s.setPhase(Draining)
	s.cancelDial()
	for _, sess := range s.registry.Sessions() {
		if sess.Conn != session.ConnOpen {
			continue
		}
		sess.Conn = session.ConnClosing
		if conn := s.conns[sess.Name]; conn != nil {
			if err := conn.Close(); err != nil {
				s.logger.WithError(err).Warnf("Closing %s", sess)
			}
		}
		_ = s.lost(sess, nil)
	}
}

func (s *Supervisor) handle(ev event) error {
	sess, err := s.registry.Lookup(ev.name)
	if err != nil {
		return err
	}

	switch ev.kind {
	case evConnected:
		if s.Phase() >= Draining {
			ev.conn.Close()
			sess.Conn = session.ConnClosed
			return nil
		}
		s.conns[sess.Name] = ev.conn
		sess.Conn = session.ConnOpen
		sess.Link = session.LinkConnected
		s.logger.Debugf("Connected %s", sess)
		s.app.ConnMade(sess.Name)

	case evData:
		lines, elapsed := sess.Frame.Feed(ev.data, s.opts.Now())
		if len(lines) > 0 {
			s.app.DataReceived(sess.Name, lines, elapsed)
		}

	case evLost:
		switch {
		case sess.Conn == session.ConnClosed:
			// already reported
		case sess.Conn == session.ConnUnset && s.Phase() >= Draining:
			sess.Conn = session.ConnClosed
			sess.Link = session.LinkDisconnected
		default:
			lostErr := ev.err
			if stderrors.Is(lostErr, os.ErrClosed) {
				lostErr = nil
			}
			return s.lost(sess, lostErr)
		}
	}
	return nil
}

func (s *Supervisor) lost(sess *session.Session, err error) error {
	delete(s.conns, sess.Name)
	sess.Conn = session.ConnClosed
	sess.Link = session.LinkDisconnected
	s.logger.WithError(err).Debugf("Disconnected %s", sess)
	s.app.ConnLost(sess.Name, err)
	if err != nil {
		return errors.ConnectionLost(sess.Name, err)
	}
	return nil
}

// read dials sess and forwards what it reads until the connection ends.
func (s *Supervisor) read(ctx context.Context, sess *session.Session, events chan<- event, done <-chan struct{}) {
	send := func(ev event) bool {
		select {
		case events <- ev:
			return true
		case <-done:
			return false
		}
	}

	conn, err := s.dial(ctx, sess)
	if err != nil {
		send(event{kind: evLost, name: sess.Name, err: err})
		return
	}
	if !send(event{kind: evConnected, name: sess.Name, conn: conn}) {
		conn.Close()
		return
	}

	buf := make([]byte, s.opts.ReadSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			data := append([]byte(nil), buf[:n]...)
			if !send(event{kind: evData, name: sess.Name, data: data}) {
				return
			}
		}
		if err != nil {
			if err == io.EOF {
				err = nil
			}
			send(event{kind: evLost, name: sess.Name, err: err})
			return
		}
	}
}
