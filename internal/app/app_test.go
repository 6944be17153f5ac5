package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/grovetools/termestra/config"
	"github.com/grovetools/termestra/errors"
	"github.com/grovetools/termestra/internal/framer"
	"github.com/grovetools/termestra/internal/supervisor"
	"github.com/grovetools/termestra/pkg/tmux"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTmux opens a session per terminal request and plays the part of
// `cat > fifo` when a pane is piped.
type fakeTmux struct {
	mu       sync.Mutex
	sessions []tmux.SessionInfo
	piped    []string
	stopped  []string
	windows  int
	tabs     int
}

func (f *fakeTmux) add(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, tmux.SessionInfo{ID: fmt.Sprintf("$%d", len(f.sessions)), Name: name})
}

func (f *fakeTmux) ListSessions(context.Context) ([]tmux.SessionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tmux.SessionInfo(nil), f.sessions...), nil
}

func (f *fakeTmux) CapturePane(context.Context, string) (string, error) {
	return "$ ", nil
}

func (f *fakeTmux) SendKeys(_ context.Context, _ string, keys ...string) error {
	f.mu.Lock()
	f.tabs++
	f.mu.Unlock()
	f.add(keys[0])
	return nil
}

func (f *fakeTmux) CreateWindow(_ context.Context, _, name string) error {
	f.mu.Lock()
	f.windows++
	f.mu.Unlock()
	f.add(name)
	return nil
}

func (f *fakeTmux) CreateTabCommand(name string) string { return "tab " + name }

func (f *fakeTmux) StopPipePane(_ context.Context, target string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, target)
	return nil
}

func (f *fakeTmux) PipePane(_ context.Context, target, shellCommand string) error {
	path := strings.TrimPrefix(shellCommand, "cat > ")
	f.mu.Lock()
	f.piped = append(f.piped, target+" "+path)
	f.mu.Unlock()

	go func() {
		w, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			return
		}
		defer w.Close()
		_, _ = w.Write([]byte("prompt " + target + "\r\n"))
	}()
	return nil
}

type recordingApp struct {
	mu    sync.Mutex
	lines map[string][]string
	lost  map[string]error
}

func (r *recordingApp) ConnMade(string) {}

func (r *recordingApp) ConnLost(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lost[name] = err
}

func (r *recordingApp) DataReceived(name string, lines []framer.Line, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range lines {
		r.lines[name] = append(r.lines[name], string(l.Text))
	}
}

func (r *recordingApp) Housekeeping() {}

func (r *recordingApp) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}

func testConfig(names ...string) *config.Config {
	cfg := config.Default()
	cfg.TabNames = names
	cfg.Geometry = "80x48+125+250"
	cfg.PollInterval = config.Duration(time.Millisecond)
	cfg.ProvisionTimeout = config.Duration(2 * time.Second)
	cfg.HousekeepingInterval = config.Duration(10 * time.Millisecond)
	cfg.IdleInterval = config.Duration(5 * time.Millisecond)
	return cfg
}

var quietSignals = &supervisor.Options{
	Notify:     func(chan<- os.Signal, ...os.Signal) {},
	StopNotify: func(chan<- os.Signal) {},
}

func TestWorkPrefix(t *testing.T) {
	now := time.Date(2024, 3, 9, 7, 5, 2, 0, time.UTC)
	assert.Equal(t, "/tmp/termestra-base-20240309_070502", WorkPrefix("/tmp/termestra", "base", now))
}

func TestNewRejectsDuplicateNames(t *testing.T) {
	_, err := New(testConfig("a", "b", "a"), "/tmp/x", Deps{})
	assert.True(t, errors.Is(err, errors.ErrCodeDuplicateSession))
}

func TestProvisionOnly(t *testing.T) {
	ft := &fakeTmux{}
	prefix := filepath.Join(t.TempDir(), "wrk")
	a, err := New(testConfig("one", "two"), prefix, Deps{Tmux: ft, Emulator: ft})
	require.NoError(t, err)

	require.NoError(t, a.Provision(context.Background()))
	assert.Equal(t, 1, ft.windows)
	assert.Equal(t, 1, ft.tabs)
	assert.Len(t, a.Registry().Sessions(), 2)
	assert.Empty(t, ft.piped, "provisioning does not touch pipes")
}

func TestRunCapturesPaneOutput(t *testing.T) {
	ft := &fakeTmux{}
	rec := &recordingApp{lines: map[string][]string{}, lost: map[string]error{}}
	prefix := filepath.Join(t.TempDir(), "wrk")

	a, err := New(testConfig("one", "two"), prefix, Deps{
		Tmux:        ft,
		Emulator:    ft,
		Application: rec,
		Supervisor:  quietSignals,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	result := make(chan error, 1)
	go func() { result <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return rec.count() == 2 }, 5*time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}

	assert.Equal(t, []string{"prompt $0:0"}, rec.lines["one"])
	assert.Equal(t, []string{"prompt $1:0"}, rec.lines["two"])
	assert.Equal(t, []string{"$0:0 " + prefix + "-pipe-0", "$1:0 " + prefix + "-pipe-1"}, ft.piped)
	assert.Equal(t, []string{"$0:0", "$1:0"}, ft.stopped)

	for _, id := range []int{0, 1} {
		_, err := os.Stat(fmt.Sprintf("%s-pipe-%d", prefix, id))
		assert.True(t, os.IsNotExist(err), "pipe %d not removed", id)
	}
}

func TestRunReportsProvisionFailure(t *testing.T) {
	ft := &fakeTmux{}
	a, err := New(testConfig("one"), filepath.Join(t.TempDir(), "wrk"), Deps{
		Tmux:       ft,
		Emulator:   failingTerminal{},
		Supervisor: quietSignals,
	})
	require.NoError(t, err)

	err = a.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeCommandFailed))
}

type failingTerminal struct{}

func (failingTerminal) CreateWindow(context.Context, string, string) error {
	return errors.CommandFailed("gnome-terminal --window", "cannot open display", stderrors.New("exit status 1"))
}

func (failingTerminal) CreateTabCommand(string) string { return "" }

func TestLogApplication(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	app := NewLogApplication(logrus.NewEntry(logger))

	app.ConnMade("main")
	app.DataReceived("main", []framer.Line{{Text: []byte("ls")}, {Text: []byte("par"), Partial: true}}, 3*time.Millisecond)
	app.Housekeeping()
	app.ConnLost("main", nil)
	app.ConnLost("main", stderrors.New("broken pipe"))

	entries := hook.AllEntries()
	require.Len(t, entries, 6)
	assert.Equal(t, "Connected: 'main'", entries[0].Message)
	assert.Equal(t, `DataReceived: "ls"`, entries[1].Message)
	assert.Equal(t, "3ms", entries[1].Data["elapsed"])
	assert.Equal(t, true, entries[2].Data["partial"])
	assert.Equal(t, 1, entries[3].Data["tick"])
	assert.Equal(t, logrus.InfoLevel, entries[4].Level)
	assert.Equal(t, logrus.WarnLevel, entries[5].Level)

	hook.Reset()
	logger.SetLevel(logrus.InfoLevel)
	app.DataReceived("main", []framer.Line{{Text: []byte("quiet")}}, 0)
	assert.Empty(t, hook.AllEntries())
}
