package cmd

import (
	"context"
	"time"

	"github.com/grovetools/termestra/cli"
	"github.com/grovetools/termestra/config"
	"github.com/grovetools/termestra/internal/app"
	"github.com/grovetools/termestra/logging"
	"github.com/grovetools/termestra/pkg/terminal"
	"github.com/grovetools/termestra/pkg/tmux"
	"github.com/spf13/cobra"
)

const (
	defaultBaseGeometry = "132x40+125+125"
	defaultTmuxGeometry = "80x48+125+250"
)

// newDeps builds the live tmux client and terminal emulator. Tests replace
// it with fakes.
var newDeps = func(cfg *config.Config) (app.Deps, error) {
	client, err := tmux.NewClientWithSocket(cfg.TmuxSocket)
	if err != nil {
		return app.Deps{}, err
	}

	tmuxCmd := "tmux"
	if cfg.TmuxSocket != "" {
		tmuxCmd += " -L " + cfg.TmuxSocket
	}
	return app.Deps{
		Tmux:     client,
		Emulator: terminal.NewGnome(nil, tmuxCmd),
	}, nil
}

var now = time.Now

// addSessionFlags registers the flags shared by the orchestration commands.
func addSessionFlags(cmd *cobra.Command, geometry string) {
	cmd.Flags().String("log-level", "INFO", "Log level (DEBUG, INFO, WARNING, ERROR, CRITICAL)")
	cmd.Flags().String("wrk-stub", config.DefaultWorkStub, "Prefix of the log file and pipes of this run")
	cmd.Flags().String("geometry", geometry, "Geometry of the terminal window")
	cmd.Flags().String("tab-names", config.DefaultTabName, "Comma separated names of the tabs to open")
	cmd.Flags().String("tmux-socket", "", "Use a dedicated tmux server on this socket")
}

// orchestrate resolves the configuration of a run, sets up logging under
// the run's work prefix and hands a fresh App to fn. Configuration problems
// are returned as they are; anything failing once the run has started is
// logged and turned into an orchestration exit.
func orchestrate(cmd *cobra.Command, name string, fn func(context.Context, *app.App) error) error {
	cfg, path, err := cli.LoadConfig(cmd)
	if err != nil {
		return err
	}
	cli.ApplyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	prefix := app.WorkPrefix(cfg.WorkStub, name, now())
	if err := cli.SetupLogging(cmd, cfg, prefix); err != nil {
		return err
	}
	defer logging.Close()

	logger := logging.NewLogger("termestra")
	logger.Infof("Starting \"termestra %s\"", name)
	if path != "" {
		logger.WithField("config", path).Debug("Loaded configuration")
	}

	if err := start(cmd.Context(), cfg, prefix, fn); err != nil {
		logger.WithError(err).Errorf("\"termestra %s\" failed", name)
		return &cli.ExitError{Code: cli.ExitOrchestration, Err: err}
	}

	logger.Infof("Finished \"termestra %s\"", name)
	return nil
}

func start(ctx context.Context, cfg *config.Config, prefix string, fn func(context.Context, *app.App) error) error {
	deps, err := newDeps(cfg)
	if err != nil {
		return err
	}
	a, err := app.New(cfg, prefix, deps)
	if err != nil {
		return err
	}
	return fn(ctx, a)
}
