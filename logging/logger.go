package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex

	// root is shared by every component logger so that Setup reconfigures
	// loggers handed out before it ran.
	root    = newRoot()
	logFile *os.File
)

func newRoot() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&TextFormatter{})
	logger.SetLevel(levelFromEnv(logrus.InfoLevel))
	return logger
}

// NewLogger returns the logger for a specific component.
// It uses a singleton pattern per component to avoid re-initializing.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	entry := root.WithField("component", component)
	loggers[component] = entry
	return entry
}

// Root returns the logger shared by all components.
func Root() *logrus.Logger {
	return root
}

// Setup applies cfg to the shared logger: level, caller reporting,
// formatter and sinks. It may be called again to reconfigure; a previously
// opened log file is closed.
func Setup(cfg Config) error {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	// Configure Level
	level := logrus.InfoLevel
	if cfg.Level != "" {
		parsed, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	root.SetLevel(levelFromEnv(level))

	// Configure Caller Reporting
	root.SetReportCaller(os.Getenv("TERMESTRA_LOG_CALLER") == "true" || cfg.ReportCaller)

	// Configure Output Sinks
	var writers []io.Writer

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	if cfg.File.Enabled && cfg.File.Path != "" {
		path := expandPath(cfg.File.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", path, err)
		}
		logFile = file
		writers = append(writers, file)
	}

	interactive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())

	shouldLogToStderr := false
	switch cfg.Format.StructuredToStderr {
	case "always":
		shouldLogToStderr = true
	case "never":
		shouldLogToStderr = false
	default:
		// "auto": stderr gets logs when there is no file sink, when debugging,
		// or when stderr is not a terminal (piped, CI)
		isDebug := root.GetLevel() >= logrus.DebugLevel
		shouldLogToStderr = len(writers) == 0 || isDebug || !interactive
	}
	if shouldLogToStderr {
		writers = append(writers, os.Stderr)
	}

	// Configure Formatter
	format := cfg.Format
	format.Color = format.Color && interactive && len(writers) == 1 && shouldLogToStderr
	switch format.Preset {
	case "json":
		root.SetFormatter(&logrus.JSONFormatter{TimestampFormat: TimestampFormat})
	case "simple":
		root.SetFormatter(&TextFormatter{Config: FormatConfig{
			DisableTimestamp: true,
			DisableComponent: true,
		}})
	default:
		root.SetFormatter(&TextFormatter{Config: format})
	}

	switch len(writers) {
	case 0:
		root.SetOutput(io.Discard)
	case 1:
		root.SetOutput(writers[0])
	default:
		root.SetOutput(io.MultiWriter(writers...))
	}

	return nil
}

// Close releases the file sink, if any.
func Close() error {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	root.SetOutput(os.Stderr)
	return err
}

func levelFromEnv(fallback logrus.Level) logrus.Level {
	if env := os.Getenv("TERMESTRA_LOG_LEVEL"); env != "" {
		if level, err := logrus.ParseLevel(env); err == nil {
			return level
		}
	}
	return fallback
}

// expandPath expands tilde in file paths
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
