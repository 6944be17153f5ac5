package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger("test-component")
	if logger == nil {
		t.Fatal("Expected logger to be created")
	}

	// Verify it's a logrus.Entry with the component field
	if logger.Data["component"] != "test-component" {
		t.Errorf("Expected component to be 'test-component', got %v", logger.Data["component"])
	}

	if NewLogger("test-component") != logger {
		t.Error("Expected the same entry for the same component")
	}
	if NewLogger("other").Logger != logger.Logger {
		t.Error("Expected all components to share the root logger")
	}
}

func TestLoggerOutput(t *testing.T) {
	var buf bytes.Buffer

	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&TextFormatter{Config: FormatConfig{}})

	entry := logger.WithField("component", "test")
	entry.Info("Test message")

	output := buf.String()

	if !strings.Contains(output, "[INFO]") {
		t.Errorf("Expected output to contain [INFO], got: %s", output)
	}
	if !strings.Contains(output, "[test]") {
		t.Errorf("Expected output to contain [test], got: %s", output)
	}
	if !strings.Contains(output, "Test message") {
		t.Errorf("Expected output to contain 'Test message', got: %s", output)
	}
}

func TestTextFormatter(t *testing.T) {
	stamp := time.Date(2024, 3, 9, 14, 5, 7, 123456000, time.UTC)

	tests := []struct {
		name    string
		config  FormatConfig
		entry   *logrus.Entry
		want    []string
		notWant []string
	}{
		{
			name:   "default format",
			config: FormatConfig{},
			entry: &logrus.Entry{
				Time:    stamp,
				Level:   logrus.InfoLevel,
				Message: "test message",
				Data: logrus.Fields{
					"component": "supervisor",
					"session":   "build",
					"elapsed":   "1.5s",
				},
			},
			want:    []string{"20240309_140507.123456", "[INFO]", "[supervisor]", "test message", "elapsed=1.5s session=build"},
			notWant: []string{},
		},
		{
			name: "simple format",
			config: FormatConfig{
				DisableTimestamp: true,
				DisableComponent: true,
			},
			entry: &logrus.Entry{
				Time:    stamp,
				Level:   logrus.WarnLevel,
				Message: "warning message",
				Data: logrus.Fields{
					"component": "provision",
				},
			},
			want:    []string{"[WARN]", "warning message"},
			notWant: []string{"[provision]", "20240309"},
		},
		{
			name:   "caller information with function name",
			config: FormatConfig{},
			entry: func() *logrus.Entry {
				logger := logrus.New()
				logger.SetReportCaller(true)
				return &logrus.Entry{
					Logger:  logger,
					Time:    stamp,
					Level:   logrus.InfoLevel,
					Message: "test message with caller",
					Data: logrus.Fields{
						"component": "framer",
					},
					Caller: &runtime.Frame{
						File:     "/path/to/file.go",
						Line:     42,
						Function: "github.com/example/package.TestFunction",
					},
				}
			}(),
			want:    []string{"[INFO]", "[framer]", "test message with caller", "[file.go:42 package.TestFunction]"},
			notWant: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := &TextFormatter{Config: tt.config}

			output, err := formatter.Format(tt.entry)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			outputStr := string(output)
			for _, want := range tt.want {
				if !strings.Contains(outputStr, want) {
					t.Errorf("Expected output to contain '%s', got: %s", want, outputStr)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(outputStr, notWant) {
					t.Errorf("Expected output NOT to contain '%s', got: %s", notWant, outputStr)
				}
			}
		})
	}
}

func TestSetupFileSink(t *testing.T) {
	t.Setenv("TERMESTRA_LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "logs", "termestra-base.log")

	err := Setup(Config{
		Level: "debug",
		File:  FileSinkConfig{Enabled: true, Path: path},
		Format: FormatConfig{
			StructuredToStderr: "never",
		},
	})
	require.NoError(t, err)
	defer func() { _ = Close() }()

	NewLogger("setup-test").Debug("written to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG] [setup-test] written to file")
	assert.Equal(t, logrus.DebugLevel, Root().GetLevel())
}

func TestSetupRejectsBadLevel(t *testing.T) {
	t.Setenv("TERMESTRA_LOG_LEVEL", "")
	err := Setup(Config{Level: "chatty"})
	assert.Error(t, err)
}

func TestEnvironmentLevelOverride(t *testing.T) {
	t.Setenv("TERMESTRA_LOG_LEVEL", "error")

	require.NoError(t, Setup(Config{Level: "debug", Format: FormatConfig{StructuredToStderr: "always"}}))
	assert.Equal(t, logrus.ErrorLevel, Root().GetLevel())

	t.Setenv("TERMESTRA_LOG_LEVEL", "")
	require.NoError(t, Setup(Config{Level: "info"}))
	assert.Equal(t, logrus.InfoLevel, Root().GetLevel())
}
