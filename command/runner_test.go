package command

import (
	"context"
	"testing"

	"github.com/grovetools/termestra/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerCapture(t *testing.T) {
	r := NewRunner(nil)
	ctx := context.Background()

	t.Run("success returns stdout", func(t *testing.T) {
		out, err := r.Run(ctx, "sh", "-c", "printf hello")
		require.NoError(t, err)
		assert.Equal(t, "hello", out)
	})

	t.Run("non-zero exit wraps stderr", func(t *testing.T) {
		res, err := r.Capture(ctx, nil, "sh", "-c", "echo partial; echo broken >&2; exit 3")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeCommandFailed))
		assert.Equal(t, 3, res.ExitCode)
		assert.Equal(t, "partial\n", res.Stdout)

		oe, ok := errors.As(err)
		require.True(t, ok)
		assert.Equal(t, "broken", oe.Details["stderr"])
		assert.Equal(t, 3, oe.Details["exitCode"])
	})

	t.Run("missing executable", func(t *testing.T) {
		_, err := r.Run(ctx, "termestra-definitely-not-installed")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeCommandNotFound))
	})

	t.Run("shell with environment", func(t *testing.T) {
		out, err := r.Shell(ctx, `printf "%s" "$TERMESTRA_TEST_VALUE"`, []string{"TERMESTRA_TEST_VALUE=42"})
		require.NoError(t, err)
		assert.Equal(t, "42", out)
	})
}
