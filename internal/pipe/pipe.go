// Package pipe implements the FIFO transport that carries a tmux pane's
// output to the supervisor.
package pipe

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/grovetools/termestra/command"
	"github.com/grovetools/termestra/errors"
	"golang.org/x/sys/unix"
)

// Panes is the part of a tmux client that attaches a pane to a shell command.
type Panes interface {
	PipePane(ctx context.Context, target, shellCommand string) error
	StopPipePane(ctx context.Context, target string) error
}

var validator = command.NewSafeBuilder()

// Path is the FIFO path for the tmux session with the given numeric id.
func Path(prefix string, id int) string {
	return fmt.Sprintf("%s-pipe-%d", prefix, id)
}

// Create makes a FIFO at path readable and writable by the owner only. An
// existing file at path is an error.
func Create(path string) error {
	if err := validator.Validate("pipePath", path); err != nil {
		return err
	}
	if err := unix.Mkfifo(path, 0600); err != nil {
		return errors.PipeFailed(path, err)
	}
	return nil
}

// Redirect makes tmux copy everything target prints into the FIFO at path.
func Redirect(ctx context.Context, panes Panes, target, path string) error {
	if err := validator.Validate("pipePath", path); err != nil {
		return err
	}
	if err := validator.Validate("paneTarget", target); err != nil {
		return err
	}
	return panes.PipePane(ctx, target, fmt.Sprintf("cat > %s", path))
}

// Detach stops redirecting target's output.
func Detach(ctx context.Context, panes Panes, target string) error {
	if err := validator.Validate("paneTarget", target); err != nil {
		return err
	}
	return panes.StopPipePane(ctx, target)
}

// Open opens the read side of the FIFO at path. It blocks until a writer
// attaches or ctx is done.
func Open(ctx context.Context, path string) (io.ReadCloser, error) {
	type opened struct {
		f   *os.File
		err error
	}
	result := make(chan opened, 1)
	go func() {
		f, err := os.OpenFile(path, os.O_RDONLY, 0)
		result <- opened{f, err}
	}()

	select {
	case r := <-result:
		if r.err != nil {
			return nil, errors.PipeFailed(path, r.err)
		}
		return r.f, nil
	case <-ctx.Done():
		// A non-blocking writer releases the pending open.
		if w, err := os.OpenFile(path, os.O_WRONLY|unix.O_NONBLOCK, 0); err == nil {
			w.Close()
		}
		go func() {
			if r := <-result; r.f != nil {
				r.f.Close()
			}
		}()
		return nil, errors.Canceled("open pipe "+path, ctx.Err())
	}
}

// Remove deletes the FIFO at path. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.PipeFailed(path, err)
	}
	return nil
}
