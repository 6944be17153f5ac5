// Package session holds the authoritative mapping from session name to the
// state of the tmux session backing it.
package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/grovetools/termestra/internal/framer"
)

// ConnState tracks the read connection on a session's pipe.
type ConnState int

const (
	ConnUnset ConnState = iota
	ConnOpen
	ConnClosing
	ConnClosed
)

func (c ConnState) String() string {
	switch c {
	case ConnOpen:
		return "open"
	case ConnClosing:
		return "closing"
	case ConnClosed:
		return "closed"
	default:
		return "unset"
	}
}

// Link is the session's disconnected tri-state as seen by transport
// callbacks: unknown until the first callback, then connected or
// disconnected.
type Link int

const (
	LinkUnknown Link = iota
	LinkConnected
	LinkDisconnected
)

func (l Link) String() string {
	switch l {
	case LinkConnected:
		return "connected"
	case LinkDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Session is one interactive shell in a tmux pane.
type Session struct {
	Name string
	// ID is the numeric part of the tmux session id ("$3" -> 3).
	ID int
	// PipePath is the FIFO the pane's output is redirected into.
	PipePath string
	Conn     ConnState
	Link     Link
	Frame    *framer.Framer
}

// New creates a session for a tmux session id such as "$3".
func New(name, handle string, capacity int) (*Session, error) {
	id, err := ParseID(handle)
	if err != nil {
		return nil, err
	}
	return &Session{
		Name:  name,
		ID:    id,
		Frame: framer.New(capacity),
	}, nil
}

// ParseID extracts the number from a tmux session id.
func ParseID(handle string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(handle, "$"))
	if err != nil || !strings.HasPrefix(handle, "$") {
		return 0, fmt.Errorf("invalid tmux session id %q", handle)
	}
	return id, nil
}

// Handle is the stable tmux session id, e.g. "$3".
func (s *Session) Handle() string {
	return "$" + strconv.Itoa(s.ID)
}

// Target addresses the session's first window, where its shell runs.
func (s *Session) Target() string {
	return s.Handle() + ":0"
}

// Disconnected reports the tri-state flag; known is false until a
// transport callback has been seen.
func (s *Session) Disconnected() (disconnected, known bool) {
	return s.Link == LinkDisconnected, s.Link != LinkUnknown
}

func (s *Session) String() string {
	return fmt.Sprintf("%s(%s)", s.Name, s.Handle())
}
