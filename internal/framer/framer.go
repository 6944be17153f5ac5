// Package framer reframes a session's raw pane output, delivered in chunks
// that ignore line boundaries, into CRLF-terminated lines with command
// timing.
package framer

import (
	"bytes"
	"time"
)

// DefaultCapacity is the size of a session's reusable frame buffer.
const DefaultCapacity = 4096

// MinCapacity is the smallest usable buffer: an overflow flush keeps a
// trailing '\r' in place, so at least one more byte must fit behind it.
const MinCapacity = 2

var crlf = []byte("\r\n")

// Line is one unit of delivered output.
type Line struct {
	// Text never includes the terminating CRLF. It is a copy and stays valid
	// after later calls to Feed.
	Text []byte
	// Partial marks a fragment of a line longer than the buffer. The rest of
	// the line follows in later deliveries; only the last piece is complete.
	Partial bool
}

// Framer holds one session's frame state: a fixed-capacity buffer, the
// write cursor into it, and the start of the command currently producing
// output. A Framer is not safe for concurrent use; the supervisor loop owns it.
type Framer struct {
	buf      []byte
	cursor   int
	cmdStart time.Time
	inCmd    bool
}

// New returns a Framer with the given buffer capacity. Capacities below
// MinCapacity are raised to it.
func New(capacity int) *Framer {
	if capacity < MinCapacity {
		capacity = MinCapacity
	}
	return &Framer{buf: make([]byte, capacity)}
}

// Feed consumes one chunk received at now. It returns the lines completed
// (or overflowed) by the chunk, and the time elapsed since the current
// command's first byte. A chunk that ends exactly on a line break leaves the
// framer quiescent: the next byte starts a new command timer.
func (f *Framer) Feed(chunk []byte, now time.Time) ([]Line, time.Duration) {
	if len(chunk) == 0 {
		return nil, f.elapsed(now)
	}
	if !f.inCmd {
		f.cmdStart = now
		f.inCmd = true
	}

	var lines []Line
	endedOnBreak := false
	for len(chunk) > 0 {
		if f.cursor == len(f.buf) {
			lines = f.spill(lines)
		}

		n := copy(f.buf[f.cursor:], chunk)
		chunk = chunk[n:]
		valid := f.buf[:f.cursor+n]

		last := bytes.LastIndex(valid, crlf)
		if last < 0 {
			f.cursor += n
			endedOnBreak = false
			continue
		}

		for _, seg := range bytes.Split(valid[:last], crlf) {
			lines = append(lines, Line{Text: bytes.Clone(seg)})
		}
		// The residual may overlap its destination; copy handles that.
		f.cursor = copy(f.buf, valid[last+len(crlf):])
		endedOnBreak = f.cursor == 0
	}

	elapsed := f.elapsed(now)
	if endedOnBreak {
		f.inCmd = false
		f.cmdStart = time.Time{}
	}
	return lines, elapsed
}

// spill flushes a full buffer that holds no line break as a partial line.
// A trailing '\r' stays behind since it may be the first half of a CRLF
// split across the overflow boundary.
func (f *Framer) spill(lines []Line) []Line {
	keep := 0
	if f.buf[f.cursor-1] == '\r' {
		keep = 1
	}
	lines = append(lines, Line{Text: bytes.Clone(f.buf[:f.cursor-keep]), Partial: true})
	if keep == 1 {
		f.buf[0] = '\r'
	}
	f.cursor = keep
	return lines
}

func (f *Framer) elapsed(now time.Time) time.Duration {
	if !f.inCmd {
		return 0
	}
	return now.Sub(f.cmdStart)
}

// Residual returns a copy of the bytes of the current unterminated line
// still held in the buffer.
func (f *Framer) Residual() []byte {
	return bytes.Clone(f.buf[:f.cursor])
}

// Cursor is the number of buffered bytes.
func (f *Framer) Cursor() int { return f.cursor }

// Cap is the buffer capacity.
func (f *Framer) Cap() int { return len(f.buf) }

// CommandStart reports when the in-flight command began producing output.
func (f *Framer) CommandStart() (time.Time, bool) {
	return f.cmdStart, f.inCmd
}

// Quiescent is true when no command is in flight.
func (f *Framer) Quiescent() bool { return !f.inCmd }

// Reset drops buffered bytes and command timing.
func (f *Framer) Reset() {
	f.cursor = 0
	f.inCmd = false
	f.cmdStart = time.Time{}
}
