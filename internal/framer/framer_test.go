package framer

import (
	"bytes"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// reassemble rebuilds the stream from delivered lines plus the residual.
func reassemble(lines []Line, residual []byte) []byte {
	var out bytes.Buffer
	for _, l := range lines {
		out.Write(l.Text)
		if !l.Partial {
			out.Write(crlf)
		}
	}
	out.Write(residual)
	return append([]byte{}, out.Bytes()...)
}

func feedAll(f *Framer, chunks [][]byte) []Line {
	var all []Line
	for i, c := range chunks {
		lines, _ := f.Feed(c, t0.Add(time.Duration(i)*time.Millisecond))
		all = append(all, lines...)
	}
	return all
}

func texts(lines []Line) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, string(l.Text))
	}
	return out
}

func complete(lines []Line) []string {
	var out []string
	for _, l := range lines {
		if !l.Partial {
			out = append(out, string(l.Text))
		}
	}
	return out
}

func TestFeedPartialThenComplete(t *testing.T) {
	f := New(DefaultCapacity)

	lines, _ := f.Feed([]byte("abc"), t0)
	assert.Empty(t, lines)
	assert.Equal(t, "abc", string(f.Residual()))

	lines, _ = f.Feed([]byte("def\r\nghi"), t0.Add(time.Second))
	assert.Equal(t, []string{"abcdef"}, texts(lines))
	assert.False(t, lines[0].Partial)
	assert.Equal(t, "ghi", string(f.Residual()))
}

func TestFeedOverflowWithoutBreak(t *testing.T) {
	f := New(8)

	lines, _ := f.Feed([]byte("0123456789"), t0)
	assert.Empty(t, complete(lines), "no complete line may be delivered")
	require.Len(t, lines, 1)
	assert.True(t, lines[0].Partial)
	assert.Equal(t, "01234567", string(lines[0].Text))
	assert.Equal(t, 2, f.Cursor())
	assert.Equal(t, "89", string(f.Residual()))
}

func TestFeedEndingOnBreakIsQuiescent(t *testing.T) {
	f := New(DefaultCapacity)

	_, _ = f.Feed([]byte("make"), t0)
	start, inFlight := f.CommandStart()
	require.True(t, inFlight)
	assert.Equal(t, t0, start)

	lines, elapsed := f.Feed([]byte(" all\r\nok\r\n"), t0.Add(1500*time.Millisecond))
	assert.Equal(t, []string{"make all", "ok"}, texts(lines))
	assert.Equal(t, 1500*time.Millisecond, elapsed)
	assert.True(t, f.Quiescent())
	assert.Equal(t, 0, f.Cursor())

	// The next byte starts a new command timer.
	next := t0.Add(10 * time.Second)
	lines, elapsed = f.Feed([]byte("x\r\n"), next)
	assert.Equal(t, []string{"x"}, texts(lines))
	assert.Equal(t, time.Duration(0), elapsed)
}

func TestFeedResidualKeepsTimer(t *testing.T) {
	f := New(DefaultCapacity)

	_, _ = f.Feed([]byte("one\r\ntw"), t0)
	assert.False(t, f.Quiescent(), "a residual keeps the command in flight")

	lines, elapsed := f.Feed([]byte("o\r\n"), t0.Add(3*time.Second))
	assert.Equal(t, []string{"two"}, texts(lines))
	assert.Equal(t, 3*time.Second, elapsed)
	assert.True(t, f.Quiescent())
}

func TestFeedEmptyChunk(t *testing.T) {
	f := New(DefaultCapacity)

	lines, elapsed := f.Feed(nil, t0)
	assert.Nil(t, lines)
	assert.Equal(t, time.Duration(0), elapsed)
	assert.True(t, f.Quiescent(), "an empty chunk does not start a command")
}

func TestFeedBreakSplitAcrossChunks(t *testing.T) {
	f := New(DefaultCapacity)

	lines, _ := f.Feed([]byte("abc\r"), t0)
	assert.Empty(t, lines)

	lines, _ = f.Feed([]byte("\ndef"), t0)
	assert.Equal(t, []string{"abc"}, texts(lines))
	assert.Equal(t, "def", string(f.Residual()))
}

func TestFeedBreakSplitAtOverflow(t *testing.T) {
	f := New(8)

	// "abcdefg\r" exactly fills the buffer; the '\n' arrives separately.
	lines, _ := f.Feed([]byte("abcdefg\r"), t0)
	assert.Empty(t, lines)
	assert.Equal(t, 8, f.Cursor())

	lines, _ = f.Feed([]byte("\nz"), t0)
	require.Len(t, lines, 2)
	assert.Equal(t, Line{Text: []byte("abcdefg"), Partial: true}, lines[0])
	assert.Equal(t, "", string(lines[1].Text))
	assert.False(t, lines[1].Partial)
	assert.Equal(t, "z", string(f.Residual()))
}

func TestFeedMinimumCapacity(t *testing.T) {
	f := New(0)
	assert.Equal(t, MinCapacity, f.Cap())

	stream := []byte("a\r\n\r\r\nbc\r")
	lines, _ := f.Feed(stream, t0)
	assert.Equal(t, stream, reassemble(lines, f.Residual()))
}

func TestLinesAreCopies(t *testing.T) {
	f := New(16)

	lines, _ := f.Feed([]byte("first\r\n"), t0)
	_, _ = f.Feed([]byte("XXXXXXXXXXXX"), t0)
	assert.Equal(t, "first", string(lines[0].Text))
}

var streams = []string{
	"",
	"abc",
	"\r\n",
	"\r\n\r\n",
	"hello\r\nworld\r\n",
	"a\rb\nc\r\n\r\r\n\n",
	"0123456789abcdef\r\n0123456789\r\nxy",
	"$ ls -l\r\ntotal 0\r\n-rw-r--r-- 1 user user 0 file\r\n$ ",
	"\r\r\r\n\n\n\r\n",
	"line that is definitely longer than the buffer\r\nshort\r\n",
}

// Every two- and three-way split of each stream, at several capacities,
// must reconstruct the stream.
func TestReconstructionAllSplits(t *testing.T) {
	for _, capacity := range []int{2, 3, 5, 8, 16, DefaultCapacity} {
		for _, s := range streams {
			data := []byte(s)
			for i := 0; i <= len(data); i++ {
				for j := i; j <= len(data); j++ {
					chunks := [][]byte{data[:i], data[i:j], data[j:]}
					f := New(capacity)
					lines := feedAll(f, chunks)
					got := reassemble(lines, f.Residual())
					if !bytes.Equal(got, data) {
						t.Fatalf("capacity %d, stream %q, split %d/%d: got %q", capacity, s, i, j, got)
					}
					assert.LessOrEqual(t, f.Cursor(), f.Cap())
				}
			}
		}
	}
}

func TestReconstructionRandomChunks(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	alphabet := []byte("ab\r\n")

	for round := 0; round < 300; round++ {
		data := make([]byte, rng.Intn(200))
		for i := range data {
			data[i] = alphabet[rng.Intn(len(alphabet))]
		}

		var chunks [][]byte
		for rest := data; len(rest) > 0; {
			n := 1 + rng.Intn(40)
			if n > len(rest) {
				n = len(rest)
			}
			chunks = append(chunks, rest[:n])
			rest = rest[n:]
		}

		capacity := MinCapacity + rng.Intn(20)
		f := New(capacity)
		lines := feedAll(f, chunks)
		require.Equal(t, data, reassemble(lines, f.Residual()), "round %d capacity %d", round, capacity)

		// Complete lines never contain a CRLF.
		for _, l := range lines {
			assert.False(t, bytes.Contains(l.Text, crlf))
		}
	}
}

func TestFramingIsIdempotent(t *testing.T) {
	chunks := [][]byte{
		[]byte("build st"),
		[]byte("arted\r\nstep 1\r"),
		[]byte("\nstep 2 with a long tail that overflows"),
		[]byte("\r\ndone\r\n"),
	}

	first := New(12)
	second := New(12)
	a := feedAll(first, chunks)
	b := feedAll(second, chunks)

	assert.Equal(t, a, b)
	assert.Equal(t, first.Residual(), second.Residual())
}

func TestReset(t *testing.T) {
	f := New(DefaultCapacity)
	_, _ = f.Feed([]byte("pending"), t0)

	f.Reset()
	assert.Equal(t, 0, f.Cursor())
	assert.True(t, f.Quiescent())
	assert.Empty(t, f.Residual())
}
