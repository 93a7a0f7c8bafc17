package term

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/boriwo/cmdpix/internal/playback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingWriter records the size of every Write call.
type countingWriter struct {
	bytes.Buffer
	calls []int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.calls = append(w.calls, len(p))
	return w.Buffer.Write(p)
}

func TestTerminal_WriteFrameIsOneWrite(t *testing.T) {
	w := &countingWriter{}
	term := New(w)

	frame := bytes.Repeat([]byte("\x1b[38;2;1;2;3m#"), 500)
	require.NoError(t, term.WriteFrame(frame))
	assert.Equal(t, []int{len(frame)}, w.calls)
	assert.Equal(t, frame, w.Bytes())
}

func TestTerminal_ControlSequences(t *testing.T) {
	var buf bytes.Buffer
	term := New(&buf)

	require.NoError(t, term.HideCursor())
	require.NoError(t, term.ClearScreen())
	require.NoError(t, term.ShowCursor())
	assert.Equal(t, "\x1b[?25l\x1b[2J\x1b[H\x1b[?25h", buf.String())
}

type failingWriter struct{ short bool }

func (w failingWriter) Write(p []byte) (int, error) {
	if w.short {
		return len(p) / 2, nil
	}
	return 0, errors.New("EPIPE")
}

func TestTerminal_WriteErrors(t *testing.T) {
	err := New(failingWriter{}).WriteFrame([]byte("abc"))
	assert.Error(t, err)

	err = New(failingWriter{short: true}).WriteFrame([]byte("abcd"))
	assert.ErrorIs(t, err, io.ErrShortWrite)
}

func TestStatusLine(t *testing.T) {
	var buf bytes.Buffer
	StatusLine{T: New(&buf)}.Observe(playback.Sample{FPS: 41.5, Index: 24, Total: 240})
	assert.Equal(t, "\x1b[0mfps: 41.50,  frame: 24/240\x1b[K", buf.String())
}

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	bar := ProgressBar{W: &buf, Label: "decoding", Width: 4}

	bar.Update(2, 4)
	assert.Equal(t, "\rdecoding [==> ] 50.00%", buf.String())

	buf.Reset()
	bar.Update(9, 4)
	assert.Equal(t, "\rdecoding [====] 100.00%", buf.String())

	buf.Reset()
	bar.Update(1, 0)
	assert.Equal(t, "\rdecoding [>   ] 0.00%", buf.String())

	buf.Reset()
	bar.Done()
	assert.Equal(t, "\n", buf.String())
}
