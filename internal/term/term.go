// Package term writes frames and control sequences to an ANSI terminal.
package term

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/boriwo/cmdpix/internal/playback"
	"github.com/pkg/errors"
)

const (
	clearScreen = "\x1b[2J\x1b[H"
	hideCursor  = "\x1b[?25l"
	showCursor  = "\x1b[?25h"
	resetColor  = "\x1b[0m"
	eraseLine   = "\x1b[K"
)

// Terminal serialises all output to w. Every call is exactly one Write, and
// calls never interleave, so a frame cannot be torn by a status line.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

// New returns a terminal writing to w.
func New(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

func (t *Terminal) write(b []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, err := t.w.Write(b)
	if err != nil {
		return errors.Wrap(err, "terminal write")
	}
	if n != len(b) {
		return errors.Wrapf(io.ErrShortWrite, "terminal write %d of %d bytes", n, len(b))
	}
	return nil
}

// WriteFrame writes one serialized frame.
func (t *Terminal) WriteFrame(buf []byte) error {
	return t.write(buf)
}

// ClearScreen clears the screen and homes the cursor.
func (t *Terminal) ClearScreen() error {
	return t.write([]byte(clearScreen))
}

// HideCursor hides the cursor.
func (t *Terminal) HideCursor() error {
	return t.write([]byte(hideCursor))
}

// ShowCursor makes the cursor visible again.
func (t *Terminal) ShowCursor() error {
	return t.write([]byte(showCursor))
}

// WriteStatus prints a single line below the last frame.
func (t *Terminal) WriteStatus(line string) error {
	return t.write([]byte(resetColor + line + eraseLine))
}

// StatusLine prints telemetry samples as a status line.
type StatusLine struct {
	T *Terminal
}

// Observe implements playback.Telemetry. Write errors are dropped; the next
// frame write reports a broken terminal.
func (s StatusLine) Observe(smp playback.Sample) {
	_ = s.T.WriteStatus(fmt.Sprintf("fps: %3.2f,  frame: %d/%d", smp.FPS, smp.Index, smp.Total))
}

// ProgressBar renders decode progress on one line.
type ProgressBar struct {
	W     io.Writer
	Label string
	Width int
}

// Update draws the bar for row out of total.
func (p ProgressBar) Update(row, total int) {
	width := p.Width
	if width <= 0 {
		width = 50
	}
	progress := 0.0
	if total > 0 {
		progress = float64(row) / float64(total)
	}
	progress = min(max(progress, 0), 1)
	pos := int(float64(width) * progress)

	var sb strings.Builder
	sb.WriteString("\r")
	sb.WriteString(p.Label)
	sb.WriteString(" [")
	for i := 0; i < width; i++ {
		switch {
		case i < pos:
			sb.WriteByte('=')
		case i == pos:
			sb.WriteByte('>')
		default:
			sb.WriteByte(' ')
		}
	}
	fmt.Fprintf(&sb, "] %.2f%%", progress*100)
	_, _ = io.WriteString(p.W, sb.String())
}

// Done ends the progress line.
func (p ProgressBar) Done() {
	_, _ = io.WriteString(p.W, "\n")
}
