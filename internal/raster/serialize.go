package raster

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	// DefaultGlyph is printed in every cell unless a ramp is configured.
	DefaultGlyph   = "#"
	resetTermColor = "\x1b[0m"
	cursorHome     = "\x1b[H"
)

// ColorMode selects the escape sequence used for a cell's foreground colour.
type ColorMode int

const (
	// TrueColor emits 24-bit colour escapes.
	TrueColor ColorMode = iota
	// Xterm256 maps colours onto the 6x6x6 cube of the 256 colour palette.
	Xterm256
	// Gray maps colours onto the 24 step grayscale ramp.
	Gray
)

func (m ColorMode) String() string {
	switch m {
	case Xterm256:
		return "xterm256"
	case Gray:
		return "gray"
	default:
		return "truecolor"
	}
}

// ParseColorMode accepts the names printed by ColorMode.String.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "truecolor", "color":
		return TrueColor, nil
	case "xterm256", "256":
		return Xterm256, nil
	case "gray", "grey":
		return Gray, nil
	}
	return TrueColor, errors.Wrapf(ErrInvalidConfig, "colour mode %q", s)
}

// Serializer turns a PixelGrid into one escape-coded buffer.
type Serializer struct {
	glyph string
	mode  ColorMode
	ramp  Ramp
	home  bool
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithGlyph sets the glyph printed in every cell.
func WithGlyph(glyph string) Option {
	return func(s *Serializer) {
		if glyph != "" {
			s.glyph = glyph
		}
	}
}

// WithColorMode sets the colour escape flavour.
func WithColorMode(mode ColorMode) Option {
	return func(s *Serializer) { s.mode = mode }
}

// WithRamp picks each cell's glyph by luminance instead of a fixed glyph.
func WithRamp(r Ramp) Option {
	return func(s *Serializer) {
		if len(r) > 0 {
			s.ramp = r
		}
	}
}

// WithCursorHome prefixes every buffer with a cursor-home escape so a frame
// overwrites the previous one in the same write.
func WithCursorHome() Option {
	return func(s *Serializer) { s.home = true }
}

// NewSerializer returns a serializer with the default glyph and true colour.
func NewSerializer(opts ...Option) *Serializer {
	s := &Serializer{glyph: DefaultGlyph, mode: TrueColor}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serialize renders the whole grid into a single buffer. An empty grid yields
// an empty buffer.
func (s *Serializer) Serialize(g PixelGrid) ([]byte, error) {
	if !g.Valid() {
		return nil, errors.Wrapf(ErrCorruptGrid, "%dx%d grid with %d bytes", g.Width, g.Height, len(g.Pix))
	}
	if g.Empty() {
		return nil, nil
	}
	cell := len("\x1b[38;2;255;255;255m") + s.glyphWidth()
	buf := make([]byte, 0, len(cursorHome)+g.Height*(g.Width*cell+1)+len(resetTermColor))
	if s.home {
		buf = append(buf, cursorHome...)
	}
	i := 0
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x, i = x+1, i+3 {
			r, gr, b := g.Pix[i], g.Pix[i+1], g.Pix[i+2]
			buf = s.appendColor(buf, r, gr, b)
			if s.ramp != nil {
				buf = append(buf, s.ramp.FindClosest(luma(r, gr, b)).Text...)
			} else {
				buf = append(buf, s.glyph...)
			}
		}
		buf = append(buf, '\n')
	}
	buf = append(buf, resetTermColor...)
	return buf, nil
}

func (s *Serializer) glyphWidth() int {
	if s.ramp == nil {
		return len(s.glyph)
	}
	w := 1
	for _, a := range s.ramp {
		w = max(w, len(a.Text))
	}
	return w
}

func (s *Serializer) appendColor(buf []byte, r, g, b uint8) []byte {
	switch s.mode {
	case Xterm256:
		return appendPalette(buf, xtermColor(r, g, b))
	case Gray:
		return appendPalette(buf, xtermGray(r, g, b))
	}
	buf = append(buf, "\x1b[38;2;"...)
	buf = strconv.AppendUint(buf, uint64(r), 10)
	buf = append(buf, ';')
	buf = strconv.AppendUint(buf, uint64(g), 10)
	buf = append(buf, ';')
	buf = strconv.AppendUint(buf, uint64(b), 10)
	return append(buf, 'm')
}

func appendPalette(buf []byte, code int) []byte {
	buf = append(buf, "\x1b[38;5;"...)
	buf = strconv.AppendInt(buf, int64(code), 10)
	return append(buf, 'm')
}

// xtermColor returns the index into the 6x6x6 colour cube.
func xtermColor(r, g, b uint8) int {
	return 16 + 36*(int(r)*6/256) + 6*(int(g)*6/256) + int(b)*6/256
}

// xtermGray returns the index into the grayscale ramp 232..255.
func xtermGray(r, g, b uint8) int {
	return 232 + (255-232)*(int(r)+int(g)+int(b))/(3*255)
}

// luma is the Rec. 601 luminance in 0..255.
func luma(r, g, b uint8) int {
	return (299*int(r) + 587*int(g) + 114*int(b)) / 1000
}
