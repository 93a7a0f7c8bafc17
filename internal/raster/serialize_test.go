package raster

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialize_TrueColor(t *testing.T) {
	g := PixelGrid{Width: 2, Height: 2, Pix: []byte{
		1, 2, 3, 255, 0, 128,
		0, 0, 0, 9, 99, 199,
	}}

	buf, err := NewSerializer().Serialize(g)
	require.NoError(t, err)

	want := "\x1b[38;2;1;2;3m#\x1b[38;2;255;0;128m#\n" +
		"\x1b[38;2;0;0;0m#\x1b[38;2;9;99;199m#\n" +
		"\x1b[0m"
	assert.Equal(t, want, string(buf))
}

func TestSerialize_Idempotent(t *testing.T) {
	g := PixelGrid{Width: 3, Height: 2, Pix: []byte{
		10, 20, 30, 40, 50, 60, 70, 80, 90,
		100, 110, 120, 130, 140, 150, 160, 170, 180,
	}}
	s := NewSerializer(WithCursorHome())

	first, err := s.Serialize(g)
	require.NoError(t, err)
	second, err := s.Serialize(g)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(first, second))
	assert.True(t, bytes.HasPrefix(first, []byte("\x1b[H")))
	assert.True(t, bytes.HasSuffix(first, []byte("\x1b[0m")))
	assert.Equal(t, 2, bytes.Count(first, []byte("\n")))
	assert.Equal(t, 6, bytes.Count(first, []byte("#")))
}

func TestSerialize_CustomGlyph(t *testing.T) {
	g := PixelGrid{Width: 1, Height: 1, Pix: []byte{1, 1, 1}}
	buf, err := NewSerializer(WithGlyph("█")).Serialize(g)
	require.NoError(t, err)
	assert.Equal(t, "\x1b[38;2;1;1;1m█\n\x1b[0m", string(buf))

	buf, err = NewSerializer(WithGlyph("")).Serialize(g)
	require.NoError(t, err)
	assert.Contains(t, string(buf), DefaultGlyph, "empty glyph keeps the default")
}

func TestSerialize_PaletteModes(t *testing.T) {
	g := PixelGrid{Width: 2, Height: 1, Pix: []byte{255, 255, 255, 0, 0, 0}}

	buf, err := NewSerializer(WithColorMode(Xterm256)).Serialize(g)
	require.NoError(t, err)
	assert.Equal(t, "\x1b[38;5;231m#\x1b[38;5;16m#\n\x1b[0m", string(buf))

	buf, err = NewSerializer(WithColorMode(Gray)).Serialize(g)
	require.NoError(t, err)
	assert.Equal(t, "\x1b[38;5;255m#\x1b[38;5;232m#\n\x1b[0m", string(buf))
}

func TestSerialize_Ramp(t *testing.T) {
	ramp := Ramp{
		{Text: " ", AbsGS: 0, NormGS: 0},
		{Text: "+", AbsGS: 5, NormGS: 128},
		{Text: "@", AbsGS: 10, NormGS: 256},
	}
	g := PixelGrid{Width: 3, Height: 1, Pix: []byte{0, 0, 0, 128, 128, 128, 255, 255, 255}}

	buf, err := NewSerializer(WithRamp(ramp)).Serialize(g)
	require.NoError(t, err)
	assert.Equal(t, "\x1b[38;2;0;0;0m \x1b[38;2;128;128;128m+\x1b[38;2;255;255;255m@\n\x1b[0m", string(buf))
}

func TestSerialize_CorruptGrid(t *testing.T) {
	_, err := NewSerializer().Serialize(PixelGrid{Width: 2, Height: 2, Pix: make([]byte, 5)})
	assert.ErrorIs(t, err, ErrCorruptGrid)
}

func TestSerialize_EmptyGrid(t *testing.T) {
	buf, err := NewSerializer().Serialize(PixelGrid{})
	require.NoError(t, err)
	assert.Empty(t, buf)
}

func TestParseColorMode(t *testing.T) {
	for in, want := range map[string]ColorMode{
		"":          TrueColor,
		"truecolor": TrueColor,
		"XTERM256":  Xterm256,
		"gray":      Gray,
		"grey":      Gray,
	} {
		got, err := ParseColorMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseColorMode("sepia")
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, "xterm256", Xterm256.String())
}
