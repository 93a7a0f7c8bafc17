// Package config holds the player settings. Values come from defaults, then
// CMDPIX_* environment variables, then command line flags.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/boriwo/cmdpix/internal/raster"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// MaxYield bounds the pause between scheduler iterations.
const MaxYield = time.Millisecond

// Config holds all configuration for the player.
type Config struct {
	// File is the video to play.
	File string

	// Image renders a single still picture instead of a video.
	Image string

	// MaxSize bounds both grid dimensions. 0 sizes the grid to the terminal.
	// Default: 0
	MaxSize int

	// XScale and YScale are applied before the MaxSize clamp.
	// Default: 1.0 and 0.5
	XScale float64
	YScale float64

	// Glyph is printed in every cell when no font ramp is configured.
	// Default: "#"
	Glyph string

	// ColorMode is one of "truecolor", "xterm256", "gray".
	// Default: "truecolor"
	ColorMode string

	// FontFile is a TrueType font used to build a luminance glyph ramp.
	FontFile string

	// Alphabet is the set of glyphs the font ramp is built from.
	Alphabet string

	// RampFile is a JSON glyph ramp. Loaded when it exists, written after
	// analysing FontFile otherwise.
	RampFile string

	// Audio plays the soundtrack.
	// Default: true
	Audio bool

	// Window mirrors the frames into a desktop window.
	Window bool

	// Stream starts playback while the file is still being decoded.
	Stream bool

	// MonitorAddr enables the telemetry HTTP server when set.
	MonitorAddr string

	// LogLevel is a zerolog level name.
	// Default: "info"
	LogLevel string

	// LogFile receives the log instead of stderr.
	LogFile string

	// Yield is slept between scheduler iterations.
	// Default: 0
	Yield time.Duration

	// TempDir holds the extracted audio artifact.
	// Default: os.TempDir()
	TempDir string
}

// Default returns a Config with default values.
func Default() *Config {
	p := raster.DefaultPolicy()
	return &Config{
		XScale:    p.XScale,
		YScale:    p.YScale,
		Glyph:     raster.DefaultGlyph,
		ColorMode: raster.TrueColor.String(),
		Alphabet:  raster.DefaultAlphabet,
		Audio:     true,
		LogLevel:  "info",
		TempDir:   os.TempDir(),
	}
}

// LoadEnv overrides c with environment variables.
//
// Environment variables:
//   - CMDPIX_MAX_SIZE: grid bound
//   - CMDPIX_X_SCALE, CMDPIX_Y_SCALE: pre-clamp scales
//   - CMDPIX_GLYPH: cell glyph
//   - CMDPIX_COLOR_MODE: truecolor, xterm256 or gray
//   - CMDPIX_FONT, CMDPIX_ALPHABET, CMDPIX_RAMP: glyph ramp sources
//   - CMDPIX_AUDIO: play audio (true/false)
//   - CMDPIX_MONITOR_ADDR: telemetry server address
//   - CMDPIX_LOG_LEVEL, CMDPIX_LOG_FILE: logging
//   - CMDPIX_YIELD: pause between iterations, e.g. 200us
//   - CMDPIX_TMPDIR: audio artifact directory
func (c *Config) LoadEnv() error {
	if val := os.Getenv("CMDPIX_MAX_SIZE"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return errors.Wrap(raster.ErrInvalidConfig, "CMDPIX_MAX_SIZE must be a valid integer")
		}
		c.MaxSize = n
	}
	if val := os.Getenv("CMDPIX_X_SCALE"); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return errors.Wrap(raster.ErrInvalidConfig, "CMDPIX_X_SCALE must be a number")
		}
		c.XScale = f
	}
	if val := os.Getenv("CMDPIX_Y_SCALE"); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return errors.Wrap(raster.ErrInvalidConfig, "CMDPIX_Y_SCALE must be a number")
		}
		c.YScale = f
	}
	if val := os.Getenv("CMDPIX_GLYPH"); val != "" {
		c.Glyph = val
	}
	if val := os.Getenv("CMDPIX_COLOR_MODE"); val != "" {
		c.ColorMode = strings.ToLower(strings.TrimSpace(val))
	}
	if val := os.Getenv("CMDPIX_FONT"); val != "" {
		c.FontFile = val
	}
	if val := os.Getenv("CMDPIX_ALPHABET"); val != "" {
		c.Alphabet = val
	}
	if val := os.Getenv("CMDPIX_RAMP"); val != "" {
		c.RampFile = val
	}
	if val := os.Getenv("CMDPIX_AUDIO"); val != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return errors.Wrap(raster.ErrInvalidConfig, "CMDPIX_AUDIO must be true or false")
		}
		c.Audio = b
	}
	if val := os.Getenv("CMDPIX_MONITOR_ADDR"); val != "" {
		c.MonitorAddr = val
	}
	if val := os.Getenv("CMDPIX_LOG_LEVEL"); val != "" {
		c.LogLevel = strings.ToLower(strings.TrimSpace(val))
	}
	if val := os.Getenv("CMDPIX_LOG_FILE"); val != "" {
		c.LogFile = val
	}
	if val := os.Getenv("CMDPIX_YIELD"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return errors.Wrap(raster.ErrInvalidConfig, "CMDPIX_YIELD must be a duration")
		}
		c.Yield = d
	}
	if val := os.Getenv("CMDPIX_TMPDIR"); val != "" {
		c.TempDir = val
	}
	return nil
}

// Bind registers a flag for every setting, using the current values as
// defaults.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.File, "file", c.File, "media file name")
	fs.StringVar(&c.Image, "image", c.Image, "render a single png or jpeg image")
	fs.IntVar(&c.MaxSize, "maxsize", c.MaxSize, "maximum grid width and height, 0 fits the terminal")
	fs.Float64Var(&c.XScale, "xscale", c.XScale, "horizontal scale applied before clamping")
	fs.Float64Var(&c.YScale, "yscale", c.YScale, "vertical scale applied before clamping")
	fs.StringVar(&c.Glyph, "glyph", c.Glyph, "glyph printed in every cell")
	fs.StringVar(&c.ColorMode, "color", c.ColorMode, "colour mode: truecolor, xterm256 or gray")
	fs.StringVar(&c.FontFile, "font", c.FontFile, "ttf font for luminance shading")
	fs.StringVar(&c.Alphabet, "alphabet", c.Alphabet, "glyphs used for luminance shading")
	fs.StringVar(&c.RampFile, "ramp", c.RampFile, "json glyph ramp to load or save")
	fs.BoolVar(&c.Audio, "audio", c.Audio, "play audio")
	fs.BoolVar(&c.Window, "window", c.Window, "mirror frames into a window")
	fs.BoolVar(&c.Stream, "stream", c.Stream, "start playing while decoding")
	fs.StringVar(&c.MonitorAddr, "monitor", c.MonitorAddr, "telemetry http address, e.g. localhost:8090")
	fs.StringVar(&c.LogLevel, "loglevel", c.LogLevel, "log level")
	fs.StringVar(&c.LogFile, "log", c.LogFile, "log file, stderr when empty")
	fs.DurationVar(&c.Yield, "yield", c.Yield, "pause between render loop iterations")
	fs.StringVar(&c.TempDir, "tmpdir", c.TempDir, "directory for the extracted audio")
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.File == "" && c.Image == "" {
		return errors.Wrap(raster.ErrInvalidConfig, "either a media file or an image is required")
	}
	if c.File != "" && c.Image != "" {
		return errors.Wrap(raster.ErrInvalidConfig, "file and image are mutually exclusive")
	}
	if c.MaxSize < 0 {
		return errors.Wrapf(raster.ErrInvalidConfig, "max size %d", c.MaxSize)
	}
	if !(c.XScale > 0) || !(c.YScale > 0) {
		return errors.Wrapf(raster.ErrInvalidConfig, "scale %gx%g", c.XScale, c.YScale)
	}
	if utf8.RuneCountInString(c.Glyph) != 1 {
		return errors.Wrapf(raster.ErrInvalidConfig, "glyph %q must be a single character", c.Glyph)
	}
	if r, _ := utf8.DecodeRuneInString(c.Glyph); !unicode.IsPrint(r) || unicode.IsSpace(r) {
		return errors.Wrapf(raster.ErrInvalidConfig, "glyph %q is not printable", c.Glyph)
	}
	if _, err := raster.ParseColorMode(c.ColorMode); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(raster.ErrInvalidConfig, "log level %q", c.LogLevel)
	}
	if c.Yield < 0 || c.Yield > MaxYield {
		return errors.Wrapf(raster.ErrInvalidConfig, "yield %s outside 0..%s", c.Yield, MaxYield)
	}
	return nil
}

// Policy returns the compression policy. maxSize is used when MaxSize is 0.
func (c *Config) Policy(maxSize int) raster.Policy {
	if c.MaxSize > 0 {
		maxSize = c.MaxSize
	}
	if maxSize <= 0 {
		maxSize = raster.DefaultPolicy().MaxSize
	}
	return raster.Policy{MaxSize: maxSize, XScale: c.XScale, YScale: c.YScale}
}

// Level returns the parsed log level, info when unparsable.
func (c *Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}
