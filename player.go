package main

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/boriwo/cmdpix/internal/audio"
	"github.com/boriwo/cmdpix/internal/audio/device"
	"github.com/boriwo/cmdpix/internal/config"
	"github.com/boriwo/cmdpix/internal/media"
	"github.com/boriwo/cmdpix/internal/monitor"
	"github.com/boriwo/cmdpix/internal/playback"
	"github.com/boriwo/cmdpix/internal/preview"
	"github.com/boriwo/cmdpix/internal/raster"
	"github.com/boriwo/cmdpix/internal/term"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	// builtinFont selects the embedded Go font for glyph shading.
	builtinFont = "go"
	// prebufferSeconds of frames are decoded before a streamed playback starts.
	prebufferSeconds = 2.0
	progressWidth    = 50
)

var errStopped = errors.New("stopped")

// Player decodes a file into a frame sequence and plays it on the terminal.
type Player struct {
	cfg        *config.Config
	log        zerolog.Logger
	out        io.Writer
	term       *term.Terminal
	cols, rows int
	window     *preview.Window
	hub        *monitor.Hub

	mu      sync.Mutex
	session *playback.Session
	stopped atomic.Bool
}

// NewPlayer returns a player writing to out. cols and rows are the terminal
// size in cells, zero when unknown.
func NewPlayer(cfg *config.Config, log zerolog.Logger, out io.Writer, cols, rows int) *Player {
	return &Player{
		cfg:  cfg,
		log:  log,
		out:  out,
		term: term.New(out),
		cols: cols,
		rows: rows,
	}
}

// Stop aborts decoding and playback. Safe from the signal handler.
func (p *Player) Stop() {
	p.stopped.Store(true)
	p.mu.Lock()
	s := p.session
	p.mu.Unlock()
	if s != nil {
		s.Stop()
	}
}

// Stats returns the counters of the running or last session.
func (p *Player) Stats() (playback.Stats, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return playback.Stats{}, false
	}
	return p.session.Scheduler().Stats(), true
}

func (p *Player) policy(w0, h0 int) raster.Policy {
	policy := p.cfg.Policy(0)
	if p.cfg.MaxSize == 0 {
		policy = policy.Fit(w0, h0, p.cols, p.rows)
	}
	return policy
}

func (p *Player) serializer(home bool) (*raster.Serializer, error) {
	mode, err := raster.ParseColorMode(p.cfg.ColorMode)
	if err != nil {
		return nil, err
	}
	opts := []raster.Option{raster.WithGlyph(p.cfg.Glyph), raster.WithColorMode(mode)}
	ramp, err := p.loadRamp()
	if err != nil {
		return nil, err
	}
	if len(ramp) > 0 {
		opts = append(opts, raster.WithRamp(ramp))
	}
	if home {
		opts = append(opts, raster.WithCursorHome())
	}
	return raster.NewSerializer(opts...), nil
}

// loadRamp reads the ramp file if there is one, otherwise analyses the font
// and stores the result in the ramp file.
func (p *Player) loadRamp() (raster.Ramp, error) {
	if p.cfg.RampFile != "" {
		f, err := os.Open(p.cfg.RampFile)
		if err == nil {
			defer f.Close()
			return raster.LoadRamp(f)
		}
		if !os.IsNotExist(err) || p.cfg.FontFile == "" {
			return nil, errors.Wrap(err, "open ramp")
		}
	}
	if p.cfg.FontFile == "" {
		return nil, nil
	}
	ttf := goregular.TTF
	if p.cfg.FontFile != builtinFont {
		var err error
		if ttf, err = os.ReadFile(p.cfg.FontFile); err != nil {
			return nil, errors.Wrap(err, "read font")
		}
	}
	defer monitor.TrackTime(p.log, time.Now(), "analyze font")
	ramp, err := raster.AnalyzeFont(ttf, p.cfg.Alphabet)
	if err != nil {
		return nil, err
	}
	p.log.Debug().Int("glyphs", len(ramp)).Str("font", p.cfg.FontFile).Msg("glyph ramp ready")
	if p.cfg.RampFile != "" {
		f, err := os.Create(p.cfg.RampFile)
		if err != nil {
			return nil, errors.Wrap(err, "create ramp")
		}
		defer f.Close()
		if err := raster.SaveRamp(f, ramp); err != nil {
			return nil, err
		}
	}
	return ramp, nil
}

// PlayVideo decodes path and plays it. By default every frame is rasterized
// before playback starts; in stream mode playback starts after a short
// prebuffer and plays silently.
func (p *Player) PlayVideo(path string) error {
	dec, err := media.Open(path, p.cfg.Audio, p.log)
	if err != nil {
		return err
	}
	defer dec.Close()
	info := dec.Info()
	p.log.Info().
		Str("file", path).
		Int("width", info.Width).
		Int("height", info.Height).
		Float64("fps", info.FrameRate).
		Int("frames", info.FrameCount).
		Bool("audio", info.HasAudio).
		Msg("media opened")
	if !(info.FrameRate > 0) || math.IsInf(info.FrameRate, 0) {
		return errors.Wrapf(raster.ErrInvalidConfig, "%s: frame rate %g", path, info.FrameRate)
	}

	ser, err := p.serializer(true)
	if err != nil {
		return err
	}
	rast, err := raster.NewRasterizer(p.policy(info.Width, info.Height), ser)
	if err != nil {
		return err
	}
	seq := playback.NewSequence(info.FrameRate, info.FrameCount)

	stream := p.cfg.Stream && info.FrameCount > 0
	var track *audio.Track
	if info.HasAudio {
		if stream {
			p.log.Info().Msg("audio is not played in stream mode")
		} else {
			track = audio.NewTrack(info.SampleRate)
		}
	}

	var abort atomic.Bool
	bar := term.ProgressBar{W: p.out, Label: "decoding", Width: progressWidth}
	decode := func() error {
		var onAudio func([]byte) error
		if track != nil {
			onAudio = track.AppendPCM
		}
		err := dec.Decode(func(img image.Image) error {
			if p.stopped.Load() || abort.Load() {
				return errStopped
			}
			grid, _, err := rast.Grid(img)
			if err != nil {
				return err
			}
			seq.Append(grid)
			if !stream {
				bar.Update(seq.Len(), info.FrameCount)
			}
			return nil
		}, onAudio)
		seq.Complete()
		return err
	}

	if stream {
		decoded := make(chan error, 1)
		go func() { decoded <- decode() }()
		defer func() {
			abort.Store(true)
			if derr := <-decoded; derr != nil && !errors.Is(derr, errStopped) {
				p.log.Warn().Err(derr).Msg("decoding ended early")
			}
		}()
		p.prebuffer(seq, int(math.Ceil(info.FrameRate*prebufferSeconds)))
	} else {
		err := decode()
		bar.Done()
		if errors.Is(err, errStopped) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	p.log.Debug().Int("frames", seq.Len()).Msg("frames rasterized")

	var a playback.Audio
	if track != nil && track.Len() > 0 {
		artifact, err := track.WriteArtifact(p.cfg.TempDir)
		if err != nil {
			return err
		}
		ap := device.NewPlayer(artifact, p.log)
		defer func() {
			if err := ap.Close(); err != nil {
				p.log.Warn().Err(err).Msg("remove audio artifact")
			}
		}()
		a = ap
	}

	collector := &monitor.Collector{}
	tel := playback.Fanout{term.StatusLine{T: p.term}, monitor.Logger{Log: p.log}, collector}
	if p.hub != nil {
		tel = append(tel, p.hub)
	}
	opts := []playback.Option{
		playback.WithEncoder(rast),
		playback.WithLogger(p.log),
		playback.WithYield(p.cfg.Yield),
	}
	if p.window != nil {
		tel = append(tel, p.window)
		opts = append(opts, playback.WithObserver(p.window))
	}
	opts = append(opts, playback.WithTelemetry(tel))

	sched := playback.New(seq, p.term, opts...)
	session := playback.NewSession(sched, p.term, a, p.log)
	p.mu.Lock()
	p.session = session
	p.mu.Unlock()
	if p.stopped.Load() {
		return nil
	}

	if err := p.term.ClearScreen(); err != nil {
		return &playback.OutputError{Index: -1, Err: err}
	}
	err = session.Play()
	monitor.LogSummary(p.log, collector.Summary(), sched.Stats())
	return err
}

// prebuffer waits until n frames are decoded, decoding has ended or the
// player is stopped.
func (p *Player) prebuffer(seq *playback.Sequence, n int) {
	for seq.Len() < n && !seq.Completed() && !p.stopped.Load() {
		time.Sleep(10 * time.Millisecond)
	}
}

// PlayImage renders a single png or jpeg picture.
func (p *Player) PlayImage(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open image")
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return errors.Wrapf(raster.ErrDecode, "%s: %v", path, err)
	}
	b := img.Bounds()
	p.log.Info().Str("file", path).Str("format", format).Int("width", b.Dx()).Int("height", b.Dy()).Msg("image opened")

	ser, err := p.serializer(false)
	if err != nil {
		return err
	}
	rast, err := raster.NewRasterizer(p.policy(b.Dx(), b.Dy()), ser)
	if err != nil {
		return err
	}
	grid, ok, err := rast.Grid(img)
	if err != nil {
		return err
	}
	if !ok {
		p.log.Warn().Str("file", path).Msg("nothing to render")
		return nil
	}
	buf, err := rast.Serialize(grid)
	if err != nil {
		return err
	}
	if p.window != nil {
		p.window.Present(0, grid)
	}
	if err := p.term.WriteFrame(buf); err != nil {
		return &playback.OutputError{Index: 0, Err: err}
	}
	return nil
}
