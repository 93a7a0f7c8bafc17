// Package playback drives frame presentation from elapsed wall-clock time.
//
// The scheduler never sleeps waiting for a frame. Each loop iteration maps
// the time since Run started onto a frame index; when rendering falls behind
// the index jumps and intermediate frames are dropped, when it runs ahead
// the same index comes back and the write is skipped.
package playback

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/boriwo/cmdpix/internal/clock"
	"github.com/boriwo/cmdpix/internal/raster"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// boundaryEpsilon absorbs float error when elapsed time lands exactly on a
// frame boundary.
const boundaryEpsilon = 1e-9

// Sink receives whole serialized frames, one write per frame.
type Sink interface {
	WriteFrame(buf []byte) error
	ClearScreen() error
}

// Encoder serializes a grid for the sink.
type Encoder interface {
	Serialize(g raster.PixelGrid) ([]byte, error)
}

// Observer is told about every frame after it reached the sink.
type Observer interface {
	Present(index int, g raster.PixelGrid)
}

// State is the scheduler lifecycle: Idle, Running, Finished.
type State int32

const (
	Idle State = iota
	Running
	Finished
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Finished:
		return "finished"
	default:
		return "idle"
	}
}

// Stats counts what the loop did.
type Stats struct {
	Iterations int  `json:"iterations"`
	Rendered   int  `json:"rendered"`
	Dropped    int  `json:"dropped"`
	Held       int  `json:"held"`
	LastIndex  int  `json:"last_index"`
	Stopped    bool `json:"stopped"`
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the real clock.
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithTelemetry sets the sink for fps samples.
func WithTelemetry(t Telemetry) Option {
	return func(s *Scheduler) { s.telemetry = t }
}

// WithEncoder sets the frame serializer.
func WithEncoder(e Encoder) Option {
	return func(s *Scheduler) { s.enc = e }
}

// WithObserver mirrors every presented frame to o.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.observer = o }
}

// WithYield sleeps d between iterations. Zero keeps the loop spinning.
func WithYield(d time.Duration) Option {
	return func(s *Scheduler) { s.yield = d }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// Scheduler plays a Sequence into a Sink once.
type Scheduler struct {
	seq       *Sequence
	sink      Sink
	enc       Encoder
	clock     clock.Clock
	telemetry Telemetry
	observer  Observer
	yield     time.Duration
	log       zerolog.Logger

	state atomic.Int32
	stop  atomic.Bool

	mu    sync.Mutex
	stats Stats
}

// New returns an idle scheduler.
func New(seq *Sequence, sink Sink, opts ...Option) *Scheduler {
	s := &Scheduler{
		seq:   seq,
		sink:  sink,
		enc:   raster.NewSerializer(),
		clock: clock.RealClock{},
		log:   zerolog.Nop(),
		stats: Stats{LastIndex: -1},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Stats returns a snapshot of the loop counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Stop asks the loop to finish after the current iteration. It is safe to
// call from any goroutine, any number of times, before or during Run.
func (s *Scheduler) Stop() {
	s.stop.Store(true)
}

// Validate checks the configuration Run depends on.
func (s *Scheduler) Validate() error {
	if s.seq == nil || s.sink == nil {
		return errors.Wrap(raster.ErrInvalidConfig, "scheduler needs a sequence and a sink")
	}
	rate := s.seq.FrameRate()
	if !(rate > 0) || math.IsInf(rate, 0) {
		return errors.Wrapf(raster.ErrInvalidConfig, "frame rate %g", rate)
	}
	return nil
}

// Run plays the sequence until the elapsed-time index passes the last frame,
// Stop is called, or the sink fails. The screen is cleared when playback
// ends normally or is stopped; after a failure nothing more is written.
func (s *Scheduler) Run() error {
	if err := s.Validate(); err != nil {
		return err
	}
	if !s.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return ErrFinished
	}
	defer s.state.Store(int32(Finished))

	rate := s.seq.FrameRate()
	cadence := max(1, int(math.Round(rate)))
	start := s.clock.Now()
	index, last := 0, -1

	for index < s.seq.FrameCount() {
		if s.stop.Load() {
			s.mu.Lock()
			s.stats.Stopped = true
			s.mu.Unlock()
			break
		}
		iterStart := s.clock.Now()
		rendered := false
		if index != last {
			if err := s.render(index); err != nil {
				s.log.Error().Err(err).Int("frame", index).Msg("playback halted")
				return err
			}
			last, rendered = index, true
		}
		iterEnd := s.clock.Now()

		if rendered && index%cadence == 0 {
			s.emit(iterEnd.Sub(iterStart), index)
		}

		next := frameAt(rate, iterEnd.Sub(start))
		s.account(index, next, rendered)
		if next > index {
			index = next
		}
		if s.yield > 0 {
			time.Sleep(s.yield)
		}
	}

	s.state.Store(int32(Finished))
	st := s.Stats()
	s.log.Debug().
		Int("rendered", st.Rendered).
		Int("dropped", st.Dropped).
		Int("held", st.Held).
		Bool("stopped", st.Stopped).
		Msg("playback finished")
	if err := s.sink.ClearScreen(); err != nil {
		return &OutputError{Index: -1, Err: err}
	}
	return nil
}

func (s *Scheduler) render(index int) error {
	grid, err := s.seq.At(index)
	if err != nil {
		return err
	}
	buf, err := s.enc.Serialize(grid)
	if err != nil {
		return errors.Wrapf(err, "frame %d", index)
	}
	if len(buf) > 0 {
		if err := s.sink.WriteFrame(buf); err != nil {
			return &OutputError{Index: index, Err: err}
		}
	}
	if s.observer != nil {
		s.observer.Present(index, grid)
	}
	return nil
}

func (s *Scheduler) emit(d time.Duration, index int) {
	if s.telemetry == nil || d <= 0 {
		return
	}
	s.telemetry.Observe(Sample{
		FPS:   1 / d.Seconds(),
		Index: index,
		Total: s.seq.FrameCount(),
	})
}

func (s *Scheduler) account(index, next int, rendered bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Iterations++
	if rendered {
		s.stats.Rendered++
		s.stats.LastIndex = index
	} else {
		s.stats.Held++
	}
	if skipped := min(next, s.seq.FrameCount()) - index - 1; skipped > 0 {
		s.stats.Dropped += skipped
	}
}

// frameAt maps elapsed time onto a frame index.
func frameAt(rate float64, elapsed time.Duration) int {
	return int(math.Floor(rate*elapsed.Seconds() + boundaryEpsilon))
}
