// Package monitor turns playback telemetry into logs, summaries and a live
// HTTP feed.
package monitor

import (
	"sort"
	"sync"
	"time"

	"github.com/boriwo/cmdpix/internal/playback"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Logger writes every sample as a debug event.
type Logger struct {
	Log zerolog.Logger
}

func (l Logger) Observe(s playback.Sample) {
	l.Log.Debug().
		Float64("fps", s.FPS).
		Int("frame", s.Index).
		Int("total", s.Total).
		Msg("telemetry")
}

// TrackTime logs how long the named step took since start. Meant for defer.
func TrackTime(log zerolog.Logger, start time.Time, name string) {
	log.Debug().Str("event", name).Dur("duration", time.Since(start)).Msg("timing")
}

// Summary describes the fps distribution of one playback.
type Summary struct {
	Samples int     `json:"samples"`
	Mean    float64 `json:"mean_fps"`
	StdDev  float64 `json:"stddev_fps"`
	P5      float64 `json:"p5_fps"`
	Min     float64 `json:"min_fps"`
}

// Collector keeps every fps reading for an end-of-playback summary.
type Collector struct {
	mu  sync.Mutex
	fps []float64
}

func (c *Collector) Observe(s playback.Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = append(c.fps, s.FPS)
}

// Summary computes the statistics over everything observed so far.
func (c *Collector) Summary() Summary {
	c.mu.Lock()
	x := append([]float64(nil), c.fps...)
	c.mu.Unlock()

	if len(x) == 0 {
		return Summary{}
	}
	sort.Float64s(x)
	sum := Summary{
		Samples: len(x),
		Mean:    stat.Mean(x, nil),
		P5:      stat.Quantile(0.05, stat.Empirical, x, nil),
		Min:     floats.Min(x),
	}
	if len(x) > 1 {
		sum.StdDev = stat.StdDev(x, nil)
	}
	return sum
}

// LogSummary writes the summary and the scheduler counters at info level.
func LogSummary(log zerolog.Logger, sum Summary, st playback.Stats) {
	log.Info().
		Int("samples", sum.Samples).
		Float64("mean_fps", sum.Mean).
		Float64("stddev_fps", sum.StdDev).
		Float64("p5_fps", sum.P5).
		Float64("min_fps", sum.Min).
		Int("rendered", st.Rendered).
		Int("dropped", st.Dropped).
		Int("held", st.Held).
		Bool("stopped", st.Stopped).
		Msg("playback summary")
}
