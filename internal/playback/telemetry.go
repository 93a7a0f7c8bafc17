package playback

// Sample is an instantaneous throughput reading taken after a frame write.
type Sample struct {
	FPS   float64 `json:"fps"`
	Index int     `json:"index"`
	Total int     `json:"total"`
}

// Telemetry receives samples. Implementations must not block the caller;
// dropping samples is acceptable.
type Telemetry interface {
	Observe(Sample)
}

// TelemetryFunc adapts a function to Telemetry.
type TelemetryFunc func(Sample)

func (f TelemetryFunc) Observe(s Sample) { f(s) }

// Fanout forwards every sample to each sink in order.
type Fanout []Telemetry

func (f Fanout) Observe(s Sample) {
	for _, t := range f {
		if t != nil {
			t.Observe(s)
		}
	}
}
