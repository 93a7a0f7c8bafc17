package playback

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrOutput is matched by every failed write to the output sink.
	ErrOutput = errors.New("playback: output failed")

	// ErrFrameNotReady means the scheduler reached an index the producer has
	// not published yet.
	ErrFrameNotReady = errors.New("playback: frame not ready")

	// ErrFinished is returned when Run is called on a scheduler that already ran.
	ErrFinished = errors.New("playback: scheduler already finished")
)

// OutputError carries the sink failure together with the frame being written.
// Index is -1 for writes that are not frames (cursor, clear screen).
type OutputError struct {
	Index int
	Err   error
}

func (e *OutputError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("playback: output failed: %v", e.Err)
	}
	return fmt.Sprintf("playback: output failed on frame %d: %v", e.Index, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrOutput) hold for any OutputError.
func (e *OutputError) Is(target error) bool { return target == ErrOutput }
