package playback

import (
	"sync"

	"github.com/boriwo/cmdpix/internal/raster"
	"github.com/pkg/errors"
)

// Sequence is the append-only list of frames a session plays. One producer
// appends while one consumer reads; a grid is visible to At only once
// Append has returned.
type Sequence struct {
	mu         sync.RWMutex
	frames     []raster.PixelGrid
	frameRate  float64
	frameCount int
	complete   bool
}

// NewSequence returns an empty sequence. frameCount is the expected number
// of frames; Complete replaces it with the number actually appended.
func NewSequence(frameRate float64, frameCount int) *Sequence {
	return &Sequence{
		frames:     make([]raster.PixelGrid, 0, max(frameCount, 0)),
		frameRate:  frameRate,
		frameCount: max(frameCount, 0),
	}
}

// Append publishes a fully built grid.
func (s *Sequence) Append(g raster.PixelGrid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, g)
	if s.complete || len(s.frames) > s.frameCount {
		s.frameCount = len(s.frames)
	}
}

// Complete marks the end of production and pins FrameCount to Len.
func (s *Sequence) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.complete = true
	s.frameCount = len(s.frames)
}

// Completed reports whether the producer has finished.
func (s *Sequence) Completed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.complete
}

// At returns the grid at index i.
func (s *Sequence) At(i int) (raster.PixelGrid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.frames) {
		return raster.PixelGrid{}, errors.Wrapf(ErrFrameNotReady, "frame %d of %d published", i, len(s.frames))
	}
	return s.frames[i], nil
}

// Len returns the number of published frames.
func (s *Sequence) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.frames)
}

// FrameRate returns the frame rate in frames per second.
func (s *Sequence) FrameRate() float64 {
	return s.frameRate
}

// FrameCount returns the expected number of frames.
func (s *Sequence) FrameCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frameCount
}
