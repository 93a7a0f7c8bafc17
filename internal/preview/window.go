// Package preview mirrors the played frames into a desktop window.
package preview

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/boriwo/cmdpix/internal/playback"
	"github.com/boriwo/cmdpix/internal/raster"
	"github.com/hajimehoshi/ebiten"
	"github.com/pkg/errors"
)

// ErrClosed ends the window loop once playback is over.
var ErrClosed = errors.New("preview: playback finished")

// Window is an ebiten game showing the most recent grid, scaled up by Scale.
type Window struct {
	Scale int

	mu       sync.Mutex
	frame    *image.RGBA
	index    int
	dirty    bool
	sample   playback.Sample
	done     bool
	sprite   *ebiten.Image
	ticks    int
	lastTick time.Time
}

// NewWindow returns a window drawing each cell as a scale x scale block.
func NewWindow(scale int) *Window {
	if scale <= 0 {
		scale = 4
	}
	return &Window{Scale: scale, index: -1, lastTick: time.Now()}
}

// Present implements playback.Observer.
func (w *Window) Present(index int, g raster.PixelGrid) {
	if g.Empty() {
		return
	}
	frame := g.RGBA()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frame, w.index, w.dirty = frame, index, true
}

// Observe implements playback.Telemetry.
func (w *Window) Observe(s playback.Sample) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sample = s
}

// Finish makes the next Update return ErrClosed.
func (w *Window) Finish() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.done = true
}

func (w *Window) Update(screen *ebiten.Image) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return ErrClosed
	}
	w.ticks++
	if time.Since(w.lastTick) >= time.Second {
		ebiten.SetWindowTitle(fmt.Sprintf("cmdpix | FPS: %d | Frame: %d/%d | Video FPS: %3.2f",
			w.ticks, w.sample.Index, w.sample.Total, w.sample.FPS))
		w.ticks, w.lastTick = 0, time.Now()
	}
	if w.frame == nil {
		return nil
	}
	b := w.frame.Bounds()
	if w.sprite != nil {
		if sw, sh := w.sprite.Size(); sw != b.Dx() || sh != b.Dy() {
			w.sprite.Dispose()
			w.sprite = nil
		}
	}
	if w.sprite == nil {
		sprite, err := ebiten.NewImage(b.Dx(), b.Dy(), ebiten.FilterNearest)
		if err != nil {
			return errors.Wrap(err, "preview sprite")
		}
		w.sprite, w.dirty = sprite, true
	}
	if w.dirty {
		if err := w.sprite.ReplacePixels(w.frame.Pix); err != nil {
			return errors.Wrapf(err, "preview frame %d", w.index)
		}
		w.dirty = false
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(w.Scale), float64(w.Scale))
	return screen.DrawImage(w.sprite, op)
}

func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.frame == nil {
		return outsideWidth, outsideHeight
	}
	b := w.frame.Bounds()
	return b.Dx() * w.Scale, b.Dy() * w.Scale
}

// Run opens the window and blocks until Finish or the window is closed. It
// must be called from the main goroutine.
func (w *Window) Run(width, height int) error {
	ebiten.SetWindowSize(width*w.Scale, height*w.Scale)
	ebiten.SetWindowTitle("cmdpix")
	if err := ebiten.RunGame(w); err != nil && !errors.Is(err, ErrClosed) {
		return errors.Wrap(err, "preview window")
	}
	return nil
}
