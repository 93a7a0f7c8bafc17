package raster

import (
	"image"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// Policy bounds the output grid. Scales are applied first, then both
// dimensions are shrunk by the same ratio if either exceeds MaxSize.
type Policy struct {
	MaxSize int
	XScale  float64
	YScale  float64
}

// DefaultPolicy matches terminal cells that are roughly twice as tall as wide.
func DefaultPolicy() Policy {
	return Policy{MaxSize: 192, XScale: 1.0, YScale: 0.5}
}

// Validate rejects a policy that cannot produce a grid.
func (p Policy) Validate() error {
	if p.MaxSize <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "max size %d", p.MaxSize)
	}
	if !(p.XScale > 0) || !(p.YScale > 0) || math.IsInf(p.XScale, 0) || math.IsInf(p.YScale, 0) {
		return errors.Wrapf(ErrInvalidConfig, "scale %gx%g", p.XScale, p.YScale)
	}
	return nil
}

// Size returns the output dimensions for a w0 x h0 source.
func (p Policy) Size(w0, h0 int) (w, h int) {
	w = int(math.Round(float64(w0) * p.XScale))
	h = int(math.Round(float64(h0) * p.YScale))
	if w > p.MaxSize || h > p.MaxSize {
		// dividing by max(w,h)/MaxSize, written so the larger side lands on
		// MaxSize exactly
		m := float64(max(w, h))
		w = int(float64(w) * float64(p.MaxSize) / m)
		h = int(float64(h) * float64(p.MaxSize) / m)
	}
	return w, h
}

// Compress resamples img to the policy bounds with bilinear interpolation.
// It returns ok == false when there is nothing to render: an empty source or
// a scale that collapses one dimension to zero.
func Compress(img image.Image, p Policy) (*image.RGBA, bool) {
	if img == nil {
		return nil, false
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, false
	}
	w, h := p.Size(b.Dx(), b.Dy())
	if w <= 0 || h <= 0 {
		return nil, false
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, true
}

// Fit returns the largest MaxSize for which a w0 x h0 source still fits in
// cols x rows cells.
func (p Policy) Fit(w0, h0, cols, rows int) Policy {
	w := int(math.Round(float64(w0) * p.XScale))
	h := int(math.Round(float64(h0) * p.YScale))
	if w <= 0 || h <= 0 || cols <= 0 || rows <= 0 {
		return p
	}
	m := max(w, h)
	p.MaxSize = max(1, min(cols*m/w, rows*m/h))
	return p
}
