// Package raster converts decoded images into bounded pixel grids and
// serializes those grids into ANSI-coloured text for a terminal.
package raster

import "image"

// Rasterizer bundles the compression policy with a serializer.
type Rasterizer struct {
	Policy     Policy
	Serializer *Serializer
}

// NewRasterizer validates the policy and returns a rasterizer.
func NewRasterizer(p Policy, s *Serializer) (*Rasterizer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if s == nil {
		s = NewSerializer()
	}
	return &Rasterizer{Policy: p, Serializer: s}, nil
}

// Grid compresses img and copies it into a grid. ok is false when there is
// nothing to display, which callers skip rather than treat as a failure.
func (r *Rasterizer) Grid(img image.Image) (grid PixelGrid, ok bool, err error) {
	small, ok := Compress(img, r.Policy)
	if !ok {
		return PixelGrid{}, false, nil
	}
	grid, err = ToPixelGrid(small)
	if err != nil {
		return PixelGrid{}, false, err
	}
	return grid, true, nil
}

// Serialize renders a grid with the configured serializer.
func (r *Rasterizer) Serialize(g PixelGrid) ([]byte, error) {
	return r.Serializer.Serialize(g)
}
