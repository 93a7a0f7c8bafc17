package raster

import "github.com/pkg/errors"

var (
	// ErrDecode is returned for a malformed or empty image.
	ErrDecode = errors.New("raster: cannot decode image")

	// ErrCorruptGrid marks a grid whose pixel buffer does not match its
	// dimensions. It indicates a bug, not bad input.
	ErrCorruptGrid = errors.New("raster: corrupt pixel grid")

	// ErrInvalidConfig is returned for a non-positive size, scale or frame
	// rate before any work starts.
	ErrInvalidConfig = errors.New("invalid configuration")
)
