package raster

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// PixelGrid is a row-major grid of packed RGB samples, one per output cell.
type PixelGrid struct {
	Width  int
	Height int
	Pix    []byte
}

// Empty reports whether the grid has no cells to render.
func (g PixelGrid) Empty() bool {
	return g.Width <= 0 || g.Height <= 0
}

// Valid reports whether the pixel buffer matches the dimensions.
func (g PixelGrid) Valid() bool {
	return g.Width >= 0 && g.Height >= 0 && len(g.Pix) == 3*g.Width*g.Height
}

// At returns the colour of the cell at column x, row y.
func (g PixelGrid) At(x, y int) (uint8, uint8, uint8) {
	i := 3 * (y*g.Width + x)
	return g.Pix[i], g.Pix[i+1], g.Pix[i+2]
}

// RGBA expands the grid into an opaque RGBA image.
func (g PixelGrid) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	for i, j := 0, 0; i+2 < len(g.Pix) && j+3 < len(img.Pix); i, j = i+3, j+4 {
		img.Pix[j] = g.Pix[i]
		img.Pix[j+1] = g.Pix[i+1]
		img.Pix[j+2] = g.Pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}

// BGR is an in-memory image of packed B,G,R bytes, the layout OpenCV style
// decoders hand out.
type BGR struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

// NewBGR returns a new BGR image with the given bounds.
func NewBGR(r image.Rectangle) *BGR {
	return &BGR{
		Pix:    make([]byte, 3*r.Dx()*r.Dy()),
		Stride: 3 * r.Dx(),
		Rect:   r,
	}
}

func (p *BGR) ColorModel() color.Model { return color.RGBAModel }

func (p *BGR) Bounds() image.Rectangle { return p.Rect }

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (p *BGR) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
}

func (p *BGR) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := p.PixOffset(x, y)
	return color.RGBA{R: p.Pix[i+2], G: p.Pix[i+1], B: p.Pix[i], A: 0xff}
}

// Set stores an RGB colour at (x, y) in B,G,R order.
func (p *BGR) Set(x, y int, r, g, b uint8) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	p.Pix[i], p.Pix[i+1], p.Pix[i+2] = b, g, r
}

// ToPixelGrid copies every pixel of img into a grid in R,G,B order. The
// source is expected to be compressed already.
func ToPixelGrid(img image.Image) (PixelGrid, error) {
	if img == nil {
		return PixelGrid{}, errors.Wrap(ErrDecode, "nil image")
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return PixelGrid{}, errors.Wrapf(ErrDecode, "empty image %dx%d", w, h)
	}
	pix := make([]byte, 3*w*h)
	o := 0
	switch src := img.(type) {
	case *image.RGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := src.PixOffset(b.Min.X, y)
			for x := 0; x < w; x, i, o = x+1, i+4, o+3 {
				pix[o], pix[o+1], pix[o+2] = src.Pix[i], src.Pix[i+1], src.Pix[i+2]
			}
		}
	case *image.NRGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := src.PixOffset(b.Min.X, y)
			for x := 0; x < w; x, i, o = x+1, i+4, o+3 {
				pix[o], pix[o+1], pix[o+2] = src.Pix[i], src.Pix[i+1], src.Pix[i+2]
			}
		}
	case *BGR:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := src.PixOffset(b.Min.X, y)
			for x := 0; x < w; x, i, o = x+1, i+3, o+3 {
				pix[o], pix[o+1], pix[o+2] = src.Pix[i+2], src.Pix[i+1], src.Pix[i]
			}
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x, o = x+1, o+3 {
				c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
				pix[o], pix[o+1], pix[o+2] = c.R, c.G, c.B
			}
		}
	}
	return PixelGrid{Width: w, Height: h, Pix: pix}, nil
}
