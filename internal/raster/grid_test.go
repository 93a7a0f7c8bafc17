package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPixelGrid_RGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.SetRGBA(0, 0, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	src.SetRGBA(1, 0, color.RGBA{R: 4, G: 5, B: 6, A: 255})
	src.SetRGBA(2, 0, color.RGBA{R: 7, G: 8, B: 9, A: 255})
	src.SetRGBA(0, 1, color.RGBA{R: 10, G: 11, B: 12, A: 255})
	src.SetRGBA(1, 1, color.RGBA{R: 13, G: 14, B: 15, A: 255})
	src.SetRGBA(2, 1, color.RGBA{R: 16, G: 17, B: 18, A: 255})

	g, err := ToPixelGrid(src)
	require.NoError(t, err)

	want := PixelGrid{Width: 3, Height: 2, Pix: []byte{
		1, 2, 3, 4, 5, 6, 7, 8, 9,
		10, 11, 12, 13, 14, 15, 16, 17, 18,
	}}
	if diff := cmp.Diff(want, g); diff != "" {
		t.Errorf("ToPixelGrid() mismatch (-want +got):\n%s", diff)
	}
}

func TestToPixelGrid_SubImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	src.SetRGBA(2, 3, color.RGBA{R: 90, G: 80, B: 70, A: 255})
	sub := src.SubImage(image.Rect(1, 2, 3, 4))

	g, err := ToPixelGrid(sub)
	require.NoError(t, err)
	require.Equal(t, 2, g.Width)
	require.Equal(t, 2, g.Height)

	r, gr, b := g.At(1, 1)
	assert.Equal(t, [3]uint8{90, 80, 70}, [3]uint8{r, gr, b})
}

func TestToPixelGrid_BGRPermutedToRGB(t *testing.T) {
	src := NewBGR(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, 255, 0, 10)
	src.Set(1, 0, 1, 2, 3)
	require.Equal(t, []byte{10, 0, 255, 3, 2, 1}, src.Pix, "storage is B,G,R")

	g, err := ToPixelGrid(src)
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 0, 10, 1, 2, 3}, g.Pix)

	c := src.At(0, 0).(color.RGBA)
	assert.Equal(t, color.RGBA{R: 255, G: 0, B: 10, A: 255}, c)
}

func TestToPixelGrid_GenericAndNRGBA(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	gray.SetGray(1, 1, color.Gray{Y: 77})
	g, err := ToPixelGrid(gray)
	require.NoError(t, err)
	assert.Len(t, g.Pix, 2*2*3)
	r, gr, b := g.At(1, 1)
	assert.Equal(t, [3]uint8{77, 77, 77}, [3]uint8{r, gr, b})

	nrgba := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	nrgba.SetNRGBA(0, 0, color.NRGBA{R: 9, G: 8, B: 7, A: 255})
	g, err = ToPixelGrid(nrgba)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 8, 7}, g.Pix)
}

func TestToPixelGrid_SizeMatchesImage(t *testing.T) {
	for _, sz := range [][2]int{{1, 1}, {5, 3}, {192, 108}, {17, 64}} {
		g, err := ToPixelGrid(image.NewRGBA(image.Rect(0, 0, sz[0], sz[1])))
		require.NoError(t, err)
		assert.Len(t, g.Pix, 3*sz[0]*sz[1])
		assert.True(t, g.Valid())
	}
}

func TestToPixelGrid_Empty(t *testing.T) {
	_, err := ToPixelGrid(image.NewRGBA(image.Rect(0, 0, 0, 4)))
	assert.ErrorIs(t, err, ErrDecode)

	_, err = ToPixelGrid(nil)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestPixelGrid_RGBA(t *testing.T) {
	g := PixelGrid{Width: 2, Height: 1, Pix: []byte{1, 2, 3, 4, 5, 6}}
	img := g.RGBA()
	assert.Equal(t, []byte{1, 2, 3, 255, 4, 5, 6, 255}, img.Pix)
	assert.False(t, g.Empty())
	assert.True(t, PixelGrid{}.Empty())
}

func TestRasterizer_Grid(t *testing.T) {
	r, err := NewRasterizer(Policy{MaxSize: 8, XScale: 1, YScale: 0.5}, nil)
	require.NoError(t, err)

	g, ok, err := r.Grid(image.NewRGBA(image.Rect(0, 0, 64, 64)))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 8, g.Width)
	assert.Equal(t, 4, g.Height)

	_, ok, err = r.Grid(image.NewRGBA(image.Rectangle{}))
	assert.NoError(t, err)
	assert.False(t, ok)

	_, err = NewRasterizer(Policy{}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
