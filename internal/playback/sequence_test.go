package playback

import (
	"sync"
	"testing"

	"github.com/boriwo/cmdpix/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence_AppendAndComplete(t *testing.T) {
	seq := NewSequence(24, 10)
	assert.Equal(t, 10, seq.FrameCount())
	assert.Equal(t, 0, seq.Len())

	for i := 0; i < 4; i++ {
		seq.Append(raster.PixelGrid{Width: 1, Height: 1, Pix: []byte{byte(i), 0, 0}})
	}
	assert.Equal(t, 4, seq.Len())
	assert.False(t, seq.Completed())

	_, err := seq.At(4)
	assert.ErrorIs(t, err, ErrFrameNotReady)
	_, err = seq.At(-1)
	assert.ErrorIs(t, err, ErrFrameNotReady)

	seq.Complete()
	assert.True(t, seq.Completed())
	assert.Equal(t, 4, seq.FrameCount(), "complete pins the count to what was produced")

	g, err := seq.At(2)
	require.NoError(t, err)
	assert.Equal(t, byte(2), g.Pix[0])
}

func TestSequence_GrowsPastEstimate(t *testing.T) {
	seq := NewSequence(24, 1)
	seq.Append(raster.PixelGrid{})
	seq.Append(raster.PixelGrid{})
	assert.Equal(t, 2, seq.FrameCount())
}

func TestSequence_ConcurrentProducer(t *testing.T) {
	const n = 2000
	seq := NewSequence(30, n)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			seq.Append(raster.PixelGrid{Width: 1, Height: 1, Pix: []byte{byte(i), byte(i >> 8), 1}})
		}
		seq.Complete()
	}()

	for read := 0; read < n; {
		if read >= seq.Len() {
			continue
		}
		g, err := seq.At(read)
		require.NoError(t, err)
		require.True(t, g.Valid())
		assert.Equal(t, read, int(g.Pix[0])|int(g.Pix[1])<<8)
		read++
	}
	wg.Wait()
	assert.Equal(t, n, seq.FrameCount())
}

func TestFanout(t *testing.T) {
	var a, b []Sample
	f := Fanout{
		TelemetryFunc(func(s Sample) { a = append(a, s) }),
		nil,
		TelemetryFunc(func(s Sample) { b = append(b, s) }),
	}
	f.Observe(Sample{FPS: 30, Index: 1, Total: 2})
	assert.Len(t, a, 1)
	assert.Equal(t, a, b)
}
