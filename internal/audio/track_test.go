package audio

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pcm(samples ...[2]float64) []byte {
	buf := make([]byte, 0, len(samples)*frameBytes)
	for _, s := range samples {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(s[0]))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(s[1]))
	}
	return buf
}

func TestTrack_AppendPCM(t *testing.T) {
	tr := NewTrack(44100)
	require.NoError(t, tr.AppendPCM(pcm([2]float64{0.5, -0.5}, [2]float64{0.25, 0})))
	require.NoError(t, tr.AppendPCM(nil))
	assert.Equal(t, 2, tr.Len())

	assert.Error(t, tr.AppendPCM(make([]byte, 9)))
	assert.Equal(t, 2, tr.Len())
}

func TestTrack_Streamer(t *testing.T) {
	tr := NewTrack(8000)
	require.NoError(t, tr.AppendPCM(pcm([2]float64{0.1, 0.2}, [2]float64{0.3, 0.4}, [2]float64{0.5, 0.6})))

	s := tr.Streamer()
	buf := make([][2]float64, 2)
	n, ok := s.Stream(buf)
	assert.True(t, ok)
	assert.Equal(t, 2, n)
	assert.Equal(t, [2]float64{0.3, 0.4}, buf[1])

	n, ok = s.Stream(buf)
	assert.True(t, ok)
	assert.Equal(t, 1, n)

	_, ok = s.Stream(buf)
	assert.False(t, ok)
}

func TestTrack_ArtifactRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tr := NewTrack(22050)
	in := [][2]float64{{0.5, -0.5}, {0.25, 0}, {-0.75, 0.125}}
	require.NoError(t, tr.AppendPCM(pcm(in...)))

	path, err := tr.WriteArtifact(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, ".wav"))

	s, format, err := OpenArtifact(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, 22050, int(format.SampleRate))
	assert.Equal(t, 2, format.NumChannels)

	out := make([][2]float64, 8)
	n, _ := s.Stream(out)
	require.Equal(t, len(in), n)
	for i := range in {
		assert.InDelta(t, in[i][0], out[i][0], 1e-3)
		assert.InDelta(t, in[i][1], out[i][1], 1e-3)
	}

	require.NoError(t, RemoveArtifact(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, RemoveArtifact(path), "removing twice is fine")
}

func TestTrack_WriteArtifactNeedsSampleRate(t *testing.T) {
	_, err := NewTrack(0).WriteArtifact(t.TempDir())
	assert.Error(t, err)
}

func TestNewArtifactPath_Unique(t *testing.T) {
	a := NewArtifactPath("/tmp")
	b := NewArtifactPath("/tmp")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(NewArtifactPath(""), os.TempDir()))
}
