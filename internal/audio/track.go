// Package audio collects decoded samples and stores them as a playable
// artifact next to the video.
package audio

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	channelCount = 2
	// bytes per stereo frame of little endian float64 samples
	frameBytes = 2 * 8
	precision  = 2
)

// Track accumulates stereo samples for one audio stream.
type Track struct {
	SampleRate int
	samples    [][2]float64
}

// NewTrack returns an empty track.
func NewTrack(sampleRate int) *Track {
	return &Track{SampleRate: sampleRate}
}

// AppendPCM appends interleaved little endian float64 stereo samples, the
// layout the decoder hands out.
func (t *Track) AppendPCM(data []byte) error {
	if len(data)%frameBytes != 0 {
		return errors.Errorf("audio: %d bytes is not a whole number of stereo samples", len(data))
	}
	for i := 0; i < len(data); i += frameBytes {
		t.samples = append(t.samples, [2]float64{
			math.Float64frombits(binary.LittleEndian.Uint64(data[i:])),
			math.Float64frombits(binary.LittleEndian.Uint64(data[i+8:])),
		})
	}
	return nil
}

// Len returns the number of stereo samples.
func (t *Track) Len() int {
	return len(t.samples)
}

// Format describes how the track is written.
func (t *Track) Format() beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(t.SampleRate),
		NumChannels: channelCount,
		Precision:   precision,
	}
}

// Streamer streams the collected samples once.
func (t *Track) Streamer() beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		if pos >= len(t.samples) {
			return 0, false
		}
		n = copy(samples, t.samples[pos:])
		pos += n
		return n, true
	})
}

// NewArtifactPath returns a fresh file name in dir.
func NewArtifactPath(dir string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, uuid.NewString()+".wav")
}

// WriteArtifact encodes the track as WAV into a new file in dir and returns
// its path.
func (t *Track) WriteArtifact(dir string) (string, error) {
	if t.SampleRate <= 0 {
		return "", errors.Errorf("audio: sample rate %d", t.SampleRate)
	}
	path := NewArtifactPath(dir)
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create audio artifact")
	}
	if err := wav.Encode(f, t.Streamer(), t.Format()); err != nil {
		f.Close()
		os.Remove(path)
		return "", errors.Wrap(err, "encode audio artifact")
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", errors.Wrap(err, "close audio artifact")
	}
	return path, nil
}

// OpenArtifact decodes an artifact written by WriteArtifact.
func OpenArtifact(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, errors.Wrap(err, "open audio artifact")
	}
	s, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, beep.Format{}, errors.Wrap(err, "decode audio artifact")
	}
	return s, format, nil
}

// RemoveArtifact deletes the artifact. A missing file is not an error.
func RemoveArtifact(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove audio artifact")
	}
	return nil
}
