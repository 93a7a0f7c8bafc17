// Package media demuxes and decodes video files with ffmpeg through reisen.
package media

import (
	"image"
	"time"

	"github.com/boriwo/cmdpix/internal/monitor"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/zergon321/reisen"
)

// ErrNoVideo is returned for files without a video stream.
var ErrNoVideo = errors.New("media: no video stream")

// Info is the stream metadata the player needs before decoding.
type Info struct {
	Width      int
	Height     int
	FrameRate  float64
	FrameCount int
	HasAudio   bool
	SampleRate int
}

// Decoder reads video frames and, optionally, the first audio stream.
type Decoder struct {
	media *reisen.Media
	video *reisen.VideoStream
	audio *reisen.AudioStream
	info  Info
	log   zerolog.Logger

	decoding bool
}

// Open opens fname and its first video stream. The first audio stream is
// opened as well when withAudio is set and one exists.
func Open(fname string, withAudio bool, log zerolog.Logger) (*Decoder, error) {
	media, err := reisen.NewMedia(fname)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", fname)
	}
	d := &Decoder{media: media, log: log}
	if err := d.open(withAudio); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func (d *Decoder) open(withAudio bool) error {
	if err := d.media.OpenDecode(); err != nil {
		return errors.Wrap(err, "open decode")
	}
	d.decoding = true
	videoStreams := d.media.VideoStreams()
	if len(videoStreams) == 0 {
		return ErrNoVideo
	}
	d.video = videoStreams[0]
	if err := d.video.Open(); err != nil {
		d.video = nil
		return errors.Wrap(err, "open video stream")
	}
	num, den := d.video.FrameRate()
	d.info = Info{
		Width:      d.video.Width(),
		Height:     d.video.Height(),
		FrameRate:  frameRate(num, den),
		FrameCount: int(d.video.FrameCount()),
	}
	if !withAudio {
		return nil
	}
	audioStreams := d.media.AudioStreams()
	if len(audioStreams) == 0 {
		d.log.Info().Msg("no audio stream, playing silently")
		return nil
	}
	d.audio = audioStreams[0]
	if err := d.audio.Open(); err != nil {
		d.audio = nil
		return errors.Wrap(err, "open audio stream")
	}
	d.info.HasAudio = true
	d.info.SampleRate = d.audio.SampleRate()
	return nil
}

// Info returns the stream metadata.
func (d *Decoder) Info() Info {
	return d.info
}

// Decode reads the whole file. onFrame gets every decoded picture in order,
// onAudio gets raw interleaved float64 stereo samples. Returning an error
// from either callback stops decoding with that error.
func (d *Decoder) Decode(onFrame func(image.Image) error, onAudio func([]byte) error) error {
	defer monitor.TrackTime(d.log, time.Now(), "decode")
	for {
		packet, gotPacket, err := d.media.ReadPacket()
		if err != nil {
			return errors.Wrap(err, "read packet")
		}
		if !gotPacket {
			return nil
		}
		switch packet.Type() {
		case reisen.StreamVideo:
			s, ok := d.media.Streams()[packet.StreamIndex()].(*reisen.VideoStream)
			if !ok || s != d.video {
				continue
			}
			videoFrame, gotFrame, err := s.ReadVideoFrame()
			if err != nil {
				d.log.Debug().Err(err).Msg("skipping undecodable video frame")
				continue
			}
			if !gotFrame || videoFrame == nil {
				continue
			}
			if err := onFrame(videoFrame.Image()); err != nil {
				return err
			}
		case reisen.StreamAudio:
			if d.audio == nil || onAudio == nil {
				continue
			}
			s, ok := d.media.Streams()[packet.StreamIndex()].(*reisen.AudioStream)
			if !ok || s != d.audio {
				continue
			}
			audioFrame, gotFrame, err := s.ReadAudioFrame()
			if err != nil {
				d.log.Debug().Err(err).Msg("skipping undecodable audio frame")
				continue
			}
			if !gotFrame || audioFrame == nil {
				continue
			}
			if err := onAudio(audioFrame.Data()); err != nil {
				return err
			}
		}
	}
}

// Close releases the streams and the container.
func (d *Decoder) Close() {
	if d.video != nil {
		d.video.Close()
	}
	if d.audio != nil {
		d.audio.Close()
	}
	if d.decoding {
		d.media.CloseDecode()
	}
	d.media.Close()
}

func frameRate(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
