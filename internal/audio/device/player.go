// Package device plays an audio artifact on the default output device.
package device

import (
	"sync"
	"time"

	"github.com/boriwo/cmdpix/internal/audio"
	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// speaker.Init may only run once per sample rate for the process.
var (
	initMu   sync.Mutex
	initRate beep.SampleRate
)

func initSpeaker(rate beep.SampleRate) error {
	initMu.Lock()
	defer initMu.Unlock()
	if initRate == rate {
		return nil
	}
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return errors.Wrap(err, "init speaker")
	}
	initRate = rate
	return nil
}

// Player plays one artifact. Stop and Close may be called repeatedly.
type Player struct {
	path string
	log  zerolog.Logger

	mu     sync.Mutex
	stream beep.StreamSeekCloser
	ctrl   *beep.Ctrl
}

// NewPlayer returns a player for the artifact at path.
func NewPlayer(path string, log zerolog.Logger) *Player {
	return &Player{path: path, log: log}
}

// Play starts playback and returns immediately.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl != nil {
		return nil
	}
	s, format, err := audio.OpenArtifact(p.path)
	if err != nil {
		return err
	}
	if err := initSpeaker(format.SampleRate); err != nil {
		s.Close()
		return err
	}
	p.stream = s
	p.ctrl = &beep.Ctrl{Streamer: s}
	speaker.Play(p.ctrl)
	p.log.Debug().Str("artifact", p.path).Int("sample_rate", int(format.SampleRate)).Msg("audio started")
	return nil
}

// Stop silences playback.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = true
	p.ctrl.Streamer = nil
	speaker.Unlock()
	if err := p.stream.Close(); err != nil {
		p.log.Warn().Err(err).Msg("close audio stream")
	}
	p.ctrl, p.stream = nil, nil
	p.log.Debug().Msg("audio stopped")
}

// Close stops playback and deletes the artifact.
func (p *Player) Close() error {
	p.Stop()
	return audio.RemoveArtifact(p.path)
}
