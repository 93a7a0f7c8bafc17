package playback

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Cursor hides and restores the terminal cursor.
type Cursor interface {
	HideCursor() error
	ShowCursor() error
}

// Audio plays the soundtrack alongside the frames. Stop must be idempotent.
type Audio interface {
	Play() error
	Stop()
}

// Session owns everything one playback needs to clean up. The host keeps the
// handle and calls Stop from its signal path.
type Session struct {
	scheduler *Scheduler
	cursor    Cursor
	audio     Audio
	log       zerolog.Logger
	stopOnce  sync.Once
}

// NewSession wires a scheduler with its cursor and audio collaborators.
// cursor and audio may be nil.
func NewSession(s *Scheduler, cursor Cursor, audio Audio, log zerolog.Logger) *Session {
	return &Session{scheduler: s, cursor: cursor, audio: audio, log: log}
}

// Scheduler returns the session's scheduler.
func (s *Session) Scheduler() *Scheduler {
	return s.scheduler
}

// Play hides the cursor, starts audio and runs the scheduler. The cursor is
// restored and audio stopped on every return path.
func (s *Session) Play() (err error) {
	if err := s.scheduler.Validate(); err != nil {
		return err
	}
	if s.cursor != nil {
		if err := s.cursor.HideCursor(); err != nil {
			return &OutputError{Index: -1, Err: err}
		}
		defer func() {
			if cerr := s.cursor.ShowCursor(); cerr != nil && err == nil {
				err = &OutputError{Index: -1, Err: cerr}
			}
		}()
	}
	if s.audio != nil {
		if err := s.audio.Play(); err != nil {
			return errors.Wrap(err, "start audio")
		}
		defer s.audio.Stop()
	}
	s.log.Debug().Msg("playback started")
	return s.scheduler.Run()
}

// Stop forces the session to finish. Safe from any goroutine.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.log.Debug().Msg("playback stop requested")
		s.scheduler.Stop()
		if s.audio != nil {
			s.audio.Stop()
		}
	})
}
