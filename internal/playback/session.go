// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package playback runs the state machine of one playback attempt: it
// classifies player events, escalates stalls and errors through timed
// ladders, and recovers by failing over to another CDN.
package playback

import (
	"fmt"
	"time"

	xglog "github.com/ManuGH/playresilience/internal/log"
	"github.com/ManuGH/playresilience/internal/loop"
	"github.com/ManuGH/playresilience/internal/media"
	"github.com/ManuGH/playresilience/internal/metrics"
	"github.com/ManuGH/playresilience/internal/plugins"
	"github.com/ManuGH/playresilience/internal/sources"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Session owns the active player of one playback attempt. It is not safe
// for concurrent use; every method must run on the session loop.
type Session struct {
	cfg      Config
	id       string
	timeouts Timeouts
	sched    loop.Scheduler
	sources  *sources.List
	sink     plugins.Sink
	logger   zerolog.Logger
	ticks    *rate.Limiter

	player media.Player
	// gen increments with every player; callbacks from older players are dropped.
	gen uint64

	state          media.State
	isInitialPlay  bool
	bufferingTimer loop.Timer
	bufferingSince time.Time
	fatalTimer     loop.Timer
	fatalError     bool

	started  bool
	tornDown bool
}

// NewSession validates cfg and returns a session ready to Start.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	logger := xglog.WithComponent("playback")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	logger = logger.With().Str(xglog.FieldSessionID, id).Logger()

	return &Session{
		cfg:           cfg,
		id:            id,
		timeouts:      cfg.Timeouts.withDefaults(),
		sched:         cfg.Scheduler,
		sources:       cfg.Sources,
		sink:          plugins.OrNop(cfg.Sink),
		logger:        logger,
		ticks:         rate.NewLimiter(rate.Every(time.Second), 1),
		state:         media.StateEmpty,
		isInitialPlay: true,
	}, nil
}

// Start builds the first player and loads the media at the initial time.
// A construction failure is reported through Config.OnError.
func (s *Session) Start() {
	if s.started || s.tornDown {
		return
	}
	s.started = true
	metrics.ActiveSessions.Inc()

	if err := s.buildPlayer(); err != nil {
		s.logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "session.player_build_failed").
			Msg("could not construct playback strategy")
		if s.cfg.OnError != nil {
			s.cfg.OnError(err)
		}
		return
	}

	s.logger.Info().
		Str(xglog.FieldEvent, "session.start").
		Str(xglog.FieldWindowType, string(s.cfg.WindowType)).
		Str(xglog.FieldSource, s.sources.CurrentSource()).
		Str(xglog.FieldCDN, s.sources.CurrentCDN()).
		Msg("playback session started")

	s.emitErrorCleared()
	s.loadMedia(s.cfg.InitialPlaybackTime, false)
}

// buildPlayer asks the factory for a fresh player and subscribes to it.
// The previous player, if any, must already be torn down.
func (s *Session) buildPlayer() error {
	p, err := s.cfg.NewPlayer(media.PlayerSpec{
		Strategy:   s.cfg.Strategy,
		WindowType: s.cfg.WindowType,
		Kind:       s.cfg.Media.Kind,
		Element:    s.cfg.Element,
		IsUHD:      s.cfg.Media.IsUHD,
	})
	if err != nil {
		return fmt.Errorf("build %s player: %w", s.cfg.Strategy, err)
	}

	s.gen++
	gen := s.gen
	p.AddEventCallback(func(st media.State) {
		if s.current(gen) {
			s.onEvent(st)
		}
	})
	p.AddErrorCallback(func(err error) {
		if s.current(gen) {
			s.onError(err)
		}
	})
	p.AddTimeUpdateCallback(func() {
		if s.current(gen) {
			s.onTimeUpdate()
		}
	})
	s.player = p
	return nil
}

func (s *Session) current(gen uint64) bool {
	return !s.tornDown && gen == s.gen
}

func (s *Session) loadMedia(startTime *float64, thenPause bool) {
	if s.player == nil {
		return
	}
	s.player.Load(s.cfg.Media.Type, startTime)
	if thenPause {
		s.Pause(media.PauseOptions{})
	}
}

// releasePlayer resets and tears down the active player. Nothing the old
// player reports afterwards reaches the session.
func (s *Session) releasePlayer() {
	if s.player == nil {
		return
	}
	s.player.Reset()
	s.player.TearDown()
	s.player = nil
	s.gen++
}

// TearDown cancels both timers, releases the player and the source list.
// It is safe to call more than once.
func (s *Session) TearDown() {
	if s.tornDown {
		return
	}
	s.clearTimeouts()
	s.releasePlayer()
	s.tornDown = true
	s.sources.TearDown()
	s.isInitialPlay = true
	if s.started {
		metrics.ActiveSessions.Dec()
	}
	s.logger.Info().
		Str(xglog.FieldEvent, "session.teardown").
		Msg("playback session torn down")
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the last published state.
func (s *Session) State() media.State { return s.state }

// Play resumes playback.
func (s *Session) Play() {
	if s.player != nil {
		s.player.Play()
	}
}

// Pause pauses when the player allows it. Growing windows never auto-resume.
func (s *Session) Pause(opts media.PauseOptions) {
	if s.player == nil || !s.player.Transitions().CanBePaused() {
		return
	}
	if s.cfg.WindowType == media.WindowGrowing {
		opts.DisableAutoResume = true
	}
	s.player.Pause(opts)
}

// SetCurrentTime seeks when the player allows it. Restartable native HLS
// live streams cannot seek in place and are reloaded at the target instead.
func (s *Session) SetCurrentTime(t float64) {
	if s.player == nil || !s.player.Transitions().CanBeginSeek() {
		return
	}
	if s.isNativeHLSRestartable() {
		s.reloadAt(t)
		return
	}
	s.player.SetCurrentTime(t)
}

// IsEnded reports whether the player reached the end.
func (s *Session) IsEnded() bool {
	return s.player != nil && s.player.IsEnded()
}

// IsPaused reports whether the player is paused.
func (s *Session) IsPaused() bool {
	return s.player != nil && s.player.IsPaused()
}

// CurrentTime returns the playback position in seconds.
func (s *Session) CurrentTime() float64 {
	if s.player == nil {
		return 0
	}
	return s.player.CurrentTime()
}

// Duration returns the media duration in seconds, 0 when unknown.
func (s *Session) Duration() float64 {
	if s.player == nil {
		return 0
	}
	return s.player.Duration()
}

// SeekableRange returns the player's seekable range.
func (s *Session) SeekableRange() media.SeekableRange {
	if s.player == nil {
		return media.SeekableRange{}
	}
	return s.player.SeekableRange()
}

// WindowStartTime returns the live window start from the latest manifest.
func (s *Session) WindowStartTime() time.Time { return s.sources.Time().WindowStartTime }

// WindowEndTime returns the live window end from the latest manifest.
func (s *Session) WindowEndTime() time.Time { return s.sources.Time().WindowEndTime }

// PlayerElement returns the player's element handle, nil without a player.
func (s *Session) PlayerElement() any {
	if s.player == nil {
		return nil
	}
	return s.player.PlayerElement()
}

func (s *Session) SetPlaybackRate(r float64) {
	if s.player != nil {
		s.player.SetPlaybackRate(r)
	}
}

func (s *Session) PlaybackRate() float64 {
	if s.player == nil {
		return 0
	}
	return s.player.PlaybackRate()
}

// Transitions returns the player's transition guards. Without a player
// nothing is allowed.
func (s *Session) Transitions() media.Transitions {
	if s.player == nil {
		return noTransitions{}
	}
	return s.player.Transitions()
}

type noTransitions struct{}

func (noTransitions) CanBePaused() bool  { return false }
func (noTransitions) CanBeginSeek() bool { return false }
