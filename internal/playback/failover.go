// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import (
	xglog "github.com/ManuGH/playresilience/internal/log"
	"github.com/ManuGH/playresilience/internal/media"
	"github.com/ManuGH/playresilience/internal/plugins"
	"github.com/ManuGH/playresilience/internal/sources"
)

// attemptFailover is where both escalation ladders end up. On success the
// player is rebuilt against the new source at the same position, shifted
// by however far the live window moved.
func (s *Session) attemptFailover(bufferingTimeout bool) {
	position := s.CurrentTime()
	oldWindow := s.sources.Time()

	fc := sources.FailoverContext{
		ErrorMessage:            sources.ErrorMessageFatal,
		IsBufferingTimeoutError: bufferingTimeout,
		Duration:                s.Duration(),
		IsInitialPlay:           s.isInitialPlay,
	}
	if bufferingTimeout {
		fc.ErrorMessage = sources.ErrorMessageBufferingTimeout
	}
	if !s.isInitialPlay {
		fc.CurrentTime = sources.Seconds(position)
	}

	gen := s.gen
	s.sources.Failover(fc, sources.Callbacks{
		OnSuccess: func() {
			if !s.current(gen) {
				return
			}
			thenPause := s.IsPaused()
			offset := s.sources.Time().OffsetFrom(oldWindow)
			target := position - offset
			s.logger.Info().
				Str(xglog.FieldEvent, "session.failover_reload").
				Str(xglog.FieldCDN, s.sources.CurrentCDN()).
				Float64(xglog.FieldCurrentTime, target).
				Float64("window_offset", offset).
				Msg("reloading media after failover")
			s.reload(&target, thenPause)
		},
		OnError: func(err error) {
			if !s.current(gen) {
				return
			}
			s.clearTimeouts()
			if s.player != nil {
				s.player.Reset()
			}
			s.bubbleFatal(bufferingTimeout, err)
		},
	})
}

// reload replaces the player and loads the media at startTime.
// The old player is fully torn down before the factory is asked for a new one.
func (s *Session) reload(startTime *float64, thenPause bool) {
	s.clearTimeouts()
	s.releasePlayer()
	if err := s.buildPlayer(); err != nil {
		s.logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "session.player_build_failed").
			Msg("could not construct playback strategy for reload")
		if s.cfg.OnError != nil {
			s.cfg.OnError(err)
		}
		s.bubbleFatal(false, err)
		return
	}
	s.loadMedia(startTime, thenPause)
}

func (s *Session) isNativeHLSRestartable() bool {
	return s.cfg.Strategy == media.StrategyNative &&
		s.transferFormat() == media.TransferFormatHLS &&
		s.cfg.WindowType.IsLive() &&
		s.cfg.LiveSupport == media.LiveSupportRestartable
}

func (s *Session) transferFormat() media.TransferFormat {
	if f := s.sources.TransferFormat(); f != "" {
		return f
	}
	return s.cfg.Media.TransferFormat
}

// reloadAt seeks by refreshing the manifest and restarting the player.
// Targets within LiveEdgeMargin of the live edge resume unpaused at the edge.
func (s *Session) reloadAt(t float64) {
	oldWindow := s.sources.Time()
	gen := s.gen
	s.sources.Refresh(sources.Callbacks{
		OnSuccess: func() {
			if !s.current(gen) {
				return
			}
			offset := s.sources.Time().OffsetFrom(oldWindow)
			seekable := s.SeekableRange()
			target := t - offset
			thenPause := s.IsPaused()

			start := &target
			if target > seekable.Width()-s.timeouts.LiveEdgeMargin.Seconds() {
				start = nil
				thenPause = false
			}
			s.logger.Debug().
				Str(xglog.FieldEvent, "session.seek_reload").
				Float64("requested", t).
				Float64("window_offset", offset).
				Bool("live_edge", start == nil).
				Msg("restarting player to seek")
			s.reload(start, thenPause)
		},
		OnError: func(err error) {
			if !s.current(gen) {
				return
			}
			s.clearTimeouts()
			if s.player != nil {
				s.player.Reset()
			}
			s.bubbleFatal(false, err)
		},
	})
}

// bubbleFatal publishes the terminal state.
func (s *Session) bubbleFatal(bufferingTimeout bool, cause error) {
	fe := &FatalError{BufferingTimeout: bufferingTimeout, Err: cause}
	s.logger.Error().
		Err(cause).
		Str(xglog.FieldEvent, "session.fatal").
		Bool(xglog.FieldBufferingTimeout, bufferingTimeout).
		Str(xglog.FieldCDN, s.sources.CurrentCDN()).
		Msg("playback failed, no recovery left")
	s.emit(plugins.Event{
		Kind:                    plugins.KindFatalError,
		Status:                  plugins.StatusFatal,
		StateType:               plugins.TypeError,
		IsBufferingTimeoutError: bufferingTimeout,
		CDN:                     s.sources.CurrentCDN(),
	})
	s.publish(media.StateFatalError, false, bufferingTimeout)
	if s.cfg.OnFatal != nil {
		s.cfg.OnFatal(fe)
	}
}
