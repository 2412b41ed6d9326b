// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import (
	"time"

	xglog "github.com/ManuGH/playresilience/internal/log"
	"github.com/ManuGH/playresilience/internal/loop"
	"github.com/ManuGH/playresilience/internal/media"
	"github.com/ManuGH/playresilience/internal/metrics"
	"github.com/ManuGH/playresilience/internal/plugins"
)

func (s *Session) onEvent(st media.State) {
	switch st {
	case media.StatePlaying:
		s.clearTimeouts()
		s.publish(media.StatePlaying, false, false)
		s.isInitialPlay = false
	case media.StatePaused:
		s.publish(media.StatePaused, false, false)
		s.clearTimeouts()
	case media.StateWaiting:
		s.publish(media.StateWaiting, false, false)
		s.startBufferingTimeout()
		s.emitErrorCleared()
		s.emitBufferingRaised()
	case media.StateEnded:
		s.clearTimeouts()
		s.publish(media.StateEnded, false, false)
	default:
		s.logger.Debug().
			Str(xglog.FieldEvent, "session.event_ignored").
			Str(xglog.FieldNewState, string(st)).
			Msg("ignoring media state without a transition")
	}
}

func (s *Session) onError(err error) {
	s.logger.Warn().
		Err(err).
		Str(xglog.FieldEvent, "session.player_error").
		Str(xglog.FieldCDN, s.sources.CurrentCDN()).
		Msg("player reported an error")
	s.emitBufferingCleared()
	s.raiseError()
}

func (s *Session) onTimeUpdate() {
	if s.ticks.Allow() {
		s.logger.Debug().
			Str(xglog.FieldEvent, "session.time_update").
			Float64(xglog.FieldCurrentTime, s.CurrentTime()).
			Float64(xglog.FieldDuration, s.Duration()).
			Msg("time update")
	}
	s.publish("", true, false)
}

func (s *Session) raiseError() {
	s.clearBufferingTimeout("escalated")
	s.publish(media.StateWaiting, false, false)
	s.emit(plugins.Event{Kind: plugins.KindErrorRaised, Status: plugins.StatusStarted, StateType: plugins.TypeError})
	s.startFatalErrorTimeout()
}

func (s *Session) startBufferingTimeout() {
	d := s.timeouts.Buffering
	if s.isInitialPlay {
		d = s.timeouts.InitialBuffering
	}
	s.clearBufferingTimeout("")
	s.bufferingSince = s.sched.Now()
	s.bufferingTimer = s.sched.AfterFunc(d, func() {
		s.bufferingTimer = nil
		if s.tornDown {
			return
		}
		s.observeBuffering("escalated")
		s.logger.Warn().
			Str(xglog.FieldEvent, "session.buffering_timeout").
			Dur("timeout", d).
			Bool("initial_play", s.isInitialPlay).
			Msg("buffering timed out, attempting failover")
		s.emitBufferingCleared()
		s.attemptFailover(true)
	})
}

func (s *Session) startFatalErrorTimeout() {
	if s.fatalTimer != nil || s.fatalError {
		return
	}
	s.fatalTimer = s.sched.AfterFunc(s.timeouts.FatalError, func() {
		s.fatalTimer = nil
		if s.tornDown {
			return
		}
		s.fatalError = true
		s.logger.Warn().
			Str(xglog.FieldEvent, "session.fatal_error_timeout").
			Dur("timeout", s.timeouts.FatalError).
			Msg("player error persisted, attempting failover")
		s.attemptFailover(false)
	})
}

// clearBufferingTimeout cancels the buffering timer. A non-empty outcome
// records how long the cancelled stall lasted.
func (s *Session) clearBufferingTimeout(outcome string) {
	if loop.StopTimer(s.bufferingTimer) && outcome != "" {
		s.observeBuffering(outcome)
	}
	s.bufferingTimer = nil
}

func (s *Session) observeBuffering(outcome string) {
	if s.bufferingSince.IsZero() {
		return
	}
	metrics.ObserveBuffering(outcome, s.sched.Now().Sub(s.bufferingSince).Seconds())
	s.bufferingSince = time.Time{}
}

func (s *Session) clearFatalErrorTimeout() {
	loop.StopTimer(s.fatalTimer)
	s.fatalTimer = nil
}

// clearTimeouts ends both escalation ladders and dismisses their events.
func (s *Session) clearTimeouts() {
	s.clearBufferingTimeout("resolved")
	s.clearFatalErrorTimeout()
	s.fatalError = false
	s.emitBufferingCleared()
	s.emitErrorCleared()
}

func (s *Session) publish(st media.State, timeUpdate, bufferingTimeout bool) {
	data := Data{State: st}
	if s.player != nil {
		data.CurrentTime = s.player.CurrentTime()
		data.SeekableRange = s.player.SeekableRange()
		data.Duration = s.player.Duration()
	}
	if st != "" {
		if st != s.state {
			s.logger.Debug().
				Str(xglog.FieldEvent, "session.state").
				Str(xglog.FieldOldState, string(s.state)).
				Str(xglog.FieldNewState, string(st)).
				Msg("media state changed")
		}
		s.state = st
		metrics.RecordStateTransition(string(st))
	}
	s.cfg.OnStateUpdate(StateUpdate{
		Data:                    data,
		TimeUpdate:              timeUpdate,
		IsBufferingTimeoutError: bufferingTimeout,
	})
}

func (s *Session) emit(ev plugins.Event) {
	ev.SessionID = s.id
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.sched.Now()
	}
	s.sink.Emit(ev)
}

func (s *Session) emitErrorCleared() {
	s.emit(plugins.Event{Kind: plugins.KindErrorCleared, Status: plugins.StatusDismissed, StateType: plugins.TypeError})
}

func (s *Session) emitBufferingRaised() {
	s.emit(plugins.Event{Kind: plugins.KindBufferingRaised, Status: plugins.StatusStarted, StateType: plugins.TypeBuffering})
}

func (s *Session) emitBufferingCleared() {
	s.emit(plugins.Event{
		Kind:          plugins.KindBufferingCleared,
		Status:        plugins.StatusDismissed,
		StateType:     plugins.TypeBuffering,
		IsInitialPlay: s.isInitialPlay,
	})
}
