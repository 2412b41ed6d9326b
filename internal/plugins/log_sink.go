// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package plugins

import (
	xglog "github.com/ManuGH/playresilience/internal/log"
	"github.com/rs/zerolog"
)

// LogSink writes every event as a structured log line.
type LogSink struct {
	Logger zerolog.Logger
}

// NewLogSink returns a LogSink using the plugins component logger.
func NewLogSink() *LogSink {
	return &LogSink{Logger: xglog.WithComponent("plugins")}
}

// Emit logs ev at a level matching its severity.
func (s *LogSink) Emit(ev Event) {
	var e *zerolog.Event
	switch {
	case ev.Kind == KindFatalError || ev.Status == StatusFatal:
		e = s.Logger.Error()
	case ev.Kind == KindErrorRaised || ev.Kind == KindErrorHandled || ev.Kind == KindSubtitlesLoadError:
		e = s.Logger.Warn()
	default:
		e = s.Logger.Debug()
	}

	e = e.Str(xglog.FieldEvent, "plugins."+string(ev.Kind)).
		Str("status", string(ev.Status))
	if ev.SessionID != "" {
		e = e.Str(xglog.FieldSessionID, ev.SessionID)
	}
	if ev.StateType != "" {
		e = e.Str("state_type", string(ev.StateType))
	}
	if ev.CDN != "" {
		e = e.Str(xglog.FieldCDN, ev.CDN)
	}
	if ev.NewCDN != "" {
		e = e.Str(xglog.FieldNewCDN, ev.NewCDN)
	}
	if ev.Reason != "" {
		e = e.Str("reason", ev.Reason)
	}
	if ev.StatusCode != 0 {
		e = e.Int("status_code", ev.StatusCode)
	}
	e.Bool(xglog.FieldBufferingTimeout, ev.IsBufferingTimeoutError).
		Bool("initial_play", ev.IsInitialPlay).
		Msg("plugin event")
}
