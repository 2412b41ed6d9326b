// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sources

import (
	"fmt"

	xglog "github.com/ManuGH/playresilience/internal/log"
	"github.com/ManuGH/playresilience/internal/plugins"
)

// FailoverSubtitles moves to the next subtitles source after a failed
// request. With no alternative left it reports a FATAL subtitles load error
// and calls cb.OnError. Both callbacks are optional.
func (l *List) FailoverSubtitles(statusCode int, cb Callbacks) {
	failedCDN := l.CurrentSubtitlesCDN()

	if len(l.subtitles) < 2 {
		l.logger.Warn().
			Str(xglog.FieldEvent, "sources.subtitles_exhausted").
			Str(xglog.FieldCDN, failedCDN).
			Int("status_code", statusCode).
			Msg("no subtitles source left to fail over to")
		l.emitSubtitlesError(statusCode, plugins.StatusFatal, failedCDN)
		cb.fail(fmt.Errorf("subtitles: %w", ErrSourcesExhausted))
		return
	}

	abandoned := l.subtitles[0]
	l.subtitles = cloneSubtitles(l.subtitles[1:])
	l.failedSubtitles.add(l.sched, abandoned, l.resetTime, func(s SubtitlesSource) {
		l.subtitles = append(l.subtitles, s)
	})

	l.logger.Info().
		Str(xglog.FieldEvent, "sources.subtitles_failover").
		Str(xglog.FieldCDN, failedCDN).
		Str(xglog.FieldNewCDN, l.CurrentSubtitlesCDN()).
		Int("status_code", statusCode).
		Msg("failed over to next subtitles source")
	l.emitSubtitlesError(statusCode, plugins.StatusFailover, failedCDN)
	cb.succeed()
}

func (l *List) emitSubtitlesError(statusCode int, severity plugins.Status, cdn string) {
	l.emit(plugins.Event{
		Kind:       plugins.KindSubtitlesLoadError,
		Status:     severity,
		StatusCode: statusCode,
		CDN:        cdn,
	})
}

// CurrentSubtitlesSource returns the active subtitles URL, or "".
func (l *List) CurrentSubtitlesSource() string {
	if len(l.subtitles) == 0 {
		return ""
	}
	return l.subtitles[0].URL
}

// CurrentSubtitlesCDN returns the active subtitles CDN, or "".
func (l *List) CurrentSubtitlesCDN() string {
	if len(l.subtitles) == 0 {
		return ""
	}
	return l.subtitles[0].CDN
}

// CurrentSubtitlesSegmentLength returns the active subtitles segment length, or 0.
func (l *List) CurrentSubtitlesSegmentLength() float64 {
	if len(l.subtitles) == 0 {
		return 0
	}
	return l.subtitles[0].SegmentLength
}

// SubtitlesAvailable reports whether any subtitles source is active.
func (l *List) SubtitlesAvailable() bool {
	return len(l.subtitles) > 0
}
