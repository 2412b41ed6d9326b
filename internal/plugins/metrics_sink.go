// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package plugins

import "github.com/ManuGH/playresilience/internal/metrics"

// MetricsSink turns plugin events into prometheus counters.
type MetricsSink struct{}

// Emit records ev.
func (MetricsSink) Emit(ev Event) {
	metrics.RecordPluginEvent(string(ev.Kind))
	switch ev.Kind {
	case KindFatalError:
		cause := "fatal_error"
		if ev.IsBufferingTimeoutError {
			cause = "buffering_timeout"
		}
		metrics.RecordFatalError(cause)
	case KindSubtitlesLoadError:
		metrics.RecordSubtitlesLoadError(string(ev.Status))
	}
}
