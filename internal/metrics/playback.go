// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PluginEventsTotal counts plugin events emitted by kind.
	PluginEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_plugin_events_total",
		Help: "Total number of plugin events emitted, by kind",
	}, []string{"kind"})

	// FatalErrorsTotal counts terminal playback failures by the ladder that led there.
	FatalErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_fatal_errors_total",
		Help: "Total number of terminal playback failures by cause (buffering_timeout, fatal_error)",
	}, []string{"cause"})

	// SubtitlesLoadErrorsTotal counts subtitles load errors by severity.
	SubtitlesLoadErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_subtitles_load_errors_total",
		Help: "Total number of subtitles load errors by severity",
	}, []string{"severity"})

	// StateTransitionsTotal counts published media state transitions.
	StateTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_state_transitions_total",
		Help: "Media state transitions published by playback sessions",
	}, []string{"state"})

	// ActiveSessions tracks live playback sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playback_active_sessions",
		Help: "Number of playback sessions that have started and not yet torn down",
	})

	// BufferingDuration observes how long buffering lasted before it resolved or escalated.
	BufferingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "playback_buffering_duration_seconds",
		Help:    "Time spent in WAITING before playback resumed or the session escalated",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"outcome"})
)

// RecordPluginEvent increments the plugin event counter.
func RecordPluginEvent(kind string) {
	PluginEventsTotal.WithLabelValues(kind).Inc()
}

// RecordFatalError increments the fatal error counter for cause.
func RecordFatalError(cause string) {
	FatalErrorsTotal.WithLabelValues(cause).Inc()
}

// RecordSubtitlesLoadError increments the subtitles load error counter.
func RecordSubtitlesLoadError(severity string) {
	SubtitlesLoadErrorsTotal.WithLabelValues(severity).Inc()
}

// RecordStateTransition increments the state transition counter.
func RecordStateTransition(state string) {
	StateTransitionsTotal.WithLabelValues(state).Inc()
}

// ObserveBuffering records a buffering period with its outcome (resumed, escalated).
func ObserveBuffering(outcome string, seconds float64) {
	BufferingDuration.WithLabelValues(outcome).Observe(seconds)
}
