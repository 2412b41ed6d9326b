// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FailoverTotal counts failover decisions by outcome and trigger.
	// result: handled, declined, ignored; trigger: buffering, fatal, manifest.
	FailoverTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_failover_total",
		Help: "Total number of CDN failover attempts by result and trigger",
	}, []string{"result", "trigger"})

	// FailoverDeclinedTotal counts declined failovers by policy reason.
	FailoverDeclinedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_failover_declined_total",
		Help: "Total number of failovers declined by the failover policy, by reason",
	}, []string{"reason"})

	// BlacklistedSources tracks sources currently waiting for reinstatement.
	BlacklistedSources = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "playback_blacklisted_sources",
		Help: "Number of failed sources currently excluded from the candidate list",
	}, []string{"kind"})

	// ReinstatedTotal counts sources returned to the candidate list after their reset window.
	ReinstatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_source_reinstated_total",
		Help: "Total number of blacklisted sources reinstated after the failover reset time",
	}, []string{"kind"})

	// ManifestReloadTotal counts manifest reloads by reason and result.
	ManifestReloadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_manifest_reload_total",
		Help: "Total number of manifest (re)loads by result",
	}, []string{"result"})
)

// Source kinds for blacklist metrics.
const (
	SourceKindMedia     = "media"
	SourceKindSubtitles = "subtitles"
)

// RecordFailover increments the failover counter.
func RecordFailover(result, trigger string) {
	FailoverTotal.WithLabelValues(result, trigger).Inc()
}

// RecordFailoverDeclined increments the declined counter for reason.
func RecordFailoverDeclined(reason string) {
	FailoverDeclinedTotal.WithLabelValues(reason).Inc()
}

// AddBlacklisted adjusts the blacklist gauge for kind by delta.
func AddBlacklisted(kind string, delta int) {
	BlacklistedSources.WithLabelValues(kind).Add(float64(delta))
}

// RecordReinstated increments the reinstatement counter.
func RecordReinstated(kind string) {
	ReinstatedTotal.WithLabelValues(kind).Inc()
}

// RecordManifestReload increments the manifest reload counter.
func RecordManifestReload(result string) {
	ManifestReloadTotal.WithLabelValues(result).Inc()
}
