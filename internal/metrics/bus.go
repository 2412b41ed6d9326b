// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BusDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_bus_dropped_total",
		Help: "Total number of in-memory bus message drops by topic and reason",
	}, []string{"topic", "reason"})

	BusPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_bus_published_total",
		Help: "Total number of in-memory bus messages delivered to all subscribers",
	}, []string{"topic"})
)

// IncBusDropReason records a dropped bus message with a concrete reason.
func IncBusDropReason(topic, reason string) {
	if topic == "" {
		topic = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}
	BusDroppedTotal.WithLabelValues(topic, reason).Inc()
}

// IncBusPublished records a message delivered on topic.
func IncBusPublished(topic string) {
	if topic == "" {
		topic = "unknown"
	}
	BusPublishedTotal.WithLabelValues(topic).Inc()
}
