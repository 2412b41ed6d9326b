// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// FailoverDecisionsMetric counts failover policy outcomes.
const FailoverDecisionsMetric = "playback_failover_decisions_total"

// Decision attribute keys (frozen, dashboards depend on them).
const (
	DecisionReasonKey     = "reason"
	DecisionAcceptedKey   = "accepted"
	DecisionWindowTypeKey = "window_type"
)

// RecordFailoverDecision counts one failover policy outcome on the global
// meter provider. The provider is looked up per call so a provider installed
// after startup is honoured.
func RecordFailoverDecision(ctx context.Context, reason, windowType string, accepted bool) {
	meter := otel.GetMeterProvider().Meter(TracerName)
	counter, err := meter.Int64Counter(FailoverDecisionsMetric,
		metric.WithDescription("Failover policy decisions by outcome"))
	if err != nil {
		otel.Handle(err)
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(DecisionReasonKey, reason),
		attribute.Bool(DecisionAcceptedKey, accepted),
		attribute.String(DecisionWindowTypeKey, windowType),
	))
}
