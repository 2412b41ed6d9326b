// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecordFailoverDecision(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	defer otel.SetMeterProvider(noop.NewMeterProvider())

	ctx := context.Background()
	RecordFailoverDecision(ctx, "accepted", "staticWindow", true)
	RecordFailoverDecision(ctx, "accepted", "staticWindow", true)
	RecordFailoverDecision(ctx, "near_end", "staticWindow", false)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	assert.Equal(t, TracerName, rm.ScopeMetrics[0].Scope.Name)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)

	m := rm.ScopeMetrics[0].Metrics[0]
	assert.Equal(t, FailoverDecisionsMetric, m.Name)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.True(t, sum.IsMonotonic)

	got := map[attribute.Distinct]int64{}
	for _, dp := range sum.DataPoints {
		got[dp.Attributes.Equivalent()] = dp.Value
	}
	accepted := attribute.NewSet(
		attribute.String(DecisionReasonKey, "accepted"),
		attribute.Bool(DecisionAcceptedKey, true),
		attribute.String(DecisionWindowTypeKey, "staticWindow"),
	)
	nearEnd := attribute.NewSet(
		attribute.String(DecisionReasonKey, "near_end"),
		attribute.Bool(DecisionAcceptedKey, false),
		attribute.String(DecisionWindowTypeKey, "staticWindow"),
	)
	assert.Equal(t, map[attribute.Distinct]int64{
		accepted.Equivalent(): 2,
		nearEnd.Equivalent():  1,
	}, got)
}

func TestRecordFailoverDecision_NoopProvider(t *testing.T) {
	otel.SetMeterProvider(noop.NewMeterProvider())
	assert.NotPanics(t, func() {
		RecordFailoverDecision(context.Background(), "exhausted", "slidingWindow", false)
	})
}
