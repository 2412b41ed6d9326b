// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, g.Write(m))
	return m.GetGauge().GetValue()
}

func TestRecordFailover(t *testing.T) {
	c := FailoverTotal.WithLabelValues("handled", "buffering")
	before := counterValue(t, c)
	RecordFailover("handled", "buffering")
	require.Equal(t, before+1, counterValue(t, c))
}

func TestAddBlacklisted(t *testing.T) {
	g := BlacklistedSources.WithLabelValues(SourceKindSubtitles)
	before := gaugeValue(t, g)
	AddBlacklisted(SourceKindSubtitles, 2)
	AddBlacklisted(SourceKindSubtitles, -1)
	require.Equal(t, before+1, gaugeValue(t, g))
}

func TestIncBusDropReason_DefaultsLabels(t *testing.T) {
	c := BusDroppedTotal.WithLabelValues("unknown", "unknown")
	before := counterValue(t, c)
	IncBusDropReason("", "")
	require.Equal(t, before+1, counterValue(t, c))
}
