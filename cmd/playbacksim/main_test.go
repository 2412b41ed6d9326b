// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/playresilience/internal/config"
	"github.com/ManuGH/playresilience/internal/loop"
	"github.com/ManuGH/playresilience/internal/media"
	"github.com/ManuGH/playresilience/internal/plugins"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const failoverScenario = `
scenarios:
  - name: cdn-failover
    windowType: staticWindow
    sources:
      - url: https://cdn-a.example/vod.mp4
        cdn: cdn-a
      - url: https://cdn-b.example/vod.mp4
        cdn: cdn-b
    timeline:
      - at: 1s
        event: playing
        currentTime: 10
        duration: 100
      - at: 5s
        event: error
      - at: 11s
        event: playing
    runFor: 12s
  - name: single-source
    windowType: staticWindow
    sources:
      - url: https://cdn-a.example/vod.mp4
        cdn: cdn-a
    timeline:
      - at: 1s
        event: playing
      - at: 2s
        event: error
    runFor: 30s
`

type simHarness struct {
	sched    *loop.Manual
	rec      *plugins.Recorder
	runner   *runner
	outcomes map[string]Outcome
}

func newSimHarness(t *testing.T) *simHarness {
	t.Helper()
	h := &simHarness{
		sched:    loop.NewManual(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)),
		rec:      &plugins.Recorder{},
		outcomes: make(map[string]Outcome),
	}
	h.runner = newRunner(h.sched, func() config.SessionConfig { return config.Defaults().Session }, h.rec)
	return h
}

func (h *simHarness) start(scenarios []Scenario) {
	for i := range scenarios {
		h.runner.start(&scenarios[i], func(o Outcome) { h.outcomes[o.Scenario] = o })
	}
}

func TestParseScenarios(t *testing.T) {
	scenarios, err := parseScenarios([]byte(failoverScenario))
	require.NoError(t, err)
	require.Len(t, scenarios, 2)

	sc := scenarios[0]
	assert.Equal(t, "cdn-failover", sc.Name)
	assert.Equal(t, "video/mp4", sc.MimeType)
	assert.Equal(t, 12*time.Second, sc.runFor)
	assert.Equal(t, 5*time.Second, sc.Timeline[1].at)
	require.NotNil(t, sc.Timeline[0].CurrentTime)
	assert.Equal(t, 10.0, *sc.Timeline[0].CurrentTime)
}

func TestParseScenarios_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", "empty"},
		{"no scenarios", "scenarios: []\n", "no scenarios"},
		{"unknown field", "scenarios:\n  - name: a\n    colour: red\n", "colour"},
		{"no sources", "scenarios:\n  - name: a\n", "source"},
		{
			"unknown event",
			"scenarios:\n  - name: a\n    sources: [{url: u, cdn: c}]\n    timeline: [{at: 1s, event: explode}]\n",
			"explode",
		},
		{
			"bad offset",
			"scenarios:\n  - name: a\n    sources: [{url: u, cdn: c}]\n    timeline: [{at: soon, event: playing}]\n",
			"at",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseScenarios([]byte(tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunner_FailoverScenario(t *testing.T) {
	scenarios, err := parseScenarios([]byte(failoverScenario))
	require.NoError(t, err)

	h := newSimHarness(t)
	h.start(scenarios)
	assert.Len(t, h.runner.statuses(), 2)

	h.sched.Advance(30 * time.Second)

	require.Len(t, h.outcomes, 2)
	assert.Empty(t, h.runner.statuses())
	assert.Zero(t, h.sched.Pending(), "finished scenarios leave no timers behind")

	failover := h.outcomes["cdn-failover"]
	assert.Equal(t, media.StatePlaying, failover.FinalState)
	assert.Equal(t, 2, failover.Players)
	assert.Equal(t, "cdn-b", failover.Sources.CDN)
	assert.Empty(t, failover.Fatal)
	assert.Empty(t, failover.Error)

	single := h.outcomes["single-source"]
	assert.Equal(t, media.StateFatalError, single.FinalState)
	assert.Equal(t, 1, single.Players)
	assert.NotEmpty(t, single.Fatal)

	assert.NotEmpty(t, h.rec.OfKind(plugins.KindErrorHandled))
	assert.NotEmpty(t, h.rec.OfKind(plugins.KindFatalError))
}

func TestRunner_ManifestFailureExhaustsSources(t *testing.T) {
	scenarios, err := parseScenarios([]byte(`
scenarios:
  - name: broken-live
    windowType: slidingWindow
    transferFormat: hls
    liveSupport: seekable
    sources:
      - url: https://cdn-a.example/live.m3u8
        cdn: cdn-a
      - url: https://cdn-b.example/live.m3u8
        cdn: cdn-b
    manifests:
      https://cdn-a.example/live.m3u8: {fail: true}
      https://cdn-b.example/live.m3u8: {fail: true}
`))
	require.NoError(t, err)

	h := newSimHarness(t)
	h.start(scenarios)

	o, ok := h.outcomes["broken-live"]
	require.True(t, ok, "an exhausted initial load finishes immediately")
	assert.NotEmpty(t, o.Error)
	assert.Equal(t, media.StateEmpty, o.FinalState)
	assert.Zero(t, o.Players)
}

func TestSummarizeAndWriteReport(t *testing.T) {
	outcomes := []Outcome{
		{Scenario: "a", Fatal: "playback failed"},
		{Scenario: "b"},
	}
	events := []plugins.Event{
		{Kind: plugins.KindErrorHandled},
		{Kind: plugins.KindErrorHandled},
		{Kind: plugins.KindFatalError},
	}
	rep := Report{Outcomes: outcomes, Events: events, Summary: summarize(outcomes, events)}
	assert.Equal(t, 2, rep.Summary.Scenarios)
	assert.Equal(t, 1, rep.Summary.Fatal)
	assert.Equal(t, 2, rep.Summary.Events["error_handled"])

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, writeReport(path, rep))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Report
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, rep.Summary, got.Summary)
}

func TestRouter(t *testing.T) {
	h := newSimHarness(t)
	direct := func(_ context.Context, fn func()) error { fn(); return nil }
	srv := httptest.NewServer(newRouter(direct, h.runner))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/sessions")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var statuses []SessionStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&statuses))
	assert.Empty(t, statuses)

	resp2, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	_ = resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}
