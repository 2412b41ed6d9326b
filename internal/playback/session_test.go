// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ManuGH/playresilience/internal/loop"
	"github.com/ManuGH/playresilience/internal/manifest"
	mfake "github.com/ManuGH/playresilience/internal/manifest/fake"
	"github.com/ManuGH/playresilience/internal/media"
	"github.com/ManuGH/playresilience/internal/media/fake"
	"github.com/ManuGH/playresilience/internal/playback"
	"github.com/ManuGH/playresilience/internal/plugins"
	"github.com/ManuGH/playresilience/internal/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

const mimeType = "application/dash+xml"

type setup struct {
	window      media.WindowType
	liveSupport media.LiveSupport
	strategy    media.StrategyKind
	format      media.TransferFormat
	urls        int
	initialTime *float64
	results     map[string]manifest.Result
}

func defaultSetup() setup {
	return setup{
		window:      media.WindowStatic,
		liveSupport: media.LiveSupportSeekable,
		strategy:    media.StrategyMSE,
		format:      media.TransferFormatDASH,
		urls:        2,
	}
}

type harness struct {
	sched   *loop.Manual
	loader  *mfake.Loader
	rec     *plugins.Recorder
	factory *fake.Factory
	list    *sources.List
	session *playback.Session

	updates []playback.StateUpdate
	fatals  []*playback.FatalError
	errs    []error
}

func sourceURL(i int) string {
	return "http://source" + string(rune('1'+i)) + ".com/"
}

func cdnURL(i int) string {
	return "http://supplier" + string(rune('1'+i)) + ".com/"
}

func newHarness(t *testing.T, opts ...func(*setup)) *harness {
	t.Helper()
	st := defaultSetup()
	for _, o := range opts {
		o(&st)
	}

	h := &harness{
		sched:   loop.NewManual(epoch),
		loader:  &mfake.Loader{Default: manifest.Result{TransferFormat: st.format}, Results: st.results},
		rec:     &plugins.Recorder{},
		factory: &fake.Factory{},
	}
	h.list = sources.New(sources.Deps{
		Scheduler:   h.sched,
		Coordinator: manifest.NewCoordinator(h.loader),
		Sink:        h.rec,
		SessionID:   "session-1",
	})

	urls := make([]sources.Source, 0, st.urls)
	for i := 0; i < st.urls; i++ {
		urls = append(urls, sources.Source{URL: sourceURL(i), CDN: cdnURL(i)})
	}
	initialised := false
	require.NoError(t, h.list.Init(sources.Params{
		Media:       sources.Media{URLs: urls, TransferFormat: st.format},
		ServerDate:  epoch,
		WindowType:  st.window,
		LiveSupport: st.liveSupport,
	}, sources.Callbacks{
		OnSuccess: func() { initialised = true },
		OnError:   func(err error) { t.Fatalf("init sources: %v", err) },
	}))
	require.True(t, initialised)

	s, err := playback.NewSession(playback.Config{
		ID:                  "session-1",
		Sources:             h.list,
		Scheduler:           h.sched,
		NewPlayer:           h.factory.Build,
		Strategy:            st.strategy,
		WindowType:          st.window,
		LiveSupport:         st.liveSupport,
		Media:               playback.Media{Type: mimeType, Kind: media.KindVideo, TransferFormat: st.format},
		InitialPlaybackTime: st.initialTime,
		Sink:                h.rec,
		OnStateUpdate:       func(u playback.StateUpdate) { h.updates = append(h.updates, u) },
		OnError:             func(err error) { h.errs = append(h.errs, err) },
		OnFatal:             func(fe *playback.FatalError) { h.fatals = append(h.fatals, fe) },
	})
	require.NoError(t, err)
	h.session = s
	t.Cleanup(s.TearDown)
	return h
}

func (h *harness) start(t *testing.T) *fake.Player {
	t.Helper()
	h.session.Start()
	p := h.factory.Latest()
	require.NotNil(t, p)
	return p
}

func (h *harness) lastUpdate(t *testing.T) playback.StateUpdate {
	t.Helper()
	require.NotEmpty(t, h.updates)
	return h.updates[len(h.updates)-1]
}

func (h *harness) states() []media.State {
	var out []media.State
	for _, u := range h.updates {
		if u.Data.State != "" {
			out = append(out, u.Data.State)
		}
	}
	return out
}

func TestNewSession_Validates(t *testing.T) {
	valid := func() playback.Config {
		return playback.Config{
			Sources:       sources.New(sources.Deps{}),
			Scheduler:     loop.NewManual(epoch),
			NewPlayer:     (&fake.Factory{}).Build,
			OnStateUpdate: func(playback.StateUpdate) {},
		}
	}
	tests := []struct {
		name   string
		mutate func(*playback.Config)
	}{
		{"no sources", func(c *playback.Config) { c.Sources = nil }},
		{"no scheduler", func(c *playback.Config) { c.Scheduler = nil }},
		{"no factory", func(c *playback.Config) { c.NewPlayer = nil }},
		{"no state callback", func(c *playback.Config) { c.OnStateUpdate = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			_, err := playback.NewSession(cfg)
			assert.ErrorIs(t, err, sources.ErrInvalidConfiguration)
		})
	}

	s, err := playback.NewSession(valid())
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())
}

func TestStart_LoadsInitialMedia(t *testing.T) {
	h := newHarness(t, func(s *setup) { s.initialTime = sources.Seconds(42) })
	p := h.start(t)

	load, ok := p.LastCall("Load")
	require.True(t, ok)
	assert.Equal(t, mimeType, load.MimeType)
	require.NotNil(t, load.StartTime)
	assert.Equal(t, 42.0, *load.StartTime)
	assert.Equal(t, media.KindVideo, p.Spec().Kind)
	assert.Equal(t, []plugins.Kind{plugins.KindErrorCleared}, h.rec.Kinds())
	assert.Equal(t, media.StateEmpty, h.session.State())
}

func TestStart_FactoryFailure(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("no strategy")
	h.factory.Err = boom

	h.session.Start()

	require.Len(t, h.errs, 1)
	assert.ErrorIs(t, h.errs[0], boom)
	assert.Nil(t, h.factory.Latest())
	assert.Nil(t, h.session.PlayerElement())
	assert.False(t, h.session.Transitions().CanBePaused())
}

func TestEvents_PlayingClearsTimers(t *testing.T) {
	h := newHarness(t)
	p := h.start(t)

	p.EmitState(media.StateWaiting)
	require.Equal(t, 1, h.sched.Pending())

	p.EmitState(media.StatePlaying)
	assert.Zero(t, h.sched.Pending())
	assert.Equal(t, media.StatePlaying, h.lastUpdate(t).Data.State)
	assert.Equal(t, []media.State{media.StateWaiting, media.StatePlaying}, h.states())
}

func TestEvents_WaitingEmitsClearedThenRaised(t *testing.T) {
	h := newHarness(t)
	p := h.start(t)
	h.rec.Reset()

	p.EmitState(media.StateWaiting)

	assert.Equal(t, []plugins.Kind{plugins.KindErrorCleared, plugins.KindBufferingRaised}, h.rec.Kinds())
	assert.Equal(t, media.StateWaiting, h.session.State())
}

func TestEvents_PausedAndEndedClearTimers(t *testing.T) {
	for _, st := range []media.State{media.StatePaused, media.StateEnded} {
		t.Run(string(st), func(t *testing.T) {
			h := newHarness(t)
			p := h.start(t)

			p.EmitState(media.StateWaiting)
			p.EmitError(nil)
			require.Equal(t, 1, h.sched.Pending())

			p.EmitState(st)
			assert.Zero(t, h.sched.Pending())
			assert.Equal(t, st, h.lastUpdate(t).Data.State)
		})
	}
}

func TestBuffering_InitialPlayTimeout(t *testing.T) {
	h := newHarness(t)
	p := h.start(t)
	p.SetPosition(10, 100)

	p.EmitState(media.StateWaiting)
	h.sched.Advance(30*time.Second - time.Millisecond)
	require.Len(t, h.factory.Players(), 1)

	h.sched.Advance(time.Millisecond)
	require.Len(t, h.factory.Players(), 2)
	assert.Equal(t, sourceURL(1), h.list.CurrentSource())

	handled := h.rec.OfKind(plugins.KindErrorHandled)
	require.Len(t, handled, 1)
	assert.True(t, handled[0].IsBufferingTimeoutError)
	assert.True(t, handled[0].IsInitialPlay)
}

func TestBuffering_TimeoutAfterPlaying(t *testing.T) {
	h := newHarness(t)
	p := h.start(t)

	p.EmitState(media.StatePlaying)
	p.EmitState(media.StateWaiting)
	h.sched.Advance(20*time.Second - time.Millisecond)
	require.Len(t, h.factory.Players(), 1)

	h.sched.Advance(time.Millisecond)
	assert.Len(t, h.factory.Players(), 2)
}

func TestBuffering_ClearedBeforeFailover(t *testing.T) {
	h := newHarness(t)
	p := h.start(t)
	p.EmitState(media.StateWaiting)
	h.rec.Reset()

	h.sched.Advance(30 * time.Second)

	kinds := h.rec.Kinds()
	require.NotEmpty(t, kinds)
	assert.Equal(t, plugins.KindBufferingCleared, kinds[0])
	assert.Contains(t, kinds, plugins.KindErrorHandled)
}

func TestFailover_ReplacesPlayerBeforeLoading(t *testing.T) {
	h := newHarness(t)
	first := h.start(t)
	first.SetPosition(50, 100)
	first.EmitState(media.StatePlaying)

	first.EmitState(media.StateWaiting)
	h.sched.Advance(20 * time.Second)

	players := h.factory.Players()
	require.Len(t, players, 2)
	assert.True(t, first.TornDown())
	methods := first.Methods()
	require.GreaterOrEqual(t, len(methods), 2)
	assert.Equal(t, []string{"Reset", "TearDown"}, methods[len(methods)-2:])

	load, ok := players[1].LastCall("Load")
	require.True(t, ok)
	require.NotNil(t, load.StartTime)
	assert.Equal(t, 50.0, *load.StartTime)
}

func TestFailover_StalePlayerIgnored(t *testing.T) {
	h := newHarness(t)
	first := h.start(t)
	first.EmitState(media.StateWaiting)
	h.sched.Advance(30 * time.Second)
	require.Len(t, h.factory.Players(), 2)

	before := len(h.updates)
	first.EmitState(media.StatePlaying)
	first.EmitError(nil)
	first.EmitTimeUpdate()
	assert.Len(t, h.updates, before)
	assert.Equal(t, 1, h.sched.Pending(), "only the blacklist timer is pending")
}

func TestFailover_RestoresPauseState(t *testing.T) {
	h := newHarness(t)
	first := h.start(t)
	first.EmitState(media.StatePlaying)
	first.SetPaused(true)
	first.EmitError(nil)

	h.sched.Advance(5 * time.Second)

	second := h.factory.Latest()
	require.NotSame(t, first, second)
	assert.Equal(t, []string{"Load", "Pause"}, second.Methods())
}

func TestFailover_AppliesWindowOffset(t *testing.T) {
	h := newHarness(t, func(s *setup) {
		s.window = media.WindowSliding
		s.format = media.TransferFormatHLS
		s.results = map[string]manifest.Result{
			sourceURL(0): {TransferFormat: media.TransferFormatHLS, Time: manifest.TimeWindow{WindowStartTime: epoch}},
			sourceURL(1): {TransferFormat: media.TransferFormatHLS, Time: manifest.TimeWindow{WindowStartTime: epoch.Add(10 * time.Second)}},
		}
	})
	first := h.start(t)
	first.SetPosition(100, 0)
	first.EmitState(media.StatePlaying)

	first.EmitState(media.StateWaiting)
	h.sched.Advance(20 * time.Second)

	load, ok := h.factory.Latest().LastCall("Load")
	require.True(t, ok)
	require.NotNil(t, load.StartTime)
	assert.Equal(t, 90.0, *load.StartTime)
	assert.Equal(t, epoch.Add(10*time.Second), h.session.WindowStartTime())
}

func TestError_StartsSingleFatalTimer(t *testing.T) {
	h := newHarness(t)
	p := h.start(t)
	h.rec.Reset()

	p.EmitError(nil)
	assert.Equal(t, []plugins.Kind{plugins.KindBufferingCleared, plugins.KindErrorRaised}, h.rec.Kinds())
	assert.Equal(t, media.StateWaiting, h.lastUpdate(t).Data.State)
	require.Equal(t, 1, h.sched.Pending())

	h.sched.Advance(3 * time.Second)
	p.EmitError(nil)
	require.Equal(t, 1, h.sched.Pending())

	h.sched.Advance(2 * time.Second)
	handled := h.rec.OfKind(plugins.KindErrorHandled)
	require.Len(t, handled, 1)
	assert.False(t, handled[0].IsBufferingTimeoutError)
}

func TestError_CancelsBufferingTimer(t *testing.T) {
	h := newHarness(t)
	p := h.start(t)

	p.EmitState(media.StateWaiting)
	p.EmitError(nil)
	require.Equal(t, 1, h.sched.Pending())

	h.sched.Advance(5 * time.Second)
	assert.Len(t, h.factory.Players(), 2)

	h.sched.Advance(30 * time.Second)
	assert.Len(t, h.factory.Players(), 2)
}

func TestExhaustion_IsTerminal(t *testing.T) {
	tests := []struct {
		name             string
		trigger          func(p *fake.Player)
		advance          time.Duration
		bufferingTimeout bool
	}{
		{"buffering timeout", func(p *fake.Player) { p.EmitState(media.StateWaiting) }, 30 * time.Second, true},
		{"fatal error", func(p *fake.Player) { p.EmitError(nil) }, 5 * time.Second, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(s *setup) { s.urls = 1 })
			p := h.start(t)

			tt.trigger(p)
			h.sched.Advance(tt.advance)

			require.Len(t, h.fatals, 1)
			fe := h.fatals[0]
			assert.Equal(t, tt.bufferingTimeout, fe.BufferingTimeout)
			assert.ErrorIs(t, fe, sources.ErrSourcesExhausted)
			if tt.bufferingTimeout {
				assert.ErrorIs(t, fe, playback.ErrBufferingTimeout)
			} else {
				assert.ErrorIs(t, fe, playback.ErrFatalPlayback)
			}

			last := h.lastUpdate(t)
			assert.Equal(t, media.StateFatalError, last.Data.State)
			assert.Equal(t, tt.bufferingTimeout, last.IsBufferingTimeoutError)

			fatal := h.rec.OfKind(plugins.KindFatalError)
			require.Len(t, fatal, 1)
			assert.Equal(t, tt.bufferingTimeout, fatal[0].IsBufferingTimeoutError)
			assert.Len(t, h.rec.OfKind(plugins.KindFailoverDeclined), 1)
			assert.Len(t, h.factory.Players(), 1)
			assert.Zero(t, h.sched.Pending())
		})
	}
}

func TestExhaustion_AfterSuccessfulFailover(t *testing.T) {
	h := newHarness(t)
	first := h.start(t)
	first.EmitError(nil)
	h.sched.Advance(5 * time.Second)
	require.Equal(t, sourceURL(1), h.list.CurrentSource())

	second := h.factory.Latest()
	second.EmitError(nil)
	h.sched.Advance(5 * time.Second)

	require.Len(t, h.fatals, 1)
	assert.Equal(t, sourceURL(1), h.list.CurrentSource())
	assert.Equal(t, media.StateFatalError, h.session.State())
}

func TestTimeUpdate_PublishesTick(t *testing.T) {
	h := newHarness(t)
	p := h.start(t)
	p.SetPosition(12, 100)
	p.SetSeekableRange(media.SeekableRange{Start: 0, End: 100})

	p.EmitTimeUpdate()

	want := playback.StateUpdate{
		Data:       playback.Data{CurrentTime: 12, SeekableRange: media.SeekableRange{Start: 0, End: 100}, Duration: 100},
		TimeUpdate: true,
	}
	assert.Equal(t, want, h.lastUpdate(t))
}

func TestPause(t *testing.T) {
	tests := []struct {
		name        string
		window      media.WindowType
		canPause    bool
		opts        media.PauseOptions
		wantCall    bool
		wantDisable bool
	}{
		{"static keeps caller intent", media.WindowStatic, true, media.PauseOptions{}, true, false},
		{"static honours disable", media.WindowStatic, true, media.PauseOptions{DisableAutoResume: true}, true, true},
		{"growing always disables", media.WindowGrowing, true, media.PauseOptions{}, true, true},
		{"sliding keeps caller intent", media.WindowSliding, true, media.PauseOptions{}, true, false},
		{"not pausable", media.WindowStatic, false, media.PauseOptions{}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(s *setup) { s.window = tt.window })
			p := h.start(t)
			p.SetTransitions(tt.canPause, true)

			h.session.Pause(tt.opts)

			call, ok := p.LastCall("Pause")
			require.Equal(t, tt.wantCall, ok)
			if ok {
				assert.Equal(t, tt.wantDisable, call.Pause.DisableAutoResume)
			}
		})
	}
}

func TestSetCurrentTime_InPlace(t *testing.T) {
	h := newHarness(t)
	p := h.start(t)

	h.session.SetCurrentTime(30)
	call, ok := p.LastCall("SetCurrentTime")
	require.True(t, ok)
	assert.Equal(t, 30.0, call.Value)

	p.SetTransitions(true, false)
	h.session.SetCurrentTime(60)
	call, _ = p.LastCall("SetCurrentTime")
	assert.Equal(t, 30.0, call.Value)
}

func restartable(s *setup) {
	s.window = media.WindowSliding
	s.liveSupport = media.LiveSupportRestartable
	s.strategy = media.StrategyNative
	s.format = media.TransferFormatHLS
	s.results = map[string]manifest.Result{
		sourceURL(0): {TransferFormat: media.TransferFormatHLS, Time: manifest.TimeWindow{WindowStartTime: epoch}},
	}
}

func TestSetCurrentTime_RestartableHLSReloads(t *testing.T) {
	h := newHarness(t, restartable)
	first := h.start(t)
	first.SetSeekableRange(media.SeekableRange{Start: 0, End: 7200})
	first.SetPaused(true)
	h.loader.Results[sourceURL(0)] = manifest.Result{
		TransferFormat: media.TransferFormatHLS,
		Time:           manifest.TimeWindow{WindowStartTime: epoch.Add(5 * time.Second)},
	}
	calls := len(h.loader.Calls())

	h.session.SetCurrentTime(1000)

	assert.Len(t, h.loader.Calls(), calls+1)
	_, seeked := first.LastCall("SetCurrentTime")
	assert.False(t, seeked)
	assert.True(t, first.TornDown())

	second := h.factory.Latest()
	require.NotSame(t, first, second)
	load, ok := second.LastCall("Load")
	require.True(t, ok)
	require.NotNil(t, load.StartTime)
	assert.Equal(t, 995.0, *load.StartTime)
	assert.Equal(t, []string{"Load", "Pause"}, second.Methods())
}

func TestSetCurrentTime_RestartableHLSClampsToLiveEdge(t *testing.T) {
	h := newHarness(t, restartable)
	first := h.start(t)
	first.SetSeekableRange(media.SeekableRange{Start: 0, End: 7200})
	first.SetPaused(true)

	h.session.SetCurrentTime(7180)

	second := h.factory.Latest()
	require.NotSame(t, first, second)
	load, ok := second.LastCall("Load")
	require.True(t, ok)
	assert.Nil(t, load.StartTime)
	assert.Equal(t, []string{"Load"}, second.Methods())
}

func TestSetCurrentTime_RestartableRefreshFailureIsFatal(t *testing.T) {
	h := newHarness(t, restartable)
	h.start(t)
	h.loader.FailAll = true

	h.session.SetCurrentTime(1000)

	require.Len(t, h.fatals, 1)
	assert.False(t, h.fatals[0].BufferingTimeout)
	assert.ErrorIs(t, h.fatals[0], manifest.ErrManifestLoad)
	assert.Equal(t, media.StateFatalError, h.session.State())
}

func TestTearDown(t *testing.T) {
	h := newHarness(t)
	first := h.start(t)
	first.EmitError(nil)
	h.sched.Advance(5 * time.Second)
	second := h.factory.Latest()
	second.EmitState(media.StateWaiting)
	second.EmitError(nil)
	require.NotZero(t, h.sched.Pending())

	h.session.TearDown()
	h.session.TearDown()

	assert.Zero(t, h.sched.Pending())
	assert.True(t, second.TornDown())
	assert.Empty(t, h.list.AvailableSources())

	before := len(h.updates)
	second.EmitState(media.StatePlaying)
	h.sched.Advance(time.Hour)
	assert.Len(t, h.updates, before)
	assert.Len(t, h.factory.Players(), 2)
	assert.Zero(t, h.session.CurrentTime())
	assert.False(t, h.session.IsPaused())
}

func TestAccessors(t *testing.T) {
	h := newHarness(t)
	p := h.start(t)
	p.SetPosition(5, 60)
	p.SetEnded(true)
	p.SetElement("video-element")

	h.session.SetPlaybackRate(2)
	assert.Equal(t, 2.0, h.session.PlaybackRate())
	assert.Equal(t, 5.0, h.session.CurrentTime())
	assert.Equal(t, 60.0, h.session.Duration())
	assert.True(t, h.session.IsEnded())
	assert.Equal(t, "video-element", h.session.PlayerElement())
	assert.Equal(t, "session-1", h.session.ID())

	h.session.Play()
	assert.False(t, h.session.IsPaused())
}
