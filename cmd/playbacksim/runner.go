// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"sort"

	"github.com/ManuGH/playresilience/internal/config"
	xglog "github.com/ManuGH/playresilience/internal/log"
	"github.com/ManuGH/playresilience/internal/loop"
	"github.com/ManuGH/playresilience/internal/manifest"
	"github.com/ManuGH/playresilience/internal/media"
	mediafake "github.com/ManuGH/playresilience/internal/media/fake"
	"github.com/ManuGH/playresilience/internal/playback"
	"github.com/ManuGH/playresilience/internal/plugins"
	"github.com/ManuGH/playresilience/internal/sources"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Outcome is what one scenario ended with.
type Outcome struct {
	Scenario   string           `json:"scenario"`
	SessionID  string           `json:"sessionId"`
	FinalState media.State      `json:"finalState"`
	States     []media.State    `json:"states"`
	Players    int              `json:"players"`
	Fatal      string           `json:"fatal,omitempty"`
	Error      string           `json:"error,omitempty"`
	Sources    sources.Snapshot `json:"sources"`
}

// SessionStatus is served by /sessions.
type SessionStatus struct {
	ID       string           `json:"id"`
	Scenario string           `json:"scenario"`
	State    media.State      `json:"state"`
	Sources  sources.Snapshot `json:"sources"`
}

// runner drives scripted sessions. All methods run on the loop.
type runner struct {
	sched    loop.Scheduler
	defaults func() config.SessionConfig
	sink     plugins.Sink
	logger   zerolog.Logger

	active map[string]*scenarioRun
}

type scenarioRun struct {
	scenario *Scenario
	list     *sources.List
	session  *playback.Session
	players  mediafake.Factory
	timers   []loop.Timer
	outcome  Outcome
	finished bool
	done     func(Outcome)
}

func newRunner(sched loop.Scheduler, defaults func() config.SessionConfig, sink plugins.Sink) *runner {
	return &runner{
		sched:    sched,
		defaults: defaults,
		sink:     sink,
		logger:   xglog.WithComponent("playbacksim"),
		active:   make(map[string]*scenarioRun),
	}
}

// start initialises the source list of sc and, once it is ready, starts the
// session and its timeline. done receives the outcome exactly once.
func (r *runner) start(sc *Scenario, done func(Outcome)) {
	id := uuid.NewString()
	defaults := r.defaults()
	rn := &scenarioRun{
		scenario: sc,
		outcome:  Outcome{Scenario: sc.Name, SessionID: id},
		done:     done,
	}
	r.active[id] = rn

	liveSupport := sc.LiveSupport
	if liveSupport == "" {
		liveSupport = defaults.LiveSupport
	}

	rn.list = sources.New(sources.Deps{
		Scheduler:   r.sched,
		Coordinator: manifest.NewCoordinator(sc.loader(r.sched.Now())),
		Sink:        r.sink,
		SessionID:   id,
	})

	err := rn.list.Init(sources.Params{
		Media: sources.Media{
			URLs:                    sc.Sources,
			Captions:                sc.Subtitles,
			TransferFormat:          sc.TransferFormat,
			SubtitlesRequestTimeout: defaults.SubtitlesRequestTimeout,
			PlayerSettings:          defaults.PlayerSettings(),
		},
		ServerDate:  r.sched.Now(),
		WindowType:  sc.WindowType,
		LiveSupport: liveSupport,
	}, sources.Callbacks{
		OnSuccess: func() { r.startSession(rn, id, liveSupport, defaults) },
		OnError: func(err error) {
			rn.outcome.Error = err.Error()
			r.finish(rn)
		},
	})
	if err != nil {
		rn.outcome.Error = err.Error()
		r.finish(rn)
	}
}

func (r *runner) startSession(rn *scenarioRun, id string, liveSupport media.LiveSupport, defaults config.SessionConfig) {
	sc := rn.scenario
	strategy := sc.Strategy
	if strategy == "" {
		strategy = defaults.Strategy
	}
	logger := r.logger.With().Str(xglog.FieldSessionID, id).Str("scenario", sc.Name).Logger()

	session, err := playback.NewSession(playback.Config{
		ID:                  id,
		Sources:             rn.list,
		Scheduler:           r.sched,
		NewPlayer:           rn.players.Build,
		Strategy:            strategy,
		WindowType:          sc.WindowType,
		LiveSupport:         liveSupport,
		Media:               playback.Media{Type: sc.MimeType, Kind: media.KindVideo, TransferFormat: sc.TransferFormat},
		InitialPlaybackTime: sc.InitialTime,
		Timeouts:            defaults.Timeouts(),
		Sink:                r.sink,
		OnStateUpdate: func(u playback.StateUpdate) {
			if u.Data.State == "" {
				return
			}
			rn.outcome.States = append(rn.outcome.States, u.Data.State)
			logger.Info().
				Str(xglog.FieldEvent, "sim.state").
				Str("state", string(u.Data.State)).
				Float64("current_time", u.Data.CurrentTime).
				Bool("buffering_timeout", u.IsBufferingTimeoutError).
				Msg("state update")
		},
		OnError: func(err error) {
			rn.outcome.Error = err.Error()
		},
		OnFatal: func(fe *playback.FatalError) {
			rn.outcome.Fatal = fe.Error()
			// Finish on the next turn so the session completes its own callback first.
			r.sched.AfterFunc(0, func() { r.finish(rn) })
		},
	})
	if err != nil {
		rn.outcome.Error = err.Error()
		r.finish(rn)
		return
	}
	rn.session = session
	session.Start()

	for i := range sc.Timeline {
		st := sc.Timeline[i]
		rn.timers = append(rn.timers, r.sched.AfterFunc(st.at, func() { r.apply(rn, st) }))
	}
	rn.timers = append(rn.timers, r.sched.AfterFunc(sc.runFor, func() { r.finish(rn) }))
}

// apply performs one timeline step against the newest player.
func (r *runner) apply(rn *scenarioRun, st Step) {
	if rn.finished {
		return
	}
	p := rn.players.Latest()
	if p == nil {
		return
	}
	if st.CurrentTime != nil || st.Duration != nil {
		ct, dur := p.CurrentTime(), p.Duration()
		if st.CurrentTime != nil {
			ct = *st.CurrentTime
		}
		if st.Duration != nil {
			dur = *st.Duration
		}
		p.SetPosition(ct, dur)
	}
	if st.Seekable != nil {
		p.SetSeekableRange(*st.Seekable)
	}

	switch st.Event {
	case stepPlaying:
		p.SetPaused(false)
		p.EmitState(media.StatePlaying)
	case stepPaused:
		p.SetPaused(true)
		p.EmitState(media.StatePaused)
	case stepWaiting:
		p.EmitState(media.StateWaiting)
	case stepEnded:
		p.SetEnded(true)
		p.EmitState(media.StateEnded)
	case stepError:
		p.EmitError(nil)
	case stepTimeUpdate:
		p.EmitTimeUpdate()
	case stepSubtitlesError:
		rn.list.FailoverSubtitles(st.StatusCode, sources.Callbacks{})
	case stepSeek:
		rn.session.SetCurrentTime(st.Target)
	case stepPause:
		rn.session.Pause(media.PauseOptions{})
	case stepPlay:
		rn.session.Play()
	}
}

func (r *runner) finish(rn *scenarioRun) {
	if rn.finished {
		return
	}
	rn.finished = true
	for _, t := range rn.timers {
		loop.StopTimer(t)
	}

	rn.outcome.Players = len(rn.players.Players())
	rn.outcome.Sources = rn.list.Snapshot()
	if rn.session != nil {
		rn.outcome.FinalState = rn.session.State()
		rn.session.TearDown()
	} else {
		rn.outcome.FinalState = media.StateEmpty
		rn.list.TearDown()
	}
	delete(r.active, rn.outcome.SessionID)

	r.logger.Info().
		Str(xglog.FieldEvent, "sim.finished").
		Str(xglog.FieldSessionID, rn.outcome.SessionID).
		Str("scenario", rn.outcome.Scenario).
		Str("final_state", string(rn.outcome.FinalState)).
		Int("players", rn.outcome.Players).
		Msg("scenario finished")
	rn.done(rn.outcome)
}

// statuses lists running sessions, ordered by scenario name.
func (r *runner) statuses() []SessionStatus {
	out := make([]SessionStatus, 0, len(r.active))
	for id, rn := range r.active {
		st := SessionStatus{ID: id, Scenario: rn.scenario.Name, State: media.StateEmpty, Sources: rn.list.Snapshot()}
		if rn.session != nil {
			st.State = rn.session.State()
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Scenario != out[j].Scenario {
			return out[i].Scenario < out[j].Scenario
		}
		return out[i].ID < out[j].ID
	})
	return out
}
