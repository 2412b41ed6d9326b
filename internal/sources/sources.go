// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package sources keeps the ordered CDN source sequences of one playback
// session and performs failover between them.
package sources

import (
	"context"
	"fmt"
	"time"

	xglog "github.com/ManuGH/playresilience/internal/log"
	"github.com/ManuGH/playresilience/internal/loop"
	"github.com/ManuGH/playresilience/internal/manifest"
	"github.com/ManuGH/playresilience/internal/media"
	"github.com/ManuGH/playresilience/internal/metrics"
	"github.com/ManuGH/playresilience/internal/plugins"
	"github.com/ManuGH/playresilience/internal/telemetry"
	"github.com/rs/zerolog"
)

// Deps are the collaborators a List runs against.
type Deps struct {
	Scheduler   loop.Scheduler
	Coordinator *manifest.Coordinator
	Sink        plugins.Sink
	// Logger defaults to the "sources" component logger.
	Logger    *zerolog.Logger
	SessionID string
}

// List is the failover engine for one session. It is not safe for
// concurrent use; every method must run on the session loop.
type List struct {
	sched     loop.Scheduler
	coord     *manifest.Coordinator
	sink      plugins.Sink
	logger    zerolog.Logger
	sessionID string

	media           []Source
	subtitles       []SubtitlesSource
	failedMedia     *blacklist[Source]
	failedSubtitles *blacklist[SubtitlesSource]

	windowType       media.WindowType
	liveSupport      media.LiveSupport
	transferFormat   media.TransferFormat
	serverDate       time.Time
	time             manifest.TimeWindow
	resetTime        time.Duration
	sortFn           SortFunc
	subtitlesTimeout time.Duration

	// gen invalidates manifest loads that complete after TearDown or a new Init.
	gen uint64
}

// New returns an empty List. Init must be called before use.
func New(d Deps) *List {
	logger := xglog.WithComponent("sources")
	if d.Logger != nil {
		logger = *d.Logger
	}
	if d.SessionID != "" {
		logger = logger.With().Str(xglog.FieldSessionID, d.SessionID).Logger()
	}
	return &List{
		sched:            d.Scheduler,
		coord:            d.Coordinator,
		sink:             plugins.OrNop(d.Sink),
		logger:           logger,
		sessionID:        d.SessionID,
		failedMedia:      newBlacklist[Source](metrics.SourceKindMedia),
		failedSubtitles:  newBlacklist[SubtitlesSource](metrics.SourceKindSubtitles),
		resetTime:        DefaultFailoverResetTime,
		subtitlesTimeout: DefaultSubtitlesRequestTimeout,
	}
}

// Init replaces the list contents with copies of p. When the live window
// needs manifest timing it loads the manifest from the head source first,
// failing over on load errors; otherwise cb.OnSuccess runs immediately.
func (l *List) Init(p Params, cb Callbacks) error {
	if len(p.Media.URLs) == 0 {
		return fmt.Errorf("%w: media sources urls are undefined", ErrInvalidConfiguration)
	}
	if cb.OnSuccess == nil || cb.OnError == nil {
		return fmt.Errorf("%w: media sources callbacks are undefined", ErrInvalidConfiguration)
	}

	l.reset()
	l.media = cloneSources(p.Media.URLs)
	l.subtitles = cloneSubtitles(p.Media.Captions)
	l.windowType = p.WindowType
	l.liveSupport = p.LiveSupport
	l.transferFormat = p.Media.TransferFormat
	l.serverDate = p.ServerDate
	l.time = p.Time
	l.sortFn = p.Media.PlayerSettings.FailoverSort

	l.resetTime = DefaultFailoverResetTime
	if d := p.Media.PlayerSettings.FailoverResetTime; d > 0 {
		l.resetTime = d
	}
	l.subtitlesTimeout = DefaultSubtitlesRequestTimeout
	if d := p.Media.SubtitlesRequestTimeout; d > 0 {
		l.subtitlesTimeout = d
	}

	l.logger.Debug().
		Str(xglog.FieldEvent, "sources.init").
		Int(xglog.FieldAvailable, len(l.media)).
		Int("subtitles", len(l.subtitles)).
		Str(xglog.FieldWindowType, string(l.windowType)).
		Msg("media sources initialised")

	if l.manifestRequired() {
		l.loadManifest(cb)
		return nil
	}
	cb.succeed()
	return nil
}

// Failover abandons the current source and promotes the next candidate.
//
// A service location equal to the current source, query and fragment aside,
// is a redirect within the same CDN: nothing changes and neither callback
// runs. When the policy declines, cb.OnError receives an error matching
// ErrFailoverDeclined. Live HLS content reloads the manifest from the new
// source before cb.OnSuccess.
func (l *List) Failover(fc FailoverContext, cb Callbacks) {
	l.failover(fc, Callbacks{
		OnSuccess: func() {
			if l.manifestRequired() {
				l.loadManifest(cb)
				return
			}
			cb.succeed()
		},
		OnError: cb.fail,
	})
}

func (l *List) failover(fc FailoverContext, next Callbacks) {
	trigger := fc.trigger()
	if fc.ServiceLocation != "" && sameLocation(fc.ServiceLocation, l.CurrentSource()) {
		metrics.RecordFailover("ignored", trigger)
		l.logger.Debug().
			Str(xglog.FieldEvent, "sources.failover_ignored").
			Str(xglog.FieldSource, l.CurrentSource()).
			Str("service_location", fc.ServiceLocation).
			Msg("service location is the current source, not failing over")
		return
	}

	decision := ShouldFailover(PolicyInput{
		WindowType: l.windowType,
		Candidates: len(l.media),
		Context:    fc,
	})
	telemetry.RecordFailoverDecision(context.Background(), string(decision.Reason), string(l.windowType), decision.Accept)
	if !decision.Accept {
		metrics.RecordFailover("declined", trigger)
		metrics.RecordFailoverDeclined(string(decision.Reason))
		l.logger.Warn().
			Str(xglog.FieldEvent, "sources.failover_declined").
			Str(xglog.FieldCDN, l.CurrentCDN()).
			Str("reason", string(decision.Reason)).
			Int(xglog.FieldAvailable, len(l.media)).
			Bool(xglog.FieldBufferingTimeout, fc.IsBufferingTimeoutError).
			Msg("failover declined")
		l.emit(plugins.Event{
			Kind:                    plugins.KindFailoverDeclined,
			Status:                  plugins.StatusFatal,
			StateType:               plugins.TypeError,
			IsBufferingTimeoutError: fc.IsBufferingTimeoutError,
			IsInitialPlay:           fc.IsInitialPlay,
			CDN:                     l.CurrentCDN(),
			Reason:                  string(decision.Reason),
		})
		next.fail(decision.Err())
		return
	}

	_, span := telemetry.StartFailover(context.Background(), string(l.windowType),
		l.CurrentCDN(), len(l.media), fc.IsBufferingTimeoutError, fc.ServiceLocation)
	abandoned := l.media[0]
	l.rotate(fc.ServiceLocation)
	current := l.media[0]
	telemetry.EndFailover(span, current.CDN, len(l.media))

	metrics.RecordFailover("handled", trigger)
	l.logger.Info().
		Str(xglog.FieldEvent, "sources.failover").
		Str(xglog.FieldCDN, abandoned.CDN).
		Str(xglog.FieldNewCDN, current.CDN).
		Str(xglog.FieldSource, current.URL).
		Int(xglog.FieldAvailable, len(l.media)).
		Bool(xglog.FieldBufferingTimeout, fc.IsBufferingTimeoutError).
		Msg("failed over to next source")

	if current != abandoned {
		l.emit(plugins.Event{
			Kind:                    plugins.KindErrorHandled,
			Status:                  plugins.StatusFailover,
			StateType:               plugins.TypeError,
			IsBufferingTimeoutError: fc.IsBufferingTimeoutError,
			IsInitialPlay:           fc.IsInitialPlay,
			CDN:                     abandoned.CDN,
			NewCDN:                  current.CDN,
		})
	}
	next.succeed()
}

// rotate moves the head to the blacklist and picks the next head.
// Caller guarantees at least two sources.
func (l *List) rotate(serviceLocation string) {
	abandoned := l.media[0]
	rest := cloneSources(l.media[1:])

	switch {
	case l.sortFn != nil:
		sorted := l.withoutBlacklisted(l.sortFn(cloneSources(rest)), abandoned)
		if len(sorted) > 0 {
			rest = sorted
		} else {
			l.logger.Warn().
				Str(xglog.FieldEvent, "sources.failover_sort_empty").
				Msg("failover sort returned no usable source, keeping default order")
		}
	default:
		if idx := indexOfLocation(rest, serviceLocation); idx > 0 {
			promoted := rest[idx]
			rest = append(rest[:idx], rest[idx+1:]...)
			rest = append([]Source{promoted}, rest...)
		}
	}

	l.media = rest
	l.failedMedia.add(l.sched, abandoned, l.resetTime, l.reinstateMedia)
}

// withoutBlacklisted drops anything a sort function returned that is
// currently excluded, including the source being abandoned. The input is
// owned by the sort function and is never written to or retained.
func (l *List) withoutBlacklisted(in []Source, abandoned Source) []Source {
	out := make([]Source, 0, len(in))
	for _, s := range in {
		if s == abandoned || l.failedMedia.contains(func(b Source) bool { return b == s }) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (l *List) reinstateMedia(s Source) {
	l.media = append(l.media, s)
	l.logger.Debug().
		Str(xglog.FieldEvent, "sources.reinstated").
		Str(xglog.FieldCDN, s.CDN).
		Int(xglog.FieldAvailable, len(l.media)).
		Msg("source reinstated after failover reset time")
}

// Refresh reloads the manifest from the current source without reordering.
// Without a coordinator there is nothing to reload and cb.OnSuccess runs at once.
func (l *List) Refresh(cb Callbacks) {
	if l.coord == nil {
		cb.succeed()
		return
	}
	gen := l.gen
	l.coord.Reload(l.CurrentSource(), l.serverDate, func(res manifest.Result, err error) {
		if gen != l.gen {
			return
		}
		if err != nil {
			cb.fail(err)
			return
		}
		l.applyManifest(res)
		cb.succeed()
	})
}

func (l *List) loadManifest(cb Callbacks) {
	gen := l.gen
	l.coord.Reload(l.CurrentSource(), l.serverDate, func(res manifest.Result, err error) {
		if gen != l.gen {
			return
		}
		if err != nil {
			l.failover(FailoverContext{ErrorMessage: ErrorMessageManifestLoad}, Callbacks{
				OnSuccess: func() { l.loadManifest(cb) },
				OnError: func(declined error) {
					cb.fail(fmt.Errorf("%w: %w", err, declined))
				},
			})
			return
		}
		l.applyManifest(res)
		cb.succeed()
	})
}

func (l *List) applyManifest(res manifest.Result) {
	if res.TransferFormat != "" {
		l.transferFormat = res.TransferFormat
	}
	l.time = res.Time
}

func (l *List) manifestRequired() bool {
	return l.coord != nil && l.coord.Required(l.windowType, l.liveSupport, l.transferFormat)
}

// TearDown cancels every reinstatement and empties both sequences.
// It is idempotent.
func (l *List) TearDown() {
	l.reset()
	l.media = nil
	l.subtitles = nil
	l.time = manifest.TimeWindow{}
	l.transferFormat = ""
	l.sortFn = nil
}

func (l *List) reset() {
	l.gen++
	l.failedMedia.clear()
	l.failedSubtitles.clear()
}

func (l *List) emit(ev plugins.Event) {
	ev.SessionID = l.sessionID
	if ev.Timestamp.IsZero() && l.sched != nil {
		ev.Timestamp = l.sched.Now()
	}
	l.sink.Emit(ev)
}

// CurrentSource returns the active media URL, or "" when there is none.
func (l *List) CurrentSource() string {
	if len(l.media) == 0 {
		return ""
	}
	return l.media[0].URL
}

// CurrentCDN returns the active media CDN, or "" when there is none.
func (l *List) CurrentCDN() string {
	if len(l.media) == 0 {
		return ""
	}
	return l.media[0].CDN
}

// AvailableSources returns the active media URLs in order, current first.
func (l *List) AvailableSources() []string {
	out := make([]string, 0, len(l.media))
	for _, s := range l.media {
		out = append(out, s.URL)
	}
	return out
}

// Time returns the live-window timing from the latest manifest load.
func (l *List) Time() manifest.TimeWindow { return l.time }

// TransferFormat returns the resolved transfer format, "" while unknown.
func (l *List) TransferFormat() media.TransferFormat { return l.transferFormat }

// WindowType returns the window type passed to Init.
func (l *List) WindowType() media.WindowType { return l.windowType }

// SubtitlesRequestTimeout returns the per-request subtitles timeout.
func (l *List) SubtitlesRequestTimeout() time.Duration { return l.subtitlesTimeout }

// Snapshot is a point-in-time copy of the list state.
type Snapshot struct {
	Current     string              `json:"current"`
	CDN         string              `json:"cdn"`
	Available   []string            `json:"available"`
	Blacklisted []BlacklistedSource `json:"blacklisted"`
	Subtitles   []string            `json:"subtitles"`
	Time        manifest.TimeWindow `json:"time"`
}

// BlacklistedSource is an excluded source and when it comes back.
type BlacklistedSource struct {
	URL         string    `json:"url"`
	CDN         string    `json:"cdn"`
	ReinstateAt time.Time `json:"reinstateAt"`
}

// Snapshot returns a copy of the current state.
func (l *List) Snapshot() Snapshot {
	s := Snapshot{
		Current:     l.CurrentSource(),
		CDN:         l.CurrentCDN(),
		Available:   l.AvailableSources(),
		Blacklisted: make([]BlacklistedSource, 0, l.failedMedia.len()),
		Subtitles:   make([]string, 0, len(l.subtitles)),
		Time:        l.time,
	}
	for _, e := range l.failedMedia.entries {
		s.Blacklisted = append(s.Blacklisted, BlacklistedSource{URL: e.item.URL, CDN: e.item.CDN, ReinstateAt: e.deadline})
	}
	for _, sub := range l.subtitles {
		s.Subtitles = append(s.Subtitles, sub.URL)
	}
	return s
}
