// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package fake provides a scripted media player for tests and simulations.
package fake

import (
	"errors"
	"sync"

	"github.com/ManuGH/playresilience/internal/media"
)

// ErrPlayback is a generic scripted playback error.
var ErrPlayback = errors.New("scripted playback error")

// Call records one method invocation on a Player.
type Call struct {
	Method    string
	MimeType  string
	StartTime *float64
	Pause     media.PauseOptions
	Value     float64
}

// Player is an in-memory media.Player. Emit* helpers invoke the registered
// callbacks synchronously on the calling goroutine.
type Player struct {
	mu sync.Mutex

	spec  media.PlayerSpec
	calls []Call

	currentTime  float64
	duration     float64
	seekable     media.SeekableRange
	paused       bool
	ended        bool
	rate         float64
	canBePaused  bool
	canBeginSeek bool
	element      any
	tornDown     bool

	onEvent      []func(media.State)
	onError      []func(error)
	onTimeUpdate []func()
}

// NewPlayer returns a player that allows pausing and seeking.
func NewPlayer(spec media.PlayerSpec) *Player {
	return &Player{spec: spec, rate: 1, canBePaused: true, canBeginSeek: true}
}

func (p *Player) record(c Call) {
	p.mu.Lock()
	p.calls = append(p.calls, c)
	p.mu.Unlock()
}

func (p *Player) Load(mimeType string, startTime *float64) {
	var st *float64
	if startTime != nil {
		v := *startTime
		st = &v
	}
	p.record(Call{Method: "Load", MimeType: mimeType, StartTime: st})
}

func (p *Player) Play() {
	p.record(Call{Method: "Play"})
	p.mu.Lock()
	p.paused = false
	p.mu.Unlock()
}

func (p *Player) Pause(opts media.PauseOptions) {
	p.record(Call{Method: "Pause", Pause: opts})
	p.mu.Lock()
	p.paused = true
	p.mu.Unlock()
}

func (p *Player) Reset() { p.record(Call{Method: "Reset"}) }

func (p *Player) TearDown() {
	p.record(Call{Method: "TearDown"})
	p.mu.Lock()
	p.tornDown = true
	p.mu.Unlock()
}

func (p *Player) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *Player) IsEnded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ended
}

func (p *Player) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentTime
}

func (p *Player) SetCurrentTime(t float64) {
	p.record(Call{Method: "SetCurrentTime", Value: t})
	p.mu.Lock()
	p.currentTime = t
	p.mu.Unlock()
}

func (p *Player) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

func (p *Player) SeekableRange() media.SeekableRange {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seekable
}

func (p *Player) SetPlaybackRate(rate float64) {
	p.record(Call{Method: "SetPlaybackRate", Value: rate})
	p.mu.Lock()
	p.rate = rate
	p.mu.Unlock()
}

func (p *Player) PlaybackRate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rate
}

func (p *Player) PlayerElement() any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.element
}

func (p *Player) AddEventCallback(fn func(media.State)) {
	p.mu.Lock()
	p.onEvent = append(p.onEvent, fn)
	p.mu.Unlock()
}

func (p *Player) AddErrorCallback(fn func(error)) {
	p.mu.Lock()
	p.onError = append(p.onError, fn)
	p.mu.Unlock()
}

func (p *Player) AddTimeUpdateCallback(fn func()) {
	p.mu.Lock()
	p.onTimeUpdate = append(p.onTimeUpdate, fn)
	p.mu.Unlock()
}

func (p *Player) Transitions() media.Transitions { return transitions{p} }

type transitions struct{ p *Player }

func (t transitions) CanBePaused() bool {
	t.p.mu.Lock()
	defer t.p.mu.Unlock()
	return t.p.canBePaused
}

func (t transitions) CanBeginSeek() bool {
	t.p.mu.Lock()
	defer t.p.mu.Unlock()
	return t.p.canBeginSeek
}

// SetPosition scripts the playback position and duration.
func (p *Player) SetPosition(currentTime, duration float64) {
	p.mu.Lock()
	p.currentTime, p.duration = currentTime, duration
	p.mu.Unlock()
}

// SetSeekableRange scripts the seekable range.
func (p *Player) SetSeekableRange(r media.SeekableRange) {
	p.mu.Lock()
	p.seekable = r
	p.mu.Unlock()
}

// SetPaused scripts IsPaused.
func (p *Player) SetPaused(paused bool) {
	p.mu.Lock()
	p.paused = paused
	p.mu.Unlock()
}

// SetEnded scripts IsEnded.
func (p *Player) SetEnded(ended bool) {
	p.mu.Lock()
	p.ended = ended
	p.mu.Unlock()
}

// SetTransitions scripts the transition guards.
func (p *Player) SetTransitions(canBePaused, canBeginSeek bool) {
	p.mu.Lock()
	p.canBePaused, p.canBeginSeek = canBePaused, canBeginSeek
	p.mu.Unlock()
}

// SetElement scripts PlayerElement.
func (p *Player) SetElement(el any) {
	p.mu.Lock()
	p.element = el
	p.mu.Unlock()
}

// EmitState delivers a media state event.
func (p *Player) EmitState(s media.State) {
	p.mu.Lock()
	fns := append(([]func(media.State))(nil), p.onEvent...)
	p.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

// EmitError delivers a raw error event; a nil err is replaced by ErrPlayback.
func (p *Player) EmitError(err error) {
	if err == nil {
		err = ErrPlayback
	}
	p.mu.Lock()
	fns := append(([]func(error))(nil), p.onError...)
	p.mu.Unlock()
	for _, fn := range fns {
		fn(err)
	}
}

// EmitTimeUpdate delivers a time-update tick.
func (p *Player) EmitTimeUpdate() {
	p.mu.Lock()
	fns := append(([]func())(nil), p.onTimeUpdate...)
	p.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Spec returns the spec the player was built from.
func (p *Player) Spec() media.PlayerSpec { return p.spec }

// Calls returns a copy of the recorded calls.
func (p *Player) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// Methods returns the recorded method names in order.
func (p *Player) Methods() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.calls))
	for _, c := range p.calls {
		out = append(out, c.Method)
	}
	return out
}

// LastCall returns the most recent call to method.
func (p *Player) LastCall(method string) (Call, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.calls) - 1; i >= 0; i-- {
		if p.calls[i].Method == method {
			return p.calls[i], true
		}
	}
	return Call{}, false
}

// TornDown reports whether TearDown was called.
func (p *Player) TornDown() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tornDown
}

var _ media.Player = (*Player)(nil)
