// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import (
	"fmt"
	"time"

	"github.com/ManuGH/playresilience/internal/loop"
	"github.com/ManuGH/playresilience/internal/media"
	"github.com/ManuGH/playresilience/internal/plugins"
	"github.com/ManuGH/playresilience/internal/sources"
	"github.com/rs/zerolog"
)

// Timeouts are the escalation delays of a session.
type Timeouts struct {
	// InitialBuffering applies until the session first reaches PLAYING.
	InitialBuffering time.Duration
	Buffering        time.Duration
	FatalError       time.Duration
	// LiveEdgeMargin is how far behind the live edge a restart seek must land.
	LiveEdgeMargin time.Duration
}

// DefaultTimeouts returns the stock escalation delays.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		InitialBuffering: 30 * time.Second,
		Buffering:        20 * time.Second,
		FatalError:       5 * time.Second,
		LiveEdgeMargin:   30 * time.Second,
	}
}

func (t Timeouts) withDefaults() Timeouts {
	d := DefaultTimeouts()
	if t.InitialBuffering <= 0 {
		t.InitialBuffering = d.InitialBuffering
	}
	if t.Buffering <= 0 {
		t.Buffering = d.Buffering
	}
	if t.FatalError <= 0 {
		t.FatalError = d.FatalError
	}
	if t.LiveEdgeMargin <= 0 {
		t.LiveEdgeMargin = d.LiveEdgeMargin
	}
	return t
}

// Media describes what the session loads into each player.
type Media struct {
	// Type is the MIME type passed to Player.Load.
	Type           string
	Kind           media.Kind
	TransferFormat media.TransferFormat
	IsUHD          bool
}

// Data is the playback snapshot carried by a state update.
type Data struct {
	CurrentTime   float64             `json:"currentTime"`
	SeekableRange media.SeekableRange `json:"seekableRange"`
	// State is empty for time-update ticks.
	State    media.State `json:"state,omitempty"`
	Duration float64     `json:"duration"`
}

// StateUpdate is published on every state transition and time-update tick.
type StateUpdate struct {
	Data                    Data `json:"data"`
	TimeUpdate              bool `json:"timeUpdate"`
	IsBufferingTimeoutError bool `json:"isBufferingTimeoutError"`
}

// Config wires a Session. Sources must already be initialised; the session
// takes ownership of it and tears it down with itself.
type Config struct {
	// ID identifies the session in logs and events; generated when empty.
	ID string

	Sources   *sources.List
	Scheduler loop.Scheduler
	NewPlayer media.PlayerFactory

	Strategy    media.StrategyKind
	WindowType  media.WindowType
	LiveSupport media.LiveSupport
	Media       Media
	// Element is handed to every player the factory builds.
	Element any
	// InitialPlaybackTime is where the first load starts; nil lets the player choose.
	InitialPlaybackTime *float64

	Timeouts Timeouts
	Sink     plugins.Sink
	Logger   *zerolog.Logger

	OnStateUpdate func(StateUpdate)
	// OnError receives player construction failures.
	OnError func(error)
	// OnFatal is called once the session publishes FATAL_ERROR.
	OnFatal func(*FatalError)
}

func (c Config) validate() error {
	switch {
	case c.Sources == nil:
		return fmt.Errorf("%w: playback session needs a source list", sources.ErrInvalidConfiguration)
	case c.Scheduler == nil:
		return fmt.Errorf("%w: playback session needs a scheduler", sources.ErrInvalidConfiguration)
	case c.NewPlayer == nil:
		return fmt.Errorf("%w: playback session needs a player factory", sources.ErrInvalidConfiguration)
	case c.OnStateUpdate == nil:
		return fmt.Errorf("%w: playback session needs a state update callback", sources.ErrInvalidConfiguration)
	}
	return nil
}
