// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package media

// PauseOptions controls how a pause is applied by the player.
type PauseOptions struct {
	DisableAutoResume bool
}

// Transitions answers whether the player currently accepts a transition.
type Transitions interface {
	CanBePaused() bool
	CanBeginSeek() bool
}

// Player is the media-player capability set consumed by the playback session.
// Implementations wrap a decode/render strategy and must deliver every callback
// on the session's loop.
type Player interface {
	// Load starts loading mimeType; a nil startTime lets the player choose.
	Load(mimeType string, startTime *float64)
	Play()
	Pause(opts PauseOptions)
	Reset()
	TearDown()

	IsPaused() bool
	IsEnded() bool
	CurrentTime() float64
	SetCurrentTime(t float64)
	Duration() float64
	SeekableRange() SeekableRange
	SetPlaybackRate(rate float64)
	PlaybackRate() float64

	// PlayerElement exposes the underlying element handle, nil when there is none.
	PlayerElement() any

	AddEventCallback(fn func(State))
	AddErrorCallback(fn func(error))
	AddTimeUpdateCallback(fn func())

	Transitions() Transitions
}

// PlayerSpec is what a strategy factory needs to build a player.
type PlayerSpec struct {
	Strategy   StrategyKind
	WindowType WindowType
	Kind       Kind
	// Element is the host playback element handed to the strategy, if any.
	Element any
	IsUHD   bool
}

// PlayerFactory builds a fresh player for every playback attempt.
type PlayerFactory func(spec PlayerSpec) (Player, error)
