// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package media defines the playback vocabulary shared by the source list,
// the manifest coordinator and the playback session, together with the
// media-player capability set the session drives.
package media

// State is the externally published playback state.
// The zero value means "no state change" and is used for time-update ticks.
type State string

const (
	StateEmpty      State = "EMPTY"
	StateStopped    State = "STOPPED"
	StatePlaying    State = "PLAYING"
	StatePaused     State = "PAUSED"
	StateWaiting    State = "WAITING"
	StateEnded      State = "ENDED"
	StateFatalError State = "FATAL_ERROR"
)

// WindowType describes the shape of the seekable window.
type WindowType string

const (
	WindowStatic  WindowType = "staticWindow"
	WindowGrowing WindowType = "growingWindow"
	WindowSliding WindowType = "slidingWindow"
)

// IsLive reports whether the window moves or grows during playback.
func (w WindowType) IsLive() bool {
	return w != WindowStatic
}

// TransferFormat is the delivery format resolved from the manifest.
// The zero value means the format has not been resolved yet.
type TransferFormat string

const (
	TransferFormatDASH TransferFormat = "dash"
	TransferFormatHLS  TransferFormat = "hls"
)

// LiveSupport is the device capability for live content.
type LiveSupport string

const (
	LiveSupportNone        LiveSupport = "none"
	LiveSupportPlayable    LiveSupport = "playable"
	LiveSupportRestartable LiveSupport = "restartable"
	LiveSupportSeekable    LiveSupport = "seekable"
)

// RequiresSeekingData reports whether the device uses live-window timing
// information, which only exists after a manifest load.
func (l LiveSupport) RequiresSeekingData() bool {
	return l == LiveSupportRestartable || l == LiveSupportSeekable
}

// StrategyKind identifies the decode/render strategy family.
type StrategyKind string

const (
	StrategyMSE    StrategyKind = "msestrategy"
	StrategyNative StrategyKind = "nativestrategy"
	StrategyBasic  StrategyKind = "basicstrategy"
)

// Kind is the media kind being played.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// SeekableRange is the seekable interval in seconds.
type SeekableRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Width returns the length of the range in seconds.
func (r SeekableRange) Width() float64 {
	return r.End - r.Start
}
