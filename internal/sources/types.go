// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sources

import (
	"time"

	"github.com/ManuGH/playresilience/internal/manifest"
	"github.com/ManuGH/playresilience/internal/media"
)

const (
	// DefaultFailoverResetTime is how long a failed source stays blacklisted.
	DefaultFailoverResetTime = 60 * time.Second

	// DefaultSubtitlesRequestTimeout bounds a single subtitles request.
	DefaultSubtitlesRequestTimeout = 5 * time.Second
)

// Error messages carried in FailoverContext.ErrorMessage.
const (
	ErrorMessageBufferingTimeout = "bufferingTimeoutError"
	ErrorMessageFatal            = "fatalError"
	ErrorMessageManifestLoad     = "manifest-load"
)

// Source is one media location on one CDN.
type Source struct {
	URL string `json:"url" yaml:"url"`
	CDN string `json:"cdn" yaml:"cdn"`
}

// SubtitlesSource is one subtitles location on one CDN.
type SubtitlesSource struct {
	URL           string  `json:"url" yaml:"url"`
	CDN           string  `json:"cdn" yaml:"cdn"`
	SegmentLength float64 `json:"segmentLength,omitempty" yaml:"segmentLength,omitempty"`
}

// SortFunc reorders the failover candidates. It receives a copy it may
// mutate and returns the new order; the first element becomes current.
type SortFunc func(candidates []Source) []Source

// PlayerSettings are the failover options recognised per media item.
type PlayerSettings struct {
	// FailoverResetTime is the blacklist duration; zero means DefaultFailoverResetTime.
	FailoverResetTime time.Duration
	// FailoverSort replaces the default rotation when set.
	FailoverSort SortFunc
}

// Media describes the item being played.
type Media struct {
	URLs                    []Source
	Captions                []SubtitlesSource
	TransferFormat          media.TransferFormat
	SubtitlesRequestTimeout time.Duration
	PlayerSettings          PlayerSettings
}

// Params is the input to Init.
type Params struct {
	Media       Media
	ServerDate  time.Time
	WindowType  media.WindowType
	LiveSupport media.LiveSupport
	// Time seeds the live window until the first manifest load.
	Time manifest.TimeWindow
}

// Callbacks is the two-branch completion of an asynchronous operation.
type Callbacks struct {
	OnSuccess func()
	OnError   func(err error)
}

func (c Callbacks) succeed() {
	if c.OnSuccess != nil {
		c.OnSuccess()
	}
}

func (c Callbacks) fail(err error) {
	if c.OnError != nil {
		c.OnError(err)
	}
}

// FailoverContext describes the failure that triggered a failover attempt.
type FailoverContext struct {
	ErrorMessage            string
	IsBufferingTimeoutError bool
	// CurrentTime is nil when playback never started.
	CurrentTime *float64
	// Duration is zero when unknown.
	Duration float64
	// ServiceLocation is the location the player was redirected to, if any.
	ServiceLocation string
	IsInitialPlay   bool
}

// Seconds returns a pointer to v, for FailoverContext.CurrentTime.
func Seconds(v float64) *float64 {
	return &v
}

func (fc FailoverContext) trigger() string {
	switch {
	case fc.IsBufferingTimeoutError:
		return "buffering"
	case fc.ErrorMessage == ErrorMessageManifestLoad:
		return "manifest"
	default:
		return "fatal"
	}
}

func cloneSources(in []Source) []Source {
	if in == nil {
		return nil
	}
	return append(make([]Source, 0, len(in)), in...)
}

func cloneSubtitles(in []SubtitlesSource) []SubtitlesSource {
	if in == nil {
		return nil
	}
	return append(make([]SubtitlesSource, 0, len(in)), in...)
}
