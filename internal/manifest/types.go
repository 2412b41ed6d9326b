// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package manifest coordinates manifest (re)loads needed to keep live-window
// timing information current across failovers and restarts.
package manifest

import (
	"errors"
	"time"

	"github.com/ManuGH/playresilience/internal/media"
)

// ErrManifestLoad classifies every manifest load failure.
var ErrManifestLoad = errors.New("manifest load failed")

// TimeWindow is the live-window timing resolved from a manifest.
// It is the zero value until the first successful load.
type TimeWindow struct {
	WindowStartTime time.Time `json:"windowStartTime"`
	WindowEndTime   time.Time `json:"windowEndTime"`
	// TimeCorrection is the offset in seconds between media time and wall clock.
	TimeCorrection float64 `json:"timeCorrection"`
}

// OffsetFrom returns how far, in seconds, the window start moved since prev.
// It is zero when either window has no start time.
func (w TimeWindow) OffsetFrom(prev TimeWindow) float64 {
	if w.WindowStartTime.IsZero() || prev.WindowStartTime.IsZero() {
		return 0
	}
	return w.WindowStartTime.Sub(prev.WindowStartTime).Seconds()
}

// Result is what a successful manifest load reports.
type Result struct {
	TransferFormat media.TransferFormat
	Time           TimeWindow
}

// Loader fetches and parses a manifest. done must be invoked exactly once,
// on the session loop, with either a result or an error.
type Loader interface {
	Load(url string, serverDate time.Time, done func(Result, error))
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(url string, serverDate time.Time, done func(Result, error))

// Load calls f.
func (f LoaderFunc) Load(url string, serverDate time.Time, done func(Result, error)) {
	f(url, serverDate, done)
}

// LoadError wraps a loader failure with the URL that failed.
type LoadError struct {
	URL string
	Err error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return ErrManifestLoad.Error() + ": " + e.URL
	}
	return ErrManifestLoad.Error() + ": " + e.URL + ": " + e.Err.Error()
}

// Is reports ErrManifestLoad so callers can match the class.
func (e *LoadError) Is(target error) bool {
	return target == ErrManifestLoad
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
