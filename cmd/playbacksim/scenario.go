// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ManuGH/playresilience/internal/manifest"
	manifestfake "github.com/ManuGH/playresilience/internal/manifest/fake"
	"github.com/ManuGH/playresilience/internal/media"
	"github.com/ManuGH/playresilience/internal/sources"
	"gopkg.in/yaml.v3"
)

// Player events and session commands a timeline step can carry.
const (
	stepPlaying        = "playing"
	stepPaused         = "paused"
	stepWaiting        = "waiting"
	stepEnded          = "ended"
	stepError          = "error"
	stepTimeUpdate     = "time_update"
	stepSubtitlesError = "subtitles_error"
	stepSeek           = "seek"
	stepPause          = "pause"
	stepPlay           = "play"
)

var knownSteps = map[string]bool{
	stepPlaying: true, stepPaused: true, stepWaiting: true, stepEnded: true,
	stepError: true, stepTimeUpdate: true, stepSubtitlesError: true,
	stepSeek: true, stepPause: true, stepPlay: true,
}

// File is the scenario file layout.
type File struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Scenario scripts one playback session.
type Scenario struct {
	Name           string                    `yaml:"name"`
	MimeType       string                    `yaml:"mimeType,omitempty"`
	WindowType     media.WindowType          `yaml:"windowType"`
	TransferFormat media.TransferFormat      `yaml:"transferFormat,omitempty"`
	LiveSupport    media.LiveSupport         `yaml:"liveSupport,omitempty"`
	Strategy       media.StrategyKind        `yaml:"strategy,omitempty"`
	InitialTime    *float64                  `yaml:"initialTime,omitempty"`
	Sources        []sources.Source          `yaml:"sources"`
	Subtitles      []sources.SubtitlesSource `yaml:"subtitles,omitempty"`
	// Manifests scripts the manifest answer per source URL.
	Manifests map[string]ManifestScript `yaml:"manifests,omitempty"`
	Timeline  []Step                    `yaml:"timeline"`
	// RunFor bounds the scenario; defaults to one second after the last step.
	RunFor string `yaml:"runFor,omitempty"`

	runFor time.Duration
}

// ManifestScript is the manifest one source serves.
type ManifestScript struct {
	Fail bool `yaml:"fail,omitempty"`
	// WindowStart is the live-window start relative to the scenario start.
	WindowStart    string               `yaml:"windowStart,omitempty"`
	WindowLength   string               `yaml:"windowLength,omitempty"`
	TransferFormat media.TransferFormat `yaml:"transferFormat,omitempty"`
}

// Step is one timeline entry.
type Step struct {
	At    string `yaml:"at"`
	Event string `yaml:"event"`

	CurrentTime *float64             `yaml:"currentTime,omitempty"`
	Duration    *float64             `yaml:"duration,omitempty"`
	Seekable    *media.SeekableRange `yaml:"seekable,omitempty"`
	// Target is the seek position for "seek".
	Target float64 `yaml:"target,omitempty"`
	// StatusCode is reported with "subtitles_error".
	StatusCode int `yaml:"statusCode,omitempty"`

	at time.Duration
}

// loadScenarios reads and validates a scenario file.
func loadScenarios(path string) ([]Scenario, error) {
	// #nosec G304 -- scenario paths are provided by the operator via CLI
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	return parseScenarios(data)
}

func parseScenarios(data []byte) ([]Scenario, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("scenario file is empty")
		}
		return nil, fmt.Errorf("parse scenario file: %w", err)
	}
	if len(f.Scenarios) == 0 {
		return nil, errors.New("scenario file lists no scenarios")
	}
	for i := range f.Scenarios {
		if err := f.Scenarios[i].prepare(); err != nil {
			return nil, fmt.Errorf("scenario %d (%s): %w", i, f.Scenarios[i].Name, err)
		}
	}
	return f.Scenarios, nil
}

func (sc *Scenario) prepare() error {
	if sc.Name == "" {
		return errors.New("name is required")
	}
	if len(sc.Sources) == 0 {
		return errors.New("at least one source is required")
	}
	switch sc.WindowType {
	case media.WindowStatic, media.WindowGrowing, media.WindowSliding:
	case "":
		sc.WindowType = media.WindowStatic
	default:
		return fmt.Errorf("unknown window type %q", sc.WindowType)
	}
	if sc.MimeType == "" {
		sc.MimeType = defaultMimeType(sc.TransferFormat)
	}

	var last time.Duration
	for i := range sc.Timeline {
		st := &sc.Timeline[i]
		if !knownSteps[st.Event] {
			return fmt.Errorf("step %d: unknown event %q", i, st.Event)
		}
		d, err := time.ParseDuration(st.At)
		if err != nil {
			return fmt.Errorf("step %d: at: %w", i, err)
		}
		if d < 0 {
			return fmt.Errorf("step %d: at must not be negative", i)
		}
		st.at = d
		last = max(last, d)
	}

	sc.runFor = last + time.Second
	if sc.RunFor != "" {
		d, err := time.ParseDuration(sc.RunFor)
		if err != nil {
			return fmt.Errorf("runFor: %w", err)
		}
		sc.runFor = d
	}

	for url, m := range sc.Manifests {
		if _, err := parseOptionalDuration(m.WindowStart); err != nil {
			return fmt.Errorf("manifest %s: windowStart: %w", url, err)
		}
		if _, err := parseOptionalDuration(m.WindowLength); err != nil {
			return fmt.Errorf("manifest %s: windowLength: %w", url, err)
		}
	}
	return nil
}

// loader builds the scripted manifest loader; windows are anchored at start.
func (sc *Scenario) loader(start time.Time) *manifestfake.Loader {
	l := &manifestfake.Loader{
		Default: manifest.Result{
			TransferFormat: sc.TransferFormat,
			Time:           window(start, 0, 0),
		},
		Results: make(map[string]manifest.Result, len(sc.Manifests)),
		Fail:    make(map[string]bool, len(sc.Manifests)),
	}
	for url, m := range sc.Manifests {
		if m.Fail {
			l.Fail[url] = true
			continue
		}
		offset, _ := parseOptionalDuration(m.WindowStart)
		length, _ := parseOptionalDuration(m.WindowLength)
		format := m.TransferFormat
		if format == "" {
			format = sc.TransferFormat
		}
		l.Results[url] = manifest.Result{TransferFormat: format, Time: window(start, offset, length)}
	}
	return l
}

func window(start time.Time, offset, length time.Duration) manifest.TimeWindow {
	if length <= 0 {
		length = 2 * time.Hour
	}
	ws := start.Add(offset)
	return manifest.TimeWindow{WindowStartTime: ws, WindowEndTime: ws.Add(length)}
}

func parseOptionalDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func defaultMimeType(f media.TransferFormat) string {
	switch f {
	case media.TransferFormatHLS:
		return "application/vnd.apple.mpegurl"
	case media.TransferFormatDASH:
		return "application/dash+xml"
	}
	return "video/mp4"
}
