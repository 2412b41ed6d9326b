// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config loads the defaults applied to new playback sessions and
// the simulator process: built-in defaults, then a strict YAML file, then
// PLAYBACK_* environment variables.
package config

import (
	"time"

	xglog "github.com/ManuGH/playresilience/internal/log"
	"github.com/ManuGH/playresilience/internal/media"
	"github.com/ManuGH/playresilience/internal/playback"
	"github.com/ManuGH/playresilience/internal/sources"
	"github.com/ManuGH/playresilience/internal/telemetry"
)

// AppConfig is the resolved configuration.
type AppConfig struct {
	Version string

	LogLevel   string
	LogService string

	Session   SessionConfig
	Server    ServerConfig
	Telemetry TelemetryConfig
	Bus       BusConfig
}

// SessionConfig holds the defaults every new session starts from.
type SessionConfig struct {
	FailoverResetTime       time.Duration
	SubtitlesRequestTimeout time.Duration
	InitialBufferingTimeout time.Duration
	BufferingTimeout        time.Duration
	FatalErrorTimeout       time.Duration
	LiveEdgeMargin          time.Duration
	Strategy                media.StrategyKind
	LiveSupport             media.LiveSupport
}

// ServerConfig configures the status server of the simulator.
type ServerConfig struct {
	Listen          string
	ShutdownTimeout time.Duration
}

// TelemetryConfig configures tracing.
type TelemetryConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	SamplingRate float64
	Environment  string
}

// BusConfig sizes the in-memory event bus.
type BusConfig struct {
	Buffer int
}

// Timeouts converts the session defaults for playback.Config.
func (s SessionConfig) Timeouts() playback.Timeouts {
	return playback.Timeouts{
		InitialBuffering: s.InitialBufferingTimeout,
		Buffering:        s.BufferingTimeout,
		FatalError:       s.FatalErrorTimeout,
		LiveEdgeMargin:   s.LiveEdgeMargin,
	}
}

// PlayerSettings converts the session defaults for sources.Media.
func (s SessionConfig) PlayerSettings() sources.PlayerSettings {
	return sources.PlayerSettings{FailoverResetTime: s.FailoverResetTime}
}

// LogConfig returns the logger configuration.
func (c AppConfig) LogConfig() xglog.Config {
	return xglog.Config{Level: c.LogLevel, Service: c.LogService, Version: c.Version}
}

// TelemetryProviderConfig returns the tracer configuration.
func (c AppConfig) TelemetryProviderConfig() telemetry.Config {
	return telemetry.Config{
		Enabled:        c.Telemetry.Enabled,
		ServiceName:    c.LogService,
		ServiceVersion: c.Version,
		Environment:    c.Telemetry.Environment,
		Strategy:       string(c.Session.Strategy),
		LiveSupport:    string(c.Session.LiveSupport),
		ExporterType:   c.Telemetry.Exporter,
		Endpoint:       c.Telemetry.Endpoint,
		SamplingRate:   c.Telemetry.SamplingRate,
	}
}

// FileConfig is the YAML layout. Durations are Go duration strings ("20s").
type FileConfig struct {
	LogLevel   string `yaml:"logLevel,omitempty"`
	LogService string `yaml:"logService,omitempty"`

	Session   *SessionFileConfig   `yaml:"session,omitempty"`
	Server    *ServerFileConfig    `yaml:"server,omitempty"`
	Telemetry *TelemetryFileConfig `yaml:"telemetry,omitempty"`
	Bus       *BusFileConfig       `yaml:"bus,omitempty"`
}

type SessionFileConfig struct {
	FailoverResetTime       string `yaml:"failoverResetTime,omitempty"`
	SubtitlesRequestTimeout string `yaml:"subtitlesRequestTimeout,omitempty"`
	InitialBufferingTimeout string `yaml:"initialBufferingTimeout,omitempty"`
	BufferingTimeout        string `yaml:"bufferingTimeout,omitempty"`
	FatalErrorTimeout       string `yaml:"fatalErrorTimeout,omitempty"`
	LiveEdgeMargin          string `yaml:"liveEdgeMargin,omitempty"`
	Strategy                string `yaml:"strategy,omitempty"`
	LiveSupport             string `yaml:"liveSupport,omitempty"`
}

type ServerFileConfig struct {
	Listen          string `yaml:"listen,omitempty"`
	ShutdownTimeout string `yaml:"shutdownTimeout,omitempty"`
}

type TelemetryFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
	Environment  string   `yaml:"environment,omitempty"`
}

type BusFileConfig struct {
	Buffer *int `yaml:"buffer,omitempty"`
}
