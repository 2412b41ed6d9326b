// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ManuGH/playresilience/internal/media"
	"github.com/ManuGH/playresilience/internal/playback"
	"github.com/ManuGH/playresilience/internal/sources"
	"gopkg.in/yaml.v3"
)

const (
	defaultListen          = ":8089"
	defaultShutdownTimeout = 10 * time.Second
	defaultBusBuffer       = 256
)

// Loader resolves an AppConfig from defaults, an optional YAML file and the environment.
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a loader. configPath may be empty for ENV-only configuration.
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Path returns the watched config file, empty when there is none.
func (l *Loader) Path() string { return l.configPath }

// Load applies defaults, the file, then PLAYBACK_* overrides and validates the result.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()
	cfg.Version = l.version

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	mergeEnvConfig(&cfg)

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	t := playback.DefaultTimeouts()
	return AppConfig{
		LogLevel:   "info",
		LogService: "playbacksim",
		Session: SessionConfig{
			FailoverResetTime:       sources.DefaultFailoverResetTime,
			SubtitlesRequestTimeout: sources.DefaultSubtitlesRequestTimeout,
			InitialBufferingTimeout: t.InitialBuffering,
			BufferingTimeout:        t.Buffering,
			FatalErrorTimeout:       t.FatalError,
			LiveEdgeMargin:          t.LiveEdgeMargin,
			Strategy:                media.StrategyMSE,
			LiveSupport:             media.LiveSupportSeekable,
		},
		Server: ServerConfig{
			Listen:          defaultListen,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			SamplingRate: 1.0,
			Environment:  "development",
		},
		Bus: BusConfig{Buffer: defaultBusBuffer},
	}
}

func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("%w: %w", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

func mergeFileConfig(cfg *AppConfig, src *FileConfig) error {
	if src.LogLevel != "" {
		cfg.LogLevel = src.LogLevel
	}
	if src.LogService != "" {
		cfg.LogService = src.LogService
	}

	if s := src.Session; s != nil {
		durations := []struct {
			key string
			raw string
			dst *time.Duration
		}{
			{"session.failoverResetTime", s.FailoverResetTime, &cfg.Session.FailoverResetTime},
			{"session.subtitlesRequestTimeout", s.SubtitlesRequestTimeout, &cfg.Session.SubtitlesRequestTimeout},
			{"session.initialBufferingTimeout", s.InitialBufferingTimeout, &cfg.Session.InitialBufferingTimeout},
			{"session.bufferingTimeout", s.BufferingTimeout, &cfg.Session.BufferingTimeout},
			{"session.fatalErrorTimeout", s.FatalErrorTimeout, &cfg.Session.FatalErrorTimeout},
			{"session.liveEdgeMargin", s.LiveEdgeMargin, &cfg.Session.LiveEdgeMargin},
		}
		for _, d := range durations {
			if err := setDuration(d.key, d.raw, d.dst); err != nil {
				return err
			}
		}
		if s.Strategy != "" {
			cfg.Session.Strategy = media.StrategyKind(s.Strategy)
		}
		if s.LiveSupport != "" {
			cfg.Session.LiveSupport = media.LiveSupport(s.LiveSupport)
		}
	}

	if s := src.Server; s != nil {
		if s.Listen != "" {
			cfg.Server.Listen = s.Listen
		}
		if err := setDuration("server.shutdownTimeout", s.ShutdownTimeout, &cfg.Server.ShutdownTimeout); err != nil {
			return err
		}
	}

	if t := src.Telemetry; t != nil {
		if t.Enabled != nil {
			cfg.Telemetry.Enabled = *t.Enabled
		}
		if t.Exporter != "" {
			cfg.Telemetry.Exporter = t.Exporter
		}
		if t.Endpoint != "" {
			cfg.Telemetry.Endpoint = t.Endpoint
		}
		if t.SamplingRate != nil {
			cfg.Telemetry.SamplingRate = *t.SamplingRate
		}
		if t.Environment != "" {
			cfg.Telemetry.Environment = t.Environment
		}
	}

	if b := src.Bus; b != nil && b.Buffer != nil {
		cfg.Bus.Buffer = *b.Buffer
	}
	return nil
}

func setDuration(key, raw string, dst *time.Duration) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key, err)
	}
	*dst = d
	return nil
}

// mergeEnvConfig applies PLAYBACK_* overrides; ENV has the highest priority.
func mergeEnvConfig(cfg *AppConfig) {
	cfg.LogLevel = ParseString(EnvPrefix+"LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = ParseString(EnvPrefix+"LOG_SERVICE", cfg.LogService)

	s := &cfg.Session
	s.FailoverResetTime = ParseDuration(EnvPrefix+"FAILOVER_RESET_TIME", s.FailoverResetTime)
	s.SubtitlesRequestTimeout = ParseDuration(EnvPrefix+"SUBTITLES_REQUEST_TIMEOUT", s.SubtitlesRequestTimeout)
	s.InitialBufferingTimeout = ParseDuration(EnvPrefix+"INITIAL_BUFFERING_TIMEOUT", s.InitialBufferingTimeout)
	s.BufferingTimeout = ParseDuration(EnvPrefix+"BUFFERING_TIMEOUT", s.BufferingTimeout)
	s.FatalErrorTimeout = ParseDuration(EnvPrefix+"FATAL_ERROR_TIMEOUT", s.FatalErrorTimeout)
	s.LiveEdgeMargin = ParseDuration(EnvPrefix+"LIVE_EDGE_MARGIN", s.LiveEdgeMargin)
	s.Strategy = media.StrategyKind(ParseString(EnvPrefix+"STRATEGY", string(s.Strategy)))
	s.LiveSupport = media.LiveSupport(ParseString(EnvPrefix+"LIVE_SUPPORT", string(s.LiveSupport)))

	cfg.Server.Listen = ParseString(EnvPrefix+"LISTEN", cfg.Server.Listen)
	cfg.Server.ShutdownTimeout = ParseDuration(EnvPrefix+"SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	t := &cfg.Telemetry
	t.Enabled = ParseBool(EnvPrefix+"TELEMETRY_ENABLED", t.Enabled)
	t.Exporter = ParseString(EnvPrefix+"TELEMETRY_EXPORTER", t.Exporter)
	t.Endpoint = ParseString(EnvPrefix+"TELEMETRY_ENDPOINT", t.Endpoint)
	t.SamplingRate = ParseFloat(EnvPrefix+"TELEMETRY_SAMPLING_RATE", t.SamplingRate)
	t.Environment = ParseString(EnvPrefix+"TELEMETRY_ENVIRONMENT", t.Environment)

	cfg.Bus.Buffer = ParseInt(EnvPrefix+"BUS_BUFFER", cfg.Bus.Buffer)
}
