// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ManuGH/playresilience/internal/media"
	"github.com/rs/zerolog"
)

// Validate checks a resolved configuration. All problems are reported together.
func Validate(cfg AppConfig) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil {
		add("logLevel: %q is not a log level", cfg.LogLevel)
	}

	s := cfg.Session
	positive := []struct {
		key string
		ok  bool
	}{
		{"session.failoverResetTime", s.FailoverResetTime > 0},
		{"session.subtitlesRequestTimeout", s.SubtitlesRequestTimeout > 0},
		{"session.initialBufferingTimeout", s.InitialBufferingTimeout > 0},
		{"session.bufferingTimeout", s.BufferingTimeout > 0},
		{"session.fatalErrorTimeout", s.FatalErrorTimeout > 0},
	}
	for _, p := range positive {
		if !p.ok {
			add("%s: must be positive", p.key)
		}
	}
	if s.LiveEdgeMargin < 0 {
		add("session.liveEdgeMargin: must not be negative")
	}

	switch s.Strategy {
	case media.StrategyMSE, media.StrategyNative, media.StrategyBasic:
	default:
		add("session.strategy: unknown strategy %q", s.Strategy)
	}
	switch s.LiveSupport {
	case media.LiveSupportNone, media.LiveSupportPlayable, media.LiveSupportRestartable, media.LiveSupportSeekable:
	default:
		add("session.liveSupport: unknown live support %q", s.LiveSupport)
	}

	if cfg.Server.Listen == "" {
		add("server.listen: must not be empty")
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		add("server.shutdownTimeout: must be positive")
	}

	if cfg.Telemetry.Enabled {
		switch cfg.Telemetry.Exporter {
		case "grpc", "http":
		default:
			add("telemetry.exporter: must be grpc or http, got %q", cfg.Telemetry.Exporter)
		}
	}
	if r := cfg.Telemetry.SamplingRate; r < 0 || r > 1 {
		add("telemetry.samplingRate: must be within [0,1], got %v", r)
	}

	if cfg.Bus.Buffer < 0 {
		add("bus.buffer: must not be negative")
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
