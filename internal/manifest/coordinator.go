// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manifest

import (
	"context"
	"time"

	xglog "github.com/ManuGH/playresilience/internal/log"
	"github.com/ManuGH/playresilience/internal/media"
	"github.com/ManuGH/playresilience/internal/metrics"
	"github.com/ManuGH/playresilience/internal/telemetry"
	"github.com/rs/zerolog"
)

// Coordinator decides when timing metadata must be reloaded and performs the reload.
type Coordinator struct {
	loader Loader
	logger zerolog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger overrides the coordinator logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// NewCoordinator returns a coordinator backed by loader.
func NewCoordinator(loader Loader, opts ...Option) *Coordinator {
	c := &Coordinator{
		loader: loader,
		logger: xglog.WithComponent("manifest"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Required reports whether a failover or restart must reload the manifest.
// Static windows never do. DASH carries enough timing signalling in-band.
// HLS live windows do, and so does a format not yet resolved, since only a
// load can resolve it. Devices that cannot seek live content never use the data.
func (c *Coordinator) Required(window media.WindowType, live media.LiveSupport, format media.TransferFormat) bool {
	if !window.IsLive() {
		return false
	}
	if !live.RequiresSeekingData() {
		return false
	}
	return format != media.TransferFormatDASH
}

// Reload loads the manifest at url and reports the outcome through done.
// Failures are wrapped in *LoadError, matching ErrManifestLoad.
func (c *Coordinator) Reload(url string, serverDate time.Time, done func(Result, error)) {
	_, span := telemetry.StartManifestReload(context.Background(), url)

	c.logger.Debug().
		Str(xglog.FieldEvent, "manifest.reload_start").
		Str(xglog.FieldSource, url).
		Msg("reloading manifest")

	c.loader.Load(url, serverDate, func(res Result, err error) {
		if err != nil {
			telemetry.EndManifestReload(span, url, "", err)
			metrics.RecordManifestReload("error")
			c.logger.Warn().
				Err(err).
				Str(xglog.FieldEvent, "manifest.reload_failed").
				Str(xglog.FieldSource, url).
				Msg("manifest reload failed")
			done(Result{}, &LoadError{URL: url, Err: err})
			return
		}

		telemetry.EndManifestReload(span, url, string(res.TransferFormat), nil)
		metrics.RecordManifestReload("success")
		c.logger.Debug().
			Str(xglog.FieldEvent, "manifest.reload_success").
			Str(xglog.FieldSource, url).
			Str(xglog.FieldTransferFormat, string(res.TransferFormat)).
			Time("window_start", res.Time.WindowStartTime).
			Time("window_end", res.Time.WindowEndTime).
			Msg("manifest reloaded")
		done(res, nil)
	})
}
