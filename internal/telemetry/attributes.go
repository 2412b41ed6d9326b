// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Span attribute keys used across the playback packages.
const (
	SessionIDKey   = "playback.session_id"
	StrategyKey    = "playback.strategy"
	LiveSupportKey = "playback.live_support"
	WindowTypeKey  = "playback.window_type"

	FailoverCDNKey         = "failover.cdn"
	FailoverNewCDNKey      = "failover.new_cdn"
	FailoverReasonKey      = "failover.reason"
	FailoverBufferingKey   = "failover.buffering_timeout"
	FailoverCandidatesKey  = "failover.candidates"
	FailoverServiceLocKey  = "failover.service_location"
	FailoverCurrentTimeKey = "failover.current_time"

	ManifestURLKey            = "manifest.url"
	ManifestTransferFormatKey = "manifest.transfer_format"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// FailoverAttributes describes a failover attempt.
func FailoverAttributes(cdn string, candidates int, bufferingTimeout bool, serviceLocation string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(FailoverCDNKey, cdn),
		attribute.Int(FailoverCandidatesKey, candidates),
		attribute.Bool(FailoverBufferingKey, bufferingTimeout),
	}
	if serviceLocation != "" {
		attrs = append(attrs, attribute.String(FailoverServiceLocKey, serviceLocation))
	}
	return attrs
}

// ManifestAttributes describes a manifest load.
func ManifestAttributes(url, transferFormat string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(ManifestURLKey, url)}
	if transferFormat != "" {
		attrs = append(attrs, attribute.String(ManifestTransferFormatKey, transferFormat))
	}
	return attrs
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
