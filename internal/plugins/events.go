// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package plugins carries the structured events a playback session and its
// source list emit for outside observers (analytics, UI, logging).
package plugins

import "time"

// Kind identifies the plugin callback an event corresponds to.
type Kind string

const (
	KindErrorRaised        Kind = "error_raised"
	KindErrorCleared       Kind = "error_cleared"
	KindBufferingRaised    Kind = "buffering_raised"
	KindBufferingCleared   Kind = "buffering_cleared"
	KindFatalError         Kind = "fatal_error"
	KindErrorHandled       Kind = "error_handled"
	KindFailoverDeclined   Kind = "failover_declined"
	KindSubtitlesLoadError Kind = "subtitles_load_error"
)

// Status is the lifecycle status carried by an event.
type Status string

const (
	StatusStarted   Status = "started"
	StatusDismissed Status = "dismissed"
	StatusFatal     Status = "fatal"
	StatusFailover  Status = "failover"
)

// StateType says which condition the event is about.
type StateType string

const (
	TypeError     StateType = "error"
	TypeBuffering StateType = "buffering"
)

// Event is a single plugin notification.
type Event struct {
	Kind      Kind      `json:"kind"`
	SessionID string    `json:"sessionId,omitempty"`
	Status    Status    `json:"status,omitempty"`
	StateType StateType `json:"stateType,omitempty"`

	IsBufferingTimeoutError bool `json:"isBufferingTimeoutError"`
	IsInitialPlay           bool `json:"isInitialPlay"`

	// CDN is the CDN in use (or the one that failed); NewCDN is the failover target.
	CDN    string `json:"cdn,omitempty"`
	NewCDN string `json:"newCdn,omitempty"`

	// Reason explains a declined failover.
	Reason string `json:"reason,omitempty"`

	// StatusCode is the transport status for subtitles load errors.
	StatusCode int `json:"statusCode,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}
