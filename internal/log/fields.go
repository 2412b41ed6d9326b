// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID     = "session_id"
	FieldCorrelationID = "correlation_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Source / CDN fields
	FieldSource    = "source"
	FieldCDN       = "cdn"
	FieldNewCDN    = "new_cdn"
	FieldAvailable = "available"

	// Playback fields
	FieldOldState         = "old_state"
	FieldNewState         = "new_state"
	FieldCurrentTime      = "current_time"
	FieldDuration         = "duration"
	FieldWindowType       = "window_type"
	FieldTransferFormat   = "transfer_format"
	FieldBufferingTimeout = "buffering_timeout_error"
)
