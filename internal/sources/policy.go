// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sources

import "github.com/ManuGH/playresilience/internal/media"

// NearEndThreshold is how close, in seconds, static content may be to its
// end before failing over is no longer worthwhile.
const NearEndThreshold = 5.0

// DeclineReason names why a failover was refused.
type DeclineReason string

const (
	ReasonAccepted  DeclineReason = "accepted"
	ReasonExhausted DeclineReason = "exhausted"
	ReasonNearEnd   DeclineReason = "near_end"
)

// Decision is the outcome of ShouldFailover.
type Decision struct {
	Accept bool
	Reason DeclineReason
}

// Err returns the error describing a declined decision, nil when accepted.
func (d Decision) Err() error {
	switch {
	case d.Accept:
		return nil
	case d.Reason == ReasonNearEnd:
		return ErrNearEndOfContent
	default:
		return ErrSourcesExhausted
	}
}

// PolicyInput is what ShouldFailover decides on.
type PolicyInput struct {
	WindowType media.WindowType
	// Candidates is the size of the active sequence, current source included.
	Candidates int
	Context    FailoverContext
}

// ShouldFailover decides whether switching source is worthwhile.
func ShouldFailover(in PolicyInput) Decision {
	if in.Candidates < 2 {
		return Decision{Reason: ReasonExhausted}
	}
	if !in.WindowType.IsLive() && aboutToEnd(in.Context) {
		return Decision{Reason: ReasonNearEnd}
	}
	return Decision{Accept: true, Reason: ReasonAccepted}
}

// aboutToEnd is false when playback never started or the duration is unknown.
func aboutToEnd(fc FailoverContext) bool {
	if fc.CurrentTime == nil || fc.Duration <= 0 {
		return false
	}
	return fc.Duration-*fc.CurrentTime <= NearEndThreshold
}
