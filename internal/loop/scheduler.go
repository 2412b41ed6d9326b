// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package loop provides the single logical thread all playback state runs on,
// and the cancellable timers used for escalation and blacklist expiry.
package loop

import "time"

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop invalidates the callback. It returns true if the call prevented
	// the callback from running and false if it already ran or was stopped.
	Stop() bool
}

// Scheduler schedules callbacks on the loop.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// StopTimer stops t if it is non-nil and reports whether a pending callback was cancelled.
func StopTimer(t Timer) bool {
	if t == nil {
		return false
	}
	return t.Stop()
}
