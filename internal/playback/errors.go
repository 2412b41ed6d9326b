// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferingTimeout is the first escalation tier: a stall outlived its timeout.
	ErrBufferingTimeout = errors.New("buffering timeout")

	// ErrFatalPlayback is the second escalation tier: a player error outlived its grace period.
	ErrFatalPlayback = errors.New("fatal playback error")
)

// FatalError is reported when a session gives up. BufferingTimeout tells
// whether the ladder started from a stall rather than a hard error.
type FatalError struct {
	BufferingTimeout bool
	Err              error
}

func (e *FatalError) Error() string {
	cause := ErrFatalPlayback
	if e.BufferingTimeout {
		cause = ErrBufferingTimeout
	}
	if e.Err == nil {
		return fmt.Sprintf("playback failed: %v", cause)
	}
	return fmt.Sprintf("playback failed: %v: %v", cause, e.Err)
}

// Is matches the escalation tier the failure started from.
func (e *FatalError) Is(target error) bool {
	if e.BufferingTimeout {
		return target == ErrBufferingTimeout
	}
	return target == ErrFatalPlayback
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
