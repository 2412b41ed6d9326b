// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import (
	"errors"
	"testing"
	"time"

	"github.com/ManuGH/playresilience/internal/sources"
	"github.com/stretchr/testify/assert"
)

func TestFatalError(t *testing.T) {
	stall := &FatalError{BufferingTimeout: true, Err: sources.ErrSourcesExhausted}
	assert.ErrorIs(t, stall, ErrBufferingTimeout)
	assert.NotErrorIs(t, stall, ErrFatalPlayback)
	assert.ErrorIs(t, stall, sources.ErrFailoverDeclined)
	assert.Contains(t, stall.Error(), "buffering timeout")

	hard := &FatalError{}
	assert.ErrorIs(t, hard, ErrFatalPlayback)
	assert.Equal(t, "playback failed: fatal playback error", hard.Error())

	var fe *FatalError
	assert.True(t, errors.As(error(stall), &fe))
	assert.True(t, fe.BufferingTimeout)
}

func TestTimeoutsWithDefaults(t *testing.T) {
	got := Timeouts{Buffering: 10 * time.Second}.withDefaults()
	want := DefaultTimeouts()
	want.Buffering = 10 * time.Second
	assert.Equal(t, want, got)
}
