// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowType_IsLive(t *testing.T) {
	assert.False(t, WindowStatic.IsLive())
	assert.True(t, WindowGrowing.IsLive())
	assert.True(t, WindowSliding.IsLive())
}

func TestLiveSupport_RequiresSeekingData(t *testing.T) {
	cases := map[LiveSupport]bool{
		LiveSupportNone:        false,
		LiveSupportPlayable:    false,
		LiveSupportRestartable: true,
		LiveSupportSeekable:    true,
	}
	for ls, want := range cases {
		assert.Equal(t, want, ls.RequiresSeekingData(), "live support %s", ls)
	}
}

func TestSeekableRange_Width(t *testing.T) {
	assert.InDelta(t, 90.0, SeekableRange{Start: 10, End: 100}.Width(), 1e-9)
}
