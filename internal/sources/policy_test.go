// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sources

import (
	"testing"

	"github.com/ManuGH/playresilience/internal/media"
	"github.com/stretchr/testify/assert"
)

func TestShouldFailover(t *testing.T) {
	tests := []struct {
		name  string
		in    PolicyInput
		want  Decision
		errIs error
	}{
		{
			name: "static far from end",
			in:   PolicyInput{WindowType: media.WindowStatic, Candidates: 2, Context: FailoverContext{CurrentTime: Seconds(10), Duration: 100}},
			want: Decision{Accept: true, Reason: ReasonAccepted},
		},
		{
			name:  "static exactly five seconds from end",
			in:    PolicyInput{WindowType: media.WindowStatic, Candidates: 2, Context: FailoverContext{CurrentTime: Seconds(95), Duration: 100}},
			want:  Decision{Reason: ReasonNearEnd},
			errIs: ErrNearEndOfContent,
		},
		{
			name: "static not started",
			in:   PolicyInput{WindowType: media.WindowStatic, Candidates: 2, Context: FailoverContext{Duration: 100}},
			want: Decision{Accept: true, Reason: ReasonAccepted},
		},
		{
			name: "static unknown duration",
			in:   PolicyInput{WindowType: media.WindowStatic, Candidates: 2, Context: FailoverContext{CurrentTime: Seconds(0)}},
			want: Decision{Accept: true, Reason: ReasonAccepted},
		},
		{
			name: "live ignores end of window",
			in:   PolicyInput{WindowType: media.WindowSliding, Candidates: 2, Context: FailoverContext{CurrentTime: Seconds(99), Duration: 100}},
			want: Decision{Accept: true, Reason: ReasonAccepted},
		},
		{
			name:  "single source",
			in:    PolicyInput{WindowType: media.WindowGrowing, Candidates: 1},
			want:  Decision{Reason: ReasonExhausted},
			errIs: ErrSourcesExhausted,
		},
		{
			name:  "exhaustion wins over near end",
			in:    PolicyInput{WindowType: media.WindowStatic, Candidates: 1, Context: FailoverContext{CurrentTime: Seconds(99), Duration: 100}},
			want:  Decision{Reason: ReasonExhausted},
			errIs: ErrSourcesExhausted,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldFailover(tt.in)
			assert.Equal(t, tt.want, got)
			if tt.errIs == nil {
				assert.NoError(t, got.Err())
				return
			}
			assert.ErrorIs(t, got.Err(), tt.errIs)
			assert.ErrorIs(t, got.Err(), ErrFailoverDeclined)
		})
	}
}

func TestSameLocation(t *testing.T) {
	assert.True(t, sameLocation("http://source1.com/a/b?x=1", "http://source1.com/a/b"))
	assert.True(t, sameLocation("http://source1.com?key=value#hash", "http://source1.com"))
	assert.True(t, sameLocation("http://source1.com", "http://source1.com/"))
	assert.True(t, sameLocation("http://SOURCE1.com/", "http://source1.com/"))
	assert.False(t, sameLocation("http://source1.com/a/b", "http://source1.com/c"))
	assert.False(t, sameLocation("https://source1.com/", "http://source1.com/"))
	assert.False(t, sameLocation("http://source2.com/", "http://source1.com/"))
	assert.False(t, sameLocation("", "http://source1.com/"))
	assert.True(t, sameLocation("relative/path?x=1", "relative/path"))
}

func TestIndexOfLocation(t *testing.T) {
	list := []Source{{URL: "http://a.com/"}, {URL: "http://b.com/"}}
	assert.Equal(t, 1, indexOfLocation(list, "http://b.com/?q=1"))
	assert.Equal(t, -1, indexOfLocation(list, "http://c.com/"))
	assert.Equal(t, -1, indexOfLocation(list, ""))
}
