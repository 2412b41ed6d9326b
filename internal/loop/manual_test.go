// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package loop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_FiresInDeadlineOrder(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManual(start)

	var order []string
	m.AfterFunc(3*time.Second, func() { order = append(order, "c") })
	m.AfterFunc(1*time.Second, func() { order = append(order, "a") })
	m.AfterFunc(2*time.Second, func() { order = append(order, "b") })

	m.Advance(2 * time.Second)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 1, m.Pending())
	assert.Equal(t, start.Add(2*time.Second), m.Now())

	m.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Zero(t, m.Pending())
}

func TestManual_StopCancels(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	ran := false
	tm := m.AfterFunc(time.Second, func() { ran = true })

	require.True(t, tm.Stop())
	require.False(t, tm.Stop())
	m.Advance(time.Minute)
	assert.False(t, ran)
}

func TestManual_NestedSchedulingWithinWindow(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var fired []time.Duration
	m.AfterFunc(time.Second, func() {
		fired = append(fired, time.Duration(m.Now().UnixNano()))
		m.AfterFunc(time.Second, func() {
			fired = append(fired, time.Duration(m.Now().UnixNano()))
		})
	})

	m.Advance(5 * time.Second)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, fired)
}

func TestManual_StopAfterFireReturnsFalse(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	tm := m.AfterFunc(time.Millisecond, func() {})
	m.Advance(time.Second)
	assert.False(t, tm.Stop())
}
