// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sources

import (
	"time"

	"github.com/ManuGH/playresilience/internal/loop"
	"github.com/ManuGH/playresilience/internal/metrics"
)

type blacklistEntry[T any] struct {
	item     T
	deadline time.Time
	timer    loop.Timer
}

// blacklist holds failed items until their reinstatement deadline.
// Every entry owns exactly one pending timer; firing removes the entry.
type blacklist[T any] struct {
	kind    string
	entries []*blacklistEntry[T]
}

func newBlacklist[T any](kind string) *blacklist[T] {
	return &blacklist[T]{kind: kind}
}

// add excludes item for d, then hands it to reinstate.
func (b *blacklist[T]) add(sched loop.Scheduler, item T, d time.Duration, reinstate func(T)) {
	e := &blacklistEntry[T]{item: item, deadline: sched.Now().Add(d)}
	e.timer = sched.AfterFunc(d, func() {
		if !b.remove(e) {
			return
		}
		metrics.AddBlacklisted(b.kind, -1)
		metrics.RecordReinstated(b.kind)
		reinstate(e.item)
	})
	b.entries = append(b.entries, e)
	metrics.AddBlacklisted(b.kind, 1)
}

func (b *blacklist[T]) remove(e *blacklistEntry[T]) bool {
	for i, cur := range b.entries {
		if cur == e {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (b *blacklist[T]) contains(match func(T) bool) bool {
	for _, e := range b.entries {
		if match(e.item) {
			return true
		}
	}
	return false
}

// clear cancels every pending reinstatement.
func (b *blacklist[T]) clear() {
	for _, e := range b.entries {
		e.timer.Stop()
	}
	if n := len(b.entries); n > 0 {
		metrics.AddBlacklisted(b.kind, -n)
	}
	b.entries = nil
}

func (b *blacklist[T]) len() int {
	return len(b.entries)
}
