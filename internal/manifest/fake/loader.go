// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package fake provides a scripted manifest loader for tests and simulations.
package fake

import (
	"errors"
	"sync"
	"time"

	"github.com/ManuGH/playresilience/internal/manifest"
)

// ErrScripted is the error returned by scripted failures.
var ErrScripted = errors.New("scripted manifest failure")

// Call records one Load invocation.
type Call struct {
	URL        string
	ServerDate time.Time
}

// Loader answers Load synchronously from per-URL scripts, falling back to Default.
type Loader struct {
	mu sync.Mutex

	// Default is returned for URLs without a script entry.
	Default manifest.Result
	// Results overrides the result per URL.
	Results map[string]manifest.Result
	// Fail makes loads of the URL fail.
	Fail map[string]bool
	// FailNext makes the next n loads fail regardless of URL.
	FailNext int
	// FailAll makes every load fail.
	FailAll bool

	calls []Call
}

// Load implements manifest.Loader.
func (l *Loader) Load(url string, serverDate time.Time, done func(manifest.Result, error)) {
	l.mu.Lock()
	l.calls = append(l.calls, Call{URL: url, ServerDate: serverDate})
	fail := l.FailAll || l.Fail[url]
	if l.FailNext > 0 {
		l.FailNext--
		fail = true
	}
	res, ok := l.Results[url]
	if !ok {
		res = l.Default
	}
	l.mu.Unlock()

	if fail {
		done(manifest.Result{}, ErrScripted)
		return
	}
	done(res, nil)
}

// SetDefault replaces the default result.
func (l *Loader) SetDefault(res manifest.Result) {
	l.mu.Lock()
	l.Default = res
	l.mu.Unlock()
}

// Calls returns the recorded calls.
func (l *Loader) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Call(nil), l.calls...)
}

// ResetCalls clears the recorded calls.
func (l *Loader) ResetCalls() {
	l.mu.Lock()
	l.calls = nil
	l.mu.Unlock()
}

var _ manifest.Loader = (*Loader)(nil)
