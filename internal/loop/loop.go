// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package loop

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	xglog "github.com/ManuGH/playresilience/internal/log"
	"github.com/rs/zerolog"
)

// ErrClosed is returned when work is submitted to a closed loop.
var ErrClosed = errors.New("loop closed")

// Loop executes posted tasks one at a time on the goroutine running Run.
// Timers created by AfterFunc deliver their callbacks through the same queue,
// so callbacks never run concurrently with other tasks.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}

	logger       zerolog.Logger
	recoverPanic bool
	running      atomic.Bool
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the loop logger.
func WithLogger(l zerolog.Logger) Option {
	return func(lp *Loop) { lp.logger = l }
}

// WithPanicRecovery makes the loop log and swallow panics raised by tasks
// instead of crashing the process.
func WithPanicRecovery(enabled bool) Option {
	return func(lp *Loop) { lp.recoverPanic = enabled }
}

// New creates a loop. Nothing runs until Run is called.
func New(opts ...Option) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		logger: xglog.WithComponent("loop"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post enqueues fn. It is safe to call from any goroutine, including tasks
// running on the loop. It returns false once the loop is closed.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it to finish.
// It must not be called from a task running on the loop.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrClosed
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("loop do: %w", ctx.Err())
	}
}

// Run processes tasks until ctx is cancelled or Close is called.
// Queued tasks are drained before Run returns after Close.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("loop already running")
	}
	defer l.running.Store(false)

	l.logger.Debug().Str(xglog.FieldEvent, "loop.started").Msg("loop started")
	for {
		for _, task := range l.take() {
			l.exec(task)
		}

		l.mu.Lock()
		closed := l.closed && len(l.queue) == 0
		l.mu.Unlock()
		if closed {
			l.logger.Debug().Str(xglog.FieldEvent, "loop.stopped").Msg("loop stopped")
			return nil
		}

		select {
		case <-ctx.Done():
			l.Close()
			l.logger.Debug().Str(xglog.FieldEvent, "loop.cancelled").Msg("loop cancelled")
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Close stops accepting new work. Already queued tasks still run.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) take() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	tasks := l.queue
	l.queue = nil
	return tasks
}

func (l *Loop) exec(task func()) {
	if l.recoverPanic {
		defer func() {
			if r := recover(); r != nil {
				l.logger.Error().
					Str(xglog.FieldEvent, "loop.task_panic").
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("loop task panicked")
			}
		}()
	}
	task()
}

// Now returns the wall clock time.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules fn to run on the loop after d.
// Stopping the returned timer on the loop guarantees fn will not run, even
// when the underlying timer already fired and the callback is queued.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped.Load() {
				return
			}
			t.fired.Store(true)
			fn()
		})
	})
	return t
}

type loopTimer struct {
	timer   *time.Timer
	stopped atomic.Bool
	fired   atomic.Bool
}

func (t *loopTimer) Stop() bool {
	if t.fired.Load() {
		return false
	}
	if t.stopped.Swap(true) {
		return false
	}
	t.timer.Stop()
	return true
}

var _ Scheduler = (*Loop)(nil)
