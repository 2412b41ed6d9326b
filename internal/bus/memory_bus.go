// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ManuGH/playresilience/internal/log"
	"github.com/ManuGH/playresilience/internal/metrics"
)

// MemoryBus is an in-memory pub/sub. It is not durable and provides
// in-process delivery while publish contexts remain active.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string][]*memSub
	buffer int
}

const (
	dropLogEvery     = 100
	defaultSubBuffer = 64
)

var dropCount atomic.Uint64

// NewMemoryBus returns a bus whose subscriptions buffer 64 messages.
func NewMemoryBus() *MemoryBus {
	return NewMemoryBusWithBuffer(defaultSubBuffer)
}

// NewMemoryBusWithBuffer returns a bus with the given per-subscriber buffer.
func NewMemoryBusWithBuffer(buffer int) *MemoryBus {
	if buffer <= 0 {
		buffer = defaultSubBuffer
	}
	return &MemoryBus{subs: make(map[string][]*memSub), buffer: buffer}
}

func publishDropReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "context_done"
	}
}

// Publish delivers msg to every subscriber of topic, blocking on full
// subscribers until ctx is done. A subscriber with room always receives msg,
// even when ctx is already done, so a cancelled ctx gives try-send semantics.
func (b *MemoryBus) Publish(ctx context.Context, topic string, msg Message) error {
	if ctx == nil {
		return fmt.Errorf("publish context is nil")
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs[topic] {
		select {
		case s.ch <- msg:
			continue
		default:
		}
		select {
		case s.ch <- msg:
		case <-ctx.Done():
			reason := publishDropReason(ctx.Err())
			metrics.IncBusDropReason(topic, reason)
			count := dropCount.Add(1)
			if count%dropLogEvery == 1 {
				log.L().Warn().
					Str("topic", topic).
					Str("reason", reason).
					Uint64("dropped", count).
					Msg("memory bus failed to publish due to context cancellation")
			}
			return fmt.Errorf("publish topic %q: %w", topic, ctx.Err())
		}
	}
	metrics.IncBusPublished(topic)
	return nil
}

// Subscribe registers a new subscriber on topic.
func (b *MemoryBus) Subscribe(_ context.Context, topic string) (Subscriber, error) {
	s := &memSub{b: b, topic: topic, ch: make(chan Message, b.buffer)}

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], s)
	b.mu.Unlock()

	return s, nil
}

type memSub struct {
	b      *MemoryBus
	topic  string
	ch     chan Message
	closed bool
}

func (s *memSub) C() <-chan Message {
	return s.ch
}

// Close unsubscribes and closes the channel. Publish holds the read lock
// while sending, so the channel is never closed under a sender.
func (s *memSub) Close() error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	lst := s.b.subs[s.topic]
	out := lst[:0]
	for _, c := range lst {
		if c != s {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		delete(s.b.subs, s.topic)
	} else {
		s.b.subs[s.topic] = out
	}
	close(s.ch)
	return nil
}

var _ Bus = (*MemoryBus)(nil)
