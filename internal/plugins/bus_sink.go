// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package plugins

import (
	"context"
	"time"

	"github.com/ManuGH/playresilience/internal/bus"
	xglog "github.com/ManuGH/playresilience/internal/log"
	"github.com/rs/zerolog"
)

// Topic is the bus topic plugin events are published on.
const Topic = "plugins"

// BusSink publishes events on a bus so observers outside the loop can consume them.
//
// Emit runs on the session loop. With the zero PublishTimeout it never waits:
// a subscriber without buffer room misses the event. A positive PublishTimeout
// lets Emit wait that long per full subscriber, and the wait stalls the loop.
type BusSink struct {
	Bus            bus.Bus
	PublishTimeout time.Duration
	logger         zerolog.Logger
}

// NewBusSink returns a non-blocking sink publishing on b.
func NewBusSink(b bus.Bus) *BusSink {
	return &BusSink{
		Bus:    b,
		logger: xglog.WithComponent("plugins"),
	}
}

// Emit publishes ev on Topic.
func (s *BusSink) Emit(ev Event) {
	ctx, cancel := s.publishContext()
	defer cancel()
	if err := s.Bus.Publish(ctx, Topic, ev); err != nil {
		s.logger.Debug().Err(err).Str("kind", string(ev.Kind)).Msg("plugin event dropped")
	}
}

func (s *BusSink) publishContext() (context.Context, context.CancelFunc) {
	if s.PublishTimeout > 0 {
		return context.WithTimeout(context.Background(), s.PublishTimeout)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx, cancel
}
