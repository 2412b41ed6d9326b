// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package bus is an in-process topic pub/sub used to hand playback events to
// observers that live outside the session loop.
package bus

import "context"

// Message is any payload carried on a topic.
type Message = any

// Bus publishes messages to topic subscribers.
type Bus interface {
	Publish(ctx context.Context, topic string, msg Message) error
	Subscribe(ctx context.Context, topic string) (Subscriber, error)
}

// Subscriber receives messages for one topic until closed.
type Subscriber interface {
	C() <-chan Message
	Close() error
}
