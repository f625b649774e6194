package mq

import (
	"context"
	"log/slog"
)

// LocalBroker delivers events inside the process. It is used when Redis is
// unavailable and in tests.
type LocalBroker struct {
	handlers
	queue chan Event
	log   *slog.Logger
}

// NewLocalBroker creates a broker buffering up to size undelivered events
func NewLocalBroker(size int, log *slog.Logger) *LocalBroker {
	return &LocalBroker{queue: make(chan Event, size), log: log}
}

// Publish queues the event. When the buffer is full the event is dropped
// rather than blocking the caller.
func (b *LocalBroker) Publish(ctx context.Context, e Event) error {
	select {
	case b.queue <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		b.log.Warn("event queue full, dropping event", "type", e.Type, "id", e.ID)
		return nil
	}
}

func (b *LocalBroker) Subscribe(h Handler) {
	b.add(h)
}

func (b *LocalBroker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-b.queue:
			b.dispatch(e)
		}
	}
}
