package audit

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// AsyncSink hands events to a background worker so slow sinks (Kafka) never
// delay a registration response. Events are dropped when the inbox is full.
type AsyncSink struct {
	next    Sink
	inbox   chan Event
	logger  *slog.Logger
	dropped atomic.Int64
}

// NewAsyncSink buffers up to size events in front of next.
func NewAsyncSink(next Sink, size int, logger *slog.Logger) *AsyncSink {
	if size <= 0 {
		size = 256
	}
	return &AsyncSink{next: next, inbox: make(chan Event, size), logger: logger}
}

// Append enqueues without blocking.
func (a *AsyncSink) Append(ctx context.Context, e Event) error {
	select {
	case a.inbox <- e:
	default:
		a.dropped.Add(1)
		a.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"audit_id", e.ID,
			"action", string(e.Action),
		)
	}
	return nil
}

// Dropped reports how many events were discarded.
func (a *AsyncSink) Dropped() int64 {
	return a.dropped.Load()
}

// Run drains the inbox until ctx is cancelled, then forwards whatever is
// still queued before returning.
func (a *AsyncSink) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			a.drain()
			return nil
		case e := <-a.inbox:
			a.forward(ctx, e)
		}
	}
}

func (a *AsyncSink) drain() {
	for {
		select {
		case e := <-a.inbox:
			a.forward(context.Background(), e)
		default:
			return
		}
	}
}

func (a *AsyncSink) forward(ctx context.Context, e Event) {
	if err := a.next.Append(ctx, e); err != nil {
		a.logger.ErrorContext(ctx, "audit sink append failed",
			"audit_id", e.ID,
			"error", err.Error(),
		)
	}
}
