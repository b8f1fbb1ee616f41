package sink

import (
	"context"
	"fmt"
	"sync"

	"mwalimu-chat/domain/event"
	"mwalimu-chat/errors"
)

// Outbox is the bounded queue between the hub and one connection's writer.
// Consume never blocks: a full or closed outbox is a transport failure and
// the hub disconnects the owner instead of waiting for it.
type Outbox struct {
	mu     sync.RWMutex
	closed bool
	events chan event.Event
}

// NewOutbox creates an outbox holding at most bufferSize events.
// A size below one is raised to one so a fresh connection can take its replay.
func NewOutbox(bufferSize int) *Outbox {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Outbox{events: make(chan event.Event, bufferSize)}
}

// Consume is called by the hub while it fans out.
// The read lock keeps Close from closing the channel under a pending send.
func (o *Outbox) Consume(ctx context.Context, e event.Event) error {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.closed {
		return fmt.Errorf("%w: outbox closed", errors.ErrTransportFailure)
	}
	select {
	case o.events <- e:
		return nil
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%w: outbox full (%d pending)", errors.ErrTransportFailure, len(o.events))
}

// Events is drained by the transport writer. It is closed by Close.
func (o *Outbox) Events() <-chan event.Event {
	return o.events
}

// Close closes the channel once. Later Consume calls fail with
// ErrTransportFailure, and the writer drains what is left then stops.
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	close(o.events)
}

// Pending is the number of queued events the writer has not taken yet.
// It is only a snapshot, the hub may enqueue more right after.
func (o *Outbox) Pending() int {
	return len(o.events)
}
