package runtime

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mwalimu-chat/contract"
	"mwalimu-chat/domain"
	"mwalimu-chat/domain/event"
	"mwalimu-chat/errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Hub is the single point every outbound event goes through.
//
// One sequencing lock covers stamping, appending and enqueueing, so each
// connection sees messages in publish order and a connection opened under
// the same lock gets a replay that is exactly the history before it.
// Enqueueing never blocks, connections that cannot keep up are disconnected
// once the lock is released.
type Hub struct {
	mu            sync.Mutex
	log           *slog.Logger
	registry      contract.IRegistry
	history       contract.IHistory
	limits        domain.Limits
	defaultAuthor string
	replayLimit   int
	now           func() time.Time
	seq           uint64
	lastAt        time.Time
}

// HubOption tunes a Hub at construction. Options are applied in order,
// after the defaults (DefaultAuthor, no limits, no replay cap, time.Now).
type HubOption func(*Hub)

// WithLimits bounds the length of bodies and authors, a zero field means unbounded.
func WithLimits(limits domain.Limits) HubOption {
	return func(h *Hub) { h.limits = limits }
}

// WithDefaultAuthor replaces the author given to posts that carry none.
// An empty author keeps the current default.
func WithDefaultAuthor(author string) HubOption {
	return func(h *Hub) {
		if author != "" {
			h.defaultAuthor = author
		}
	}
}

// WithReplayLimit caps the replay sent on open, 0 replays everything.
func WithReplayLimit(limit int) HubOption {
	return func(h *Hub) { h.replayLimit = limit }
}

// WithClock swaps the time source used to stamp messages.
// The hub still clamps its readings so timestamps never go backwards.
func WithClock(now func() time.Time) HubOption {
	return func(h *Hub) { h.now = now }
}

// NewHub builds a hub over a registry and a history it does not own.
// Both must be safe for concurrent use, the hub only serialises its own writes.
func NewHub(log *slog.Logger, registry contract.IRegistry, history contract.IHistory, opts ...HubOption) *Hub {
	h := &Hub{
		log:           log,
		registry:      registry,
		history:       history,
		defaultAuthor: domain.DefaultAuthor,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Publish validates, stamps, stores and broadcasts a message:
//  1. Normalises the author and validates the command outside the lock.
//  2. Under the sequencing lock, stamps the next Seq, a UUIDv7 and a clamped timestamp.
//  3. Appends to history, and only then commits the stamp and fans out.
//  4. Disconnects, after unlocking, every connection that refused the message.
//
// An invalid post returns ErrInvalidMessage and touches nothing. A failed
// append returns the wrapped error and nobody receives the message.
func (h *Hub) Publish(ctx context.Context, cmd domain.PostMessageCommand) (domain.Message, error) {
	cmd = cmd.Normalize(h.defaultAuthor)
	if err := cmd.Validate(h.limits); err != nil {
		return domain.Message{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}

	h.mu.Lock()
	message, err := h.stamp(cmd)
	if err != nil {
		h.mu.Unlock()
		return domain.Message{}, err
	}
	if err = h.history.Append(message); err != nil {
		h.mu.Unlock()
		return domain.Message{}, fmt.Errorf("append to history: %w", err)
	}
	h.commit(message)
	failed := h.fanout(ctx, event.MessagePublished{Message: message})
	h.mu.Unlock()

	h.log.Debug("Message published", "message_id", message.ID, "seq", message.Seq, "author", message.Author)
	h.disconnect(failed)
	return message, nil
}

// Admit registers a connection, announces the new count to everyone and
// replays the history privately to the newcomer. All three happen under the
// sequencing lock, so the replay holds exactly the messages published before
// the newcomer and every later one reaches it live.
//
// A history read failure is logged and replaced by an empty replay. A
// duplicate connection id returns ErrRegistryCorruption and changes nothing.
func (h *Hub) Admit(ctx context.Context, conn contract.Connection) (int, error) {
	h.mu.Lock()
	count, err := h.registry.Register(conn)
	if err != nil {
		h.mu.Unlock()
		return count, err
	}
	failed := h.fanout(ctx, event.ParticipantCount{Count: count})

	messages, err := h.history.Recent(h.replayLimit)
	if err != nil {
		h.log.Error("History replay unavailable, sending an empty replay",
			"connection_id", conn.ID(), "error", err)
		messages = nil
	}
	if err = conn.Deliver(context.WithoutCancel(ctx), event.History{Messages: messages}); err != nil {
		h.log.Warn("Replay delivery failed", "connection_id", conn.ID(), "error", err)
		failed = append(failed, conn)
	}
	h.mu.Unlock()

	h.disconnect(failed)
	return count, nil
}

// Leave deregisters a connection and announces the count to the remaining ones.
// Leaving twice is harmless: the second call finds nothing and broadcasts nothing.
func (h *Hub) Leave(ctx context.Context, conn contract.Connection) int {
	h.mu.Lock()
	count, err := h.registry.Deregister(conn)
	if err != nil {
		h.mu.Unlock()
		if stderrors.Is(err, errors.ErrUnknownConnection) {
			h.log.Debug("Connection already gone", "connection_id", conn.ID())
		}
		return count
	}
	failed := h.fanout(ctx, event.ParticipantCount{Count: count})
	h.mu.Unlock()

	h.disconnect(failed)
	return count
}

// Shutdown disconnects every live connection.
// Each one leaves through Leave, so the remaining ones hear the count go down.
func (h *Hub) Shutdown() {
	connections := h.registry.Snapshot()
	h.log.Info("Closing all connections", "count", len(connections))
	h.disconnect(connections)
}

// stamp assigns identity and a timestamp that never goes backwards.
// Must be called with mu held.
func (h *Hub) stamp(cmd domain.PostMessageCommand) (domain.Message, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Message{}, fmt.Errorf("message id: %w", err)
	}
	at := h.now().UTC()
	if at.Before(h.lastAt) {
		at = h.lastAt
	}
	return domain.Message{
		ID:        id,
		Seq:       h.seq + 1,
		Author:    cmd.Author,
		Body:      cmd.Body,
		CreatedAt: at,
	}, nil
}

// commit makes the stamp of an appended message the new floor.
func (h *Hub) commit(message domain.Message) {
	h.seq = message.Seq
	h.lastAt = message.CreatedAt
}

// fanout enqueues an event for every registered connection and returns the
// ones that refused it. Must be called with mu held.
func (h *Hub) fanout(ctx context.Context, e event.Event) []contract.Connection {
	// The publisher giving up must not look like a failure of the receivers.
	ctx = context.WithoutCancel(ctx)
	var failed []contract.Connection
	for _, conn := range h.registry.Snapshot() {
		if err := conn.Deliver(ctx, e); err != nil {
			h.log.Warn("Delivery failed, disconnecting",
				"connection_id", conn.ID(), "event", e.Kind(), "error", err)
			failed = append(failed, conn)
		}
	}
	return failed
}

// disconnect runs outside mu because Disconnect re-enters the hub through Leave.
func (h *Hub) disconnect(connections []contract.Connection) {
	for _, conn := range lo.Uniq(connections) {
		conn.Disconnect()
	}
}

// Stats is a point-in-time view, not synchronised with publishes.
func (h *Hub) Stats() domain.Stats {
	return domain.Stats{
		Participants: h.registry.Count(),
		Messages:     h.history.Len(),
	}
}
