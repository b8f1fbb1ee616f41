package runtime

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"mwalimu-chat/contract"
	"mwalimu-chat/domain"
	"mwalimu-chat/domain/event"
	"mwalimu-chat/errors"
	"mwalimu-chat/sink"
)

var (
	_ contract.Connection = (*Session)(nil)
	_ contract.ISession   = (*Session)(nil)
)

// Session is the lifecycle of one physical connection: Connecting, Open, Closed.
// A transport owns one Session, drains Events and forwards posts.
type Session struct {
	id        domain.ConnectionID
	identity  domain.Identity
	hub       *Hub
	outbox    *sink.Outbox
	log       *slog.Logger
	state     atomic.Int32
	closeOnce sync.Once
}

func newSession(id domain.ConnectionID, identity domain.Identity, hub *Hub, bufferSize int, log *slog.Logger) *Session {
	s := &Session{
		id:       id,
		identity: identity,
		hub:      hub,
		outbox:   sink.NewOutbox(bufferSize),
		log:      log.With("connection_id", id),
	}
	s.state.Store(int32(domain.Connecting))
	return s
}

func (s *Session) ID() domain.ConnectionID { return s.id }

func (s *Session) Identity() domain.Identity { return s.identity }

func (s *Session) State() domain.State { return domain.State(s.state.Load()) }

// Events is what the transport writer drains. It is closed when the session closes.
func (s *Session) Events() <-chan event.Event { return s.outbox.Events() }

// Deliver is called by the hub while it holds its sequencing lock.
func (s *Session) Deliver(ctx context.Context, e event.Event) error {
	return s.outbox.Consume(ctx, e)
}

// Disconnect is the hub's way of dropping a connection that stopped keeping up.
func (s *Session) Disconnect() { s.Close() }

// open moves Connecting to Open. The state flips before registration so that a
// delivery failure during admission already takes the regular close path.
func (s *Session) open(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(domain.Connecting), int32(domain.Open)) {
		return errors.ErrConnectionClosed
	}
	count, err := s.hub.Admit(ctx, s)
	if err != nil {
		if stderrors.Is(err, errors.ErrRegistryCorruption) {
			s.log.Error("Duplicate connection identifier, closing the newcomer", "error", err)
		}
		s.Close()
		return err
	}
	if s.State() != domain.Open {
		return errors.ErrConnectionClosed
	}
	s.log.Info("Connection open", "user_id", s.identity.UserID, "participants", count)
	return nil
}

// Join is accepted for clients that ask for the stream explicitly.
// The replay already happened when the session opened, so it is a no-op.
func (s *Session) Join() error {
	if s.State() != domain.Open {
		return errors.ErrConnectionClosed
	}
	s.log.Debug("Join requested on an open connection, nothing to replay")
	return nil
}

// Post forwards a message to the hub. A rejection is reported to this
// connection only and leaves it open.
func (s *Session) Post(ctx context.Context, cmd domain.PostMessageCommand) (domain.Message, error) {
	if s.State() != domain.Open {
		return domain.Message{}, errors.ErrConnectionClosed
	}
	message, err := s.hub.Publish(ctx, cmd)
	if stderrors.Is(err, errors.ErrInvalidMessage) {
		s.log.Debug("Post rejected", "error", err)
		if deliverErr := s.Deliver(context.WithoutCancel(ctx), event.Rejected{Reason: err.Error()}); deliverErr != nil {
			s.log.Warn("Rejection delivery failed, disconnecting", "error", deliverErr)
			s.Close()
		}
	}
	return message, err
}

// Close is safe to call from every detection path, only the first one
// deregisters and triggers a count broadcast.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		previous := domain.State(s.state.Swap(int32(domain.Closed)))
		if previous == domain.Open {
			count := s.hub.Leave(context.Background(), s)
			s.log.Info("Connection closed", "participants", count)
		}
		s.outbox.Close()
	})
}
