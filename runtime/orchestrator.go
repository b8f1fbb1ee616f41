// Package runtime owns the live state of the chat: who is connected, what was
// said, and the order in which everybody hears it.
package runtime

import (
	"context"
	"log/slog"
	"sync"

	"mwalimu-chat/contract"
	"mwalimu-chat/domain"
	"mwalimu-chat/errors"
)

var _ contract.IOrchestrator = (*Orchestrator)(nil)

// Orchestrator wires the registry, the history and the hub together and
// hands out one Session per accepted connection.
type Orchestrator struct {
	mu                   sync.Mutex
	log                  *slog.Logger
	supervisor           contract.ISupervisor
	registry             *Registry
	history              contract.IHistory
	hub                  *Hub
	connectionBufferSize int
	workers              []contract.Worker
	stopped              bool
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	history contract.IHistory, connectionBufferSize int, opts ...HubOption) *Orchestrator {
	registry := NewRegistry()
	return &Orchestrator{
		log:                  log,
		supervisor:           supervisor,
		registry:             registry,
		history:              history,
		hub:                  NewHub(log, registry, history, opts...),
		connectionBufferSize: connectionBufferSize,
	}
}

// Add queues background workers, they start with Start.
func (o *Orchestrator) Add(workers ...contract.Worker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.workers = append(o.workers, workers...)
}

// Start runs the supervised workers. It blocks until ctx is canceled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	o.supervisor.Add(o.workers...)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator", "workers", len(o.workers))
	o.supervisor.Run(ctx)
	return nil
}

// Connect accepts a new physical connection and opens its session.
// The returned session has already received the participant count and its replay.
//
// mu is held until the session is admitted, so Stop either refuses the
// connection or finds it in the registry and closes it. A session never
// takes mu, which keeps the hub's disconnect path free of this lock.
func (o *Orchestrator) Connect(ctx context.Context, identity domain.Identity) (contract.ISession, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return nil, errors.ErrConnectionClosed
	}
	session, err := o.connect(ctx, domain.NewConnectionID(), identity)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (o *Orchestrator) connect(ctx context.Context, id domain.ConnectionID, identity domain.Identity) (*Session, error) {
	session := newSession(id, identity, o.hub, o.connectionBufferSize, o.log)
	if err := session.open(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

// Stats reports the participant and message counts, for /healthz and telemetry.
func (o *Orchestrator) Stats() domain.Stats {
	return o.hub.Stats()
}

// Stop closes every connection then stops the workers.
// Connections opened after it refuse with ErrConnectionClosed.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	o.mu.Unlock()

	o.log.Info("Requesting orchestrator shutdown")
	o.hub.Shutdown()
	o.supervisor.Stop()
}
