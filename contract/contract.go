//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"mwalimu-chat/domain"
	"mwalimu-chat/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself, the supervisor restarts it.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Connection is one live client link as seen by the registry and the hub.
// Deliver must never block: a connection that cannot keep up returns an error.
// Disconnect is idempotent and must not be called while the hub is fanning out.
type Connection interface {
	ID() domain.ConnectionID
	Deliver(ctx context.Context, e event.Event) error
	Disconnect()
}

// IRegistry is the set of live connections, in registration order.
// Register and Deregister return the participant count after the change.
type IRegistry interface {
	Register(conn Connection) (int, error)
	Deregister(conn Connection) (int, error)
	Snapshot() []Connection
	Count() int
}

// IHistory is the ordered buffer of accepted messages.
// Recent returns oldest first, capped to the limit most recent when limit > 0.
type IHistory interface {
	Append(message domain.Message) error
	Recent(limit int) ([]domain.Message, error)
	Len() int
}

// Authorizer turns a bearer token into an identity, or ErrUnauthorized.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (domain.Identity, error)
}

// ISession is the transport-facing side of a connection lifecycle.
type ISession interface {
	ID() domain.ConnectionID
	State() domain.State
	Join() error
	Post(ctx context.Context, cmd domain.PostMessageCommand) (domain.Message, error)
	Events() <-chan event.Event
	Close()
}

// IOrchestrator is what the transports see of the runtime.
type IOrchestrator interface {
	Connect(ctx context.Context, identity domain.Identity) (ISession, error)
	Stats() domain.Stats
}
