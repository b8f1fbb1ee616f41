package runtime

import (
	"fmt"
	"sync"

	"mwalimu-chat/contract"
	"mwalimu-chat/domain"
	"mwalimu-chat/errors"

	"github.com/samber/lo"
)

var _ contract.IRegistry = (*Registry)(nil)

// Registry is the authoritative set of live connections.
// The participant count is always len(connections).
type Registry struct {
	mu          sync.RWMutex
	connections map[domain.ConnectionID]contract.Connection
	order       []domain.ConnectionID // registration order, used for fan-out
}

func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[domain.ConnectionID]contract.Connection),
	}
}

// Register adds a connection and returns the new count.
// A second registration of a live identifier is a bug in whoever assigned it.
func (r *Registry) Register(conn contract.Connection) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := conn.ID()
	if _, exists := r.connections[id]; exists {
		return len(r.connections), fmt.Errorf("%w: connection %s already registered", errors.ErrRegistryCorruption, id)
	}
	r.connections[id] = conn
	r.order = append(r.order, id)
	return len(r.connections), nil
}

// Deregister removes the connection if it is the one registered under its identifier.
// Removing an absent connection is a benign race reported as ErrUnknownConnection.
func (r *Registry) Deregister(conn contract.Connection) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := conn.ID()
	registered, exists := r.connections[id]
	if !exists || registered != conn {
		return len(r.connections), fmt.Errorf("%w: %s", errors.ErrUnknownConnection, id)
	}
	delete(r.connections, id)
	for i, candidate := range r.order {
		if candidate == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return len(r.connections), nil
}

// Snapshot copies the live connections in registration order.
func (r *Registry) Snapshot() []contract.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Map(r.order, func(id domain.ConnectionID, _ int) contract.Connection {
		return r.connections[id]
	})
}

// Count is the number of registered connections, i.e. the participant count.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}
