package runtime

import (
	"context"
	"sync"
	"testing"

	"mwalimu-chat/domain"
	"mwalimu-chat/domain/event"
	"mwalimu-chat/errors"

	"github.com/stretchr/testify/require"
)

type stubConnection struct {
	id domain.ConnectionID
}

func (c *stubConnection) ID() domain.ConnectionID { return c.id }

func (c *stubConnection) Deliver(context.Context, event.Event) error { return nil }

func (c *stubConnection) Disconnect() {}

func TestRegistry_Register_Returns_Count(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given no connection is registered
	req.Zero(registry.Count())

	// When two connections register
	count1, err := registry.Register(&stubConnection{id: "a"})
	req.NoError(err)
	count2, err := registry.Register(&stubConnection{id: "b"})
	req.NoError(err)

	// Then the count follows the set size
	req.Equal(1, count1)
	req.Equal(2, count2)
	req.Equal(2, registry.Count())
}

func TestRegistry_Register_Duplicate_Is_Corruption(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first := &stubConnection{id: "a"}
	_, err := registry.Register(first)
	req.NoError(err)

	// When another connection claims the same identifier
	count, err := registry.Register(&stubConnection{id: "a"})

	// Then it is refused and the first one stays registered
	req.ErrorIs(err, errors.ErrRegistryCorruption)
	req.Equal(1, count)
	req.Equal(first, registry.Snapshot()[0])
}

func TestRegistry_Deregister_Absent_Is_Benign(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	conn := &stubConnection{id: "a"}
	_, err := registry.Register(conn)
	req.NoError(err)

	// When the same connection is deregistered twice
	count, err := registry.Deregister(conn)
	req.NoError(err)
	req.Zero(count)
	count, err = registry.Deregister(conn)

	// Then the second call only reports an unknown connection
	req.ErrorIs(err, errors.ErrUnknownConnection)
	req.Zero(count)
}

func TestRegistry_Deregister_Other_Connection_With_Same_ID(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	live := &stubConnection{id: "a"}
	_, err := registry.Register(live)
	req.NoError(err)

	// When an impostor with the same identifier leaves
	_, err = registry.Deregister(&stubConnection{id: "a"})

	// Then the live connection is untouched
	req.ErrorIs(err, errors.ErrUnknownConnection)
	req.Equal(1, registry.Count())
}

func TestRegistry_Snapshot_Keeps_Registration_Order(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	a, b, c := &stubConnection{id: "a"}, &stubConnection{id: "b"}, &stubConnection{id: "c"}
	for _, conn := range []*stubConnection{a, b, c} {
		_, err := registry.Register(conn)
		req.NoError(err)
	}

	// Given a snapshot taken before b leaves
	before := registry.Snapshot()
	_, err := registry.Deregister(b)
	req.NoError(err)

	// Then the old snapshot is unchanged and the new one skips b
	req.Len(before, 3)
	after := registry.Snapshot()
	req.Len(after, 2)
	req.Equal(domain.ConnectionID("a"), after[0].ID())
	req.Equal(domain.ConnectionID("c"), after[1].ID())
}

func TestRegistry_Concurrent_Register_Deregister(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := &stubConnection{id: domain.NewConnectionID()}
			_, _ = registry.Register(conn)
			_ = registry.Snapshot()
			if i%2 == 0 {
				_, _ = registry.Deregister(conn)
			}
		}(i)
	}
	wg.Wait()

	// Then half of them remain and the count matches the snapshot
	req.Equal(50, registry.Count())
	req.Len(registry.Snapshot(), 50)
}
