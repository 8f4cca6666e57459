package runtime

import (
	"chat-relay/sink"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newChannel() *sink.ConnectionSink {
	return sink.NewConnectionSink(slog.Default(), 8)
}

func drainSignal(registry *PresenceRegistry) bool {
	select {
	case <-registry.Changed():
		return true
	default:
		return false
	}
}

func TestRegistry_Register_And_Lookup(t *testing.T) {
	req := require.New(t)
	registry := NewPresenceRegistry(slog.Default())
	channel := newChannel()

	// Given nobody is online
	_, ok := registry.Lookup("alice")
	req.False(ok)
	req.Empty(registry.Snapshot())

	// When alice registers
	registry.Register("alice", channel)

	// Then she can be reached and a broadcast is scheduled
	found, ok := registry.Lookup("alice")
	req.True(ok)
	req.Same(channel, found)
	req.Equal([]string{"alice"}, registry.Snapshot())
	req.True(drainSignal(registry))
}

func TestRegistry_Reconnect_Supersedes_Previous_Channel(t *testing.T) {
	req := require.New(t)
	registry := NewPresenceRegistry(slog.Default())
	first, second := newChannel(), newChannel()

	// Given alice is connected
	registry.Register("alice", first)

	// When she connects again
	registry.Register("alice", second)

	// Then only the new channel remains and the old one is closed
	req.Equal(1, registry.Len())
	found, _ := registry.Lookup("alice")
	req.Same(second, found)
	req.Len(registry.Channels(), 1)
	<-first.Done()
	select {
	case <-second.Done():
		req.Fail("new channel must stay open")
	default:
	}
}

func TestRegistry_Superseded_Session_Does_Not_Evict_Successor(t *testing.T) {
	req := require.New(t)
	registry := NewPresenceRegistry(slog.Default())
	first, second := newChannel(), newChannel()
	registry.Register("alice", first)
	registry.Register("alice", second)
	drainSignal(registry)

	// When the superseded session disconnects
	removed := registry.DeregisterChannel("alice", first)

	// Then alice is still online through the new channel
	req.False(removed)
	req.Equal([]string{"alice"}, registry.Snapshot())
	req.False(drainSignal(registry))

	// And the current session can remove itself
	req.True(registry.DeregisterChannel("alice", second))
	req.Empty(registry.Snapshot())
	req.True(drainSignal(registry))
}

func TestRegistry_Deregister_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewPresenceRegistry(slog.Default())
	registry.Register("alice", newChannel())
	registry.Register("bob", newChannel())
	drainSignal(registry)

	registry.Deregister("alice")
	req.True(drainSignal(registry))
	registry.Deregister("alice")
	req.False(drainSignal(registry))
	registry.Deregister("nobody")

	req.Equal([]string{"bob"}, registry.Snapshot())
}

func TestRegistry_Signals_Are_Coalesced(t *testing.T) {
	req := require.New(t)
	registry := NewPresenceRegistry(slog.Default())

	for i := 0; i < 10; i++ {
		registry.Register(fmt.Sprintf("user-%d", i), newChannel())
	}

	req.True(drainSignal(registry))
	req.False(drainSignal(registry))
	req.Len(registry.Snapshot(), 10)
}

func TestRegistry_Rejects_Invalid_Registration(t *testing.T) {
	req := require.New(t)
	registry := NewPresenceRegistry(slog.Default())

	registry.Register("", newChannel())
	registry.Register("alice", nil)

	req.Zero(registry.Len())
	req.False(drainSignal(registry))
}

func TestRegistry_At_Most_One_Entry_Per_User_Under_Concurrency(t *testing.T) {
	req := require.New(t)
	registry := NewPresenceRegistry(slog.Default())
	users := []string{"alice", "bob", "carol"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := users[i%len(users)]
			channel := newChannel()
			registry.Register(userID, channel)
			_ = registry.Snapshot()
			if i%4 == 0 {
				registry.DeregisterChannel(userID, channel)
			}
		}(i)
	}
	wg.Wait()

	snapshot := registry.Snapshot()
	req.LessOrEqual(len(snapshot), len(users))
	req.Len(registry.Channels(), len(snapshot))
	seen := make(map[string]bool)
	for _, userID := range snapshot {
		req.False(seen[userID], "duplicate presence entry for %s", userID)
		seen[userID] = true
	}
}

func TestRegistry_CloseAll(t *testing.T) {
	req := require.New(t)
	registry := NewPresenceRegistry(slog.Default())
	alice, bob := newChannel(), newChannel()
	registry.Register("alice", alice)
	registry.Register("bob", bob)

	registry.CloseAll()

	req.Zero(registry.Len())
	<-alice.Done()
	<-bob.Done()
}
