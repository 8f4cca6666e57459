package runtime

import (
	"chat-relay/contract"
	"log/slog"
	"sort"
	"sync"
)

// PresenceRegistry maps an online user to its single live delivery channel.
// Mutations are serialized by mu; lookups only take the read lock and never do I/O.
// Every effective mutation schedules a presence broadcast on changed without blocking:
// the signal is coalesced, the broadcast reads the snapshot of its own time.
type PresenceRegistry struct {
	mu       sync.RWMutex
	log      *slog.Logger
	sessions map[string]contract.DeliveryChannel // map user -> channel
	changed  chan struct{}
}

func NewPresenceRegistry(log *slog.Logger) *PresenceRegistry {
	return &PresenceRegistry{
		log:      log,
		sessions: make(map[string]contract.DeliveryChannel),
		changed:  make(chan struct{}, 1),
	}
}

// Changed is signalled after each registration or removal.
func (r *PresenceRegistry) Changed() <-chan struct{} {
	return r.changed
}

// Register associates userID with channel. A previous channel of the same user
// is evicted and closed: last register wins.
func (r *PresenceRegistry) Register(userID string, channel contract.DeliveryChannel) {
	if userID == "" || channel == nil {
		r.log.Error("Refusing invalid presence registration", "user_id", userID, "has_channel", channel != nil)
		return
	}

	r.mu.Lock()
	previous, existed := r.sessions[userID]
	r.sessions[userID] = channel
	r.mu.Unlock()

	if existed && previous != channel {
		r.log.Info("Superseding previous connection", "user_id", userID)
		previous.Close()
	}
	r.schedule()
}

// Deregister removes whatever channel userID holds. No-op when absent.
func (r *PresenceRegistry) Deregister(userID string) {
	r.mu.Lock()
	_, existed := r.sessions[userID]
	delete(r.sessions, userID)
	r.mu.Unlock()

	if existed {
		r.schedule()
	}
}

// DeregisterChannel removes userID only while it still maps to channel.
// A superseded session calling it on disconnect leaves its successor in place.
func (r *PresenceRegistry) DeregisterChannel(userID string, channel contract.DeliveryChannel) bool {
	r.mu.Lock()
	current, ok := r.sessions[userID]
	removed := ok && current == channel
	if removed {
		delete(r.sessions, userID)
	}
	r.mu.Unlock()

	if removed {
		r.schedule()
	}
	return removed
}

func (r *PresenceRegistry) Lookup(userID string) (contract.DeliveryChannel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	channel, ok := r.sessions[userID]
	return channel, ok
}

// Snapshot returns the sorted set of online users at a single point in time.
func (r *PresenceRegistry) Snapshot() []string {
	r.mu.RLock()
	online := make([]string, 0, len(r.sessions))
	for userID := range r.sessions {
		online = append(online, userID)
	}
	r.mu.RUnlock()

	sort.Strings(online)
	return online
}

func (r *PresenceRegistry) Channels() []contract.DeliveryChannel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	channels := make([]contract.DeliveryChannel, 0, len(r.sessions))
	for _, channel := range r.sessions {
		channels = append(channels, channel)
	}
	return channels
}

// Len returns the number of online users.
func (r *PresenceRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll empties the registry and closes every channel. Used on shutdown.
func (r *PresenceRegistry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]contract.DeliveryChannel)
	r.mu.Unlock()

	for _, channel := range sessions {
		channel.Close()
	}
}

func (r *PresenceRegistry) schedule() {
	select {
	case r.changed <- struct{}{}:
	default:
		// A broadcast is already pending and will read the latest snapshot.
	}
}
