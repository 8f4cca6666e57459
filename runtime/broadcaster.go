package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"time"
)

// PresenceBroadcaster pushes the online set to every connected channel.
// It only reads the registry. A channel failing mid-broadcast is skipped.
type PresenceBroadcaster struct {
	log         *slog.Logger
	registry    contract.IRegistry
	events      chan<- event.DomainEvent
	sinkTimeout time.Duration
}

func NewPresenceBroadcaster(log *slog.Logger, registry contract.IRegistry,
	events chan<- event.DomainEvent, sinkTimeout time.Duration) *PresenceBroadcaster {
	return &PresenceBroadcaster{log: log, registry: registry, events: events, sinkTimeout: sinkTimeout}
}

// BroadcastPresence sends the current snapshot and returns how many channels accepted it.
func (b *PresenceBroadcaster) BroadcastPresence(ctx context.Context) int {
	evt := event.PresenceChanged{
		Online: b.registry.Snapshot(),
		At:     time.Now().UTC(),
	}

	delivered := 0
	for _, channel := range b.registry.Channels() {
		if err := b.push(ctx, channel, evt); err != nil {
			b.log.Debug("Presence not delivered to channel", "error", err)
			continue
		}
		delivered++
	}

	emit(b.log, b.events, evt)
	b.log.Debug("Presence broadcast", "online", len(evt.Online), "delivered", delivered)
	return delivered
}

func (b *PresenceBroadcaster) push(ctx context.Context, channel contract.DeliveryChannel, evt event.DomainEvent) error {
	if b.sinkTimeout <= 0 {
		return channel.Consume(ctx, evt)
	}
	pushCtx, cancel := context.WithTimeout(ctx, b.sinkTimeout)
	defer cancel()
	return channel.Consume(pushCtx, evt)
}

// emit hands an event to the permanent sinks. Losing one is acceptable.
func emit(log *slog.Logger, events chan<- event.DomainEvent, evt event.DomainEvent) {
	if events == nil {
		return
	}
	select {
	case events <- evt:
	default:
		log.Debug("Observability event lost", "event", evt.Name())
	}
}
