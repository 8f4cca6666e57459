package sink

import (
	"chat-relay/domain/event"
	"chat-relay/observability"
	"context"
)

// MetricsSink turns runtime events into Prometheus samples.
type MetricsSink struct {
	metrics *observability.Metrics
}

func NewMetricsSink(metrics *observability.Metrics) MetricsSink {
	return MetricsSink{metrics: metrics}
}

func (s MetricsSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.PresenceChanged:
		s.metrics.OnlineUsers.Set(float64(len(evt.Online)))
		s.metrics.PresenceBroadcasts.Inc()
	case event.MessagePersisted:
		s.metrics.MessagesPersisted.Inc()
	case event.DeliveryAttempt:
		s.metrics.LiveDeliveries.WithLabelValues(string(evt.Result)).Inc()
	}
	return nil
}
