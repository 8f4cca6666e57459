// Package observability exposes the runtime's Prometheus collectors.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "chat_relay"

type Metrics struct {
	OnlineUsers        prometheus.Gauge
	MessagesPersisted  prometheus.Counter
	LiveDeliveries     *prometheus.CounterVec
	PresenceBroadcasts prometheus.Counter
	ChannelLength      *prometheus.GaugeVec
	ProcessRSS         prometheus.Gauge
	ProcessCPU         prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OnlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_users",
			Help:      "Number of users holding a live connection.",
		}),
		MessagesPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_persisted_total",
			Help:      "Messages accepted by the store.",
		}),
		LiveDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_deliveries_total",
			Help:      "Outcome of live delivery attempts.",
		}, []string{"result"}),
		PresenceBroadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "presence_broadcasts_total",
			Help:      "Presence snapshots pushed to connected clients.",
		}),
		ChannelLength: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "channel_length",
			Help:      "Buffered items waiting in internal channels.",
		}, []string{"channel"}),
		ProcessRSS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_rss_bytes",
			Help:      "Resident memory of the server process.",
		}),
		ProcessCPU: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_cpu_percent",
			Help:      "CPU usage of the server process.",
		}),
	}
	reg.MustRegister(
		m.OnlineUsers,
		m.MessagesPersisted,
		m.LiveDeliveries,
		m.PresenceBroadcasts,
		m.ChannelLength,
		m.ProcessRSS,
		m.ProcessCPU,
	)
	return m
}
