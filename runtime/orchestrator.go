// Package runtime holds the live state of the relay: who is online, how to reach
// them, and the workers propagating runtime events.
// It owns no transport and no storage.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/observability"
	"chat-relay/runtime/workers"
	"chat-relay/sink"
	"context"
	"log/slog"
	"sync"
	"time"
)

type Config struct {
	BufferSize      int
	SinkTimeout     time.Duration
	DeliveryTimeout time.Duration
	MetricInterval  time.Duration
	MaxTextBytes    int
	MaxImageBytes   int
}

// Orchestrator is the service object assembling the registry, the broadcaster
// and the delivery coordinator around one supervisor.
// Start and Stop define the lifecycle, nothing here is a package level singleton.
type Orchestrator struct {
	mu             sync.Mutex
	log            *slog.Logger
	cfg            Config
	supervisor     contract.ISupervisor
	registry       *PresenceRegistry
	broadcaster    *PresenceBroadcaster
	coordinator    *DeliveryCoordinator
	domainEvents   chan event.DomainEvent
	permanentSinks []contract.EventSink
	metrics        *observability.Metrics
}

// NewOrchestrator wires the runtime. metrics may be nil, in which case no
// samplers are started.
func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	messages contract.IMessageRepository, directory contract.IUserDirectory,
	metrics *observability.Metrics, cfg Config) *Orchestrator {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	domainEvents := make(chan event.DomainEvent, cfg.BufferSize)
	registry := NewPresenceRegistry(log)
	return &Orchestrator{
		log:          log,
		cfg:          cfg,
		supervisor:   supervisor,
		registry:     registry,
		broadcaster:  NewPresenceBroadcaster(log, registry, domainEvents, cfg.SinkTimeout),
		coordinator:  NewDeliveryCoordinator(log, messages, directory, registry, domainEvents, cfg.DeliveryTimeout,
			domain.PayloadLimits{MaxTextBytes: cfg.MaxTextBytes, MaxImageBytes: cfg.MaxImageBytes}),
		domainEvents: domainEvents,
		metrics:      metrics,
	}
}

func (o *Orchestrator) Registry() *PresenceRegistry {
	return o.registry
}

func (o *Orchestrator) Coordinator() *DeliveryCoordinator {
	return o.coordinator
}

func (o *Orchestrator) Broadcaster() *PresenceBroadcaster {
	return o.broadcaster
}

// Add registers sinks receiving every runtime event. Call it before Start.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// Start registers the runtime workers and blocks while the supervisor runs them.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	sinks := append([]contract.EventSink(nil), o.permanentSinks...)
	if o.metrics != nil {
		sinks = append(sinks, sink.NewMetricsSink(o.metrics))
	}

	o.supervisor.Add(
		workers.NewEventFanout(o.log, o.domainEvents, o.cfg.SinkTimeout, sinks...),
		workers.NewPresenceBroadcastWorker(o.log, o.registry.Changed(), o.broadcaster),
	)
	if o.metrics != nil && o.cfg.MetricInterval > 0 {
		o.supervisor.Add(
			workers.NewChannelCapacityWorker(o.log, []workers.NamedChannel{
				{Name: "domain_events", Channel: o.domainEvents},
			}, o.metrics, o.cfg.MetricInterval),
			workers.NewProcessStatsWorker(o.log, o.metrics, o.cfg.MetricInterval),
		)
	}
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers", "sinks", len(sinks))
	o.supervisor.Run(ctx)
	return nil
}

// Stop cancels the workers and closes every live delivery channel.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
	o.registry.CloseAll()
	o.log.Debug("Orchestrator stopped", "online", o.registry.Len())
}
