package workers

import (
	"context"
	"log/slog"
)

type broadcaster interface {
	BroadcastPresence(ctx context.Context) int
}

// PresenceBroadcastWorker runs a broadcast each time the registry signals a change.
// Signals are coalesced by the registry, so a burst of connects yields few broadcasts,
// each carrying the snapshot of its own time.
type PresenceBroadcastWorker struct {
	log         *slog.Logger
	changed     <-chan struct{}
	broadcaster broadcaster
}

func NewPresenceBroadcastWorker(log *slog.Logger, changed <-chan struct{}, broadcaster broadcaster) *PresenceBroadcastWorker {
	return &PresenceBroadcastWorker{log: log, changed: changed, broadcaster: broadcaster}
}

func (w *PresenceBroadcastWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping presence broadcasts")
			return nil
		case <-w.changed:
			w.broadcaster.BroadcastPresence(ctx)
		}
	}
}
