package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingBroadcaster struct {
	calls chan struct{}
}

func (c countingBroadcaster) BroadcastPresence(_ context.Context) int {
	c.calls <- struct{}{}
	return 0
}

func TestPresenceBroadcastWorker_Broadcasts_On_Change(t *testing.T) {
	req := require.New(t)
	changed := make(chan struct{}, 1)
	b := countingBroadcaster{calls: make(chan struct{}, 1)}
	w := NewPresenceBroadcastWorker(slog.Default(), changed, b)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// When the registry signals a change
	changed <- struct{}{}

	// Then a broadcast happens
	select {
	case <-b.calls:
	case <-time.After(time.Second):
		req.Fail("no broadcast after presence change")
	}

	cancel()
	req.NoError(<-done)
}
