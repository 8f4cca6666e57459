package sink

import (
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"log/slog"
	"sync"
)

// ConnectionSink is the outbound buffer of one live connection.
// Producers never wait on it: a full buffer rejects the event so that one slow
// client cannot stall deliveries to everybody else.
// The transport handler drains Events and stops when Done is closed.
type ConnectionSink struct {
	log       *slog.Logger
	events    chan event.DomainEvent
	done      chan struct{}
	closeOnce sync.Once
}

func NewConnectionSink(log *slog.Logger, bufferSize int) *ConnectionSink {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &ConnectionSink{
		log:    log,
		events: make(chan event.DomainEvent, bufferSize),
		done:   make(chan struct{}),
	}
}

// Consume is called by the coordinator and the broadcaster.
// The transport handler takes it from there.
func (s *ConnectionSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case <-s.done:
		return errors.ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case s.events <- e:
		return nil
	default:
		s.log.Debug("Connection buffer full, dropping event", "event", e.Name())
		return errors.ErrChannelFull
	}
}

func (s *ConnectionSink) Events() <-chan event.DomainEvent {
	return s.events
}

// Close marks the channel as superseded or disconnected. Safe to call more than once.
// The events channel is left open so a concurrent Consume never panics.
func (s *ConnectionSink) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *ConnectionSink) Done() <-chan struct{} {
	return s.done
}

// Len reports how many events wait in the buffer.
func (s *ConnectionSink) Len() int {
	return len(s.events)
}
