package main

import (
	"context"
	"log/slog"
)

type httpShutdowner interface {
	Shutdown(ctx context.Context) error
}

type grpcStopper interface {
	GracefulStop()
	Stop()
}

type relayStopper interface {
	Stop()
}

// drain stops the listeners from accepting, then closes the delivery channels,
// ending the open Connect streams and sockets. gRPC is hard stopped when
// streams outlive ctx.
func drain(ctx context.Context, log *slog.Logger, servers []httpShutdowner, grpcServer grpcStopper, relay relayStopper) {
	// Hijacked sockets are not waited for, Shutdown only closes the listener
	for _, server := range servers {
		if err := server.Shutdown(ctx); err != nil {
			log.Warn("HTTP server shutdown incomplete", "error", err)
		}
	}

	// GracefulStop closes the gRPC listener right away, then waits for the streams
	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()

	relay.Stop()

	select {
	case <-done:
	case <-ctx.Done():
		log.Warn("gRPC streams outlived the shutdown timeout, forcing stop")
		grpcServer.Stop()
		<-done
	}
}
