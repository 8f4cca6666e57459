package main

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/infrastructure/cache"
	"chat-relay/infrastructure/grpc/rpc"
	"chat-relay/infrastructure/grpc/server"
	"chat-relay/infrastructure/storage"
	"chat-relay/infrastructure/websocket"
	"chat-relay/internal"
	"chat-relay/observability"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"

	grpc3 "github.com/mama165/sdk-go/grpc"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal or a listener failure.
// Deferred cleanups run before main exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(ctx, config, logger))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Stores, identity and metrics
	messageRepository := storage.NewMessageRepository(db, logger)
	userRepository := storage.NewUserRepository(db, logger)
	tokens := auth.NewTokenManager(config.JWTSecret, config.JWTIssuer, config.AuthTokenDuration)
	resolver := services.NewIdentityResolver(userRepository, tokens)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetrics(registry)

	// 4. Supervision & Orchestration
	sup := workers.NewSupervisor(logger, config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(logger, sup, messageRepository, resolver, metrics, runtime.Config{
		BufferSize:      config.BufferSize,
		SinkTimeout:     config.SinkTimeout,
		DeliveryTimeout: config.DeliveryTimeout,
		MetricInterval:  config.MetricInterval,
		MaxTextBytes:    config.MaxTextBytes,
		MaxImageBytes:   config.MaxImageBytes,
	})

	if config.RedisURL != "" {
		mirror, closeMirror, err := presenceMirror(ctx, logger, config.RedisURL)
		if err != nil {
			return exitRuntime, err
		}
		defer closeMirror()
		orchestrator.Add(mirror)
	}

	errChan := make(chan error, 4)

	go func() {
		if err := orchestrator.Start(ctx); err != nil {
			errChan <- fmt.Errorf("orchestrator error: %w", err)
		}
	}()

	chatService := services.NewChatService(logger, orchestrator)
	authService := services.NewAuthService(logger, userRepository, tokens)

	// 5. gRPC Server Setup
	listener, err := net.Listen("tcp", config.GRPCAddress())
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", config.GRPCAddress(), err)
	}
	s := grpc.NewServer(append(rpc.ServerOptions(config.GRPCMaxMessageBytes),
		grpc.ChainUnaryInterceptor(
			grpc3.UnaryLoggingInterceptor(logger),
			server.AuthInterceptor(logger, resolver),
		),
		grpc.ChainStreamInterceptor(server.StreamAuthInterceptor(logger, resolver)),
	)...)
	rpc.RegisterChatServiceServer(s, server.NewChatServer(logger, chatService,
		config.ConnectionBufferSize, config.GRPCMaxMessageBytes))
	rpc.RegisterAuthServiceServer(s, server.NewAuthServer(authService))

	go func() {
		logger.Info("Starting gRPC server", "address", config.GRPCAddress(), "at", time.Now().UTC())
		for serviceName := range s.GetServiceInfo() {
			logger.Debug("gRPC exposed service", "name", serviceName)
		}
		if err := s.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 6. HTTP Server Setup (WebSocket, metrics, health)
	deps := internal.RouterDeps{
		Log: logger,
		WebSocket: websocket.NewHandler(logger, resolver, chatService, websocket.Config{
			BufferSize: config.ConnectionBufferSize,
			RateLimit:  config.WSRateLimit,
			RateBurst:  config.WSRateBurst,
			ReadLimit:  config.WSReadLimit,
			PongWait:   config.WSPongWait,
		}),
		Gatherer: registry,
		Online:   chatService.OnlineUsers,
	}
	httpServer := &http.Server{
		Addr:              config.HTTPAddress(),
		Handler:           internal.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Starting HTTP server", "address", config.HTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// The inspector dumps raw records, it only listens on loopback
	servers := []httpShutdowner{httpServer}
	if config.DebugAddr != "" && logger.Enabled(ctx, slog.LevelDebug) {
		debugServer := &http.Server{
			Addr:              config.DebugAddr,
			Handler:           internal.NewDebugRouter(logger, db),
			ReadHeaderTimeout: 10 * time.Second,
		}
		servers = append(servers, debugServer)
		go func() {
			logger.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://%s/inspect", config.DebugAddr))
			if err := debugServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("debug server error: %w", err)
			}
		}()
	}

	// 7. Wait for Stop or Error
	code := exitOK
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errChan:
		code = exitRuntime
	}

	// 8. Final Cleanup (Graceful Shutdown)
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	drain(shutdownCtx, logger, servers, s, orchestrator)
	logger.Info("Program stopped cleanly")

	return code, runErr
}

func buildBadgerOpts(ctx context.Context, config internal.Config, logger *slog.Logger) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if logger.Enabled(ctx, slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG)
	}
	return options.WithLoggingLevel(badger.WARNING)
}

func presenceMirror(ctx context.Context, logger *slog.Logger, redisURL string) (contract.EventSink, func(), error) {
	client, err := cache.NewRedisClient(ctx, redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis connection failed: %w", err)
	}
	logger.Info("Mirroring presence to redis", "key", cache.OnlineUsersKey)
	return cache.NewPresenceMirror(logger, client), func() { _ = client.Close() }, nil
}
