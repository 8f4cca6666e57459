package internal

import (
	"chat-relay/infrastructure/grpc/rpc"
	"fmt"
	"net"
	"time"
)

type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	GRPCPort int    `env:"GRPC_PORT,default=50051"`
	HTTPPort int    `env:"HTTP_PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	// DebugAddr serves the Badger inspector when LOG_LEVEL is DEBUG. Loopback only.
	DebugAddr string `env:"DEBUG_ADDR,default=127.0.0.1:8081"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	RedisURL       string `env:"REDIS_URL"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	JWTIssuer         string        `env:"JWT_ISSUER,default=chat-relay"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	BufferSize           int           `env:"BUFFER_SIZE,default=1024"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=2s"`
	DeliveryTimeout      time.Duration `env:"DELIVERY_TIMEOUT,default=1s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=1s"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=10s"`
	MaxTextBytes         int           `env:"MAX_TEXT_BYTES,default=65536"`
	MaxImageBytes        int           `env:"MAX_IMAGE_BYTES,default=5242880"`
	GRPCMaxMessageBytes  int           `env:"GRPC_MAX_MESSAGE_BYTES,default=8388608"`

	WSRateLimit float64       `env:"WS_RATE_LIMIT,default=20"`
	WSRateBurst int           `env:"WS_RATE_BURST,default=40"`
	WSReadLimit int64         `env:"WS_READ_LIMIT,default=8388608"`
	WSPongWait  time.Duration `env:"WS_PONG_WAIT,default=60s"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// Validate catches combinations the env tags cannot express.
func (c Config) Validate() error {
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.BufferSize <= 0 || c.ConnectionBufferSize <= 0 {
		return fmt.Errorf("BUFFER_SIZE and CONNECTION_BUFFER_SIZE must be positive, got %d and %d",
			c.BufferSize, c.ConnectionBufferSize)
	}
	if c.GRPCPort == c.HTTPPort {
		return fmt.Errorf("GRPC_PORT and HTTP_PORT must differ, both are %d", c.GRPCPort)
	}
	if c.MaxTextBytes <= 0 || c.MaxImageBytes <= 0 {
		return fmt.Errorf("MAX_TEXT_BYTES and MAX_IMAGE_BYTES must be positive, got %d and %d",
			c.MaxTextBytes, c.MaxImageBytes)
	}
	// Base64 inflates the image by a third
	if c.WSReadLimit < int64(c.MaxImageBytes)*4/3 {
		return fmt.Errorf("WS_READ_LIMIT (%d) is lower than MAX_IMAGE_BYTES (%d)", c.WSReadLimit, c.MaxImageBytes)
	}
	if need := rpc.MinMessageBytes(c.MaxTextBytes, c.MaxImageBytes); c.GRPCMaxMessageBytes < need {
		return fmt.Errorf("GRPC_MAX_MESSAGE_BYTES (%d) cannot carry one message, need at least %d",
			c.GRPCMaxMessageBytes, need)
	}
	if c.DebugAddr != "" && !isLoopback(c.DebugAddr) {
		return fmt.Errorf("DEBUG_ADDR (%s) must bind a loopback address", c.DebugAddr)
	}
	return nil
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (c Config) GRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.GRPCPort)
}

func (c Config) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}
