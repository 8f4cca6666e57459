// Package e2e drives a running relay over gRPC. Suites skip when RELAY_ADDR is unset.
package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	RelayAddr string `envconfig:"RELAY_ADDR"`
	// E2E_DEBUG_JSON dumps full gRPC request/response bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`

	// E2E_MAX_MESSAGE_BYTES mirrors the relay GRPC_MAX_MESSAGE_BYTES
	MaxMessageBytes int `envconfig:"E2E_MAX_MESSAGE_BYTES" default:"8388608"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
