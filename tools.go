//go:build tools
// +build tools

// Package tools tracks the code generators run by go generate, mockgen for mocks/.
package chat_relay

import (
	_ "go.uber.org/mock/mockgen"
)
