package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string

	// Network is nil when neither --network nor --rpc-url was given
	Network *Network

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool
	Timeout        time.Duration

	// PrivateKey signs and submits transactions, hex encoded
	PrivateKey string //nolint:gosec // resolved from the environment
	// ServiceURL overrides the Safe Transaction Service for the active chain
	ServiceURL string
	// MetricsFile receives a Prometheus text dump when the command exits
	MetricsFile string

	// Resolved configurations
	SafeConfig *SafeConfig
}

// Network represents network configuration
type Network struct {
	Name        string `json:"name"`
	RPCURL      string `json:"rpcUrl"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
}
