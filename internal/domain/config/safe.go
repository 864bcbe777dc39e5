package config

import "github.com/trebuchet-org/treb-safe/internal/contracts"

// SafeConfig is the project's safe.toml
type SafeConfig struct {
	RpcEndpoints map[string]string `toml:"rpc_endpoints"`
	// Explorers maps network names to block explorer base URLs
	Explorers map[string]string `toml:"explorers,omitempty"`
	// TransactionService maps chain IDs to self-hosted Safe Transaction Service URLs
	TransactionService map[string]string `toml:"transaction_service,omitempty"`
	// ContractNetworks overrides deployment addresses, keyed by chain ID then version
	ContractNetworks map[string]map[string]contracts.ContractAddresses `toml:"contract_networks,omitempty"`
}

// AccountFile describes a Safe to predict, as written in safe.yaml
type AccountFile struct {
	Owners          []string `yaml:"owners"`
	Threshold       uint64   `yaml:"threshold"`
	Version         string   `yaml:"version,omitempty"`
	SaltNonce       string   `yaml:"salt_nonce,omitempty"`
	FallbackHandler string   `yaml:"fallback_handler,omitempty"`
	To              string   `yaml:"to,omitempty"`
	Data            string   `yaml:"data,omitempty"`
	PaymentToken    string   `yaml:"payment_token,omitempty"`
	Payment         string   `yaml:"payment,omitempty"`
	PaymentReceiver string   `yaml:"payment_receiver,omitempty"`
}
