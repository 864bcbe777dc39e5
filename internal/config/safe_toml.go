package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/treb-safe/internal/contracts"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
)

// loadSafeConfig loads .env files and parses safe.toml. A missing safe.toml
// yields an empty config.
func loadSafeConfig(projectRoot string) (*config.SafeConfig, error) {
	// Load .env files first for variable expansion
	for _, envFile := range []string{".env", ".env.local"} {
		path := filepath.Join(projectRoot, envFile)
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", path, err)
			}
		}
	}

	cfg := &config.SafeConfig{}
	path := filepath.Join(projectRoot, ProjectFile)
	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to parse %s: %w", ProjectFile, err)
	}

	// rpc_endpoints stay raw so unset ${VAR} references can be reported
	for chainID, url := range cfg.TransactionService {
		cfg.TransactionService[chainID] = os.ExpandEnv(url)
	}
	return cfg, nil
}

// ContractNetworks converts the [contract_networks] tables of safe.toml into
// registry overrides
func ContractNetworks(cfg *config.SafeConfig) (contracts.ContractNetworks, error) {
	networks := contracts.ContractNetworks{}
	if cfg == nil {
		return networks, nil
	}
	for rawChainID, versions := range cfg.ContractNetworks {
		chainID, err := strconv.ParseUint(rawChainID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("contract_networks: invalid chain id %q", rawChainID)
		}
		entry := make(map[contracts.SafeVersion]contracts.ContractAddresses, len(versions))
		for rawVersion, addrs := range versions {
			version, err := contracts.ParseVersion(rawVersion)
			if err != nil {
				return nil, fmt.Errorf("contract_networks.%d: %w", chainID, err)
			}
			entry[version] = addrs
		}
		networks[chainID] = entry
	}
	return networks, nil
}

// ProvideContractNetworks provides registry overrides for Wire
func ProvideContractNetworks(cfg *config.RuntimeConfig) (contracts.ContractNetworks, error) {
	return ContractNetworks(cfg.SafeConfig)
}

// ServiceURL returns the Transaction Service override for chainID, if any.
// The --service-url flag wins over safe.toml.
func ServiceURL(cfg *config.RuntimeConfig, chainID uint64) string {
	if cfg.ServiceURL != "" {
		return cfg.ServiceURL
	}
	if cfg.SafeConfig == nil {
		return ""
	}
	return cfg.SafeConfig.TransactionService[strconv.FormatUint(chainID, 10)]
}
