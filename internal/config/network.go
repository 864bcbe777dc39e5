package config

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
)

// envVarPattern matches ${VAR_NAME} patterns in TOML values
var envVarPattern = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// DetectEnvVar checks if a raw TOML value is a simple ${VAR_NAME} reference.
// Returns the variable name and true if the value is a pure env var reference.
func DetectEnvVar(rawValue string) (string, bool) {
	matches := envVarPattern.FindStringSubmatch(rawValue)
	if len(matches) == 2 {
		return matches[1], true
	}
	return "", false
}

// GenerateEnvVarName generates a conventional env var name for a network's RPC URL.
// Examples: sepolia -> SEPOLIA_RPC_URL, base-sepolia -> BASE_SEPOLIA_RPC_URL
func GenerateEnvVarName(networkName string) string {
	name := strings.ToUpper(networkName)
	name = strings.NewReplacer("-", "_", ".", "_").Replace(name)
	return name + "_RPC_URL"
}

// UnknownNetworkError is returned for a network name missing from safe.toml
type UnknownNetworkError struct {
	Name        string
	Suggestions []string
}

func (e *UnknownNetworkError) Error() string {
	msg := fmt.Sprintf("network '%s' not found in %s [rpc_endpoints]", e.Name, ProjectFile)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

// NetworkResolver resolves network names from safe.toml
type NetworkResolver struct {
	cfg *config.SafeConfig
}

// NewNetworkResolver creates a new network resolver
func NewNetworkResolver(cfg *config.SafeConfig) *NetworkResolver {
	if cfg == nil {
		cfg = &config.SafeConfig{}
	}
	return &NetworkResolver{cfg: cfg}
}

// Names lists the configured networks in alphabetical order
func (r *NetworkResolver) Names() []string {
	names := make([]string, 0, len(r.cfg.RpcEndpoints))
	for name := range r.cfg.RpcEndpoints {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve resolves a network name to its configuration
func (r *NetworkResolver) Resolve(networkName string) (*config.Network, error) {
	raw, ok := r.cfg.RpcEndpoints[networkName]
	if !ok {
		return nil, &UnknownNetworkError{Name: networkName, Suggestions: r.suggest(networkName)}
	}

	rpcURL := os.ExpandEnv(raw)
	if rpcURL == "" {
		if name, isVar := DetectEnvVar(raw); isVar {
			return nil, fmt.Errorf("network '%s' reads its RPC URL from %s, which is not set", networkName, name)
		}
		return nil, fmt.Errorf("network '%s' has an empty RPC URL", networkName)
	}

	return &config.Network{
		Name:        networkName,
		RPCURL:      rpcURL,
		ExplorerURL: r.cfg.Explorers[networkName],
	}, nil
}

// FromURL wraps an RPC URL given on the command line
func (r *NetworkResolver) FromURL(rpcURL string) *config.Network {
	return &config.Network{Name: "custom", RPCURL: rpcURL}
}

func (r *NetworkResolver) suggest(name string) []string {
	matches := fuzzy.Find(name, r.Names())
	suggestions := make([]string, 0, 3)
	for _, m := range matches {
		suggestions = append(suggestions, m.Str)
		if len(suggestions) == 3 {
			break
		}
	}
	return suggestions
}

// ExplorerURL returns a block explorer for chainID, preferring the configured one
func ExplorerURL(network *config.Network, chainID uint64) string {
	if network != nil && network.ExplorerURL != "" {
		return strings.TrimRight(network.ExplorerURL, "/")
	}

	switch chainID {
	case 1:
		return "https://etherscan.io"
	case 10:
		return "https://optimistic.etherscan.io"
	case 56:
		return "https://bscscan.com"
	case 100:
		return "https://gnosisscan.io"
	case 137:
		return "https://polygonscan.com"
	case 8453:
		return "https://basescan.org"
	case 42161:
		return "https://arbiscan.io"
	case 43114:
		return "https://snowtrace.io"
	case 11155111:
		return "https://sepolia.etherscan.io"
	default:
		return ""
	}
}
