package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-safe/internal/builder"
	"github.com/trebuchet-org/treb-safe/internal/contracts"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

// modulesPageSize is the page size used with getModulesPaginated
const modulesPageSize = 50

// SafeAccount is a Safe on one chain, either deployed or predicted. Version
// dependent behaviour is driven by Caps.
type SafeAccount struct {
	Address   common.Address
	ChainID   *big.Int
	Caps      contracts.Capabilities
	Contracts contracts.ContractAddresses

	// Predicted is set while the Safe has no code on chain
	Predicted *models.PredictedSafe

	chain ChainClient
}

// NewSafeAccount binds a deployed Safe at address to chain
func NewSafeAccount(chain ChainClient, address common.Address, chainID *big.Int, caps contracts.Capabilities, addrs contracts.ContractAddresses) *SafeAccount {
	return &SafeAccount{
		Address:   address,
		ChainID:   chainID,
		Caps:      caps,
		Contracts: addrs,
		chain:     chain,
	}
}

func (s *SafeAccount) IsDeployed() bool {
	return s.Predicted == nil
}

func (s *SafeAccount) view(ctx context.Context, method string, args ...any) ([]any, error) {
	if !s.IsDeployed() {
		return nil, domain.ErrSafeNotDeployed
	}
	call, err := contracts.NewSafeViewCall(s.Caps, method, args...)
	if err != nil {
		return nil, err
	}
	out, err := s.chain.Call(ctx, s.Address, call.Data)
	if err != nil {
		return nil, domain.WrapCollaborator(method, err)
	}
	return call.Decode(out)
}

// Nonce is the on-chain nonce, 0 for a predicted Safe
func (s *SafeAccount) Nonce(ctx context.Context) (uint64, error) {
	if !s.IsDeployed() {
		return 0, nil
	}
	values, err := s.view(ctx, "nonce")
	if err != nil {
		return 0, err
	}
	return values[0].(*big.Int).Uint64(), nil
}

// Owners returns the owner list, from the account config for a predicted Safe
func (s *SafeAccount) Owners(ctx context.Context) ([]common.Address, error) {
	if !s.IsDeployed() {
		return slices.Clone(s.Predicted.AccountConfig.Owners), nil
	}
	values, err := s.view(ctx, "getOwners")
	if err != nil {
		return nil, err
	}
	return values[0].([]common.Address), nil
}

// Threshold returns the number of required confirmations
func (s *SafeAccount) Threshold(ctx context.Context) (uint64, error) {
	if !s.IsDeployed() {
		return s.Predicted.AccountConfig.Threshold, nil
	}
	values, err := s.view(ctx, "getThreshold")
	if err != nil {
		return 0, err
	}
	return values[0].(*big.Int).Uint64(), nil
}

func (s *SafeAccount) IsOwner(ctx context.Context, address common.Address) (bool, error) {
	owners, err := s.Owners(ctx)
	if err != nil {
		return false, err
	}
	return lo.Contains(owners, address), nil
}

// Modules lists enabled modules. 1.0.0 only has the unpaginated getter.
func (s *SafeAccount) Modules(ctx context.Context) ([]common.Address, error) {
	if !s.Caps.PaginatedModules {
		values, err := s.view(ctx, "getModules")
		if err != nil {
			return nil, err
		}
		return values[0].([]common.Address), nil
	}

	var modules []common.Address
	start := contracts.Sentinel
	for {
		values, err := s.view(ctx, "getModulesPaginated", start, big.NewInt(modulesPageSize))
		if err != nil {
			return nil, err
		}
		page := values[0].([]common.Address)
		next := values[1].(common.Address)
		modules = append(modules, page...)
		if len(page) < modulesPageSize || next == contracts.Sentinel || next == (common.Address{}) {
			return modules, nil
		}
		// before 1.4.1 next is the first module not returned, so the
		// cursor is always the last module of the page
		start = page[len(page)-1]
	}
}

// IsModuleEnabled uses the contract getter when available and falls back to
// scanning the module list
func (s *SafeAccount) IsModuleEnabled(ctx context.Context, module common.Address) (bool, error) {
	if s.Caps.ModuleEnabledGetter {
		values, err := s.view(ctx, "isModuleEnabled", module)
		if err != nil {
			return false, err
		}
		return values[0].(bool), nil
	}
	modules, err := s.Modules(ctx)
	if err != nil {
		return false, err
	}
	return lo.Contains(modules, module), nil
}

// Guard returns the guard address, zero when none is set
func (s *SafeAccount) Guard(ctx context.Context) (common.Address, error) {
	if err := s.Caps.Require(s.Caps.Guards, "Safe transaction guards"); err != nil {
		return common.Address{}, err
	}
	return s.storageAddress(ctx, contracts.GuardStorageSlot)
}

// FallbackHandler returns the fallback handler address, zero when none is set
func (s *SafeAccount) FallbackHandler(ctx context.Context) (common.Address, error) {
	if err := s.Caps.Require(s.Caps.FallbackHandler, "fallback handler"); err != nil {
		return common.Address{}, err
	}
	return s.storageAddress(ctx, contracts.FallbackHandlerStorageSlot)
}

func (s *SafeAccount) storageAddress(ctx context.Context, slot common.Hash) (common.Address, error) {
	values, err := s.view(ctx, "getStorageAt", slot.Big(), big.NewInt(1))
	if err != nil {
		return common.Address{}, err
	}
	return contracts.AddressFromStorage(values[0].([]byte)), nil
}

// IsHashApproved reports whether owner called approveHash(hash)
func (s *SafeAccount) IsHashApproved(ctx context.Context, owner common.Address, hash common.Hash) (bool, error) {
	values, err := s.view(ctx, "approvedHashes", owner, hash)
	if err != nil {
		return false, err
	}
	return values[0].(*big.Int).Sign() != 0, nil
}

func (s *SafeAccount) builderAccount(nonce uint64) builder.Account {
	return builder.Account{
		Address:   s.Address,
		Caps:      s.Caps,
		Contracts: s.Contracts,
		Deployed:  s.IsDeployed(),
		Nonce:     nonce,
	}
}

// ConnectSafeParams identifies a deployed Safe
type ConnectSafeParams struct {
	Address common.Address
	// Version skips the VERSION() call when set
	Version string
}

// ConnectSafe resolves a deployed Safe's version and contract addresses
type ConnectSafe struct {
	chain    ChainClient
	registry *contracts.Registry
	log      *slog.Logger
}

// NewConnectSafe creates a new ConnectSafe use case
func NewConnectSafe(chain ChainClient, registry *contracts.Registry, log *slog.Logger) *ConnectSafe {
	return &ConnectSafe{
		chain:    chain,
		registry: registry,
		log:      log.With("component", "ConnectSafe"),
	}
}

// Run connects to the Safe at params.Address
func (uc *ConnectSafe) Run(ctx context.Context, params ConnectSafeParams) (*SafeAccount, error) {
	if params.Address == (common.Address{}) {
		return nil, domain.InvalidAddressError("Safe")
	}

	chainID, err := uc.chain.ChainID(ctx)
	if err != nil {
		return nil, domain.WrapCollaborator("chain id", err)
	}

	code, err := uc.chain.CodeAt(ctx, params.Address)
	if err != nil {
		return nil, domain.WrapCollaborator("code at", err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%s: %w", params.Address.Hex(), domain.ErrSafeNotDeployed)
	}

	raw := params.Version
	if raw == "" {
		call, err := contracts.NewSafeViewCall(contracts.Capabilities{Version: contracts.DefaultVersion}, "VERSION")
		if err != nil {
			return nil, err
		}
		out, err := uc.chain.Call(ctx, params.Address, call.Data)
		if err != nil {
			return nil, domain.WrapCollaborator("VERSION", err)
		}
		values, err := call.Decode(out)
		if err != nil {
			return nil, err
		}
		raw = values[0].(string)
	}

	version, err := contracts.ParseVersion(raw)
	if err != nil {
		return nil, err
	}
	caps, err := contracts.CapabilitiesOf(version)
	if err != nil {
		return nil, err
	}

	addrs, err := uc.registry.Lookup(chainID.Uint64(), version)
	if err != nil {
		if !errors.Is(err, domain.ErrContractsNotFound) {
			return nil, err
		}
		// a deployed Safe still works without libraries, only batching is unavailable
		uc.log.Warn("no contract addresses for chain", "chainId", chainID, "version", version)
	}

	uc.log.Debug("connected to safe", "safe", params.Address.Hex(), "chainId", chainID, "version", version)
	return NewSafeAccount(uc.chain, params.Address, chainID, caps, addrs), nil
}
