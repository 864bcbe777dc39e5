package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-safe/internal/builder"
	"github.com/trebuchet-org/treb-safe/internal/contracts"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

// ManageModules builds transactions that change modules, the guard and the
// fallback handler of a Safe
type ManageModules struct {
	create *CreateTransaction
	log    *slog.Logger
}

// NewManageModules creates a new ManageModules use case
func NewManageModules(create *CreateTransaction, log *slog.Logger) *ManageModules {
	return &ManageModules{
		create: create,
		log:    log.With("component", "ManageModules"),
	}
}

// isRestrictedAddress rejects the zero address and the linked list sentinel
func isRestrictedAddress(a common.Address) bool {
	return a == (common.Address{}) || a == contracts.Sentinel
}

// selfCall builds a transaction that calls the Safe itself
func selfCall(ctx context.Context, create *CreateTransaction, safe *SafeAccount, data []byte, opts builder.Options) (*models.SafeTransaction, error) {
	return create.Run(ctx, CreateTransactionParams{
		Safe:    safe,
		Calls:   []models.MetaTransaction{{To: safe.Address, Value: "0", Data: data}},
		Options: opts,
	})
}

// EnableModule builds enableModule(module)
func (uc *ManageModules) EnableModule(ctx context.Context, safe *SafeAccount, module common.Address, opts builder.Options) (*models.SafeTransaction, error) {
	if isRestrictedAddress(module) {
		return nil, domain.InvalidAddressError("module")
	}
	enabled, err := safe.IsModuleEnabled(ctx, module)
	if err != nil {
		return nil, err
	}
	if enabled {
		return nil, fmt.Errorf("module provided is already enabled: %w", domain.ErrAlreadyEnabled)
	}
	data, err := contracts.EncodeEnableModule(module)
	if err != nil {
		return nil, err
	}
	return selfCall(ctx, uc.create, safe, data, opts)
}

// DisableModule builds disableModule(prevModule, module)
func (uc *ManageModules) DisableModule(ctx context.Context, safe *SafeAccount, module common.Address, opts builder.Options) (*models.SafeTransaction, error) {
	if isRestrictedAddress(module) {
		return nil, domain.InvalidAddressError("module")
	}
	modules, err := safe.Modules(ctx)
	if err != nil {
		return nil, err
	}
	idx := slices.Index(modules, module)
	if idx < 0 {
		return nil, fmt.Errorf("module provided is not enabled yet: %w", domain.ErrNotEnabled)
	}
	prev := contracts.Sentinel
	if idx > 0 {
		prev = modules[idx-1]
	}
	data, err := contracts.EncodeDisableModule(prev, module)
	if err != nil {
		return nil, err
	}
	return selfCall(ctx, uc.create, safe, data, opts)
}

// EnableGuard builds setGuard(guard). Requires 1.3.0 or newer.
func (uc *ManageModules) EnableGuard(ctx context.Context, safe *SafeAccount, guard common.Address, opts builder.Options) (*models.SafeTransaction, error) {
	if err := safe.Caps.Require(safe.Caps.Guards, "Safe transaction guards"); err != nil {
		return nil, err
	}
	if isRestrictedAddress(guard) {
		return nil, domain.InvalidAddressError("guard")
	}
	current, err := safe.Guard(ctx)
	if err != nil {
		return nil, err
	}
	if current == guard {
		return nil, fmt.Errorf("guard provided is already enabled: %w", domain.ErrAlreadyEnabled)
	}
	data, err := contracts.EncodeSetGuard(guard)
	if err != nil {
		return nil, err
	}
	return selfCall(ctx, uc.create, safe, data, opts)
}

// DisableGuard builds setGuard(0x0)
func (uc *ManageModules) DisableGuard(ctx context.Context, safe *SafeAccount, opts builder.Options) (*models.SafeTransaction, error) {
	if err := safe.Caps.Require(safe.Caps.Guards, "Safe transaction guards"); err != nil {
		return nil, err
	}
	current, err := safe.Guard(ctx)
	if err != nil {
		return nil, err
	}
	if current == (common.Address{}) {
		return nil, fmt.Errorf("there is no guard enabled yet: %w", domain.ErrNotEnabled)
	}
	data, err := contracts.EncodeSetGuard(common.Address{})
	if err != nil {
		return nil, err
	}
	return selfCall(ctx, uc.create, safe, data, opts)
}

// EnableFallbackHandler builds setFallbackHandler(handler). Requires 1.1.1 or newer.
func (uc *ManageModules) EnableFallbackHandler(ctx context.Context, safe *SafeAccount, handler common.Address, opts builder.Options) (*models.SafeTransaction, error) {
	if err := safe.Caps.Require(safe.Caps.FallbackHandler, "fallback handler"); err != nil {
		return nil, err
	}
	if isRestrictedAddress(handler) {
		return nil, domain.InvalidAddressError("fallback handler")
	}
	current, err := safe.FallbackHandler(ctx)
	if err != nil {
		return nil, err
	}
	if current == handler {
		return nil, fmt.Errorf("fallback handler provided is already enabled: %w", domain.ErrAlreadyEnabled)
	}
	data, err := contracts.EncodeSetFallbackHandler(handler)
	if err != nil {
		return nil, err
	}
	return selfCall(ctx, uc.create, safe, data, opts)
}

// DisableFallbackHandler builds setFallbackHandler(0x0)
func (uc *ManageModules) DisableFallbackHandler(ctx context.Context, safe *SafeAccount, opts builder.Options) (*models.SafeTransaction, error) {
	if err := safe.Caps.Require(safe.Caps.FallbackHandler, "fallback handler"); err != nil {
		return nil, err
	}
	current, err := safe.FallbackHandler(ctx)
	if err != nil {
		return nil, err
	}
	if current == (common.Address{}) {
		return nil, fmt.Errorf("there is no fallback handler enabled yet: %w", domain.ErrNotEnabled)
	}
	data, err := contracts.EncodeSetFallbackHandler(common.Address{})
	if err != nil {
		return nil, err
	}
	return selfCall(ctx, uc.create, safe, data, opts)
}

// SignMessage builds a transaction that marks message as signed by the Safe.
// From 1.3.0 this delegate-calls SignMessageLib, older Safes have signMessage built in.
func (uc *ManageModules) SignMessage(ctx context.Context, safe *SafeAccount, message []byte, opts builder.Options) (*models.SafeTransaction, error) {
	data, err := contracts.EncodeSignMessage(message)
	if err != nil {
		return nil, err
	}
	if !safe.Caps.SignMessageLib {
		return selfCall(ctx, uc.create, safe, data, opts)
	}
	if safe.Contracts.SignMessageLib == (common.Address{}) {
		return nil, fmt.Errorf("sign message lib for Safe %s: %w", safe.Caps.Version, domain.ErrContractsNotFound)
	}
	return uc.create.Run(ctx, CreateTransactionParams{
		Safe: safe,
		Calls: []models.MetaTransaction{{
			To:        safe.Contracts.SignMessageLib,
			Value:     "0",
			Data:      data,
			Operation: models.OperationDelegateCall,
		}},
		Options: opts,
	})
}
