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

// ManageOwners builds owner and threshold changes
type ManageOwners struct {
	create *CreateTransaction
	log    *slog.Logger
}

// NewManageOwners creates a new ManageOwners use case
func NewManageOwners(create *CreateTransaction, log *slog.Logger) *ManageOwners {
	return &ManageOwners{
		create: create,
		log:    log.With("component", "ManageOwners"),
	}
}

func validateThreshold(threshold uint64, owners int) error {
	if threshold < 1 {
		return domain.ErrThresholdTooLow
	}
	if threshold > uint64(owners) {
		return domain.ErrThresholdTooHigh
	}
	return nil
}

func (uc *ManageOwners) validateNewOwner(safe *SafeAccount, owners []common.Address, owner common.Address) error {
	if isRestrictedAddress(owner) || owner == safe.Address {
		return domain.InvalidAddressError("owner")
	}
	if slices.Contains(owners, owner) {
		return fmt.Errorf("%s: %w", owner.Hex(), domain.ErrOwnerExists)
	}
	return nil
}

// prevOwner returns the predecessor of owner in the owner linked list
func prevOwner(owners []common.Address, owner common.Address) (common.Address, error) {
	idx := slices.Index(owners, owner)
	if idx < 0 {
		return common.Address{}, fmt.Errorf("%s: %w", owner.Hex(), domain.ErrNotOwner)
	}
	if idx == 0 {
		return contracts.Sentinel, nil
	}
	return owners[idx-1], nil
}

// AddOwner builds addOwnerWithThreshold. A nil threshold keeps the current one.
func (uc *ManageOwners) AddOwner(ctx context.Context, safe *SafeAccount, owner common.Address, threshold *uint64, opts builder.Options) (*models.SafeTransaction, error) {
	owners, err := safe.Owners(ctx)
	if err != nil {
		return nil, err
	}
	if err := uc.validateNewOwner(safe, owners, owner); err != nil {
		return nil, err
	}
	newThreshold, err := thresholdOrCurrent(ctx, safe, threshold, 0)
	if err != nil {
		return nil, err
	}
	if err := validateThreshold(newThreshold, len(owners)+1); err != nil {
		return nil, err
	}
	data, err := contracts.EncodeAddOwnerWithThreshold(owner, newThreshold)
	if err != nil {
		return nil, err
	}
	return selfCall(ctx, uc.create, safe, data, opts)
}

// RemoveOwner builds removeOwner. A nil threshold lowers the current one by one.
func (uc *ManageOwners) RemoveOwner(ctx context.Context, safe *SafeAccount, owner common.Address, threshold *uint64, opts builder.Options) (*models.SafeTransaction, error) {
	if isRestrictedAddress(owner) {
		return nil, domain.InvalidAddressError("owner")
	}
	owners, err := safe.Owners(ctx)
	if err != nil {
		return nil, err
	}
	prev, err := prevOwner(owners, owner)
	if err != nil {
		return nil, err
	}
	newThreshold, err := thresholdOrCurrent(ctx, safe, threshold, -1)
	if err != nil {
		return nil, err
	}
	if err := validateThreshold(newThreshold, len(owners)-1); err != nil {
		return nil, err
	}
	data, err := contracts.EncodeRemoveOwner(prev, owner, newThreshold)
	if err != nil {
		return nil, err
	}
	return selfCall(ctx, uc.create, safe, data, opts)
}

// SwapOwner builds swapOwner(prevOwner, oldOwner, newOwner)
func (uc *ManageOwners) SwapOwner(ctx context.Context, safe *SafeAccount, oldOwner, newOwner common.Address, opts builder.Options) (*models.SafeTransaction, error) {
	if isRestrictedAddress(oldOwner) {
		return nil, domain.InvalidAddressError("old owner")
	}
	owners, err := safe.Owners(ctx)
	if err != nil {
		return nil, err
	}
	if err := uc.validateNewOwner(safe, owners, newOwner); err != nil {
		return nil, err
	}
	prev, err := prevOwner(owners, oldOwner)
	if err != nil {
		return nil, err
	}
	data, err := contracts.EncodeSwapOwner(prev, oldOwner, newOwner)
	if err != nil {
		return nil, err
	}
	return selfCall(ctx, uc.create, safe, data, opts)
}

// ChangeThreshold builds changeThreshold(threshold)
func (uc *ManageOwners) ChangeThreshold(ctx context.Context, safe *SafeAccount, threshold uint64, opts builder.Options) (*models.SafeTransaction, error) {
	owners, err := safe.Owners(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateThreshold(threshold, len(owners)); err != nil {
		return nil, err
	}
	data, err := contracts.EncodeChangeThreshold(threshold)
	if err != nil {
		return nil, err
	}
	return selfCall(ctx, uc.create, safe, data, opts)
}

func thresholdOrCurrent(ctx context.Context, safe *SafeAccount, threshold *uint64, delta int) (uint64, error) {
	if threshold != nil {
		return *threshold, nil
	}
	current, err := safe.Threshold(ctx)
	if err != nil {
		return 0, err
	}
	if delta < 0 && current == 0 {
		return 0, nil
	}
	return uint64(int64(current) + int64(delta)), nil
}
