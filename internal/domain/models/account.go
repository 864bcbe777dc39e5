package models

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-safe/internal/domain"
)

// SafeAccountConfig describes the initial setup of a Safe
type SafeAccountConfig struct {
	Owners          []common.Address `json:"owners"`
	Threshold       uint64           `json:"threshold"`
	To              common.Address   `json:"to,omitempty"`
	Data            hexutil.Bytes    `json:"data,omitempty"`
	FallbackHandler *common.Address  `json:"fallbackHandler,omitempty"`
	PaymentToken    common.Address   `json:"paymentToken,omitempty"`
	Payment         string           `json:"payment,omitempty"`
	PaymentReceiver common.Address   `json:"paymentReceiver,omitempty"`
}

// Validate enforces the owner and threshold invariants. Values are never clamped.
func (c SafeAccountConfig) Validate() error {
	if len(c.Owners) == 0 {
		return domain.ErrNoOwners
	}
	if c.Threshold < 1 {
		return domain.ErrThresholdTooLow
	}
	if c.Threshold > uint64(len(c.Owners)) {
		return domain.ErrThresholdTooHigh
	}
	if lo.Contains(c.Owners, common.Address{}) {
		return domain.InvalidAddressError("owner")
	}
	if dups := lo.FindDuplicates(c.Owners); len(dups) > 0 {
		return fmt.Errorf("%s: %w", dups[0].Hex(), domain.ErrDuplicateOwner)
	}
	if _, err := ParseAmount(c.Payment); err != nil {
		return fmt.Errorf("payment: %w", err)
	}
	return nil
}

// SafeDeploymentConfig selects the contract generation and CREATE2 salt nonce.
// A nil SaltNonce means the chain-specific default.
type SafeDeploymentConfig struct {
	Version   string   `json:"safeVersion"`
	SaltNonce *big.Int `json:"saltNonce,omitempty"`
}

// PredictedSafe is a Safe that has not been deployed yet
type PredictedSafe struct {
	AccountConfig    SafeAccountConfig    `json:"safeAccountConfig"`
	DeploymentConfig SafeDeploymentConfig `json:"safeDeploymentConfig"`
}

// DeploymentTransaction is an unsigned factory call that deploys a predicted Safe
type DeploymentTransaction struct {
	To    common.Address `json:"to"`
	Value string         `json:"value"`
	Data  hexutil.Bytes  `json:"data"`
}
