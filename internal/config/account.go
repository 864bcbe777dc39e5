package config

import (
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"gopkg.in/yaml.v3"
)

// LoadAccountFile reads a safe.yaml account description
func LoadAccountFile(path string) (*models.PredictedSafe, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to read account file: %w", err)
	}
	return ParseAccountFile(data)
}

// ParseAccountFile converts safe.yaml content into a PredictedSafe
func ParseAccountFile(data []byte) (*models.PredictedSafe, error) {
	var file config.AccountFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse account file: %w", err)
	}

	owners := make([]common.Address, 0, len(file.Owners))
	for i, raw := range file.Owners {
		owner, err := parseAddress(raw, fmt.Sprintf("owner %d", i))
		if err != nil {
			return nil, err
		}
		owners = append(owners, owner)
	}

	cfg := models.SafeAccountConfig{
		Owners:    owners,
		Threshold: file.Threshold,
		Payment:   file.Payment,
	}
	var err error
	if cfg.To, err = parseOptionalAddress(file.To, "to"); err != nil {
		return nil, err
	}
	if cfg.PaymentToken, err = parseOptionalAddress(file.PaymentToken, "payment token"); err != nil {
		return nil, err
	}
	if cfg.PaymentReceiver, err = parseOptionalAddress(file.PaymentReceiver, "payment receiver"); err != nil {
		return nil, err
	}
	if file.FallbackHandler != "" {
		handler, err := parseAddress(file.FallbackHandler, "fallback handler")
		if err != nil {
			return nil, err
		}
		cfg.FallbackHandler = &handler
	}
	if file.Data != "" {
		if cfg.Data, err = hexutil.Decode(file.Data); err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
	}

	predicted := &models.PredictedSafe{
		AccountConfig:    cfg,
		DeploymentConfig: models.SafeDeploymentConfig{Version: file.Version},
	}
	if file.SaltNonce != "" {
		nonce, ok := new(big.Int).SetString(file.SaltNonce, 0)
		if !ok {
			return nil, fmt.Errorf("salt_nonce %q: %w", file.SaltNonce, domain.ErrInvalidSaltNonce)
		}
		predicted.DeploymentConfig.SaltNonce = nonce
	}
	return predicted, nil
}

func parseAddress(raw, what string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, domain.InvalidAddressError(what)
	}
	return common.HexToAddress(raw), nil
}

func parseOptionalAddress(raw, what string) (common.Address, error) {
	if raw == "" {
		return common.Address{}, nil
	}
	return parseAddress(raw, what)
}
