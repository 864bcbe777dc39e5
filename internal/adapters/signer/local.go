package signer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// ErrNoPrivateKey is returned when a command needs a signer and none is configured
var ErrNoPrivateKey = errors.New("no private key configured, set PRIVATE_KEY or pass --private-key")

// LocalSigner signs with an in-memory private key
type LocalSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewLocalSigner parses a hex private key, with or without 0x prefix
func NewLocalSigner(privateKeyHex string) (*LocalSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &LocalSigner{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// Address returns the signer's account
func (s *LocalSigner) Address() common.Address {
	return s.address
}

// SignHash signs digest directly, returning [r ‖ s ‖ v] with v in {0, 1}
func (s *LocalSigner) SignHash(_ context.Context, digest common.Hash) ([]byte, error) {
	return crypto.Sign(digest.Bytes(), s.key)
}

// SignTypedData signs the EIP-712 hash of typedData
func (s *LocalSigner) SignTypedData(_ context.Context, typedData apitypes.TypedData) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, fmt.Errorf("failed to hash typed data: %w", err)
	}
	return crypto.Sign(hash, s.key)
}

// Provider hands out the configured signer. The key is parsed on first use
// so commands without a signer never touch it.
type Provider struct {
	privateKey string
}

// NewProvider creates a signer provider for the configured private key
func NewProvider(cfg *config.RuntimeConfig) *Provider {
	return &Provider{privateKey: cfg.PrivateKey}
}

// Signer returns the configured signer
func (p *Provider) Signer() (usecase.Signer, error) {
	if p.privateKey == "" {
		return nil, ErrNoPrivateKey
	}
	return NewLocalSigner(p.privateKey)
}

var _ usecase.Signer = (*LocalSigner)(nil)
