package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/trebuchet-org/treb-safe/internal/contracts"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/predict"
)

// CreationCodeCache holds proxy creation code per chain and factory. The
// code is immutable so entries never expire.
type CreationCodeCache = lru.Cache[creationCodeKey, []byte]

type creationCodeKey struct {
	chainID uint64
	factory common.Address
}

// NewCreationCodeCache creates the cache shared by prediction use cases
func NewCreationCodeCache() (*CreationCodeCache, error) {
	return lru.New[creationCodeKey, []byte](64)
}

// PredictSafeResult is a counterfactual Safe and the payload that deploys it
type PredictSafeResult struct {
	Account      *SafeAccount
	Address      common.Address
	SaltNonce    *big.Int
	Initializer  []byte
	Deployment   models.DeploymentTransaction
	AlreadyExist bool
}

// PredictSafe computes the address of a Safe that has not been deployed yet
type PredictSafe struct {
	chain    ChainClient
	registry *contracts.Registry
	codes    *CreationCodeCache
	metrics  Metrics
	sink     ProgressSink
	log      *slog.Logger
}

// NewPredictSafe creates a new PredictSafe use case
func NewPredictSafe(chain ChainClient, registry *contracts.Registry, codes *CreationCodeCache, metrics Metrics, sink ProgressSink, log *slog.Logger) *PredictSafe {
	return &PredictSafe{
		chain:    chain,
		registry: registry,
		codes:    codes,
		metrics:  metrics,
		sink:     sink,
		log:      log.With("component", "PredictSafe"),
	}
}

// Run predicts the address of predicted and builds its deployment transaction
func (uc *PredictSafe) Run(ctx context.Context, predicted models.PredictedSafe) (*PredictSafeResult, error) {
	cfg := predicted.AccountConfig
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	raw := predicted.DeploymentConfig.Version
	if raw == "" {
		raw = string(contracts.DefaultVersion)
	}
	version, err := contracts.ParseVersion(raw)
	if err != nil {
		return nil, err
	}
	caps, err := contracts.CapabilitiesOf(version)
	if err != nil {
		return nil, err
	}

	uc.sink.OnProgress(ctx, ProgressEvent{Stage: StageConnecting, Message: "Resolving Safe contracts", Spinner: true})

	chainID, err := uc.chain.ChainID(ctx)
	if err != nil {
		return nil, domain.WrapCollaborator("chain id", err)
	}
	addrs, err := uc.registry.Lookup(chainID.Uint64(), version)
	if err != nil {
		return nil, err
	}

	fallbackHandler := common.Address{}
	switch {
	case cfg.FallbackHandler != nil:
		fallbackHandler = *cfg.FallbackHandler
	case caps.FallbackHandler:
		fallbackHandler = addrs.FallbackHandler
	}

	initializer, err := contracts.EncodeSetup(caps, cfg, fallbackHandler)
	if err != nil {
		return nil, err
	}

	saltNonce := predicted.DeploymentConfig.SaltNonce
	if saltNonce == nil {
		saltNonce = predict.DefaultSaltNonce(chainID.Uint64())
	}
	if saltNonce.Sign() < 0 {
		return nil, domain.ErrInvalidSaltNonce
	}

	creationCode, err := uc.creationCode(ctx, chainID.Uint64(), addrs)
	if err != nil {
		return nil, err
	}

	address, err := predict.PredictAddress(addrs.ProxyFactory, addrs.Safe, creationCode, initializer, saltNonce)
	if err != nil {
		return nil, err
	}

	deployData, err := contracts.EncodeCreateProxyWithNonce(addrs.Safe, initializer, saltNonce)
	if err != nil {
		return nil, fmt.Errorf("failed to encode deployment: %w", err)
	}

	code, err := uc.chain.CodeAt(ctx, address)
	if err != nil {
		return nil, domain.WrapCollaborator("code at", err)
	}

	stored := predicted
	stored.AccountConfig.FallbackHandler = &fallbackHandler
	stored.DeploymentConfig = models.SafeDeploymentConfig{Version: string(version), SaltNonce: saltNonce}

	account := NewSafeAccount(uc.chain, address, chainID, caps, addrs)
	if len(code) == 0 {
		account.Predicted = &stored
	}

	uc.metrics.SafePredicted(string(version))
	uc.log.Debug("predicted safe address",
		"address", address.Hex(),
		"version", version,
		"saltNonce", saltNonce.String(),
		"deployed", len(code) > 0)

	return &PredictSafeResult{
		Account:     account,
		Address:     address,
		SaltNonce:   saltNonce,
		Initializer: initializer,
		Deployment: models.DeploymentTransaction{
			To:    addrs.ProxyFactory,
			Value: "0",
			Data:  deployData,
		},
		AlreadyExist: len(code) > 0,
	}, nil
}

// creationCode prefers the configured code, then the cache, then proxyCreationCode()
func (uc *PredictSafe) creationCode(ctx context.Context, chainID uint64, addrs contracts.ContractAddresses) ([]byte, error) {
	if len(addrs.ProxyCreationCode) > 0 {
		return addrs.ProxyCreationCode, nil
	}

	key := creationCodeKey{chainID: chainID, factory: addrs.ProxyFactory}
	if code, ok := uc.codes.Get(key); ok {
		return code, nil
	}

	call, err := contracts.NewFactoryViewCall("proxyCreationCode")
	if err != nil {
		return nil, err
	}
	out, err := uc.chain.Call(ctx, addrs.ProxyFactory, call.Data)
	if err != nil {
		return nil, domain.WrapCollaborator("proxyCreationCode", err)
	}
	values, err := call.Decode(out)
	if err != nil {
		return nil, err
	}
	code := slices.Clone(values[0].([]byte))
	if len(code) == 0 {
		return nil, domain.WrapCollaborator("proxyCreationCode", fmt.Errorf("factory %s returned no creation code", addrs.ProxyFactory.Hex()))
	}
	uc.codes.Add(key, code)
	return code, nil
}
