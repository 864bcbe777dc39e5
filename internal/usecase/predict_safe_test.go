package usecase_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-safe/internal/builder"
	"github.com/trebuchet-org/treb-safe/internal/contracts"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/hashing"
	"github.com/trebuchet-org/treb-safe/internal/predict"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

var (
	ownerA = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	ownerB = common.HexToAddress("0x00000000000000000000000000000000000000a2")
)

func TestPredictSafeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     models.SafeAccountConfig
		nonce   *big.Int
		version string
		wantErr error
	}{
		{
			name:    "threshold above owner count",
			cfg:     models.SafeAccountConfig{Owners: []common.Address{ownerA, ownerB}, Threshold: 3},
			wantErr: domain.ErrThresholdTooHigh,
		},
		{
			name:    "zero threshold",
			cfg:     models.SafeAccountConfig{Owners: []common.Address{ownerA}, Threshold: 0},
			wantErr: domain.ErrThresholdTooLow,
		},
		{
			name:    "no owners",
			cfg:     models.SafeAccountConfig{Threshold: 1},
			wantErr: domain.ErrNoOwners,
		},
		{
			name:    "duplicate owners",
			cfg:     models.SafeAccountConfig{Owners: []common.Address{ownerA, ownerA}, Threshold: 1},
			wantErr: domain.ErrDuplicateOwner,
		},
		{
			name:    "negative salt nonce",
			cfg:     models.SafeAccountConfig{Owners: []common.Address{ownerA}, Threshold: 1},
			nonce:   big.NewInt(-1),
			wantErr: domain.ErrInvalidSaltNonce,
		},
		{
			name:    "unknown version",
			cfg:     models.SafeAccountConfig{Owners: []common.Address{ownerA}, Threshold: 1},
			version: "2.0.0",
			wantErr: domain.ErrUnsupportedVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, newFakeChain(common.Address{}, contracts.V1_4_1, nil, 0), nil)
			_, err := e.predict.Run(context.Background(), models.PredictedSafe{
				AccountConfig:    tt.cfg,
				DeploymentConfig: models.SafeDeploymentConfig{Version: tt.version, SaltNonce: tt.nonce},
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPredictSafeAddress(t *testing.T) {
	chain := newFakeChain(common.Address{}, contracts.V1_4_1, nil, 0)
	e := newEnv(t, chain, nil)
	predicted := models.PredictedSafe{
		AccountConfig:    models.SafeAccountConfig{Owners: []common.Address{ownerA, ownerB}, Threshold: 2},
		DeploymentConfig: models.SafeDeploymentConfig{Version: "1.4.1", SaltNonce: big.NewInt(7)},
	}

	res, err := e.predict.Run(context.Background(), predicted)
	require.NoError(t, err)

	addrs, err := e.registry.Lookup(11155111, contracts.V1_4_1)
	require.NoError(t, err)
	caps, err := contracts.CapabilitiesOf(contracts.V1_4_1)
	require.NoError(t, err)

	initializer, err := contracts.EncodeSetup(caps, predicted.AccountConfig, addrs.FallbackHandler)
	require.NoError(t, err)
	assert.Equal(t, initializer, res.Initializer, "fallback handler defaults to the network handler")

	want, err := predict.PredictAddress(addrs.ProxyFactory, addrs.Safe, chain.creationCode, initializer, big.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, want, res.Address)
	assert.False(t, res.Account.IsDeployed())
	assert.False(t, res.AlreadyExist)

	assert.Equal(t, addrs.ProxyFactory, res.Deployment.To)
	assert.Equal(t, "0", res.Deployment.Value)
	assert.Equal(t, "0x1688f0b9", hexutil.Encode(res.Deployment.Data[:4]))

	// creation code is cached per factory
	_, err = e.predict.Run(context.Background(), predicted)
	require.NoError(t, err)
	assert.Equal(t, 1, chain.creationCodeCalls)
}

func TestPredictSafeDefaultSaltNonce(t *testing.T) {
	chain := newFakeChain(common.Address{}, contracts.V1_3_0, nil, 0)
	e := newEnv(t, chain, nil)

	res, err := e.predict.Run(context.Background(), models.PredictedSafe{
		AccountConfig:    models.SafeAccountConfig{Owners: []common.Address{ownerA}, Threshold: 1},
		DeploymentConfig: models.SafeDeploymentConfig{Version: "1.3.0"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, predict.DefaultSaltNonce(11155111).Cmp(res.SaltNonce))
}

func TestPredictSafeConfiguredCreationCode(t *testing.T) {
	chain := newFakeChain(common.Address{}, contracts.V1_3_0, nil, 0)
	e := newEnv(t, chain, contracts.ContractNetworks{
		11155111: {contracts.V1_3_0: {ProxyCreationCode: hexutil.Bytes{0xfe}}},
	})

	_, err := e.predict.Run(context.Background(), models.PredictedSafe{
		AccountConfig:    models.SafeAccountConfig{Owners: []common.Address{ownerA}, Threshold: 1},
		DeploymentConfig: models.SafeDeploymentConfig{Version: "1.3.0", SaltNonce: big.NewInt(0)},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, chain.creationCodeCalls)
}

func TestPredictSafeAlreadyDeployed(t *testing.T) {
	chain := newFakeChain(common.Address{}, contracts.V1_4_1, nil, 0)
	e := newEnv(t, chain, nil)
	predicted := models.PredictedSafe{
		AccountConfig:    models.SafeAccountConfig{Owners: []common.Address{ownerA}, Threshold: 1},
		DeploymentConfig: models.SafeDeploymentConfig{Version: "1.4.1", SaltNonce: big.NewInt(1)},
	}

	first, err := e.predict.Run(context.Background(), predicted)
	require.NoError(t, err)
	chain.code[first.Address] = []byte{0x01}

	second, err := e.predict.Run(context.Background(), predicted)
	require.NoError(t, err)
	assert.True(t, second.AlreadyExist)
	assert.True(t, second.Account.IsDeployed())
}

func TestCreateTransactionForPredictedSafe(t *testing.T) {
	chain := newFakeChain(common.Address{}, contracts.V1_4_1, nil, 0)
	e := newEnv(t, chain, nil)
	ctx := context.Background()

	res, err := e.predict.Run(ctx, models.PredictedSafe{
		AccountConfig:    models.SafeAccountConfig{Owners: []common.Address{ownerA, ownerB}, Threshold: 1},
		DeploymentConfig: models.SafeDeploymentConfig{Version: "1.4.1", SaltNonce: big.NewInt(3)},
	})
	require.NoError(t, err)

	tx, err := e.create.Run(ctx, usecase.CreateTransactionParams{
		Safe:  res.Account,
		Calls: []models.MetaTransaction{{To: ownerB, Value: "5"}},
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(0), tx.Data.Nonce)
	assert.Equal(t, []common.Address{ownerA, ownerB}, tx.Owners)
	assert.Equal(t, uint64(1), tx.Threshold)
	assert.Equal(t, models.TransactionStatusPending, tx.Status)

	want, err := hashing.Hash(tx.Data, res.Address, res.Account.Caps, big.NewInt(11155111))
	require.NoError(t, err)
	assert.Equal(t, want, tx.SafeTxHash)

	stored, err := e.store.Load(ctx, tx.SafeTxHash)
	require.NoError(t, err)
	assert.Equal(t, tx.SafeTxHash, stored.SafeTxHash)

	// predicted Safes cannot estimate gas
	_, err = e.create.Run(ctx, usecase.CreateTransactionParams{
		Safe:    res.Account,
		Calls:   []models.MetaTransaction{{To: ownerB}},
		Options: builder.Options{GasPrice: "1"},
	})
	assert.ErrorIs(t, err, domain.ErrSafeNotDeployed)
}

func TestCreateTransactionPredictedLegacySafe(t *testing.T) {
	chain := newFakeChain(common.Address{}, contracts.V1_1_1, nil, 0)
	e := newEnv(t, chain, contracts.ContractNetworks{
		11155111: {contracts.V1_1_1: {
			Safe:         common.HexToAddress("0x34CfAC646f301356fAa8B21e94227e3583Fe3F5F"),
			ProxyFactory: common.HexToAddress("0x76E2cFc1F5Fa8F6a5b3fC4c8F4788F0116861F9B"),
		}},
	})
	ctx := context.Background()

	res, err := e.predict.Run(ctx, models.PredictedSafe{
		AccountConfig:    models.SafeAccountConfig{Owners: []common.Address{ownerA}, Threshold: 1},
		DeploymentConfig: models.SafeDeploymentConfig{Version: "1.1.1", SaltNonce: big.NewInt(3)},
	})
	require.NoError(t, err)

	_, err = e.create.Run(ctx, usecase.CreateTransactionParams{
		Safe:    res.Account,
		Calls:   []models.MetaTransaction{{To: ownerB}},
		Options: builder.Options{SafeTxGas: "1"},
	})
	assert.ErrorIs(t, err, domain.ErrSafeNotDeployed)
	assert.ErrorIs(t, err, domain.ErrAccountAbstractionUnavailable)
}
