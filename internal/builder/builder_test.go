package builder_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-safe/internal/builder"
	"github.com/trebuchet-org/treb-safe/internal/contracts"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

// MockGasEstimator is a mock implementation of GasEstimator
type MockGasEstimator struct {
	mock.Mock
}

func (m *MockGasEstimator) Estimate(ctx context.Context, req models.EstimateRequest) (uint64, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(uint64), args.Error(1)
}

var (
	safeAddr  = common.HexToAddress("0x1c511d88ba898b4d9cd9113d13b9c360a02fcea1")
	recipient = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func newBuilder(est builder.GasEstimator) *builder.Builder {
	return builder.NewBuilder(est, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func account(t *testing.T, v contracts.SafeVersion, deployed bool) builder.Account {
	t.Helper()
	c, err := contracts.CapabilitiesOf(v)
	require.NoError(t, err)
	addrs, err := contracts.NewRegistry(nil).Lookup(1, v)
	require.NoError(t, err)
	return builder.Account{Address: safeAddr, Caps: c, Contracts: addrs, Deployed: deployed, Nonce: 7}
}

func TestBuildEmptyBatch(t *testing.T) {
	_, err := newBuilder(nil).Build(context.Background(), account(t, contracts.V1_4_1, true), nil, builder.Options{})
	assert.ErrorIs(t, err, domain.ErrEmptyBatch)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBuildSingleCall(t *testing.T) {
	est := &MockGasEstimator{}
	b := newBuilder(est)

	tx, err := b.Build(context.Background(), account(t, contracts.V1_4_1, true), []models.MetaTransaction{
		{To: recipient, Value: "1000", Data: hexutil.MustDecode("0xabcdef")},
	}, builder.Options{})
	require.NoError(t, err)

	assert.Equal(t, recipient, tx.To)
	assert.Equal(t, "1000", tx.Value)
	assert.Equal(t, hexutil.Bytes(hexutil.MustDecode("0xabcdef")), tx.Data)
	assert.Equal(t, models.OperationCall, tx.Operation)
	assert.Equal(t, "0", tx.SafeTxGas)
	assert.Equal(t, "0", tx.BaseGas)
	assert.Equal(t, "0", tx.GasPrice)
	assert.Equal(t, common.Address{}, tx.GasToken)
	assert.Equal(t, common.Address{}, tx.RefundReceiver)
	assert.Equal(t, uint64(7), tx.Nonce)
	est.AssertNotCalled(t, "Estimate", mock.Anything, mock.Anything)
}

func TestBuildBatch(t *testing.T) {
	calls := []models.MetaTransaction{
		{To: recipient, Value: "1", Data: hexutil.MustDecode("0x01")},
		{To: safeAddr, Value: "0", Data: hexutil.MustDecode("0x0203")},
		{To: common.HexToAddress("0x3333333333333333333333333333333333333333"), Value: "5"},
	}
	acct := account(t, contracts.V1_3_0, true)

	tx, err := newBuilder(nil).Build(context.Background(), acct, calls, builder.Options{})
	require.NoError(t, err)

	assert.Equal(t, acct.Contracts.MultiSend, tx.To)
	assert.Equal(t, "0", tx.Value)
	assert.Equal(t, models.OperationDelegateCall, tx.Operation)

	decoded, err := contracts.DecodeMultiSend(tx.Data)
	require.NoError(t, err)
	require.Len(t, decoded, len(calls))
	for i := range calls {
		assert.Equal(t, calls[i].To, decoded[i].To, "call %d", i)
		assert.Equal(t, calls[i].Value, decoded[i].Value, "call %d", i)
	}
}

func TestBuildBatchOnlyCalls(t *testing.T) {
	acct := account(t, contracts.V1_4_1, true)
	calls := []models.MetaTransaction{{To: recipient, Value: "1"}, {To: recipient, Value: "2"}}

	tx, err := newBuilder(nil).Build(context.Background(), acct, calls, builder.Options{OnlyCalls: true})
	require.NoError(t, err)
	assert.Equal(t, acct.Contracts.MultiSendCallOnly, tx.To)

	calls[1].Operation = models.OperationDelegateCall
	_, err = newBuilder(nil).Build(context.Background(), acct, calls, builder.Options{OnlyCalls: true})
	assert.ErrorIs(t, err, domain.ErrInvalidCall)

	old := account(t, contracts.V1_2_0, true)
	calls[1].Operation = models.OperationCall
	_, err = newBuilder(nil).Build(context.Background(), old, calls, builder.Options{OnlyCalls: true, SafeTxGas: "1"})
	assert.ErrorIs(t, err, domain.ErrContractsNotFound)
}

func TestBuildSafeTxGasDefaults(t *testing.T) {
	call := []models.MetaTransaction{{To: recipient, Value: "1"}}

	tests := []struct {
		name         string
		version      contracts.SafeVersion
		opts         builder.Options
		wantEstimate bool
		want         string
	}{
		{name: "1.4.1 zero gas price", version: contracts.V1_4_1, want: "0"},
		{name: "1.3.0 zero gas price", version: contracts.V1_3_0, want: "0"},
		{name: "1.3.0 with gas price", version: contracts.V1_3_0, opts: builder.Options{GasPrice: "10"}, wantEstimate: true, want: "45000"},
		{name: "1.2.0 always estimates", version: contracts.V1_2_0, wantEstimate: true, want: "45000"},
		{name: "1.0.0 always estimates", version: contracts.V1_0_0, wantEstimate: true, want: "45000"},
		{name: "caller value wins", version: contracts.V1_1_1, opts: builder.Options{SafeTxGas: "123"}, want: "123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := &MockGasEstimator{}
			if tt.wantEstimate {
				est.On("Estimate", mock.Anything, mock.MatchedBy(func(req models.EstimateRequest) bool {
					return req.From == safeAddr && req.To == recipient && req.Value.Int64() == 1 && req.Method == builder.EstimateSafeTxGas
				})).Return(uint64(45000), nil).Once()
			}

			tx, err := newBuilder(est).Build(context.Background(), account(t, tt.version, true), call, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tx.SafeTxGas)

			if tt.wantEstimate {
				est.AssertExpectations(t)
			} else {
				est.AssertNotCalled(t, "Estimate", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestBuildPredictedAccount(t *testing.T) {
	call := []models.MetaTransaction{{To: recipient, Value: "1"}}

	t.Run("nonce is zero", func(t *testing.T) {
		tx, err := newBuilder(nil).Build(context.Background(), account(t, contracts.V1_3_0, false), call, builder.Options{})
		require.NoError(t, err)
		assert.Equal(t, uint64(0), tx.Nonce)
	})

	t.Run("below 1.3.0", func(t *testing.T) {
		_, err := newBuilder(nil).Build(context.Background(), account(t, contracts.V1_2_0, false), call, builder.Options{})
		assert.ErrorIs(t, err, domain.ErrSafeNotDeployed)
		assert.ErrorIs(t, err, domain.ErrNotDeployed)
		assert.Contains(t, err.Error(), "lower than v1.3.0")
	})

	t.Run("needs estimation", func(t *testing.T) {
		est := &MockGasEstimator{}
		_, err := newBuilder(est).Build(context.Background(), account(t, contracts.V1_4_1, false), call, builder.Options{GasPrice: "1"})
		assert.ErrorIs(t, err, domain.ErrSafeNotDeployed)
		est.AssertNotCalled(t, "Estimate", mock.Anything, mock.Anything)
	})
}

func TestBuildEstimatorFailure(t *testing.T) {
	rpcErr := errors.New("execution reverted")
	est := &MockGasEstimator{}
	est.On("Estimate", mock.Anything, mock.Anything).Return(uint64(0), rpcErr)

	_, err := newBuilder(est).Build(context.Background(), account(t, contracts.V1_1_1, true),
		[]models.MetaTransaction{{To: recipient}}, builder.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCollaborator)
	assert.ErrorIs(t, err, rpcErr)
}

func TestBuildExplicitOptions(t *testing.T) {
	nonce := uint64(42)
	gasToken := common.HexToAddress("0x4444444444444444444444444444444444444444")
	opts := builder.Options{
		SafeTxGas:      "100",
		BaseGas:        "200",
		GasPrice:       "300",
		GasToken:       gasToken,
		RefundReceiver: recipient,
		Nonce:          &nonce,
	}

	tx, err := newBuilder(nil).Build(context.Background(), account(t, contracts.V1_4_1, true),
		[]models.MetaTransaction{{To: recipient}}, opts)
	require.NoError(t, err)
	assert.Equal(t, "100", tx.SafeTxGas)
	assert.Equal(t, "200", tx.BaseGas)
	assert.Equal(t, "300", tx.GasPrice)
	assert.Equal(t, gasToken, tx.GasToken)
	assert.Equal(t, recipient, tx.RefundReceiver)
	assert.Equal(t, uint64(42), tx.Nonce)
	assert.Equal(t, "0", tx.Value)

	opts.BaseGas = "-1"
	_, err = newBuilder(nil).Build(context.Background(), account(t, contracts.V1_4_1, true),
		[]models.MetaTransaction{{To: recipient}}, opts)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}
