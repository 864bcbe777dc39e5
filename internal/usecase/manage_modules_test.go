package usecase_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-safe/internal/builder"
	"github.com/trebuchet-org/treb-safe/internal/contracts"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

var (
	moduleA = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	moduleB = common.HexToAddress("0x00000000000000000000000000000000000000d2")
	guard   = common.HexToAddress("0x00000000000000000000000000000000000000e1")
)

func connect(t *testing.T, e *env) *usecase.SafeAccount {
	t.Helper()
	safe, err := e.connect.Run(context.Background(), usecase.ConnectSafeParams{Address: safeAddress})
	require.NoError(t, err)
	return safe
}

func assertSelfCall(t *testing.T, tx *models.SafeTransaction, want []byte) {
	t.Helper()
	assert.Equal(t, safeAddress, tx.Data.To)
	assert.Equal(t, "0", tx.Data.Value)
	assert.Equal(t, models.OperationCall, tx.Data.Operation)
	assert.Equal(t, want, []byte(tx.Data.Data))
}

func TestManageModules(t *testing.T) {
	e, _ := deployedSafe(t, contracts.V1_3_0, 1, 1)
	e.chain.modules = []common.Address{moduleA, moduleB}
	safe := connect(t, e)
	ctx := context.Background()

	modules, err := safe.Modules(ctx)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{moduleA, moduleB}, modules)

	enabled, err := safe.IsModuleEnabled(ctx, moduleB)
	require.NoError(t, err)
	assert.True(t, enabled)

	module := common.HexToAddress("0x00000000000000000000000000000000000000d3")
	tx, err := e.modules.EnableModule(ctx, safe, module, builder.Options{})
	require.NoError(t, err)
	want, err := contracts.EncodeEnableModule(module)
	require.NoError(t, err)
	assertSelfCall(t, tx, want)

	tx, err = e.modules.DisableModule(ctx, safe, moduleB, builder.Options{})
	require.NoError(t, err)
	want, err = contracts.EncodeDisableModule(moduleA, moduleB)
	require.NoError(t, err)
	assertSelfCall(t, tx, want)

	tx, err = e.modules.DisableModule(ctx, safe, moduleA, builder.Options{})
	require.NoError(t, err)
	want, err = contracts.EncodeDisableModule(contracts.Sentinel, moduleA)
	require.NoError(t, err)
	assertSelfCall(t, tx, want)
}

func TestModulesAcrossPages(t *testing.T) {
	modules := make([]common.Address, 120)
	for i := range modules {
		modules[i] = common.BigToAddress(big.NewInt(int64(0x1000 + i)))
	}

	for _, v := range []contracts.SafeVersion{contracts.V1_1_1, contracts.V1_3_0, contracts.V1_4_1} {
		t.Run(string(v), func(t *testing.T) {
			e, _ := deployedSafe(t, v, 1, 1)
			e.chain.modules = modules
			safe := connect(t, e)
			ctx := context.Background()

			got, err := safe.Modules(ctx)
			require.NoError(t, err)
			assert.Equal(t, modules, got)

			// first module of the second page
			tx, err := e.modules.DisableModule(ctx, safe, modules[50], builder.Options{})
			require.NoError(t, err)
			want, err := contracts.EncodeDisableModule(modules[49], modules[50])
			require.NoError(t, err)
			assertSelfCall(t, tx, want)
		})
	}
}

func TestManageModulesErrors(t *testing.T) {
	tests := []struct {
		name    string
		version contracts.SafeVersion
		run     func(ctx context.Context, e *env, safe *usecase.SafeAccount) error
		wantErr error
	}{
		{
			name:    "enable zero module",
			version: contracts.V1_3_0,
			run: func(ctx context.Context, e *env, safe *usecase.SafeAccount) error {
				_, err := e.modules.EnableModule(ctx, safe, common.Address{}, builder.Options{})
				return err
			},
			wantErr: domain.ErrInvalidAddress,
		},
		{
			name:    "enable sentinel module",
			version: contracts.V1_3_0,
			run: func(ctx context.Context, e *env, safe *usecase.SafeAccount) error {
				_, err := e.modules.EnableModule(ctx, safe, contracts.Sentinel, builder.Options{})
				return err
			},
			wantErr: domain.ErrInvalidAddress,
		},
		{
			name:    "enable enabled module",
			version: contracts.V1_3_0,
			run: func(ctx context.Context, e *env, safe *usecase.SafeAccount) error {
				_, err := e.modules.EnableModule(ctx, safe, moduleA, builder.Options{})
				return err
			},
			wantErr: domain.ErrAlreadyEnabled,
		},
		{
			name:    "disable unknown module",
			version: contracts.V1_3_0,
			run: func(ctx context.Context, e *env, safe *usecase.SafeAccount) error {
				_, err := e.modules.DisableModule(ctx, safe, moduleB, builder.Options{})
				return err
			},
			wantErr: domain.ErrNotEnabled,
		},
		{
			name:    "guard before 1.3.0",
			version: contracts.V1_2_0,
			run: func(ctx context.Context, e *env, safe *usecase.SafeAccount) error {
				_, err := e.modules.EnableGuard(ctx, safe, guard, builder.Options{SafeTxGas: "0"})
				return err
			},
			wantErr: domain.ErrUnsupportedOperation,
		},
		{
			name:    "disable missing guard",
			version: contracts.V1_3_0,
			run: func(ctx context.Context, e *env, safe *usecase.SafeAccount) error {
				_, err := e.modules.DisableGuard(ctx, safe, builder.Options{})
				return err
			},
			wantErr: domain.ErrNotEnabled,
		},
		{
			name:    "fallback handler on 1.0.0",
			version: contracts.V1_0_0,
			run: func(ctx context.Context, e *env, safe *usecase.SafeAccount) error {
				_, err := e.modules.EnableFallbackHandler(ctx, safe, guard, builder.Options{SafeTxGas: "0"})
				return err
			},
			wantErr: domain.ErrUnsupportedOperation,
		},
		{
			name:    "disable missing fallback handler",
			version: contracts.V1_3_0,
			run: func(ctx context.Context, e *env, safe *usecase.SafeAccount) error {
				_, err := e.modules.DisableFallbackHandler(ctx, safe, builder.Options{})
				return err
			},
			wantErr: domain.ErrNotEnabled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := deployedSafe(t, tt.version, 1, 1)
			e.chain.modules = []common.Address{moduleA}
			safe := connect(t, e)

			err := tt.run(context.Background(), e, safe)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestManageGuard(t *testing.T) {
	e, _ := deployedSafe(t, contracts.V1_4_1, 1, 1)
	safe := connect(t, e)
	ctx := context.Background()

	tx, err := e.modules.EnableGuard(ctx, safe, guard, builder.Options{})
	require.NoError(t, err)
	want, err := contracts.EncodeSetGuard(guard)
	require.NoError(t, err)
	assertSelfCall(t, tx, want)

	e.chain.guard = guard
	current, err := safe.Guard(ctx)
	require.NoError(t, err)
	assert.Equal(t, guard, current)

	_, err = e.modules.EnableGuard(ctx, safe, guard, builder.Options{})
	assert.ErrorIs(t, err, domain.ErrAlreadyEnabled)

	tx, err = e.modules.DisableGuard(ctx, safe, builder.Options{})
	require.NoError(t, err)
	want, err = contracts.EncodeSetGuard(common.Address{})
	require.NoError(t, err)
	assertSelfCall(t, tx, want)
}

func TestManageFallbackHandler(t *testing.T) {
	e, _ := deployedSafe(t, contracts.V1_3_0, 1, 1)
	handler := common.HexToAddress("0x00000000000000000000000000000000000000f1")
	e.chain.fallback = handler
	safe := connect(t, e)
	ctx := context.Background()

	current, err := safe.FallbackHandler(ctx)
	require.NoError(t, err)
	assert.Equal(t, handler, current)

	_, err = e.modules.EnableFallbackHandler(ctx, safe, handler, builder.Options{})
	assert.ErrorIs(t, err, domain.ErrAlreadyEnabled)

	next := common.HexToAddress("0x00000000000000000000000000000000000000f2")
	tx, err := e.modules.EnableFallbackHandler(ctx, safe, next, builder.Options{})
	require.NoError(t, err)
	want, err := contracts.EncodeSetFallbackHandler(next)
	require.NoError(t, err)
	assertSelfCall(t, tx, want)

	tx, err = e.modules.DisableFallbackHandler(ctx, safe, builder.Options{})
	require.NoError(t, err)
	want, err = contracts.EncodeSetFallbackHandler(common.Address{})
	require.NoError(t, err)
	assertSelfCall(t, tx, want)
}

func TestSignMessage(t *testing.T) {
	message := []byte("hello safe")

	t.Run("delegate calls SignMessageLib", func(t *testing.T) {
		e, _ := deployedSafe(t, contracts.V1_3_0, 1, 1)
		safe := connect(t, e)

		tx, err := e.modules.SignMessage(context.Background(), safe, message, builder.Options{})
		require.NoError(t, err)
		assert.Equal(t, safe.Contracts.SignMessageLib, tx.Data.To)
		assert.Equal(t, models.OperationDelegateCall, tx.Data.Operation)
	})

	t.Run("calls the Safe before 1.3.0", func(t *testing.T) {
		e, _ := deployedSafe(t, contracts.V1_2_0, 1, 1)
		safe := connect(t, e)

		tx, err := e.modules.SignMessage(context.Background(), safe, message, builder.Options{SafeTxGas: "0"})
		require.NoError(t, err)
		want, err := contracts.EncodeSignMessage(message)
		require.NoError(t, err)
		assertSelfCall(t, tx, want)
	})
}
