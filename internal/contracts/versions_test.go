package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-safe/internal/domain"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    SafeVersion
		wantErr bool
	}{
		{name: "plain", input: "1.3.0", want: V1_3_0},
		{name: "v prefix", input: "v1.4.1", want: V1_4_1},
		{name: "l2 suffix", input: "1.3.0+L2", want: V1_3_0},
		{name: "oldest", input: "1.0.0", want: V1_0_0},
		{name: "unknown", input: "1.5.0", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVersion(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrUnsupportedVersion)
				var uv domain.UnsupportedVersionError
				assert.ErrorAs(t, err, &uv)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCapabilitiesMatrix(t *testing.T) {
	tests := []struct {
		version           SafeVersion
		chainID           bool
		guards            bool
		fallback          bool
		moduleGetter      bool
		paginated         bool
		ethSign           bool
		optionalSafeTxGas bool
		predicted         bool
		signMessageLib    bool
	}{
		{version: V1_0_0},
		{version: V1_1_1, fallback: true, paginated: true, ethSign: true},
		{version: V1_2_0, fallback: true, moduleGetter: true, paginated: true, ethSign: true},
		{V1_3_0, true, true, true, true, true, true, true, true, true},
		{V1_4_1, true, true, true, true, true, true, true, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.version), func(t *testing.T) {
			c, err := CapabilitiesOf(tt.version)
			require.NoError(t, err)
			assert.Equal(t, tt.chainID, c.ChainIDInDomain, "chainId in domain")
			assert.Equal(t, tt.guards, c.Guards, "guards")
			assert.Equal(t, tt.fallback, c.FallbackHandler, "fallback handler")
			assert.Equal(t, tt.moduleGetter, c.ModuleEnabledGetter, "isModuleEnabled")
			assert.Equal(t, tt.paginated, c.PaginatedModules, "getModulesPaginated")
			assert.Equal(t, tt.ethSign, c.EthSign, "eth_sign")
			assert.Equal(t, tt.optionalSafeTxGas, c.OptionalSafeTxGas, "optional safeTxGas")
			assert.Equal(t, tt.predicted, c.PredictedFlows, "predicted flows")
			assert.Equal(t, tt.signMessageLib, c.SignMessageLib, "SignMessageLib")
		})
	}
}

func TestCapabilitiesUnknownVersion(t *testing.T) {
	_, err := CapabilitiesOf(SafeVersion("0.9.0"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedVersion)
}

func TestSetupParams(t *testing.T) {
	old, err := CapabilitiesOf(V1_0_0)
	require.NoError(t, err)
	assert.NotContains(t, old.SetupParams, "fallbackHandler")
	assert.Len(t, old.SetupParams, 7)
	assert.True(t, old.DataGasField)

	for _, v := range []SafeVersion{V1_1_1, V1_2_0, V1_3_0, V1_4_1} {
		c, err := CapabilitiesOf(v)
		require.NoError(t, err)
		assert.Equal(t, "fallbackHandler", c.SetupParams[4], v)
		assert.Len(t, c.SetupParams, 8)
		assert.False(t, c.DataGasField, v)
	}
}

func TestRequire(t *testing.T) {
	c, err := CapabilitiesOf(V1_2_0)
	require.NoError(t, err)

	assert.NoError(t, c.Require(c.FallbackHandler, "fallback handler"))

	err = c.Require(c.Guards, "Safe transaction guards")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedOperation)
	assert.Contains(t, err.Error(), "does not support Safe transaction guards functionality")
}

func TestAtLeast(t *testing.T) {
	assert.True(t, V1_4_1.AtLeast(V1_3_0))
	assert.True(t, V1_3_0.AtLeast(V1_3_0))
	assert.False(t, V1_2_0.AtLeast(V1_3_0))
	assert.False(t, V1_0_0.AtLeast(V1_1_1))
}
