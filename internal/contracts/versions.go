package contracts

import (
	"strings"

	"github.com/trebuchet-org/treb-safe/internal/domain"
)

// SafeVersion is one of the supported Safe contract generations
type SafeVersion string

const (
	V1_0_0 SafeVersion = "1.0.0"
	V1_1_1 SafeVersion = "1.1.1"
	V1_2_0 SafeVersion = "1.2.0"
	V1_3_0 SafeVersion = "1.3.0"
	V1_4_1 SafeVersion = "1.4.1"
)

// DefaultVersion is used when neither the caller nor the chain names a version
const DefaultVersion = V1_4_1

// Versions lists the supported generations, oldest first
var Versions = []SafeVersion{V1_0_0, V1_1_1, V1_2_0, V1_3_0, V1_4_1}

// ParseVersion accepts "1.3.0", "v1.3.0" and the "+L2" suffix reported by L2 singletons
func ParseVersion(s string) (SafeVersion, error) {
	v := strings.TrimPrefix(strings.TrimSpace(s), "v")
	v, _, _ = strings.Cut(v, "+")
	for _, known := range Versions {
		if string(known) == v {
			return known, nil
		}
	}
	return "", domain.UnsupportedVersionError{Version: s}
}

func (v SafeVersion) ordinal() int {
	for i, known := range Versions {
		if known == v {
			return i
		}
	}
	return -1
}

// AtLeast reports whether v is the same generation as other or newer
func (v SafeVersion) AtLeast(other SafeVersion) bool {
	return v.ordinal() >= other.ordinal()
}

func (v SafeVersion) String() string {
	return string(v)
}

// Capabilities is the static feature set of a contract generation
type Capabilities struct {
	Version SafeVersion

	// ChainIDInDomain adds chainId to the EIP-712 domain
	ChainIDInDomain bool
	Guards          bool
	FallbackHandler bool

	// ModuleEnabledGetter means isModuleEnabled(address) exists on the contract
	ModuleEnabledGetter bool
	PaginatedModules    bool
	EthSign             bool

	// OptionalSafeTxGas means safeTxGas may be 0 when gasPrice is 0
	OptionalSafeTxGas bool
	PredictedFlows    bool
	SignMessageLib    bool

	// DataGasField names the fifth gas field of SafeTx dataGas instead of baseGas
	DataGasField bool

	// SetupParams is the ordered parameter list of setup()
	SetupParams []string
}

var setupParamsV100 = []string{"owners", "threshold", "to", "data", "paymentToken", "payment", "paymentReceiver"}
var setupParams = []string{"owners", "threshold", "to", "data", "fallbackHandler", "paymentToken", "payment", "paymentReceiver"}

var capabilities = func() map[SafeVersion]Capabilities {
	m := make(map[SafeVersion]Capabilities, len(Versions))
	for _, v := range Versions {
		c := Capabilities{
			Version:             v,
			ChainIDInDomain:     v.AtLeast(V1_3_0),
			Guards:              v.AtLeast(V1_3_0),
			FallbackHandler:     v.AtLeast(V1_1_1),
			ModuleEnabledGetter: v.AtLeast(V1_2_0),
			PaginatedModules:    v.AtLeast(V1_1_1),
			EthSign:             v.AtLeast(V1_1_1),
			OptionalSafeTxGas:   v.AtLeast(V1_3_0),
			PredictedFlows:      v.AtLeast(V1_3_0),
			SignMessageLib:      v.AtLeast(V1_3_0),
			SetupParams:         setupParams,
			DataGasField:        v == V1_0_0,
		}
		if v == V1_0_0 {
			c.SetupParams = setupParamsV100
		}
		m[v] = c
	}
	return m
}()

// CapabilitiesOf returns the capability descriptor for v
func CapabilitiesOf(v SafeVersion) (Capabilities, error) {
	c, ok := capabilities[v]
	if !ok {
		return Capabilities{}, domain.UnsupportedVersionError{Version: string(v)}
	}
	return c, nil
}

// Require returns an UnsupportedOperationError naming feature when supported is false
func (c Capabilities) Require(supported bool, feature string) error {
	if supported {
		return nil
	}
	return domain.UnsupportedOperationError{Feature: feature, Version: string(c.Version)}
}
