package contracts

import (
	"fmt"
	"maps"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/treb-safe/internal/domain"
)

// ContractAddresses are the singleton and library addresses of one Safe
// generation on one chain. Zero fields are unavailable.
type ContractAddresses struct {
	Safe               common.Address `json:"safe" toml:"safe"`
	SafeL2             common.Address `json:"safeL2,omitempty" toml:"safe_l2"`
	ProxyFactory       common.Address `json:"proxyFactory" toml:"proxy_factory"`
	MultiSend          common.Address `json:"multiSend" toml:"multi_send"`
	MultiSendCallOnly  common.Address `json:"multiSendCallOnly,omitempty" toml:"multi_send_call_only"`
	FallbackHandler    common.Address `json:"fallbackHandler,omitempty" toml:"fallback_handler"`
	SignMessageLib     common.Address `json:"signMessageLib,omitempty" toml:"sign_message_lib"`
	CreateCall         common.Address `json:"createCall,omitempty" toml:"create_call"`
	SimulateTxAccessor common.Address `json:"simulateTxAccessor,omitempty" toml:"simulate_tx_accessor"`

	// ProxyCreationCode skips the proxyCreationCode() lookup when set
	ProxyCreationCode hexutil.Bytes `json:"proxyCreationCode,omitempty" toml:"proxy_creation_code"`
}

// ContractNetworks maps chain id and version to contract addresses
type ContractNetworks map[uint64]map[SafeVersion]ContractAddresses

// merge overlays the non-zero fields of o onto a
func (a ContractAddresses) merge(o ContractAddresses) ContractAddresses {
	pick := func(dst *common.Address, src common.Address) {
		if src != (common.Address{}) {
			*dst = src
		}
	}
	pick(&a.Safe, o.Safe)
	pick(&a.SafeL2, o.SafeL2)
	pick(&a.ProxyFactory, o.ProxyFactory)
	pick(&a.MultiSend, o.MultiSend)
	pick(&a.MultiSendCallOnly, o.MultiSendCallOnly)
	pick(&a.FallbackHandler, o.FallbackHandler)
	pick(&a.SignMessageLib, o.SignMessageLib)
	pick(&a.CreateCall, o.CreateCall)
	pick(&a.SimulateTxAccessor, o.SimulateTxAccessor)
	if len(o.ProxyCreationCode) > 0 {
		a.ProxyCreationCode = o.ProxyCreationCode
	}
	return a
}

// Canonical deployments, identical on every chain they exist on
var (
	canonicalV100 = ContractAddresses{
		Safe:         common.HexToAddress("0xb6029EA3B2c51D09a50B53CA8012FeEB05bDa35A"),
		ProxyFactory: common.HexToAddress("0x12302fE9c02ff50939BaAaaf415fc226C078613C"),
		MultiSend:    common.HexToAddress("0x8D29bE29923b68abfDD21e541b9374737B49cdAD"),
	}
	canonicalV111 = ContractAddresses{
		Safe:            common.HexToAddress("0x34CfAC646f301356fAa8B21e94227e3583Fe3F5F"),
		ProxyFactory:    common.HexToAddress("0x76E2cFc1F5Fa8F6a5b3fC4c8F4788F0116861F9B"),
		MultiSend:       common.HexToAddress("0x8D29bE29923b68abfDD21e541b9374737B49cdAD"),
		FallbackHandler: common.HexToAddress("0xd5D82B6aDDc9027B22dCA772Aa68D5d74cdBdF44"),
	}
	canonicalV120 = ContractAddresses{
		Safe:            common.HexToAddress("0x6851D6fDFAfD08c0295C392436245E5bc78B0185"),
		ProxyFactory:    common.HexToAddress("0x76E2cFc1F5Fa8F6a5b3fC4c8F4788F0116861F9B"),
		MultiSend:       common.HexToAddress("0x8D29bE29923b68abfDD21e541b9374737B49cdAD"),
		FallbackHandler: common.HexToAddress("0xd5D82B6aDDc9027B22dCA772Aa68D5d74cdBdF44"),
	}
	canonicalV130 = ContractAddresses{
		Safe:               common.HexToAddress("0xd9Db270c1B5E3Bd161E8c8503c55cEABeE709552"),
		SafeL2:             common.HexToAddress("0x3E5c63644E683549055b9Be8653de26E0B4CD36E"),
		ProxyFactory:       common.HexToAddress("0xa6B71E26C5e0845f74c812102Ca7114b6a896AB2"),
		MultiSend:          common.HexToAddress("0xA238CBeb142c10Ef7Ad8442C6D1f9E89e07e7761"),
		MultiSendCallOnly:  common.HexToAddress("0x40A2aCCbd92BCA938b02010E17A5b8929b49130D"),
		FallbackHandler:    common.HexToAddress("0xf48f2B2d2a534e402487b3ee7C18c33Aec0Fe5e4"),
		SignMessageLib:     common.HexToAddress("0xA65387F16B013cf2Af4605Ad8aA5ec25a2cbA3a2"),
		CreateCall:         common.HexToAddress("0x7cbB62EaA69F79e6873cD1ecB2392971036cFAa4"),
		SimulateTxAccessor: common.HexToAddress("0x59AD6735bCd8152B84860Cb256dD9e96b85F69Da"),
	}
	canonicalV141 = ContractAddresses{
		Safe:               common.HexToAddress("0x41675C099F32341bf84BFc5382aF534df5C7461a"),
		SafeL2:             common.HexToAddress("0x29fcB43b46531BcA003ddC8FCB67FFE91900C762"),
		ProxyFactory:       common.HexToAddress("0x4e1DCf7AD4e460CfD30791CCC4F9c8a4f820ec67"),
		MultiSend:          common.HexToAddress("0x38869bf66a61cF6bDB996A6aE40D5853Fd43B526"),
		MultiSendCallOnly:  common.HexToAddress("0x9641d764fc13c8B624c04430C7356C1C7C8102e2"),
		FallbackHandler:    common.HexToAddress("0xfd0732Dc9E303f09fCEf3a7388Ad10A83459Ec99"),
		SignMessageLib:     common.HexToAddress("0xd53cd0aB83D845Ac265BE939c57F53AD838012c9"),
		CreateCall:         common.HexToAddress("0x9b35Af71d77eaf8d7e40252370304687390A1A52"),
		SimulateTxAccessor: common.HexToAddress("0x3d4BA2E0884aa488718476ca2FB8Efc291A46199"),
	}
)

// defaultNetworks is the built-in table. It is never mutated.
var defaultNetworks = func() ContractNetworks {
	modern := map[SafeVersion]ContractAddresses{V1_3_0: canonicalV130, V1_4_1: canonicalV141}
	n := ContractNetworks{
		1: {
			V1_0_0: canonicalV100,
			V1_1_1: canonicalV111,
			V1_2_0: canonicalV120,
			V1_3_0: canonicalV130,
			V1_4_1: canonicalV141,
		},
	}
	for _, chainID := range []uint64{5, 10, 100, 137, 8453, 42161, 11155111} {
		n[chainID] = maps.Clone(modern)
	}
	return n
}()

// DefaultChainIDs lists the chains in the built-in table in ascending order
func DefaultChainIDs() []uint64 {
	return slices.Sorted(maps.Keys(defaultNetworks))
}

// Registry resolves contract addresses from the built-in table and caller overrides
type Registry struct {
	overrides ContractNetworks
}

// NewRegistry returns a registry that layers overrides on top of the built-in table
func NewRegistry(overrides ContractNetworks) *Registry {
	return &Registry{overrides: overrides}
}

// Lookup returns the addresses for version on chainID
func (r *Registry) Lookup(chainID uint64, version SafeVersion) (ContractAddresses, error) {
	if _, err := CapabilitiesOf(version); err != nil {
		return ContractAddresses{}, err
	}
	base, found := defaultNetworks[chainID][version]
	if r != nil {
		if o, ok := r.overrides[chainID][version]; ok {
			base = base.merge(o)
			found = true
		}
	}
	if !found || base.Safe == (common.Address{}) || base.ProxyFactory == (common.Address{}) {
		return ContractAddresses{}, fmt.Errorf("chain %d version %s: %w", chainID, version, domain.ErrContractsNotFound)
	}
	return base, nil
}

// Versions returns the versions available on chainID, oldest first
func (r *Registry) Versions(chainID uint64) []SafeVersion {
	var out []SafeVersion
	for _, v := range Versions {
		if _, err := r.Lookup(chainID, v); err == nil {
			out = append(out, v)
		}
	}
	return out
}
