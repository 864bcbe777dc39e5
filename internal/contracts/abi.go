package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Method fragments shared by every Safe generation
const safeCommonABI = `
{"type":"function","name":"execTransaction","stateMutability":"payable","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"},{"name":"operation","type":"uint8"},{"name":"safeTxGas","type":"uint256"},{"name":"baseGas","type":"uint256"},{"name":"gasPrice","type":"uint256"},{"name":"gasToken","type":"address"},{"name":"refundReceiver","type":"address"},{"name":"signatures","type":"bytes"}],"outputs":[{"name":"success","type":"bool"}]},
{"type":"function","name":"approveHash","stateMutability":"nonpayable","inputs":[{"name":"hashToApprove","type":"bytes32"}],"outputs":[]},
{"type":"function","name":"approvedHashes","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"hash","type":"bytes32"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"nonce","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"VERSION","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"getThreshold","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"getOwners","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]},
{"type":"function","name":"isOwner","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"getModules","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]},
{"type":"function","name":"getModulesPaginated","stateMutability":"view","inputs":[{"name":"start","type":"address"},{"name":"pageSize","type":"uint256"}],"outputs":[{"name":"array","type":"address[]"},{"name":"next","type":"address"}]},
{"type":"function","name":"isModuleEnabled","stateMutability":"view","inputs":[{"name":"module","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"enableModule","stateMutability":"nonpayable","inputs":[{"name":"module","type":"address"}],"outputs":[]},
{"type":"function","name":"disableModule","stateMutability":"nonpayable","inputs":[{"name":"prevModule","type":"address"},{"name":"module","type":"address"}],"outputs":[]},
{"type":"function","name":"setGuard","stateMutability":"nonpayable","inputs":[{"name":"guard","type":"address"}],"outputs":[]},
{"type":"function","name":"setFallbackHandler","stateMutability":"nonpayable","inputs":[{"name":"handler","type":"address"}],"outputs":[]},
{"type":"function","name":"getStorageAt","stateMutability":"view","inputs":[{"name":"offset","type":"uint256"},{"name":"length","type":"uint256"}],"outputs":[{"name":"","type":"bytes"}]},
{"type":"function","name":"addOwnerWithThreshold","stateMutability":"nonpayable","inputs":[{"name":"owner","type":"address"},{"name":"_threshold","type":"uint256"}],"outputs":[]},
{"type":"function","name":"removeOwner","stateMutability":"nonpayable","inputs":[{"name":"prevOwner","type":"address"},{"name":"owner","type":"address"},{"name":"_threshold","type":"uint256"}],"outputs":[]},
{"type":"function","name":"swapOwner","stateMutability":"nonpayable","inputs":[{"name":"prevOwner","type":"address"},{"name":"oldOwner","type":"address"},{"name":"newOwner","type":"address"}],"outputs":[]},
{"type":"function","name":"changeThreshold","stateMutability":"nonpayable","inputs":[{"name":"_threshold","type":"uint256"}],"outputs":[]},
{"type":"function","name":"signMessage","stateMutability":"nonpayable","inputs":[{"name":"_data","type":"bytes"}],"outputs":[]}`

const setupABIV100 = `
{"type":"function","name":"setup","stateMutability":"nonpayable","inputs":[{"name":"_owners","type":"address[]"},{"name":"_threshold","type":"uint256"},{"name":"to","type":"address"},{"name":"data","type":"bytes"},{"name":"paymentToken","type":"address"},{"name":"payment","type":"uint256"},{"name":"paymentReceiver","type":"address"}],"outputs":[]}`

const setupABI = `
{"type":"function","name":"setup","stateMutability":"nonpayable","inputs":[{"name":"_owners","type":"address[]"},{"name":"_threshold","type":"uint256"},{"name":"to","type":"address"},{"name":"data","type":"bytes"},{"name":"fallbackHandler","type":"address"},{"name":"paymentToken","type":"address"},{"name":"payment","type":"uint256"},{"name":"paymentReceiver","type":"address"}],"outputs":[]}`

const proxyFactoryABI = `[
{"type":"function","name":"createProxyWithNonce","stateMutability":"nonpayable","inputs":[{"name":"_singleton","type":"address"},{"name":"initializer","type":"bytes"},{"name":"saltNonce","type":"uint256"}],"outputs":[{"name":"proxy","type":"address"}]},
{"type":"function","name":"proxyCreationCode","stateMutability":"pure","inputs":[],"outputs":[{"name":"","type":"bytes"}]}]`

const multiSendABI = `[
{"type":"function","name":"multiSend","stateMutability":"payable","inputs":[{"name":"transactions","type":"bytes"}],"outputs":[]}]`

const signMessageLibABI = `[
{"type":"function","name":"signMessage","stateMutability":"nonpayable","inputs":[{"name":"_data","type":"bytes"}],"outputs":[]},
{"type":"function","name":"getMessageHash","stateMutability":"view","inputs":[{"name":"message","type":"bytes"}],"outputs":[{"name":"","type":"bytes32"}]}]`

// Parsed ABIs. 1.0.0 has its own setup() without a fallback handler.
var (
	SafeABIV100       = mustParseABI("[" + safeCommonABI + "," + setupABIV100 + "]")
	SafeABI           = mustParseABI("[" + safeCommonABI + "," + setupABI + "]")
	ProxyFactoryABI   = mustParseABI(proxyFactoryABI)
	MultiSendABI      = mustParseABI(multiSendABI)
	SignMessageLibABI = mustParseABI(signMessageLibABI)
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic("contracts: invalid ABI: " + err.Error())
	}
	return parsed
}

// SafeABIFor returns the Safe ABI matching the generation of c
func SafeABIFor(c Capabilities) abi.ABI {
	if c.Version == V1_0_0 {
		return SafeABIV100
	}
	return SafeABI
}
