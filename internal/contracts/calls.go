package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

// Sentinel is the head of the owner and module linked lists
var Sentinel = common.HexToAddress("0x0000000000000000000000000000000000000001")

// Storage slots read through getStorageAt
var (
	GuardStorageSlot           = common.HexToHash("0x4a204f620c8c5ccdca3fd54d003badd85ba500436a431f0cbda4f558c93c34c8")
	FallbackHandlerStorageSlot = common.HexToHash("0x6c9a6c4a39284e37ed1cf53d337577d14212a4870fb976a4366c693b939918d5")
)

// EncodeSetup builds the setup() initializer for the generation in c.
// fallbackHandler is dropped for 1.0.0, which has no such parameter.
func EncodeSetup(c Capabilities, cfg models.SafeAccountConfig, fallbackHandler common.Address) ([]byte, error) {
	payment, err := models.ParseAmount(cfg.Payment)
	if err != nil {
		return nil, fmt.Errorf("payment: %w", err)
	}
	if !c.FallbackHandler {
		if fallbackHandler != (common.Address{}) {
			if err := c.Require(false, "fallback handler"); err != nil {
				return nil, err
			}
		}
		return SafeABIV100.Pack("setup", cfg.Owners, new(big.Int).SetUint64(cfg.Threshold),
			cfg.To, []byte(cfg.Data), cfg.PaymentToken, payment, cfg.PaymentReceiver)
	}
	return SafeABI.Pack("setup", cfg.Owners, new(big.Int).SetUint64(cfg.Threshold),
		cfg.To, []byte(cfg.Data), fallbackHandler, cfg.PaymentToken, payment, cfg.PaymentReceiver)
}

// EncodeCreateProxyWithNonce builds the factory call that deploys a Safe proxy
func EncodeCreateProxyWithNonce(singleton common.Address, initializer []byte, saltNonce *big.Int) ([]byte, error) {
	return ProxyFactoryABI.Pack("createProxyWithNonce", singleton, initializer, saltNonce)
}

// EncodeExecTransaction builds execTransaction calldata. The selector is the
// same for every generation.
func EncodeExecTransaction(tx models.SafeTransactionData, signatures []byte) ([]byte, error) {
	value, safeTxGas, baseGas, gasPrice, err := tx.Amounts()
	if err != nil {
		return nil, err
	}
	return SafeABI.Pack("execTransaction", tx.To, value, []byte(tx.Data), uint8(tx.Operation),
		safeTxGas, baseGas, gasPrice, tx.GasToken, tx.RefundReceiver, signatures)
}

func EncodeApproveHash(hash common.Hash) ([]byte, error) {
	return SafeABI.Pack("approveHash", hash)
}

func EncodeEnableModule(module common.Address) ([]byte, error) {
	return SafeABI.Pack("enableModule", module)
}

func EncodeDisableModule(prevModule, module common.Address) ([]byte, error) {
	return SafeABI.Pack("disableModule", prevModule, module)
}

func EncodeSetGuard(guard common.Address) ([]byte, error) {
	return SafeABI.Pack("setGuard", guard)
}

func EncodeSetFallbackHandler(handler common.Address) ([]byte, error) {
	return SafeABI.Pack("setFallbackHandler", handler)
}

func EncodeAddOwnerWithThreshold(owner common.Address, threshold uint64) ([]byte, error) {
	return SafeABI.Pack("addOwnerWithThreshold", owner, new(big.Int).SetUint64(threshold))
}

func EncodeRemoveOwner(prevOwner, owner common.Address, threshold uint64) ([]byte, error) {
	return SafeABI.Pack("removeOwner", prevOwner, owner, new(big.Int).SetUint64(threshold))
}

func EncodeSwapOwner(prevOwner, oldOwner, newOwner common.Address) ([]byte, error) {
	return SafeABI.Pack("swapOwner", prevOwner, oldOwner, newOwner)
}

func EncodeChangeThreshold(threshold uint64) ([]byte, error) {
	return SafeABI.Pack("changeThreshold", new(big.Int).SetUint64(threshold))
}

// EncodeSignMessage builds signMessage(bytes). SignMessageLib and the pre-1.3.0
// Safe share the selector; the caller picks the target and operation.
func EncodeSignMessage(message []byte) ([]byte, error) {
	return SignMessageLibABI.Pack("signMessage", message)
}

// ViewCall pairs the calldata of a read-only Safe method with its decoder
type ViewCall struct {
	abi    abi.ABI
	method string
	Data   []byte
}

// NewSafeViewCall packs a read-only call against the Safe ABI of c
func NewSafeViewCall(c Capabilities, method string, args ...any) (*ViewCall, error) {
	return newViewCall(SafeABIFor(c), method, args...)
}

// NewFactoryViewCall packs a read-only call against the proxy factory
func NewFactoryViewCall(method string, args ...any) (*ViewCall, error) {
	return newViewCall(ProxyFactoryABI, method, args...)
}

func newViewCall(parsed abi.ABI, method string, args ...any) (*ViewCall, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	return &ViewCall{abi: parsed, method: method, Data: data}, nil
}

// Decode unpacks the return data of the call
func (v *ViewCall) Decode(out []byte) ([]any, error) {
	values, err := v.abi.Unpack(v.method, out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", v.method, err)
	}
	return values, nil
}

// AddressFromStorage reads an address stored in a single 32-byte slot as
// returned by getStorageAt(slot, 1)
func AddressFromStorage(raw []byte) common.Address {
	if len(raw) < common.AddressLength {
		return common.Address{}
	}
	word := raw
	if len(word) > 32 {
		word = word[:32]
	}
	return common.BytesToAddress(word)
}
