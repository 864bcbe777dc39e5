// Package hashing computes the EIP-712 SafeTx digest signed by Safe owners.
package hashing

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/trebuchet-org/treb-safe/internal/contracts"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

var (
	SafeTxTypeHash = crypto.Keccak256Hash([]byte(
		"SafeTx(address to,uint256 value,bytes data,uint8 operation,uint256 safeTxGas,uint256 baseGas,uint256 gasPrice,address gasToken,address refundReceiver,uint256 nonce)"))

	// DataGasSafeTxTypeHash is the 1.0.0 type, where baseGas was called dataGas
	DataGasSafeTxTypeHash = crypto.Keccak256Hash([]byte(
		"SafeTx(address to,uint256 value,bytes data,uint8 operation,uint256 safeTxGas,uint256 dataGas,uint256 gasPrice,address gasToken,address refundReceiver,uint256 nonce)"))

	// DomainTypeHash is used from 1.3.0 on
	DomainTypeHash = crypto.Keccak256Hash([]byte("EIP712Domain(uint256 chainId,address verifyingContract)"))

	// LegacyDomainTypeHash omits the chain id
	LegacyDomainTypeHash = crypto.Keccak256Hash([]byte("EIP712Domain(address verifyingContract)"))
)

var (
	bytes32Type, _ = abi.NewType("bytes32", "", nil)
	addressType, _ = abi.NewType("address", "", nil)
	uint256Type, _ = abi.NewType("uint256", "", nil)
	uint8Type, _   = abi.NewType("uint8", "", nil)

	domainArgs       = abi.Arguments{{Type: bytes32Type}, {Type: uint256Type}, {Type: addressType}}
	legacyDomainArgs = abi.Arguments{{Type: bytes32Type}, {Type: addressType}}
	safeTxArgs       = abi.Arguments{
		{Type: bytes32Type}, // typehash
		{Type: addressType}, // to
		{Type: uint256Type}, // value
		{Type: bytes32Type}, // keccak256(data)
		{Type: uint8Type},   // operation
		{Type: uint256Type}, // safeTxGas
		{Type: uint256Type}, // baseGas
		{Type: uint256Type}, // gasPrice
		{Type: addressType}, // gasToken
		{Type: addressType}, // refundReceiver
		{Type: uint256Type}, // nonce
	}
)

// DomainSeparator hashes the Safe's EIP-712 domain. chainID is only part of
// the domain when the generation supports it.
func DomainSeparator(c contracts.Capabilities, safe common.Address, chainID *big.Int) (common.Hash, error) {
	var (
		encoded []byte
		err     error
	)
	if c.ChainIDInDomain {
		if chainID == nil {
			return common.Hash{}, fmt.Errorf("chain id is required for Safe %s", c.Version)
		}
		encoded, err = domainArgs.Pack(DomainTypeHash, chainID, safe)
	} else {
		encoded, err = legacyDomainArgs.Pack(LegacyDomainTypeHash, safe)
	}
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode domain: %w", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}

// TypeHash returns the SafeTx typehash of the generation
func TypeHash(c contracts.Capabilities) common.Hash {
	if c.DataGasField {
		return DataGasSafeTxTypeHash
	}
	return SafeTxTypeHash
}

// baseGasField is the name of the fifth gas field in the SafeTx type
func baseGasField(c contracts.Capabilities) string {
	if c.DataGasField {
		return "dataGas"
	}
	return "baseGas"
}

// StructHash hashes the ten SafeTx fields
func StructHash(c contracts.Capabilities, tx models.SafeTransactionData) (common.Hash, error) {
	value, safeTxGas, baseGas, gasPrice, err := tx.Amounts()
	if err != nil {
		return common.Hash{}, err
	}
	encoded, err := safeTxArgs.Pack(
		TypeHash(c),
		tx.To,
		value,
		crypto.Keccak256Hash(tx.Data),
		uint8(tx.Operation),
		safeTxGas,
		baseGas,
		gasPrice,
		tx.GasToken,
		tx.RefundReceiver,
		new(big.Int).SetUint64(tx.Nonce),
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode SafeTx: %w", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}

// Hash returns keccak256(0x19 ‖ 0x01 ‖ domainSeparator ‖ structHash), the
// safeTxHash that owners sign
func Hash(tx models.SafeTransactionData, safe common.Address, c contracts.Capabilities, chainID *big.Int) (common.Hash, error) {
	if err := tx.Validate(); err != nil {
		return common.Hash{}, err
	}
	domainSeparator, err := DomainSeparator(c, safe, chainID)
	if err != nil {
		return common.Hash{}, err
	}
	structHash, err := StructHash(c, tx)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, domainSeparator.Bytes(), structHash.Bytes()), nil
}

// TypedData builds the eth_signTypedData_v4 document for tx. Its hash is the
// same digest Hash returns.
func TypedData(tx models.SafeTransactionData, safe common.Address, c contracts.Capabilities, chainID *big.Int) apitypes.TypedData {
	domainType := []apitypes.Type{{Name: "verifyingContract", Type: "address"}}
	domain := apitypes.TypedDataDomain{VerifyingContract: safe.Hex()}
	if c.ChainIDInDomain && chainID != nil {
		domainType = append([]apitypes.Type{{Name: "chainId", Type: "uint256"}}, domainType...)
		domain.ChainId = (*math.HexOrDecimal256)(new(big.Int).Set(chainID))
	}

	gasField := baseGasField(c)
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": domainType,
			"SafeTx": {
				{Name: "to", Type: "address"},
				{Name: "value", Type: "uint256"},
				{Name: "data", Type: "bytes"},
				{Name: "operation", Type: "uint8"},
				{Name: "safeTxGas", Type: "uint256"},
				{Name: gasField, Type: "uint256"},
				{Name: "gasPrice", Type: "uint256"},
				{Name: "gasToken", Type: "address"},
				{Name: "refundReceiver", Type: "address"},
				{Name: "nonce", Type: "uint256"},
			},
		},
		PrimaryType: "SafeTx",
		Domain:      domain,
		Message: apitypes.TypedDataMessage{
			"to":             tx.To.Hex(),
			"value":          orZero(tx.Value),
			"data":           hexutil.Bytes(tx.Data),
			"operation":      fmt.Sprint(uint8(tx.Operation)),
			"safeTxGas":      orZero(tx.SafeTxGas),
			gasField:         orZero(tx.BaseGas),
			"gasPrice":       orZero(tx.GasPrice),
			"gasToken":       tx.GasToken.Hex(),
			"refundReceiver": tx.RefundReceiver.Hex(),
			"nonce":          fmt.Sprint(tx.Nonce),
		},
	}
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
