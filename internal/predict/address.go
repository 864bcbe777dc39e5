// Package predict computes counterfactual Safe proxy addresses.
package predict

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/treb-safe/internal/domain"
)

// defaultSaltNonceSeed is hashed together with the chain id to derive the
// salt nonce used when the caller does not provide one
const defaultSaltNonceSeed = "0xb1073742015cbcf5a3a4d9d1ae33ecf619439710b89475f92e2abd2117e90f90"

// DefaultSaltNonce returns keccak256(seed ‖ decimal(chainID)) as an integer
func DefaultSaltNonce(chainID uint64) *big.Int {
	h := crypto.Keccak256([]byte(defaultSaltNonceSeed + strconv.FormatUint(chainID, 10)))
	return new(big.Int).SetBytes(h)
}

// Salt derives the CREATE2 salt the proxy factory uses:
// keccak256(keccak256(initializer) ‖ uint256(saltNonce))
func Salt(initializer []byte, saltNonce *big.Int) (common.Hash, error) {
	if saltNonce == nil || saltNonce.Sign() < 0 {
		return common.Hash{}, domain.ErrInvalidSaltNonce
	}
	if saltNonce.BitLen() > 256 {
		return common.Hash{}, fmt.Errorf("saltNonce does not fit in 256 bits: %w", domain.ErrInvalidSaltNonce)
	}
	nonce := math.U256Bytes(new(big.Int).Set(saltNonce))
	return crypto.Keccak256Hash(crypto.Keccak256(initializer), nonce), nil
}

// Create2Address is the EIP-1014 address of initCode deployed by deployer with salt
func Create2Address(deployer common.Address, salt common.Hash, initCode []byte) common.Address {
	return crypto.CreateAddress2(deployer, salt, crypto.Keccak256(initCode))
}

// ProxyInitCode appends the ABI-encoded singleton to the proxy creation code
func ProxyInitCode(creationCode []byte, singleton common.Address) []byte {
	initCode := make([]byte, 0, len(creationCode)+32)
	initCode = append(initCode, creationCode...)
	return append(initCode, common.LeftPadBytes(singleton.Bytes(), 32)...)
}

// PredictAddress returns the address the factory will deploy a proxy to for
// the given singleton, initializer and salt nonce
func PredictAddress(factory, singleton common.Address, creationCode, initializer []byte, saltNonce *big.Int) (common.Address, error) {
	salt, err := Salt(initializer, saltNonce)
	if err != nil {
		return common.Address{}, err
	}
	return Create2Address(factory, salt, ProxyInitCode(creationCode, singleton)), nil
}
