package signatures

import (
	"bytes"
	"fmt"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

// SignatureLength is the size of one static signature slot
const SignatureLength = 65

// v offsets the Safe uses to tell signature kinds apart
const (
	ecdsaVOffset   = 27
	ethSignVOffset = 31
	approvedHashV  = 1
	contractV      = 0
)

// ApprovedHash returns the static signature of an owner that approved the
// hash on chain, or that submits the transaction itself
func ApprovedHash(owner common.Address) models.Signature {
	data := make([]byte, SignatureLength)
	copy(data[:32], common.LeftPadBytes(owner.Bytes(), 32))
	data[64] = approvedHashV
	return models.Signature{Signer: owner, Data: data, Kind: models.SignatureKindApprovedHash}
}

// Contract returns an EIP-1271 signature produced by a contract owner
func Contract(signer common.Address, data []byte) models.Signature {
	return models.Signature{Signer: signer, Data: slices.Clone(data), Kind: models.SignatureKindContract}
}

// FromRaw converts a 65-byte [r ‖ s ‖ v] signature into an engine signature,
// normalising v from {0,1} and inferring the kind from it
func FromRaw(signer common.Address, raw []byte, ethSign bool) (models.Signature, error) {
	if len(raw) != SignatureLength {
		return models.Signature{}, fmt.Errorf("signature must be %d bytes, got %d: %w", SignatureLength, len(raw), domain.ErrInvalidSignature)
	}
	data := slices.Clone(raw)
	kind := models.SignatureKindECDSA
	switch v := data[64]; {
	case v == 0 || v == 1:
		if ethSign {
			data[64] = v + ethSignVOffset
			kind = models.SignatureKindEthSign
		} else {
			data[64] = v + ecdsaVOffset
		}
	case v == 27 || v == 28:
		if ethSign {
			data[64] = v - ecdsaVOffset + ethSignVOffset
			kind = models.SignatureKindEthSign
		}
	case v == 31 || v == 32:
		kind = models.SignatureKindEthSign
	default:
		return models.Signature{}, fmt.Errorf("unexpected v value %d: %w", v, domain.ErrInvalidSignature)
	}
	return models.Signature{Signer: signer, Data: data, Kind: kind}, nil
}

// Recover returns the address that produced an ECDSA or eth_sign signature over hash
func Recover(hash common.Hash, sig models.Signature) (common.Address, error) {
	if len(sig.Data) != SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes: %w", SignatureLength, domain.ErrInvalidSignature)
	}
	raw := slices.Clone([]byte(sig.Data))
	digest := hash.Bytes()

	switch sig.Kind {
	case models.SignatureKindECDSA:
		if raw[64] != 27 && raw[64] != 28 {
			return common.Address{}, fmt.Errorf("ECDSA signature v must be 27 or 28: %w", domain.ErrInvalidSignature)
		}
		raw[64] -= ecdsaVOffset
	case models.SignatureKindEthSign:
		if raw[64] != 31 && raw[64] != 32 {
			return common.Address{}, fmt.Errorf("eth_sign signature v must be 31 or 32: %w", domain.ErrInvalidSignature)
		}
		raw[64] -= ethSignVOffset
		digest = accounts.TextHash(digest)
	default:
		return common.Address{}, fmt.Errorf("%s signatures cannot be recovered: %w", sig.Kind, domain.ErrInvalidSignature)
	}

	pub, err := crypto.SigToPub(digest, raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("%v: %w", err, domain.ErrInvalidSignature)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Encode concatenates signatures in the layout execTransaction expects:
// sorted by signer, one 65-byte static slot each, followed by the dynamic
// parts of contract signatures in the same order
func Encode(sigs []models.Signature) []byte {
	sorted := slices.Clone(sigs)
	slices.SortFunc(sorted, func(a, b models.Signature) int {
		return bytes.Compare(a.Signer.Bytes(), b.Signer.Bytes())
	})

	staticLen := len(sorted) * SignatureLength
	var static, dynamic []byte
	for _, sig := range sorted {
		if sig.IsStatic() {
			static = append(static, sig.Data...)
			continue
		}
		offset := big.NewInt(int64(staticLen + len(dynamic)))
		static = append(static, common.LeftPadBytes(sig.Signer.Bytes(), 32)...)
		static = append(static, math.U256Bytes(offset)...)
		static = append(static, contractV)

		dynamic = append(dynamic, math.U256Bytes(big.NewInt(int64(len(sig.Data))))...)
		dynamic = append(dynamic, sig.Data...)
	}
	return append(static, dynamic...)
}
