package models

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// SignatureKind is how a Safe owner authorised a transaction
type SignatureKind string

const (
	SignatureKindECDSA        SignatureKind = "ECDSA"
	SignatureKindEthSign      SignatureKind = "ETH_SIGN"
	SignatureKindContract     SignatureKind = "CONTRACT_SIGNATURE"
	SignatureKindApprovedHash SignatureKind = "APPROVED_HASH"
)

// ParseSignatureKind accepts the kind names used by the Safe Transaction Service
func ParseSignatureKind(s string) (SignatureKind, error) {
	switch strings.ToUpper(s) {
	case "EOA", string(SignatureKindECDSA):
		return SignatureKindECDSA, nil
	case string(SignatureKindEthSign):
		return SignatureKindEthSign, nil
	case string(SignatureKindContract):
		return SignatureKindContract, nil
	case string(SignatureKindApprovedHash):
		return SignatureKindApprovedHash, nil
	}
	return "", fmt.Errorf("unknown signature type %q", s)
}

// Signature is one owner's authorisation of a safeTxHash
type Signature struct {
	Signer common.Address `json:"signer"`
	Data   hexutil.Bytes  `json:"data"`
	Kind   SignatureKind  `json:"kind"`
}

// IsStatic reports whether the signature fits entirely in a 65-byte slot
func (s Signature) IsStatic() bool {
	return s.Kind != SignatureKindContract
}
