// Package signatures collects owner signatures for a safeTxHash and encodes
// them for execTransaction.
package signatures

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-safe/internal/contracts"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

// State of a bundle
type State int

const (
	StateEmpty State = iota
	StateCollecting
	StateReadyToExecute
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateCollecting:
		return "collecting"
	case StateReadyToExecute:
		return "ready"
	case StateRejected:
		return "rejected"
	}
	return "unknown"
}

// Bundle holds at most one signature per owner for a single safeTxHash.
// It is safe for concurrent use.
type Bundle struct {
	mu         sync.Mutex
	safeTxHash common.Hash
	caps       contracts.Capabilities
	owners     map[common.Address]struct{}
	threshold  uint64
	sigs       map[common.Address]models.Signature
	state      State
}

// NewBundle binds a new bundle to safeTxHash and the Safe's owner set
func NewBundle(safeTxHash common.Hash, caps contracts.Capabilities, owners []common.Address, threshold uint64) *Bundle {
	set := make(map[common.Address]struct{}, len(owners))
	for _, o := range owners {
		set[o] = struct{}{}
	}
	return &Bundle{
		safeTxHash: safeTxHash,
		caps:       caps,
		owners:     set,
		threshold:  threshold,
		sigs:       make(map[common.Address]models.Signature),
	}
}

// Clone returns an independent copy of the bundle
func (b *Bundle) Clone() *Bundle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &Bundle{
		safeTxHash: b.safeTxHash,
		caps:       b.caps,
		owners:     maps.Clone(b.owners),
		threshold:  b.threshold,
		sigs:       maps.Clone(b.sigs),
		state:      b.state,
	}
}

// SafeTxHash is the digest every signature in the bundle covers
func (b *Bundle) SafeTxHash() common.Hash {
	return b.safeTxHash
}

func (b *Bundle) Threshold() uint64 {
	return b.threshold
}

// Add verifies sig and inserts it. A signature whose recovered signer does
// not match its claimed signer moves the bundle to StateRejected.
func (b *Bundle) Add(sig models.Signature) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateRejected {
		return domain.ErrBundleRejected
	}
	if _, ok := b.sigs[sig.Signer]; ok {
		return fmt.Errorf("%s: %w", sig.Signer.Hex(), domain.ErrDuplicateSigner)
	}
	if _, ok := b.owners[sig.Signer]; !ok {
		return fmt.Errorf("%s: %w", sig.Signer.Hex(), domain.ErrSignerNotOwner)
	}

	switch sig.Kind {
	case models.SignatureKindECDSA, models.SignatureKindEthSign:
		if sig.Kind == models.SignatureKindEthSign {
			if err := b.caps.Require(b.caps.EthSign, "eth_sign signatures"); err != nil {
				return err
			}
		}
		recovered, err := Recover(b.safeTxHash, sig)
		if err != nil {
			return err
		}
		if recovered != sig.Signer {
			b.state = StateRejected
			return fmt.Errorf("recovered %s, expected %s: %w", recovered.Hex(), sig.Signer.Hex(), domain.ErrInvalidSignature)
		}
	case models.SignatureKindApprovedHash:
		want := ApprovedHash(sig.Signer)
		if !bytes.Equal(want.Data, sig.Data) {
			return fmt.Errorf("malformed approved hash signature for %s: %w", sig.Signer.Hex(), domain.ErrInvalidSignature)
		}
	case models.SignatureKindContract:
		if len(sig.Data) == 0 {
			return fmt.Errorf("empty contract signature for %s: %w", sig.Signer.Hex(), domain.ErrInvalidSignature)
		}
	default:
		return fmt.Errorf("unknown signature kind %q: %w", sig.Kind, domain.ErrInvalidSignature)
	}

	sig.Data = slices.Clone(sig.Data)
	b.sigs[sig.Signer] = sig
	if uint64(len(b.sigs)) >= b.threshold {
		b.state = StateReadyToExecute
	} else {
		b.state = StateCollecting
	}
	return nil
}

// Has reports whether signer already signed
func (b *Bundle) Has(signer common.Address) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.sigs[signer]
	return ok
}

func (b *Bundle) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Bundle) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sigs)
}

// CanExecute reports whether enough owners signed to reach the threshold
func (b *Bundle) CanExecute() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state != StateRejected && uint64(len(b.sigs)) >= b.threshold
}

// Signatures returns a snapshot sorted by signer address
func (b *Bundle) Signatures() []models.Signature {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Signature, 0, len(b.sigs))
	for _, sig := range b.sigs {
		out = append(out, sig)
	}
	slices.SortFunc(out, func(a, c models.Signature) int {
		return bytes.Compare(a.Signer.Bytes(), c.Signer.Bytes())
	})
	return out
}

// Serialize encodes the collected signatures for execTransaction
func (b *Bundle) Serialize() []byte {
	return Encode(b.Signatures())
}
