package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-safe/internal/contracts"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/hashing"
	"github.com/trebuchet-org/treb-safe/internal/signatures"
)

// SignMethod selects how the signer signs the safeTxHash
type SignMethod string

const (
	// SignMethodTypedData signs the EIP-712 document (eth_signTypedData_v4)
	SignMethodTypedData SignMethod = "typed_data"
	// SignMethodHash signs the raw safeTxHash
	SignMethodHash SignMethod = "hash"
	// SignMethodEthSign signs the prefixed hash (eth_sign), 1.1.1 and newer
	SignMethodEthSign SignMethod = "eth_sign"
)

// sessionCapabilities resolves the version of a stored transaction and checks
// that its data still hashes to the stored safeTxHash
func sessionCapabilities(tx *models.SafeTransaction) (contracts.Capabilities, error) {
	version, err := contracts.ParseVersion(tx.Version)
	if err != nil {
		return contracts.Capabilities{}, err
	}
	caps, err := contracts.CapabilitiesOf(version)
	if err != nil {
		return contracts.Capabilities{}, err
	}
	hash, err := hashing.Hash(tx.Data, tx.SafeAddress, caps, new(big.Int).SetUint64(tx.ChainID))
	if err != nil {
		return contracts.Capabilities{}, err
	}
	if hash != tx.SafeTxHash {
		return contracts.Capabilities{}, fmt.Errorf("stored %s, computed %s: %w", tx.SafeTxHash.Hex(), hash.Hex(), domain.ErrHashMismatch)
	}
	return caps, nil
}

// restoreBundle rebuilds a bundle from the signatures stored with tx
func restoreBundle(tx *models.SafeTransaction, caps contracts.Capabilities, owners []common.Address, threshold uint64) (*signatures.Bundle, error) {
	bundle := signatures.NewBundle(tx.SafeTxHash, caps, owners, threshold)
	for _, sig := range tx.Signatures {
		if err := bundle.Add(sig); err != nil {
			return nil, fmt.Errorf("stored signature of %s: %w", sig.Signer.Hex(), err)
		}
	}
	return bundle, nil
}

func applyBundle(tx *models.SafeTransaction, bundle *signatures.Bundle) {
	tx.Signatures = bundle.Signatures()
	switch bundle.State() {
	case signatures.StateReadyToExecute:
		tx.Status = models.TransactionStatusReady
	case signatures.StateRejected:
		tx.Status = models.TransactionStatusRejected
	default:
		tx.Status = models.TransactionStatusPending
	}
}

// SignTransactionParams contains parameters for signing a stored transaction.
// Either Signer or Signature must be set.
type SignTransactionParams struct {
	SafeTxHash common.Hash
	Signer     Signer
	Method     SignMethod
	Signature  *models.Signature
}

// SignTransaction adds an owner signature to a stored transaction
type SignTransaction struct {
	store   SessionStore
	metrics Metrics
	sink    ProgressSink
	log     *slog.Logger
}

// NewSignTransaction creates a new SignTransaction use case
func NewSignTransaction(store SessionStore, metrics Metrics, sink ProgressSink, log *slog.Logger) *SignTransaction {
	return &SignTransaction{
		store:   store,
		metrics: metrics,
		sink:    sink,
		log:     log.With("component", "SignTransaction"),
	}
}

// Run signs and stores the signature. A signature that fails verification
// marks the session as rejected.
func (uc *SignTransaction) Run(ctx context.Context, params SignTransactionParams) (*models.SafeTransaction, error) {
	tx, err := uc.store.Load(ctx, params.SafeTxHash)
	if err != nil {
		return nil, err
	}
	if tx.Status == models.TransactionStatusRejected {
		return nil, domain.ErrBundleRejected
	}

	caps, err := sessionCapabilities(tx)
	if err != nil {
		return nil, err
	}
	bundle, err := restoreBundle(tx, caps, tx.Owners, tx.Threshold)
	if err != nil {
		return nil, err
	}

	sig, err := uc.signature(ctx, tx, caps, params)
	if err != nil {
		return nil, err
	}

	addErr := bundle.Add(sig)
	uc.metrics.SignatureCollected(sig.Kind, addErr)
	if addErr != nil && bundle.State() != signatures.StateRejected {
		return nil, addErr
	}

	applyBundle(tx, bundle)
	if err := uc.store.Save(ctx, tx); err != nil {
		return nil, err
	}
	if addErr != nil {
		return tx, addErr
	}

	uc.log.Info("added signature", "safeTxHash", tx.SafeTxHash.Hex(), "signer", sig.Signer.Hex(), "kind", sig.Kind,
		"signatures", len(tx.Signatures), "threshold", tx.Threshold)
	return tx, nil
}

func (uc *SignTransaction) signature(ctx context.Context, tx *models.SafeTransaction, caps contracts.Capabilities, params SignTransactionParams) (models.Signature, error) {
	if params.Signature != nil {
		return *params.Signature, nil
	}
	if params.Signer == nil {
		return models.Signature{}, fmt.Errorf("no signer or signature provided: %w", domain.ErrInvalidSignature)
	}

	uc.sink.OnProgress(ctx, ProgressEvent{Stage: StageSigning, Message: "Waiting for signature", Spinner: true})

	var (
		raw []byte
		err error
	)
	switch params.Method {
	case SignMethodTypedData, "":
		typed := hashing.TypedData(tx.Data, tx.SafeAddress, caps, new(big.Int).SetUint64(tx.ChainID))
		raw, err = params.Signer.SignTypedData(ctx, typed)
	case SignMethodHash:
		raw, err = params.Signer.SignHash(ctx, tx.SafeTxHash)
	case SignMethodEthSign:
		if err := caps.Require(caps.EthSign, "eth_sign signatures"); err != nil {
			return models.Signature{}, err
		}
		raw, err = params.Signer.SignHash(ctx, common.BytesToHash(accounts.TextHash(tx.SafeTxHash.Bytes())))
	default:
		return models.Signature{}, fmt.Errorf("unknown sign method %q", params.Method)
	}
	if err != nil {
		return models.Signature{}, domain.WrapCollaborator("sign", err)
	}
	return signatures.FromRaw(params.Signer.Address(), raw, params.Method == SignMethodEthSign)
}

// ImportConfirmations copies confirmations from a Safe Transaction Service
// proposal into the stored session
type ImportConfirmations struct {
	store   SessionStore
	service TransactionService
	metrics Metrics
	log     *slog.Logger
}

// NewImportConfirmations creates a new ImportConfirmations use case
func NewImportConfirmations(store SessionStore, service TransactionService, metrics Metrics, log *slog.Logger) *ImportConfirmations {
	return &ImportConfirmations{
		store:   store,
		service: service,
		metrics: metrics,
		log:     log.With("component", "ImportConfirmations"),
	}
}

// Run imports every confirmation not yet present. It returns the number of
// signatures added.
func (uc *ImportConfirmations) Run(ctx context.Context, safeTxHash common.Hash) (*models.SafeTransaction, int, error) {
	tx, err := uc.store.Load(ctx, safeTxHash)
	if err != nil {
		return nil, 0, err
	}
	caps, err := sessionCapabilities(tx)
	if err != nil {
		return nil, 0, err
	}
	bundle, err := restoreBundle(tx, caps, tx.Owners, tx.Threshold)
	if err != nil {
		return nil, 0, err
	}

	confirmations, err := uc.service.GetConfirmations(ctx, tx.ChainID, safeTxHash)
	if err != nil {
		return nil, 0, domain.WrapCollaborator("fetch confirmations", err)
	}

	imported := 0
	var errs []error
	for _, sig := range confirmations {
		err := bundle.Add(sig)
		uc.metrics.SignatureCollected(sig.Kind, err)
		switch {
		case err == nil:
			imported++
		case errors.Is(err, domain.ErrDuplicateSigner):
			uc.log.Debug("skipping known signer", "signer", sig.Signer.Hex())
		default:
			errs = append(errs, err)
		}
		if bundle.State() == signatures.StateRejected {
			break
		}
	}

	applyBundle(tx, bundle)
	if err := uc.store.Save(ctx, tx); err != nil {
		return nil, 0, err
	}
	return tx, imported, errors.Join(errs...)
}
