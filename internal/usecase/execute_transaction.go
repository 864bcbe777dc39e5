package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-safe/internal/contracts"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/hashing"
	"github.com/trebuchet-org/treb-safe/internal/signatures"
)

// TransactionHandle tracks a submitted outer transaction
type TransactionHandle struct {
	Hash      common.Hash
	submitted chan common.Hash
	chain     ChainClient

	// settle records the receipt outcome in the signing session
	settle func(ctx context.Context, receipt *models.Receipt) error
}

func newTransactionHandle(chain ChainClient, hash common.Hash) *TransactionHandle {
	h := &TransactionHandle{Hash: hash, submitted: make(chan common.Hash, 1), chain: chain}
	h.submitted <- hash
	close(h.submitted)
	return h
}

// Submitted yields the transaction hash once and is then closed
func (h *TransactionHandle) Submitted() <-chan common.Hash {
	return h.submitted
}

// Wait blocks until the transaction is mined or ctx is done
func (h *TransactionHandle) Wait(ctx context.Context) (*models.Receipt, error) {
	receipt, err := h.chain.WaitMined(ctx, h.Hash)
	if err != nil {
		return nil, domain.WrapCollaborator("wait mined", err)
	}
	if h.settle != nil {
		if err := h.settle(ctx, receipt); err != nil {
			return receipt, err
		}
	}
	return receipt, nil
}

// ExecuteOptions tune the outer transaction
type ExecuteOptions struct {
	Executor Signer
	GasLimit uint64
}

// ExecuteTransaction submits execTransaction for a fully signed transaction
type ExecuteTransaction struct {
	chain   ChainClient
	connect *ConnectSafe
	store   SessionStore
	metrics Metrics
	sink    ProgressSink
	log     *slog.Logger
}

// NewExecuteTransaction creates a new ExecuteTransaction use case
func NewExecuteTransaction(chain ChainClient, connect *ConnectSafe, store SessionStore, metrics Metrics, sink ProgressSink, log *slog.Logger) *ExecuteTransaction {
	return &ExecuteTransaction{
		chain:   chain,
		connect: connect,
		store:   store,
		metrics: metrics,
		sink:    sink,
		log:     log.With("component", "ExecuteTransaction"),
	}
}

// Execute checks bundle against tx and the Safe's current owners, then
// submits execTransaction. An executor that is an owner and has not signed
// contributes an approved-hash signature, which is added to bundle only once
// the transaction was sent.
func (uc *ExecuteTransaction) Execute(ctx context.Context, safe *SafeAccount, tx models.SafeTransactionData, bundle *signatures.Bundle, opts ExecuteOptions) (*TransactionHandle, error) {
	if !safe.IsDeployed() {
		return nil, domain.ErrSafeNotDeployed
	}
	if opts.Executor == nil {
		return nil, fmt.Errorf("no executor configured: %w", domain.ErrValidation)
	}

	hash, err := hashing.Hash(tx, safe.Address, safe.Caps, safe.ChainID)
	if err != nil {
		return nil, err
	}
	if hash != bundle.SafeTxHash() {
		return nil, fmt.Errorf("bundle bound to %s, transaction hashes to %s: %w", bundle.SafeTxHash().Hex(), hash.Hex(), domain.ErrHashMismatch)
	}

	executor := opts.Executor.Address()
	isOwner, err := safe.IsOwner(ctx, executor)
	if err != nil {
		return nil, err
	}
	work := bundle
	var approval *models.Signature
	if isOwner && !bundle.Has(executor) {
		sig := signatures.ApprovedHash(executor)
		work = bundle.Clone()
		if err := work.Add(sig); err != nil {
			return nil, err
		}
		approval = &sig
	}

	if !work.CanExecute() {
		return nil, fmt.Errorf("%d of %d signatures: %w", work.Len(), work.Threshold(), domain.ErrThresholdNotMet)
	}

	data, err := contracts.EncodeExecTransaction(tx, work.Serialize())
	if err != nil {
		return nil, err
	}

	uc.sink.OnProgress(ctx, ProgressEvent{Stage: StageSubmitting, Message: "Submitting execTransaction", Spinner: true})
	txHash, err := uc.chain.SendTransaction(ctx, opts.Executor, models.TxRequest{
		To:       safe.Address,
		Data:     data,
		GasLimit: opts.GasLimit,
	})
	if err != nil {
		return nil, domain.WrapCollaborator("send execTransaction", err)
	}

	if approval != nil {
		if err := bundle.Add(*approval); err != nil {
			uc.log.Warn("failed to record executor approval", "executor", executor.Hex(), "error", err)
		}
	}

	uc.metrics.TransactionSubmitted("execTransaction")
	uc.log.Info("submitted execTransaction", "safeTxHash", hash.Hex(), "txHash", txHash.Hex(), "executor", executor.Hex())
	return newTransactionHandle(uc.chain, txHash), nil
}

// Run executes a stored transaction against the Safe's current owner set.
// Rejected sessions and sessions already sent for execution are refused. The
// session is marked SUBMITTED, and EXECUTED or FAILED once Wait sees the
// receipt.
func (uc *ExecuteTransaction) Run(ctx context.Context, safeTxHash common.Hash, opts ExecuteOptions) (*TransactionHandle, error) {
	stored, err := uc.store.Load(ctx, safeTxHash)
	if err != nil {
		return nil, err
	}
	switch stored.Status {
	case models.TransactionStatusRejected:
		return nil, domain.ErrBundleRejected
	case models.TransactionStatusSubmitted, models.TransactionStatusExecuted:
		return nil, fmt.Errorf("%s in %s: %w", safeTxHash.Hex(), stored.ExecutionTxHash.Hex(), domain.ErrAlreadyExecuted)
	}

	uc.sink.OnProgress(ctx, ProgressEvent{Stage: StageConnecting, Message: "Connecting to Safe", Spinner: true})
	safe, err := uc.connect.Run(ctx, ConnectSafeParams{Address: stored.SafeAddress, Version: stored.Version})
	if err != nil {
		return nil, err
	}
	if safe.ChainID.Uint64() != stored.ChainID {
		return nil, fmt.Errorf("transaction for chain %d, connected to %d: %w", stored.ChainID, safe.ChainID.Uint64(), domain.ErrChainMismatch)
	}

	owners, err := safe.Owners(ctx)
	if err != nil {
		return nil, err
	}
	threshold, err := safe.Threshold(ctx)
	if err != nil {
		return nil, err
	}
	bundle, err := restoreBundle(stored, safe.Caps, owners, threshold)
	if err != nil {
		return nil, err
	}

	handle, err := uc.Execute(ctx, safe, stored.Data, bundle, opts)
	if err != nil {
		return nil, err
	}

	stored.Signatures = bundle.Signatures()
	stored.Status = models.TransactionStatusSubmitted
	stored.ExecutionTxHash = handle.Hash
	stored.ExecutedAt = nil
	if err := uc.store.Save(ctx, stored); err != nil {
		return nil, err
	}
	handle.settle = uc.settle(safeTxHash)
	return handle, nil
}

func (uc *ExecuteTransaction) settle(safeTxHash common.Hash) func(context.Context, *models.Receipt) error {
	return func(ctx context.Context, receipt *models.Receipt) error {
		stored, err := uc.store.Load(ctx, safeTxHash)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		stored.Status = models.TransactionStatusExecuted
		if !receipt.Succeeded() {
			stored.Status = models.TransactionStatusFailed
		}
		stored.ExecutionTxHash = receipt.TxHash
		stored.ExecutedAt = &now
		uc.log.Debug("execution settled", "safeTxHash", safeTxHash.Hex(), "status", stored.Status)
		return uc.store.Save(ctx, stored)
	}
}

// ApproveTransactionHash submits approveHash(safeTxHash) from an owner and
// records the resulting approved-hash signature in the session
type ApproveTransactionHash struct {
	chain   ChainClient
	connect *ConnectSafe
	store   SessionStore
	metrics Metrics
	log     *slog.Logger
}

// NewApproveTransactionHash creates a new ApproveTransactionHash use case
func NewApproveTransactionHash(chain ChainClient, connect *ConnectSafe, store SessionStore, metrics Metrics, log *slog.Logger) *ApproveTransactionHash {
	return &ApproveTransactionHash{
		chain:   chain,
		connect: connect,
		store:   store,
		metrics: metrics,
		log:     log.With("component", "ApproveTransactionHash"),
	}
}

// Run approves safeTxHash on chain with owner
func (uc *ApproveTransactionHash) Run(ctx context.Context, safeTxHash common.Hash, owner Signer) (*TransactionHandle, error) {
	stored, err := uc.store.Load(ctx, safeTxHash)
	if err != nil {
		return nil, err
	}
	if stored.Status == models.TransactionStatusRejected {
		return nil, domain.ErrBundleRejected
	}
	caps, err := sessionCapabilities(stored)
	if err != nil {
		return nil, err
	}
	safe, err := uc.connect.Run(ctx, ConnectSafeParams{Address: stored.SafeAddress, Version: string(caps.Version)})
	if err != nil {
		return nil, err
	}

	isOwner, err := safe.IsOwner(ctx, owner.Address())
	if err != nil {
		return nil, err
	}
	if !isOwner {
		return nil, fmt.Errorf("%s: %w", owner.Address().Hex(), domain.ErrSignerNotOwner)
	}

	bundle, err := restoreBundle(stored, caps, stored.Owners, stored.Threshold)
	if err != nil {
		return nil, err
	}
	sig := signatures.ApprovedHash(owner.Address())
	if err := bundle.Add(sig); err != nil {
		return nil, err
	}

	data, err := contracts.EncodeApproveHash(safeTxHash)
	if err != nil {
		return nil, err
	}
	txHash, err := uc.chain.SendTransaction(ctx, owner, models.TxRequest{To: safe.Address, Data: data})
	if err != nil {
		return nil, domain.WrapCollaborator("send approveHash", err)
	}
	uc.metrics.TransactionSubmitted("approveHash")
	uc.metrics.SignatureCollected(sig.Kind, nil)

	applyBundle(stored, bundle)
	if err := uc.store.Save(ctx, stored); err != nil {
		return nil, err
	}

	uc.log.Info("submitted approveHash", "safeTxHash", safeTxHash.Hex(), "txHash", txHash.Hex(), "owner", owner.Address().Hex())
	return newTransactionHandle(uc.chain, txHash), nil
}
