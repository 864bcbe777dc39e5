package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/trebuchet-org/treb-safe/internal/builder"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/hashing"
)

// CreateTransactionParams contains parameters for building a Safe transaction
type CreateTransactionParams struct {
	Safe    *SafeAccount
	Calls   []models.MetaTransaction
	Options builder.Options
}

// CreateTransaction builds, hashes and stores a Safe transaction
type CreateTransaction struct {
	builder *builder.Builder
	store   SessionStore
	metrics Metrics
	log     *slog.Logger
}

// NewCreateTransaction creates a new CreateTransaction use case
func NewCreateTransaction(b *builder.Builder, store SessionStore, metrics Metrics, log *slog.Logger) *CreateTransaction {
	return &CreateTransaction{
		builder: b,
		store:   store,
		metrics: metrics,
		log:     log.With("component", "CreateTransaction"),
	}
}

// Run builds the transaction and opens a signing session for it
func (uc *CreateTransaction) Run(ctx context.Context, params CreateTransactionParams) (*models.SafeTransaction, error) {
	safe := params.Safe

	var nonce uint64
	if params.Options.Nonce == nil {
		n, err := safe.Nonce(ctx)
		if err != nil {
			return nil, err
		}
		nonce = n
	}

	data, err := uc.builder.Build(ctx, safe.builderAccount(nonce), params.Calls, params.Options)
	if err != nil {
		return nil, err
	}

	hash, err := hashing.Hash(data, safe.Address, safe.Caps, safe.ChainID)
	if err != nil {
		return nil, err
	}

	owners, err := safe.Owners(ctx)
	if err != nil {
		return nil, err
	}
	threshold, err := safe.Threshold(ctx)
	if err != nil {
		return nil, err
	}

	tx := &models.SafeTransaction{
		SafeTxHash:  hash,
		SafeAddress: safe.Address,
		ChainID:     safe.ChainID.Uint64(),
		Version:     string(safe.Caps.Version),
		Status:      models.TransactionStatusPending,
		Threshold:   threshold,
		Owners:      owners,
		Data:        data,
		Signatures:  []models.Signature{},
		CreatedAt:   time.Now().UTC(),
	}
	if len(params.Calls) > 1 {
		tx.Calls = params.Calls
	}

	if err := uc.store.Save(ctx, tx); err != nil {
		return nil, err
	}

	uc.metrics.TransactionBuilt(tx.Version, len(params.Calls) > 1)
	uc.log.Info("created safe transaction", "safeTxHash", hash.Hex(), "safe", safe.Address.Hex(), "nonce", data.Nonce)
	return tx, nil
}
