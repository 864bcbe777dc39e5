package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

// ShowTransactionResult is a stored session together with what the
// Transaction Service knows about it
type ShowTransactionResult struct {
	Transaction *models.SafeTransaction `json:"transaction"`
	// Execution is nil when the service was not consulted or has no record
	Execution *models.SafeExecutionInfo `json:"execution,omitempty"`
}

// ShowTransaction loads one stored session
type ShowTransaction struct {
	store   SessionStore
	service TransactionService
	log     *slog.Logger
}

// NewShowTransaction creates a new ShowTransaction use case
func NewShowTransaction(store SessionStore, service TransactionService, log *slog.Logger) *ShowTransaction {
	return &ShowTransaction{
		store:   store,
		service: service,
		log:     log.With("component", "ShowTransaction"),
	}
}

// Run loads the session. With refresh set the Transaction Service is asked
// whether the transaction was executed elsewhere and the session is updated.
func (uc *ShowTransaction) Run(ctx context.Context, safeTxHash common.Hash, refresh bool) (*ShowTransactionResult, error) {
	tx, err := uc.store.Load(ctx, safeTxHash)
	if err != nil {
		return nil, err
	}
	result := &ShowTransactionResult{Transaction: tx}
	if !refresh || uc.service == nil {
		return result, nil
	}

	info, err := uc.service.GetExecutionInfo(ctx, tx.ChainID, safeTxHash)
	if err != nil {
		return nil, domain.WrapCollaborator("fetch execution info", err)
	}
	result.Execution = info
	if info == nil || !info.IsExecuted || tx.Status == models.TransactionStatusExecuted {
		return result, nil
	}

	uc.log.Debug("transaction executed outside this session", "safeTxHash", safeTxHash.Hex(), "txHash", info.TxHash.Hex())
	now := time.Now().UTC()
	tx.Status = models.TransactionStatusExecuted
	tx.ExecutionTxHash = info.TxHash
	tx.ExecutedAt = &now
	if err := uc.store.Save(ctx, tx); err != nil {
		return nil, err
	}
	return result, nil
}
