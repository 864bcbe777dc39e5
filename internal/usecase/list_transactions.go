package usecase

import (
	"context"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

// ListTransactionsParams filters stored sessions. Zero fields match everything.
type ListTransactionsParams struct {
	Safe    common.Address
	ChainID uint64
	Status  models.TransactionStatus
}

// TransactionListSummary counts sessions per status
type TransactionListSummary struct {
	Total    int
	ByStatus map[models.TransactionStatus]int
}

// TransactionListResult is returned by ListTransactions
type TransactionListResult struct {
	Transactions []*models.SafeTransaction
	Summary      TransactionListSummary
}

// ListTransactions is the use case for listing stored signing sessions
type ListTransactions struct {
	store SessionStore
	sink  ProgressSink
}

// NewListTransactions creates a new ListTransactions use case
func NewListTransactions(store SessionStore, sink ProgressSink) *ListTransactions {
	return &ListTransactions{store: store, sink: sink}
}

// Run lists matching sessions ordered by Safe, then nonce, then creation time
func (uc *ListTransactions) Run(ctx context.Context, params ListTransactionsParams) (*TransactionListResult, error) {
	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   StageLoading,
		Message: "Loading stored transactions",
		Spinner: true,
	})

	all, err := uc.store.List(ctx)
	if err != nil {
		return nil, err
	}

	txs := lo.Filter(all, func(tx *models.SafeTransaction, _ int) bool {
		if params.Safe != (common.Address{}) && tx.SafeAddress != params.Safe {
			return false
		}
		if params.ChainID != 0 && tx.ChainID != params.ChainID {
			return false
		}
		return params.Status == "" || tx.Status == params.Status
	})
	sortTransactions(txs)

	summary := TransactionListSummary{
		Total:    len(txs),
		ByStatus: lo.CountValuesBy(txs, func(tx *models.SafeTransaction) models.TransactionStatus { return tx.Status }),
	}

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   StageCompleted,
		Message: "Transactions loaded",
	})

	return &TransactionListResult{Transactions: txs, Summary: summary}, nil
}

func sortTransactions(txs []*models.SafeTransaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		if a.ChainID != b.ChainID {
			return a.ChainID < b.ChainID
		}
		if a.SafeAddress != b.SafeAddress {
			return a.SafeAddress.Cmp(b.SafeAddress) < 0
		}
		if a.Data.Nonce != b.Data.Nonce {
			return a.Data.Nonce < b.Data.Nonce
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
