package usecase_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-safe/internal/builder"
	"github.com/trebuchet-org/treb-safe/internal/contracts"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

func TestListTransactions(t *testing.T) {
	e, signers := deployedSafe(t, contracts.V1_3_0, 1, 1)
	ctx := context.Background()

	first := createTransfer(t, e, builder.Options{})
	e.chain.nonce = 5
	second := createTransfer(t, e, builder.Options{})
	signAll(t, e, second.SafeTxHash, signers[0])

	uc := usecase.NewListTransactions(e.store, usecase.NopProgress{})

	tests := []struct {
		name   string
		params usecase.ListTransactionsParams
		want   []common.Hash
	}{
		{
			name: "all ordered by nonce",
			want: []common.Hash{first.SafeTxHash, second.SafeTxHash},
		},
		{
			name:   "by status",
			params: usecase.ListTransactionsParams{Status: models.TransactionStatusReady},
			want:   []common.Hash{second.SafeTxHash},
		},
		{
			name:   "by Safe",
			params: usecase.ListTransactionsParams{Safe: ownerA},
		},
		{
			name:   "by chain",
			params: usecase.ListTransactionsParams{ChainID: 11155111},
			want:   []common.Hash{first.SafeTxHash, second.SafeTxHash},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := uc.Run(ctx, tt.params)
			require.NoError(t, err)

			var got []common.Hash
			for _, tx := range res.Transactions {
				got = append(got, tx.SafeTxHash)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want), res.Summary.Total)
		})
	}

	res, err := uc.Run(ctx, usecase.ListTransactionsParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.ByStatus[models.TransactionStatusPending])
	assert.Equal(t, 1, res.Summary.ByStatus[models.TransactionStatusReady])
}

func TestShowTransaction(t *testing.T) {
	e, _ := deployedSafe(t, contracts.V1_3_0, 1, 1)
	ctx := context.Background()
	tx := createTransfer(t, e, builder.Options{})
	executedIn := common.HexToHash("0xbeef")

	service := &fakeService{}
	uc := usecase.NewShowTransaction(e.store, service, testLogger())

	res, err := uc.Run(ctx, tx.SafeTxHash, true)
	require.NoError(t, err)
	assert.Nil(t, res.Execution)
	assert.Equal(t, models.TransactionStatusPending, res.Transaction.Status)

	service.info = &models.SafeExecutionInfo{IsExecuted: true, TxHash: executedIn, Confirmations: 1, ConfirmationsRequired: 1}

	res, err = uc.Run(ctx, tx.SafeTxHash, false)
	require.NoError(t, err)
	assert.Nil(t, res.Execution)

	res, err = uc.Run(ctx, tx.SafeTxHash, true)
	require.NoError(t, err)
	require.NotNil(t, res.Execution)

	stored, err := e.store.Load(ctx, tx.SafeTxHash)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusExecuted, stored.Status)
	assert.Equal(t, executedIn, stored.ExecutionTxHash)
	assert.NotNil(t, stored.ExecutedAt)

	_, err = uc.Run(ctx, common.HexToHash("0x01"), false)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = usecase.NewShowTransaction(e.store, failingService{}, testLogger()).Run(ctx, tx.SafeTxHash, true)
	assert.ErrorIs(t, err, domain.ErrCollaborator)
}
