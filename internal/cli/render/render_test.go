package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-safe/internal/contracts"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

func init() {
	color.NoColor = true
}

func sampleTransaction() *models.SafeTransaction {
	owner := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	return &models.SafeTransaction{
		SafeTxHash:  common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111112222"),
		SafeAddress: common.HexToAddress("0x00000000000000000000000000000000000000f0"),
		ChainID:     1,
		Version:     "1.3.0",
		Status:      models.TransactionStatusPending,
		Threshold:   2,
		Owners:      []common.Address{owner, common.HexToAddress("0x00000000000000000000000000000000000000a2")},
		Data: models.SafeTransactionData{
			To:        common.HexToAddress("0x00000000000000000000000000000000000000b1"),
			Value:     "1500000000000000000",
			SafeTxGas: "0",
			BaseGas:   "0",
			GasPrice:  "0",
			Nonce:     4,
		},
		Signatures: []models.Signature{{Signer: owner, Kind: models.SignatureKindECDSA}},
		CreatedAt:  time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestFormatWei(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0 ETH"},
		{"1500000000000000000", "1.5 ETH"},
		{"1", "0.000000000000000001 ETH"},
		{"not a number", "not a number"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatWei(tt.in))
		})
	}
}

func TestFormatStatus(t *testing.T) {
	assert.Equal(t, "Ready", FormatStatus(models.TransactionStatusReady))
	assert.Equal(t, "Pending", FormatStatus(models.TransactionStatusPending))
	assert.Equal(t, "Submitted", FormatStatus(models.TransactionStatusSubmitted))
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "0x1111…2222", ShortHash(sampleTransaction().SafeTxHash))
}

func TestRenderTransaction(t *testing.T) {
	var buf bytes.Buffer
	tx := sampleTransaction()
	require.NoError(t, NewTransactionRenderer(&buf, nil).RenderTransaction(tx, nil))

	out := buf.String()
	assert.Contains(t, out, tx.SafeTxHash.Hex())
	assert.Contains(t, out, "1.5 ETH")
	assert.Contains(t, out, "Signatures (1/2)")
	assert.Contains(t, out, "Awaiting: "+tx.Owners[1].Hex())
	assert.NotContains(t, out, "Execution")

	buf.Reset()
	tx.Status = models.TransactionStatusSubmitted
	tx.ExecutionTxHash = common.HexToHash("0xfeed")
	require.NoError(t, NewTransactionRenderer(&buf, nil).RenderTransaction(tx, nil))
	assert.Contains(t, buf.String(), "Execution")
	assert.Contains(t, buf.String(), tx.ExecutionTxHash.Hex())
	assert.NotContains(t, buf.String(), "Awaiting:")
}

func TestRenderTransactionList(t *testing.T) {
	var buf bytes.Buffer
	r := NewTransactionRenderer(&buf, nil)

	require.NoError(t, r.RenderTransactionList(&usecase.TransactionListResult{}))
	assert.Contains(t, buf.String(), "No transactions found")

	buf.Reset()
	tx := sampleTransaction()
	require.NoError(t, r.RenderTransactionList(&usecase.TransactionListResult{
		Transactions: []*models.SafeTransaction{tx},
		Summary: usecase.TransactionListSummary{
			Total:    1,
			ByStatus: map[models.TransactionStatus]int{models.TransactionStatusPending: 1},
		},
	}))
	assert.Contains(t, buf.String(), "0x1111…2222")
	assert.Contains(t, buf.String(), "1 transactions (1 pending)")
}

func TestRenderCapabilities(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewVersionsRenderer(&buf).RenderCapabilities(contracts.Versions))
	out := buf.String()
	for _, v := range contracts.Versions {
		assert.Contains(t, out, v.String())
	}
	assert.Contains(t, out, "Guards")
}

func TestOutput(t *testing.T) {
	result := &usecase.ShowTransactionResult{Transaction: sampleTransaction()}

	var human bytes.Buffer
	require.NoError(t, Output(&human, false, NewTransactionRenderer(&human, nil), result))
	assert.Contains(t, human.String(), "Signatures")

	var asJSON bytes.Buffer
	require.NoError(t, Output(&asJSON, true, NewTransactionRenderer(&asJSON, nil), result))
	assert.Contains(t, asJSON.String(), `"transaction"`)
	assert.NotContains(t, asJSON.String(), "Signatures (")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderJSON(&buf, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}
