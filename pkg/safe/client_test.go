package safe

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSafeTxHash = "0x3a92d53e9c3b2d6b0df6e22b7ea2da1d9d0a7a1b1c9c85df2be7e4c3d2a1e199"

var testSafe = common.HexToAddress("0x1c511d88ba898b4d9cd9113d13b9c360a02fcea1")

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	hash := common.HexToHash(testSafeTxHash).Hex()
	mux := http.NewServeMux()
	mux.HandleFunc(fmt.Sprintf("/api/v1/multisig-transactions/%s/", hash), func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		fmt.Fprintf(w, `{
			"safe": "0x1c511d88ba898b4D9cd9113D13B9c360a02Fcea1",
			"to": "0x1111111111111111111111111111111111111111",
			"value": "1",
			"data": "0xdead",
			"operation": 0,
			"safeTxGas": 0,
			"baseGas": "0",
			"gasPrice": "0",
			"nonce": 5,
			"safeTxHash": %q,
			"isExecuted": true,
			"transactionHash": "0xabababababababababababababababababababababababababababababababab",
			"confirmationsRequired": 2,
			"confirmations": [{"owner": "0x00000000000000000000000000000000000000a1", "signature": "0x01", "signatureType": "EOA"}]
		}`, hash)
	})
	mux.HandleFunc(fmt.Sprintf("/api/v1/multisig-transactions/%s/confirmations/", hash), func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": [
			{"owner": "0x00000000000000000000000000000000000000a1", "signature": "0x01", "signatureType": "EOA"},
			{"owner": "0x00000000000000000000000000000000000000a2", "signature": "0x02", "signatureType": "APPROVED_HASH"}
		]}`)
	})
	mux.HandleFunc(fmt.Sprintf("/api/v1/safes/%s/multisig-transactions/", testSafe.Hex()), func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "false", r.URL.Query().Get("executed"))
		fmt.Fprint(w, `{"results": [{"safeTxHash": "0x01", "nonce": 7}, {"safeTxHash": "0x02", "nonce": 6}]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientGetTransaction(t *testing.T) {
	client := NewClientWithURL(newTestServer(t).URL + "/")

	tx, err := client.GetTransaction(context.Background(), common.HexToHash(testSafeTxHash))
	require.NoError(t, err)
	assert.True(t, tx.IsExecuted)
	assert.Equal(t, "5", tx.Nonce.String())
	assert.Equal(t, 2, tx.ConfirmationsRequired)
	require.Len(t, tx.Confirmations, 1)
	assert.Equal(t, "EOA", tx.Confirmations[0].SignatureType)
}

func TestClientGetConfirmations(t *testing.T) {
	client := NewClientWithURL(newTestServer(t).URL)

	confirmations, err := client.GetConfirmations(context.Background(), common.HexToHash(testSafeTxHash))
	require.NoError(t, err)
	require.Len(t, confirmations, 2)
	assert.Equal(t, "APPROVED_HASH", confirmations[1].SignatureType)
}

func TestClientGetPendingTransactions(t *testing.T) {
	client := NewClientWithURL(newTestServer(t).URL)

	txs, err := client.GetPendingTransactions(context.Background(), testSafe)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "7", txs[0].Nonce.String())
}

func TestClientNotFound(t *testing.T) {
	client := NewClientWithURL(newTestServer(t).URL)

	_, err := client.GetTransaction(context.Background(), common.HexToHash("0x01"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewClientUnsupportedChain(t *testing.T) {
	_, err := NewClient(31337)
	assert.Error(t, err)

	client, err := NewClient(11155111)
	require.NoError(t, err)
	assert.Equal(t, "https://safe-transaction-sepolia.safe.global", client.serviceURL)
}
