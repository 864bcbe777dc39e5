package contracts

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

func TestEncodeMultiSendData(t *testing.T) {
	calls := []models.MetaTransaction{
		{To: common.HexToAddress("0x1111111111111111111111111111111111111111"), Value: "1", Data: hexutil.Bytes{0xde, 0xad}},
		{To: common.HexToAddress("0x2222222222222222222222222222222222222222"), Value: "0", Operation: models.OperationDelegateCall},
	}

	packed, err := EncodeMultiSendData(calls)
	require.NoError(t, err)
	// two headers plus the two data bytes of the first call
	assert.Len(t, packed, 2*multiSendHeaderLen+2)

	assert.Equal(t, byte(0), packed[0])
	assert.Equal(t, calls[0].To.Bytes(), packed[1:21])
	assert.Equal(t, byte(1), packed[21+31], "value is a big-endian uint256")
	assert.Equal(t, byte(2), packed[53+31], "data length is a big-endian uint256")
	assert.Equal(t, []byte{0xde, 0xad}, packed[85:87])
	assert.Equal(t, byte(1), packed[87], "second entry starts with its operation")
}

func TestMultiSendRoundTrip(t *testing.T) {
	calls := []models.MetaTransaction{
		{To: common.HexToAddress("0xaaaa000000000000000000000000000000000001"), Value: "1000000000000000000", Data: hexutil.MustDecode("0xa9059cbb")},
		{To: common.HexToAddress("0xaaaa000000000000000000000000000000000002"), Value: "0", Data: hexutil.Bytes{}},
		{To: common.HexToAddress("0xaaaa000000000000000000000000000000000003"), Value: "42", Data: hexutil.MustDecode("0x01020304050607"), Operation: models.OperationDelegateCall},
	}

	calldata, err := EncodeMultiSend(calls)
	require.NoError(t, err)
	assert.Equal(t, "0x8d80ff0a", hexutil.Encode(calldata[:4]))

	decoded, err := DecodeMultiSend(calldata)
	require.NoError(t, err)
	require.Len(t, decoded, len(calls))
	for i := range calls {
		assert.Equal(t, calls[i].To, decoded[i].To)
		assert.Equal(t, calls[i].Value, decoded[i].Value)
		assert.Equal(t, []byte(calls[i].Data), []byte(decoded[i].Data))
		assert.Equal(t, calls[i].Operation, decoded[i].Operation)
	}
}

func TestEncodeMultiSendDataRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		call models.MetaTransaction
	}{
		{name: "negative value", call: models.MetaTransaction{Value: "-1"}},
		{name: "fractional value", call: models.MetaTransaction{Value: "1.5"}},
		{name: "unknown operation", call: models.MetaTransaction{Value: "0", Operation: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeMultiSendData([]models.MetaTransaction{tt.call})
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestDecodeMultiSendDataTruncated(t *testing.T) {
	packed, err := EncodeMultiSendData([]models.MetaTransaction{{Value: "0", Data: hexutil.Bytes{1, 2, 3}}})
	require.NoError(t, err)

	_, err = DecodeMultiSendData(packed[:len(packed)-1])
	assert.ErrorIs(t, err, domain.ErrInvalidCall)

	_, err = DecodeMultiSendData(packed[:10])
	assert.ErrorIs(t, err, domain.ErrInvalidCall)
}
