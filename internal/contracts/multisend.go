package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

// size of the fixed part of one packed MultiSend entry: op, to, value, length
const multiSendHeaderLen = 1 + common.AddressLength + 32 + 32

// EncodeMultiSendData packs calls in order as
// uint8 operation ‖ address to ‖ uint256 value ‖ uint256 dataLength ‖ data
func EncodeMultiSendData(calls []models.MetaTransaction) ([]byte, error) {
	var out []byte
	for i, call := range calls {
		if !call.Operation.Valid() {
			return nil, fmt.Errorf("call %d: operation %d: %w", i, call.Operation, domain.ErrInvalidCall)
		}
		value, err := models.ParseAmount(call.Value)
		if err != nil {
			return nil, fmt.Errorf("call %d value: %w", i, err)
		}
		out = append(out, byte(call.Operation))
		out = append(out, call.To.Bytes()...)
		out = append(out, math.U256Bytes(value)...)
		out = append(out, math.U256Bytes(big.NewInt(int64(len(call.Data))))...)
		out = append(out, call.Data...)
	}
	return out, nil
}

// EncodeMultiSend wraps packed call data into multiSend(bytes) calldata
func EncodeMultiSend(calls []models.MetaTransaction) ([]byte, error) {
	packed, err := EncodeMultiSendData(calls)
	if err != nil {
		return nil, err
	}
	return MultiSendABI.Pack("multiSend", packed)
}

// DecodeMultiSend reverses EncodeMultiSend
func DecodeMultiSend(calldata []byte) ([]models.MetaTransaction, error) {
	method, err := MultiSendABI.MethodById(calldata)
	if err != nil || method.Name != "multiSend" {
		return nil, fmt.Errorf("calldata is not a multiSend call: %w", domain.ErrInvalidCall)
	}
	args, err := method.Inputs.Unpack(calldata[4:])
	if err != nil {
		return nil, fmt.Errorf("failed to unpack multiSend: %w", err)
	}
	packed, ok := args[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected multiSend argument %T", args[0])
	}
	return DecodeMultiSendData(packed)
}

// DecodeMultiSendData splits packed MultiSend data back into calls
func DecodeMultiSendData(packed []byte) ([]models.MetaTransaction, error) {
	var calls []models.MetaTransaction
	for pos := 0; pos < len(packed); {
		if len(packed)-pos < multiSendHeaderLen {
			return nil, fmt.Errorf("truncated multiSend entry at offset %d: %w", pos, domain.ErrInvalidCall)
		}
		op := models.Operation(packed[pos])
		pos++
		to := common.BytesToAddress(packed[pos : pos+common.AddressLength])
		pos += common.AddressLength
		value := new(big.Int).SetBytes(packed[pos : pos+32])
		pos += 32
		dataLen := new(big.Int).SetBytes(packed[pos : pos+32])
		pos += 32
		if !dataLen.IsInt64() || dataLen.Int64() > int64(len(packed)-pos) {
			return nil, fmt.Errorf("multiSend entry data overruns buffer at offset %d: %w", pos, domain.ErrInvalidCall)
		}
		n := int(dataLen.Int64())
		data := make([]byte, n)
		copy(data, packed[pos:pos+n])
		pos += n
		calls = append(calls, models.MetaTransaction{
			To:        to,
			Value:     value.String(),
			Data:      data,
			Operation: op,
		})
	}
	return calls, nil
}
