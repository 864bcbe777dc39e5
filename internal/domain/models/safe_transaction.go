package models

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/trebuchet-org/treb-safe/internal/domain"
)

// Operation is the Safe call type
type Operation uint8

const (
	OperationCall         Operation = 0
	OperationDelegateCall Operation = 1
)

func (o Operation) String() string {
	switch o {
	case OperationCall:
		return "CALL"
	case OperationDelegateCall:
		return "DELEGATECALL"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(o))
	}
}

// Valid reports whether o is one of the two operations a Safe understands
func (o Operation) Valid() bool {
	return o == OperationCall || o == OperationDelegateCall
}

// MetaTransaction is a single call requested by the caller, before it is turned
// into a Safe transaction
type MetaTransaction struct {
	To        common.Address `json:"to"`
	Value     string         `json:"value"`
	Data      hexutil.Bytes  `json:"data"`
	Operation Operation      `json:"operation"` // 0 = Call, 1 = DelegateCall
}

// SafeTransactionData holds the ten fields covered by the SafeTx typed hash.
// Amount and gas fields are decimal strings bounded by uint256.
type SafeTransactionData struct {
	To             common.Address `json:"to"`
	Value          string         `json:"value"`
	Data           hexutil.Bytes  `json:"data"`
	Operation      Operation      `json:"operation"`
	SafeTxGas      string         `json:"safeTxGas"`
	BaseGas        string         `json:"baseGas"`
	GasPrice       string         `json:"gasPrice"`
	GasToken       common.Address `json:"gasToken"`
	RefundReceiver common.Address `json:"refundReceiver"`
	Nonce          uint64         `json:"nonce"`
}

// Validate checks the operation and every amount field
func (d SafeTransactionData) Validate() error {
	if !d.Operation.Valid() {
		return fmt.Errorf("operation %d: %w", d.Operation, domain.ErrInvalidCall)
	}
	fields := []struct{ name, value string }{
		{"value", d.Value},
		{"safeTxGas", d.SafeTxGas},
		{"baseGas", d.BaseGas},
		{"gasPrice", d.GasPrice},
	}
	for _, f := range fields {
		if _, err := ParseAmount(f.value); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return nil
}

// Amounts returns the numeric form of value, safeTxGas, baseGas and gasPrice
func (d SafeTransactionData) Amounts() (value, safeTxGas, baseGas, gasPrice *big.Int, err error) {
	if value, err = ParseAmount(d.Value); err != nil {
		return
	}
	if safeTxGas, err = ParseAmount(d.SafeTxGas); err != nil {
		return
	}
	if baseGas, err = ParseAmount(d.BaseGas); err != nil {
		return
	}
	gasPrice, err = ParseAmount(d.GasPrice)
	return
}

// ParseAmount parses a non-negative decimal integer that fits in 256 bits.
// The empty string is read as zero.
func ParseAmount(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", s, domain.ErrInvalidAmount)
	}
	return v.ToBig(), nil
}

// TransactionStatus is the lifecycle of a stored signing session
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "PENDING"
	TransactionStatusReady    TransactionStatus = "READY"
	TransactionStatusRejected  TransactionStatus = "REJECTED"
	TransactionStatusSubmitted TransactionStatus = "SUBMITTED"
	TransactionStatusExecuted  TransactionStatus = "EXECUTED"
	TransactionStatusFailed   TransactionStatus = "FAILED"
)

// SafeTransaction is a built transaction together with the signatures
// collected for it so far
type SafeTransaction struct {
	// Identification
	SafeTxHash  common.Hash       `json:"safeTxHash"`
	SafeAddress common.Address    `json:"safeAddress"`
	ChainID     uint64            `json:"chainId"`
	Version     string            `json:"version"`
	Status      TransactionStatus `json:"status"`
	Threshold   uint64            `json:"threshold"`
	Owners      []common.Address  `json:"owners"`

	Data SafeTransactionData `json:"data"`

	// Calls that were batched into Data, kept for display
	Calls []MetaTransaction `json:"calls,omitempty"`

	Signatures []Signature `json:"signatures"`

	CreatedAt time.Time `json:"createdAt"`

	// Execution details
	ExecutedAt      *time.Time  `json:"executedAt,omitempty"`
	ExecutionTxHash common.Hash `json:"executionTxHash,omitempty"`
}

// SafeExecutionInfo summarises how far a transaction is from execution
type SafeExecutionInfo struct {
	IsExecuted            bool        `json:"isExecuted"`
	TxHash                common.Hash `json:"transactionHash"`
	Confirmations         int         `json:"confirmations"`
	ConfirmationsRequired int         `json:"confirmationsRequired"`
}

// EstimateRequest asks a gas estimator how much gas a call needs
type EstimateRequest struct {
	Method    string
	From      common.Address
	To        common.Address
	Value     *big.Int
	Data      []byte
	Operation Operation
}

// TxRequest is an unsigned outer transaction sent by an executor
type TxRequest struct {
	To       common.Address
	Value    *big.Int
	Data     []byte
	GasLimit uint64
}

// Receipt is the mined result of an outer transaction
type Receipt struct {
	TxHash      common.Hash `json:"txHash"`
	BlockNumber uint64      `json:"blockNumber"`
	Status      uint64      `json:"status"`
	GasUsed     uint64      `json:"gasUsed"`
}

// Succeeded reports whether the transaction did not revert
func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == 1
}
