package safe

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when the service does not know the requested resource
var ErrNotFound = errors.New("not found in Safe Transaction Service")

// TransactionServiceURLs contains the Safe Transaction Service URLs for different networks
var TransactionServiceURLs = map[uint64]string{
	1:        "https://safe-transaction-mainnet.safe.global",
	10:       "https://safe-transaction-optimism.safe.global",
	56:       "https://safe-transaction-bsc.safe.global",
	100:      "https://safe-transaction-gnosis-chain.safe.global",
	137:      "https://safe-transaction-polygon.safe.global",
	324:      "https://safe-transaction-zksync.safe.global",
	8453:     "https://safe-transaction-base.safe.global",
	42161:    "https://safe-transaction-arbitrum.safe.global",
	42220:    "https://safe-transaction-celo.safe.global",
	43114:    "https://safe-transaction-avalanche.safe.global",
	11155111: "https://safe-transaction-sepolia.safe.global",
}

// MultisigTransaction is the service's view of a proposed Safe transaction
type MultisigTransaction struct {
	Safe                  string         `json:"safe"`
	To                    string         `json:"to"`
	Value                 string         `json:"value"`
	Data                  *string        `json:"data"`
	Operation             int            `json:"operation"`
	SafeTxGas             json.Number    `json:"safeTxGas"`
	BaseGas               json.Number    `json:"baseGas"`
	GasPrice              string         `json:"gasPrice"`
	GasToken              string         `json:"gasToken"`
	RefundReceiver        string         `json:"refundReceiver"`
	Nonce                 json.Number    `json:"nonce"`
	ExecutionDate         *time.Time     `json:"executionDate"`
	SubmissionDate        time.Time      `json:"submissionDate"`
	TransactionHash       *string        `json:"transactionHash"`
	SafeTxHash            string         `json:"safeTxHash"`
	Executor              *string        `json:"executor"`
	IsExecuted            bool           `json:"isExecuted"`
	IsSuccessful          *bool          `json:"isSuccessful"`
	ConfirmationsRequired int            `json:"confirmationsRequired"`
	Confirmations         []Confirmation `json:"confirmations"`
}

// Confirmation is one owner's signature as stored by the service
type Confirmation struct {
	Owner           string    `json:"owner"`
	SubmissionDate  time.Time `json:"submissionDate"`
	TransactionHash *string   `json:"transactionHash"`
	Signature       string    `json:"signature"`
	SignatureType   string    `json:"signatureType"`
}
