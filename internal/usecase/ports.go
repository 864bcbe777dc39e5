package usecase

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

// ChainClient reads chain state and submits outer transactions
type ChainClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CodeAt(ctx context.Context, address common.Address) ([]byte, error)
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	// SendTransaction signs req with signer and broadcasts it
	SendTransaction(ctx context.Context, signer Signer, req models.TxRequest) (common.Hash, error)
	// WaitMined blocks until the transaction is included or ctx is done
	WaitMined(ctx context.Context, txHash common.Hash) (*models.Receipt, error)
}

// Signer produces secp256k1 signatures for one account. Signatures are
// 65 bytes [r ‖ s ‖ v] with v in {0, 1} or {27, 28}.
type Signer interface {
	Address() common.Address
	SignHash(ctx context.Context, digest common.Hash) ([]byte, error)
	SignTypedData(ctx context.Context, typedData apitypes.TypedData) ([]byte, error)
}

// GasEstimator estimates safeTxGas for an inner Safe call
type GasEstimator interface {
	Estimate(ctx context.Context, req models.EstimateRequest) (uint64, error)
}

// SessionStore persists transactions and their collected signatures
type SessionStore interface {
	Save(ctx context.Context, tx *models.SafeTransaction) error
	Load(ctx context.Context, safeTxHash common.Hash) (*models.SafeTransaction, error)
	List(ctx context.Context) ([]*models.SafeTransaction, error)
}

// TransactionService reads proposals from a Safe Transaction Service
type TransactionService interface {
	GetConfirmations(ctx context.Context, chainID uint64, safeTxHash common.Hash) ([]models.Signature, error)
	// GetExecutionInfo returns nil when the service does not know the transaction
	GetExecutionInfo(ctx context.Context, chainID uint64, safeTxHash common.Hash) (*models.SafeExecutionInfo, error)
}

// TransactionSelector handles interactive selection of stored transactions
type TransactionSelector interface {
	SelectTransaction(ctx context.Context, txs []*models.SafeTransaction, prompt string) (*models.SafeTransaction, error)
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Metrics records engine activity
type Metrics interface {
	TransactionBuilt(version string, batched bool)
	SignatureCollected(kind models.SignatureKind, err error)
	TransactionSubmitted(method string)
	SafePredicted(version string)
}

// NopMetrics discards everything
type NopMetrics struct{}

func (NopMetrics) TransactionBuilt(string, bool)                  {}
func (NopMetrics) SignatureCollected(models.SignatureKind, error) {}
func (NopMetrics) TransactionSubmitted(string)                    {}
func (NopMetrics) SafePredicted(string)                           {}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage   string
	Message string
	Spinner bool
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}

// Execution stages reported through ProgressSink
const (
	StageLoading    = "loading"
	StageConnecting = "connecting"
	StageBuilding   = "building"
	StageSigning    = "signing"
	StageSubmitting = "submitting"
	StageWaiting    = "waiting"
	StageCompleted  = "completed"
)
