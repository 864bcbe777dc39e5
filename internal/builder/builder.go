// Package builder turns caller calls into SafeTransactionData.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-safe/internal/contracts"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

// EstimateSafeTxGas is the estimation method the builder requests
const EstimateSafeTxGas = "safeTxGas"

// GasEstimator estimates the gas an inner Safe call consumes
type GasEstimator interface {
	Estimate(ctx context.Context, req models.EstimateRequest) (uint64, error)
}

// Account is the Safe a transaction is built for
type Account struct {
	Address   common.Address
	Caps      contracts.Capabilities
	Contracts contracts.ContractAddresses
	Deployed  bool

	// Nonce is the current on-chain nonce. Ignored for predicted accounts.
	Nonce uint64
}

// Options override the defaults of a built transaction. Empty strings and nil
// pointers mean "use the default".
type Options struct {
	OnlyCalls      bool
	SafeTxGas      string
	BaseGas        string
	GasPrice       string
	GasToken       common.Address
	RefundReceiver common.Address
	Nonce          *uint64
}

// Builder assembles Safe transactions
type Builder struct {
	estimator GasEstimator
	log       *slog.Logger
}

// NewBuilder creates a builder. estimator may be nil when every caller
// provides safeTxGas or targets 1.3.0+ with a zero gas price.
func NewBuilder(estimator GasEstimator, log *slog.Logger) *Builder {
	return &Builder{
		estimator: estimator,
		log:       log.With("component", "Builder"),
	}
}

// Build creates the SafeTransactionData for calls. A single call is sent
// directly; several calls are batched through MultiSend with a DelegateCall.
func (b *Builder) Build(ctx context.Context, account Account, calls []models.MetaTransaction, opts Options) (models.SafeTransactionData, error) {
	if len(calls) == 0 {
		return models.SafeTransactionData{}, domain.ErrEmptyBatch
	}
	if !account.Deployed && !account.Caps.PredictedFlows {
		return models.SafeTransactionData{}, domain.ErrAccountAbstractionUnavailable
	}

	tx, err := b.body(account, calls, opts)
	if err != nil {
		return models.SafeTransactionData{}, err
	}

	tx.BaseGas = defaultAmount(opts.BaseGas)
	tx.GasPrice = defaultAmount(opts.GasPrice)
	tx.GasToken = opts.GasToken
	tx.RefundReceiver = opts.RefundReceiver

	switch {
	case opts.Nonce != nil:
		tx.Nonce = *opts.Nonce
	case !account.Deployed:
		tx.Nonce = 0
	default:
		tx.Nonce = account.Nonce
	}

	if tx.SafeTxGas, err = b.safeTxGas(ctx, account, tx, opts); err != nil {
		return models.SafeTransactionData{}, err
	}

	if err := tx.Validate(); err != nil {
		return models.SafeTransactionData{}, err
	}

	b.log.Debug("built safe transaction",
		"safe", account.Address.Hex(),
		"calls", len(calls),
		"to", tx.To.Hex(),
		"operation", tx.Operation.String(),
		"nonce", tx.Nonce,
		"safeTxGas", tx.SafeTxGas)
	return tx, nil
}

func (b *Builder) body(account Account, calls []models.MetaTransaction, opts Options) (models.SafeTransactionData, error) {
	if len(calls) == 1 {
		call := calls[0]
		if !call.Operation.Valid() {
			return models.SafeTransactionData{}, fmt.Errorf("operation %d: %w", call.Operation, domain.ErrInvalidCall)
		}
		if _, err := models.ParseAmount(call.Value); err != nil {
			return models.SafeTransactionData{}, fmt.Errorf("value: %w", err)
		}
		return models.SafeTransactionData{
			To:        call.To,
			Value:     defaultAmount(call.Value),
			Data:      call.Data,
			Operation: call.Operation,
		}, nil
	}

	target := account.Contracts.MultiSend
	if opts.OnlyCalls {
		target = account.Contracts.MultiSendCallOnly
		for i, call := range calls {
			if call.Operation != models.OperationCall {
				return models.SafeTransactionData{}, fmt.Errorf("call %d uses delegate call with MultiSendCallOnly: %w", i, domain.ErrInvalidCall)
			}
		}
	}
	if target == (common.Address{}) {
		return models.SafeTransactionData{}, fmt.Errorf("multisend for Safe %s: %w", account.Caps.Version, domain.ErrContractsNotFound)
	}

	data, err := contracts.EncodeMultiSend(calls)
	if err != nil {
		return models.SafeTransactionData{}, err
	}
	return models.SafeTransactionData{
		To:        target,
		Value:     "0",
		Data:      data,
		Operation: models.OperationDelegateCall,
	}, nil
}

// safeTxGas is 0 when the contract allows it, otherwise estimated
func (b *Builder) safeTxGas(ctx context.Context, account Account, tx models.SafeTransactionData, opts Options) (string, error) {
	if opts.SafeTxGas != "" {
		return opts.SafeTxGas, nil
	}
	gasPrice, err := models.ParseAmount(tx.GasPrice)
	if err != nil {
		return "", fmt.Errorf("gasPrice: %w", err)
	}
	if account.Caps.OptionalSafeTxGas && gasPrice.Sign() == 0 {
		return "0", nil
	}
	if !account.Deployed {
		return "", domain.ErrSafeNotDeployed
	}
	if b.estimator == nil {
		return "", domain.WrapCollaborator("estimate safeTxGas", fmt.Errorf("no gas estimator configured"))
	}

	value, err := models.ParseAmount(tx.Value)
	if err != nil {
		return "", err
	}
	gas, err := b.estimator.Estimate(ctx, models.EstimateRequest{
		Method:    EstimateSafeTxGas,
		From:      account.Address,
		To:        tx.To,
		Value:     value,
		Data:      tx.Data,
		Operation: tx.Operation,
	})
	if err != nil {
		return "", domain.WrapCollaborator("estimate safeTxGas", err)
	}
	return strconv.FormatUint(gas, 10), nil
}

func defaultAmount(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
