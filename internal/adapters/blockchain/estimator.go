package blockchain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/trebuchet-org/treb-safe/internal/builder"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

// EstimatorAdapter estimates safeTxGas with eth_estimateGas, sending the inner
// call from the Safe itself. A delegate call is estimated as a plain call to
// the same target.
type EstimatorAdapter struct {
	client *ClientAdapter
}

// NewEstimatorAdapter creates a gas estimator sharing client's connection
func NewEstimatorAdapter(client *ClientAdapter) *EstimatorAdapter {
	return &EstimatorAdapter{client: client}
}

// Estimate implements builder.GasEstimator
func (e *EstimatorAdapter) Estimate(ctx context.Context, req models.EstimateRequest) (uint64, error) {
	if req.Method != builder.EstimateSafeTxGas {
		return 0, fmt.Errorf("unsupported estimation method %q", req.Method)
	}
	backend, err := e.client.connect(ctx)
	if err != nil {
		return 0, err
	}
	to := req.To
	return backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  req.From,
		To:    &to,
		Value: req.Value,
		Data:  req.Data,
	})
}

var _ builder.GasEstimator = (*EstimatorAdapter)(nil)
