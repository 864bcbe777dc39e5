package safe

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/treb-safe/internal/config"
	domainconfig "github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
	"github.com/trebuchet-org/treb-safe/pkg/safe"
)

// ServiceAdapter implements TransactionService on top of pkg/safe, keeping one
// client per chain
type ServiceAdapter struct {
	cfg *domainconfig.RuntimeConfig

	mu      sync.Mutex
	clients map[uint64]*safe.Client
}

// NewServiceAdapter creates a new Transaction Service adapter
func NewServiceAdapter(cfg *domainconfig.RuntimeConfig) *ServiceAdapter {
	return &ServiceAdapter{
		cfg:     cfg,
		clients: make(map[uint64]*safe.Client),
	}
}

func (a *ServiceAdapter) client(chainID uint64) (*safe.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if c, ok := a.clients[chainID]; ok {
		return c, nil
	}

	var c *safe.Client
	if url := config.ServiceURL(a.cfg, chainID); url != "" {
		c = safe.NewClientWithURL(url)
	} else {
		var err error
		if c, err = safe.NewClient(chainID); err != nil {
			return nil, err
		}
	}
	a.clients[chainID] = c
	return c, nil
}

// GetConfirmations converts the service's confirmations into engine signatures
func (a *ServiceAdapter) GetConfirmations(ctx context.Context, chainID uint64, safeTxHash common.Hash) ([]models.Signature, error) {
	c, err := a.client(chainID)
	if err != nil {
		return nil, err
	}
	confirmations, err := c.GetConfirmations(ctx, safeTxHash)
	if err != nil {
		return nil, err
	}

	out := make([]models.Signature, 0, len(confirmations))
	for _, conf := range confirmations {
		sig, err := toSignature(conf)
		if err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, nil
}

// GetExecutionInfo reports whether the service saw the transaction executed
func (a *ServiceAdapter) GetExecutionInfo(ctx context.Context, chainID uint64, safeTxHash common.Hash) (*models.SafeExecutionInfo, error) {
	c, err := a.client(chainID)
	if err != nil {
		return nil, err
	}
	tx, err := c.GetTransaction(ctx, safeTxHash)
	if errors.Is(err, safe.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	info := &models.SafeExecutionInfo{
		IsExecuted:            tx.IsExecuted,
		Confirmations:         len(tx.Confirmations),
		ConfirmationsRequired: tx.ConfirmationsRequired,
	}
	if tx.TransactionHash != nil {
		info.TxHash = common.HexToHash(*tx.TransactionHash)
	}
	return info, nil
}

func toSignature(conf safe.Confirmation) (models.Signature, error) {
	if !common.IsHexAddress(conf.Owner) {
		return models.Signature{}, fmt.Errorf("confirmation owner %q is not an address", conf.Owner)
	}
	kind, err := models.ParseSignatureKind(conf.SignatureType)
	if err != nil {
		return models.Signature{}, err
	}
	data, err := hexutil.Decode(conf.Signature)
	if err != nil {
		return models.Signature{}, fmt.Errorf("confirmation from %s: %w", conf.Owner, err)
	}
	return models.Signature{
		Signer: common.HexToAddress(conf.Owner),
		Data:   data,
		Kind:   kind,
	}, nil
}

var _ usecase.TransactionService = (*ServiceAdapter)(nil)
