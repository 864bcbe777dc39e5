package blockchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// ErrNoNetwork is returned when a chain operation runs without --network or --rpc-url
var ErrNoNetwork = errors.New("no network configured, pass --network or --rpc-url")

// receiptPollInterval is how often WaitMined asks for a receipt
var receiptPollInterval = 2 * time.Second

// ethBackend is the subset of ethclient.Client used by ClientAdapter
type ethBackend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

// ClientAdapter implements ChainClient with a JSON-RPC connection. The
// connection is opened on first use.
type ClientAdapter struct {
	cfg *config.RuntimeConfig
	log *slog.Logger

	mu      sync.Mutex
	backend ethBackend
	chainID *big.Int

	// deployed code never changes, empty results are not cached
	code *lru.Cache[common.Address, []byte]
}

// NewClientAdapter creates a new chain client adapter
func NewClientAdapter(cfg *config.RuntimeConfig, log *slog.Logger) (*ClientAdapter, error) {
	code, err := lru.New[common.Address, []byte](256)
	if err != nil {
		return nil, err
	}
	return &ClientAdapter{
		cfg:  cfg,
		log:  log.With("component", "ChainClient"),
		code: code,
	}, nil
}

func (c *ClientAdapter) connect(ctx context.Context) (ethBackend, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend != nil {
		return c.backend, nil
	}
	if c.cfg.Network == nil || c.cfg.Network.RPCURL == "" {
		return nil, ErrNoNetwork
	}

	c.log.Debug("dialing RPC", "network", c.cfg.Network.Name)
	client, err := ethclient.DialContext(ctx, c.cfg.Network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	c.backend = client
	return client, nil
}

// ChainID returns the connected chain id, cached after the first call
func (c *ClientAdapter) ChainID(ctx context.Context) (*big.Int, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	cached := c.chainID
	c.mu.Unlock()
	if cached != nil {
		return new(big.Int).Set(cached), nil
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	c.mu.Lock()
	c.chainID = chainID
	c.mu.Unlock()
	return new(big.Int).Set(chainID), nil
}

// CodeAt returns the runtime code at address in the latest block
func (c *ClientAdapter) CodeAt(ctx context.Context, address common.Address) ([]byte, error) {
	if code, ok := c.code.Get(address); ok {
		return code, nil
	}
	backend, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	code, err := backend.CodeAt(ctx, address, nil)
	if err != nil {
		return nil, err
	}
	if len(code) > 0 {
		c.code.Add(address, code)
	}
	return code, nil
}

// Call runs an eth_call against the latest block
func (c *ClientAdapter) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	return backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
}

// SendTransaction signs req with signer and broadcasts it. Nonce and fees
// are filled in by the bound contract.
func (c *ClientAdapter) SendTransaction(ctx context.Context, signer usecase.Signer, req models.TxRequest) (common.Hash, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	opts := &bind.TransactOpts{
		From:     signer.Address(),
		Signer:   signerFn(ctx, signer, chainID),
		Value:    req.Value,
		GasLimit: req.GasLimit,
		Context:  ctx,
	}
	contract := bind.NewBoundContract(req.To, abi.ABI{}, backend, backend, backend)
	tx, err := contract.RawTransact(opts, req.Data)
	if err != nil {
		return common.Hash{}, err
	}
	c.log.Debug("transaction sent", "hash", tx.Hash().Hex(), "to", req.To.Hex(), "nonce", tx.Nonce())
	return tx.Hash(), nil
}

// signerFn adapts a hash signer to bind.SignerFn
func signerFn(ctx context.Context, signer usecase.Signer, chainID *big.Int) bind.SignerFn {
	txSigner := types.LatestSignerForChainID(chainID)
	return func(from common.Address, tx *types.Transaction) (*types.Transaction, error) {
		if from != signer.Address() {
			return nil, bind.ErrNotAuthorized
		}
		sig, err := signer.SignHash(ctx, txSigner.Hash(tx))
		if err != nil {
			return nil, err
		}
		if len(sig) != 65 {
			return nil, fmt.Errorf("signer returned %d bytes, want 65", len(sig))
		}
		sig = append([]byte(nil), sig...)
		if sig[64] >= 27 {
			sig[64] -= 27
		}
		return tx.WithSignature(txSigner, sig)
	}
}

// WaitMined polls for the receipt of txHash until it is mined or ctx is done
func (c *ClientAdapter) WaitMined(ctx context.Context, txHash common.Hash) (*models.Receipt, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := backend.TransactionReceipt(ctx, txHash)
		if err == nil {
			return toReceipt(receipt), nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			c.log.Debug("receipt lookup failed", "hash", txHash.Hex(), "error", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func toReceipt(r *types.Receipt) *models.Receipt {
	out := &models.Receipt{
		TxHash:  r.TxHash,
		Status:  r.Status,
		GasUsed: r.GasUsed,
	}
	if r.BlockNumber != nil {
		out.BlockNumber = r.BlockNumber.Uint64()
	}
	return out
}

// Close releases the RPC connection if one was opened
func (c *ClientAdapter) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if client, ok := c.backend.(*ethclient.Client); ok {
		client.Close()
	}
	c.backend = nil
}

var _ usecase.ChainClient = (*ClientAdapter)(nil)
