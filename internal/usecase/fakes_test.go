package usecase_test

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-safe/internal/builder"
	"github.com/trebuchet-org/treb-safe/internal/contracts"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeChain answers Safe and factory view calls from in-memory state
type fakeChain struct {
	mu sync.Mutex

	chainID      *big.Int
	code         map[common.Address][]byte
	version      string
	owners       []common.Address
	threshold    uint64
	nonce        uint64
	modules      []common.Address
	guard        common.Address
	fallback     common.Address
	creationCode []byte

	creationCodeCalls int
	sent              []models.TxRequest
	sentBy            []common.Address
	sendErr           error
	reverted          bool
}

func newFakeChain(safe common.Address, version contracts.SafeVersion, owners []common.Address, threshold uint64) *fakeChain {
	return &fakeChain{
		chainID:      big.NewInt(11155111),
		code:         map[common.Address][]byte{safe: {0x60, 0x80}},
		version:      string(version),
		owners:       owners,
		threshold:    threshold,
		creationCode: []byte{0x60, 0x80, 0x60, 0x40},
	}
}

func (f *fakeChain) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(f.chainID), nil
}

func (f *fakeChain) CodeAt(_ context.Context, address common.Address) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.code[address], nil
}

func (f *fakeChain) Call(_ context.Context, _ common.Address, data []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if method, err := contracts.ProxyFactoryABI.MethodById(data); err == nil && method.Name == "proxyCreationCode" {
		f.creationCodeCalls++
		return method.Outputs.Pack(f.creationCode)
	}

	method, err := contracts.SafeABI.MethodById(data)
	if err != nil {
		return nil, fmt.Errorf("unknown selector %x", data[:4])
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}

	switch method.Name {
	case "VERSION":
		return method.Outputs.Pack(f.version)
	case "nonce":
		return method.Outputs.Pack(new(big.Int).SetUint64(f.nonce))
	case "getOwners":
		return method.Outputs.Pack(f.owners)
	case "getThreshold":
		return method.Outputs.Pack(new(big.Int).SetUint64(f.threshold))
	case "getModules":
		return method.Outputs.Pack(f.modules)
	case "getModulesPaginated":
		page, next := f.modulesPage(args[0].(common.Address), int(args[1].(*big.Int).Int64()))
		return method.Outputs.Pack(page, next)
	case "isModuleEnabled":
		module := args[0].(common.Address)
		for _, m := range f.modules {
			if m == module {
				return method.Outputs.Pack(true)
			}
		}
		return method.Outputs.Pack(false)
	case "getStorageAt":
		slot := common.BigToHash(args[0].(*big.Int))
		var value common.Address
		switch slot {
		case contracts.GuardStorageSlot:
			value = f.guard
		case contracts.FallbackHandlerStorageSlot:
			value = f.fallback
		}
		return method.Outputs.Pack(common.LeftPadBytes(value.Bytes(), 32))
	case "approvedHashes":
		return method.Outputs.Pack(big.NewInt(0))
	}
	return nil, fmt.Errorf("unhandled method %s", method.Name)
}

// modulesPage follows the contract's linked-list walk. From 1.4.1 next is
// the last module of the page, before that the first module not returned.
func (f *fakeChain) modulesPage(start common.Address, size int) ([]common.Address, common.Address) {
	i := 0
	if start != contracts.Sentinel {
		i = slices.Index(f.modules, start) + 1
	}
	end := min(i+size, len(f.modules))
	page := slices.Clone(f.modules[i:end])
	next := contracts.Sentinel
	if end < len(f.modules) {
		next = f.modules[end]
		if f.version == string(contracts.V1_4_1) {
			next = page[len(page)-1]
		}
	}
	return page, next
}

func (f *fakeChain) SendTransaction(_ context.Context, signer usecase.Signer, req models.TxRequest) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return common.Hash{}, f.sendErr
	}
	f.sent = append(f.sent, req)
	f.sentBy = append(f.sentBy, signer.Address())
	return crypto.Keccak256Hash(req.Data), nil
}

func (f *fakeChain) WaitMined(_ context.Context, txHash common.Hash) (*models.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status := uint64(1)
	if f.reverted {
		status = 0
	}
	return &models.Receipt{TxHash: txHash, BlockNumber: 100, Status: status, GasUsed: 90000}, nil
}

// memStore is an in-memory SessionStore
type memStore struct {
	mu       sync.Mutex
	sessions map[common.Hash]models.SafeTransaction
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[common.Hash]models.SafeTransaction)}
}

func (s *memStore) Save(_ context.Context, tx *models.SafeTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[tx.SafeTxHash] = *tx
	return nil
}

func (s *memStore) Load(_ context.Context, hash common.Hash) (*models.SafeTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.sessions[hash]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", hash.Hex(), domain.ErrSessionNotFound)
	}
	return &tx, nil
}

func (s *memStore) List(context.Context) ([]*models.SafeTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.SafeTransaction
	for _, tx := range s.sessions {
		out = append(out, &tx)
	}
	return out, nil
}

// keySigner signs with an in-memory private key
type keySigner struct {
	key *ecdsa.PrivateKey
}

func newKeySigner(t *testing.T) *keySigner {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &keySigner{key: key}
}

func (k *keySigner) Address() common.Address {
	return crypto.PubkeyToAddress(k.key.PublicKey)
}

func (k *keySigner) SignHash(_ context.Context, digest common.Hash) ([]byte, error) {
	return crypto.Sign(digest.Bytes(), k.key)
}

func (k *keySigner) SignTypedData(_ context.Context, typedData apitypes.TypedData) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, err
	}
	return crypto.Sign(hash, k.key)
}

// fakeService is a TransactionService returning fixed confirmations
type fakeService struct {
	confirmations []models.Signature
	info          *models.SafeExecutionInfo
}

func (f *fakeService) GetConfirmations(context.Context, uint64, common.Hash) ([]models.Signature, error) {
	return f.confirmations, nil
}

func (f *fakeService) GetExecutionInfo(context.Context, uint64, common.Hash) (*models.SafeExecutionInfo, error) {
	return f.info, nil
}

// env wires the use cases against a fake chain
type env struct {
	chain    *fakeChain
	store    *memStore
	registry *contracts.Registry
	connect  *usecase.ConnectSafe
	predict  *usecase.PredictSafe
	create   *usecase.CreateTransaction
	sign     *usecase.SignTransaction
	execute  *usecase.ExecuteTransaction
	approve  *usecase.ApproveTransactionHash
	modules  *usecase.ManageModules
	owners   *usecase.ManageOwners
}

func newEnv(t *testing.T, chain *fakeChain, overrides contracts.ContractNetworks) *env {
	t.Helper()
	log := testLogger()
	store := newMemStore()
	registry := contracts.NewRegistry(overrides)
	codes, err := usecase.NewCreationCodeCache()
	require.NoError(t, err)

	metrics := usecase.NopMetrics{}
	sink := usecase.NopProgress{}
	connect := usecase.NewConnectSafe(chain, registry, log)
	create := usecase.NewCreateTransaction(builder.NewBuilder(nil, log), store, metrics, log)

	return &env{
		chain:    chain,
		store:    store,
		registry: registry,
		connect:  connect,
		predict:  usecase.NewPredictSafe(chain, registry, codes, metrics, sink, log),
		create:   create,
		sign:     usecase.NewSignTransaction(store, metrics, sink, log),
		execute:  usecase.NewExecuteTransaction(chain, connect, store, metrics, sink, log),
		approve:  usecase.NewApproveTransactionHash(chain, connect, store, metrics, log),
		modules:  usecase.NewManageModules(create, log),
		owners:   usecase.NewManageOwners(create, log),
	}
}
