package app

import (
	"log/slog"

	"github.com/trebuchet-org/treb-safe/internal/adapters/blockchain"
	"github.com/trebuchet-org/treb-safe/internal/adapters/signer"
	"github.com/trebuchet-org/treb-safe/internal/contracts"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/metrics"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Shared dependencies
	Selector usecase.TransactionSelector
	Signers  *signer.Provider
	Registry *contracts.Registry
	Sink     usecase.ProgressSink
	Metrics  *metrics.EngineMetrics
	Chain    *blockchain.ClientAdapter

	// Use cases
	ConnectSafe         *usecase.ConnectSafe
	PredictSafe         *usecase.PredictSafe
	CreateTransaction   *usecase.CreateTransaction
	SignTransaction     *usecase.SignTransaction
	ImportConfirmations *usecase.ImportConfirmations
	ExecuteTransaction  *usecase.ExecuteTransaction
	ApproveHash         *usecase.ApproveTransactionHash
	ManageModules       *usecase.ManageModules
	ManageOwners        *usecase.ManageOwners
	ListTransactions    *usecase.ListTransactions
	ShowTransaction     *usecase.ShowTransaction
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	selector usecase.TransactionSelector,
	signers *signer.Provider,
	registry *contracts.Registry,
	sink usecase.ProgressSink,
	engineMetrics *metrics.EngineMetrics,
	chain *blockchain.ClientAdapter,
	connectSafe *usecase.ConnectSafe,
	predictSafe *usecase.PredictSafe,
	createTransaction *usecase.CreateTransaction,
	signTransaction *usecase.SignTransaction,
	importConfirmations *usecase.ImportConfirmations,
	executeTransaction *usecase.ExecuteTransaction,
	approveHash *usecase.ApproveTransactionHash,
	manageModules *usecase.ManageModules,
	manageOwners *usecase.ManageOwners,
	listTransactions *usecase.ListTransactions,
	showTransaction *usecase.ShowTransaction,
) *App {
	return &App{
		Config:              cfg,
		Log:                 log,
		Selector:            selector,
		Signers:             signers,
		Registry:            registry,
		Sink:                sink,
		Metrics:             engineMetrics,
		Chain:               chain,
		ConnectSafe:         connectSafe,
		PredictSafe:         predictSafe,
		CreateTransaction:   createTransaction,
		SignTransaction:     signTransaction,
		ImportConfirmations: importConfirmations,
		ExecuteTransaction:  executeTransaction,
		ApproveHash:         approveHash,
		ManageModules:       manageModules,
		ManageOwners:        manageOwners,
		ListTransactions:    listTransactions,
		ShowTransaction:     showTransaction,
	}
}

// Close releases the RPC connection and writes --metrics-file
func (a *App) Close() error {
	a.Chain.Close()
	if stopper, ok := a.Sink.(interface{ Stop() }); ok {
		stopper.Stop()
	}
	return a.Metrics.Flush()
}
