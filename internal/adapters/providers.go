package adapters

import (
	"github.com/google/wire"
	"github.com/trebuchet-org/treb-safe/internal/adapters/blockchain"
	"github.com/trebuchet-org/treb-safe/internal/adapters/fs"
	"github.com/trebuchet-org/treb-safe/internal/adapters/interactive"
	"github.com/trebuchet-org/treb-safe/internal/adapters/progress"
	"github.com/trebuchet-org/treb-safe/internal/adapters/safe"
	"github.com/trebuchet-org/treb-safe/internal/adapters/signer"
	"github.com/trebuchet-org/treb-safe/internal/builder"
	"github.com/trebuchet-org/treb-safe/internal/config"
	"github.com/trebuchet-org/treb-safe/internal/contracts"
	"github.com/trebuchet-org/treb-safe/internal/metrics"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	fs.NewSessionStoreAdapter,
	wire.Bind(new(usecase.SessionStore), new(*fs.SessionStoreAdapter)),
)

// BlockchainSet provides the JSON-RPC chain client and gas estimator
var BlockchainSet = wire.NewSet(
	blockchain.NewClientAdapter,
	wire.Bind(new(usecase.ChainClient), new(*blockchain.ClientAdapter)),

	blockchain.NewEstimatorAdapter,
	wire.Bind(new(builder.GasEstimator), new(*blockchain.EstimatorAdapter)),
)

// SafeServiceSet provides the Safe Transaction Service client
var SafeServiceSet = wire.NewSet(
	safe.NewServiceAdapter,
	wire.Bind(new(usecase.TransactionService), new(*safe.ServiceAdapter)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.TransactionSelector), new(*interactive.SelectorAdapter)),
)

// SignerSet provides the configured local signer
var SignerSet = wire.NewSet(
	signer.NewProvider,
)

// ProgressSet provides progress reporting
var ProgressSet = wire.NewSet(
	progress.NewProgressSink,
)

// MetricsSet provides engine metrics
var MetricsSet = wire.NewSet(
	metrics.NewEngineMetrics,
	wire.Bind(new(usecase.Metrics), new(*metrics.EngineMetrics)),
)

// ContractsSet provides the contract address registry
var ContractsSet = wire.NewSet(
	config.ProvideContractNetworks,
	contracts.NewRegistry,
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	FSSet,
	BlockchainSet,
	SafeServiceSet,
	InteractiveSet,
	SignerSet,
	ProgressSet,
	MetricsSet,
	ContractsSet,
)
