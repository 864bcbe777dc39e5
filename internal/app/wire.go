//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-safe/internal/adapters"
	"github.com/trebuchet-org/treb-safe/internal/builder"
	"github.com/trebuchet-org/treb-safe/internal/config"
	"github.com/trebuchet-org/treb-safe/internal/logging"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper) (*App, error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Engine
		builder.NewBuilder,
		usecase.NewCreationCodeCache,

		// Use cases
		usecase.NewConnectSafe,
		usecase.NewPredictSafe,
		usecase.NewCreateTransaction,
		usecase.NewSignTransaction,
		usecase.NewImportConfirmations,
		usecase.NewExecuteTransaction,
		usecase.NewApproveTransactionHash,
		usecase.NewManageModules,
		usecase.NewManageOwners,
		usecase.NewListTransactions,
		usecase.NewShowTransaction,

		// App
		NewApp,
	)
	return nil, nil
}
