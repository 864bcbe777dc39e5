package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/app"
	"github.com/trebuchet-org/treb-safe/internal/config"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// skipApp lists commands that run without a project or network
var skipApp = map[string]bool{
	"version":    true,
	"help":       true,
	"completion": true,
	"versions":   true,
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "treb-safe",
		Short: "Build, sign and execute Safe multisig transactions",
		Long: `treb-safe builds Safe smart account transactions, collects owner
signatures in local signing sessions and submits execTransaction once the
threshold is met. It supports Safe contracts from 1.0.0 to 1.4.1.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipApp[cmd.Name()] {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}

			v := config.SetupViper(projectRoot, cmd)

			appInstance, err := app.InitApp(v)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cancel := context.CancelFunc(func() {})
			if appInstance.Config.Timeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
			}
			cmd.SetContext(ctx)

			// Runs after RunE, also when it fails
			cobra.OnFinalize(func() {
				defer cancel()
				if err := appInstance.Close(); err != nil {
					appInstance.Log.Warn("failed to write metrics", "error", err)
				}
			})

			return nil
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.Bool("debug", false, "Enable debug output")
	flags.Bool("non-interactive", false, "Disable interactive prompts")
	flags.Bool("json", false, "Output as JSON")
	flags.StringP("network", "n", "", "Network to use (e.g., mainnet, sepolia)")
	flags.String("rpc-url", "", "RPC endpoint, overrides --network")
	flags.String("private-key", "", "Hex private key used to sign and submit (defaults to PRIVATE_KEY)")
	flags.String("service-url", "", "Safe Transaction Service base URL")
	flags.String("data-dir", "", "Directory for signing sessions (defaults to .treb-safe)")
	flags.String("metrics-file", "", "Write Prometheus metrics to this file on exit")
	flags.Duration("timeout", 0, "Abort the command after this duration")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Transaction Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Safe Management Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "info",
		Title: "Information Commands",
	})

	for _, cmd := range []*cobra.Command{
		NewBuildCmd(),
		NewHashCmd(),
		NewSignCmd(),
		NewApproveCmd(),
		NewExecuteCmd(),
		NewListCmd(),
		NewShowCmd(),
	} {
		cmd.GroupID = "main"
		rootCmd.AddCommand(cmd)
	}

	for _, cmd := range []*cobra.Command{
		NewOwnersCmd(),
		NewModuleCmd(),
		NewGuardCmd(),
		NewFallbackHandlerCmd(),
		NewSignMessageCmd(),
	} {
		cmd.GroupID = "management"
		rootCmd.AddCommand(cmd)
	}

	for _, cmd := range []*cobra.Command{
		NewInfoCmd(),
		NewPredictCmd(),
		NewVersionsCmd(),
	} {
		cmd.GroupID = "info"
		rootCmd.AddCommand(cmd)
	}

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}
