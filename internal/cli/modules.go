package cli

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/app"
	"github.com/trebuchet-org/treb-safe/internal/builder"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// templateFunc builds one management transaction for a connected Safe
type templateFunc func(cmd *cobra.Command, a *app.App, safe *usecase.SafeAccount, args []string, opts builder.Options) (*models.SafeTransaction, error)

// newTemplateCmd wires the --safe and transaction flags around a template builder
func newTemplateCmd(use, short string, args cobra.PositionalArgs, build templateFunc) *cobra.Command {
	var (
		safe safeFlags
		tx   txFlags
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			opts, err := tx.options(cmd)
			if err != nil {
				return err
			}
			account, err := safe.connect(cmd, app)
			if err != nil {
				return err
			}
			created, err := build(cmd, app, account, args, opts)
			if err != nil {
				return err
			}
			return renderCreated(cmd, app, created)
		},
	}

	safe.register(cmd)
	tx.register(cmd)
	return cmd
}

// addressArg parses the positional address at index i
func addressArg(args []string, i int, what string) (common.Address, error) {
	return parseAddress(args[i], what)
}

// NewModuleCmd creates the module command
func NewModuleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "module",
		Short: "Enable or disable Safe modules",
	}

	cmd.AddCommand(newTemplateCmd("enable <module>", "Build a transaction that enables a module", cobra.ExactArgs(1),
		func(cmd *cobra.Command, a *app.App, safe *usecase.SafeAccount, args []string, opts builder.Options) (*models.SafeTransaction, error) {
			module, err := addressArg(args, 0, "module")
			if err != nil {
				return nil, err
			}
			return a.ManageModules.EnableModule(cmd.Context(), safe, module, opts)
		}))

	cmd.AddCommand(newTemplateCmd("disable <module>", "Build a transaction that disables a module", cobra.ExactArgs(1),
		func(cmd *cobra.Command, a *app.App, safe *usecase.SafeAccount, args []string, opts builder.Options) (*models.SafeTransaction, error) {
			module, err := addressArg(args, 0, "module")
			if err != nil {
				return nil, err
			}
			return a.ManageModules.DisableModule(cmd.Context(), safe, module, opts)
		}))

	return cmd
}

// NewGuardCmd creates the guard command
func NewGuardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guard",
		Short: "Set or remove the transaction guard (Safe 1.3.0+)",
	}

	cmd.AddCommand(newTemplateCmd("enable <guard>", "Build a transaction that sets the guard", cobra.ExactArgs(1),
		func(cmd *cobra.Command, a *app.App, safe *usecase.SafeAccount, args []string, opts builder.Options) (*models.SafeTransaction, error) {
			guard, err := addressArg(args, 0, "guard")
			if err != nil {
				return nil, err
			}
			return a.ManageModules.EnableGuard(cmd.Context(), safe, guard, opts)
		}))

	cmd.AddCommand(newTemplateCmd("disable", "Build a transaction that removes the guard", cobra.NoArgs,
		func(cmd *cobra.Command, a *app.App, safe *usecase.SafeAccount, args []string, opts builder.Options) (*models.SafeTransaction, error) {
			return a.ManageModules.DisableGuard(cmd.Context(), safe, opts)
		}))

	return cmd
}

// NewFallbackHandlerCmd creates the fallback-handler command
func NewFallbackHandlerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fallback-handler",
		Short: "Set or remove the fallback handler (Safe 1.1.1+)",
	}

	cmd.AddCommand(newTemplateCmd("set <handler>", "Build a transaction that sets the fallback handler", cobra.ExactArgs(1),
		func(cmd *cobra.Command, a *app.App, safe *usecase.SafeAccount, args []string, opts builder.Options) (*models.SafeTransaction, error) {
			handler, err := addressArg(args, 0, "fallback handler")
			if err != nil {
				return nil, err
			}
			return a.ManageModules.EnableFallbackHandler(cmd.Context(), safe, handler, opts)
		}))

	cmd.AddCommand(newTemplateCmd("unset", "Build a transaction that removes the fallback handler", cobra.NoArgs,
		func(cmd *cobra.Command, a *app.App, safe *usecase.SafeAccount, args []string, opts builder.Options) (*models.SafeTransaction, error) {
			return a.ManageModules.DisableFallbackHandler(cmd.Context(), safe, opts)
		}))

	return cmd
}

// NewSignMessageCmd creates the sign-message command
func NewSignMessageCmd() *cobra.Command {
	cmd := newTemplateCmd("sign-message <message>", "Build a transaction that marks a message as signed by the Safe", cobra.ExactArgs(1),
		func(cmd *cobra.Command, a *app.App, safe *usecase.SafeAccount, args []string, opts builder.Options) (*models.SafeTransaction, error) {
			return a.ManageModules.SignMessage(cmd.Context(), safe, []byte(args[0]), opts)
		})
	cmd.Long = `Build a transaction that records an EIP-1271 message signature on chain.
Safe 1.3.0 and later delegate-call SignMessageLib; older Safes call their own
signMessage.`
	return cmd
}
