package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/app"
	"github.com/trebuchet-org/treb-safe/internal/builder"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// NewOwnersCmd creates the owners command
func NewOwnersCmd() *cobra.Command {
	var threshold uint64

	cmd := &cobra.Command{
		Use:   "owners",
		Short: "Add, remove or swap Safe owners and change the threshold",
	}

	// --threshold is optional for add and remove
	thresholdArg := func(cmd *cobra.Command) *uint64 {
		if !cmd.Flags().Changed("threshold") {
			return nil
		}
		t := threshold
		return &t
	}

	add := newTemplateCmd("add <owner>", "Build a transaction that adds an owner (threshold unchanged by default)", cobra.ExactArgs(1),
		func(cmd *cobra.Command, a *app.App, safe *usecase.SafeAccount, args []string, opts builder.Options) (*models.SafeTransaction, error) {
			owner, err := addressArg(args, 0, "owner")
			if err != nil {
				return nil, err
			}
			return a.ManageOwners.AddOwner(cmd.Context(), safe, owner, thresholdArg(cmd), opts)
		})
	add.Flags().Uint64Var(&threshold, "threshold", 0, "New threshold")
	cmd.AddCommand(add)

	remove := newTemplateCmd("remove <owner>", "Build a transaction that removes an owner (threshold lowered by one by default)", cobra.ExactArgs(1),
		func(cmd *cobra.Command, a *app.App, safe *usecase.SafeAccount, args []string, opts builder.Options) (*models.SafeTransaction, error) {
			owner, err := addressArg(args, 0, "owner")
			if err != nil {
				return nil, err
			}
			return a.ManageOwners.RemoveOwner(cmd.Context(), safe, owner, thresholdArg(cmd), opts)
		})
	remove.Flags().Uint64Var(&threshold, "threshold", 0, "New threshold")
	cmd.AddCommand(remove)

	cmd.AddCommand(newTemplateCmd("swap <old-owner> <new-owner>", "Build a transaction that replaces an owner", cobra.ExactArgs(2),
		func(cmd *cobra.Command, a *app.App, safe *usecase.SafeAccount, args []string, opts builder.Options) (*models.SafeTransaction, error) {
			oldOwner, err := addressArg(args, 0, "old owner")
			if err != nil {
				return nil, err
			}
			newOwner, err := addressArg(args, 1, "new owner")
			if err != nil {
				return nil, err
			}
			return a.ManageOwners.SwapOwner(cmd.Context(), safe, oldOwner, newOwner, opts)
		}))

	cmd.AddCommand(newTemplateCmd("threshold <n>", "Build a transaction that changes the threshold", cobra.ExactArgs(1),
		func(cmd *cobra.Command, a *app.App, safe *usecase.SafeAccount, args []string, opts builder.Options) (*models.SafeTransaction, error) {
			n, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid threshold %q: %w", args[0], err)
			}
			return a.ManageOwners.ChangeThreshold(cmd.Context(), safe, n, opts)
		}))

	return cmd
}
