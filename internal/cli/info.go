package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/cli/render"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// NewInfoCmd creates the info command
func NewInfoCmd() *cobra.Command {
	var safe safeFlags

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the owners, threshold and modules of a Safe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			account, err := safe.connect(cmd, app)
			if err != nil {
				return err
			}
			info, err := loadSafeInfo(cmd, account)
			if err != nil {
				return err
			}
			if app.Config.JSON {
				return render.RenderJSON(cmd.OutOrStdout(), info)
			}
			return render.RenderSafeInfo(cmd.OutOrStdout(), info)
		},
	}

	safe.register(cmd)
	return cmd
}

func loadSafeInfo(cmd *cobra.Command, account *usecase.SafeAccount) (render.SafeInfo, error) {
	ctx := cmd.Context()
	info := render.SafeInfo{
		Address: account.Address,
		ChainID: account.ChainID.Uint64(),
		Version: account.Caps.Version.String(),
	}

	var err error
	if info.Nonce, err = account.Nonce(ctx); err != nil {
		return info, err
	}
	if info.Threshold, err = account.Threshold(ctx); err != nil {
		return info, err
	}
	if info.Owners, err = account.Owners(ctx); err != nil {
		return info, err
	}
	if info.Modules, err = account.Modules(ctx); err != nil {
		return info, err
	}
	if account.Caps.Guards {
		guard, err := account.Guard(ctx)
		if err != nil {
			return info, err
		}
		info.Guard = &guard
	}
	if account.Caps.FallbackHandler {
		handler, err := account.FallbackHandler(ctx)
		if err != nil {
			return info, err
		}
		info.FallbackHandler = &handler
	}
	return info, nil
}
