package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/cli/render"
	"github.com/trebuchet-org/treb-safe/internal/contracts"
)

// NewVersionsCmd creates the versions command
func NewVersionsCmd() *cobra.Command {
	var chainID uint64

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Show supported Safe versions and their features",
		Long: `Show which features each supported Safe version has. With --chain-id the
canonical contract addresses on that chain are listed as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := render.NewVersionsRenderer(cmd.OutOrStdout())
			if err := r.Render(contracts.Versions); err != nil {
				return err
			}
			if chainID == 0 {
				return nil
			}
			return r.RenderAddresses(chainID, contracts.NewRegistry(nil))
		},
	}

	cmd.Flags().Uint64Var(&chainID, "chain-id", 0, "Also list contract addresses on this chain")
	return cmd
}
