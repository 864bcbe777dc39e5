package cli

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/cli/render"
	"github.com/trebuchet-org/treb-safe/internal/config"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

// predictOutput is the JSON form of the predict command
type predictOutput struct {
	Address      common.Address                `json:"address"`
	ChainID      uint64                        `json:"chainId"`
	Version      string                        `json:"version"`
	SaltNonce    string                        `json:"saltNonce"`
	AlreadyExist bool                          `json:"alreadyDeployed"`
	Deployment   *models.DeploymentTransaction `json:"deploymentTransaction,omitempty"`
}

// NewPredictCmd creates the predict command
func NewPredictCmd() *cobra.Command {
	var (
		deploymentTx bool
		version      string
		saltNonce    string
	)

	cmd := &cobra.Command{
		Use:   "predict <safe.yaml>",
		Short: "Predict the address of a Safe before it is deployed",
		Long: `Compute the CREATE2 address a Safe will be deployed at from its owners,
threshold, version and salt nonce.

safe.yaml example:
  owners:
    - 0x1234...
    - 0xabcd...
  threshold: 2
  version: 1.4.1
  salt_nonce: "42"

With --deployment-tx the factory call that deploys the Safe is printed. It is
never sent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			predicted, err := config.LoadAccountFile(args[0])
			if err != nil {
				return err
			}
			if version != "" {
				predicted.DeploymentConfig.Version = version
			}
			if saltNonce != "" {
				nonce, ok := new(big.Int).SetString(saltNonce, 10)
				if !ok {
					return fmt.Errorf("salt nonce %q: %w", saltNonce, domain.ErrInvalidSaltNonce)
				}
				predicted.DeploymentConfig.SaltNonce = nonce
			}

			result, err := app.PredictSafe.Run(cmd.Context(), *predicted)
			if err != nil {
				return err
			}

			if app.Config.JSON {
				out := predictOutput{
					Address:      result.Address,
					ChainID:      result.Account.ChainID.Uint64(),
					Version:      result.Account.Caps.Version.String(),
					SaltNonce:    result.SaltNonce.String(),
					AlreadyExist: result.AlreadyExist,
				}
				if deploymentTx {
					out.Deployment = &result.Deployment
				}
				return render.RenderJSON(cmd.OutOrStdout(), out)
			}
			return render.NewPredictRenderer(cmd.OutOrStdout(), deploymentTx).Render(result)
		},
	}

	cmd.Flags().BoolVar(&deploymentTx, "deployment-tx", false, "Print the factory transaction that deploys the Safe")
	cmd.Flags().StringVar(&version, "safe-version", "", "Override the version from the account file")
	cmd.Flags().StringVar(&saltNonce, "salt-nonce", "", "Override the salt nonce from the account file")

	return cmd
}
