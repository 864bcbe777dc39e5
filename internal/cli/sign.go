package cli

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/cli/render"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/signatures"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// NewSignCmd creates the sign command
func NewSignCmd() *cobra.Command {
	var (
		ethSign     bool
		rawHash     bool
		signature   string
		signer      string
		contract    bool
		fromService bool
	)

	cmd := &cobra.Command{
		Use:   "sign [safeTxHash]",
		Short: "Add an owner signature to a stored transaction",
		Long: `Sign a stored transaction with the configured private key, add a signature
produced elsewhere, or import the confirmations collected by the Safe
Transaction Service.

Examples:
  treb-safe sign 0x5c1f...
  treb-safe sign 0x5c1f... --eth-sign
  treb-safe sign 0x5c1f... --signer 0xabcd... --signature 0x...
  treb-safe sign 0x5c1f... --from-service`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			hash, err := resolveTransaction(cmd, app, args, models.TransactionStatusPending, "Select transaction to sign")
			if err != nil {
				return err
			}

			if fromService {
				tx, imported, err := app.ImportConfirmations.Run(cmd.Context(), hash)
				if err != nil {
					return err
				}
				return renderSigned(cmd, app.Config.JSON, tx, fmt.Sprintf("Imported %d confirmations", imported))
			}

			params := usecase.SignTransactionParams{SafeTxHash: hash, Method: usecase.SignMethodTypedData}
			switch {
			case signature != "":
				owner, err := parseAddress(signer, "signer")
				if err != nil {
					return err
				}
				raw, err := hexutil.Decode(signature)
				if err != nil {
					return fmt.Errorf("invalid signature: %w", err)
				}
				var sig models.Signature
				if contract {
					sig = signatures.Contract(owner, raw)
				} else if sig, err = signatures.FromRaw(owner, raw, ethSign); err != nil {
					return err
				}
				params.Signature = &sig
			default:
				if params.Signer, err = app.Signers.Signer(); err != nil {
					return err
				}
				if ethSign {
					params.Method = usecase.SignMethodEthSign
				} else if rawHash {
					params.Method = usecase.SignMethodHash
				}
			}

			tx, err := app.SignTransaction.Run(cmd.Context(), params)
			if err != nil {
				// a rejected session is saved and still worth showing
				if tx != nil && !app.Config.JSON {
					_ = render.NewTransactionRenderer(cmd.OutOrStdout(), app.Config.Network).RenderTransaction(tx, nil)
				}
				return err
			}
			return renderSigned(cmd, app.Config.JSON, tx, "Signature added")
		},
	}

	cmd.Flags().BoolVar(&ethSign, "eth-sign", false, "Sign with eth_sign (personal message prefix)")
	cmd.Flags().BoolVar(&rawHash, "hash", false, "Sign the raw safeTxHash instead of the typed data")
	cmd.Flags().StringVar(&signature, "signature", "", "Add an externally produced signature (hex)")
	cmd.Flags().StringVar(&signer, "signer", "", "Owner that produced --signature")
	cmd.Flags().BoolVar(&contract, "contract", false, "--signature is an EIP-1271 contract signature")
	cmd.Flags().BoolVar(&fromService, "from-service", false, "Import confirmations from the Safe Transaction Service")
	cmd.MarkFlagsRequiredTogether("signature", "signer")
	cmd.MarkFlagsMutuallyExclusive("eth-sign", "hash")
	cmd.MarkFlagsMutuallyExclusive("from-service", "signature")

	return cmd
}

func renderSigned(cmd *cobra.Command, asJSON bool, tx *models.SafeTransaction, message string) error {
	if asJSON {
		return render.RenderJSON(cmd.OutOrStdout(), tx)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, render.FormatSuccess(fmt.Sprintf("%s (%d/%d)", message, len(tx.Signatures), tx.Threshold)))
	if tx.Status == models.TransactionStatusReady {
		fmt.Fprintf(out, "   Ready to execute: treb-safe execute %s\n", tx.SafeTxHash.Hex())
	}
	return nil
}

// NewApproveCmd creates the approve command
func NewApproveCmd() *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "approve [safeTxHash]",
		Short: "Approve a transaction on chain with approveHash",
		Long: `Send approveHash(safeTxHash) from the configured owner key. The approval is
recorded in the signing session as an approved-hash signature.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			hash, err := resolveTransaction(cmd, app, args, models.TransactionStatusPending, "Select transaction to approve")
			if err != nil {
				return err
			}
			owner, err := app.Signers.Signer()
			if err != nil {
				return err
			}

			handle, err := app.ApproveHash.Run(cmd.Context(), hash, owner)
			if err != nil {
				return err
			}
			return finishSubmission(cmd, app, "approveHash", handle, wait)
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", true, "Wait until the transaction is mined")
	return cmd
}
