package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/app"
	"github.com/trebuchet-org/treb-safe/internal/cli/render"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// NewExecuteCmd creates the execute command
func NewExecuteCmd() *cobra.Command {
	var (
		gasLimit uint64
		wait     bool
		yes      bool
	)

	cmd := &cobra.Command{
		Use:   "execute [safeTxHash]",
		Short: "Submit execTransaction for a fully signed transaction",
		Long: `Submit a stored transaction to its Safe once enough owners have signed. If
the executing key belongs to an owner that has not signed, its approval is
added automatically.

Examples:
  treb-safe execute 0x5c1f...
  treb-safe execute 0x5c1f... --gas-limit 500000 --yes`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			hash, err := resolveTransaction(cmd, app, args, models.TransactionStatusReady, "Select transaction to execute")
			if err != nil {
				return err
			}
			executor, err := app.Signers.Signer()
			if err != nil {
				return err
			}

			if !yes && !app.Config.JSON {
				shown, err := app.ShowTransaction.Run(cmd.Context(), hash, false)
				if err != nil {
					return err
				}
				if err := render.NewTransactionRenderer(cmd.OutOrStdout(), app.Config.Network).RenderTransaction(shown.Transaction, nil); err != nil {
					return err
				}
				ok, err := app.Selector.Confirm(cmd.Context(), fmt.Sprintf("Execute from %s", executor.Address().Hex()))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Execution cancelled")
					return nil
				}
			}

			handle, err := app.ExecuteTransaction.Run(cmd.Context(), hash, usecase.ExecuteOptions{
				Executor: executor,
				GasLimit: gasLimit,
			})
			if err != nil {
				return err
			}
			return finishSubmission(cmd, app, "execTransaction", handle, wait)
		},
	}

	cmd.Flags().Uint64Var(&gasLimit, "gas-limit", 0, "Gas limit of the outer transaction (estimated when 0)")
	cmd.Flags().BoolVar(&wait, "wait", true, "Wait until the transaction is mined")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

// submissionOutput is the JSON form of a sent outer transaction
type submissionOutput struct {
	TxHash  string          `json:"txHash"`
	Receipt *models.Receipt `json:"receipt,omitempty"`
}

// finishSubmission reports the sent transaction and optionally waits for its receipt
func finishSubmission(cmd *cobra.Command, a *app.App, what string, handle *usecase.TransactionHandle, wait bool) error {
	var chainID uint64
	if id, err := a.Chain.ChainID(cmd.Context()); err == nil {
		chainID = id.Uint64()
	}
	a.Sink.OnProgress(cmd.Context(), usecase.ProgressEvent{Stage: usecase.StageSubmitting, Message: "Submitted"})

	renderer := render.NewTransactionRenderer(cmd.OutOrStdout(), a.Config.Network)
	if !a.Config.JSON {
		renderer.RenderSubmitted(what, <-handle.Submitted(), chainID)
	}
	if !wait {
		if a.Config.JSON {
			return render.RenderJSON(cmd.OutOrStdout(), submissionOutput{TxHash: handle.Hash.Hex()})
		}
		return nil
	}

	a.Sink.OnProgress(cmd.Context(), usecase.ProgressEvent{Stage: usecase.StageWaiting, Message: "Waiting for receipt", Spinner: true})
	receipt, err := handle.Wait(cmd.Context())
	if err != nil {
		return err
	}
	a.Sink.OnProgress(cmd.Context(), usecase.ProgressEvent{Stage: usecase.StageCompleted, Message: "Mined"})

	if a.Config.JSON {
		return render.RenderJSON(cmd.OutOrStdout(), submissionOutput{TxHash: handle.Hash.Hex(), Receipt: receipt})
	}
	if err := renderer.RenderReceipt(receipt); err != nil {
		return err
	}
	if !receipt.Succeeded() {
		return fmt.Errorf("%s reverted", what)
	}
	return nil
}
