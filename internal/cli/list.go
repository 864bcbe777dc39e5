package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/cli/render"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

var statuses = []models.TransactionStatus{
	models.TransactionStatusPending,
	models.TransactionStatusReady,
	models.TransactionStatusRejected,
	models.TransactionStatusSubmitted,
	models.TransactionStatusExecuted,
	models.TransactionStatusFailed,
}

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	var (
		safe    string
		chainID uint64
		status  string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored transactions",
		Long: `List the signing sessions stored in the data directory.

Examples:
  treb-safe list
  treb-safe list --safe 0x1234... --status ready
  treb-safe list --chain-id 11155111`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.ListTransactionsParams{ChainID: chainID}
			if params.Safe, err = parseOptionalAddress(safe, "safe"); err != nil {
				return err
			}
			if params.Status, err = parseStatus(status); err != nil {
				return err
			}

			result, err := app.ListTransactions.Run(cmd.Context(), params)
			if err != nil {
				return err
			}
			if app.Config.JSON {
				return render.RenderJSON(cmd.OutOrStdout(), result.Transactions)
			}
			return render.NewTransactionRenderer(cmd.OutOrStdout(), app.Config.Network).RenderTransactionList(result)
		},
	}

	cmd.Flags().StringVar(&safe, "safe", "", "Filter by Safe address")
	cmd.Flags().Uint64Var(&chainID, "chain-id", 0, "Filter by chain ID")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, ready, rejected, submitted, executed, failed)")

	return cmd
}

func parseStatus(raw string) (models.TransactionStatus, error) {
	if raw == "" {
		return "", nil
	}
	for _, s := range statuses {
		if strings.EqualFold(raw, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown status %q: %w", raw, domain.ErrValidation)
}

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "show [safeTxHash]",
		Short: "Show a stored transaction and its signatures",
		Long: `Show a stored transaction with its calls and collected signatures. With
--refresh the Safe Transaction Service is asked whether it has been executed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			hash, err := resolveTransaction(cmd, app, args, "", "Select transaction to show")
			if err != nil {
				return err
			}

			result, err := app.ShowTransaction.Run(cmd.Context(), hash, refresh)
			if err != nil {
				return err
			}
			return render.Output(cmd.OutOrStdout(), app.Config.JSON, render.NewTransactionRenderer(cmd.OutOrStdout(), app.Config.Network), result)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Query the Safe Transaction Service for execution status")
	return cmd
}
