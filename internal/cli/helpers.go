package cli

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/app"
	"github.com/trebuchet-org/treb-safe/internal/builder"
	"github.com/trebuchet-org/treb-safe/internal/cli/render"
	"github.com/trebuchet-org/treb-safe/internal/config"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// safeFlags select the Safe a management or build command targets
type safeFlags struct {
	address string
	version string
	// account is a safe.yaml describing a Safe that may not be deployed yet
	account string
}

func (f *safeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.address, "safe", "", "Safe address (required)")
	cmd.Flags().StringVar(&f.version, "safe-version", "", "Skip VERSION() and assume this Safe version")
	_ = cmd.MarkFlagRequired("safe")
}

// registerWithAccount lets --account stand in for --safe
func (f *safeFlags) registerWithAccount(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.address, "safe", "", "Safe address")
	cmd.Flags().StringVar(&f.version, "safe-version", "", "Skip VERSION() and assume this Safe version")
	cmd.Flags().StringVar(&f.account, "account", "", "Account file (safe.yaml) of a predicted Safe")
	cmd.MarkFlagsMutuallyExclusive("safe", "account")
	cmd.MarkFlagsOneRequired("safe", "account")
}

func (f *safeFlags) connect(cmd *cobra.Command, a *app.App) (*usecase.SafeAccount, error) {
	if f.account != "" {
		predicted, err := config.LoadAccountFile(f.account)
		if err != nil {
			return nil, err
		}
		result, err := a.PredictSafe.Run(cmd.Context(), *predicted)
		if err != nil {
			return nil, err
		}
		return result.Account, nil
	}

	address, err := parseAddress(f.address, "safe")
	if err != nil {
		return nil, err
	}
	return a.ConnectSafe.Run(cmd.Context(), usecase.ConnectSafeParams{Address: address, Version: f.version})
}

// txFlags are the optional Safe transaction parameters shared by builders
type txFlags struct {
	safeTxGas      string
	baseGas        string
	gasPrice       string
	gasToken       string
	refundReceiver string
	nonce          uint64
}

func (f *txFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.safeTxGas, "safe-tx-gas", "", "safeTxGas (estimated when required and omitted)")
	cmd.Flags().StringVar(&f.baseGas, "base-gas", "", "baseGas for refunds")
	cmd.Flags().StringVar(&f.gasPrice, "gas-price", "", "Refund gas price")
	cmd.Flags().StringVar(&f.gasToken, "gas-token", "", "Refund token (zero address pays in ETH)")
	cmd.Flags().StringVar(&f.refundReceiver, "refund-receiver", "", "Refund receiver (zero address pays tx.origin)")
	cmd.Flags().Uint64Var(&f.nonce, "nonce", 0, "Safe nonce (defaults to the current nonce)")
}

func (f *txFlags) options(cmd *cobra.Command) (builder.Options, error) {
	opts := builder.Options{
		SafeTxGas: f.safeTxGas,
		BaseGas:   f.baseGas,
		GasPrice:  f.gasPrice,
	}
	var err error
	if opts.GasToken, err = parseOptionalAddress(f.gasToken, "gas token"); err != nil {
		return opts, err
	}
	if opts.RefundReceiver, err = parseOptionalAddress(f.refundReceiver, "refund receiver"); err != nil {
		return opts, err
	}
	if cmd.Flags().Changed("nonce") {
		nonce := f.nonce
		opts.Nonce = &nonce
	}
	return opts, nil
}

// resolveTransaction takes the safeTxHash argument or prompts for a stored session
func resolveTransaction(cmd *cobra.Command, a *app.App, args []string, status models.TransactionStatus, prompt string) (common.Hash, error) {
	if len(args) > 0 {
		return parseHash(args[0])
	}

	result, err := a.ListTransactions.Run(cmd.Context(), usecase.ListTransactionsParams{Status: status})
	if err != nil {
		return common.Hash{}, err
	}
	if len(result.Transactions) == 0 {
		return common.Hash{}, fmt.Errorf("no stored transactions to choose from")
	}
	if len(result.Transactions) == 1 {
		return result.Transactions[0].SafeTxHash, nil
	}
	tx, err := a.Selector.SelectTransaction(cmd.Context(), result.Transactions, prompt)
	if err != nil {
		return common.Hash{}, err
	}
	return tx.SafeTxHash, nil
}

func parseHash(raw string) (common.Hash, error) {
	b, err := hexutil.Decode(raw)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid safeTxHash %q: %w", raw, domain.ErrValidation)
	}
	return common.BytesToHash(b), nil
}

func parseAddress(raw, what string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%q: %w", raw, domain.InvalidAddressError(what))
	}
	return common.HexToAddress(raw), nil
}

func parseOptionalAddress(raw, what string) (common.Address, error) {
	if strings.TrimSpace(raw) == "" {
		return common.Address{}, nil
	}
	return parseAddress(raw, what)
}

// renderCreated prints a freshly built transaction and how to continue
func renderCreated(cmd *cobra.Command, a *app.App, tx *models.SafeTransaction) error {
	if a.Config.JSON {
		return render.RenderJSON(cmd.OutOrStdout(), tx)
	}
	out := cmd.OutOrStdout()
	if err := render.NewTransactionRenderer(out, a.Config.Network).RenderTransaction(tx, nil); err != nil {
		return err
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, render.FormatSuccess("Transaction saved"))
	fmt.Fprintf(out, "   Sign with: treb-safe sign %s\n", tx.SafeTxHash.Hex())
	return nil
}
