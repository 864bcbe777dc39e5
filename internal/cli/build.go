package cli

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/cli/render"
	"github.com/trebuchet-org/treb-safe/internal/contracts"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/hashing"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// NewBuildCmd creates the build command
func NewBuildCmd() *cobra.Command {
	var (
		safe      safeFlags
		tx        txFlags
		to        string
		value     string
		data      string
		operation uint8
		callsFile string
		onlyCalls bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a Safe transaction and start a signing session",
		Long: `Build a Safe transaction from one call or a JSON file of calls, compute its
safeTxHash and store it as a signing session.

Several calls are batched through MultiSend (or MultiSendCallOnly with
--only-calls). A calls file is a JSON array of {to, value, data, operation}.

Examples:
  treb-safe build --safe 0x1234... --to 0xabcd... --value 1000000000000000000
  treb-safe build --safe 0x1234... --calls calls.json --only-calls
  treb-safe build --account safe.yaml --to 0xabcd... --data 0xa9059cbb...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			calls, err := loadCalls(callsFile, to, value, data, operation)
			if err != nil {
				return err
			}
			opts, err := tx.options(cmd)
			if err != nil {
				return err
			}
			opts.OnlyCalls = onlyCalls

			account, err := safe.connect(cmd, app)
			if err != nil {
				return err
			}

			created, err := app.CreateTransaction.Run(cmd.Context(), usecase.CreateTransactionParams{
				Safe:    account,
				Calls:   calls,
				Options: opts,
			})
			if err != nil {
				return err
			}
			return renderCreated(cmd, app, created)
		},
	}

	safe.registerWithAccount(cmd)
	tx.register(cmd)
	cmd.Flags().StringVar(&to, "to", "", "Call target")
	cmd.Flags().StringVar(&value, "value", "0", "Wei sent with the call")
	cmd.Flags().StringVar(&data, "data", "", "Hex calldata")
	cmd.Flags().Uint8Var(&operation, "operation", 0, "0 for call, 1 for delegatecall")
	cmd.Flags().StringVar(&callsFile, "calls", "", "JSON file with the calls to batch")
	cmd.Flags().BoolVar(&onlyCalls, "only-calls", false, "Batch through MultiSendCallOnly")
	cmd.MarkFlagsMutuallyExclusive("calls", "to")
	cmd.MarkFlagsOneRequired("calls", "to")

	return cmd
}

// loadCalls reads --calls or assembles the single call given by --to
func loadCalls(path, to, value, data string, operation uint8) ([]models.MetaTransaction, error) {
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read calls file: %w", err)
		}
		var calls []models.MetaTransaction
		if err := json.Unmarshal(raw, &calls); err != nil {
			return nil, fmt.Errorf("failed to parse calls file %s: %w", path, err)
		}
		return calls, nil
	}

	target, err := parseAddress(to, "call target")
	if err != nil {
		return nil, err
	}
	call := models.MetaTransaction{To: target, Value: value, Operation: models.Operation(operation)}
	if data != "" {
		if call.Data, err = hexutil.Decode(data); err != nil {
			return nil, fmt.Errorf("invalid calldata: %w", err)
		}
	}
	return []models.MetaTransaction{call}, nil
}

// hashOutput is the JSON form of the hash command
type hashOutput struct {
	SafeTxHash      common.Hash `json:"safeTxHash"`
	DomainSeparator common.Hash `json:"domainSeparator"`
	StructHash      common.Hash `json:"safeTxStructHash"`
	TypedData       any         `json:"typedData"`
}

// NewHashCmd creates the hash command
func NewHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [safeTxHash]",
		Short: "Print the EIP-712 digest and typed data of a stored transaction",
		Long: `Recompute the safeTxHash of a stored transaction and print the EIP-712
document a wallet signs for it. Without an argument you choose from the stored
transactions.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			hash, err := resolveTransaction(cmd, app, args, "", "Select transaction to hash")
			if err != nil {
				return err
			}
			result, err := app.ShowTransaction.Run(cmd.Context(), hash, false)
			if err != nil {
				return err
			}
			tx := result.Transaction

			version, err := contracts.ParseVersion(tx.Version)
			if err != nil {
				return err
			}
			caps, err := contracts.CapabilitiesOf(version)
			if err != nil {
				return err
			}
			chainID := new(big.Int).SetUint64(tx.ChainID)

			out := hashOutput{TypedData: hashing.TypedData(tx.Data, tx.SafeAddress, caps, chainID)}
			if out.DomainSeparator, err = hashing.DomainSeparator(caps, tx.SafeAddress, chainID); err != nil {
				return err
			}
			if out.StructHash, err = hashing.StructHash(caps, tx.Data); err != nil {
				return err
			}
			if out.SafeTxHash, err = hashing.Hash(tx.Data, tx.SafeAddress, caps, chainID); err != nil {
				return err
			}
			if out.SafeTxHash != tx.SafeTxHash {
				fmt.Fprintln(cmd.ErrOrStderr(), render.FormatWarning(fmt.Sprintf("stored safeTxHash %s does not match the recomputed digest", tx.SafeTxHash.Hex())))
			}

			if app.Config.JSON {
				return render.RenderJSON(cmd.OutOrStdout(), out)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "safeTxHash:       %s\n", out.SafeTxHash.Hex())
			fmt.Fprintf(w, "domainSeparator:  %s\n", out.DomainSeparator.Hex())
			fmt.Fprintf(w, "safeTxStructHash: %s\n\n", out.StructHash.Hex())
			return render.RenderJSON(w, out.TypedData)
		},
	}
}
