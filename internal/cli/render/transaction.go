package render

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/trebuchet-org/treb-safe/internal/config"
	domainconfig "github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// TransactionRenderer renders stored Safe transactions
type TransactionRenderer struct {
	out     io.Writer
	network *domainconfig.Network
}

// NewTransactionRenderer creates a new transaction renderer
func NewTransactionRenderer(out io.Writer, network *domainconfig.Network) *TransactionRenderer {
	return &TransactionRenderer{out: out, network: network}
}

// RenderTransaction prints one transaction with its calls and signatures
func (r *TransactionRenderer) RenderTransaction(tx *models.SafeTransaction, execution *models.SafeExecutionInfo) error {
	fmt.Fprintln(r.out, sectionStyle.Sprint("Safe Transaction"))
	field(r.out, "Safe Tx Hash", hashStyle.Sprint(tx.SafeTxHash.Hex()))
	field(r.out, "Safe", addressStyle.Sprint(tx.SafeAddress.Hex()))
	field(r.out, "Chain", tx.ChainID)
	field(r.out, "Version", tx.Version)
	field(r.out, "Status", FormatStatus(tx.Status))
	field(r.out, "Nonce", tx.Data.Nonce)
	field(r.out, "Created", tx.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintln(r.out)

	fmt.Fprintln(r.out, sectionStyle.Sprint("Call"))
	field(r.out, "To", addressStyle.Sprint(tx.Data.To.Hex()))
	field(r.out, "Value", valueStyle.Sprint(FormatWei(tx.Data.Value)))
	field(r.out, "Operation", tx.Data.Operation)
	field(r.out, "Data", formatData(tx.Data.Data))
	if tx.Data.SafeTxGas != "0" || tx.Data.GasPrice != "0" {
		field(r.out, "SafeTxGas", tx.Data.SafeTxGas)
		field(r.out, "BaseGas", tx.Data.BaseGas)
		field(r.out, "GasPrice", tx.Data.GasPrice)
		field(r.out, "GasToken", tx.Data.GasToken.Hex())
		field(r.out, "RefundReceiver", tx.Data.RefundReceiver.Hex())
	}
	if len(tx.Calls) > 1 {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, sectionStyle.Sprintf("Batched Calls (%d)", len(tx.Calls)))
		fmt.Fprintln(r.out, r.callsTable(tx.Calls))
	}
	fmt.Fprintln(r.out)

	fmt.Fprintln(r.out, sectionStyle.Sprintf("Signatures (%d/%d)", len(tx.Signatures), tx.Threshold))
	if len(tx.Signatures) > 0 {
		fmt.Fprintln(r.out, r.signaturesTable(tx))
	}
	missing := missingOwners(tx)
	if len(missing) > 0 && tx.ExecutionTxHash == (common.Hash{}) {
		fmt.Fprintf(r.out, "  %s %s\n", labelStyle.Sprint("Awaiting:"), strings.Join(missing, ", "))
	}

	if tx.ExecutionTxHash != (common.Hash{}) {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, sectionStyle.Sprint("Execution"))
		field(r.out, "Tx Hash", hashStyle.Sprint(tx.ExecutionTxHash.Hex()))
		if explorer := config.ExplorerURL(r.network, tx.ChainID); explorer != "" {
			field(r.out, "Explorer", fmt.Sprintf("%s/tx/%s", explorer, tx.ExecutionTxHash.Hex()))
		}
	}
	if execution != nil {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, sectionStyle.Sprint("Transaction Service"))
		field(r.out, "Executed", execution.IsExecuted)
		field(r.out, "Confirmations", fmt.Sprintf("%d/%d", execution.Confirmations, execution.ConfirmationsRequired))
	}
	return nil
}

// Render prints the result of show
func (r *TransactionRenderer) Render(result *usecase.ShowTransactionResult) error {
	return r.RenderTransaction(result.Transaction, result.Execution)
}

var _ Renderer[*usecase.ShowTransactionResult] = (*TransactionRenderer)(nil)

// RenderTransactionList prints stored sessions as a table
func (r *TransactionRenderer) RenderTransactionList(result *usecase.TransactionListResult) error {
	if len(result.Transactions) == 0 {
		fmt.Fprintln(r.out, "No transactions found")
		return nil
	}

	t := newTable()
	t.AppendHeader(table.Row{"Safe Tx Hash", "Safe", "Chain", "Nonce", "To", "Value", "Signatures", "Status"})
	for _, tx := range result.Transactions {
		t.AppendRow(table.Row{
			hashStyle.Sprint(ShortHash(tx.SafeTxHash)),
			tx.SafeAddress.Hex(),
			tx.ChainID,
			tx.Data.Nonce,
			tx.Data.To.Hex(),
			FormatWei(tx.Data.Value),
			fmt.Sprintf("%d/%d", len(tx.Signatures), tx.Threshold),
			FormatStatus(tx.Status),
		})
	}
	fmt.Fprintln(r.out, t.Render())

	statuses := make([]string, 0, len(result.Summary.ByStatus))
	for status, n := range result.Summary.ByStatus {
		statuses = append(statuses, fmt.Sprintf("%d %s", n, strings.ToLower(string(status))))
	}
	slices.Sort(statuses)
	fmt.Fprintf(r.out, "\n%d transactions (%s)\n", result.Summary.Total, strings.Join(statuses, ", "))
	return nil
}

func (r *TransactionRenderer) callsTable(calls []models.MetaTransaction) string {
	t := newTable()
	t.AppendHeader(table.Row{"#", "Operation", "To", "Value", "Data"})
	for i, call := range calls {
		t.AppendRow(table.Row{i + 1, call.Operation, call.To.Hex(), FormatWei(call.Value), formatData(call.Data)})
	}
	return t.Render()
}

func (r *TransactionRenderer) signaturesTable(tx *models.SafeTransaction) string {
	t := newTable()
	t.AppendHeader(table.Row{"Signer", "Kind"})
	for _, sig := range tx.Signatures {
		t.AppendRow(table.Row{sig.Signer.Hex(), enabledStyle.Sprint(sig.Kind)})
	}
	return t.Render()
}

// missingOwners lists owners that have not signed yet
func missingOwners(tx *models.SafeTransaction) []string {
	signed := make(map[common.Address]bool, len(tx.Signatures))
	for _, sig := range tx.Signatures {
		signed[sig.Signer] = true
	}
	var missing []string
	for _, owner := range tx.Owners {
		if !signed[owner] {
			missing = append(missing, owner.Hex())
		}
	}
	return missing
}

func formatData(data []byte) string {
	if len(data) == 0 {
		return labelStyle.Sprint("(empty)")
	}
	encoded := hexutil.Encode(data)
	if len(encoded) > 74 {
		return fmt.Sprintf("%s… (%d bytes)", encoded[:74], len(data))
	}
	return encoded
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateRows = false
	t.Style().Box = table.BoxStyle{
		PaddingLeft:      "  ",
		PaddingRight:     " ",
		MiddleHorizontal: "─",
	}
	t.Style().Format.Header = text.FormatDefault
	return t
}

// RenderSubmitted prints the hash of a sent outer transaction
func (r *TransactionRenderer) RenderSubmitted(what string, hash common.Hash, chainID uint64) {
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%s submitted: %s", what, hash.Hex())))
	if explorer := config.ExplorerURL(r.network, chainID); explorer != "" {
		fmt.Fprintf(r.out, "   %s/tx/%s\n", explorer, hash.Hex())
	}
}

// RenderReceipt prints the mined result of an outer transaction
func (r *TransactionRenderer) RenderReceipt(receipt *models.Receipt) error {
	if !receipt.Succeeded() {
		fmt.Fprintln(r.out, FormatError(fmt.Sprintf("transaction %s reverted in block %d", receipt.TxHash.Hex(), receipt.BlockNumber)))
		return nil
	}
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Mined in block %d (gas used %d)", receipt.BlockNumber, receipt.GasUsed)))
	return nil
}
