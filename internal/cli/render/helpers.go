package render

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	labelStyle     = color.New(color.Faint)
	addressStyle   = color.New(color.FgWhite)
	hashStyle      = color.New(color.FgCyan)
	valueStyle     = color.New(color.FgHiWhite, color.Bold)
	pendingStyle   = color.New(color.FgYellow)
	readyStyle     = color.New(color.FgGreen)
	rejectedStyle  = color.New(color.FgRed)
	executedStyle  = color.New(color.FgBlue)
	sectionStyle   = color.New(color.Bold, color.FgHiWhite)
	enabledStyle   = color.New(color.FgGreen)
	unsupportStyle = color.New(color.Faint)
)

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return color.New(color.FgYellow).Sprintf("⚠️  %s", message)
}

// FormatError formats an error message with the error icon
func FormatError(message string) string {
	// Capitalize first letter
	if len(message) > 0 {
		message = strings.ToUpper(message[:1]) + message[1:]
	}
	return color.New(color.FgRed).Sprintf("❌ %s", message)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return color.New(color.FgGreen).Sprintf("✅ %s", message)
}

// RenderJSON writes v as indented JSON
func RenderJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatWei renders a wei amount as ether, keeping every significant digit:
// "1500000000000000000" -> "1.5 ETH"
func FormatWei(wei string) string {
	amount, err := models.ParseAmount(wei)
	if err != nil {
		return wei
	}
	return formatEther(amount)
}

func formatEther(amount *big.Int) string {
	return decimal.NewFromBigInt(amount, -18).String() + " ETH"
}

// FormatStatus colours a transaction status
func FormatStatus(status models.TransactionStatus) string {
	label := cases.Title(language.English).String(strings.ToLower(string(status)))
	switch status {
	case models.TransactionStatusReady, models.TransactionStatusSubmitted:
		return readyStyle.Sprint(label)
	case models.TransactionStatusRejected, models.TransactionStatusFailed:
		return rejectedStyle.Sprint(label)
	case models.TransactionStatusExecuted:
		return executedStyle.Sprint(label)
	default:
		return pendingStyle.Sprint(label)
	}
}

// ShortHash abbreviates a hash to 0x1234…abcd
func ShortHash(hash common.Hash) string {
	h := hash.Hex()
	return h[:6] + "…" + h[len(h)-4:]
}

func field(out io.Writer, label string, value any) {
	fmt.Fprintf(out, "  %s %v\n", labelStyle.Sprintf("%-18s", label+":"), value)
}
