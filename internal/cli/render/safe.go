package render

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
)

// SafeInfo is the on-chain state of a deployed Safe
type SafeInfo struct {
	Address         common.Address   `json:"address"`
	ChainID         uint64           `json:"chainId"`
	Version         string           `json:"version"`
	Nonce           uint64           `json:"nonce"`
	Threshold       uint64           `json:"threshold"`
	Owners          []common.Address `json:"owners"`
	Modules         []common.Address `json:"modules"`
	Guard           *common.Address  `json:"guard,omitempty"`
	FallbackHandler *common.Address  `json:"fallbackHandler,omitempty"`
}

// RenderSafeInfo prints the owners and configuration of a Safe
func RenderSafeInfo(out io.Writer, info SafeInfo) error {
	fmt.Fprintln(out, sectionStyle.Sprint("Safe"))
	field(out, "Address", hashStyle.Sprint(info.Address.Hex()))
	field(out, "Chain", info.ChainID)
	field(out, "Version", info.Version)
	field(out, "Nonce", info.Nonce)
	field(out, "Threshold", fmt.Sprintf("%d of %d", info.Threshold, len(info.Owners)))
	if info.Guard != nil {
		field(out, "Guard", formatAddress(*info.Guard))
	}
	if info.FallbackHandler != nil {
		field(out, "Fallback Handler", formatAddress(*info.FallbackHandler))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, sectionStyle.Sprintf("Owners (%d)", len(info.Owners)))
	for _, owner := range info.Owners {
		fmt.Fprintf(out, "  %s\n", addressStyle.Sprint(owner.Hex()))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, sectionStyle.Sprintf("Modules (%d)", len(info.Modules)))
	for _, module := range info.Modules {
		fmt.Fprintf(out, "  %s\n", addressStyle.Sprint(module.Hex()))
	}
	return nil
}
