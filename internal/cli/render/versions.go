package render

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/treb-safe/internal/contracts"
)

// VersionsRenderer renders the supported contract generations
type VersionsRenderer struct {
	out io.Writer
}

// NewVersionsRenderer creates a new versions renderer
func NewVersionsRenderer(out io.Writer) *VersionsRenderer {
	return &VersionsRenderer{out: out}
}

// Render prints the capability matrix of versions
func (r *VersionsRenderer) Render(versions []contracts.SafeVersion) error {
	return r.RenderCapabilities(versions)
}

var _ Renderer[[]contracts.SafeVersion] = (*VersionsRenderer)(nil)

// RenderCapabilities prints which features each version supports
func (r *VersionsRenderer) RenderCapabilities(versions []contracts.SafeVersion) error {
	t := newTable()
	header := table.Row{"Feature"}
	caps := make([]contracts.Capabilities, 0, len(versions))
	for _, v := range versions {
		c, err := contracts.CapabilitiesOf(v)
		if err != nil {
			return err
		}
		caps = append(caps, c)
		header = append(header, v.String())
	}
	t.AppendHeader(header)

	features := []struct {
		name string
		get  func(contracts.Capabilities) bool
	}{
		{"chainId in EIP-712 domain", func(c contracts.Capabilities) bool { return c.ChainIDInDomain }},
		{"Guards", func(c contracts.Capabilities) bool { return c.Guards }},
		{"Fallback handler", func(c contracts.Capabilities) bool { return c.FallbackHandler }},
		{"isModuleEnabled", func(c contracts.Capabilities) bool { return c.ModuleEnabledGetter }},
		{"Paginated modules", func(c contracts.Capabilities) bool { return c.PaginatedModules }},
		{"eth_sign signatures", func(c contracts.Capabilities) bool { return c.EthSign }},
		{"Optional safeTxGas", func(c contracts.Capabilities) bool { return c.OptionalSafeTxGas }},
		{"Predicted Safe flows", func(c contracts.Capabilities) bool { return c.PredictedFlows }},
		{"SignMessageLib", func(c contracts.Capabilities) bool { return c.SignMessageLib }},
	}
	for _, f := range features {
		row := table.Row{f.name}
		for _, c := range caps {
			row = append(row, mark(f.get(c)))
		}
		t.AppendRow(row)
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

// RenderAddresses prints the contract addresses of every version on a chain
func (r *VersionsRenderer) RenderAddresses(chainID uint64, registry *contracts.Registry) error {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, sectionStyle.Sprintf("Contracts on chain %d", chainID))
	versions := registry.Versions(chainID)
	if len(versions) == 0 {
		fmt.Fprintln(r.out, "  No known deployments")
		return nil
	}

	t := newTable()
	t.AppendHeader(table.Row{"Version", "Safe", "ProxyFactory", "MultiSend", "FallbackHandler"})
	for _, v := range versions {
		addrs, err := registry.Lookup(chainID, v)
		if err != nil {
			return err
		}
		t.AppendRow(table.Row{v.String(), formatAddress(addrs.Safe), formatAddress(addrs.ProxyFactory), formatAddress(addrs.MultiSend), formatAddress(addrs.FallbackHandler)})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

func mark(ok bool) string {
	if ok {
		return enabledStyle.Sprint("✓")
	}
	return unsupportStyle.Sprint("-")
}

func formatAddress(addr common.Address) string {
	if addr == (common.Address{}) {
		return unsupportStyle.Sprint("-")
	}
	return addr.Hex()
}
