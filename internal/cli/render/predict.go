package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// PredictRenderer renders a predicted Safe address
type PredictRenderer struct {
	out            io.Writer
	showDeployment bool
}

// NewPredictRenderer creates a new predict renderer
func NewPredictRenderer(out io.Writer, showDeployment bool) *PredictRenderer {
	return &PredictRenderer{out: out, showDeployment: showDeployment}
}

var _ Renderer[*usecase.PredictSafeResult] = (*PredictRenderer)(nil)

// Render prints the predicted address and, on request, the deployment transaction
func (r *PredictRenderer) Render(result *usecase.PredictSafeResult) error {
	cfg := result.Account.Predicted
	fmt.Fprintln(r.out, sectionStyle.Sprint("Predicted Safe"))
	field(r.out, "Address", hashStyle.Sprint(result.Address.Hex()))
	field(r.out, "Chain", result.Account.ChainID)
	field(r.out, "Version", result.Account.Caps.Version)
	field(r.out, "Salt Nonce", result.SaltNonce)
	if cfg != nil {
		owners := make([]string, len(cfg.AccountConfig.Owners))
		for i, owner := range cfg.AccountConfig.Owners {
			owners[i] = owner.Hex()
		}
		field(r.out, "Threshold", fmt.Sprintf("%d of %d", cfg.AccountConfig.Threshold, len(owners)))
		field(r.out, "Owners", strings.Join(owners, "\n"+strings.Repeat(" ", 21)))
	}
	if result.AlreadyExist {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, FormatWarning("A contract is already deployed at this address"))
	}

	if r.showDeployment {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, sectionStyle.Sprint("Deployment Transaction"))
		field(r.out, "To", addressStyle.Sprint(result.Deployment.To.Hex()))
		field(r.out, "Value", result.Deployment.Value)
		field(r.out, "Data", hexutil.Encode(result.Deployment.Data))
	}
	return nil
}
