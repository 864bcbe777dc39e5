package progress

import (
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// NewProgressSink picks the spinner for interactive terminals and a no-op
// sink for --non-interactive and --json runs
func NewProgressSink(cfg *config.RuntimeConfig) usecase.ProgressSink {
	if cfg.NonInteractive || cfg.JSON {
		return usecase.NopProgress{}
	}
	return NewSpinnerSink()
}
