package interactive

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// ErrNonInteractive is returned when a prompt is needed in non-interactive mode
var ErrNonInteractive = errors.New("interactive selection not available in non-interactive mode")

// SelectorAdapter handles interactive selection
type SelectorAdapter struct {
	config *config.RuntimeConfig
}

// NewSelectorAdapter creates a new selector adapter
func NewSelectorAdapter(cfg *config.RuntimeConfig) *SelectorAdapter {
	return &SelectorAdapter{config: cfg}
}

// SelectTransaction selects a stored transaction from a list
func (s *SelectorAdapter) SelectTransaction(ctx context.Context, txs []*models.SafeTransaction, prompt string) (*models.SafeTransaction, error) {
	if len(txs) == 0 {
		return nil, fmt.Errorf("no transactions to select from")
	}
	if len(txs) == 1 {
		return txs[0], nil
	}
	if s.config.NonInteractive {
		return nil, ErrNonInteractive
	}

	options := formatTransactionOptions(txs)

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, Enter to select"),
	}

	promptSelect := promptui.Select{
		Label:             prompt,
		Items:             options,
		Templates:         templates,
		Size:              10,
		StartInSearchMode: true,
		Searcher:          createFuzzySearchFunc(options),
	}

	index, _, err := promptSelect.Run()
	if err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}

	return txs[index], nil
}

// Confirm asks a yes/no question. Non-interactive mode always confirms.
func (s *SelectorAdapter) Confirm(ctx context.Context, prompt string) (bool, error) {
	if s.config.NonInteractive {
		return true, nil
	}

	confirm := promptui.Prompt{
		Label:     prompt,
		IsConfirm: true,
	}
	if _, err := confirm.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// formatTransactionOptions renders "nonce 4  0xabcd…  READY 1/2  safe 0x…"
func formatTransactionOptions(txs []*models.SafeTransaction) []string {
	options := make([]string, len(txs))
	for i, tx := range txs {
		hash := tx.SafeTxHash.Hex()
		options[i] = fmt.Sprintf("nonce %d  %s…%s  %s %d/%d  safe %s",
			tx.Data.Nonce,
			hash[:10], hash[len(hash)-4:],
			tx.Status,
			len(tx.Signatures), tx.Threshold,
			tx.SafeAddress.Hex(),
		)
	}
	return options
}

// createFuzzySearchFunc creates a fuzzy search function for promptui
func createFuzzySearchFunc(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		// Empty search shows all items
		if input == "" {
			return true
		}

		input = strings.ToLower(input)
		item := strings.ToLower(items[index])

		if strings.Contains(item, input) {
			return true
		}

		pattern := fuzzy.Find(input, []string{item})
		return len(pattern) > 0
	}
}

// Ensure the adapter implements the interface
var _ usecase.TransactionSelector = (*SelectorAdapter)(nil)
