package metrics

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// EngineMetrics counts what the engine built, signed, predicted and submitted
// during one invocation
type EngineMetrics struct {
	registry *prometheus.Registry
	file     string

	TransactionsBuilt     *prometheus.CounterVec
	SignaturesCollected   *prometheus.CounterVec
	TransactionsSubmitted *prometheus.CounterVec
	SafesPredicted        *prometheus.CounterVec
}

// NewEngineMetrics registers the engine metrics on a private registry
func NewEngineMetrics(cfg *config.RuntimeConfig) *EngineMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &EngineMetrics{
		registry: reg,
		file:     cfg.MetricsFile,
		TransactionsBuilt: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "treb_safe_transactions_built_total",
			Help: "Safe transactions built, by contract version and batching",
		}, []string{"version", "batched"}),
		SignaturesCollected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "treb_safe_signatures_collected_total",
			Help: "Signatures offered to a bundle, by kind and outcome",
		}, []string{"kind", "result"}),
		TransactionsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "treb_safe_transactions_submitted_total",
			Help: "Outer transactions sent to the chain, by Safe method",
		}, []string{"method"}),
		SafesPredicted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "treb_safe_predictions_total",
			Help: "Counterfactual Safe address predictions, by contract version",
		}, []string{"version"}),
	}
}

// TransactionBuilt implements usecase.Metrics
func (m *EngineMetrics) TransactionBuilt(version string, batched bool) {
	m.TransactionsBuilt.WithLabelValues(version, strconv.FormatBool(batched)).Inc()
}

// SignatureCollected implements usecase.Metrics
func (m *EngineMetrics) SignatureCollected(kind models.SignatureKind, err error) {
	m.SignaturesCollected.WithLabelValues(string(kind), signatureResult(err)).Inc()
}

// TransactionSubmitted implements usecase.Metrics
func (m *EngineMetrics) TransactionSubmitted(method string) {
	m.TransactionsSubmitted.WithLabelValues(method).Inc()
}

// SafePredicted implements usecase.Metrics
func (m *EngineMetrics) SafePredicted(version string) {
	m.SafesPredicted.WithLabelValues(version).Inc()
}

func signatureResult(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, domain.ErrDuplicateSigner):
		return "duplicate"
	case errors.Is(err, domain.ErrBundleRejected):
		return "rejected"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

// Registry exposes the underlying registry
func (m *EngineMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Flush writes the metrics in text exposition format to the configured
// --metrics-file. Without one it does nothing.
func (m *EngineMetrics) Flush() error {
	if m.file == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(m.file, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

var _ usecase.Metrics = (*EngineMetrics)(nil)
