// Package metrics - prometheus instrumentation of the document store
package metrics

import (
	"context"

	"github.com/alwitt/notary/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StorageOpENUMType storage operation label
type StorageOpENUMType string

const (
	// StorageOpLoad collection read
	StorageOpLoad StorageOpENUMType = "load"
	// StorageOpParse collection decode
	StorageOpParse StorageOpENUMType = "parse"
	// StorageOpSave collection write
	StorageOpSave StorageOpENUMType = "save"
)

// Collector document store metrics
//
// A nil Collector records nothing.
type Collector struct {
	documentsCreated *prometheus.CounterVec
	ledgerOutcomes   *prometheus.CounterVec
	ledgerDuration   prometheus.Histogram
	storageFailures  *prometheus.CounterVec
}

/*
NewCollector define document store metrics

	@param registerer prometheus.Registerer - where to register; nil leaves them unregistered
	@returns collector instance
*/
func NewCollector(registerer prometheus.Registerer) *Collector {
	factory := promauto.With(registerer)
	return &Collector{
		documentsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notary_documents_created_total",
				Help: "Documents created, by visibility",
			},
			[]string{"visibility"},
		),
		ledgerOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notary_ledger_outcomes_total",
				Help: "Finished ledger writes, by status",
			},
			[]string{"status"},
		),
		ledgerDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "notary_ledger_write_duration_seconds",
				Help:    "Duration of ledger writes",
				Buckets: prometheus.DefBuckets,
			},
		),
		storageFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notary_storage_failures_total",
				Help: "Collection storage failures, by operation",
			},
			[]string{"op"},
		),
	}
}

// DocumentCreated count one created document
func (c *Collector) DocumentCreated(isPublic bool) {
	if c == nil {
		return
	}
	visibility := "private"
	if isPublic {
		visibility = "public"
	}
	c.documentsCreated.WithLabelValues(visibility).Inc()
}

// StorageFailure count one storage failure
func (c *Collector) StorageFailure(op StorageOpENUMType) {
	if c == nil {
		return
	}
	c.storageFailures.WithLabelValues(string(op)).Inc()
}

// LedgerOutcome count one finished ledger write
func (c *Collector) LedgerOutcome(outcome ledger.Outcome) {
	if c == nil {
		return
	}
	c.ledgerOutcomes.WithLabelValues(string(outcome.Status)).Inc()
	if !outcome.StartedAt.IsZero() && !outcome.FinishedAt.IsZero() {
		c.ledgerDuration.Observe(outcome.FinishedAt.Sub(outcome.StartedAt).Seconds())
	}
}

// OutcomeSink ledger outcome sink feeding LedgerOutcome
func (c *Collector) OutcomeSink() ledger.OutcomeSink {
	return ledger.SinkFunc(func(_ context.Context, outcome ledger.Outcome) error {
		c.LedgerOutcome(outcome)
		return nil
	})
}
