// Package metrics exposes prometheus instruments for the billing pipeline.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	RunOutcomeSuccess = "success"
	RunOutcomeError   = "error"

	InvoiceResultGenerated = "generated"
	InvoiceResultSkipped   = "skipped"
)

// BillingMetrics captures billing run health signals.
type BillingMetrics struct {
	runs        *prometheus.CounterVec
	invoices    *prometheus.CounterVec
	runDuration prometheus.Histogram
	rollovers   prometheus.Counter
}

var (
	billingMetricsOnce sync.Once
	billingMetrics     *BillingMetrics
)

// Billing returns the singleton billing metrics registry.
func Billing() *BillingMetrics {
	billingMetricsOnce.Do(func() {
		billingMetrics = newBillingMetrics(prometheus.DefaultRegisterer)
	})
	return billingMetrics
}

// ResetBillingMetricsForTest resets the billing metrics singleton for tests.
func ResetBillingMetricsForTest() {
	billingMetricsOnce = sync.Once{}
	billingMetrics = nil
}

func newBillingMetrics(registerer prometheus.Registerer) *BillingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nhatro_billing_runs_total",
		Help: "Billing generation runs by outcome.",
	}, []string{"outcome"})
	invoices := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nhatro_billing_invoices_total",
		Help: "Invoices produced or skipped per billing run.",
	}, []string{"result"})
	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "nhatro_billing_run_duration_seconds",
		Help:    "Billing generation latency.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})
	rollovers := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nhatro_billing_rollovers_total",
		Help: "Manual period rollovers applied.",
	})

	registerer.MustRegister(runs, invoices, runDuration, rollovers)

	return &BillingMetrics{
		runs:        runs,
		invoices:    invoices,
		runDuration: runDuration,
		rollovers:   rollovers,
	}
}

// IncRun increments the run counter with the given outcome.
func (m *BillingMetrics) IncRun(outcome string) {
	if m == nil || m.runs == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
}

// AddInvoices increments the invoice counter for a result by count.
func (m *BillingMetrics) AddInvoices(result string, count int) {
	if m == nil || m.invoices == nil || count <= 0 {
		return
	}
	m.invoices.WithLabelValues(result).Add(float64(count))
}

// ObserveRunDuration records billing run latency in seconds.
func (m *BillingMetrics) ObserveRunDuration(duration time.Duration) {
	if m == nil || m.runDuration == nil {
		return
	}
	m.runDuration.Observe(duration.Seconds())
}

// RolloverCounter returns the rollover counter collector.
func (m *BillingMetrics) RolloverCounter() prometheus.Counter {
	if m == nil {
		return nil
	}
	return m.rollovers
}

// IncRollover increments the rollover counter.
func (m *BillingMetrics) IncRollover() {
	if m == nil || m.rollovers == nil {
		return
	}
	m.rollovers.Inc()
}
