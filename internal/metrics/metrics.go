// Package metrics exposes Prometheus collectors for clean-up runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Unit outcomes.
const (
	OutcomeChanged   = "changed"
	OutcomeUnchanged = "unchanged"
	OutcomeCached    = "cached"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Metrics holds every collector. A nil *Metrics records nothing.
type Metrics struct {
	UnitsTotal         *prometheus.CounterVec
	UnitDuration       prometheus.Histogram
	Iterations         prometheus.Histogram
	OperationsTotal    *prometheus.CounterVec
	RuleFailuresTotal  *prometheus.CounterVec
	CompositionErrors  prometheus.Counter
	CappedTotal        prometheus.Counter
	CompileCacheHits   prometheus.Counter
	CompileCacheMisses prometheus.Counter
}

// New creates the collectors and registers them on registry.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		UnitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tclean_units_total",
				Help: "Total number of processed units by outcome",
			},
			[]string{"outcome"},
		),
		UnitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tclean_unit_duration_seconds",
				Help:    "Time spent cleaning one unit",
				Buckets: prometheus.DefBuckets,
			},
		),
		Iterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tclean_unit_iterations",
				Help:    "Rule evaluation passes per changed unit",
				Buckets: prometheus.LinearBuckets(1, 1, 5),
			},
		),
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tclean_rule_operations_total",
				Help: "Total number of rewrite operations proposed per rule",
			},
			[]string{"rule"},
		),
		RuleFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tclean_rule_failures_total",
				Help: "Total number of rule invocations that failed or panicked",
			},
			[]string{"rule"},
		),
		CompositionErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tclean_composition_errors_total",
				Help: "Total number of units skipped because rules proposed overlapping edits",
			},
		),
		CappedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tclean_iteration_cap_reached_total",
				Help: "Total number of units that hit the iteration cap",
			},
		),
		CompileCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tclean_compile_cache_hits_total",
				Help: "Total number of parses served from the tree cache",
			},
		),
		CompileCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tclean_compile_cache_misses_total",
				Help: "Total number of parses not served from the tree cache",
			},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.UnitsTotal,
			m.UnitDuration,
			m.Iterations,
			m.OperationsTotal,
			m.RuleFailuresTotal,
			m.CompositionErrors,
			m.CappedTotal,
			m.CompileCacheHits,
			m.CompileCacheMisses,
		)
	}
	return m
}

func (m *Metrics) RecordUnit(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.UnitsTotal.WithLabelValues(outcome).Inc()
	m.UnitDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordIterations(n int, capped bool) {
	if m == nil {
		return
	}
	m.Iterations.Observe(float64(n))
	if capped {
		m.CappedTotal.Inc()
	}
}

func (m *Metrics) RecordOperations(rule string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.OperationsTotal.WithLabelValues(rule).Add(float64(n))
}

func (m *Metrics) RecordRuleFailure(rule string) {
	if m == nil {
		return
	}
	m.RuleFailuresTotal.WithLabelValues(rule).Inc()
}

func (m *Metrics) RecordCompositionError() {
	if m == nil {
		return
	}
	m.CompositionErrors.Inc()
}

func (m *Metrics) RecordCompile(cached bool) {
	if m == nil {
		return
	}
	if cached {
		m.CompileCacheHits.Inc()
		return
	}
	m.CompileCacheMisses.Inc()
}
