// Package metrics exposes Prometheus instrumentation for research runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Branch outcomes.
const (
	OutcomeRecursed = "recursed"
	OutcomeTerminal = "terminal"
	OutcomeFailed   = "failed"
)

// Recorder holds the collectors for one process. All methods are safe on a
// nil Recorder.
type Recorder struct {
	registry *prometheus.Registry

	plans       *prometheus.CounterVec
	subQueries  prometheus.Counter
	branches    *prometheus.CounterVec
	findings    prometheus.Counter
	runDuration prometheus.Histogram
	activeRuns  prometheus.Gauge
}

// NewRecorder registers the research collectors on a private registry along
// with the Go runtime and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deep_research_plans_total",
			Help: "Planning calls by result (planned or empty)",
		}, []string{"result"}),
		subQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deep_research_subqueries_total",
			Help: "Sub-queries produced by the planner",
		}),
		branches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deep_research_branches_total",
			Help: "Research branches by outcome",
		}, []string{"outcome"}),
		findings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deep_research_findings_total",
			Help: "Findings extracted from search results",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "deep_research_run_duration_seconds",
			Help:    "Wall time of complete research runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "deep_research_active_runs",
			Help: "Research runs currently in progress",
		}),
	}

	r.registry.MustRegister(
		r.plans, r.subQueries, r.branches, r.findings, r.runDuration, r.activeRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Plan records one planning call that produced n sub-queries.
func (r *Recorder) Plan(n int) {
	if r == nil {
		return
	}
	if n == 0 {
		r.plans.WithLabelValues("empty").Inc()
		return
	}
	r.plans.WithLabelValues("planned").Inc()
	r.subQueries.Add(float64(n))
}

// Branch records the outcome of one branch and the findings it extracted.
func (r *Recorder) Branch(outcome string, findings int) {
	if r == nil {
		return
	}
	r.branches.WithLabelValues(outcome).Inc()
	r.findings.Add(float64(findings))
}

// RunStarted marks the beginning of a run and returns a func that records its
// completion.
func (r *Recorder) RunStarted() func() {
	if r == nil {
		return func() {}
	}
	start := time.Now()
	r.activeRuns.Inc()
	return func() {
		r.activeRuns.Dec()
		r.runDuration.Observe(time.Since(start).Seconds())
	}
}
