// Package metrics exposes analysis run statistics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tradegate"

// Recorder records analysis runs on its own registry. A nil *Recorder is a
// valid no-op recorder.
type Recorder struct {
	registry       *prometheus.Registry
	runsTotal      *prometheus.CounterVec
	runFailures    *prometheus.CounterVec
	degraded       *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	lastConfidence *prometheus.GaugeVec
	lastScore      *prometheus.GaugeVec
}

// New creates a recorder with Go runtime and process collectors registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analysis_runs_total",
				Help:      "Completed analysis runs by pair and decided action",
			},
			[]string{"pair", "action"},
		),
		runFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analysis_failures_total",
				Help:      "Analysis runs that returned an error",
			},
			[]string{"pair"},
		),
		degraded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "degraded_sources_total",
				Help:      "Signal sources that fell back or abstained because an upstream failed",
			},
			[]string{"source"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Duration of analysis runs in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pair"},
		),
		lastConfidence: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_confidence",
				Help:      "Aggregate confidence of the latest run",
			},
			[]string{"pair", "timeframe"},
		),
		lastScore: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_score",
				Help:      "Aggregate score of the latest run",
			},
			[]string{"pair", "timeframe"},
		),
	}
}

// RecordRun records a successful run.
func (r *Recorder) RecordRun(pair, timeframe, action string, score, confidence float64, took time.Duration) {
	if r == nil {
		return
	}
	r.runsTotal.WithLabelValues(pair, action).Inc()
	r.runDuration.WithLabelValues(pair).Observe(took.Seconds())
	r.lastScore.WithLabelValues(pair, timeframe).Set(score)
	r.lastConfidence.WithLabelValues(pair, timeframe).Set(confidence)
}

// RecordFailure records a run that returned an error.
func (r *Recorder) RecordFailure(pair string) {
	if r == nil {
		return
	}
	r.runFailures.WithLabelValues(pair).Inc()
}

// RecordDegraded records a source that recovered from an upstream failure.
func (r *Recorder) RecordDegraded(source string) {
	if r == nil {
		return
	}
	r.degraded.WithLabelValues(source).Inc()
}

// Gatherer returns the registry backing the recorder.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
