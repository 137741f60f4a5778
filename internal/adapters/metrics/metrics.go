// Package metrics exposes engine and compiler activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.trai.ch/pico/internal/core/ports"
	"go.trai.ch/pico/internal/engine/memo"
)

const namespace = "pico"

var _ ports.Metrics = (*Recorder)(nil)

// Recorder implements ports.Metrics on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	compiles        prometheus.Counter
	compileDuration prometheus.Histogram
	diagnostics     prometheus.Gauge
	executions      prometheus.Counter
	reuses          prometheus.Counter
	engine          *prometheus.GaugeVec
	gcRuns          prometheus.Counter
	gcCollected     *prometheus.CounterVec
	gcRetained      *prometheus.GaugeVec

	mu             sync.Mutex
	lastExecutions uint64
	lastReuses     uint64
}

// NewRecorder creates a Recorder with every metric registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		compiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compiles_total",
			Help:      "Number of project compilations.",
		}),
		compileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_duration_seconds",
			Help:      "Wall time of one project compilation.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		diagnostics: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "diagnostics",
			Help:      "Diagnostics reported by the latest compilation.",
		}),
		executions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "executions_total",
			Help:      "Memoized function bodies run.",
		}),
		reuses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "reuses_total",
			Help:      "Memoized calls answered without running a body.",
		}),
		engine: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "entries",
			Help:      "Entries held by the database, by kind.",
		}, []string{"kind"}),
		gcRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gc",
			Name:      "runs_total",
			Help:      "Garbage collection runs.",
		}),
		gcCollected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gc",
			Name:      "collected_total",
			Help:      "Entries dropped by garbage collection, by kind.",
		}, []string{"kind"}),
		gcRetained: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gc",
			Name:      "retained",
			Help:      "Entries kept by the latest garbage collection, by kind.",
		}, []string{"kind"}),
	}

	r.registry.MustRegister(
		r.compiles, r.compileDuration, r.diagnostics,
		r.executions, r.reuses, r.engine,
		r.gcRuns, r.gcCollected, r.gcRetained,
	)
	return r
}

// Registry returns the registry the metrics live in.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveCompile records one compilation and the database state after it.
func (r *Recorder) ObserveCompile(stats memo.Stats, diagnostics int, elapsed time.Duration) {
	r.compiles.Inc()
	r.compileDuration.Observe(elapsed.Seconds())
	r.diagnostics.Set(float64(diagnostics))

	r.engine.WithLabelValues("epoch").Set(float64(stats.Epoch))
	r.engine.WithLabelValues("sources").Set(float64(stats.Sources))
	r.engine.WithLabelValues("derived").Set(float64(stats.Derived))
	r.engine.WithLabelValues("params").Set(float64(stats.Params))
	r.engine.WithLabelValues("recent").Set(float64(stats.Recent))
	r.engine.WithLabelValues("retained").Set(float64(stats.Retained))

	// Stats carries running totals; counters only move by the difference.
	r.mu.Lock()
	defer r.mu.Unlock()
	if stats.Executions > r.lastExecutions {
		r.executions.Add(float64(stats.Executions - r.lastExecutions))
		r.lastExecutions = stats.Executions
	}
	if stats.Reuses > r.lastReuses {
		r.reuses.Add(float64(stats.Reuses - r.lastReuses))
		r.lastReuses = stats.Reuses
	}
}

// ObserveGC records one garbage collection run.
func (r *Recorder) ObserveGC(stats memo.GCStats) {
	r.gcRuns.Inc()
	r.gcCollected.WithLabelValues("derived").Add(float64(stats.CollectedDerived))
	r.gcCollected.WithLabelValues("params").Add(float64(stats.CollectedParams))
	r.gcRetained.WithLabelValues("roots").Set(float64(stats.Roots))
	r.gcRetained.WithLabelValues("derived").Set(float64(stats.RetainedDerived))
	r.gcRetained.WithLabelValues("params").Set(float64(stats.RetainedParams))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
