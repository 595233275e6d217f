// Package metrics exposes build and reload counters for Prometheus.
// A nil *Collector discards everything, so library callers may omit it.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shadersmith"

// Collector owns a private registry with the engine's metrics.
type Collector struct {
	registry      *prometheus.Registry
	builds        *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	storeFailures prometheus.Counter
	reloads       *prometheus.CounterVec
	compile       prometheus.Histogram
}

// New registers the metrics on a fresh registry. withRuntime adds the Go
// runtime and process collectors.
func New(withRuntime bool) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Shader builds by result.",
		}, []string{"result"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by outcome.",
		}, []string{"result"}),
		storeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_store_failures_total",
			Help:      "Cache writes that failed and were skipped.",
		}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Hot-reload recompilations by result.",
		}, []string{"result"}),
		compile: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_seconds",
			Help:      "Wall time of compiler invocations.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}
	c.registry.MustRegister(c.builds, c.cacheLookups, c.storeFailures, c.reloads, c.compile)
	if withRuntime {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return c
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

func (c *Collector) Build(ok bool) {
	if c == nil {
		return
	}
	c.builds.WithLabelValues(result(ok)).Inc()
}

// CacheLookup counts one lookup; outcome is hit, miss or stale.
func (c *Collector) CacheLookup(outcome string) {
	if c == nil {
		return
	}
	c.cacheLookups.WithLabelValues(outcome).Inc()
}

func (c *Collector) CacheStoreFailed() {
	if c == nil {
		return
	}
	c.storeFailures.Inc()
}

func (c *Collector) Reload(ok bool) {
	if c == nil {
		return
	}
	c.reloads.WithLabelValues(result(ok)).Inc()
}

func (c *Collector) ObserveCompile(d time.Duration) {
	if c == nil {
		return
	}
	c.compile.Observe(d.Seconds())
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
