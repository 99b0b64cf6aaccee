package openapi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records synthesis activity. A nil *Metrics records nothing.
type Metrics struct {
	builds    *prometheus.CounterVec
	duration  prometheus.Histogram
	cacheHits prometheus.Counter
	schemas   prometheus.Gauge
}

// NewMetrics creates the synthesis collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oasgen",
			Name:      "document_builds_total",
			Help:      "Number of OpenAPI document builds by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "oasgen",
			Name:      "document_build_duration_seconds",
			Help:      "Time spent building the OpenAPI document.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oasgen",
			Name:      "document_cache_hits_total",
			Help:      "Number of document requests served from the cache.",
		}),
		schemas: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "oasgen",
			Name:      "component_schemas",
			Help:      "Number of component schemas in the last built document.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.builds, m.duration, m.cacheHits, m.schemas)
	}
	return m
}

func (m *Metrics) observeBuild(err error, elapsed time.Duration, schemas int) {
	if m == nil {
		return
	}
	if err != nil {
		m.builds.WithLabelValues("error").Inc()
		return
	}
	m.builds.WithLabelValues("ok").Inc()
	m.duration.Observe(elapsed.Seconds())
	m.schemas.Set(float64(schemas))
}

func (m *Metrics) cacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}
