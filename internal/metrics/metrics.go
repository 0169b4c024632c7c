// Package metrics exposes Prometheus metrics for the optimizer and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	optimizerRuns        *prometheus.CounterVec
	optimizerDuration    prometheus.Histogram
	optimizerGenerations prometheus.Histogram
	optimizerGap         prometheus.Gauge
	optimizerTotalScore  prometheus.Gauge

	draftsConfirmed prometheus.Counter
	mailsPublished  *prometheus.CounterVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

type Option func(*Manager)

func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithHistogramBuckets sets the buckets, in seconds, of the duration histograms.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// custom registry so the Go runtime collectors are not exported
var defaultManager = NewManager() //nolint:gochecknoglobals

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "migdalor",
		subsystem:        "backend",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.optimizerRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "optimizer_runs_total",
		Help:      "Number of assignment optimizations by stop reason",
	}, []string{"stop_reason"})

	m.optimizerDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "optimizer_duration_seconds",
		Help:      "Wall time of an assignment optimization",
		Buckets:   m.histogramBuckets,
	})

	m.optimizerGenerations = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "optimizer_generations",
		Help:      "Generations run before the optimizer stopped",
		Buckets:   []float64{0, 10, 25, 50, 100, 200, 300, 500, 1000},
	})

	m.optimizerGap = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "optimizer_last_gap_ratio",
		Help:      "Relative gap to the exact optimum of the last checked optimization",
	})

	m.optimizerTotalScore = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "optimizer_last_total_score",
		Help:      "Total qualification score of the last optimization",
	})

	m.draftsConfirmed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "drafts_confirmed_total",
		Help:      "Number of optimization drafts confirmed into assignments",
	})

	m.mailsPublished = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "mails_published_total",
		Help:      "Number of mail messages published to the queue by outcome",
	}, []string{"outcome"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Number of HTTP requests by route, method and status code",
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration by route and method",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method"})
}

// RecordOptimization records a finished run. gap is nil when the exact
// optimum was not computed.
func (m *Manager) RecordOptimization(stopReason string, duration time.Duration, generations int, totalScore float64, gap *float64) {
	m.optimizerRuns.WithLabelValues(stopReason).Inc()
	m.optimizerDuration.Observe(duration.Seconds())
	m.optimizerGenerations.Observe(float64(generations))
	m.optimizerTotalScore.Set(totalScore)
	if gap != nil {
		m.optimizerGap.Set(*gap)
	}
}

func (m *Manager) RecordDraftConfirmed() {
	m.draftsConfirmed.Inc()
}

func (m *Manager) RecordMailPublished(ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.mailsPublished.WithLabelValues(outcome).Inc()
}

func (m *Manager) RecordHTTPRequest(route, method string, statusCode int, duration time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics of this manager's registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func Default() *Manager {
	return defaultManager
}
