// Package metricsvc exposes the Prometheus metrics of the API.
package metricsvc

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/campusconnect/core/examtrend"
)

// Manager owns the metrics of the API. Its zero value is not usable; use NewManager.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// exam trends
	analyses         prometheus.Counter
	insightsEmitted  prometheus.Counter
	recordsAnalyzed  prometheus.Histogram
	analysisDuration prometheus.Histogram
	recordsImported  prometheus.Counter
}

var _ examtrend.Observer = (*Manager)(nil)

// NewManager registers the metrics on a fresh registry unless WithRegistry is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "campus",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"route", "method", "status_code"},
	)

	m.analyses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "exam_analyses_total",
		Help:      "Total number of exam trend analyses",
	})
	m.insightsEmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "exam_insights_total",
		Help:      "Total number of subject insights produced",
	})
	m.recordsAnalyzed = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "exam_records_analyzed",
		Help:      "Number of exam records per analysis",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})
	m.analysisDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "exam_analysis_duration_seconds",
		Help:      "Exam trend analysis duration in seconds",
		Buckets:   m.histogramBuckets,
	})
	m.recordsImported = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "exam_records_imported_total",
		Help:      "Total number of exam records imported from spreadsheets",
	})
}

func (m *Manager) Enabled() bool { return m.enabled }

// ObserveHTTPRequest records a served request. route should be the route template, not the raw path.
func (m *Manager) ObserveHTTPRequest(route, method string, status int, elapsed time.Duration) {
	if !m.enabled {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(route, method, code).Inc()
	m.httpRequestDuration.WithLabelValues(route, method, code).Observe(elapsed.Seconds())
}

// ObserveAnalysis implements examtrend.Observer.
func (m *Manager) ObserveAnalysis(records, insights int, elapsed time.Duration) {
	if !m.enabled {
		return
	}
	m.analyses.Inc()
	m.insightsEmitted.Add(float64(insights))
	m.recordsAnalyzed.Observe(float64(records))
	m.analysisDuration.Observe(elapsed.Seconds())
}

func (m *Manager) ObserveImport(records int) {
	if !m.enabled {
		return
	}
	m.recordsImported.Add(float64(records))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
