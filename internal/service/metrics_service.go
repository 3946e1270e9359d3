package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates the Prometheus instrumentation for the API and
// the scheduling engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	detectDuration  prometheus.Observer
	conflictsFound  *prometheus.CounterVec
	rankDuration    prometheus.Observer
	candidatesFound prometheus.Histogram
	substitutions   *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	detectDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "conflict_detection_duration_seconds",
		Help:    "Duration of conflict detection runs",
		Buckets: prometheus.DefBuckets,
	})

	conflictsFound := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "conflicts_detected_total",
		Help: "Conflicts detected per type",
	}, []string{"type"})

	rankDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "candidate_ranking_duration_seconds",
		Help:    "Duration of substitute candidate ranking runs",
		Buckets: prometheus.DefBuckets,
	})

	candidatesFound := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "candidates_per_request",
		Help:    "Eligible candidates returned per ranking request",
		Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
	})

	substitutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "substitution_requests_total",
		Help: "Substitution requests per status transition",
	}, []string{"status", "priority"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, detectDuration, conflictsFound,
		rankDuration, candidatesFound, substitutions, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		detectDuration:  detectDuration,
		conflictsFound:  conflictsFound,
		rankDuration:    rankDuration,
		candidatesFound: candidatesFound,
		substitutions:   substitutions,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveDetection records one conflict detection run and its findings.
func (m *MetricsService) ObserveDetection(duration time.Duration, countByType map[string]int) {
	if m == nil {
		return
	}
	m.detectDuration.Observe(duration.Seconds())
	for conflictType, count := range countByType {
		m.conflictsFound.WithLabelValues(conflictType).Add(float64(count))
	}
}

// ObserveRanking records one candidate ranking run.
func (m *MetricsService) ObserveRanking(duration time.Duration, candidates int) {
	if m == nil {
		return
	}
	m.rankDuration.Observe(duration.Seconds())
	m.candidatesFound.Observe(float64(candidates))
}

// RecordSubstitution counts a substitution request status transition.
func (m *MetricsService) RecordSubstitution(status, priority string) {
	if m == nil {
		return
	}
	m.substitutions.WithLabelValues(status, priority).Inc()
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
}
