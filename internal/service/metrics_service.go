package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/learning-intel-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the API and
// the prediction pipeline.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	batchSize          prometheus.Histogram
	batchDuration      *prometheus.HistogramVec
	predictions        *prometheus.CounterVec
	rowErrors          prometheus.Counter
	validationFailures prometheus.Counter
	cacheLookups       *prometheus.CounterVec
	cacheLatency       prometheus.Histogram
	historyWrites      *prometheus.CounterVec
}

// NewMetricsService registers collectors on a private registry.
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

	batchSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "prediction_batch_rows",
		Help:    "Rows per scored batch",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	batchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prediction_batch_duration_seconds",
		Help:    "Time spent processing and scoring a batch",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	predictions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "predictions_total",
		Help: "Scored rows by risk level",
	}, []string{"risk_level"})

	rowErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "prediction_row_errors_total",
		Help: "Rows that could not be scored",
	})

	validationFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "prediction_validation_failures_total",
		Help: "Batches rejected by validation",
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "insights_cache_lookups_total",
		Help: "Course insights cache lookups by result",
	}, []string{"result"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "insights_cache_latency_seconds",
		Help:    "Latency for insights cache operations",
		Buckets: prometheus.DefBuckets,
	})

	historyWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prediction_history_writes_total",
		Help: "Recorded prediction runs by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, batchSize, batchDuration, predictions, rowErrors,
		validationFailures, cacheLookups, cacheLatency, historyWrites, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		batchSize:          batchSize,
		batchDuration:      batchDuration,
		predictions:        predictions,
		rowErrors:          rowErrors,
		validationFailures: validationFailures,
		cacheLookups:       cacheLookups,
		cacheLatency:       cacheLatency,
		historyWrites:      historyWrites,
	}
}

// Registry exposes the underlying registry for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
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

// ObserveBatch records the outcome of one scored batch.
func (m *MetricsService) ObserveBatch(source string, predictions []models.Prediction, duration time.Duration) {
	if m == nil {
		return
	}
	m.batchSize.Observe(float64(len(predictions)))
	m.batchDuration.WithLabelValues(source).Observe(duration.Seconds())
	for _, p := range predictions {
		if !p.OK() {
			m.rowErrors.Inc()
			continue
		}
		m.predictions.WithLabelValues(string(p.RiskLevel)).Inc()
	}
}

// RecordValidationFailure counts a rejected batch.
func (m *MetricsService) RecordValidationFailure() {
	if m == nil {
		return
	}
	m.validationFailures.Inc()
}

// RecordCacheOperation records an insights cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
	}
}

// RecordHistoryWrite counts persisted or failed run records.
func (m *MetricsService) RecordHistoryWrite(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.historyWrites.WithLabelValues("error").Inc()
		return
	}
	m.historyWrites.WithLabelValues("ok").Inc()
}
