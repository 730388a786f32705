package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	workflowTotal   *prometheus.CounterVec
	decisionTotal   *prometheus.CounterVec
	artifactTotal   prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
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

	workflowTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "approval_requests_total",
		Help: "Total approval requests opened, by request type",
	}, []string{"type"})

	decisionTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "approval_decisions_total",
		Help: "Total approval decisions, by outcome",
	}, []string{"status"})

	artifactTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "certificate_artifacts_rendered_total",
		Help: "Total certificate PDFs rendered",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, workflowTotal, decisionTotal, artifactTotal, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		workflowTotal:   workflowTotal,
		decisionTotal:   decisionTotal,
		artifactTotal:   artifactTotal,
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

// RecordRequestOpened counts an approval request by type.
func (m *MetricsService) RecordRequestOpened(requestType string) {
	if m == nil {
		return
	}
	m.workflowTotal.WithLabelValues(requestType).Inc()
}

// RecordDecision counts an approval decision by outcome.
func (m *MetricsService) RecordDecision(status string) {
	if m == nil {
		return
	}
	m.decisionTotal.WithLabelValues(status).Inc()
}

// RecordArtifactRendered counts one rendered certificate PDF.
func (m *MetricsService) RecordArtifactRendered() {
	if m == nil {
		return
	}
	m.artifactTotal.Inc()
}
