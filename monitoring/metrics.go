// Package monitoring exposes the service's Prometheus metrics.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "healthrisk"

// Metrics holds the collectors on a private registry. A nil *Metrics records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	modelLoads        *prometheus.CounterVec
	predictions       *prometheus.CounterVec
	predictionSeconds *prometheus.HistogramVec
	cacheEntries      prometheus.Gauge
	httpRequests      *prometheus.CounterVec
}

// NewMetrics creates and registers every collector.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		modelLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_loads_total",
			Help:      "Model artifact loads from disk by outcome.",
		}, []string{"classifier", "model", "result"}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Prediction calls by outcome.",
		}, []string{"classifier", "model", "result"}),
		predictionSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Time spent inside predictors.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"classifier", "model"}),
		cacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_cache_entries",
			Help:      "Models currently held by the model cache.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.modelLoads,
		m.predictions,
		m.predictionSeconds,
		m.cacheEntries,
		m.httpRequests,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveLoad(classifier, model string, err error) {
	if m == nil {
		return
	}
	m.modelLoads.WithLabelValues(classifier, model, outcome(err)).Inc()
}

func (m *Metrics) ObservePrediction(classifier, model string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(classifier, model, outcome(err)).Inc()
	m.predictionSeconds.WithLabelValues(classifier, model).Observe(elapsed.Seconds())
}

func (m *Metrics) SetCacheEntries(n int) {
	if m == nil {
		return
	}
	m.cacheEntries.Set(float64(n))
}

func (m *Metrics) ObserveRequest(method, route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
