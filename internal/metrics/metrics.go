package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	gatherer         prometheus.Gatherer
	requestCount     *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	classifications  *prometheus.CounterVec
	inferenceLatency prometheus.Histogram
	modelLoaded      prometheus.Gauge
}

// New registers the service collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		gatherer: reg,
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			}, []string{"path", "method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			}, []string{"path"},
		),
		classifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classifications_total",
				Help: "Successful classifications by reported class",
			}, []string{"class"},
		),
		inferenceLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "inference_duration_seconds",
				Help:    "Duration of model forward passes in seconds",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
			},
		),
		modelLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "model_loaded",
				Help: "1 when the classifier is ready to serve",
			},
		),
	}
	reg.MustRegister(
		m.requestCount,
		m.requestDuration,
		m.classifications,
		m.inferenceLatency,
		m.modelLoaded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(path, method string, status int, duration time.Duration) {
	m.requestCount.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path).Observe(duration.Seconds())
}

func (m *Metrics) ObserveClassification(class string, inference time.Duration) {
	m.classifications.WithLabelValues(class).Inc()
	m.inferenceLatency.Observe(inference.Seconds())
}

func (m *Metrics) SetModelLoaded(loaded bool) {
	if loaded {
		m.modelLoaded.Set(1)
	} else {
		m.modelLoaded.Set(0)
	}
}
