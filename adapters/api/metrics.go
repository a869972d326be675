package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's prometheus registry and instruments. Each
// server carries its own registry so that tests never collide on the global
// one.
type Metrics struct {
	registry *prometheus.Registry

	// deploymentsTotal counts deploy and stop operations by outcome.
	deploymentsTotal *prometheus.CounterVec
	// deploymentDuration tracks how long deploy and stop operations take.
	deploymentDuration *prometheus.HistogramVec
	// requestsTotal counts HTTP requests by method and status.
	requestsTotal *prometheus.CounterVec
}

// NewMetrics builds a registry with the server instruments plus the standard
// process and Go runtime collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		deploymentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "greenroom",
				Name:      "deployments_total",
				Help:      "Total number of deploy and stop operations",
			},
			[]string{"operation", "outcome"},
		),
		deploymentDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "greenroom",
				Name:      "deployment_duration_seconds",
				Help:      "Duration of deploy and stop operations in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
			},
			[]string{"operation"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "greenroom",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "status"},
		),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.deploymentsTotal,
		m.deploymentDuration,
		m.requestsTotal,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDeployment records one deploy or stop operation.
func (m *Metrics) ObserveDeployment(operation string, took time.Duration, err error) {
	outcome := "done"
	if err != nil {
		outcome = "failed"
	}
	m.deploymentsTotal.WithLabelValues(operation, outcome).Inc()
	m.deploymentDuration.WithLabelValues(operation).Observe(took.Seconds())
}

func (m *Metrics) observeRequest(method string, status int) {
	m.requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
