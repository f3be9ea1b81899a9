package httpapi

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/industriverse/capstream/metric"
)

// adminMetrics holds Prometheus metrics for the admin API. A nil receiver
// disables recording, so handlers never branch on registry presence.
type adminMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func newAdminMetrics(registry *metric.MetricsRegistry, componentName string) (*adminMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &adminMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capstream",
			Subsystem: "httpapi",
			Name:      "requests_total",
			Help:      "HTTP requests served, by method, route, and status",
		}, []string{"component", "method", "route", "status"}),

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "capstream",
			Subsystem: "httpapi",
			Name:      "request_duration_seconds",
			Help:      "HTTP request handling time, by method and route",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"component", "method", "route"}),
	}

	if err := registry.RegisterCounterVec("httpapi", "requests_total", m.requestsTotal); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec("httpapi", "request_duration", m.requestDuration); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *adminMetrics) recordRequest(componentName, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requestsTotal.WithLabelValues(componentName, method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(componentName, method, route).Observe(d.Seconds())
}
