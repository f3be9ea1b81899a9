package websocket

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/industriverse/capstream/metric"
)

// gatewayMetrics holds Prometheus metrics for the gateway. A nil receiver
// disables every recording method, so callers never branch on registry
// presence.
type gatewayMetrics struct {
	connectionsActive *prometheus.GaugeVec
	connectionsTotal  *prometheus.CounterVec
	disconnectsTotal  *prometheus.CounterVec
	eventsSentTotal   *prometheus.CounterVec
	bytesSentTotal    *prometheus.CounterVec
	broadcastDuration *prometheus.HistogramVec
	actionsTotal      *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
}

func newGatewayMetrics(registry *metric.MetricsRegistry, componentName string) (*gatewayMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &gatewayMetrics{
		connectionsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "capstream",
			Subsystem: "websocket",
			Name:      "connections_active",
			Help:      "Currently connected subscriber connections",
		}, []string{"component"}),

		connectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capstream",
			Subsystem: "websocket",
			Name:      "connections_total",
			Help:      "Total accepted subscriber connections",
		}, []string{"component"}),

		disconnectsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capstream",
			Subsystem: "websocket",
			Name:      "disconnects_total",
			Help:      "Connection removals by reason",
		}, []string{"component", "reason"}),

		eventsSentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capstream",
			Subsystem: "websocket",
			Name:      "events_sent_total",
			Help:      "Capsule events delivered to connections, by event type",
		}, []string{"component", "event"}),

		bytesSentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capstream",
			Subsystem: "websocket",
			Name:      "bytes_sent_total",
			Help:      "Bytes queued for delivery to connections",
		}, []string{"component"}),

		broadcastDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "capstream",
			Subsystem: "websocket",
			Name:      "broadcast_duration_seconds",
			Help:      "Time to fan one capsule event out to all matching connections",
			Buckets:   []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"component"}),

		actionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capstream",
			Subsystem: "websocket",
			Name:      "actions_total",
			Help:      "Capsule actions relayed from connections, by result",
		}, []string{"component", "result"}),

		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capstream",
			Subsystem: "websocket",
			Name:      "errors_total",
			Help:      "Gateway errors by type",
		}, []string{"component", "error_type"}),
	}

	if err := registry.RegisterGaugeVec("websocket", "connections_active", m.connectionsActive); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("websocket", "connections_total", m.connectionsTotal); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("websocket", "disconnects_total", m.disconnectsTotal); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("websocket", "events_sent_total", m.eventsSentTotal); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("websocket", "bytes_sent_total", m.bytesSentTotal); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec("websocket", "broadcast_duration", m.broadcastDuration); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("websocket", "actions_total", m.actionsTotal); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("websocket", "errors_total", m.errorsTotal); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *gatewayMetrics) recordConnect(componentName string, active int) {
	if m == nil {
		return
	}
	m.connectionsTotal.WithLabelValues(componentName).Inc()
	m.connectionsActive.WithLabelValues(componentName).Set(float64(active))
}

func (m *gatewayMetrics) recordDisconnect(componentName, reason string, active int) {
	if m == nil {
		return
	}
	m.disconnectsTotal.WithLabelValues(componentName, reason).Inc()
	m.connectionsActive.WithLabelValues(componentName).Set(float64(active))
}

// recordBroadcast tracks one event fan-out: how many connections received it,
// the bytes queued, and how long the fan-out took.
func (m *gatewayMetrics) recordBroadcast(componentName, event string, delivered, size int, d time.Duration) {
	if m == nil {
		return
	}
	if delivered > 0 {
		m.eventsSentTotal.WithLabelValues(componentName, event).Add(float64(delivered))
		m.bytesSentTotal.WithLabelValues(componentName).Add(float64(delivered * size))
	}
	m.broadcastDuration.WithLabelValues(componentName).Observe(d.Seconds())
}

func (m *gatewayMetrics) recordAction(componentName, result string) {
	if m == nil {
		return
	}
	m.actionsTotal.WithLabelValues(componentName, result).Inc()
}

func (m *gatewayMetrics) recordError(componentName, errorType string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(componentName, errorType).Inc()
}
