package udp

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/industriverse/capstream/metric"
)

// ingestMetrics holds Prometheus metrics for the UDP ingress. A nil receiver
// disables every recording method, so callers never branch on registry
// presence.
type ingestMetrics struct {
	packetsReceived   prometheus.Counter
	bytesReceived     prometheus.Counter
	readingsDropped   *prometheus.CounterVec
	bufferUtilization prometheus.Gauge
	batchSize         prometheus.Histogram
	publishDuration   prometheus.Histogram
	socketErrors      prometheus.Counter
}

func newIngestMetrics(registry *metric.MetricsRegistry, componentName string) (*ingestMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &ingestMetrics{
		packetsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "capstream",
			Subsystem: "udp",
			Name:      "packets_received_total",
			Help:      "UDP datagrams received",
		}),

		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "capstream",
			Subsystem: "udp",
			Name:      "bytes_received_total",
			Help:      "Bytes received from the UDP socket",
		}),

		readingsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capstream",
			Subsystem: "udp",
			Name:      "readings_dropped_total",
			Help:      "Datagrams dropped before publish, by reason",
		}, []string{"reason"}),

		bufferUtilization: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "capstream",
			Subsystem: "udp",
			Name:      "buffer_utilization_ratio",
			Help:      "Ring buffer fill level between 0 and 1",
		}),

		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "capstream",
			Subsystem: "udp",
			Name:      "publish_batch_size",
			Help:      "Readings drained from the ring per publish pass",
			Buckets:   []float64{1, 5, 10, 20, 50, 100},
		}),

		publishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "capstream",
			Subsystem: "udp",
			Name:      "publish_duration_seconds",
			Help:      "Time to publish one reading to NATS, including retries",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}),

		socketErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "capstream",
			Subsystem: "udp",
			Name:      "socket_errors_total",
			Help:      "UDP socket read errors",
		}),
	}

	if err := registry.RegisterCounter(componentName, "packets_received", m.packetsReceived); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(componentName, "bytes_received", m.bytesReceived); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec(componentName, "readings_dropped", m.readingsDropped); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(componentName, "buffer_utilization", m.bufferUtilization); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogram(componentName, "batch_size", m.batchSize); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogram(componentName, "publish_duration", m.publishDuration); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(componentName, "socket_errors", m.socketErrors); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *ingestMetrics) recordPacket(n int) {
	if m == nil {
		return
	}
	m.packetsReceived.Inc()
	m.bytesReceived.Add(float64(n))
}

func (m *ingestMetrics) recordDropped(reason string) {
	if m == nil {
		return
	}
	m.readingsDropped.WithLabelValues(reason).Inc()
}

func (m *ingestMetrics) recordBufferLevel(size, capacity int) {
	if m == nil || capacity <= 0 {
		return
	}
	m.bufferUtilization.Set(float64(size) / float64(capacity))
}

func (m *ingestMetrics) recordBatch(n int) {
	if m == nil {
		return
	}
	m.batchSize.Observe(float64(n))
}

func (m *ingestMetrics) recordPublish(d time.Duration) {
	if m == nil {
		return
	}
	m.publishDuration.Observe(d.Seconds())
}

func (m *ingestMetrics) recordSocketError() {
	if m == nil {
		return
	}
	m.socketErrors.Inc()
}
