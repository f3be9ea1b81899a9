package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/industriverse/capstream/metric"
)

// poolMetrics holds Prometheus metrics for one pool instance.
type poolMetrics struct {
	submitted  prometheus.Counter
	processed  prometheus.Counter
	failed     prometheus.Counter
	dropped    prometheus.Counter
	queueDepth prometheus.Gauge
	queueUtil  prometheus.Gauge
	duration   *prometheus.HistogramVec
}

// newPoolMetrics creates and registers pool metrics with the provided registry.
func newPoolMetrics(registry *metric.MetricsRegistry, name string) (*poolMetrics, error) {
	labels := prometheus.Labels{"component": name}

	m := &poolMetrics{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "capstream",
			Subsystem:   "worker",
			Name:        "submitted_total",
			ConstLabels: labels,
			Help:        "Total work items submitted to the pool",
		}),
		processed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "capstream",
			Subsystem:   "worker",
			Name:        "processed_total",
			ConstLabels: labels,
			Help:        "Total work items processed by the pool",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "capstream",
			Subsystem:   "worker",
			Name:        "failed_total",
			ConstLabels: labels,
			Help:        "Total work items whose processor returned an error",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "capstream",
			Subsystem:   "worker",
			Name:        "dropped_total",
			ConstLabels: labels,
			Help:        "Total work items rejected because the queue was full",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "capstream",
			Subsystem:   "worker",
			Name:        "queue_depth",
			ConstLabels: labels,
			Help:        "Current number of queued work items",
		}),
		queueUtil: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "capstream",
			Subsystem:   "worker",
			Name:        "queue_utilization",
			ConstLabels: labels,
			Help:        "Queue depth as a fraction of queue size (0.0 to 1.0)",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "capstream",
			Subsystem:   "worker",
			Name:        "processing_duration_seconds",
			ConstLabels: labels,
			Help:        "Time spent processing work items",
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"status"}),
	}

	if err := registry.RegisterCounter(name, "worker_submitted", m.submitted); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "worker_processed", m.processed); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "worker_failed", m.failed); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "worker_dropped", m.dropped); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(name, "worker_queue_depth", m.queueDepth); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(name, "worker_queue_utilization", m.queueUtil); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec(name, "worker_processing_duration_seconds", m.duration); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *poolMetrics) recordSubmit(depth int) {
	m.submitted.Inc()
	m.queueDepth.Set(float64(depth))
}

func (m *poolMetrics) recordDrop() {
	m.dropped.Inc()
}

func (m *poolMetrics) recordProcessed(err error, duration time.Duration) {
	m.processed.Inc()
	status := "success"
	if err != nil {
		m.failed.Inc()
		status = "error"
	}
	m.duration.WithLabelValues(status).Observe(duration.Seconds())
}

func (m *poolMetrics) updateQueue(depth, size int) {
	m.queueDepth.Set(float64(depth))
	m.queueUtil.Set(float64(depth) / float64(size))
}
