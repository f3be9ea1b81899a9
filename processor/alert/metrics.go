package alert

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/industriverse/capstream/metric"
	"github.com/industriverse/capstream/types"
)

// alertMetrics holds Prometheus metrics for the alert processor.
type alertMetrics struct {
	readingsTotal      *prometheus.CounterVec   // By component and status (processed/invalid/shed)
	evaluationsTotal   *prometheus.CounterVec   // By component and result (triggered/passed)
	evaluationDuration *prometheus.HistogramVec // By component
	capsuleEvents      *prometheus.CounterVec   // By component and event type
	capsulesActive     *prometheus.GaugeVec     // By component
}

// newAlertMetrics creates and registers alert processor metrics with the
// provided registry.
func newAlertMetrics(registry *metric.MetricsRegistry, componentName string) (*alertMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &alertMetrics{
		readingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capstream",
			Subsystem: "alert",
			Name:      "readings_total",
			Help:      "Total number of readings handled by the alert processor",
		}, []string{"component", "status"}), // status: processed, invalid, shed

		evaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capstream",
			Subsystem: "alert",
			Name:      "evaluations_total",
			Help:      "Total number of rule evaluations by outcome",
		}, []string{"component", "result"}), // result: triggered, passed

		evaluationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "capstream",
			Subsystem: "alert",
			Name:      "evaluation_duration_seconds",
			Help:      "Time spent evaluating one reading against its source's rules",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		}, []string{"component"}),

		capsuleEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capstream",
			Subsystem: "alert",
			Name:      "capsule_events_total",
			Help:      "Total number of capsule lifecycle events by type",
		}, []string{"component", "event"}),

		capsulesActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "capstream",
			Subsystem: "alert",
			Name:      "capsules_active",
			Help:      "Number of live capsules",
		}, []string{"component"}),
	}

	if err := registry.RegisterCounterVec("alert", "readings_total", m.readingsTotal); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("alert", "evaluations_total", m.evaluationsTotal); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec("alert", "evaluation_duration", m.evaluationDuration); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("alert", "capsule_events", m.capsuleEvents); err != nil {
		return nil, err
	}
	if err := registry.RegisterGaugeVec("alert", "capsules_active", m.capsulesActive); err != nil {
		return nil, err
	}

	return m, nil
}

// recordReading records the disposition of one inbound reading.
func (m *alertMetrics) recordReading(componentName, status string) {
	if m == nil {
		return
	}
	m.readingsTotal.WithLabelValues(componentName, status).Inc()
}

// recordEvaluations records the outcome counts of one reading's evaluation
// pass.
func (m *alertMetrics) recordEvaluations(componentName string, triggered, passed int, duration time.Duration) {
	if m == nil {
		return
	}
	if triggered > 0 {
		m.evaluationsTotal.WithLabelValues(componentName, "triggered").Add(float64(triggered))
	}
	if passed > 0 {
		m.evaluationsTotal.WithLabelValues(componentName, "passed").Add(float64(passed))
	}
	m.evaluationDuration.WithLabelValues(componentName).Observe(duration.Seconds())
}

// recordCapsuleEvent tracks lifecycle event counts and the live-capsule
// gauge.
func (m *alertMetrics) recordCapsuleEvent(componentName string, event types.CapsuleEvent) {
	if m == nil {
		return
	}
	m.capsuleEvents.WithLabelValues(componentName, string(event.Type)).Inc()
	switch event.Type {
	case types.EventCapsuleNew:
		m.capsulesActive.WithLabelValues(componentName).Inc()
	case types.EventCapsuleRemoved:
		m.capsulesActive.WithLabelValues(componentName).Dec()
	}
}

// metricsSink feeds capsule lifecycle events into the processor's metrics.
// Registered as the first sink so the gauge tracks the store exactly.
type metricsSink struct {
	metrics *alertMetrics
	name    string
}

// OnCapsuleEvent implements EventSink.
func (s *metricsSink) OnCapsuleEvent(event types.CapsuleEvent) {
	s.metrics.recordCapsuleEvent(s.name, event)
}
