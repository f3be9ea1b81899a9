// Package metric provides Prometheus-based metrics collection for pipeline
// monitoring and observability.
//
// The package offers a centralized metrics registry managing both core
// pipeline metrics (component status, message processing, NATS health) and
// custom component-specific metrics. The registry's Handler method exposes
// everything in Prometheus exposition format; the admin gateway mounts it at
// /metrics, so there is no standalone metrics server.
//
// # Architecture
//
// The package follows a two-layer design:
//
//  1. Core Metrics: Pipeline-level metrics automatically registered (Metrics type)
//  2. Component Registry: Extensible registration for component-specific metrics (MetricsRegistrar interface)
//
// This separates infrastructure concerns (core metrics) from domain concerns
// (capsule counts, gateway connections), while keeping a single scrape
// endpoint for monitoring systems.
//
// # Basic Usage
//
// Setting up metrics collection:
//
//	registry := metric.NewMetricsRegistry()
//
//	// Record core pipeline metrics
//	coreMetrics := registry.CoreMetrics()
//	coreMetrics.RecordComponentStatus("alert-processor", 2)
//	coreMetrics.RecordMessageReceived("udp-ingest", "reading")
//	coreMetrics.RecordNATSStatus(true)
//
//	// Expose through any HTTP mux
//	mux.Handle("/metrics", registry.Handler())
//
// # Core Metrics
//
// The registry automatically tracks:
//
//   - Component lifecycle: component_status (0=stopped, 1=starting, 2=running, 3=stopping, 4=failed)
//   - Message flow: messages_received_total, messages_processed_total, messages_published_total
//   - Processing performance: processing_duration_seconds
//   - Error tracking: errors_total by component and type
//   - NATS connectivity: nats_connected, nats_rtt_milliseconds, nats_reconnects_total, nats_circuit_breaker
//
// All series live under the "capstream" namespace. Go runtime and process
// collectors are included.
//
// # Component-Specific Metrics
//
// Components register their own domain series through the MetricsRegistrar
// interface, keyed by "component.metric" to detect duplicates:
//
//	capsulesActive := prometheus.NewGauge(prometheus.GaugeOpts{
//	    Namespace: "capstream",
//	    Name:      "capsules_active",
//	    Help:      "Number of capsules currently in the active set",
//	})
//	if err := registry.RegisterGauge("alert-processor", "capsules_active", capsulesActive); err != nil {
//	    return err
//	}
//
// The alert processor registers capsule lifecycle counters this way; the
// websocket gateway registers connection, broadcast and eviction series.
// Components unregister their metrics on Stop so a restart re-registers
// cleanly.
//
// # Thread Safety
//
// Registration and unregistration are guarded by an internal mutex and safe
// for concurrent use. Recording through prometheus collectors is lock-free in
// the client library itself.
package metric
