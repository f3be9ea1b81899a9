package metric

import (
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()

	assert.NotNil(t, registry)
	assert.NotNil(t, registry.PrometheusRegistry())
}

func gatherNames(t *testing.T, registry *MetricsRegistry) map[string]bool {
	t.Helper()
	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(metricFamilies))
	for _, mf := range metricFamilies {
		names[mf.GetName()] = true
	}
	return names
}

func TestMetricsRegistry_RegisterCounter(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_counter",
		Help: "A test counter",
	})

	err := registry.RegisterCounter("alert-processor", "test_counter", counter)
	require.NoError(t, err)

	counter.Inc()

	assert.True(t, gatherNames(t, registry)["test_counter"],
		"Counter should be registered in Prometheus registry")
}

func TestMetricsRegistry_RegisterGauge(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_gauge",
		Help: "A test gauge",
	})

	err := registry.RegisterGauge("websocket-gateway", "test_gauge", gauge)
	require.NoError(t, err)

	gauge.Set(42.0)

	assert.True(t, gatherNames(t, registry)["test_gauge"],
		"Gauge should be registered in Prometheus registry")
}

func TestMetricsRegistry_RegisterHistogram(t *testing.T) {
	registry := NewMetricsRegistry()

	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_histogram",
		Help:    "A test histogram",
		Buckets: prometheus.DefBuckets,
	})

	err := registry.RegisterHistogram("alert-processor", "test_histogram", histogram)
	require.NoError(t, err)

	histogram.Observe(1.5)

	assert.True(t, gatherNames(t, registry)["test_histogram"],
		"Histogram should be registered in Prometheus registry")
}

func TestMetricsRegistry_PreventDuplicateRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	counter1 := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "duplicate_counter",
		Help: "First counter",
	})

	counter2 := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "duplicate_counter",
		Help: "First counter", // Same help to avoid Prometheus validation error
	})

	// First registration should succeed
	err := registry.RegisterCounter("component1", "duplicate_counter", counter1)
	require.NoError(t, err)

	// Same component+metric key is caught by the registry itself
	err = registry.RegisterCounter("component1", "duplicate_counter", counter1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate metric registration")

	// Different key but colliding Prometheus name is caught downstream
	err = registry.RegisterCounter("component2", "duplicate_counter", counter2)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "prometheus conflict")
}

func TestMetricsRegistry_UnregisterMetric(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "unregister_counter",
		Help: "A counter to unregister",
	})

	err := registry.RegisterCounter("alert-processor", "unregister_counter", counter)
	require.NoError(t, err)
	assert.True(t, gatherNames(t, registry)["unregister_counter"])

	success := registry.Unregister("alert-processor", "unregister_counter")
	assert.True(t, success)
	assert.False(t, gatherNames(t, registry)["unregister_counter"])

	// Unregistering again reports failure
	assert.False(t, registry.Unregister("alert-processor", "unregister_counter"))
}

func TestMetricsRegistry_ThreadSafety(t *testing.T) {
	registry := NewMetricsRegistry()

	var wg sync.WaitGroup
	numGoroutines := 10

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			counter := prometheus.NewCounter(prometheus.CounterOpts{
				Name: fmt.Sprintf("concurrent_counter_%d", id),
				Help: "A concurrent counter",
			})

			err := registry.RegisterCounter("concurrent-component",
				fmt.Sprintf("concurrent_counter_%d", id), counter)
			assert.NoError(t, err)
		}(i)
	}

	wg.Wait()

	counterCount := 0
	for name := range gatherNames(t, registry) {
		if strings.HasPrefix(name, "concurrent_counter_") {
			counterCount++
		}
	}

	assert.Equal(t, numGoroutines, counterCount,
		"All concurrent counters should be registered")
}

func TestMetricsRegistrar_Interface(t *testing.T) {
	registry := NewMetricsRegistry()

	var registrar MetricsRegistrar = registry
	assert.NotNil(t, registrar)

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "interface_counter",
		Help: "Counter registered through interface",
	})

	err := registrar.RegisterCounter("interface-component", "interface_counter", counter)
	require.NoError(t, err)
}

func TestMetricsRegistry_CoreMetricsInitialization(t *testing.T) {
	registry := NewMetricsRegistry()

	// Vector metrics don't appear in Gather() until they have at least one
	// value set, so record through the core metrics first
	coreMetrics := registry.CoreMetrics()

	coreMetrics.RecordComponentStatus("alert-processor", 2)
	coreMetrics.RecordMessageReceived("udp-ingest", "reading")
	coreMetrics.RecordMessageProcessed("alert-processor", "reading", "success")
	coreMetrics.RecordMessagePublished("alert-processor", "capsules.events.capsule_new")
	coreMetrics.RecordProcessingDuration("alert-processor", "evaluate", 100*time.Millisecond)
	coreMetrics.RecordError("websocket-gateway", "transport")
	coreMetrics.RecordHealthStatus("websocket-gateway", true)

	expectedCoreMetrics := []string{
		"capstream_component_status",
		"capstream_messages_received_total",
		"capstream_messages_processed_total",
		"capstream_messages_published_total",
		"capstream_processing_duration_seconds",
		"capstream_errors_total",
		"capstream_health_status",
		"capstream_nats_connected",
		"capstream_nats_rtt_milliseconds",
		"capstream_nats_reconnects_total",
		"capstream_nats_circuit_breaker",
	}

	foundMetrics := gatherNames(t, registry)
	for _, expectedMetric := range expectedCoreMetrics {
		assert.True(t, foundMetrics[expectedMetric],
			"core metric %s should be initialized", expectedMetric)
	}
}

func TestMetricsRegistry_NoDomainMetricsInCore(t *testing.T) {
	registry := NewMetricsRegistry()

	// Domain series belong to the owning component, not the core registry
	domainMetrics := []string{
		"capstream_capsules_active",
		"capstream_capsules_created_total",
		"capstream_gateway_connections",
		"capstream_gateway_heartbeat_evictions_total",
	}

	foundMetrics := gatherNames(t, registry)
	for _, domainMetric := range domainMetrics {
		assert.False(t, foundMetrics[domainMetric],
			"Domain metric %s should NOT be in core registry", domainMetric)
	}
}

func TestMetricsRegistry_GetCoreMetrics(t *testing.T) {
	registry := NewMetricsRegistry()

	coreMetrics := registry.CoreMetrics()
	assert.NotNil(t, coreMetrics)

	assert.NotNil(t, coreMetrics.ComponentStatus)
	assert.NotNil(t, coreMetrics.MessagesReceived)
	assert.NotNil(t, coreMetrics.MessagesProcessed)
	assert.NotNil(t, coreMetrics.MessagesPublished)
	assert.NotNil(t, coreMetrics.ProcessingDuration)
	assert.NotNil(t, coreMetrics.ErrorsTotal)
	assert.NotNil(t, coreMetrics.HealthCheckStatus)
	assert.NotNil(t, coreMetrics.NATSConnected)
	assert.NotNil(t, coreMetrics.NATSRTT)
	assert.NotNil(t, coreMetrics.NATSReconnects)
	assert.NotNil(t, coreMetrics.NATSCircuitBreaker)
}

func TestCoreMetrics_RecordMethods(t *testing.T) {
	registry := NewMetricsRegistry()
	coreMetrics := registry.CoreMetrics()

	coreMetrics.RecordComponentStatus("alert-processor", 2)
	coreMetrics.RecordMessageReceived("udp-ingest", "reading")
	coreMetrics.RecordMessageProcessed("alert-processor", "reading", "success")
	coreMetrics.RecordMessagePublished("alert-processor", "capsules.events.capsule_new")
	coreMetrics.RecordProcessingDuration("alert-processor", "evaluate", 100*time.Millisecond)
	coreMetrics.RecordError("websocket-gateway", "transport")
	coreMetrics.RecordHealthStatus("websocket-gateway", true)

	coreMetrics.RecordNATSStatus(true)
	coreMetrics.RecordNATSRTT(50 * time.Millisecond)
	coreMetrics.RecordNATSReconnect()
	coreMetrics.RecordCircuitBreakerState(0)

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)
	assert.Greater(t, len(metricFamilies), 0, "Should have recorded metrics")
}

func TestMetricsRegistry_Handler(t *testing.T) {
	registry := NewMetricsRegistry()
	registry.CoreMetrics().RecordNATSStatus(true)

	server := httptest.NewServer(registry.Handler())
	defer server.Close()

	resp, err := server.Client().Get(server.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, 200, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "capstream_nats_connected")
}
