package natsclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/industriverse/capstream/metric"
)

// Test basic client creation
func TestNewClient(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	assert.NotNil(t, client)
	assert.Equal(t, "nats://localhost:4222", client.URL())
	assert.Equal(t, StatusDisconnected, client.Status())
	assert.False(t, client.IsHealthy())
	assert.Equal(t, int32(0), client.Failures())
	assert.Equal(t, time.Second, client.Backoff())
}

// Test option application
func TestNewClient_Options(t *testing.T) {
	client, err := NewClient("nats://localhost:4222",
		WithMaxReconnects(3),
		WithReconnectWait(time.Second),
		WithCircuitBreakerThreshold(2),
		WithMaxBackoff(5*time.Second),
		WithName("capstream-test"),
	)
	require.NoError(t, err)

	assert.Equal(t, 3, client.MaxReconnects())
	assert.Equal(t, time.Second, client.ReconnectWait())
	assert.Equal(t, int32(2), client.circuitThreshold)
	assert.Equal(t, 5*time.Second, client.maxBackoff)
	assert.Equal(t, "capstream-test", client.clientName)
}

// Test options guard against nonsense values
func TestNewClient_OptionDefaults(t *testing.T) {
	client, err := NewClient("nats://localhost:4222",
		WithCircuitBreakerThreshold(0),
		WithMaxBackoff(time.Millisecond),
	)
	require.NoError(t, err)

	assert.Equal(t, int32(5), client.circuitThreshold)
	assert.Equal(t, time.Minute, client.maxBackoff)
}

func TestConnectionStatus_String(t *testing.T) {
	tests := []struct {
		status ConnectionStatus
		want   string
	}{
		{StatusDisconnected, "disconnected"},
		{StatusConnecting, "connecting"},
		{StatusConnected, "connected"},
		{StatusReconnecting, "reconnecting"},
		{StatusCircuitOpen, "circuit_open"},
		{ConnectionStatus(42), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.String())
	}
}

// Test circuit breaker opens after threshold failures
func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	client, err := NewClient("nats://invalid:4222")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		client.recordFailure()
	}
	assert.NotEqual(t, StatusCircuitOpen, client.Status())

	client.recordFailure()
	assert.Equal(t, StatusCircuitOpen, client.Status())
	assert.Equal(t, int32(5), client.Failures())
}

// Test circuit breaker reset clears failure state
func TestCircuitBreaker_Reset(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		client.recordFailure()
	}
	require.Equal(t, StatusCircuitOpen, client.Status())

	client.resetCircuit()

	assert.Equal(t, int32(0), client.Failures())
	assert.Equal(t, time.Second, client.Backoff())
	assert.Equal(t, StatusDisconnected, client.Status())
}

// Test backoff doubles per circuit round and caps at max
func TestCircuitBreaker_BackoffGrowth(t *testing.T) {
	client, err := NewClient("nats://invalid:4222",
		WithCircuitBreakerThreshold(1),
		WithMaxBackoff(4*time.Second),
	)
	require.NoError(t, err)

	client.recordFailure() // opens circuit, backoff 1s -> 2s
	assert.Equal(t, 2*time.Second, client.Backoff())

	client.recordFailure() // still open, 2s -> 4s
	assert.Equal(t, 4*time.Second, client.Backoff())

	client.recordFailure() // capped at 4s
	assert.Equal(t, 4*time.Second, client.Backoff())
}

// Test Connect refuses while the circuit is open
func TestConnect_CircuitOpen(t *testing.T) {
	client, err := NewClient("nats://invalid:4222")
	require.NoError(t, err)

	client.setStatus(StatusCircuitOpen)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err = client.Connect(ctx)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

// Test operations without a connection return ErrNotConnected
func TestOperations_NotConnected(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	ctx := context.Background()

	assert.ErrorIs(t, client.Publish(ctx, "test.subject", []byte("data")), ErrNotConnected)
	assert.ErrorIs(t, client.Subscribe(ctx, "test.subject", func(context.Context, []byte) {}), ErrNotConnected)
	assert.ErrorIs(t, client.QueueSubscribe(ctx, "test.subject", "q", func(context.Context, []byte) {}), ErrNotConnected)

	_, err = client.Request(ctx, "test.subject", nil)
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = client.RTT()
	assert.ErrorIs(t, err, ErrNotConnected)

	assert.ErrorIs(t, client.Flush(ctx), ErrNotConnected)
}

// Test WaitForConnection times out when never connected
func TestWaitForConnection_Timeout(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = client.WaitForConnection(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// Test status snapshot fields
func TestGetStatus(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	client.recordFailure()
	status := client.GetStatus()

	assert.Equal(t, StatusDisconnected, status.Status)
	assert.Equal(t, int32(1), status.FailureCount)
	assert.False(t, status.LastFailureTime.IsZero())
}

// Test Close is idempotent without a connection
func TestClose_Idempotent(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	ctx := context.Background()
	assert.NoError(t, client.Close(ctx))
	assert.NoError(t, client.Close(ctx))
	assert.Equal(t, StatusDisconnected, client.Status())
}

// Test metrics option accepts a registry and tolerates nil
func TestWithMetrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()

	client, err := NewClient("nats://localhost:4222", WithMetrics(registry))
	require.NoError(t, err)
	assert.NotNil(t, client.coreMetrics)

	client, err = NewClient("nats://localhost:4222", WithMetrics(nil))
	require.NoError(t, err)
	assert.Nil(t, client.coreMetrics)

	// Circuit state updates flow into the gauge without panicking.
	client, err = NewClient("nats://localhost:4222",
		WithMetrics(registry), WithCircuitBreakerThreshold(1))
	require.NoError(t, err)
	client.recordFailure()
	client.resetCircuit()
}
