//go:build integration

package natsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startNATSContainer starts a plain NATS server container and returns it
// with its client URL.
func startNATSContainer(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "nats:2.11.7-alpine",
		ExposedPorts: []string{"4222/tcp"},
		Cmd:          []string{"--port", "4222"},
		WaitingFor:   wait.ForListeningPort("4222/tcp"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "4222")
	require.NoError(t, err)

	return container, fmt.Sprintf("nats://%s:%s", host, port.Port())
}

// TestIntegration_ConnectToRealNATS tests connection against a real server
func TestIntegration_ConnectToRealNATS(t *testing.T) {
	ctx := context.Background()

	natsContainer, natsURL := startNATSContainer(ctx, t)
	defer natsContainer.Terminate(ctx)

	client, err := NewClient(natsURL)
	require.NoError(t, err)
	require.NoError(t, client.Connect(ctx))
	defer client.Close(ctx)

	assert.True(t, client.IsHealthy())
	assert.Equal(t, StatusConnected, client.Status())

	rtt, err := client.RTT()
	assert.NoError(t, err)
	assert.Greater(t, rtt, time.Duration(0))
}

// TestIntegration_PublishSubscribe tests a pub/sub round trip
func TestIntegration_PublishSubscribe(t *testing.T) {
	tc := NewTestClient(t)
	ctx := context.Background()

	received := make(chan []byte, 1)
	require.NoError(t, tc.Client.Subscribe(ctx, "telemetry.readings.raw", func(_ context.Context, data []byte) {
		received <- data
	}))

	payload, _ := json.Marshal(map[string]any{
		"sourceId":  "server-1",
		"metrics":   map[string]any{"cpu": 91.5},
		"timestamp": time.Now().UnixMilli(),
	})
	require.NoError(t, tc.Client.Publish(ctx, "telemetry.readings.raw", payload))
	require.NoError(t, tc.Client.Flush(ctx))

	select {
	case data := <-received:
		assert.JSONEq(t, string(payload), string(data))
	case <-time.After(5 * time.Second):
		t.Fatal("reading not received")
	}
}

// TestIntegration_QueueSubscribe tests queue group delivery splits traffic
func TestIntegration_QueueSubscribe(t *testing.T) {
	tc := NewTestClient(t)
	ctx := context.Background()

	var a, b atomic.Int32
	require.NoError(t, tc.Client.QueueSubscribe(ctx, "telemetry.readings.raw", "evaluators",
		func(_ context.Context, _ []byte) { a.Add(1) }))
	require.NoError(t, tc.Client.QueueSubscribe(ctx, "telemetry.readings.raw", "evaluators",
		func(_ context.Context, _ []byte) { b.Add(1) }))

	const total = 20
	for i := 0; i < total; i++ {
		require.NoError(t, tc.Client.Publish(ctx, "telemetry.readings.raw", []byte("{}")))
	}
	require.NoError(t, tc.Client.Flush(ctx))

	require.Eventually(t, func() bool {
		return a.Load()+b.Load() == total
	}, 5*time.Second, 50*time.Millisecond)

	// Each message went to exactly one member of the group.
	assert.Equal(t, int32(total), a.Load()+b.Load())
}

// TestIntegration_RequestReply tests the request path used for actions
func TestIntegration_RequestReply(t *testing.T) {
	tc := NewTestClient(t)
	ctx := context.Background()

	require.NoError(t, tc.Client.SubscribeReply(ctx, "capsules.actions.execute",
		func(_ context.Context, data []byte) []byte {
			return append([]byte(`{"ok":true,"echo":`), append(data, '}')...)
		}))
	require.NoError(t, tc.Client.Flush(ctx))

	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	reply, err := tc.Client.Request(reqCtx, "capsules.actions.execute", []byte(`"acknowledge"`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"echo":"acknowledge"}`, string(reply))
}

// TestIntegration_RequestNoResponder tests request failure with no handler
func TestIntegration_RequestNoResponder(t *testing.T) {
	tc := NewTestClient(t)

	reqCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := tc.Client.Request(reqCtx, "capsules.actions.nobody-home", []byte("{}"))
	require.Error(t, err)
}

// TestIntegration_CloseDrains tests Close unsubscribes and disconnects
func TestIntegration_CloseDrains(t *testing.T) {
	ctx := context.Background()

	natsContainer, natsURL := startNATSContainer(ctx, t)
	defer natsContainer.Terminate(ctx)

	client, err := NewClient(natsURL, WithHealthInterval(0))
	require.NoError(t, err)
	require.NoError(t, client.Connect(ctx))

	require.NoError(t, client.Subscribe(ctx, "capsules.events.created", func(context.Context, []byte) {}))

	closeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	require.NoError(t, client.Close(closeCtx))

	assert.False(t, client.IsHealthy())
	assert.Nil(t, client.GetConnection())
}
