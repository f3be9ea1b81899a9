//go:build integration

package alert

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/industriverse/capstream/component"
	"github.com/industriverse/capstream/config"
	"github.com/industriverse/capstream/errors"
	"github.com/industriverse/capstream/natsclient"
	"github.com/industriverse/capstream/types"
)

// sharedNATS is one NATS container for the whole package run; the tests use
// disjoint subjects so they can share it.
var sharedNATS *natsclient.TestClient

func TestMain(m *testing.M) {
	tc, err := natsclient.NewSharedTestClient()
	if err != nil {
		log.Fatalf("failed to start shared NATS container: %v", err)
	}
	sharedNATS = tc

	code := m.Run()
	_ = tc.Terminate()
	os.Exit(code)
}

// TestIntegration_ReadingToCapsulePipeline publishes a raw reading and waits
// for the mirrored capsule_new event on the capsule event stream.
func TestIntegration_ReadingToCapsulePipeline(t *testing.T) {
	tc := sharedNATS
	ctx := context.Background()

	registry := NewRuleRegistry()
	manager := NewCapsuleManager(testLogger())
	require.NoError(t, registry.Add(testRule("rule-1")))

	cfg := config.ProcessorConfig{
		Subject:             "telemetry.readings.raw",
		Workers:             1,
		QueueSize:           64,
		HistorySize:         100,
		PublishEvents:       true,
		EventsSubjectPrefix: "capsules.events",
	}
	p, err := NewProcessor(cfg, registry, manager, component.Dependencies{
		NATSClient: tc.Client,
		Logger:     testLogger(),
	})
	require.NoError(t, err)

	require.NoError(t, p.Start(ctx))
	defer func() { _ = p.Stop(5 * time.Second) }()

	events := make(chan types.CapsuleEvent, 8)
	require.NoError(t, tc.Client.Subscribe(ctx, "capsules.events.capsule_new", func(_ context.Context, data []byte) {
		var event types.CapsuleEvent
		if json.Unmarshal(data, &event) == nil {
			events <- event
		}
	}))
	require.NoError(t, tc.Client.Flush(ctx))

	reading := []byte(`{"sourceId":"motor_001","metrics":{"temperature":92.5},"timestamp":1700000000000}`)
	require.NoError(t, tc.Client.Publish(ctx, "telemetry.readings.raw", reading))

	select {
	case event := <-events:
		assert.Equal(t, types.EventCapsuleNew, event.Type)
		require.NotNil(t, event.Capsule)
		assert.Equal(t, 92.5, event.Capsule.Metrics["temperature"])
		assert.Equal(t, "rule-1", event.Capsule.Metadata.RuleID)
	case <-time.After(5 * time.Second):
		t.Fatal("capsule event was not published")
	}

	require.Len(t, manager.ListActive(), 1)
	assert.Len(t, p.History().Last("motor_001", 0), 1)
}

// TestIntegration_ActionForwarding round-trips an action through a fake
// executor subscribed on the action subject.
func TestIntegration_ActionForwarding(t *testing.T) {
	tc := sharedNATS
	ctx := context.Background()

	// The executor accepts mitigate and rejects everything else.
	require.NoError(t, tc.Client.SubscribeReply(ctx, "capsules.actions.execute", func(_ context.Context, data []byte) []byte {
		var req ActionRequest
		if err := json.Unmarshal(data, &req); err != nil || req.Action != "mitigate" {
			out, _ := json.Marshal(ActionReply{OK: false, Error: "downstream unavailable"})
			return out
		}
		out, _ := json.Marshal(ActionReply{OK: true})
		return out
	}))
	require.NoError(t, tc.Client.Flush(ctx))

	forwarder := NewNATSActionForwarder(tc.Client, "capsules.actions.execute", 2*time.Second, testLogger())

	require.NoError(t, forwarder.PerformAction(ctx, "capsule-1", "mitigate", map[string]any{"level": 2}))

	err := forwarder.PerformAction(ctx, "capsule-1", "purge", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "downstream unavailable")
}

func TestIntegration_ActionNoResponder(t *testing.T) {
	forwarder := NewNATSActionForwarder(sharedNATS.Client, "capsules.actions.nobody", time.Second, testLogger())

	err := forwarder.PerformAction(context.Background(), "capsule-1", "mitigate", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoHandler)
}
