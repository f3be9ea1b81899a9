package websocket

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/industriverse/capstream/component"
	"github.com/industriverse/capstream/config"
	"github.com/industriverse/capstream/errors"
	"github.com/industriverse/capstream/pkg/timestamp"
	"github.com/industriverse/capstream/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore stands in for the capsule manager: a settable active list and a
// recorder for relayed actions.
type fakeStore struct {
	mu        sync.Mutex
	active    []*types.Capsule
	actionErr error
	calls     []storeAction
}

type storeAction struct {
	capsuleID string
	action    string
	metadata  map[string]any
}

func (f *fakeStore) ListActive() []*types.Capsule {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*types.Capsule, len(f.active))
	copy(out, f.active)
	return out
}

func (f *fakeStore) PerformAction(_ context.Context, capsuleID, action string, metadata map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, storeAction{capsuleID: capsuleID, action: action, metadata: metadata})
	return f.actionErr
}

func (f *fakeStore) setActive(capsules ...*types.Capsule) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = capsules
}

func (f *fakeStore) setActionErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actionErr = err
}

func (f *fakeStore) recorded() []storeAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]storeAction, len(f.calls))
	copy(out, f.calls)
	return out
}

func newTestGateway(t *testing.T, mutate func(*config.GatewayConfig)) (*Gateway, *fakeStore) {
	t.Helper()

	cfg := config.GatewayConfig{
		ListenAddr:        "127.0.0.1:0",
		Path:              "/ws",
		HeartbeatInterval: config.Duration(50 * time.Millisecond),
		HeartbeatTimeout:  config.Duration(10 * time.Second),
		SendQueueSize:     64,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	store := &fakeStore{}
	g, err := NewGateway(cfg, store, component.Dependencies{Logger: testLogger()})
	require.NoError(t, err)
	require.NoError(t, g.Start(context.Background()))
	t.Cleanup(func() {
		_ = g.Stop(2 * time.Second)
	})
	return g, store
}

func dialGateway(t *testing.T, g *Gateway) *websocket.Conn {
	t.Helper()
	conn, err := dialGatewayHeader(g, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func dialGatewayHeader(g *Gateway, header http.Header) (*websocket.Conn, error) {
	u := url.URL{Scheme: "ws", Host: g.Addr(), Path: g.cfg.Path}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), header)
	if resp != nil && resp.Body != nil && err != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

func sendClientMessage(t *testing.T, conn *websocket.Conn, msg clientMessage) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func readServerMessage(t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg serverMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

// awaitConnected consumes the greeting that opens every connection.
func awaitConnected(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	msg := readServerMessage(t, conn)
	require.Equal(t, msgConnected, msg.Type)
	require.NotEmpty(t, msg.ConnectionID)
	require.Positive(t, msg.Timestamp)
	return msg.ConnectionID
}

func mustSubscribe(t *testing.T, conn *websocket.Conn, ids ...string) serverMessage {
	t.Helper()
	sendClientMessage(t, conn, clientMessage{Type: msgSubscribe, CapsuleIDs: ids})
	msg := readServerMessage(t, conn)
	require.Equal(t, msgSubscribed, msg.Type)
	return msg
}

func testCapsule(id string) *types.Capsule {
	now := timestamp.Now()
	return &types.Capsule{
		ID:        id,
		Title:     "Temperature 85 on motor_001",
		Status:    types.StatusCritical,
		Category:  "thermal",
		CreatedAt: now,
		UpdatedAt: now,
		Actions:   []string{"resolve", "dismiss"},
		Metrics:   map[string]float64{"temperature": 85},
		Metadata: types.CapsuleMetadata{
			RuleID:   "rule-" + id,
			RuleName: "High Temperature",
			SourceID: "motor_001",
		},
	}
}

func newEvent(capsule *types.Capsule) types.CapsuleEvent {
	return types.CapsuleEvent{
		Type:      types.EventCapsuleNew,
		CapsuleID: capsule.ID,
		Capsule:   capsule,
		Timestamp: capsule.CreatedAt,
	}
}

func updateEvent(capsuleID string, updatedAt int64) types.CapsuleEvent {
	return types.CapsuleEvent{
		Type:      types.EventCapsuleUpdate,
		CapsuleID: capsuleID,
		Updates: &types.CapsuleUpdate{
			Metrics:   map[string]float64{"temperature": 90},
			UpdatedAt: updatedAt,
		},
		Timestamp: updatedAt,
	}
}

func removedEvent(capsuleID string) types.CapsuleEvent {
	return types.CapsuleEvent{
		Type:      types.EventCapsuleRemoved,
		CapsuleID: capsuleID,
		Timestamp: timestamp.Now(),
	}
}

func TestNewGateway_RequiresListenAddr(t *testing.T) {
	_, err := NewGateway(config.GatewayConfig{}, &fakeStore{}, component.Dependencies{Logger: testLogger()})
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestNewGateway_RequiresStore(t *testing.T) {
	_, err := NewGateway(config.GatewayConfig{ListenAddr: "127.0.0.1:0"}, nil, component.Dependencies{Logger: testLogger()})
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestGateway_ConnectedGreeting(t *testing.T) {
	g, _ := newTestGateway(t, nil)

	conn := dialGateway(t, g)
	id := awaitConnected(t, conn)
	assert.NotEmpty(t, id)
}

func TestGateway_SubscribeAllStreamsEvents(t *testing.T) {
	g, _ := newTestGateway(t, nil)

	conn := dialGateway(t, g)
	awaitConnected(t, conn)

	reply := mustSubscribe(t, conn, subscribeAll)
	assert.Empty(t, reply.Capsules)

	g.OnCapsuleEvent(newEvent(testCapsule("cap-1")))

	msg := readServerMessage(t, conn)
	assert.Equal(t, "capsule_new", msg.Type)
	require.NotNil(t, msg.Capsule)
	assert.Equal(t, "cap-1", msg.Capsule.ID)
	assert.Equal(t, "Temperature 85 on motor_001", msg.Capsule.Title)
	// The new message carries the capsule object, not a top-level ID.
	assert.Empty(t, msg.CapsuleID)
}

func TestGateway_SubscribedSnapshot(t *testing.T) {
	g, store := newTestGateway(t, nil)
	store.setActive(testCapsule("cap-1"), testCapsule("cap-2"))

	firehose := dialGateway(t, g)
	awaitConnected(t, firehose)
	reply := mustSubscribe(t, firehose, subscribeAll)
	assert.Len(t, reply.Capsules, 2)

	specific := dialGateway(t, g)
	awaitConnected(t, specific)
	reply = mustSubscribe(t, specific, "cap-1")
	require.Len(t, reply.Capsules, 1)
	assert.Equal(t, "cap-1", reply.Capsules[0].ID)
	assert.Equal(t, []string{"cap-1"}, reply.CapsuleIDs)

	// Subscribing to a capsule that is not active yields an empty snapshot,
	// not an error: the ID may become active later.
	unknown := dialGateway(t, g)
	awaitConnected(t, unknown)
	reply = mustSubscribe(t, unknown, "cap-99")
	assert.Empty(t, reply.Capsules)
}

func TestGateway_SpecificFilterExcludesOthers(t *testing.T) {
	g, _ := newTestGateway(t, nil)

	conn := dialGateway(t, g)
	awaitConnected(t, conn)
	mustSubscribe(t, conn, "cap-1")

	g.OnCapsuleEvent(updateEvent("cap-2", 100))
	g.OnCapsuleEvent(updateEvent("cap-1", 200))

	// The cap-2 update was filtered out, so the next frame is cap-1's.
	msg := readServerMessage(t, conn)
	assert.Equal(t, "capsule_update", msg.Type)
	assert.Equal(t, "cap-1", msg.CapsuleID)
	require.NotNil(t, msg.Updates)
	assert.Equal(t, int64(200), msg.Updates.UpdatedAt)
}

func TestGateway_CapsuleNewReachesFirehoseOnly(t *testing.T) {
	g, _ := newTestGateway(t, nil)

	firehose := dialGateway(t, g)
	awaitConnected(t, firehose)
	mustSubscribe(t, firehose, subscribeAll)

	specific := dialGateway(t, g)
	awaitConnected(t, specific)
	mustSubscribe(t, specific, "cap-1")

	g.OnCapsuleEvent(newEvent(testCapsule("cap-9")))
	g.OnCapsuleEvent(updateEvent("cap-1", 300))

	msg := readServerMessage(t, firehose)
	assert.Equal(t, "capsule_new", msg.Type)
	require.NotNil(t, msg.Capsule)
	assert.Equal(t, "cap-9", msg.Capsule.ID)

	// The specific subscriber never saw cap-9: its next frame is the
	// cap-1 update.
	msg = readServerMessage(t, specific)
	assert.Equal(t, "capsule_update", msg.Type)
	assert.Equal(t, "cap-1", msg.CapsuleID)
}

func TestGateway_UnsubscribeStopsDelivery(t *testing.T) {
	g, _ := newTestGateway(t, nil)

	conn := dialGateway(t, g)
	awaitConnected(t, conn)
	mustSubscribe(t, conn, subscribeAll)

	sendClientMessage(t, conn, clientMessage{Type: msgUnsubscribe, CapsuleIDs: []string{subscribeAll}})
	msg := readServerMessage(t, conn)
	require.Equal(t, msgUnsubscribed, msg.Type)

	g.OnCapsuleEvent(updateEvent("cap-1", 400))

	// If the update had been delivered it would arrive before the
	// heartbeat reply.
	sendClientMessage(t, conn, clientMessage{Type: msgHeartbeat, Timestamp: timestamp.Now()})
	msg = readServerMessage(t, conn)
	assert.Equal(t, msgHeartbeat, msg.Type)
}

func TestGateway_PartialUnsubscribe(t *testing.T) {
	g, _ := newTestGateway(t, nil)

	conn := dialGateway(t, g)
	awaitConnected(t, conn)
	mustSubscribe(t, conn, "cap-1", "cap-2")

	sendClientMessage(t, conn, clientMessage{Type: msgUnsubscribe, CapsuleIDs: []string{"cap-1"}})
	msg := readServerMessage(t, conn)
	require.Equal(t, msgUnsubscribed, msg.Type)

	g.OnCapsuleEvent(updateEvent("cap-1", 500))
	g.OnCapsuleEvent(updateEvent("cap-2", 600))

	msg = readServerMessage(t, conn)
	assert.Equal(t, "capsule_update", msg.Type)
	assert.Equal(t, "cap-2", msg.CapsuleID)
}

func TestGateway_HeartbeatReply(t *testing.T) {
	g, _ := newTestGateway(t, nil)

	conn := dialGateway(t, g)
	awaitConnected(t, conn)

	sendClientMessage(t, conn, clientMessage{Type: msgHeartbeat, Timestamp: timestamp.Now()})
	msg := readServerMessage(t, conn)
	assert.Equal(t, msgHeartbeat, msg.Type)
	assert.Positive(t, msg.Timestamp)
}

func TestGateway_ActionSuccess(t *testing.T) {
	g, store := newTestGateway(t, nil)

	conn := dialGateway(t, g)
	awaitConnected(t, conn)

	sendClientMessage(t, conn, clientMessage{
		Type:      msgAction,
		CapsuleID: "cap-1",
		Action:    "mitigate",
		Metadata:  map[string]any{"operator": "casey"},
	})

	msg := readServerMessage(t, conn)
	assert.Equal(t, msgActionSuccess, msg.Type)
	assert.Equal(t, "cap-1", msg.CapsuleID)
	assert.Equal(t, "mitigate", msg.Action)

	calls := store.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "cap-1", calls[0].capsuleID)
	assert.Equal(t, "mitigate", calls[0].action)
	assert.Equal(t, "casey", calls[0].metadata["operator"])

	stats := g.Stats()
	assert.Equal(t, int64(1), stats.ActionsRelayed)
	assert.Equal(t, int64(0), stats.ActionsFailed)
}

func TestGateway_ActionFailureGoesToActorOnly(t *testing.T) {
	g, store := newTestGateway(t, nil)
	store.setActionErr(stderrors.New("downstream unavailable"))

	actor := dialGateway(t, g)
	awaitConnected(t, actor)
	mustSubscribe(t, actor, subscribeAll)

	bystander := dialGateway(t, g)
	awaitConnected(t, bystander)
	mustSubscribe(t, bystander, subscribeAll)

	sendClientMessage(t, actor, clientMessage{Type: msgAction, CapsuleID: "cap-1", Action: "mitigate"})

	msg := readServerMessage(t, actor)
	assert.Equal(t, msgActionFailed, msg.Type)
	assert.Equal(t, "cap-1", msg.CapsuleID)
	assert.Equal(t, "mitigate", msg.Action)
	assert.Contains(t, msg.Error, "downstream unavailable")

	// The bystander sees only broadcast events, never the failure.
	g.OnCapsuleEvent(updateEvent("cap-1", 700))
	msg = readServerMessage(t, bystander)
	assert.Equal(t, "capsule_update", msg.Type)

	assert.Equal(t, int64(1), g.Stats().ActionsFailed)
}

func TestGateway_InvalidMessagesGetErrorReplies(t *testing.T) {
	g, _ := newTestGateway(t, nil)

	conn := dialGateway(t, g)
	awaitConnected(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg := readServerMessage(t, conn)
	assert.Equal(t, msgError, msg.Type)
	assert.NotEmpty(t, msg.Message)

	sendClientMessage(t, conn, clientMessage{Type: "frobnicate"})
	msg = readServerMessage(t, conn)
	assert.Equal(t, msgError, msg.Type)
	assert.Contains(t, msg.Message, "frobnicate")

	sendClientMessage(t, conn, clientMessage{Type: msgSubscribe})
	msg = readServerMessage(t, conn)
	assert.Equal(t, msgError, msg.Type)
	assert.Contains(t, msg.Message, "capsuleIds")

	sendClientMessage(t, conn, clientMessage{Type: msgAction, CapsuleID: "cap-1"})
	msg = readServerMessage(t, conn)
	assert.Equal(t, msgError, msg.Type)

	// Protocol errors never close the connection.
	sendClientMessage(t, conn, clientMessage{Type: msgHeartbeat, Timestamp: timestamp.Now()})
	msg = readServerMessage(t, conn)
	assert.Equal(t, msgHeartbeat, msg.Type)
}

func TestGateway_SlowConsumerEvicted(t *testing.T) {
	g, _ := newTestGateway(t, func(cfg *config.GatewayConfig) {
		cfg.SendQueueSize = 1
	})

	conn := dialGateway(t, g)
	awaitConnected(t, conn)
	mustSubscribe(t, conn, subscribeAll)

	// Large frames fill the socket buffer quickly once the client stops
	// reading; the queue of one then overflows and the connection is
	// evicted rather than reordered or throttled.
	capsule := testCapsule("cap-big")
	capsule.Description = strings.Repeat("x", 64*1024)
	event := newEvent(capsule)
	for range 300 {
		g.OnCapsuleEvent(event)
	}

	require.Eventually(t, func() bool {
		return g.Stats().Connections == 0
	}, 5*time.Second, 20*time.Millisecond)
	assert.GreaterOrEqual(t, g.Stats().Evictions, int64(1))
}

func TestGateway_SweepEvictsSilentConnection(t *testing.T) {
	g, _ := newTestGateway(t, func(cfg *config.GatewayConfig) {
		cfg.HeartbeatInterval = config.Duration(50 * time.Millisecond)
		cfg.HeartbeatTimeout = config.Duration(250 * time.Millisecond)
	})

	silent := dialGateway(t, g)
	awaitConnected(t, silent)

	lively := dialGateway(t, g)
	livelyID := awaitConnected(t, lively)

	// The lively connection sends application heartbeats but never reads,
	// so it cannot answer protocol pings; inbound traffic alone must keep
	// it alive.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(30 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				data, _ := json.Marshal(clientMessage{Type: msgHeartbeat, Timestamp: timestamp.Now()})
				if err := lively.WriteMessage(websocket.TextMessage, data); err != nil {
					return
				}
			}
		}
	}()
	defer func() {
		close(stop)
		wg.Wait()
	}()

	require.Eventually(t, func() bool {
		return g.Stats().Connections == 1
	}, 3*time.Second, 20*time.Millisecond)

	conns := g.Connections()
	require.Len(t, conns, 1)
	assert.Equal(t, livelyID, conns[0].ID)
	assert.GreaterOrEqual(t, g.Stats().Evictions, int64(1))

	// The evicted socket is closed server side.
	require.NoError(t, silent.SetReadDeadline(time.Now().Add(time.Second)))
	for {
		if _, _, err := silent.ReadMessage(); err != nil {
			break
		}
	}
}

func TestGateway_PerCapsuleOrdering(t *testing.T) {
	g, _ := newTestGateway(t, nil)

	conn := dialGateway(t, g)
	awaitConnected(t, conn)
	mustSubscribe(t, conn, subscribeAll)

	g.OnCapsuleEvent(newEvent(testCapsule("cap-1")))
	for i := 1; i <= 10; i++ {
		g.OnCapsuleEvent(updateEvent("cap-1", int64(i)))
	}
	g.OnCapsuleEvent(removedEvent("cap-1"))

	msg := readServerMessage(t, conn)
	require.Equal(t, "capsule_new", msg.Type)

	for i := 1; i <= 10; i++ {
		msg = readServerMessage(t, conn)
		require.Equal(t, "capsule_update", msg.Type)
		require.NotNil(t, msg.Updates)
		require.Equal(t, int64(i), msg.Updates.UpdatedAt, "updates must arrive in emission order")
	}

	msg = readServerMessage(t, conn)
	require.Equal(t, "capsule_removed", msg.Type)
	require.Equal(t, "cap-1", msg.CapsuleID)
}

func TestGateway_StatsBreakdown(t *testing.T) {
	g, _ := newTestGateway(t, nil)

	firehose := dialGateway(t, g)
	awaitConnected(t, firehose)
	mustSubscribe(t, firehose, subscribeAll)

	specific := dialGateway(t, g)
	specificID := awaitConnected(t, specific)
	mustSubscribe(t, specific, "cap-1")

	idle := dialGateway(t, g)
	awaitConnected(t, idle)

	stats := g.Stats()
	assert.Equal(t, 3, stats.Connections)
	assert.Equal(t, 1, stats.AllSubscribers)
	assert.Equal(t, 1, stats.SpecificSubscribers)

	// Delivery counters reflect enqueued events, available as soon as the
	// broadcast call returns.
	g.OnCapsuleEvent(updateEvent("cap-1", 800))
	stats = g.Stats()
	assert.Equal(t, int64(2), stats.EventsSent)

	conns := g.Connections()
	require.Len(t, conns, 3)
	for _, cs := range conns {
		if cs.ID != specificID {
			continue
		}
		assert.False(t, cs.SubscribedAll)
		assert.Equal(t, []string{"cap-1"}, cs.SubscribedIDs)
		assert.False(t, cs.LastSeen.IsZero())
	}

	flow := g.DataFlow()
	assert.False(t, flow.LastActivity.IsZero())
}

func TestGateway_MetaAndPorts(t *testing.T) {
	g, _ := newTestGateway(t, nil)

	meta := g.Meta()
	assert.Equal(t, "websocket-gateway", meta.Name)
	assert.Equal(t, "output", meta.Type)
	assert.NotEmpty(t, meta.Description)

	assert.Nil(t, g.InputPorts())

	ports := g.OutputPorts()
	require.Len(t, ports, 1)
	assert.Equal(t, "capsule_stream", ports[0].Name)
	netPort, ok := ports[0].Config.(component.NetworkPort)
	require.True(t, ok)
	assert.Equal(t, "websocket", netPort.Protocol)
	assert.Equal(t, "127.0.0.1", netPort.Host)
}

func TestGateway_Lifecycle(t *testing.T) {
	store := &fakeStore{}
	g, err := NewGateway(config.GatewayConfig{ListenAddr: "127.0.0.1:0"}, store, component.Dependencies{Logger: testLogger()})
	require.NoError(t, err)
	require.NoError(t, g.Initialize())

	assert.False(t, g.Health().Healthy)
	assert.Empty(t, g.Addr())

	require.NoError(t, g.Start(context.Background()))
	t.Cleanup(func() { _ = g.Stop(time.Second) })

	assert.True(t, g.Health().Healthy)
	assert.NotEmpty(t, g.Addr())

	err = g.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAlreadyStarted)
	assert.True(t, errors.IsFatal(err))

	require.NoError(t, g.Stop(time.Second))
	assert.False(t, g.Health().Healthy)

	// Second stop is a no-op.
	require.NoError(t, g.Stop(time.Second))
}

func TestGateway_StopClosesClients(t *testing.T) {
	g, _ := newTestGateway(t, nil)

	conn := dialGateway(t, g)
	awaitConnected(t, conn)
	addr := g.Addr()

	require.NoError(t, g.Stop(2*time.Second))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)

	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	_, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.Error(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
}

func TestGateway_OriginPolicy(t *testing.T) {
	g, _ := newTestGateway(t, func(cfg *config.GatewayConfig) {
		cfg.AllowedOrigins = []string{"http://control.example"}
	})

	conn, err := dialGatewayHeader(g, http.Header{"Origin": []string{"http://control.example"}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	awaitConnected(t, conn)

	_, err = dialGatewayHeader(g, http.Header{"Origin": []string{"http://evil.example"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, websocket.ErrBadHandshake)

	// Non-browser clients without an Origin header always pass.
	bare, err := dialGatewayHeader(g, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bare.Close() })
	awaitConnected(t, bare)
}

func TestLifecycleConformance(t *testing.T) {
	component.StandardLifecycleTests(t, func() component.LifecycleComponent {
		g, err := NewGateway(config.GatewayConfig{
			ListenAddr:        "127.0.0.1:0",
			Path:              "/ws",
			HeartbeatInterval: config.Duration(time.Second),
			HeartbeatTimeout:  config.Duration(10 * time.Second),
			SendQueueSize:     8,
		}, &fakeStore{}, component.Dependencies{Logger: testLogger()})
		require.NoError(t, err)
		return g
	})
}
