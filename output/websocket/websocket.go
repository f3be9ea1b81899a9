package websocket

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/industriverse/capstream/component"
	"github.com/industriverse/capstream/config"
	"github.com/industriverse/capstream/errors"
	"github.com/industriverse/capstream/pkg/timestamp"
	"github.com/industriverse/capstream/types"
)

const componentName = "websocket-gateway"

const (
	defaultPath          = "/ws"
	defaultSweepInterval = 30 * time.Second
	defaultIdleTimeout   = 60 * time.Second
	defaultQueueSize     = 64
	defaultReadLimit     = 512 * 1024

	// writeTimeout bounds a single frame write so one wedged socket cannot
	// stall its writer goroutine indefinitely.
	writeTimeout = 10 * time.Second
)

// Disconnect reasons, used as metric labels and log fields.
const (
	reasonClientClosed = "client_closed"
	reasonIdleTimeout  = "heartbeat_timeout"
	reasonSlowConsumer = "send_queue_full"
	reasonWriteError   = "write_error"
	reasonShutdown     = "shutdown"
)

// CapsuleStore is the slice of the capsule manager the gateway needs: the
// active snapshot for subscribe replies and the action entry point for
// relayed client actions.
type CapsuleStore interface {
	ListActive() []*types.Capsule
	PerformAction(ctx context.Context, capsuleID, action string, metadata map[string]any) error
}

// Gateway serves the WebSocket subscriber endpoint. It fans capsule events
// out to connected clients according to their subscription filters, relays
// capsule actions back into the store, and evicts connections that fall
// silent or cannot keep up.
//
// The gateway receives events in process: register it on the capsule
// manager as a sink and every create, update, and retire lands in
// OnCapsuleEvent on the store's mutation path.
type Gateway struct {
	name string
	cfg  config.GatewayConfig

	sweepInterval time.Duration
	idleTimeout   time.Duration

	store    CapsuleStore
	logger   *slog.Logger
	upgrader websocket.Upgrader

	clients   map[string]*client
	clientsMu sync.RWMutex

	// Lifecycle management
	running       bool
	startTime     time.Time
	listener      net.Listener
	server        *http.Server
	wg            *sync.WaitGroup
	shutdown      chan struct{}
	lifecycleCtx  context.Context
	lifecycleStop context.CancelFunc
	mu            sync.RWMutex
	lifecycleMu   sync.Mutex

	// Counters for Stats and DataFlow
	eventsSent     int64
	bytesSent      int64
	evictions      int64
	actionsRelayed int64
	actionsFailed  int64
	errorCount     int64
	lastActivity   time.Time

	// Prometheus metrics
	metrics *gatewayMetrics
}

var _ component.Discoverable = (*Gateway)(nil)
var _ component.LifecycleComponent = (*Gateway)(nil)

// NewGateway builds the subscriber endpoint around a capsule store. The
// returned gateway is inert until Start; register it on the capsule manager
// with AddSink to begin receiving events.
func NewGateway(cfg config.GatewayConfig, store CapsuleStore, deps component.Dependencies) (*Gateway, error) {
	if cfg.ListenAddr == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "WebSocketGateway", "NewGateway",
			"listen address required")
	}
	if store == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "WebSocketGateway", "NewGateway",
			"capsule store required")
	}

	if cfg.Path == "" {
		cfg.Path = defaultPath
	}
	if cfg.HeartbeatInterval.Std() <= 0 {
		cfg.HeartbeatInterval = config.Duration(defaultSweepInterval)
	}
	if cfg.HeartbeatTimeout.Std() <= 0 {
		cfg.HeartbeatTimeout = config.Duration(defaultIdleTimeout)
	}
	if cfg.SendQueueSize <= 0 {
		cfg.SendQueueSize = defaultQueueSize
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = defaultReadLimit
	}

	logger := deps.GetLoggerWithComponent(componentName)

	metrics, err := newGatewayMetrics(deps.MetricsRegistry, componentName)
	if err != nil {
		deps.GetLogger().Error("Failed to initialize gateway metrics", "error", err)
		metrics = nil // Continue without metrics
	}

	return &Gateway{
		name:          componentName,
		cfg:           cfg,
		sweepInterval: cfg.HeartbeatInterval.Std(),
		idleTimeout:   cfg.HeartbeatTimeout.Std(),
		store:         store,
		logger:        logger,
		clients:       make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
		metrics: metrics,
	}, nil
}

// originChecker builds the Upgrader origin policy. An empty allowlist
// accepts every origin; otherwise the Origin header must match an entry
// exactly. Requests without an Origin header (non-browser clients) always
// pass.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Initialize prepares the gateway. Nothing to do before Start.
func (g *Gateway) Initialize() error {
	return nil
}

// Start binds the listen address and launches the HTTP server and the
// liveness sweep.
func (g *Gateway) Start(ctx context.Context) error {
	g.lifecycleMu.Lock()
	defer g.lifecycleMu.Unlock()

	if g.running {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "WebSocketGateway", "Start", "check running state")
	}

	// Explicit listener rather than ListenAndServe: the bound address is
	// observable through Addr, which makes ":0" usable.
	listener, err := net.Listen("tcp", g.cfg.ListenAddr)
	if err != nil {
		return errors.WrapTransient(err, "WebSocketGateway", "Start",
			fmt.Sprintf("listen on %s", g.cfg.ListenAddr))
	}

	mux := http.NewServeMux()
	mux.HandleFunc(g.cfg.Path, g.handleWebSocket)

	g.lifecycleCtx, g.lifecycleStop = context.WithCancel(context.Background())
	g.shutdown = make(chan struct{})
	wg := &sync.WaitGroup{}

	g.mu.Lock()
	g.listener = listener
	g.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.wg = wg
	g.running = true
	g.startTime = time.Now()
	g.mu.Unlock()

	wg.Add(2)
	go func() {
		defer wg.Done()
		g.serveHTTP(listener)
	}()
	go func() {
		defer wg.Done()
		g.sweepLoop(ctx)
	}()

	g.logger.Info("websocket gateway started",
		"addr", listener.Addr().String(),
		"path", g.cfg.Path,
		"sweep_interval", g.sweepInterval,
		"heartbeat_timeout", g.idleTimeout)
	return nil
}

func (g *Gateway) serveHTTP(listener net.Listener) {
	g.mu.RLock()
	server := g.server
	g.mu.RUnlock()
	if server == nil {
		return
	}
	if err := server.Serve(listener); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		atomic.AddInt64(&g.errorCount, 1)
		g.logger.Error("websocket server failed", "error", err)
	}
}

// Stop closes every client connection, shuts the HTTP server down, and
// waits up to timeout for goroutines to exit.
func (g *Gateway) Stop(timeout time.Duration) error {
	g.lifecycleMu.Lock()
	defer g.lifecycleMu.Unlock()

	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return nil
	}
	g.running = false
	server := g.server
	wg := g.wg
	g.mu.Unlock()

	close(g.shutdown)

	// Close client sockets before server.Shutdown: hijacked connections are
	// not tracked by the server, so read loops must be unblocked explicitly.
	g.closeAllClients()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			g.logger.Warn("websocket server shutdown", "error", err)
		}
	}

	if wg != nil {
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(timeout):
			g.logger.Warn("websocket goroutines did not exit before timeout")
		}
	}

	if g.lifecycleStop != nil {
		g.lifecycleStop()
	}

	g.mu.Lock()
	g.server = nil
	g.listener = nil
	g.mu.Unlock()

	g.logger.Info("websocket gateway stopped")
	return nil
}

// Addr returns the bound listen address, or "" before Start. Useful when
// the configured port is 0.
func (g *Gateway) Addr() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.listener == nil {
		return ""
	}
	return g.listener.Addr().String()
}

// handleWebSocket upgrades the HTTP request and hands the connection to its
// read and write loops. The connected greeting is queued before the client
// is visible to broadcasts, so it always precedes any capsule event.
func (g *Gateway) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	g.mu.RLock()
	running, wg := g.running, g.wg
	g.mu.RUnlock()
	if !running {
		http.Error(w, "gateway is shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		atomic.AddInt64(&g.errorCount, 1)
		g.metrics.recordError(g.name, "upgrade")
		g.logger.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := newClient(uuid.NewString(), conn, g.cfg.SendQueueSize)
	conn.SetReadLimit(g.cfg.ReadLimit)
	conn.SetPongHandler(func(string) error {
		c.touch()
		return nil
	})

	greeting, err := json.Marshal(serverMessage{
		Type:         msgConnected,
		ConnectionID: c.id,
		Timestamp:    timestamp.Now(),
	})
	if err == nil {
		c.enqueue(greeting)
	}

	g.clientsMu.Lock()
	g.clients[c.id] = c
	count := len(g.clients)
	g.clientsMu.Unlock()

	g.metrics.recordConnect(g.name, count)
	g.logger.Info("client connected",
		"connectionId", c.id,
		"remote", c.remoteAddr,
		"connections", count)

	wg.Add(2)
	go func() {
		defer wg.Done()
		g.writeLoop(c)
	}()
	go func() {
		defer wg.Done()
		g.readLoop(c)
	}()
}

// readLoop consumes client frames until the connection dies. Any inbound
// traffic counts as liveness.
func (g *Gateway) readLoop(c *client) {
	// The sweep owns idle eviction; the read deadline is a backstop one
	// sweep interval beyond it for connections the sweep cannot see dying.
	readWait := g.idleTimeout + g.sweepInterval
	for {
		_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			g.removeClient(c, reasonClientClosed)
			return
		}
		c.touch()
		g.handleClientMessage(c, data)
	}
}

// writeLoop is the only goroutine that writes to the connection. Draining
// the send queue in order preserves per-capsule event ordering end to end.
func (g *Gateway) writeLoop(c *client) {
	ticker := time.NewTicker(g.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data); err != nil {
				g.removeClient(c, reasonWriteError)
				return
			}
			atomic.AddInt64(&c.messagesSent, 1)
			atomic.AddInt64(&c.bytesSent, int64(len(data)))
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				g.removeClient(c, reasonWriteError)
				return
			}
		case <-c.done:
			return
		}
	}
}

// sweepLoop periodically evicts connections that have shown no signs of
// life within the heartbeat timeout.
func (g *Gateway) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(g.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-g.shutdown:
			return
		case <-ticker.C:
			g.sweepIdleClients()
		}
	}
}

func (g *Gateway) sweepIdleClients() {
	cutoff := time.Now().Add(-g.idleTimeout)

	g.clientsMu.RLock()
	var stale []*client
	for _, c := range g.clients {
		if c.lastSeenAt().Before(cutoff) {
			stale = append(stale, c)
		}
	}
	g.clientsMu.RUnlock()

	for _, c := range stale {
		g.logger.Info("heartbeat timeout, evicting connection",
			"connectionId", c.id,
			"idle", time.Since(c.lastSeenAt()).Round(time.Second))
		g.removeClient(c, reasonIdleTimeout)
	}
}

// removeClient tears a connection down exactly once: marks it closed, stops
// its writer, closes the socket, and drops it from the broadcast set.
func (g *Gateway) removeClient(c *client, reason string) {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
		_ = c.conn.Close()

		g.clientsMu.Lock()
		delete(g.clients, c.id)
		remaining := len(g.clients)
		g.clientsMu.Unlock()

		switch reason {
		case reasonIdleTimeout, reasonSlowConsumer, reasonWriteError:
			atomic.AddInt64(&g.evictions, 1)
		}

		g.metrics.recordDisconnect(g.name, reason, remaining)
		g.logger.Info("client disconnected",
			"connectionId", c.id,
			"reason", reason,
			"connections", remaining)
	})
}

func (g *Gateway) closeAllClients() {
	g.clientsMu.RLock()
	clients := make([]*client, 0, len(g.clients))
	for _, c := range g.clients {
		clients = append(clients, c)
	}
	g.clientsMu.RUnlock()

	for _, c := range clients {
		g.removeClient(c, reasonShutdown)
	}
}

// handleClientMessage dispatches one inbound frame. Malformed or unknown
// messages get an error reply; they never close the connection.
func (g *Gateway) handleClientMessage(c *client, data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		g.metrics.recordError(g.name, "invalid_message")
		g.replyError(c, "invalid message: not valid JSON")
		return
	}

	switch msg.Type {
	case msgSubscribe:
		g.handleSubscribe(c, msg)
	case msgUnsubscribe:
		g.handleUnsubscribe(c, msg)
	case msgAction:
		g.handleAction(c, msg)
	case msgHeartbeat:
		c.touch()
		g.reply(c, serverMessage{Type: msgHeartbeat, Timestamp: timestamp.Now()})
	default:
		g.metrics.recordError(g.name, "unknown_message_type")
		g.replyError(c, fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

// handleSubscribe merges the requested IDs into the connection's filter and
// replies with the currently active capsules the new filter matches, so a
// subscriber starts from a usable snapshot instead of waiting for the next
// event.
func (g *Gateway) handleSubscribe(c *client, msg clientMessage) {
	if len(msg.CapsuleIDs) == 0 {
		g.replyError(c, "subscribe requires capsuleIds")
		return
	}

	c.subscribe(msg.CapsuleIDs)
	all, ids := c.subscriptionInfo()

	var capsules []*types.Capsule
	switch {
	case all:
		capsules = g.store.ListActive()
	case len(ids) > 0:
		wanted := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			wanted[id] = struct{}{}
		}
		for _, capsule := range g.store.ListActive() {
			if _, ok := wanted[capsule.ID]; ok {
				capsules = append(capsules, capsule)
			}
		}
	}

	g.logger.Debug("subscription updated",
		"connectionId", c.id,
		"all", all,
		"ids", len(ids))

	g.reply(c, serverMessage{
		Type:       msgSubscribed,
		CapsuleIDs: msg.CapsuleIDs,
		Capsules:   capsules,
		Timestamp:  timestamp.Now(),
	})
}

func (g *Gateway) handleUnsubscribe(c *client, msg clientMessage) {
	c.unsubscribe(msg.CapsuleIDs)
	g.reply(c, serverMessage{
		Type:       msgUnsubscribed,
		CapsuleIDs: msg.CapsuleIDs,
		Timestamp:  timestamp.Now(),
	})
}

// handleAction relays a capsule action into the store. Failures go back to
// the acting connection only; other subscribers just see whatever capsule
// events a successful action produces.
func (g *Gateway) handleAction(c *client, msg clientMessage) {
	if msg.CapsuleID == "" || msg.Action == "" {
		g.replyError(c, "action requires capsuleId and action")
		return
	}

	atomic.AddInt64(&g.actionsRelayed, 1)

	if err := g.store.PerformAction(g.lifecycleCtx, msg.CapsuleID, msg.Action, msg.Metadata); err != nil {
		atomic.AddInt64(&g.actionsFailed, 1)
		g.metrics.recordAction(g.name, "failed")
		g.logger.Warn("capsule action failed",
			"connectionId", c.id,
			"capsuleId", msg.CapsuleID,
			"action", msg.Action,
			"error", err)
		g.reply(c, serverMessage{
			Type:      msgActionFailed,
			CapsuleID: msg.CapsuleID,
			Action:    msg.Action,
			Error:     err.Error(),
			Timestamp: timestamp.Now(),
		})
		return
	}

	g.metrics.recordAction(g.name, "success")
	g.reply(c, serverMessage{
		Type:      msgActionSuccess,
		CapsuleID: msg.CapsuleID,
		Action:    msg.Action,
		Timestamp: timestamp.Now(),
	})
}

// reply queues a control message on the connection's send queue. Replies
// share the queue with broadcasts, so a client sees them in the order the
// gateway produced them.
func (g *Gateway) reply(c *client, msg serverMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		atomic.AddInt64(&g.errorCount, 1)
		return
	}
	if !c.enqueue(data) {
		g.removeClient(c, reasonSlowConsumer)
	}
}

func (g *Gateway) replyError(c *client, message string) {
	g.reply(c, serverMessage{
		Type:      msgError,
		Message:   message,
		Timestamp: timestamp.Now(),
	})
}

// OnCapsuleEvent fans one capsule event out to every matching connection.
// It runs on the capsule store's mutation path, so it must never block:
// delivery is a non-blocking enqueue onto bounded per-connection queues,
// and a full queue evicts that connection instead of stalling the pipeline
// or reordering its stream.
func (g *Gateway) OnCapsuleEvent(event types.CapsuleEvent) {
	g.mu.RLock()
	running := g.running
	g.mu.RUnlock()
	if !running {
		return
	}

	data, err := encodeEventMessage(event)
	if err != nil {
		atomic.AddInt64(&g.errorCount, 1)
		g.metrics.recordError(g.name, "encode_event")
		g.logger.Error("failed to encode capsule event",
			"event", event.Type,
			"capsuleId", event.CapsuleID,
			"error", err)
		return
	}

	start := time.Now()
	delivered := 0
	var slow []*client

	g.clientsMu.RLock()
	for _, c := range g.clients {
		if c.closed.Load() || !c.allows(event.CapsuleID) {
			continue
		}
		if c.enqueue(data) {
			delivered++
		} else {
			slow = append(slow, c)
		}
	}
	g.clientsMu.RUnlock()

	for _, c := range slow {
		g.removeClient(c, reasonSlowConsumer)
	}

	if delivered > 0 {
		atomic.AddInt64(&g.eventsSent, int64(delivered))
		atomic.AddInt64(&g.bytesSent, int64(delivered*len(data)))
	}

	g.mu.Lock()
	g.lastActivity = time.Now()
	g.mu.Unlock()

	g.metrics.recordBroadcast(g.name, string(event.Type), delivered, len(data), time.Since(start))
}

// GatewayStats is the gateway block of the stats surface.
type GatewayStats struct {
	Connections         int   `json:"connections"`
	AllSubscribers      int   `json:"allSubscribers"`
	SpecificSubscribers int   `json:"specificSubscribers"`
	EventsSent          int64 `json:"eventsSent"`
	Evictions           int64 `json:"evictions"`
	ActionsRelayed      int64 `json:"actionsRelayed"`
	ActionsFailed       int64 `json:"actionsFailed"`
}

// Stats reports connection and delivery counters. Connections that have
// not subscribed to anything yet count in Connections but in neither
// subscriber bucket.
func (g *Gateway) Stats() GatewayStats {
	g.clientsMu.RLock()
	connections := len(g.clients)
	allSubs, specific := 0, 0
	for _, c := range g.clients {
		all, ids := c.subscriptionInfo()
		switch {
		case all:
			allSubs++
		case len(ids) > 0:
			specific++
		}
	}
	g.clientsMu.RUnlock()

	return GatewayStats{
		Connections:         connections,
		AllSubscribers:      allSubs,
		SpecificSubscribers: specific,
		EventsSent:          atomic.LoadInt64(&g.eventsSent),
		Evictions:           atomic.LoadInt64(&g.evictions),
		ActionsRelayed:      atomic.LoadInt64(&g.actionsRelayed),
		ActionsFailed:       atomic.LoadInt64(&g.actionsFailed),
	}
}

// ConnectionStats describes one live connection for the admin surface.
type ConnectionStats struct {
	ID            string    `json:"id"`
	RemoteAddr    string    `json:"remoteAddr"`
	ConnectedAt   time.Time `json:"connectedAt"`
	SubscribedAll bool      `json:"subscribedAll"`
	SubscribedIDs []string  `json:"subscribedIds,omitempty"`
	MessagesSent  int64     `json:"messagesSent"`
	LastSeen      time.Time `json:"lastSeen"`
}

// Connections snapshots every live connection, ordered by connection ID.
func (g *Gateway) Connections() []ConnectionStats {
	g.clientsMu.RLock()
	out := make([]ConnectionStats, 0, len(g.clients))
	for _, c := range g.clients {
		all, ids := c.subscriptionInfo()
		sort.Strings(ids)
		out = append(out, ConnectionStats{
			ID:            c.id,
			RemoteAddr:    c.remoteAddr,
			ConnectedAt:   c.connectedAt,
			SubscribedAll: all,
			SubscribedIDs: ids,
			MessagesSent:  atomic.LoadInt64(&c.messagesSent),
			LastSeen:      c.lastSeenAt(),
		})
	}
	g.clientsMu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Discoverable interface implementation

// Meta returns metadata describing this gateway component.
func (g *Gateway) Meta() component.Metadata {
	return component.Metadata{
		Name:        g.name,
		Type:        "output",
		Description: fmt.Sprintf("Streams capsule events to WebSocket subscribers on %s%s", g.cfg.ListenAddr, g.cfg.Path),
		Version:     "0.1.0",
	}
}

// InputPorts returns nil: capsule events arrive in process through the
// store's sink interface, not over a wire.
func (g *Gateway) InputPorts() []component.Port {
	return nil
}

// OutputPorts returns the WebSocket endpoint clients connect to.
func (g *Gateway) OutputPorts() []component.Port {
	host, port := splitListenAddr(g.cfg.ListenAddr)
	return []component.Port{
		{
			Name:        "capsule_stream",
			Direction:   component.DirectionOutput,
			Required:    false,
			Description: fmt.Sprintf("WebSocket capsule event stream at ws://%s%s", g.cfg.ListenAddr, g.cfg.Path),
			Config: component.NetworkPort{
				Protocol: "websocket",
				Host:     host,
				Port:     port,
			},
		},
	}
}

func splitListenAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 0
	}
	if host == "" {
		host = "0.0.0.0"
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}

// Health returns the current health status of this gateway.
func (g *Gateway) Health() component.HealthStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var uptime time.Duration
	if g.running {
		uptime = time.Since(g.startTime)
	}

	return component.HealthStatus{
		Healthy:    g.running,
		LastCheck:  time.Now(),
		ErrorCount: int(atomic.LoadInt64(&g.errorCount)),
		Uptime:     uptime,
	}
}

// DataFlow returns current delivery metrics for this gateway.
func (g *Gateway) DataFlow() component.FlowMetrics {
	g.mu.RLock()
	defer g.mu.RUnlock()

	sent := atomic.LoadInt64(&g.eventsSent)

	var msgRate, byteRate, errorRate float64
	if g.running {
		if secs := time.Since(g.startTime).Seconds(); secs > 0 {
			msgRate = float64(sent) / secs
			byteRate = float64(atomic.LoadInt64(&g.bytesSent)) / secs
		}
	}
	if sent > 0 {
		errorRate = float64(atomic.LoadInt64(&g.errorCount)) / float64(sent)
	}

	return component.FlowMetrics{
		MessagesPerSecond: msgRate,
		BytesPerSecond:    byteRate,
		ErrorRate:         errorRate,
		LastActivity:      g.lastActivity,
	}
}
