package udp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/industriverse/capstream/component"
	"github.com/industriverse/capstream/config"
	"github.com/industriverse/capstream/errors"
	"github.com/industriverse/capstream/natsclient"
	"github.com/industriverse/capstream/pkg/buffer"
	"github.com/industriverse/capstream/pkg/retry"
	"github.com/industriverse/capstream/types"
)

const componentName = "udp-ingest"

const (
	defaultMaxPacketSize = 64 * 1024
	defaultBufferSize    = 10000

	// readPollInterval bounds how long a socket read blocks so the loop can
	// notice shutdown and flush pending publishes during idle gaps.
	readPollInterval = 100 * time.Millisecond

	publishBatchSize = 100
	socketBufferSize = 2 * 1024 * 1024
)

// Input is the UDP ingress for telemetry readings. Each datagram is parsed
// as one JSON reading, normalized, staged in a ring buffer, and published to
// the raw readings subject. Malformed datagrams are counted and dropped;
// nothing downstream ever sees them.
type Input struct {
	name    string
	cfg     config.IngestConfig
	subject string

	natsClient   *natsclient.Client
	logger       *slog.Logger
	ring         buffer.Buffer[[]byte]
	bindRetry    retry.Config
	publishRetry retry.Config

	// Lifecycle management
	running     bool
	startTime   time.Time
	conn        *net.UDPConn
	wg          *sync.WaitGroup
	shutdown    chan struct{}
	mu          sync.RWMutex
	lifecycleMu sync.Mutex

	// Counters for DataFlow
	packetsReceived int64
	bytesReceived   int64
	readingsInvalid int64
	publishFailed   int64
	errorCount      int64
	lastActivity    time.Time

	// Prometheus metrics
	metrics *ingestMetrics
}

var _ component.Discoverable = (*Input)(nil)
var _ component.LifecycleComponent = (*Input)(nil)

// NewInput builds the UDP ingress from its config section.
func NewInput(cfg config.IngestConfig, deps component.Dependencies) (*Input, error) {
	if cfg.ListenAddr == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "UDPIngest", "NewInput",
			"listen address required")
	}
	if cfg.Subject == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "UDPIngest", "NewInput",
			"publish subject required")
	}
	if deps.NATSClient == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "UDPIngest", "NewInput",
			"NATS client required")
	}

	if cfg.MaxPacketSize <= 0 {
		cfg.MaxPacketSize = defaultMaxPacketSize
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}

	logger := deps.GetLoggerWithComponent(componentName)

	metrics, err := newIngestMetrics(deps.MetricsRegistry, componentName)
	if err != nil {
		deps.GetLogger().Error("Failed to initialize ingest metrics", "error", err)
		metrics = nil // Continue without metrics
	}

	ringOpts := []buffer.Option[[]byte]{
		buffer.WithOverflowPolicy[[]byte](buffer.DropOldest),
	}
	if deps.MetricsRegistry != nil {
		ringOpts = append(ringOpts, buffer.WithMetrics[[]byte](deps.MetricsRegistry, componentName))
	}
	ring, err := buffer.NewCircularBuffer(cfg.BufferSize, ringOpts...)
	if err != nil {
		return nil, err
	}

	return &Input{
		name:         componentName,
		cfg:          cfg,
		subject:      cfg.Subject,
		natsClient:   deps.NATSClient,
		logger:       logger,
		ring:         ring,
		bindRetry:    retry.Quick(),
		publishRetry: retry.DefaultConfig(),
		metrics:      metrics,
	}, nil
}

// Initialize prepares the ingress. The socket is bound in Start.
func (i *Input) Initialize() error {
	return nil
}

// Start binds the UDP socket and launches the read loop.
func (i *Input) Start(ctx context.Context) error {
	i.lifecycleMu.Lock()
	defer i.lifecycleMu.Unlock()

	if i.running {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "UDPIngest", "Start", "check running state")
	}

	// Bind with retry: after a restart the previous socket can linger in
	// the kernel briefly.
	if err := retry.Do(ctx, i.bindRetry, i.bindSocket); err != nil {
		return errors.WrapTransient(err, "UDPIngest", "Start",
			fmt.Sprintf("bind %s", i.cfg.ListenAddr))
	}

	wg := &sync.WaitGroup{}

	i.mu.Lock()
	i.shutdown = make(chan struct{})
	i.wg = wg
	i.running = true
	i.startTime = time.Now()
	addr := i.conn.LocalAddr().String()
	i.mu.Unlock()

	wg.Add(1)
	go func() {
		defer wg.Done()
		i.readLoop(ctx)
	}()

	i.logger.Info("UDP ingress started", "addr", addr, "subject", i.subject)
	return nil
}

func (i *Input) bindSocket() error {
	addr, err := net.ResolveUDPAddr("udp", i.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", i.cfg.ListenAddr, err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", i.cfg.ListenAddr, err)
	}

	// Grow the kernel receive buffer so short bursts don't drop datagrams.
	// Some systems cap the size; that is fine.
	if err := conn.SetReadBuffer(socketBufferSize); err != nil {
		i.logger.Warn("could not set UDP read buffer", "size", socketBufferSize, "error", err)
	}

	i.mu.Lock()
	i.conn = conn
	i.mu.Unlock()
	return nil
}

// Stop closes the socket and waits for the read loop to drain.
func (i *Input) Stop(timeout time.Duration) error {
	i.lifecycleMu.Lock()
	defer i.lifecycleMu.Unlock()

	i.mu.Lock()
	if !i.running {
		i.mu.Unlock()
		return nil
	}
	i.running = false
	close(i.shutdown)
	if i.conn != nil {
		_ = i.conn.Close()
	}
	wg := i.wg
	i.mu.Unlock()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		return errors.WrapTransient(fmt.Errorf("stop timeout after %v", timeout),
			"UDPIngest", "Stop", "wait for read loop")
	}

	i.mu.Lock()
	i.conn = nil
	i.mu.Unlock()

	// The ring stays open: staged readings survive a Stop/Start cycle and
	// drain once the loop is back.

	i.logger.Info("UDP ingress stopped",
		"packets", atomic.LoadInt64(&i.packetsReceived),
		"invalid", atomic.LoadInt64(&i.readingsInvalid))
	return nil
}

// Addr returns the bound socket address, or "" before Start.
func (i *Input) Addr() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.conn == nil {
		return ""
	}
	return i.conn.LocalAddr().String()
}

func (i *Input) readLoop(ctx context.Context) {
	datagram := make([]byte, i.cfg.MaxPacketSize)

	for {
		select {
		case <-ctx.Done():
			return
		case <-i.shutdown:
			return
		default:
		}

		i.mu.RLock()
		conn := i.conn
		running := i.running
		i.mu.RUnlock()
		if !running || conn == nil {
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(readPollInterval))
		n, _, err := conn.ReadFromUDP(datagram)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				i.drain(ctx)
				continue
			}
			select {
			case <-ctx.Done():
				return
			case <-i.shutdown:
				return
			default:
			}
			atomic.AddInt64(&i.errorCount, 1)
			i.metrics.recordSocketError()
			continue
		}

		atomic.AddInt64(&i.packetsReceived, 1)
		atomic.AddInt64(&i.bytesReceived, int64(n))
		i.mu.Lock()
		i.lastActivity = time.Now()
		i.mu.Unlock()
		i.metrics.recordPacket(n)

		i.ingest(datagram[:n])
		i.drain(ctx)
	}
}

// ingest validates one datagram and stages the normalized reading. The
// re-marshal stamps missing timestamps with arrival time and collapses the
// flat and nested input shapes into the canonical form, so every consumer
// downstream sees one format.
func (i *Input) ingest(data []byte) {
	reading, err := types.ParseReading(data)
	if err != nil {
		atomic.AddInt64(&i.readingsInvalid, 1)
		i.metrics.recordDropped("invalid")
		i.logger.Debug("dropping malformed datagram", "bytes", len(data), "error", err)
		return
	}

	payload, err := json.Marshal(reading)
	if err != nil {
		atomic.AddInt64(&i.errorCount, 1)
		i.metrics.recordDropped("encode")
		return
	}

	// DropOldest ring: under sustained overload the oldest staged readings
	// give way to fresh ones.
	if err := i.ring.Write(payload); err != nil {
		atomic.AddInt64(&i.readingsInvalid, 1)
		i.metrics.recordDropped("buffer_closed")
		return
	}
	i.metrics.recordBufferLevel(i.ring.Size(), i.ring.Capacity())
}

// drain publishes staged readings in batches. A failed publish loses that
// reading; delivery is best effort end to end.
func (i *Input) drain(ctx context.Context) {
	batch := i.ring.ReadBatch(publishBatchSize)
	if len(batch) == 0 {
		return
	}
	i.metrics.recordBatch(len(batch))

	for _, payload := range batch {
		select {
		case <-i.shutdown:
			return
		default:
		}

		start := time.Now()
		err := retry.Do(ctx, i.publishRetry, func() error {
			return i.natsClient.Publish(ctx, i.subject, payload)
		})
		i.metrics.recordPublish(time.Since(start))
		if err != nil {
			atomic.AddInt64(&i.publishFailed, 1)
			atomic.AddInt64(&i.errorCount, 1)
			i.logger.Warn("reading lost, publish failed", "subject", i.subject, "error", err)
		}
	}
	i.metrics.recordBufferLevel(i.ring.Size(), i.ring.Capacity())
}

// Discoverable interface implementation

// Meta returns metadata describing this ingress component.
func (i *Input) Meta() component.Metadata {
	return component.Metadata{
		Name:        i.name,
		Type:        "input",
		Description: fmt.Sprintf("UDP reading ingress on %s publishing to %s", i.cfg.ListenAddr, i.subject),
		Version:     "0.1.0",
	}
}

// InputPorts returns the UDP socket this component listens on.
func (i *Input) InputPorts() []component.Port {
	host, port := splitListenAddr(i.cfg.ListenAddr)
	return []component.Port{
		{
			Name:        "udp_socket",
			Direction:   component.DirectionInput,
			Required:    true,
			Description: fmt.Sprintf("UDP socket receiving reading datagrams on %s", i.cfg.ListenAddr),
			Config: component.NetworkPort{
				Protocol: "udp",
				Host:     host,
				Port:     port,
			},
		},
	}
}

// OutputPorts returns the NATS subject raw readings are published to.
func (i *Input) OutputPorts() []component.Port {
	return []component.Port{
		{
			Name:        "readings",
			Direction:   component.DirectionOutput,
			Required:    true,
			Description: "Raw readings stream consumed by the alert processor",
			Config: component.NATSPort{
				Subject: i.subject,
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

// Health returns the current health status of this ingress.
func (i *Input) Health() component.HealthStatus {
	i.mu.RLock()
	defer i.mu.RUnlock()

	var uptime time.Duration
	if i.running {
		uptime = time.Since(i.startTime)
	}

	return component.HealthStatus{
		Healthy:    i.running && i.conn != nil,
		LastCheck:  time.Now(),
		ErrorCount: int(atomic.LoadInt64(&i.errorCount)),
		Uptime:     uptime,
	}
}

// DataFlow returns throughput metrics for this ingress.
func (i *Input) DataFlow() component.FlowMetrics {
	i.mu.RLock()
	defer i.mu.RUnlock()

	packets := atomic.LoadInt64(&i.packetsReceived)

	var msgRate, byteRate, errorRate float64
	if i.running {
		if secs := time.Since(i.startTime).Seconds(); secs > 0 {
			msgRate = float64(packets) / secs
			byteRate = float64(atomic.LoadInt64(&i.bytesReceived)) / secs
		}
	}
	if packets > 0 {
		errorRate = float64(atomic.LoadInt64(&i.errorCount)) / float64(packets)
	}

	return component.FlowMetrics{
		MessagesPerSecond: msgRate,
		BytesPerSecond:    byteRate,
		ErrorRate:         errorRate,
		LastActivity:      i.lastActivity,
	}
}

// Stats reports ingest counters for the admin surface.
type Stats struct {
	PacketsReceived int64 `json:"packetsReceived"`
	BytesReceived   int64 `json:"bytesReceived"`
	ReadingsInvalid int64 `json:"readingsInvalid"`
	PublishFailed   int64 `json:"publishFailed"`
	Buffered        int   `json:"buffered"`
}

// Stats returns a snapshot of the ingest counters.
func (i *Input) Stats() Stats {
	return Stats{
		PacketsReceived: atomic.LoadInt64(&i.packetsReceived),
		BytesReceived:   atomic.LoadInt64(&i.bytesReceived),
		ReadingsInvalid: atomic.LoadInt64(&i.readingsInvalid),
		PublishFailed:   atomic.LoadInt64(&i.publishFailed),
		Buffered:        i.ring.Size(),
	}
}
