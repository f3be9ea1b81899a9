package alert

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/industriverse/capstream/component"
	"github.com/industriverse/capstream/config"
	"github.com/industriverse/capstream/errors"
	"github.com/industriverse/capstream/natsclient"
	"github.com/industriverse/capstream/pkg/worker"
	"github.com/industriverse/capstream/types"
)

const componentName = "alert-processor"

// Processor ties the rule evaluator and capsule manager to the reading
// stream: it subscribes to the readings subject, parses and evaluates each
// reading on a worker pool, and funnels triggers into the capsule store.
//
// The registry and manager are shared state: the same instances back the
// admin HTTP API (rule CRUD, capsule queries) and the WebSocket gateway
// (event sink, action relay).
type Processor struct {
	name string
	cfg  config.ProcessorConfig

	registry   *RuleRegistry
	manager    *CapsuleManager
	evaluator  *Evaluator
	history    *ReadingHistory
	pool       *worker.Pool[types.Reading]
	natsClient *natsclient.Client
	logger     *slog.Logger

	// Lifecycle management
	running     bool
	startTime   time.Time
	mu          sync.RWMutex
	lifecycleMu sync.Mutex

	// Counters for DataFlow
	readingsReceived int64
	readingsInvalid  int64
	readingsShed     int64
	triggers         int64
	errorCount       int64
	bytesReceived    int64
	lastActivity     time.Time

	// Prometheus metrics
	metrics *alertMetrics
}

// NewProcessor wires the alert pipeline component around a shared rule
// registry and capsule manager. Depending on configuration it registers a
// NATS event sink and an external action forwarder on the manager.
func NewProcessor(
	cfg config.ProcessorConfig,
	registry *RuleRegistry,
	manager *CapsuleManager,
	deps component.Dependencies,
) (*Processor, error) {
	if cfg.Subject == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "AlertProcessor", "NewProcessor",
			"readings subject required")
	}
	if registry == nil || manager == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "AlertProcessor", "NewProcessor",
			"rule registry and capsule manager required")
	}

	// Workers default to 1: a single evaluation worker preserves reading
	// arrival order through the trigger path.
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10000
	}

	logger := deps.GetLoggerWithComponent(componentName)

	metrics, err := newAlertMetrics(deps.MetricsRegistry, componentName)
	if err != nil {
		deps.GetLogger().Error("Failed to initialize alert metrics", "error", err)
		metrics = nil // Continue without metrics
	}

	p := &Processor{
		name:       componentName,
		cfg:        cfg,
		registry:   registry,
		manager:    manager,
		evaluator:  NewEvaluator(registry, logger),
		history:    NewReadingHistory(cfg.HistorySize),
		natsClient: deps.NATSClient,
		logger:     logger,
		metrics:    metrics,
	}

	pool, err := worker.NewPool(cfg.Workers, cfg.QueueSize, p.processReading,
		worker.WithMetrics[types.Reading](deps.MetricsRegistry, componentName))
	if err != nil {
		return nil, err
	}
	p.pool = pool

	if metrics != nil {
		manager.AddSink(&metricsSink{metrics: metrics, name: componentName})
	}
	if cfg.PublishEvents && deps.NATSClient != nil {
		manager.AddSink(NewNATSEventSink(deps.NATSClient, cfg.EventsSubjectPrefix, logger))
	}
	if cfg.ActionSubject != "" && deps.NATSClient != nil {
		manager.SetActionForwarder(NewNATSActionForwarder(
			deps.NATSClient, cfg.ActionSubject, cfg.ActionTimeout.Std(), logger))
	}

	return p, nil
}

// History returns the per-source reading history for the admin query
// surface.
func (p *Processor) History() *ReadingHistory {
	return p.history
}

// Initialize prepares the processor. Rule preloading happens in the service
// layer, so there is nothing to do here.
func (p *Processor) Initialize() error {
	return nil
}

// Start launches the worker pool and subscribes to the readings subject.
func (p *Processor) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.running {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "AlertProcessor", "Start", "check running state")
	}
	if p.natsClient == nil {
		return errors.WrapFatal(errors.ErrMissingConfig, "AlertProcessor", "Start", "NATS client required")
	}

	if err := p.pool.Start(ctx); err != nil {
		return errors.WrapFatal(err, "AlertProcessor", "Start", "start worker pool")
	}

	if err := p.natsClient.Subscribe(ctx, p.cfg.Subject, p.handleMessage); err != nil {
		if stopErr := p.pool.Stop(5 * time.Second); stopErr != nil {
			p.logger.Warn("failed to stop worker pool after subscribe failure", "error", stopErr)
		}
		return errors.WrapTransient(err, "AlertProcessor", "Start",
			fmt.Sprintf("subscribe to %s", p.cfg.Subject))
	}

	p.mu.Lock()
	p.running = true
	p.startTime = time.Now()
	p.mu.Unlock()

	p.logger.Info("alert processor started",
		"subject", p.cfg.Subject,
		"workers", p.cfg.Workers,
		"queue_size", p.cfg.QueueSize,
		"rules", p.registry.Count())
	return nil
}

// Stop shuts down the worker pool, waiting up to timeout for queued
// readings to drain. The NATS subscription itself is torn down when the
// client closes.
func (p *Processor) Stop(timeout time.Duration) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if !p.running {
		return nil
	}

	err := p.pool.Stop(timeout)

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	if err != nil {
		return errors.WrapTransient(err, "AlertProcessor", "Stop", "drain worker pool")
	}

	p.logger.Info("alert processor stopped")
	return nil
}

// handleMessage parses a reading off the wire and queues it for
// evaluation. Malformed readings are counted and dropped; a full queue
// sheds the reading instead of blocking the NATS callback.
func (p *Processor) handleMessage(_ context.Context, data []byte) {
	atomic.AddInt64(&p.readingsReceived, 1)
	atomic.AddInt64(&p.bytesReceived, int64(len(data)))
	p.mu.Lock()
	p.lastActivity = time.Now()
	p.mu.Unlock()

	reading, err := types.ParseReading(data)
	if err != nil {
		atomic.AddInt64(&p.readingsInvalid, 1)
		atomic.AddInt64(&p.errorCount, 1)
		p.metrics.recordReading(p.name, "invalid")
		p.logger.Debug("dropping malformed reading", "error", err)
		return
	}

	if err := p.pool.Submit(reading); err != nil {
		atomic.AddInt64(&p.readingsShed, 1)
		p.metrics.recordReading(p.name, "shed")
		p.logger.Warn("evaluation queue full, shedding reading",
			"sourceId", reading.SourceID)
	}
}

// processReading runs on the worker pool: record history, evaluate rules,
// funnel triggers into the capsule manager.
func (p *Processor) processReading(_ context.Context, reading types.Reading) error {
	p.history.Record(reading)

	start := time.Now()
	evals := p.evaluator.Evaluate(reading)
	duration := time.Since(start)

	triggered := 0
	for _, eval := range evals {
		if !eval.Triggered {
			continue
		}
		triggered++
		atomic.AddInt64(&p.triggers, 1)

		event := p.manager.OnTrigger(eval.Rule, reading, eval.Value)
		p.logger.Debug("rule triggered",
			"ruleId", eval.Rule.ID,
			"sourceId", reading.SourceID,
			"value", eval.Value,
			"event", event.Type,
			"capsuleId", event.CapsuleID)
	}

	p.metrics.recordEvaluations(p.name, triggered, len(evals)-triggered, duration)
	p.metrics.recordReading(p.name, "processed")
	return nil
}

// ProcessorStats is the processor block of the stats surface.
type ProcessorStats struct {
	ReadingsReceived int64            `json:"readingsReceived"`
	ReadingsInvalid  int64            `json:"readingsInvalid"`
	ReadingsShed     int64            `json:"readingsShed"`
	Triggers         int64            `json:"triggers"`
	Sources          int              `json:"sources"`
	Queue            worker.PoolStats `json:"queue"`
}

// Stats reports processing counters.
func (p *Processor) Stats() ProcessorStats {
	return ProcessorStats{
		ReadingsReceived: atomic.LoadInt64(&p.readingsReceived),
		ReadingsInvalid:  atomic.LoadInt64(&p.readingsInvalid),
		ReadingsShed:     atomic.LoadInt64(&p.readingsShed),
		Triggers:         atomic.LoadInt64(&p.triggers),
		Sources:          p.history.SourceCount(),
		Queue:            p.pool.Stats(),
	}
}

// Discoverable interface implementation

// Meta returns metadata describing this processor component.
func (p *Processor) Meta() component.Metadata {
	return component.Metadata{
		Name:        p.name,
		Type:        "processor",
		Description: "Evaluates telemetry readings against rules and manages capsule lifecycle",
		Version:     "0.1.0",
	}
}

// InputPorts returns the NATS subject the processor consumes readings from.
func (p *Processor) InputPorts() []component.Port {
	return []component.Port{
		{
			Name:      "readings",
			Direction: component.DirectionInput,
			Required:  true,
			Config: component.NATSPort{
				Subject: p.cfg.Subject,
			},
		},
	}
}

// OutputPorts returns the capsule event subjects and, when configured, the
// action executor request port.
func (p *Processor) OutputPorts() []component.Port {
	var ports []component.Port
	if p.cfg.PublishEvents {
		prefix := p.cfg.EventsSubjectPrefix
		if prefix == "" {
			prefix = defaultEventsPrefix
		}
		ports = append(ports, component.Port{
			Name:      "capsule_events",
			Direction: component.DirectionOutput,
			Required:  false,
			Config: component.NATSPort{
				Subject: prefix + ".>",
			},
		})
	}
	if p.cfg.ActionSubject != "" {
		ports = append(ports, component.Port{
			Name:      "action_executor",
			Direction: component.DirectionOutput,
			Required:  false,
			Config: component.NATSRequestPort{
				Subject: p.cfg.ActionSubject,
				Timeout: p.cfg.ActionTimeout.Std().String(),
			},
		})
	}
	return ports
}

// Health returns the current health status of this processor.
func (p *Processor) Health() component.HealthStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var uptime time.Duration
	if p.running {
		uptime = time.Since(p.startTime)
	}

	return component.HealthStatus{
		Healthy:    p.running,
		LastCheck:  time.Now(),
		ErrorCount: int(atomic.LoadInt64(&p.errorCount)),
		Uptime:     uptime,
	}
}

// DataFlow returns current data flow metrics for this processor.
func (p *Processor) DataFlow() component.FlowMetrics {
	p.mu.RLock()
	defer p.mu.RUnlock()

	received := atomic.LoadInt64(&p.readingsReceived)
	errorCount := atomic.LoadInt64(&p.errorCount)

	var msgRate, byteRate, errorRate float64
	if p.running {
		if secs := time.Since(p.startTime).Seconds(); secs > 0 {
			msgRate = float64(received) / secs
			byteRate = float64(atomic.LoadInt64(&p.bytesReceived)) / secs
		}
	}
	if received > 0 {
		errorRate = float64(errorCount) / float64(received)
	}

	return component.FlowMetrics{
		MessagesPerSecond: msgRate,
		BytesPerSecond:    byteRate,
		ErrorRate:         errorRate,
		LastActivity:      p.lastActivity,
	}
}
