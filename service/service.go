package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/industriverse/capstream/component"
	"github.com/industriverse/capstream/config"
	"github.com/industriverse/capstream/errors"
	"github.com/industriverse/capstream/gateway/httpapi"
	"github.com/industriverse/capstream/health"
	"github.com/industriverse/capstream/input/udp"
	"github.com/industriverse/capstream/metric"
	"github.com/industriverse/capstream/natsclient"
	"github.com/industriverse/capstream/output/websocket"
	"github.com/industriverse/capstream/pkg/retry"
	"github.com/industriverse/capstream/processor/alert"
)

// healthRefreshInterval is how often component health is mirrored into the
// service health monitor backing /healthz.
const healthRefreshInterval = 15 * time.Second

// Status represents the current lifecycle state of the service
type Status int

// Possible service statuses
const (
	StatusStopped Status = iota
	StatusStarting
	StatusRunning
	StatusStopping
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusStarting:
		return "starting"
	case StatusRunning:
		return "running"
	case StatusStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Info is a snapshot of the running service for logs and diagnostics.
type Info struct {
	Name        string        `json:"name"`
	Status      Status        `json:"status"`
	StartTime   time.Time     `json:"startTime"`
	Uptime      time.Duration `json:"uptime"`
	IngestAddr  string        `json:"ingestAddr,omitempty"`
	GatewayAddr string        `json:"gatewayAddr,omitempty"`
	AdminAddr   string        `json:"adminAddr,omitempty"`
}

// Service assembles the full pipeline: NATS backbone, UDP ingress, alert
// processor, WebSocket gateway, and admin API, sharing one rule registry and
// capsule store. Startup is ordered so consumers exist before producers;
// shutdown runs the same order in reverse.
type Service struct {
	cfg    *config.Config
	logger *slog.Logger

	nats     *natsclient.Client
	metrics  *metric.MetricsRegistry
	monitor  *health.Monitor
	rules    *alert.RuleRegistry
	capsules *alert.CapsuleManager

	processor *alert.Processor
	ingest    *udp.Input
	gateway   *websocket.Gateway
	admin     *httpapi.Server

	// pipeline holds the same four components in start order.
	pipeline []component.LifecycleComponent

	status    Status
	startTime time.Time
	stopHeal  chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
}

// New builds the service from configuration. Nothing is started and no
// sockets are bound until Start.
func New(cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "Service", "New", "validate configuration")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("service", cfg.Service.Name)

	metrics := metric.NewMetricsRegistry()
	monitor := health.NewMonitor()

	nats, err := newNATSClient(cfg, logger, metrics)
	if err != nil {
		return nil, err
	}

	deps := component.Dependencies{
		NATSClient:      nats,
		MetricsRegistry: metrics,
		Logger:          logger,
	}

	rules := alert.NewRuleRegistry()
	capsules := alert.NewCapsuleManager(deps.GetLoggerWithComponent("capsule-manager"))

	s := &Service{
		cfg:      cfg,
		logger:   logger,
		nats:     nats,
		metrics:  metrics,
		monitor:  monitor,
		rules:    rules,
		capsules: capsules,
		status:   StatusStopped,
	}

	if err := s.seedRules(); err != nil {
		return nil, err
	}

	s.processor, err = alert.NewProcessor(cfg.Processor, rules, capsules, deps)
	if err != nil {
		return nil, err
	}

	s.ingest, err = udp.NewInput(cfg.Ingest, deps)
	if err != nil {
		return nil, err
	}

	s.gateway, err = websocket.NewGateway(cfg.Gateway, capsules, deps)
	if err != nil {
		return nil, err
	}
	// The gateway consumes capsule events synchronously from the store.
	capsules.AddSink(s.gateway)

	s.admin, err = httpapi.NewServer(cfg.Admin, httpapi.Deps{
		Rules:       rules,
		Capsules:    capsules,
		History:     s.processor.History(),
		Processor:   s.processor,
		Ingest:      s.ingest,
		Gateway:     s.gateway,
		Health:      monitor,
		Metrics:     metrics,
		Logger:      logger,
		ServiceName: cfg.Service.Name,
	})
	if err != nil {
		return nil, err
	}

	// Start order: the processor subscribes before the ingress publishes,
	// and the serving surfaces come up last. Stop walks this in reverse.
	s.pipeline = []component.LifecycleComponent{s.processor, s.ingest, s.gateway, s.admin}

	nats.OnHealthChange(func(healthy bool) {
		if healthy {
			monitor.UpdateHealthy("nats", "connected")
		} else {
			monitor.UpdateUnhealthy("nats", "connection lost")
		}
	})

	return s, nil
}

func newNATSClient(cfg *config.Config, logger *slog.Logger, metrics *metric.MetricsRegistry) (*natsclient.Client, error) {
	opts := []natsclient.ClientOption{
		natsclient.WithName(cfg.Service.Name),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		natsclient.WithLogger(logger),
		natsclient.WithMetrics(metrics),
	}
	if cfg.NATS.ReconnectWait > 0 {
		opts = append(opts, natsclient.WithReconnectWait(cfg.NATS.ReconnectWait.Std()))
	}
	if cfg.NATS.Username != "" {
		opts = append(opts, natsclient.WithCredentials(cfg.NATS.Username, cfg.NATS.Password))
	}
	if cfg.NATS.Token != "" {
		opts = append(opts, natsclient.WithToken(cfg.NATS.Token))
	}
	if cfg.NATS.TLS.Enabled {
		opts = append(opts, natsclient.WithTLS(cfg.NATS.TLS.CertFile, cfg.NATS.TLS.KeyFile, cfg.NATS.TLS.CAFile))
	}
	return natsclient.NewClient(strings.Join(cfg.NATS.URLs, ","), opts...)
}

// seedRules loads the startup rule set: file rules first, then inline rules.
// A bad rule fails construction; a half-seeded registry is worse than a
// startup error.
func (s *Service) seedRules() error {
	var seeded int

	if s.cfg.Rules.File != "" {
		fileRules, err := config.LoadRulesFile(s.cfg.Rules.File)
		if err != nil {
			return errors.WrapInvalid(err, "Service", "seedRules",
				fmt.Sprintf("load rules file %s", s.cfg.Rules.File))
		}
		for _, rule := range fileRules {
			if err := s.rules.Add(rule); err != nil {
				return errors.WrapInvalid(err, "Service", "seedRules",
					fmt.Sprintf("register rule %q from %s", rule.ID, s.cfg.Rules.File))
			}
			seeded++
		}
	}

	for _, rule := range s.cfg.Rules.Rules {
		if err := s.rules.Add(rule); err != nil {
			return errors.WrapInvalid(err, "Service", "seedRules",
				fmt.Sprintf("register inline rule %q", rule.ID))
		}
		seeded++
	}

	if seeded > 0 {
		s.logger.Info("rules seeded", "count", seeded)
	}
	return nil
}

// Start brings the pipeline up: NATS first, then the processor so a consumer
// exists before the ingress produces, then the ingress and the two serving
// surfaces. A failure rolls back everything already started.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.status != StatusStopped {
		s.mu.Unlock()
		return errors.WrapFatal(errors.ErrAlreadyStarted, "Service", "Start", "check status")
	}
	s.status = StatusStarting
	s.mu.Unlock()

	s.logger.Info("starting service", "name", s.cfg.Service.Name)

	if err := retry.Do(ctx, retry.Persistent(), func() error {
		return s.nats.Connect(ctx)
	}); err != nil {
		s.setStatus(StatusStopped)
		return errors.WrapTransient(err, "Service", "Start", "connect to NATS")
	}
	s.monitor.UpdateHealthy("nats", "connected")

	var started []component.LifecycleComponent
	unwind := func() {
		for idx := len(started) - 1; idx >= 0; idx-- {
			_ = started[idx].Stop(5 * time.Second)
		}
		_ = s.nats.Close(context.Background())
		s.setStatus(StatusStopped)
	}

	for _, comp := range s.pipeline {
		if err := comp.Initialize(); err != nil {
			unwind()
			return err
		}
		if err := comp.Start(ctx); err != nil {
			unwind()
			return err
		}
		started = append(started, comp)
	}

	s.mu.Lock()
	s.status = StatusRunning
	s.startTime = time.Now()
	s.stopHeal = make(chan struct{})
	s.mu.Unlock()

	s.refreshHealth()
	s.wg.Add(1)
	go s.healthLoop()

	s.logger.Info("service started",
		"ingest", s.ingest.Addr(),
		"gateway", s.gateway.Addr(),
		"admin", s.admin.Addr())
	return nil
}

// Stop tears the pipeline down in reverse start order. Every component gets
// the time remaining from the shared budget; errors are collected rather
// than aborting the shutdown.
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if s.status != StatusRunning {
		s.mu.Unlock()
		return nil
	}
	s.status = StatusStopping
	close(s.stopHeal)
	s.mu.Unlock()

	s.logger.Info("stopping service")
	s.wg.Wait()

	deadline := time.Now().Add(timeout)
	remaining := func() time.Duration {
		d := time.Until(deadline)
		if d < 100*time.Millisecond {
			return 100 * time.Millisecond
		}
		return d
	}

	var errs []error
	record := func(name string, err error) {
		if err != nil {
			s.logger.Error("component stop failed", "component", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	for idx := len(s.pipeline) - 1; idx >= 0; idx-- {
		comp := s.pipeline[idx]
		record(comp.Meta().Name, comp.Stop(remaining()))
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), remaining())
	record("nats", s.nats.Close(closeCtx))
	cancel()

	s.setStatus(StatusStopped)
	s.logger.Info("service stopped")
	return stderrors.Join(errs...)
}

// Run starts the service and blocks until ctx is cancelled, then shuts down
// with the configured timeout.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop(s.cfg.Service.ShutdownTimeout.Std())
}

func (s *Service) setStatus(status Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// healthLoop mirrors component health into the monitor until Stop.
func (s *Service) healthLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(healthRefreshInterval)
	defer ticker.Stop()

	s.mu.RLock()
	stop := s.stopHeal
	s.mu.RUnlock()

	for {
		select {
		case <-ticker.C:
			s.refreshHealth()
		case <-stop:
			return
		}
	}
}

func (s *Service) refreshHealth() {
	for _, comp := range s.pipeline {
		name := comp.Meta().Name
		s.monitor.Update(name, health.FromComponentHealth(name, comp.Health()))
	}

	if s.nats.IsHealthy() {
		s.monitor.UpdateHealthy("nats", "connected")
	} else {
		s.monitor.UpdateUnhealthy("nats", "connection unhealthy")
	}
}

// Info returns a snapshot of the service state.
func (s *Service) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := Info{
		Name:      s.cfg.Service.Name,
		Status:    s.status,
		StartTime: s.startTime,
	}
	if s.status == StatusRunning {
		info.Uptime = time.Since(s.startTime)
		info.IngestAddr = s.ingest.Addr()
		info.GatewayAddr = s.gateway.Addr()
		info.AdminAddr = s.admin.Addr()
	}
	return info
}

// Rules exposes the shared rule registry.
func (s *Service) Rules() *alert.RuleRegistry {
	return s.rules
}

// Capsules exposes the shared capsule store.
func (s *Service) Capsules() *alert.CapsuleManager {
	return s.capsules
}

// Health exposes the service health monitor.
func (s *Service) Health() *health.Monitor {
	return s.monitor
}
