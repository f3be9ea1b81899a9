package httpapi

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/industriverse/capstream/component"
	"github.com/industriverse/capstream/config"
	"github.com/industriverse/capstream/errors"
	"github.com/industriverse/capstream/health"
	"github.com/industriverse/capstream/input/udp"
	"github.com/industriverse/capstream/metric"
	"github.com/industriverse/capstream/output/websocket"
	"github.com/industriverse/capstream/processor/alert"
)

const componentName = "admin-api"

const requestTimeout = 30 * time.Second

// Deps carries the pipeline surfaces the admin API exposes. Rules and
// Capsules are required; everything else degrades gracefully when nil, so
// partial assemblies and tests can run a trimmed API.
type Deps struct {
	Rules       *alert.RuleRegistry
	Capsules    *alert.CapsuleManager
	History     *alert.ReadingHistory
	Processor   *alert.Processor
	Ingest      *udp.Input
	Gateway     *websocket.Gateway
	Health      *health.Monitor
	Metrics     *metric.MetricsRegistry
	Logger      *slog.Logger
	ServiceName string
}

// Server is the admin HTTP API: rule CRUD, capsule queries and actions,
// reading history, stats, health, and Prometheus metrics. It mutates shared
// in-memory state directly; nothing here persists.
type Server struct {
	name string
	cfg  config.AdminConfig

	deps        Deps
	serviceName string
	logger      *slog.Logger
	router      http.Handler

	// Lifecycle management
	running     bool
	startTime   time.Time
	listener    net.Listener
	server      *http.Server
	wg          *sync.WaitGroup
	mu          sync.RWMutex
	lifecycleMu sync.Mutex

	// Counters for DataFlow
	requestsTotal  int64
	requestsFailed int64
	bytesSent      int64
	lastActivity   time.Time

	// Prometheus metrics
	metrics *adminMetrics
}

var _ component.Discoverable = (*Server)(nil)
var _ component.LifecycleComponent = (*Server)(nil)

// NewServer builds the admin API around the shared rule registry and
// capsule manager.
func NewServer(cfg config.AdminConfig, deps Deps) (*Server, error) {
	if cfg.ListenAddr == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "AdminAPI", "NewServer",
			"listen address required")
	}
	if deps.Rules == nil || deps.Capsules == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "AdminAPI", "NewServer",
			"rule registry and capsule manager required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", componentName)

	serviceName := deps.ServiceName
	if serviceName == "" {
		serviceName = "capstream"
	}

	metrics, err := newAdminMetrics(deps.Metrics, componentName)
	if err != nil {
		logger.Error("Failed to initialize admin API metrics", "error", err)
		metrics = nil // Continue without metrics
	}

	s := &Server{
		name:        componentName,
		cfg:         cfg,
		deps:        deps,
		serviceName: serviceName,
		logger:      logger,
		metrics:     metrics,
	}
	s.router = s.buildRouter()
	return s, nil
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(s.instrument)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found", Status: http.StatusNotFound})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed", Status: http.StatusMethodNotAllowed})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/rules", func(r chi.Router) {
			r.Get("/", s.handleRulesList)
			r.Post("/", s.handleRuleCreate)
			r.Get("/{id}", s.handleRuleGet)
			r.Put("/{id}", s.handleRuleUpdate)
			r.Delete("/{id}", s.handleRuleDelete)
			r.Post("/{id}/enable", s.handleRuleEnable)
			r.Post("/{id}/disable", s.handleRuleDisable)
		})
		r.Route("/capsules", func(r chi.Router) {
			r.Get("/", s.handleCapsulesList)
			r.Get("/{id}", s.handleCapsuleGet)
			r.Post("/{id}/actions", s.handleCapsuleAction)
		})
		r.Get("/sources", s.handleSources)
		r.Get("/readings/{sourceId}", s.handleReadings)
		r.Get("/stats", s.handleStats)
		r.Get("/connections", s.handleConnections)
	})

	r.Get("/healthz", s.handleHealthz)
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())
	}

	return r
}

// instrument counts requests and feeds the Prometheus request metrics.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		atomic.AddInt64(&s.requestsTotal, 1)
		if ww.Status() >= http.StatusInternalServerError {
			atomic.AddInt64(&s.requestsFailed, 1)
		}
		atomic.AddInt64(&s.bytesSent, int64(ww.BytesWritten()))
		s.mu.Lock()
		s.lastActivity = time.Now()
		s.mu.Unlock()

		route := chi.RouteContext(r.Context()).RoutePattern()
		s.metrics.recordRequest(s.name, r.Method, route, ww.Status(), time.Since(start))
	})
}

// Initialize prepares the server. Routing is built at construction time.
func (s *Server) Initialize() error {
	return nil
}

// Start binds the listen address and serves the API.
func (s *Server) Start(_ context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.running {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "AdminAPI", "Start", "check running state")
	}

	listener, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return errors.WrapTransient(err, "AdminAPI", "Start",
			fmt.Sprintf("listen on %s", s.cfg.ListenAddr))
	}

	wg := &sync.WaitGroup{}

	s.mu.Lock()
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       requestTimeout,
		IdleTimeout:       60 * time.Second,
	}
	s.wg = wg
	s.running = true
	s.startTime = time.Now()
	s.mu.Unlock()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.server.Serve(listener); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			atomic.AddInt64(&s.requestsFailed, 1)
			s.logger.Error("admin API server failed", "error", err)
		}
	}()

	s.logger.Info("admin API started", "addr", listener.Addr().String())
	return nil
}

// Stop shuts the server down, waiting up to timeout for in-flight requests.
func (s *Server) Stop(timeout time.Duration) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	server := s.server
	wg := s.wg
	s.mu.Unlock()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("admin API shutdown", "error", err)
		}
	}
	if wg != nil {
		wg.Wait()
	}

	s.mu.Lock()
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	s.logger.Info("admin API stopped")
	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Discoverable interface implementation

// Meta returns metadata describing this server component.
func (s *Server) Meta() component.Metadata {
	return component.Metadata{
		Name:        s.name,
		Type:        "gateway",
		Description: fmt.Sprintf("Admin REST API on %s", s.cfg.ListenAddr),
		Version:     "0.1.0",
	}
}

// InputPorts returns no ports: the API is request driven.
func (s *Server) InputPorts() []component.Port {
	return []component.Port{}
}

// OutputPorts returns no ports: responses go back on the request.
func (s *Server) OutputPorts() []component.Port {
	return []component.Port{}
}

// Health returns the current health status of this server.
func (s *Server) Health() component.HealthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var uptime time.Duration
	if s.running {
		uptime = time.Since(s.startTime)
	}

	return component.HealthStatus{
		Healthy:    s.running,
		LastCheck:  time.Now(),
		ErrorCount: int(atomic.LoadInt64(&s.requestsFailed)),
		Uptime:     uptime,
	}
}

// DataFlow returns request throughput metrics for this server.
func (s *Server) DataFlow() component.FlowMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := atomic.LoadInt64(&s.requestsTotal)

	var msgRate, byteRate, errorRate float64
	if s.running {
		if secs := time.Since(s.startTime).Seconds(); secs > 0 {
			msgRate = float64(total) / secs
			byteRate = float64(atomic.LoadInt64(&s.bytesSent)) / secs
		}
	}
	if total > 0 {
		errorRate = float64(atomic.LoadInt64(&s.requestsFailed)) / float64(total)
	}

	return component.FlowMetrics{
		MessagesPerSecond: msgRate,
		BytesPerSecond:    byteRate,
		ErrorRate:         errorRate,
		LastActivity:      s.lastActivity,
	}
}
