// Package capstream implements a streaming telemetry alerting service:
// readings come in over UDP, rules turn them into short-lived alert
// "capsules", and capsule lifecycle events fan out in real time to
// WebSocket subscribers.
//
// # Pipeline
//
// The service is a fixed three-stage pipeline with NATS as the backbone
// between ingress and evaluation:
//
//	┌─────────┐                    ┌──────────────────┐
//	│   UDP   │  telemetry.        │ Alert Processor  │
//	│ Ingress ├──▶ readings.raw ──▶│  rule evaluation │
//	│  :9999  │   (NATS)           │  capsule store   │
//	└─────────┘                    └───────┬──────────┘
//	                                       │ synchronous event dispatch
//	                     ┌─────────────────┼─────────────────┐
//	                     ▼                 ▼                 ▼
//	              ┌────────────┐   ┌──────────────┐   capsules.events.*
//	              │ WebSocket  │   │  Admin API   │   (NATS, external
//	              │  Gateway   │   │ :8080 /api/v1│    consumers)
//	              │ :8081 /ws  │   └──────────────┘
//	              └────────────┘
//
// A Reading is {sourceId, metrics, timestamp}. Rules are looked up by
// sourceId, compare one metric against a threshold, and on a hit either
// create a capsule or update the existing one: at most one live capsule
// exists per rule. Capsules retire only through explicit resolve/dismiss
// actions, never because the condition cleared.
//
// Delivery to subscribers is best effort and at most once. Each connection
// has a bounded send queue; a subscriber that cannot keep up is evicted
// rather than allowed to block or to observe holes mid-stream, so any
// surviving connection sees each capsule's events as a prefix of
// created, updated..., removed. An application-level heartbeat sweep
// evicts silent connections.
//
// # Packages
//
// Pipeline components:
//   - input/udp: UDP reading ingress, datagram validation, NATS publish
//   - processor/alert: rule registry, evaluator, capsule lifecycle store,
//     reading history, event sinks, action forwarding
//   - output/websocket: the distribution gateway with subscription
//     filtering and liveness detection
//   - gateway/httpapi: admin REST API for rules, capsules, and stats
//   - service: wires the shared registries and runs the pipeline
//
// Infrastructure:
//   - component: Discoverable/LifecycleComponent contracts and ports
//   - natsclient: NATS connection management with health monitoring
//   - config: layered JSON/YAML configuration with env overrides
//   - errors: classified errors (transient, invalid, fatal) and sentinels
//   - metric: Prometheus registry wrapper, /metrics handler
//   - health: per-component health aggregation behind /healthz
//   - types: Reading, Rule, Capsule, and the capsule event envelope
//
// Utilities:
//   - pkg/buffer: generic ring buffer (ingress staging, reading history)
//   - pkg/worker: generic worker pool (evaluation concurrency)
//   - pkg/retry: backoff policies (socket binds, NATS connect)
//   - pkg/timestamp: millisecond Unix timestamps used on the wire
//
// # Binary
//
//	# run on built-in defaults (NATS on localhost:4222)
//	./bin/capstream
//
//	# run with a config file and debug logging
//	./bin/capstream --config=/etc/capstream/config.yaml --log-level=debug
//
//	# validate configuration and exit
//	./bin/capstream --config=/etc/capstream/config.yaml --validate
//
// Configuration merges built-in defaults, the optional config file, and
// CAPSTREAM_* environment variables, in that order. Rules may be
// preloaded from the config file or a separate rules file; the admin API
// mutates them at runtime.
package capstream
