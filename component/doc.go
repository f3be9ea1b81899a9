// Package component provides the core component infrastructure for the
// alerting pipeline: discovery, lifecycle management, port descriptions, and
// shared dependencies.
//
// # Overview
//
// Every stage of the pipeline is a component: the UDP input, the alert
// processor, the WebSocket and NATS outputs, and the admin gateway. A
// component is a self-describing unit the service manager can start, stop,
// and inspect. The pipeline itself is fixed; components are wired explicitly
// in the service package rather than discovered from configuration.
//
// # Lifecycle
//
// Components that do work implement LifecycleComponent:
//
//	Initialize() error                  // allocate state, no I/O
//	Start(ctx context.Context) error    // begin work, context flows through
//	Stop(timeout time.Duration) error   // graceful shutdown within timeout
//
// The service package starts components in dependency order and stops them
// in reverse, each getting the time remaining from a shared shutdown budget.
// Components receive the context through Start and never store it.
//
// Lifecycle rules every component follows:
//   - Stop without Start is a no-op, not an error
//   - Stop is idempotent
//   - Start after Stop either works or fails cleanly after re-Initialize
//
// The exported StandardLifecycleTests suite checks these rules; component
// test files run it against their own factories.
//
// # Discovery
//
// Discoverable exposes what the admin gateway needs to answer health and
// stats queries: Meta, Health, DataFlow, and the input/output Ports. Ports
// carry a Portable config (NetworkPort, NATSPort, NATSRequestPort) whose
// ResourceID doubles as a conflict check for exclusive resources such as
// listen addresses.
//
// # Dependencies
//
// Dependencies bundles the shared infrastructure (NATS client, metrics
// registry, logger) handed to every component constructor. GetLoggerWithComponent
// returns the slog logger pre-tagged with the component name, which is the
// logging convention across the codebase.
package component
