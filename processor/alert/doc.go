// Package alert implements the core alerting pipeline: telemetry readings
// are evaluated against a mutable rule set, triggered rules create or
// refresh capsules, and capsule lifecycle events fan out synchronously to
// registered sinks.
//
// # Pipeline
//
// Readings arrive as JSON on a NATS subject (published by the UDP ingress
// or any external producer). The Processor parses each one, records it in
// the bounded per-source history, and hands it to a worker pool for
// evaluation. The Evaluator scans only the rules watching the reading's
// source; each enabled rule whose metric is present and numeric yields a
// trigger decision. Triggered rules are funneled into the CapsuleManager,
// the single writer over all capsule state.
//
// # Capsule lifecycle
//
// The first trigger of a rule creates a capsule from the rule's template,
// interpolating {metricValue}, {sourceId} and {timestamp} tokens into the
// title and description exactly once. Repeat triggers of the same rule
// refresh the existing capsule's metrics and updatedAt without creating a
// duplicate: at most one live capsule exists per rule at any instant. A
// capsule leaves the store only through an explicit resolve or dismiss
// action, never because its triggering condition cleared.
//
// Every mutation dispatches a CapsuleEvent to the registered sinks while
// still holding the store lock, so each sink observes a given capsule's
// events as a prefix of created, updated*, removed. The WebSocket gateway
// registers itself as a sink for live fan-out; NATSEventSink mirrors events
// onto capsules.events.<type> subjects for external consumers.
//
// # Actions
//
// User-initiated actions reach the manager through PerformAction. The verb
// must appear in the capsule's declared action list. Resolve and dismiss
// are handled in-process; any other verb is forwarded to an external
// executor over NATS request/reply (NATSActionForwarder). Failures are
// returned to the caller so they reach the acting subscriber only.
package alert
