// Package httpapi serves the admin REST API for the alerting pipeline.
//
// The API is the operator's control surface: rule CRUD under /api/v1/rules,
// capsule queries and actions under /api/v1/capsules, recent readings and
// known sources, aggregate stats, live WebSocket connection listings, a
// /healthz endpoint that reflects the service health monitor, and the
// Prometheus /metrics endpoint.
//
// All mutations act on the shared in-memory registries. Rule changes take
// effect on the next reading evaluated; there is no restart or reload step.
//
// Error responses are JSON {"error", "status"} bodies. Pipeline errors map
// by class: not-found to 404, invalid input to 400, a missing or failing
// downstream action handler to 502, transient faults to 503. Because this
// surface is for operators, error text is passed through verbatim rather
// than sanitized the way a public edge would.
package httpapi
