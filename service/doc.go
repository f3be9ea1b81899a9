// Package service assembles the capstream pipeline into one runnable unit.
//
// New wires the shared infrastructure (NATS client, metrics registry, health
// monitor) into the pipeline components: UDP ingress, alert processor,
// WebSocket gateway, and admin API. The rule registry and capsule store are
// built here and shared by reference; the processor writes capsules, the
// gateway streams their events, and the admin API mutates rules, all against
// the same instances.
//
// Start order is fixed: NATS, processor, ingress, gateway, admin. The
// processor subscribes before the ingress publishes so readings are not
// produced into a consumerless subject, and the serving surfaces come up
// last so they never show a half-built pipeline. Stop runs the same order in
// reverse against a shared time budget. Rule seeding (file first, then
// inline config) happens at construction; a rule that fails validation
// fails startup outright.
package service
