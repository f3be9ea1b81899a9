// Package websocket serves the subscriber-facing capsule event stream.
// Clients connect over WebSocket, declare which capsules they care about,
// and receive lifecycle events for exactly those capsules, in order, until
// they disconnect or fall silent.
//
// # Subscription model
//
// A fresh connection receives a connected greeting carrying its connection
// ID, and nothing else until it subscribes. Subscribe messages merge
// capsule IDs into the connection's filter; the sentinel ID "all" switches
// the connection to firehose mode and supersedes any explicit set. Because
// a freshly created capsule's ID cannot already be in an explicit set,
// capsule_new events reach firehose subscribers only, while capsule_update
// and capsule_removed reach both. Every subscribed reply carries the active
// capsules the new filter matches, so subscribers start from a usable
// snapshot instead of waiting for the next event.
//
// # Liveness
//
// Any inbound traffic counts as life: application heartbeats, protocol
// pongs, subscribe and action messages alike. A sweep runs every heartbeat
// interval and evicts connections silent for longer than the heartbeat
// timeout. The gateway also pings on the same cadence, so well-behaved
// clients that merely read their socket stay alive without sending
// application heartbeats.
//
// # Ordering and backpressure
//
// Each connection has one bounded send queue drained by a single writer
// goroutine. Events are enqueued on the capsule store's mutation path
// without blocking, which preserves the store's per-capsule event order end
// to end. A connection whose queue is full is evicted rather than skipped:
// dropping a single event would silently corrupt the client's view of
// ordering, while disconnecting tells it to reconnect and resubscribe for
// a fresh snapshot.
//
// # Actions
//
// Action messages are relayed into the capsule store. Success and failure
// replies go to the acting connection only; the rest of the subscribers
// just see whatever capsule events a successful action produces.
package websocket
