// Package buffer provides thread-safe circular buffers with configurable drop
// policies, built-in statistics tracking, and optional Prometheus metrics
// integration.
//
// # Overview
//
// The buffer package implements fixed-capacity circular buffers for managing
// data flow between producers and consumers. The alerting pipeline uses them
// in two places: the ingest queue between the UDP listener and the alert
// processor, and the bounded per-source reading history kept by the
// processor. Buffers are generic, thread-safe, and observable through
// always-on statistics and optional metrics.
//
// # Quick Start
//
// Basic buffer creation:
//
//	buf, err := buffer.NewCircularBuffer[types.Reading](1000)
//	if err != nil {
//		return err
//	}
//
//	// Write data
//	err = buf.Write(reading)
//
//	// Read data
//	reading, ok := buf.Read()
//
// With drop policy and metrics:
//
//	buf, err := buffer.NewCircularBuffer[[]byte](5000,
//		buffer.WithOverflowPolicy[[]byte](buffer.DropOldest),
//		buffer.WithMetrics[[]byte](registry, "udp_input"),
//	)
//
// # Drop Policies
//
// Writes never block. When a buffer is full, the policy decides which item
// to discard:
//
//   - DropOldest: evict the oldest item to make room (default)
//   - DropNewest: reject the incoming item
//
// There is no blocking policy. A full buffer means the consumer is behind,
// and stalling the producer would push backpressure into the UDP read loop
// or the processor's mutation path, where it cannot be tolerated. Dropped
// items are counted in statistics and, when configured, reported through
// WithDropCallback.
//
// # History Snapshots
//
// Items returns a copy of the buffered items in insertion order without
// consuming them. The alert processor keeps one DropOldest buffer per
// telemetry source and serves history queries from Items snapshots, so a
// reader never contends with the write path for more than the copy:
//
//	history, _ := buffer.NewCircularBuffer[types.Reading](1000)
//	...
//	recent := history.Items() // oldest first
//
// # Observability
//
// Statistics (always on):
//   - Tracks writes, reads, drops, and overflows with atomic counters
//   - Zero configuration, no external dependencies
//   - Available via buf.Stats()
//   - Provides computed values (throughput, drop rate, utilization)
//
// Prometheus metrics (optional):
//   - Enabled via WithMetrics with a registry and a unique prefix
//   - Counters for writes/reads/drops/overflows, gauges for size/utilization
//   - Labeled with the owning component name
//
// Both layers track operations independently. Statistics stay available in
// tests and in deployments without a metrics endpoint, and they expose
// derived values (rates, percentages) that raw Prometheus counters do not.
// The cost is one extra atomic increment per operation.
//
// The ingest queue registers metrics; the per-source history buffers do
// not, because a metric family per source id would grow without bound.
//
// # Thread Safety
//
// All operations are safe for concurrent use:
//   - Multiple producers can write concurrently
//   - Multiple consumers can read concurrently
//   - Statistics use atomic operations
//   - Internal state is protected by sync.RWMutex
//
// # Performance Characteristics
//
// Operations:
//   - Write: O(1)
//   - Read: O(1)
//   - ReadBatch: O(n) in the batch size
//   - Items: O(n) in the current size
//   - Peek/Size/IsFull/IsEmpty: O(1)
//
// Memory is a single pre-allocated array of capacity * sizeof(T); no
// allocations happen on the write or read path.
//
// # Testing
//
// The package includes tests with race detection and benchmarks:
//
//	go test -race ./pkg/buffer
//	go test -bench=. ./pkg/buffer
package buffer
