// Package worker provides a generic, thread-safe worker pool for concurrent
// task processing.
//
// # Overview
//
// The worker package implements a fixed-size pool of goroutines reading from
// a bounded queue. The alert processor runs one to evaluate incoming
// telemetry readings off the NATS subscription callback, so rule evaluation
// and capsule mutation never run on the client's delivery goroutine.
//
// Core properties:
//   - Generic work type T, no assertions in the processor
//   - Non-blocking Submit with ErrQueueFull as the backpressure signal
//   - Context-aware workers and graceful Stop with a timeout
//   - Always-on atomic statistics, optional Prometheus metrics
//
// # Quick Start
//
//	pool, err := worker.NewPool(4, 1000,
//		func(ctx context.Context, r types.Reading) error {
//			return process(ctx, r)
//		},
//	)
//	if err != nil {
//		return err
//	}
//
//	if err := pool.Start(ctx); err != nil {
//		return err
//	}
//	defer pool.Stop(5 * time.Second)
//
//	if err := pool.Submit(reading); err != nil {
//		if errors.Is(err, worker.ErrQueueFull) {
//			// overloaded: the reading is shed, not queued
//		}
//	}
//
// # Backpressure
//
// Submit never blocks. A full queue means the workers are behind, and the
// correct response in a telemetry pipeline is to shed the incoming item and
// count it, not to stall the producer. Callers that must not lose work can
// wrap Submit in retry.Do, but the ingest path deliberately does not.
//
// # Ordering
//
// Items are delivered to workers in submission order, but with more than one
// worker two items can be processed concurrently and complete out of order.
// The alert processor runs a single worker by default so readings for a
// source are evaluated in arrival order; raise the worker count only when
// out-of-order evaluation across readings is acceptable.
//
// # Lifecycle
//
// Start launches the workers with the given context. Stop closes the queue,
// refuses further submissions, and waits up to the timeout for the workers
// to drain what was already queued. On timeout it returns ErrStopTimeout;
// the pool stays unusable either way, and later Submit calls get
// ErrPoolStopped. Cancelling the Start context stops workers immediately
// without draining.
//
// # Observability
//
// Statistics are always tracked with atomic counters and returned by Stats:
// submitted, processed, failed, dropped, plus the live queue depth. The
// failed counter counts processor invocations that returned an error; the
// pool does not interpret or retry them.
//
// WithMetrics additionally exports the counters, queue gauges, and a
// processing-duration histogram (labelled by status) through the shared
// metric registry. Queue gauges are refreshed once a second.
//
// # Limitations
//
// Worker count is fixed at construction, items cannot be cancelled once
// queued, and there is no per-item timeout. Processors that need a deadline
// derive one from the context they receive.
package worker
