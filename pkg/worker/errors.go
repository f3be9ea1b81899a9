package worker

import "errors"

// Sentinel errors for pool lifecycle and submission. These stay plain stdlib
// errors: every one of them is either a programming error or a backpressure
// signal, and callers match them with errors.Is rather than by class.
var (
	// ErrPoolNotStarted is returned by Submit before Start has run.
	ErrPoolNotStarted = errors.New("worker pool not started")

	// ErrPoolStopped is returned by Submit after Stop has run.
	ErrPoolStopped = errors.New("worker pool stopped")

	// ErrPoolAlreadyStarted is returned by Start on a running pool.
	ErrPoolAlreadyStarted = errors.New("worker pool already started")

	// ErrQueueFull signals the work queue is at capacity and the item was dropped.
	ErrQueueFull = errors.New("worker pool queue full")

	// ErrNilProcessor is returned by NewPool when no processor is given.
	ErrNilProcessor = errors.New("processor function cannot be nil")

	// ErrStopTimeout means workers did not drain the queue within the Stop timeout.
	ErrStopTimeout = errors.New("timeout waiting for workers to stop")
)
