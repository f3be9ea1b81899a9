// Package errors provides standardized error handling for the alerting pipeline.
//
// # Overview
//
// The errors package implements a three-class error classification system:
// Transient (temporary, retryable), Invalid (bad input, non-retryable), and
// Fatal (unrecoverable, stop processing).
//
// Classification lets components decide about retries, degradation, and
// failure recovery without hardcoded error string matching. A failed NATS
// publish is Transient and worth retrying; a rule with an unknown comparison
// operator is Invalid and never will be; none of them should take the
// process down.
//
// # Error Classification
//
// Errors are classified based on their type or content:
//
//   - Transient: Network timeouts, connection issues, full send queues (retry recommended)
//   - Invalid: Malformed readings, bad rule definitions, unknown actions (do not retry)
//   - Fatal: Resource exhaustion, corrupted state (stop processing)
//
// The classification system integrates with Go's standard error handling,
// supporting errors.Is(), errors.As(), and error wrapping chains.
//
// # Quick Start
//
// Use standard error variables for common conditions:
//
//	if capsule == nil {
//	    return errors.ErrCapsuleNotFound
//	}
//
// Wrap errors with context for debugging:
//
//	if err := json.Unmarshal(data, &reading); err != nil {
//	    return errors.WrapInvalid(err, "AlertProcessor", "processReading", "decode reading")
//	}
//
// Check classification for retry logic:
//
//	if err := publish(event); err != nil {
//	    if errors.IsTransient(err) {
//	        // Retry with backoff via the retry package
//	    } else if errors.IsFatal(err) {
//	        // Escalate to operator
//	    }
//	}
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// This format enables consistent log parsing and debugging across the
// pipeline. The Wrap family of functions applies the pattern while preserving
// error classification through the chain:
//
//	errors.WrapTransient(err, "Component", "Method", "action")  // Retryable
//	errors.WrapInvalid(err, "Component", "Method", "action")    // Validation failures
//	errors.WrapFatal(err, "Component", "Method", "action")      // Unrecoverable
//	errors.Wrap(err, "Component", "Method", "action")           // Preserves original class
//
// # Standard Error Variables
//
// Pre-defined error variables cover the common conditions, organized by
// category:
//
//   - Component lifecycle: ErrAlreadyStarted, ErrNotStarted, ErrAlreadyStopped, ErrShuttingDown
//   - Connections: ErrNoConnection, ErrConnectionLost, ErrConnectionClosed, ErrConnectionTimeout, ErrSendQueueFull
//   - Data handling: ErrInvalidData, ErrInvalidPayload, ErrParsingFailed
//   - Rules and capsules: ErrRuleNotFound, ErrRuleExists, ErrCapsuleNotFound, ErrUnknownAction
//   - Action relay: ErrActionHandler, ErrNoHandler
//   - Configuration: ErrInvalidConfig, ErrMissingConfig
//   - Resources: ErrResourceExhausted, ErrBufferFull
//   - Retry control: ErrCircuitOpen, ErrMaxRetriesExceeded
//
// Use these variables instead of ad-hoc messages so callers can branch with
// errors.Is. IsNotFound folds the two lookup sentinels into one check for
// HTTP handlers that map them to 404.
//
// # Retry Integration
//
// RetryConfig describes retry policy in terms of this package's
// classification; ToRetryConfig converts it for use with pkg/retry:
//
//	config := errors.DefaultRetryConfig()
//	err := retry.Do(ctx, config.ToRetryConfig(), func() error {
//	    return client.Publish(subject, data)
//	})
//
// ShouldRetry consults both the error class and the attempt count, so a
// caller managing its own loop can ask one question per failure.
//
// # Integration with errors.As/Is
//
// All error types support standard library inspection:
//
//	var ce *errors.ClassifiedError
//	if errors.As(err, &ce) {
//	    log.Printf("component: %s, class: %s", ce.Component, ce.Class)
//	}
//
//	// Classification survives wrapping
//	wrapped := errors.Wrap(errors.ErrConnectionTimeout, "Gateway", "Send", "enqueue")
//	errors.IsTransient(wrapped) // true
//
// Context errors (context.DeadlineExceeded, context.Canceled) classify as
// Transient, so context-based timeouts take the same path as network ones.
//
// # Thread Safety
//
// Classification and wrapping are stateless and safe for concurrent use.
// The standard error variables are immutable.
package errors
