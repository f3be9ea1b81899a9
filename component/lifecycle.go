package component

import (
	"context"
	"time"
)

// LifecycleComponent defines components that support full lifecycle management:
//   - Initialize() error                  // setup only, no context
//   - Start(ctx context.Context) error    // begin work, context passed through
//   - Stop(timeout time.Duration) error   // graceful shutdown within timeout
//
// The service package starts components in dependency order and stops them in
// reverse with a shared timeout budget. Components receive the context through
// Start and never store it.
type LifecycleComponent interface {
	Discoverable
	Initialize() error
	Start(ctx context.Context) error
	Stop(timeout time.Duration) error
}
