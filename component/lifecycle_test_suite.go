package component

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// LifecycleFactory creates a fresh LifecycleComponent for testing
type LifecycleFactory func() LifecycleComponent

// StandardLifecycleTests runs the lifecycle conformance suite against any
// LifecycleComponent. Component test files call this with a factory so every
// component honors the same Initialize/Start/Stop contract.
func StandardLifecycleTests(t *testing.T, factory LifecycleFactory) {
	t.Run("Compliance", func(t *testing.T) {
		testLifecycleCompliance(t, factory)
	})
	t.Run("Concurrent", func(t *testing.T) {
		testConcurrentStartStop(t, factory)
	})
}

func testLifecycleCompliance(t *testing.T, factory LifecycleFactory) {
	tests := []struct {
		name string
		test func(t *testing.T, comp LifecycleComponent)
	}{
		{"Initialize", testInitialize},
		{"StartStop", testStartStop},
		{"StopWithoutStart", testStopWithoutStart},
		{"DoubleStop", testDoubleStop},
		{"RestartAfterStop", testRestartAfterStop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp := factory()
			require.NotNil(t, comp, "Component factory returned nil")
			tt.test(t, comp)
		})
	}
}

func testInitialize(t *testing.T, comp LifecycleComponent) {
	err := comp.Initialize()
	assert.NoError(t, err, "Initialize should succeed on fresh component")
}

func testStartStop(t *testing.T, comp LifecycleComponent) {
	require.NoError(t, comp.Initialize(), "Initialize must succeed before Start")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := comp.Start(ctx)
	assert.NoError(t, err, "Start should succeed after Initialize")

	err = comp.Stop(5 * time.Second)
	assert.NoError(t, err, "Stop should succeed after Start")
}

func testStopWithoutStart(t *testing.T, comp LifecycleComponent) {
	err := comp.Stop(5 * time.Second)
	assert.NoError(t, err, "Stop should be safe to call without Start")
}

func testDoubleStop(t *testing.T, comp LifecycleComponent) {
	require.NoError(t, comp.Initialize(), "Initialize must succeed")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, comp.Start(ctx), "Start must succeed")

	err := comp.Stop(5 * time.Second)
	assert.NoError(t, err, "First Stop should succeed")

	err = comp.Stop(5 * time.Second)
	assert.NoError(t, err, "Second Stop should be idempotent")
}

func testRestartAfterStop(t *testing.T, comp LifecycleComponent) {
	require.NoError(t, comp.Initialize(), "Initialize should succeed")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, comp.Start(ctx), "First Start should succeed")
	require.NoError(t, comp.Stop(5*time.Second), "Stop should succeed")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()

	err := comp.Start(ctx2)
	if err != nil {
		// Some components require re-initialization after Stop.
		require.NoError(t, comp.Initialize(), "Re-initialize should succeed if Start fails after Stop")
		assert.NoError(t, comp.Start(ctx2), "Start should succeed after re-initialization")
	}

	assert.NoError(t, comp.Stop(5*time.Second), "Final Stop should succeed")
}

// testConcurrentStartStop verifies racing lifecycle calls never panic and
// leave the component stoppable.
func testConcurrentStartStop(t *testing.T, factory LifecycleFactory) {
	comp := factory()
	require.NotNil(t, comp, "Component factory returned nil")
	require.NoError(t, comp.Initialize(), "Initialize must succeed")

	const starters, stoppers = 20, 20
	results := make([]error, starters+stoppers)

	var wg sync.WaitGroup
	for i := range starters {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			results[idx] = comp.Start(ctx)
		}(i)
	}
	for i := range stoppers {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			time.Sleep(10 * time.Millisecond)
			results[starters+idx] = comp.Stop(5 * time.Second)
		}(i)
	}
	wg.Wait()

	var startOK, stopOK int
	for i, err := range results {
		if err != nil {
			continue
		}
		if i < starters {
			startOK++
		} else {
			stopOK++
		}
	}
	assert.GreaterOrEqual(t, startOK, 1, "At least one Start should succeed")
	assert.GreaterOrEqual(t, stopOK, 1, "At least one Stop should succeed")

	_ = comp.Stop(5 * time.Second)
}
