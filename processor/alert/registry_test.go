package alert

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/industriverse/capstream/errors"
	"github.com/industriverse/capstream/pkg/timestamp"
	"github.com/industriverse/capstream/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRule(id string) types.Rule {
	return types.Rule{
		ID:        id,
		Name:      "High Temperature",
		Enabled:   true,
		SourceID:  "motor_001",
		Metric:    "temperature",
		Operator:  types.OpGreaterThan,
		Threshold: 80,
		Template: types.CapsuleTemplate{
			Title:       "Temperature {metricValue} on {sourceId}",
			Description: "Threshold exceeded at {timestamp}",
			Priority:    "high",
			Category:    "thermal",
			Actions:     []string{"resolve", "dismiss", "mitigate"},
		},
	}
}

func testReading(sourceID string, metrics map[string]any) types.Reading {
	return types.Reading{
		SourceID:  sourceID,
		Metrics:   metrics,
		Timestamp: timestamp.Now(),
	}
}

func TestRuleRegistry_Add(t *testing.T) {
	r := NewRuleRegistry()

	require.NoError(t, r.Add(testRule("rule-1")))
	assert.Equal(t, 1, r.Count())

	got, ok := r.Get("rule-1")
	require.True(t, ok)
	assert.Equal(t, "motor_001", got.SourceID)
}

func TestRuleRegistry_AddDuplicate(t *testing.T) {
	r := NewRuleRegistry()
	require.NoError(t, r.Add(testRule("rule-1")))

	err := r.Add(testRule("rule-1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrRuleExists)
	assert.Equal(t, 1, r.Count())
}

func TestRuleRegistry_AddInvalid(t *testing.T) {
	r := NewRuleRegistry()

	rule := testRule("rule-1")
	rule.Operator = "~="
	err := r.Add(rule)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.Equal(t, 0, r.Count())
}

func TestRuleRegistry_Update(t *testing.T) {
	r := NewRuleRegistry()
	require.NoError(t, r.Add(testRule("rule-1")))

	threshold := 90.0
	updated, err := r.Update("rule-1", types.RulePatch{Threshold: &threshold})
	require.NoError(t, err)
	assert.Equal(t, 90.0, updated.Threshold)

	got, _ := r.Get("rule-1")
	assert.Equal(t, 90.0, got.Threshold)
}

func TestRuleRegistry_UpdateNotFound(t *testing.T) {
	r := NewRuleRegistry()

	enabled := false
	_, err := r.Update("missing", types.RulePatch{Enabled: &enabled})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestRuleRegistry_UpdateInvalidKeepsOriginal(t *testing.T) {
	r := NewRuleRegistry()
	require.NoError(t, r.Add(testRule("rule-1")))

	bad := types.Operator("~=")
	_, err := r.Update("rule-1", types.RulePatch{Operator: &bad})
	require.Error(t, err)

	got, _ := r.Get("rule-1")
	assert.Equal(t, types.OpGreaterThan, got.Operator)
}

func TestRuleRegistry_UpdateMovesSourceIndex(t *testing.T) {
	r := NewRuleRegistry()
	require.NoError(t, r.Add(testRule("rule-1")))

	source := "motor_002"
	_, err := r.Update("rule-1", types.RulePatch{SourceID: &source})
	require.NoError(t, err)

	assert.Empty(t, r.ForSource("motor_001"))
	require.Len(t, r.ForSource("motor_002"), 1)
}

func TestRuleRegistry_Remove(t *testing.T) {
	r := NewRuleRegistry()
	require.NoError(t, r.Add(testRule("rule-1")))

	require.NoError(t, r.Remove("rule-1"))
	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.ForSource("motor_001"))

	err := r.Remove("rule-1")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestRuleRegistry_ForSource(t *testing.T) {
	r := NewRuleRegistry()
	require.NoError(t, r.Add(testRule("rule-1")))

	vibration := testRule("rule-2")
	vibration.Metric = "vibration"
	require.NoError(t, r.Add(vibration))

	elsewhere := testRule("rule-3")
	elsewhere.SourceID = "pump_007"
	require.NoError(t, r.Add(elsewhere))

	assert.Len(t, r.ForSource("motor_001"), 2)
	assert.Len(t, r.ForSource("pump_007"), 1)
	assert.Nil(t, r.ForSource("unknown"))
}

func TestRuleRegistry_ListSorted(t *testing.T) {
	r := NewRuleRegistry()
	for _, id := range []string{"rule-c", "rule-a", "rule-b"} {
		require.NoError(t, r.Add(testRule(id)))
	}

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "rule-a", list[0].ID)
	assert.Equal(t, "rule-b", list[1].ID)
	assert.Equal(t, "rule-c", list[2].ID)
}

func TestRuleRegistry_Stats(t *testing.T) {
	r := NewRuleRegistry()
	require.NoError(t, r.Add(testRule("rule-1")))

	disabled := testRule("rule-2")
	disabled.Enabled = false
	require.NoError(t, r.Add(disabled))

	stats := r.Stats()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Enabled)
}

func TestRuleRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRuleRegistry()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Add(testRule(fmt.Sprintf("rule-%d", i)))
			r.ForSource("motor_001")
			r.List()
			r.Stats()
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, r.Count())
}
