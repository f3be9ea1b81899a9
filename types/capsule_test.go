package types_test

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/industriverse/capstream/types"
)

func TestCapsuleStatusValid(t *testing.T) {
	valid := []types.CapsuleStatus{
		types.StatusActive, types.StatusWarning, types.StatusCritical,
		types.StatusResolved, types.StatusDismissed,
	}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}

	for _, s := range []types.CapsuleStatus{"", "open", "ACTIVE"} {
		if s.Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestCapsuleStatusRetired(t *testing.T) {
	tests := []struct {
		status types.CapsuleStatus
		want   bool
	}{
		{types.StatusActive, false},
		{types.StatusWarning, false},
		{types.StatusCritical, false},
		{types.StatusResolved, true},
		{types.StatusDismissed, true},
	}

	for _, tt := range tests {
		if got := tt.status.Retired(); got != tt.want {
			t.Errorf("%q.Retired() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestStatusForPriority(t *testing.T) {
	tests := []struct {
		priority string
		want     types.CapsuleStatus
	}{
		{"critical", types.StatusCritical},
		{"high", types.StatusCritical},
		{"CRITICAL", types.StatusCritical},
		{"warning", types.StatusWarning},
		{"medium", types.StatusWarning},
		{"low", types.StatusActive},
		{"", types.StatusActive},
		{"unknown", types.StatusActive},
	}

	for _, tt := range tests {
		if got := types.StatusForPriority(tt.priority); got != tt.want {
			t.Errorf("StatusForPriority(%q) = %q, want %q", tt.priority, got, tt.want)
		}
	}
}

func TestNewCapsuleID(t *testing.T) {
	createdAt := time.Now().UnixMilli()
	id := types.NewCapsuleID(createdAt)

	prefix, suffix, found := strings.Cut(id, "-")
	if !found {
		t.Fatalf("id %q should contain a separator", id)
	}
	if prefix != strconv.FormatInt(createdAt, 10) {
		t.Errorf("id prefix = %q, want creation timestamp %d", prefix, createdAt)
	}
	if suffix == "" {
		t.Error("id should carry a random suffix")
	}

	// Same instant must still produce distinct IDs
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		next := types.NewCapsuleID(createdAt)
		if seen[next] {
			t.Fatalf("duplicate capsule ID generated: %q", next)
		}
		seen[next] = true
	}
}

func TestCapsuleClone(t *testing.T) {
	original := &types.Capsule{
		ID:        "1672574400000-abcd1234",
		Title:     "Overheat on motor_001",
		Status:    types.StatusCritical,
		CreatedAt: 1672574400000,
		UpdatedAt: 1672574400000,
		Actions:   []string{"resolve", "mitigate"},
		Metrics:   map[string]float64{"temperature": 85},
		Metadata: types.CapsuleMetadata{
			RuleID:   "rule-1",
			RuleName: "Motor overheat",
			SourceID: "motor_001",
		},
	}

	clone := original.Clone()
	if clone == original {
		t.Fatal("Clone should return a new capsule")
	}

	clone.Metrics["temperature"] = 99
	clone.Actions[0] = "mutated"
	clone.Status = types.StatusResolved

	if original.Metrics["temperature"] != 85 {
		t.Error("mutating clone metrics should not affect the original")
	}
	if original.Actions[0] != "resolve" {
		t.Error("mutating clone actions should not affect the original")
	}
	if original.Status != types.StatusCritical {
		t.Error("mutating clone status should not affect the original")
	}

	var nilCapsule *types.Capsule
	if nilCapsule.Clone() != nil {
		t.Error("cloning nil should return nil")
	}
}
