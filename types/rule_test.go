package types_test

import (
	"reflect"
	"testing"

	pkgerrors "github.com/industriverse/capstream/errors"
	"github.com/industriverse/capstream/types"
)

func TestParseOperator(t *testing.T) {
	valid := []string{">", "<", "==", "!=", ">=", "<="}
	for _, s := range valid {
		op, err := types.ParseOperator(s)
		if err != nil {
			t.Errorf("ParseOperator(%q) unexpected error: %v", s, err)
		}
		if string(op) != s {
			t.Errorf("ParseOperator(%q) = %q", s, op)
		}
	}

	invalid := []string{"", ">>", "=", "gt", "契"}
	for _, s := range invalid {
		if _, err := types.ParseOperator(s); err == nil {
			t.Errorf("ParseOperator(%q) expected error", s)
		} else if !pkgerrors.IsInvalid(err) {
			t.Errorf("ParseOperator(%q) expected Invalid classification, got: %v", s, err)
		}
	}
}

func TestOperatorCompare(t *testing.T) {
	tests := []struct {
		name      string
		op        types.Operator
		value     float64
		threshold float64
		want      bool
	}{
		{"gt true", types.OpGreaterThan, 85, 80, true},
		{"gt false at boundary", types.OpGreaterThan, 80, 80, false},
		{"lt true", types.OpLessThan, 10, 20, true},
		{"lt false", types.OpLessThan, 30, 20, false},
		{"eq true", types.OpEqual, 42, 42, true},
		{"eq false", types.OpEqual, 42, 43, false},
		{"ne true", types.OpNotEqual, 1, 2, true},
		{"ne false", types.OpNotEqual, 2, 2, false},
		{"ge at boundary", types.OpGreaterOrEqual, 80, 80, true},
		{"ge below", types.OpGreaterOrEqual, 79.9, 80, false},
		{"le at boundary", types.OpLessOrEqual, 80, 80, true},
		{"le above", types.OpLessOrEqual, 80.1, 80, false},
		{"unknown operator", types.Operator("~"), 1, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.op.Compare(tt.value, tt.threshold)
			if got != tt.want {
				t.Errorf("%q.Compare(%v, %v) = %v, want %v", tt.op, tt.value, tt.threshold, got, tt.want)
			}
		})
	}
}

func validRule() types.Rule {
	return types.Rule{
		ID:        "rule-1",
		Enabled:   true,
		SourceID:  "motor_001",
		Metric:    "temperature",
		Operator:  types.OpGreaterThan,
		Threshold: 80,
		Template: types.CapsuleTemplate{
			Title:    "Overheat on {sourceId}",
			Priority: "critical",
		},
	}
}

func TestRuleValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*types.Rule)
		expectError bool
	}{
		{"valid", func(r *types.Rule) {}, false},
		{"missing id", func(r *types.Rule) { r.ID = "" }, true},
		{"missing sourceId", func(r *types.Rule) { r.SourceID = "" }, true},
		{"missing metric", func(r *types.Rule) { r.Metric = "" }, true},
		{"bad operator", func(r *types.Rule) { r.Operator = ">>" }, true},
		{"missing template title", func(r *types.Rule) { r.Template.Title = "" }, true},
		{"disabled is still valid", func(r *types.Rule) { r.Enabled = false }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := validRule()
			tt.mutate(&rule)

			err := rule.Validate()
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error but got nil")
				}
				if !pkgerrors.IsInvalid(err) {
					t.Errorf("expected Invalid classification, got: %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRuleDisplayName(t *testing.T) {
	rule := validRule()
	if got := rule.DisplayName(); got != "rule-1" {
		t.Errorf("DisplayName() = %q, want rule-1", got)
	}

	rule.Name = "Motor overheat"
	if got := rule.DisplayName(); got != "Motor overheat" {
		t.Errorf("DisplayName() = %q, want Motor overheat", got)
	}
}

func TestRulePatchApply(t *testing.T) {
	rule := validRule()

	enabled := false
	threshold := 95.0
	op := types.OpGreaterOrEqual
	patched := types.RulePatch{
		Enabled:   &enabled,
		Threshold: &threshold,
		Operator:  &op,
	}.Apply(rule)

	if patched.Enabled {
		t.Error("Enabled should be false after patch")
	}
	if patched.Threshold != 95 {
		t.Errorf("Threshold = %v, want 95", patched.Threshold)
	}
	if patched.Operator != types.OpGreaterOrEqual {
		t.Errorf("Operator = %q, want >=", patched.Operator)
	}

	// Untouched fields survive
	if patched.ID != rule.ID || patched.SourceID != rule.SourceID || patched.Metric != rule.Metric {
		t.Error("unpatched fields should be unchanged")
	}

	// Empty patch is a no-op
	same := types.RulePatch{}.Apply(rule)
	if !reflect.DeepEqual(same, rule) {
		t.Error("empty patch should leave the rule unchanged")
	}
}
