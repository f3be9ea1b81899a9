package types

import (
	"fmt"

	"github.com/industriverse/capstream/errors"
)

// Operator is a comparison operator usable in rule predicates. The set is
// closed: unknown operators are rejected when a rule is registered, so
// evaluation never encounters one.
type Operator string

// Supported comparison operators
const (
	OpGreaterThan    Operator = ">"
	OpLessThan       Operator = "<"
	OpEqual          Operator = "=="
	OpNotEqual       Operator = "!="
	OpGreaterOrEqual Operator = ">="
	OpLessOrEqual    Operator = "<="
)

// ParseOperator validates s against the closed operator set.
func ParseOperator(s string) (Operator, error) {
	op := Operator(s)
	if !op.Valid() {
		return "", errors.WrapInvalid(errors.ErrInvalidConfig,
			"Operator", "ParseOperator", fmt.Sprintf("unknown operator %q", s))
	}
	return op, nil
}

// Valid reports whether the operator is one of the supported comparisons.
func (op Operator) Valid() bool {
	switch op {
	case OpGreaterThan, OpLessThan, OpEqual, OpNotEqual, OpGreaterOrEqual, OpLessOrEqual:
		return true
	default:
		return false
	}
}

// Compare applies the operator to a metric value and a rule threshold.
func (op Operator) Compare(value, threshold float64) bool {
	switch op {
	case OpGreaterThan:
		return value > threshold
	case OpLessThan:
		return value < threshold
	case OpEqual:
		return value == threshold
	case OpNotEqual:
		return value != threshold
	case OpGreaterOrEqual:
		return value >= threshold
	case OpLessOrEqual:
		return value <= threshold
	default:
		return false
	}
}

// Rule is a configured threshold predicate bound to one source and metric.
// Rules are mutable at runtime through the admin surface; the pipeline never
// persists them.
type Rule struct {
	ID        string          `json:"id"`
	Name      string          `json:"name,omitempty"`
	Enabled   bool            `json:"enabled"`
	SourceID  string          `json:"sourceId"`
	Metric    string          `json:"metric"`
	Operator  Operator        `json:"operator"`
	Threshold float64         `json:"threshold"`
	Template  CapsuleTemplate `json:"capsuleTemplate"`
}

// Validate checks the rule is complete enough to evaluate and to build a
// capsule from. Called at registration time so the hot path can trust the
// rule unconditionally.
func (r Rule) Validate() error {
	if r.ID == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Rule", "Validate", "rule id cannot be empty")
	}
	if r.SourceID == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Rule", "Validate", "rule sourceId cannot be empty")
	}
	if r.Metric == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Rule", "Validate", "rule metric cannot be empty")
	}
	if !r.Operator.Valid() {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Rule", "Validate",
			fmt.Sprintf("unknown operator %q", string(r.Operator)))
	}
	if err := r.Template.Validate(); err != nil {
		return err
	}
	return nil
}

// DisplayName returns the human-facing rule name, falling back to the ID.
func (r Rule) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// RulePatch is a partial rule mutation. Nil fields are left unchanged.
type RulePatch struct {
	Name      *string          `json:"name,omitempty"`
	Enabled   *bool            `json:"enabled,omitempty"`
	SourceID  *string          `json:"sourceId,omitempty"`
	Metric    *string          `json:"metric,omitempty"`
	Operator  *Operator        `json:"operator,omitempty"`
	Threshold *float64         `json:"threshold,omitempty"`
	Template  *CapsuleTemplate `json:"capsuleTemplate,omitempty"`
}

// Apply overlays the patch onto a copy of r and returns it. The result still
// needs Validate before replacing the stored rule.
func (p RulePatch) Apply(r Rule) Rule {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Enabled != nil {
		r.Enabled = *p.Enabled
	}
	if p.SourceID != nil {
		r.SourceID = *p.SourceID
	}
	if p.Metric != nil {
		r.Metric = *p.Metric
	}
	if p.Operator != nil {
		r.Operator = *p.Operator
	}
	if p.Threshold != nil {
		r.Threshold = *p.Threshold
	}
	if p.Template != nil {
		r.Template = *p.Template
	}
	return r
}

// CapsuleTemplate describes the capsule a rule produces when it triggers.
// Title and description may carry {metricValue}, {sourceId} and {timestamp}
// tokens, interpolated once at capsule creation.
type CapsuleTemplate struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	Category    string   `json:"category,omitempty"`
	Actions     []string `json:"actions,omitempty"`
}

// Validate requires a title; everything else is optional.
func (t CapsuleTemplate) Validate() error {
	if t.Title == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig,
			"CapsuleTemplate", "Validate", "capsule template title cannot be empty")
	}
	return nil
}
