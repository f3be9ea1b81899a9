// Package types contains the shared domain model for the alerting pipeline
package types

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// CapsuleStatus is the lifecycle state of a capsule.
type CapsuleStatus string

// Capsule lifecycle states
const (
	StatusActive    CapsuleStatus = "active"
	StatusWarning   CapsuleStatus = "warning"
	StatusCritical  CapsuleStatus = "critical"
	StatusResolved  CapsuleStatus = "resolved"
	StatusDismissed CapsuleStatus = "dismissed"
)

// Valid reports whether the status is a known lifecycle state.
func (s CapsuleStatus) Valid() bool {
	switch s {
	case StatusActive, StatusWarning, StatusCritical, StatusResolved, StatusDismissed:
		return true
	default:
		return false
	}
}

// Retired reports whether the capsule has left the active set.
func (s CapsuleStatus) Retired() bool {
	return s == StatusResolved || s == StatusDismissed
}

// StatusForPriority maps a template priority to the initial capsule status.
func StatusForPriority(priority string) CapsuleStatus {
	switch strings.ToLower(priority) {
	case "critical", "high":
		return StatusCritical
	case "warning", "medium":
		return StatusWarning
	default:
		return StatusActive
	}
}

// CapsuleMetadata records which rule produced the capsule and from which
// source, so operators can trace an alert back to its trigger.
type CapsuleMetadata struct {
	RuleID   string `json:"ruleId"`
	RuleName string `json:"ruleName"`
	SourceID string `json:"sourceId"`
}

// Capsule is a short-lived alert object representing one triggered rule's
// current state. At most one non-retired capsule exists per rule; repeat
// triggers mutate metrics and updatedAt in place. Title and description are
// rendered once at creation and never re-interpolated.
type Capsule struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Status      CapsuleStatus      `json:"status"`
	Priority    string             `json:"priority,omitempty"`
	Category    string             `json:"category,omitempty"`
	CreatedAt   int64              `json:"createdAt"`
	UpdatedAt   int64              `json:"updatedAt"`
	Actions     []string           `json:"actions,omitempty"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	Metadata    CapsuleMetadata    `json:"metadata"`
}

// Clone returns a deep copy safe to hand outside the owning lock.
func (c *Capsule) Clone() *Capsule {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Actions != nil {
		clone.Actions = make([]string, len(c.Actions))
		copy(clone.Actions, c.Actions)
	}
	if c.Metrics != nil {
		clone.Metrics = make(map[string]float64, len(c.Metrics))
		for k, v := range c.Metrics {
			clone.Metrics[k] = v
		}
	}
	return &clone
}

// NewCapsuleID builds a capsule identifier from the creation timestamp and a
// random suffix. Uniqueness is probabilistic, not cryptographic; the IDs are
// not unguessable and must not be treated as secrets.
func NewCapsuleID(createdAt int64) string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// Fallback keeps IDs unique enough if the entropy source fails
		return fmt.Sprintf("%d-%x", createdAt, time.Now().UnixNano()&0xffffffff)
	}
	return fmt.Sprintf("%d-%s", createdAt, hex.EncodeToString(b))
}
