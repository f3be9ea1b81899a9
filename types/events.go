package types

// CapsuleEventType identifies a capsule lifecycle transition. The values
// double as the outbound wire message types.
type CapsuleEventType string

// Capsule lifecycle event types
const (
	EventCapsuleNew     CapsuleEventType = "capsule_new"
	EventCapsuleUpdate  CapsuleEventType = "capsule_update"
	EventCapsuleRemoved CapsuleEventType = "capsule_removed"
)

// CapsuleUpdate is the delta applied to an existing capsule by a repeat
// trigger. Status is set only when the transition changes it.
type CapsuleUpdate struct {
	Status    CapsuleStatus      `json:"status,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	UpdatedAt int64              `json:"updatedAt"`
}

// CapsuleEvent is a lifecycle notification fanned out to event sinks. The
// Capsule field carries a post-mutation snapshot (the final state for
// removals); Updates is set only for update events.
type CapsuleEvent struct {
	Type      CapsuleEventType `json:"type"`
	CapsuleID string           `json:"capsuleId"`
	Capsule   *Capsule         `json:"capsule,omitempty"`
	Updates   *CapsuleUpdate   `json:"updates,omitempty"`
	Timestamp int64            `json:"timestamp"`
}
