package websocket

import (
	"encoding/json"

	"github.com/industriverse/capstream/types"
)

// Inbound message types.
const (
	msgSubscribe   = "subscribe"
	msgUnsubscribe = "unsubscribe"
	msgAction      = "action"
	msgHeartbeat   = "heartbeat"
)

// Outbound message types. Capsule lifecycle messages reuse the
// types.CapsuleEventType values directly.
const (
	msgConnected     = "connected"
	msgSubscribed    = "subscribed"
	msgUnsubscribed  = "unsubscribed"
	msgActionSuccess = "action_success"
	msgActionFailed  = "action_failed"
	msgError         = "error"
)

// subscribeAll is the sentinel capsule ID that subscribes a connection to
// every capsule event.
const subscribeAll = "all"

// clientMessage is the inbound wire envelope. Fields are populated depending
// on Type; unknown fields are ignored.
type clientMessage struct {
	Type       string         `json:"type"`
	CapsuleIDs []string       `json:"capsuleIds,omitempty"`
	CapsuleID  string         `json:"capsuleId,omitempty"`
	Action     string         `json:"action,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Timestamp  int64          `json:"timestamp,omitempty"`
}

// serverMessage is the outbound wire envelope. Every message carries Type and
// Timestamp; the remaining fields depend on the message type.
type serverMessage struct {
	Type         string               `json:"type"`
	ConnectionID string               `json:"connectionId,omitempty"`
	CapsuleID    string               `json:"capsuleId,omitempty"`
	CapsuleIDs   []string             `json:"capsuleIds,omitempty"`
	Capsule      *types.Capsule       `json:"capsule,omitempty"`
	Capsules     []*types.Capsule     `json:"capsules,omitempty"`
	Updates      *types.CapsuleUpdate `json:"updates,omitempty"`
	Action       string               `json:"action,omitempty"`
	Error        string               `json:"error,omitempty"`
	Message      string               `json:"message,omitempty"`
	Timestamp    int64                `json:"timestamp"`
}

// encodeEventMessage renders a capsule lifecycle event as its wire message.
// capsule_new carries the full capsule, capsule_update the delta, and
// capsule_removed just the ID. The result is shared across every matching
// connection, so the event is marshaled exactly once per broadcast.
func encodeEventMessage(event types.CapsuleEvent) ([]byte, error) {
	msg := serverMessage{
		Type:      string(event.Type),
		Timestamp: event.Timestamp,
	}
	switch event.Type {
	case types.EventCapsuleNew:
		msg.Capsule = event.Capsule
	case types.EventCapsuleUpdate:
		msg.CapsuleID = event.CapsuleID
		msg.Updates = event.Updates
	case types.EventCapsuleRemoved:
		msg.CapsuleID = event.CapsuleID
	default:
		msg.CapsuleID = event.CapsuleID
	}
	return json.Marshal(msg)
}

// subscription is a connection's event filter: everything, an explicit
// capsule ID set, or nothing (the state of a fresh connection).
type subscription struct {
	all bool
	ids map[string]struct{}
}

// apply merges a subscribe request into the filter. The "all" sentinel
// switches the connection to firehose mode and supersedes any ID set.
func (s *subscription) apply(capsuleIDs []string) {
	for _, id := range capsuleIDs {
		if id == subscribeAll {
			s.all = true
			s.ids = nil
			return
		}
	}
	if s.all {
		return
	}
	if s.ids == nil {
		s.ids = make(map[string]struct{}, len(capsuleIDs))
	}
	for _, id := range capsuleIDs {
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}
}

// remove drops IDs from the filter. An empty list or the "all" sentinel
// clears the whole subscription.
func (s *subscription) remove(capsuleIDs []string) {
	if len(capsuleIDs) == 0 {
		s.clear()
		return
	}
	for _, id := range capsuleIDs {
		if id == subscribeAll {
			s.clear()
			return
		}
		delete(s.ids, id)
	}
	if len(s.ids) == 0 {
		s.ids = nil
	}
}

func (s *subscription) clear() {
	s.all = false
	s.ids = nil
}

// matches reports whether an event for the given capsule passes the filter.
// A fresh capsule ID can never be in an explicit set, so capsule_new
// naturally reaches firehose subscribers only.
func (s *subscription) matches(capsuleID string) bool {
	if s.all {
		return true
	}
	_, ok := s.ids[capsuleID]
	return ok
}

// snapshot returns the filter state for stats and subscribed replies.
func (s *subscription) snapshot() (all bool, ids []string) {
	if s.all {
		return true, nil
	}
	if len(s.ids) == 0 {
		return false, nil
	}
	ids = make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	return false, ids
}
