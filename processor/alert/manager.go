package alert

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/industriverse/capstream/errors"
	"github.com/industriverse/capstream/pkg/timestamp"
	"github.com/industriverse/capstream/types"
)

// EventSink receives capsule lifecycle events. Sinks are invoked
// synchronously from the capsule store's single mutation path, so each sink
// observes every capsule's events in order: created, then updates, then
// removed. Sinks must not block; hand the event to a queue or a
// non-blocking send and return.
type EventSink interface {
	OnCapsuleEvent(event types.CapsuleEvent)
}

// Built-in action verbs the manager executes itself. Any other verb is
// forwarded to the external action executor.
const (
	ActionResolve = "resolve"
	ActionDismiss = "dismiss"
)

// CapsuleManager owns all capsule state. Every mutation (trigger-driven
// create and update, resolve, dismiss) passes through one mutex, which is
// what makes the one-active-capsule-per-rule invariant and the per-capsule
// event ordering hold without further coordination. The capsule map and the
// rule index always change together under that lock.
type CapsuleManager struct {
	mu           sync.Mutex
	capsules     map[string]*types.Capsule
	activeByRule map[string]string
	sinks        []EventSink
	forwarder    ActionHandler
	logger       *slog.Logger

	// Cumulative retirement counts for the stats surface.
	resolved  int64
	dismissed int64
}

// NewCapsuleManager creates an empty capsule store dispatching to the given
// sinks.
func NewCapsuleManager(logger *slog.Logger, sinks ...EventSink) *CapsuleManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &CapsuleManager{
		capsules:     make(map[string]*types.Capsule),
		activeByRule: make(map[string]string),
		sinks:        sinks,
		logger:       logger,
	}
}

// AddSink registers an additional lifecycle event sink. A sink added while
// capsules already exist sees only subsequent events; new consumers take
// their starting state from ListActive.
func (m *CapsuleManager) AddSink(sink EventSink) {
	if sink == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, sink)
}

// SetActionForwarder wires the external executor used for action verbs the
// manager does not handle itself.
func (m *CapsuleManager) SetActionForwarder(h ActionHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forwarder = h
}

// OnTrigger funnels a rule trigger into the capsule store. The first
// trigger of a rule creates a capsule from the rule's template; repeat
// triggers refresh the existing capsule's metrics and updatedAt, escalating
// status when the template now implies a higher severity but never
// downgrading it. The returned event is the one dispatched to sinks.
func (m *CapsuleManager) OnTrigger(rule types.Rule, reading types.Reading, value float64) types.CapsuleEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.activeByRule[rule.ID]; ok {
		if capsule, live := m.capsules[id]; live {
			return m.updateLocked(capsule, rule, reading)
		}
		delete(m.activeByRule, rule.ID)
	}

	return m.createLocked(rule, reading, value)
}

func (m *CapsuleManager) createLocked(rule types.Rule, reading types.Reading, value float64) types.CapsuleEvent {
	now := timestamp.Now()
	tmpl := rule.Template

	capsule := &types.Capsule{
		ID:          types.NewCapsuleID(now),
		Title:       renderTemplate(tmpl.Title, reading.SourceID, value, reading.Timestamp),
		Description: renderTemplate(tmpl.Description, reading.SourceID, value, reading.Timestamp),
		Status:      types.StatusForPriority(tmpl.Priority),
		Priority:    tmpl.Priority,
		Category:    tmpl.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
		Actions:     append([]string(nil), tmpl.Actions...),
		Metrics:     numericSnapshot(reading),
		Metadata: types.CapsuleMetadata{
			RuleID:   rule.ID,
			RuleName: rule.DisplayName(),
			SourceID: reading.SourceID,
		},
	}

	m.capsules[capsule.ID] = capsule
	m.activeByRule[rule.ID] = capsule.ID

	m.logger.Info("capsule created",
		"capsuleId", capsule.ID,
		"ruleId", rule.ID,
		"sourceId", reading.SourceID,
		"status", capsule.Status)

	event := types.CapsuleEvent{
		Type:      types.EventCapsuleNew,
		CapsuleID: capsule.ID,
		Capsule:   capsule.Clone(),
		Timestamp: now,
	}
	m.dispatchLocked(event)
	return event
}

func (m *CapsuleManager) updateLocked(capsule *types.Capsule, rule types.Rule, reading types.Reading) types.CapsuleEvent {
	now := timestamp.Now()

	if capsule.Metrics == nil {
		capsule.Metrics = make(map[string]float64)
	}
	for k, v := range numericSnapshot(reading) {
		capsule.Metrics[k] = v
	}
	capsule.UpdatedAt = now

	updates := &types.CapsuleUpdate{
		Metrics:   cloneMetrics(capsule.Metrics),
		UpdatedAt: now,
	}
	if next := types.StatusForPriority(rule.Template.Priority); statusRank(next) > statusRank(capsule.Status) {
		capsule.Status = next
		updates.Status = next
	}

	m.logger.Debug("capsule updated",
		"capsuleId", capsule.ID,
		"ruleId", rule.ID,
		"sourceId", reading.SourceID)

	event := types.CapsuleEvent{
		Type:      types.EventCapsuleUpdate,
		CapsuleID: capsule.ID,
		Capsule:   capsule.Clone(),
		Updates:   updates,
		Timestamp: now,
	}
	m.dispatchLocked(event)
	return event
}

// Resolve retires a capsule through the resolved state and drops it from
// the store. Resolving an unknown capsule reports ErrCapsuleNotFound and
// changes nothing.
func (m *CapsuleManager) Resolve(id string) error {
	return m.retire(id, types.StatusResolved)
}

// Dismiss retires a capsule through the dismissed state.
func (m *CapsuleManager) Dismiss(id string) error {
	return m.retire(id, types.StatusDismissed)
}

func (m *CapsuleManager) retire(id string, status types.CapsuleStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	capsule, ok := m.capsules[id]
	if !ok {
		return errors.WrapInvalid(errors.ErrCapsuleNotFound, "CapsuleManager", "retire",
			fmt.Sprintf("retire capsule %s", id))
	}

	now := timestamp.Now()
	capsule.Status = status
	capsule.UpdatedAt = now

	delete(m.capsules, id)
	delete(m.activeByRule, capsule.Metadata.RuleID)

	switch status {
	case types.StatusResolved:
		m.resolved++
	case types.StatusDismissed:
		m.dismissed++
	}

	m.logger.Info("capsule retired",
		"capsuleId", id,
		"ruleId", capsule.Metadata.RuleID,
		"status", status)

	m.dispatchLocked(types.CapsuleEvent{
		Type:      types.EventCapsuleRemoved,
		CapsuleID: id,
		Capsule:   capsule.Clone(),
		Timestamp: now,
	})
	return nil
}

// Get returns a copy of the live capsule with the given ID.
func (m *CapsuleManager) Get(id string) (*types.Capsule, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	capsule, ok := m.capsules[id]
	if !ok {
		return nil, false
	}
	return capsule.Clone(), true
}

// ListActive returns a snapshot of every live capsule, oldest first. The
// snapshot is taken in one critical section, never assembled from partial
// state, so it is consistent with the event stream.
func (m *CapsuleManager) ListActive() []*types.Capsule {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*types.Capsule, 0, len(m.capsules))
	for _, capsule := range m.capsules {
		out = append(out, capsule.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// PerformAction executes a user-initiated action against a capsule. The
// verb must be one of the capsule's declared actions. Resolve and dismiss
// mutate capsule state directly; every other verb is handed to the
// configured external executor, with its failure returned to the caller so
// it reaches the acting subscriber only.
func (m *CapsuleManager) PerformAction(ctx context.Context, capsuleID, action string, metadata map[string]any) error {
	m.mu.Lock()
	capsule, ok := m.capsules[capsuleID]
	allowed := ok && slices.Contains(capsule.Actions, action)
	forwarder := m.forwarder
	m.mu.Unlock()

	if !ok {
		return errors.WrapInvalid(errors.ErrCapsuleNotFound, "CapsuleManager", "PerformAction",
			fmt.Sprintf("action %s on capsule %s", action, capsuleID))
	}
	if !allowed {
		return errors.WrapInvalid(errors.ErrUnknownAction, "CapsuleManager", "PerformAction",
			fmt.Sprintf("action %s not available on capsule %s", action, capsuleID))
	}

	switch action {
	case ActionResolve:
		return m.Resolve(capsuleID)
	case ActionDismiss:
		return m.Dismiss(capsuleID)
	}

	if forwarder == nil {
		return errors.WrapTransient(errors.ErrNoHandler, "CapsuleManager", "PerformAction",
			fmt.Sprintf("forward action %s", action))
	}
	return forwarder.PerformAction(ctx, capsuleID, action, metadata)
}

// CapsuleStats summarizes capsule state for the stats surface. ByStatus
// counts live capsules; Resolved and Dismissed are cumulative totals since
// startup.
type CapsuleStats struct {
	Live      int                         `json:"live"`
	ByStatus  map[types.CapsuleStatus]int `json:"byStatus"`
	Resolved  int64                       `json:"resolved"`
	Dismissed int64                       `json:"dismissed"`
}

// Stats reports capsule counts.
func (m *CapsuleManager) Stats() CapsuleStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := CapsuleStats{
		Live:      len(m.capsules),
		ByStatus:  make(map[types.CapsuleStatus]int),
		Resolved:  m.resolved,
		Dismissed: m.dismissed,
	}
	for _, capsule := range m.capsules {
		stats.ByStatus[capsule.Status]++
	}
	return stats
}

// dispatchLocked fans the event out to every sink. It runs under the store
// lock, so sinks observe events in mutation order.
func (m *CapsuleManager) dispatchLocked(event types.CapsuleEvent) {
	for _, sink := range m.sinks {
		sink.OnCapsuleEvent(event)
	}
}

// statusRank orders capsule severities so repeat triggers can escalate but
// never downgrade a live capsule.
func statusRank(s types.CapsuleStatus) int {
	switch s {
	case types.StatusCritical:
		return 3
	case types.StatusWarning:
		return 2
	case types.StatusActive:
		return 1
	default:
		return 0
	}
}

// numericSnapshot extracts every numeric metric from a reading, coercing
// numeric strings. Values that fail coercion are left out.
func numericSnapshot(reading types.Reading) map[string]float64 {
	if len(reading.Metrics) == 0 {
		return nil
	}
	out := make(map[string]float64, len(reading.Metrics))
	for name := range reading.Metrics {
		if v, ok := reading.NumericMetric(name); ok {
			out[name] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func cloneMetrics(metrics map[string]float64) map[string]float64 {
	if metrics == nil {
		return nil
	}
	out := make(map[string]float64, len(metrics))
	for k, v := range metrics {
		out[k] = v
	}
	return out
}
