package alert

import (
	"fmt"
	"sort"
	"sync"

	"github.com/industriverse/capstream/errors"
	"github.com/industriverse/capstream/types"
)

// RuleRegistry holds the mutable rule set, indexed by rule ID and by source
// ID so evaluation only scans the rules watching the reading's source. Rule
// mutations are rare relative to evaluation, so a reader-writer lock keeps
// the hot path cheap.
type RuleRegistry struct {
	mu       sync.RWMutex
	rules    map[string]types.Rule
	bySource map[string]map[string]struct{}
}

// NewRuleRegistry creates an empty registry.
func NewRuleRegistry() *RuleRegistry {
	return &RuleRegistry{
		rules:    make(map[string]types.Rule),
		bySource: make(map[string]map[string]struct{}),
	}
}

// Add registers a new rule. Validation happens here, at registration time,
// so evaluation never sees a malformed rule or an unknown operator.
func (r *RuleRegistry) Add(rule types.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[rule.ID]; exists {
		return errors.WrapInvalid(errors.ErrRuleExists, "RuleRegistry", "Add",
			fmt.Sprintf("register rule %s", rule.ID))
	}

	r.rules[rule.ID] = rule
	r.index(rule.SourceID, rule.ID)
	return nil
}

// Update applies a partial mutation to an existing rule and returns the
// result. The patched rule is re-validated before it replaces the stored
// one; on validation failure the stored rule is left untouched.
func (r *RuleRegistry) Update(id string, patch types.RulePatch) (types.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.rules[id]
	if !exists {
		return types.Rule{}, errors.WrapInvalid(errors.ErrRuleNotFound, "RuleRegistry", "Update",
			fmt.Sprintf("update rule %s", id))
	}

	updated := patch.Apply(current)
	if err := updated.Validate(); err != nil {
		return types.Rule{}, err
	}

	if updated.SourceID != current.SourceID {
		r.unindex(current.SourceID, id)
		r.index(updated.SourceID, id)
	}
	r.rules[id] = updated
	return updated, nil
}

// Remove deletes a rule. Any capsule the rule produced stays live; retiring
// it remains an explicit operator action.
func (r *RuleRegistry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule, exists := r.rules[id]
	if !exists {
		return errors.WrapInvalid(errors.ErrRuleNotFound, "RuleRegistry", "Remove",
			fmt.Sprintf("remove rule %s", id))
	}

	delete(r.rules, id)
	r.unindex(rule.SourceID, id)
	return nil
}

// Get returns the rule with the given ID.
func (r *RuleRegistry) Get(id string) (types.Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[id]
	return rule, ok
}

// List returns every registered rule sorted by ID.
func (r *RuleRegistry) List() []types.Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ForSource returns the rules watching a source. The returned slice is a
// snapshot the caller may iterate without holding any lock.
func (r *RuleRegistry) ForSource(sourceID string) []types.Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.bySource[sourceID]
	if !ok {
		return nil
	}

	out := make([]types.Rule, 0, len(ids))
	for id := range ids {
		out = append(out, r.rules[id])
	}
	return out
}

// Count returns the number of registered rules.
func (r *RuleRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// RuleStats summarizes the rule set for the stats surface.
type RuleStats struct {
	Total   int `json:"total"`
	Enabled int `json:"enabled"`
}

// Stats reports rule counts.
func (r *RuleRegistry) Stats() RuleStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RuleStats{Total: len(r.rules)}
	for _, rule := range r.rules {
		if rule.Enabled {
			stats.Enabled++
		}
	}
	return stats
}

// index and unindex maintain the source lookup. Callers hold the write lock.

func (r *RuleRegistry) index(sourceID, ruleID string) {
	set, ok := r.bySource[sourceID]
	if !ok {
		set = make(map[string]struct{})
		r.bySource[sourceID] = set
	}
	set[ruleID] = struct{}{}
}

func (r *RuleRegistry) unindex(sourceID, ruleID string) {
	set, ok := r.bySource[sourceID]
	if !ok {
		return
	}
	delete(set, ruleID)
	if len(set) == 0 {
		delete(r.bySource, sourceID)
	}
}
