package alert

import (
	"log/slog"

	"github.com/industriverse/capstream/types"
)

// Evaluation is the outcome of checking one rule against one reading.
type Evaluation struct {
	Rule      types.Rule
	Triggered bool
	Value     float64
}

// Evaluator applies the registered rules to incoming readings. It holds no
// per-call state beyond the registry reference, so concurrent calls are
// safe; the trigger decisions it produces are serialized downstream by the
// capsule manager.
type Evaluator struct {
	registry *RuleRegistry
	logger   *slog.Logger
}

// NewEvaluator creates an evaluator over the given registry.
func NewEvaluator(registry *RuleRegistry, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{registry: registry, logger: logger}
}

// Evaluate checks every enabled rule watching the reading's source and
// returns one Evaluation per rule that could be compared. A rule whose
// metric is absent from the reading is skipped silently; a metric value
// that fails numeric coercion logs a warning and skips that one rule
// without disturbing the others.
func (e *Evaluator) Evaluate(reading types.Reading) []Evaluation {
	rules := e.registry.ForSource(reading.SourceID)
	if len(rules) == 0 {
		return nil
	}

	results := make([]Evaluation, 0, len(rules))
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}

		raw, present := reading.Metrics[rule.Metric]
		if !present {
			continue
		}

		value, ok := reading.NumericMetric(rule.Metric)
		if !ok {
			e.logger.Warn("metric value is not numeric, skipping rule",
				"ruleId", rule.ID,
				"sourceId", reading.SourceID,
				"metric", rule.Metric,
				"value", raw)
			continue
		}

		results = append(results, Evaluation{
			Rule:      rule,
			Triggered: rule.Operator.Compare(value, rule.Threshold),
			Value:     value,
		})
	}
	return results
}
