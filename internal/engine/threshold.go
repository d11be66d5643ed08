package engine

import (
	"github.com/rotisserie/eris"

	"github.com/atacama-group/seia-cli/internal/model"
)

// EvaluateThreshold applies one configured rule to the facts. The evaluator
// looks up only the named parameter. An absent parameter yields an
// indeterminate outcome rather than an error or a silent pass/fail, because
// an indeterminate threshold must not narrow the classification unnoticed.
// Pure function; configuration is injected, nothing is fetched.
func EvaluateThreshold(rule model.ThresholdRule, facts *model.ProjectFacts) (model.ThresholdOutcome, error) {
	if facts == nil {
		return model.ThresholdOutcome{}, eris.Wrap(ErrInvalidInput, "threshold: nil facts")
	}
	if !rule.Operator.Valid() {
		return model.ThresholdOutcome{}, eris.Wrapf(ErrInvalidInput, "threshold: rule %q has unknown operator %q", rule.ID, rule.Operator)
	}

	out := model.ThresholdOutcome{Rule: rule}

	switch rule.ValueType {
	case model.ValueNumber:
		n := facts.Number(rule.Parameter)
		if n == nil {
			out.Status = model.OutcomeIndeterminate
			return out, nil
		}
		out.ActualNumber = n
		if rule.Operator.Compare(*n, rule.NumericValue) {
			out.Status = model.OutcomeSatisfied
		} else {
			out.Status = model.OutcomeNotSatisfied
		}

	case model.ValueCategory:
		s := facts.Category(rule.Parameter)
		if s == nil {
			out.Status = model.OutcomeIndeterminate
			return out, nil
		}
		out.ActualText = s
		if *s == rule.TextValue {
			out.Status = model.OutcomeSatisfied
		} else {
			out.Status = model.OutcomeNotSatisfied
		}

	default:
		return model.ThresholdOutcome{}, eris.Wrapf(ErrInvalidInput, "threshold: rule %q has unknown value_type %q", rule.ID, rule.ValueType)
	}

	return out, nil
}

// EvaluateThresholds evaluates every rule in order, failing fast on the
// first malformed rule.
func EvaluateThresholds(rules []model.ThresholdRule, facts *model.ProjectFacts) ([]model.ThresholdOutcome, error) {
	outcomes := make([]model.ThresholdOutcome, 0, len(rules))
	for _, r := range rules {
		out, err := EvaluateThreshold(r, facts)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}
