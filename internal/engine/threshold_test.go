package engine

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atacama-group/seia-cli/internal/model"
)

func numericRule(op model.Operator, threshold float64) model.ThresholdRule {
	return model.ThresholdRule{
		ID:           "test-rule",
		Parameter:    model.AttrMonthlyTonnage,
		Operator:     op,
		ValueType:    model.ValueNumber,
		NumericValue: threshold,
		Outcome:      "entry threshold",
	}
}

func factsWithTonnage(v float64) *model.ProjectFacts {
	return &model.ProjectFacts{
		ProjectID: "P-1",
		Type:      "mineria",
		Attributes: map[string]model.AttributeValue{
			model.AttrMonthlyTonnage: model.NumberValue(v),
		},
	}
}

func TestEvaluateThresholdNumeric(t *testing.T) {
	tests := []struct {
		name   string
		op     model.Operator
		limit  float64
		actual float64
		want   model.OutcomeStatus
	}{
		{"gte above", model.OpGTE, 5000, 8000, model.OutcomeSatisfied},
		{"gte exact boundary", model.OpGTE, 5000, 5000, model.OutcomeSatisfied},
		{"gte below", model.OpGTE, 5000, 4999, model.OutcomeNotSatisfied},
		{"gt exact boundary", model.OpGT, 100, 100, model.OutcomeNotSatisfied},
		{"gt above", model.OpGT, 100, 100.1, model.OutcomeSatisfied},
		{"lte at", model.OpLTE, 10, 10, model.OutcomeSatisfied},
		{"lt below", model.OpLT, 10, 9.9, model.OutcomeSatisfied},
		{"eq match", model.OpEQ, 42, 42, model.OutcomeSatisfied},
		{"eq mismatch", model.OpEQ, 42, 41, model.OutcomeNotSatisfied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := EvaluateThreshold(numericRule(tt.op, tt.limit), factsWithTonnage(tt.actual))
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Status)
			require.NotNil(t, out.ActualNumber)
			assert.Equal(t, tt.actual, *out.ActualNumber)
		})
	}
}

func TestEvaluateThresholdAbsentParameterIsIndeterminate(t *testing.T) {
	facts := &model.ProjectFacts{ProjectID: "P-1", Type: "mineria"}

	out, err := EvaluateThreshold(numericRule(model.OpGTE, 5000), facts)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeIndeterminate, out.Status)
	assert.Nil(t, out.ActualNumber)
}

func TestEvaluateThresholdCategorical(t *testing.T) {
	rule := model.ThresholdRule{
		ID:        "phase-rule",
		Parameter: "phase",
		Operator:  model.OpEQ,
		ValueType: model.ValueCategory,
		TextValue: "explotacion",
		Outcome:   "exploitation phase",
	}

	facts := &model.ProjectFacts{
		ProjectID:  "P-1",
		Type:       "mineria",
		Attributes: map[string]model.AttributeValue{"phase": model.CategoryValue("explotacion")},
	}

	out, err := EvaluateThreshold(rule, facts)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeSatisfied, out.Status)
	require.NotNil(t, out.ActualText)
	assert.Equal(t, "explotacion", *out.ActualText)

	facts.Attributes["phase"] = model.CategoryValue("exploracion")
	out, err = EvaluateThreshold(rule, facts)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeNotSatisfied, out.Status)

	// A numeric value under a categorical rule counts as absent.
	facts.Attributes["phase"] = model.NumberValue(3)
	out, err = EvaluateThreshold(rule, facts)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeIndeterminate, out.Status)
}

func TestEvaluateThresholdMalformedRule(t *testing.T) {
	facts := factsWithTonnage(100)

	_, err := EvaluateThreshold(numericRule("~=", 10), facts)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInvalidInput))

	bad := numericRule(model.OpGTE, 10)
	bad.ValueType = "mystery"
	_, err = EvaluateThreshold(bad, facts)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInvalidInput))

	_, err = EvaluateThreshold(numericRule(model.OpGTE, 10), nil)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInvalidInput))
}

func TestEvaluateThresholdsFailsFast(t *testing.T) {
	facts := factsWithTonnage(100)
	rulesList := []model.ThresholdRule{
		numericRule(model.OpGTE, 10),
		numericRule("!!", 10),
		numericRule(model.OpLT, 10),
	}

	_, err := EvaluateThresholds(rulesList, facts)
	require.Error(t, err)

	outs, err := EvaluateThresholds(rulesList[:1], facts)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	assert.True(t, outs[0].Satisfied())
}
