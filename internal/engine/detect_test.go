package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atacama-group/seia-cli/internal/model"
)

func TestDetectStatutoryOrder(t *testing.T) {
	snap := testSnapshot(t)

	facts := baseFacts()
	facts.Spatial[model.LayerScenicZone] = model.SpatialFact{
		Layer: model.LayerScenicZone, Intersects: ptrBool(true),
	}
	facts.Spatial[model.LayerArchaeologicalSite] = model.SpatialFact{
		Layer: model.LayerArchaeologicalSite, Intersects: ptrBool(true),
	}
	facts.Spatial[model.LayerGlacier] = model.SpatialFact{
		Layer: model.LayerGlacier, Intersects: ptrBool(true),
	}

	triggers, err := Detect(facts, nil, snap)
	require.NoError(t, err)
	require.Len(t, triggers, 3)

	// Always letter order, regardless of map iteration.
	assert.Equal(t, model.LetterB, triggers[0].Letter)
	assert.Equal(t, model.LetterE, triggers[1].Letter)
	assert.Equal(t, model.LetterF, triggers[2].Letter)
}

func TestDetectMergesDuplicateLetterKeepingHighestSeverity(t *testing.T) {
	snap := testSnapshot(t)

	facts := baseFacts()
	facts.Spatial[model.LayerGlacier] = model.SpatialFact{
		Layer: model.LayerGlacier, Intersects: ptrBool(true), NearestName: "Glaciar Tronquitos",
	}
	facts.Spatial[model.LayerPriorityHabitat] = model.SpatialFact{
		Layer: model.LayerPriorityHabitat, Intersects: ptrBool(true),
	}

	triggers, err := Detect(facts, nil, snap)
	require.NoError(t, err)
	require.Len(t, triggers, 1)

	trig := triggers[0]
	assert.Equal(t, model.LetterB, trig.Letter)
	// Glacier is CRITICAL, priority habitat defaults to HIGH; merge keeps CRITICAL.
	assert.Equal(t, model.SeverityCritical, trig.Severity)
	assert.Contains(t, trig.Detail, "glacier")
	assert.Contains(t, trig.Detail, "priority_habitat")
	assert.Contains(t, trig.Detail, "; ")
}

func TestDetectPopulatedCenterPolicy(t *testing.T) {
	snap := testSnapshot(t)

	tests := []struct {
		name       string
		distance   *float64
		population *float64
		want       bool
	}{
		{"inside limit, large center", ptrFloat64(1.5), ptrFloat64(5000), true},
		{"inside limit, small center", ptrFloat64(1.5), ptrFloat64(200), false},
		{"inside limit, unknown population", ptrFloat64(1.5), nil, false},
		{"at limit", ptrFloat64(2.0), ptrFloat64(5000), false},
		{"outside limit", ptrFloat64(8), ptrFloat64(5000), false},
		{"unevaluated", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts := baseFacts()
			facts.Spatial[model.LayerPopulatedCenter] = model.SpatialFact{
				Layer:             model.LayerPopulatedCenter,
				DistanceKM:        tt.distance,
				NearestName:       "Calama",
				NearestPopulation: tt.population,
			}

			triggers, err := Detect(facts, nil, snap)
			require.NoError(t, err)

			var fired bool
			for _, trig := range triggers {
				if trig.Letter == model.LetterA {
					fired = true
				}
			}
			assert.Equal(t, tt.want, fired)
		})
	}
}

func TestDetectProtectedAreaProximityOneBandBelow(t *testing.T) {
	snap := testSnapshot(t)

	facts := baseFacts()
	facts.Spatial[model.LayerProtectedArea] = model.SpatialFact{
		Layer:       model.LayerProtectedArea,
		Intersects:  ptrBool(false),
		DistanceKM:  ptrFloat64(3),
		NearestName: "Reserva Nacional Los Flamencos",
	}

	triggers, err := Detect(facts, nil, snap)
	require.NoError(t, err)
	require.Len(t, triggers, 1)
	assert.Equal(t, model.LetterD, triggers[0].Letter)
	// HIGH intersection severity, proximity rates one band below.
	assert.Equal(t, model.SeverityMedium, triggers[0].Severity)

	// An actual intersection keeps the full severity.
	facts.Spatial[model.LayerProtectedArea] = model.SpatialFact{
		Layer: model.LayerProtectedArea, Intersects: ptrBool(true),
	}
	triggers, err = Detect(facts, nil, snap)
	require.NoError(t, err)
	require.Len(t, triggers, 1)
	assert.Equal(t, model.SeverityHigh, triggers[0].Severity)
}

func TestDetectLetterBoundOutcomesFeedTriggers(t *testing.T) {
	snap := testSnapshot(t)

	rule := model.ThresholdRule{
		ID:           "water-letter-b",
		Parameter:    model.AttrWaterExtraction,
		Operator:     model.OpGT,
		ValueType:    model.ValueNumber,
		NumericValue: 100,
		Unit:         "l/s",
		Outcome:      "significant water extraction",
		Letter:       model.LetterB,
		Severity:     model.SeverityHigh,
		Weight:       0.9,
	}

	outcomes := []model.ThresholdOutcome{
		{Rule: rule, Status: model.OutcomeSatisfied, ActualNumber: ptrFloat64(250)},
	}

	triggers, err := Detect(baseFacts(), outcomes, snap)
	require.NoError(t, err)
	require.Len(t, triggers, 1)
	assert.Equal(t, model.LetterB, triggers[0].Letter)
	assert.Equal(t, model.SeverityHigh, triggers[0].Severity)
	assert.Contains(t, triggers[0].Detail, "water_extraction_lps = 250")

	// Not satisfied or unbound outcomes contribute nothing.
	outcomes[0].Status = model.OutcomeNotSatisfied
	triggers, err = Detect(baseFacts(), outcomes, snap)
	require.NoError(t, err)
	assert.Empty(t, triggers)
}

func TestDetectNilInputs(t *testing.T) {
	snap := testSnapshot(t)

	_, err := Detect(nil, nil, snap)
	require.Error(t, err)

	_, err = Detect(baseFacts(), nil, nil)
	require.Error(t, err)
}
