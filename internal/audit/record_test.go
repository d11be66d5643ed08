package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atacama-group/seia-cli/internal/model"
)

func testFacts() *model.ProjectFacts {
	return &model.ProjectFacts{
		ProjectID: "MINA-CU-0042",
		Type:      "mineria",
		Attributes: map[string]model.AttributeValue{
			model.AttrMonthlyTonnage: model.NumberValue(8000),
		},
	}
}

func testResult() *model.ClassificationResult {
	return &model.ClassificationResult{
		RunID:       "550e8400-e29b-41d4-a716-446655440000",
		ProjectID:   "MINA-CU-0042",
		Pathway:     model.PathwayEIA,
		Confidence:  0.95,
		Tier:        model.TierVeryHigh,
		MatrixScore: 90,
		RulesHash:   "deadbeefdeadbeefdeadbeefdeadbeef",
		EvaluatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewRecord(t *testing.T) {
	rec, err := NewRecord(testFacts(), testResult())
	require.NoError(t, err)

	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", rec.RunID)
	assert.Equal(t, "MINA-CU-0042", rec.ProjectID)
	assert.Equal(t, "deadbeefdeadbeefdeadbeefdeadbeef", rec.RulesHash)
	assert.Len(t, rec.InputHash, 32)
	assert.Equal(t, testResult().EvaluatedAt, rec.CreatedAt)

	_, err = NewRecord(nil, testResult())
	require.Error(t, err)
	_, err = NewRecord(testFacts(), nil)
	require.Error(t, err)
}

func TestInputHashReproducible(t *testing.T) {
	a, err := InputHash(testFacts(), "hash-1")
	require.NoError(t, err)
	b, err := InputHash(testFacts(), "hash-1")
	require.NoError(t, err)

	// Same facts and rule set, same hash: re-runs are provably comparable.
	assert.Equal(t, a, b)

	// Different rule set, different hash.
	c, err := InputHash(testFacts(), "hash-2")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	// Different facts, different hash.
	facts := testFacts()
	facts.Attributes[model.AttrMonthlyTonnage] = model.NumberValue(8001)
	d, err := InputHash(facts, "hash-1")
	require.NoError(t, err)
	assert.NotEqual(t, a, d)
}
