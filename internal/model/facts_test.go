package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectFactsAttributeAccess(t *testing.T) {
	p := &ProjectFacts{
		ProjectID: "P-1",
		Type:      "mineria",
		Attributes: map[string]AttributeValue{
			AttrMonthlyTonnage: NumberValue(8000),
			"phase":            CategoryValue("explotacion"),
		},
	}

	n := p.Number(AttrMonthlyTonnage)
	require.NotNil(t, n)
	assert.Equal(t, 8000.0, *n)

	// Kind mismatches and absent names read as nil.
	assert.Nil(t, p.Number("phase"))
	assert.Nil(t, p.Number("missing"))
	assert.Nil(t, p.Category(AttrMonthlyTonnage))

	s := p.Category("phase")
	require.NotNil(t, s)
	assert.Equal(t, "explotacion", *s)
}

func TestProjectFactsSpatialAccess(t *testing.T) {
	yes := true
	d := 3.5
	p := &ProjectFacts{
		ProjectID: "P-1",
		Type:      "mineria",
		Spatial: map[LayerType]SpatialFact{
			LayerGlacier: {Layer: LayerGlacier, Intersects: &yes, DistanceKM: &d},
		},
	}

	assert.True(t, p.Intersects(LayerGlacier))
	require.NotNil(t, p.Distance(LayerGlacier))
	assert.Equal(t, 3.5, *p.Distance(LayerGlacier))

	// Unevaluated layers answer with the zero fact, never panic.
	assert.False(t, p.Intersects(LayerScenicZone))
	assert.Nil(t, p.Distance(LayerScenicZone))
	assert.False(t, p.Fact(LayerScenicZone).Evaluated())
	assert.True(t, p.Fact(LayerGlacier).Evaluated())
}
