package gis

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atacama-group/seia-cli/internal/model"
)

func TestLoadFactsSkipsEmptyLayers(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	site := `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`
	cols := []string{"name", "source_id", "population", "distance_km", "intersects"}
	glacierID := "glacier:7"
	pop := 5000.0

	// Queries run in the fixed layer order; only the glacier and populated
	// center layers have features loaded.
	for _, layer := range model.LayerTypes() {
		q := mock.ExpectQuery(`SELECT f.name`).WithArgs(site, string(layer))
		switch layer {
		case model.LayerGlacier:
			q.WillReturnRows(pgxmock.NewRows(cols).
				AddRow("Glaciar Tronquitos", &glacierID, nil, 8.2, false))
		case model.LayerPopulatedCenter:
			q.WillReturnRows(pgxmock.NewRows(cols).
				AddRow("Calama", nil, &pop, 25.0, false))
		default:
			q.WillReturnRows(pgxmock.NewRows(cols))
		}
	}

	loader := NewFactsLoader(mock)
	facts, err := loader.LoadFacts(context.Background(), []byte(site))

	require.NoError(t, err)
	require.Len(t, facts, 2)

	g := facts[model.LayerGlacier]
	assert.Equal(t, "Glaciar Tronquitos", g.NearestName)
	assert.Equal(t, "glacier:7", g.NearestID)
	require.NotNil(t, g.DistanceKM)
	assert.InDelta(t, 8.2, *g.DistanceKM, 0.001)
	require.NotNil(t, g.Intersects)
	assert.False(t, *g.Intersects)
	assert.Nil(t, g.NearestPopulation)

	c := facts[model.LayerPopulatedCenter]
	require.NotNil(t, c.NearestPopulation)
	assert.Equal(t, 5000.0, *c.NearestPopulation)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadFactsEmptyGeometry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	loader := NewFactsLoader(mock)
	_, err = loader.LoadFacts(context.Background(), nil)
	require.Error(t, err)
}
