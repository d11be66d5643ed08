package gis

import (
	"testing"

	shp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeWKT(t *testing.T) {
	wkt, err := shapeWKT(&shp.Point{X: -68.9, Y: -22.45})
	require.NoError(t, err)
	assert.Equal(t, "POINT (-68.9 -22.45)", wkt)

	poly := &shp.Polygon{
		Points: []shp.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 0}},
		Parts:  []int32{0},
	}
	wkt, err = shapeWKT(poly)
	require.NoError(t, err)
	assert.Equal(t, "POLYGON ((0 0, 1 0, 1 1, 0 0))", wkt)

	line := &shp.PolyLine{
		Points: []shp.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}},
		Parts:  []int32{0, 2},
	}
	wkt, err = shapeWKT(line)
	require.NoError(t, err)
	assert.Equal(t, "MULTILINESTRING ((0 0, 1 1), (2 2, 3 3))", wkt)

	_, err = shapeWKT(&shp.MultiPoint{})
	require.Error(t, err)
}
