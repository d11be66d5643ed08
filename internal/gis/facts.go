// Package gis produces the spatial facts the classification engine
// consumes: per-layer intersection flags and nearest-feature distances
// computed in PostGIS, plus site geometry metrics. The engine itself never
// performs geometry operations; everything here runs strictly before a
// classification call.
package gis

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/atacama-group/seia-cli/internal/db"
	"github.com/atacama-group/seia-cli/internal/model"
)

// nearestFeatureSQL finds the closest feature of one layer to the site
// geometry, with its distance and whether the footprint intersects it.
const nearestFeatureSQL = `
WITH site AS (
	SELECT ST_SetSRID(ST_GeomFromGeoJSON($1), 4326) AS geom
)
SELECT f.name,
       f.source_id,
       f.population,
       ST_Distance(f.geom::geography, site.geom::geography) / 1000.0,
       ST_Intersects(f.geom, site.geom)
FROM geo.layer_features f, site
WHERE f.layer = $2
ORDER BY f.geom <-> site.geom
LIMIT 1`

// FactsLoader computes spatial facts for a project site against the loaded
// sensitive layers.
type FactsLoader struct {
	pool db.Pool
}

// NewFactsLoader creates a loader backed by the given pool.
func NewFactsLoader(pool db.Pool) *FactsLoader {
	return &FactsLoader{pool: pool}
}

// LoadFacts returns one spatial fact per sensitive layer for the given site
// geometry (GeoJSON). A layer with no loaded features, or whose query
// fails, yields no fact: the engine treats the layer as not evaluated and
// lowers confidence instead of failing the run.
func (l *FactsLoader) LoadFacts(ctx context.Context, siteGeoJSON json.RawMessage) (map[model.LayerType]model.SpatialFact, error) {
	if len(siteGeoJSON) == 0 {
		return nil, eris.New("gis: empty site geometry")
	}

	log := zap.L().With(zap.String("component", "gis.facts"))
	facts := make(map[model.LayerType]model.SpatialFact)

	for _, layer := range model.LayerTypes() {
		fact, err := l.nearestFeature(ctx, siteGeoJSON, layer)
		if err != nil {
			if eris.Is(err, pgx.ErrNoRows) {
				log.Warn("layer has no features loaded; skipping",
					zap.String("layer", string(layer)))
				continue
			}
			return nil, eris.Wrapf(err, "gis: layer %s", layer)
		}
		facts[layer] = fact
	}
	return facts, nil
}

func (l *FactsLoader) nearestFeature(ctx context.Context, siteGeoJSON json.RawMessage, layer model.LayerType) (model.SpatialFact, error) {
	row := l.pool.QueryRow(ctx, nearestFeatureSQL, string(siteGeoJSON), string(layer))

	var (
		name       string
		sourceID   *string
		population *float64
		distanceKM float64
		intersects bool
	)
	if err := row.Scan(&name, &sourceID, &population, &distanceKM, &intersects); err != nil {
		return model.SpatialFact{}, err
	}

	fact := model.SpatialFact{
		Layer:             layer,
		Intersects:        &intersects,
		DistanceKM:        &distanceKM,
		NearestName:       name,
		NearestPopulation: population,
	}
	if sourceID != nil {
		fact.NearestID = *sourceID
	}
	return fact, nil
}
