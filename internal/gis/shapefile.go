package gis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/atacama-group/seia-cli/internal/db"
	"github.com/atacama-group/seia-cli/internal/model"
)

// nameFieldCandidates are the attribute names (normalized) searched for the
// feature name column across official Chilean layer shapefiles.
var nameFieldCandidates = []string{"nombre", "name", "nom_reg", "denominacion"}

// populationFieldCandidates are the attribute names searched for the
// population column of populated-center layers.
var populationFieldCandidates = []string{"poblacion", "population", "pob_total", "total_pers"}

// ImportShapefile loads the features of one sensitive layer from a
// shapefile into geo.layer_features: rows are bulk-copied into a staging
// table as WKT and converted to geometries in a single statement.
func ImportShapefile(ctx context.Context, pool db.Pool, path string, layer model.LayerType) (int64, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return 0, eris.Wrapf(err, "gis: open shapefile %s", path)
	}
	defer reader.Close()

	fields := reader.Fields()
	nameIdx, popIdx := -1, -1
	for i, f := range fields {
		n := NormalizeName(f.String())
		for _, c := range nameFieldCandidates {
			if n == c && nameIdx < 0 {
				nameIdx = i
			}
		}
		for _, c := range populationFieldCandidates {
			if n == c && popIdx < 0 {
				popIdx = i
			}
		}
	}

	var rows [][]any
	for reader.Next() {
		n, shape := reader.Shape()

		wkt, err := shapeWKT(shape)
		if err != nil {
			zap.L().Warn("gis: skipping unsupported shape",
				zap.String("file", path),
				zap.Int("record", n),
				zap.Error(err),
			)
			continue
		}

		var name string
		if nameIdx >= 0 {
			name = strings.TrimSpace(reader.ReadAttribute(n, nameIdx))
		}
		var population *float64
		if popIdx >= 0 {
			if v, err := strconv.ParseFloat(strings.TrimSpace(reader.ReadAttribute(n, popIdx)), 64); err == nil {
				population = &v
			}
		}

		rows = append(rows, []any{
			string(layer),
			name,
			fmt.Sprintf("%s:%d", layer, n),
			population,
			wkt,
		})
	}
	if err := reader.Err(); err != nil {
		return 0, eris.Wrapf(err, "gis: read shapefile %s", path)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	columns := []string{"layer", "name", "source_id", "population", "geom_wkt"}

	if _, err := pool.Exec(ctx, `
		CREATE TEMP TABLE _layer_staging
			(layer TEXT, name TEXT, source_id TEXT, population DOUBLE PRECISION, geom_wkt TEXT)
		ON COMMIT PRESERVE ROWS
	`); err != nil {
		return 0, eris.Wrap(err, "gis: create staging table")
	}

	if _, err := db.CopyFrom(ctx, pool, "", "_layer_staging", columns, rows); err != nil {
		return 0, err
	}

	tag, err := pool.Exec(ctx, `
		INSERT INTO geo.layer_features (layer, name, source_id, population, geom)
		SELECT layer, name, source_id, population, ST_SetSRID(ST_GeomFromText(geom_wkt), 4326)
		FROM _layer_staging
		ON CONFLICT (source_id) DO UPDATE SET
			name = EXCLUDED.name,
			population = EXCLUDED.population,
			geom = EXCLUDED.geom
	`)
	if err != nil {
		return 0, eris.Wrapf(err, "gis: load staged features for %s", layer)
	}

	zap.L().Info("gis: layer imported",
		zap.String("layer", string(layer)),
		zap.String("file", path),
		zap.Int64("features", tag.RowsAffected()),
	)
	return tag.RowsAffected(), nil
}

// shapeWKT converts the supported shapefile geometries to WKT.
func shapeWKT(shape shp.Shape) (string, error) {
	switch s := shape.(type) {
	case *shp.Point:
		return fmt.Sprintf("POINT (%g %g)", s.X, s.Y), nil
	case *shp.Polygon:
		return polygonWKT(s.Points, s.Parts), nil
	case *shp.PolyLine:
		return polylineWKT(s.Points, s.Parts), nil
	default:
		return "", eris.Errorf("gis: unsupported shape type %T", shape)
	}
}

func polygonWKT(points []shp.Point, parts []int32) string {
	return "POLYGON " + ringsWKT(points, parts)
}

func polylineWKT(points []shp.Point, parts []int32) string {
	return "MULTILINESTRING " + ringsWKT(points, parts)
}

// ringsWKT renders the shapefile part structure as a WKT ring list.
func ringsWKT(points []shp.Point, parts []int32) string {
	var b strings.Builder
	b.WriteString("(")
	for p := 0; p < len(parts); p++ {
		start := int(parts[p])
		end := len(points)
		if p+1 < len(parts) {
			end = int(parts[p+1])
		}
		if p > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for i := start; i < end; i++ {
			if i > start {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%g %g", points[i].X, points[i].Y)
		}
		b.WriteString(")")
	}
	b.WriteString(")")
	return b.String()
}
