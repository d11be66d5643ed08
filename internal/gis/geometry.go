package gis

import (
	"math"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// Meters per degree at the equator, WGS84 approximations. Longitude is
// scaled by the cosine of the reference latitude.
const (
	metersPerDegLat = 110540.0
	metersPerDegLng = 111320.0
)

// SiteMetrics holds the derived geometry metrics fed into ProjectFacts.
type SiteMetrics struct {
	AreaHa      float64 `json:"area_ha"`
	CentroidLat float64 `json:"centroid_lat"`
	CentroidLng float64 `json:"centroid_lng"`
}

// ComputeSiteMetrics parses a GeoJSON geometry (Polygon or MultiPolygon)
// and returns its approximate planar area in hectares and centroid. The
// local equirectangular projection is accurate for project-scale footprints
// (a few kilometers across).
func ComputeSiteMetrics(data []byte) (*SiteMetrics, error) {
	var g geom.T
	if err := geojson.Unmarshal(data, &g); err != nil {
		return nil, eris.Wrap(err, "gis: parse site geometry")
	}

	var polys []*geom.Polygon
	switch t := g.(type) {
	case *geom.Polygon:
		polys = []*geom.Polygon{t}
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			polys = append(polys, t.Polygon(i))
		}
	default:
		return nil, eris.Errorf("gis: unsupported site geometry type %T", g)
	}
	if len(polys) == 0 {
		return nil, eris.New("gis: empty site geometry")
	}

	refLat := polys[0].Coord(0)[1]
	cosLat := math.Cos(refLat * math.Pi / 180)

	var totalArea, cxSum, cySum float64
	for _, p := range polys {
		area, cx, cy := polygonAreaCentroid(p, cosLat)
		totalArea += area
		cxSum += cx * area
		cySum += cy * area
	}
	if totalArea <= 0 {
		return nil, eris.New("gis: site geometry has zero area")
	}

	return &SiteMetrics{
		AreaHa:      totalArea / 10_000,
		CentroidLng: cxSum / totalArea,
		CentroidLat: cySum / totalArea,
	}, nil
}

// polygonAreaCentroid returns the area in square meters and the centroid
// (lng, lat) of one polygon, holes subtracted, using the shoelace formula in
// a local projection.
func polygonAreaCentroid(p *geom.Polygon, cosLat float64) (area, cLng, cLat float64) {
	var cxw, cyw float64
	for ring := 0; ring < p.NumLinearRings(); ring++ {
		coords := p.LinearRing(ring).Coords()
		ringArea, rx, ry := ringAreaCentroid(coords, cosLat)
		if ring > 0 {
			ringArea = -ringArea // holes
		}
		area += ringArea
		cxw += rx * ringArea
		cyw += ry * ringArea
	}
	area = math.Abs(area)
	if area == 0 {
		return 0, 0, 0
	}
	return area, cxw / area, cyw / area
}

// ringAreaCentroid computes the shoelace area (m^2) and centroid of one
// ring. The centroid is returned in degrees.
func ringAreaCentroid(coords []geom.Coord, cosLat float64) (area, cLng, cLat float64) {
	n := len(coords)
	if n < 3 {
		return 0, 0, 0
	}

	var a, cx, cy float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		xi, yi := coords[i][0]*metersPerDegLng*cosLat, coords[i][1]*metersPerDegLat
		xj, yj := coords[j][0]*metersPerDegLng*cosLat, coords[j][1]*metersPerDegLat
		cross := xi*yj - xj*yi
		a += cross
		cx += (xi + xj) * cross
		cy += (yi + yj) * cross
	}
	a /= 2
	if a == 0 {
		return 0, 0, 0
	}
	cx /= 6 * a
	cy /= 6 * a

	return math.Abs(a), cx / (metersPerDegLng * cosLat), cy / metersPerDegLat
}
