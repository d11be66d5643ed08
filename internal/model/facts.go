package model

// LayerType identifies a sensitive geographic layer evaluated against the
// project footprint.
type LayerType string

const (
	LayerProtectedArea       LayerType = "protected_area"
	LayerGlacier             LayerType = "glacier"
	LayerPriorityHabitat     LayerType = "priority_habitat"
	LayerIndigenousCommunity LayerType = "indigenous_community"
	LayerPopulatedCenter     LayerType = "populated_center"
	LayerTraditionalLandUse  LayerType = "traditional_land_use"
	LayerArchaeologicalSite  LayerType = "archaeological_site"
	LayerScenicZone          LayerType = "scenic_zone"
)

// LayerTypes returns the closed set of evaluated layers in stable order.
func LayerTypes() []LayerType {
	return []LayerType{
		LayerProtectedArea,
		LayerGlacier,
		LayerPriorityHabitat,
		LayerIndigenousCommunity,
		LayerPopulatedCenter,
		LayerTraditionalLandUse,
		LayerArchaeologicalSite,
		LayerScenicZone,
	}
}

// Well-known attribute names used by the bundled rule sets. Rule files may
// reference any attribute name; these constants only keep the CLI, fixtures,
// and tests in sync.
const (
	AttrMonthlyTonnage      = "monthly_tonnage_t"
	AttrSurfaceArea         = "surface_area_ha"
	AttrWaterExtraction     = "water_extraction_lps"
	AttrWorkerCount         = "worker_count"
	AttrDisplacedPopulation = "displaced_population"
	AttrPM10Emission        = "pm10_emission_tpy"
	AttrLiquidDischarge     = "liquid_discharge_m3d"
)

// AttributeValue holds one declared project parameter. Exactly one of Number
// or Text is set depending on Kind.
type AttributeValue struct {
	Kind   ValueKind `json:"kind"`
	Number float64   `json:"number,omitempty"`
	Text   string    `json:"text,omitempty"`
}

// ValueKind discriminates numeric from categorical attribute values.
type ValueKind string

const (
	ValueNumber   ValueKind = "number"
	ValueCategory ValueKind = "category"
)

// NumberValue returns a numeric AttributeValue.
func NumberValue(v float64) AttributeValue {
	return AttributeValue{Kind: ValueNumber, Number: v}
}

// CategoryValue returns a categorical AttributeValue.
func CategoryValue(v string) AttributeValue {
	return AttributeValue{Kind: ValueCategory, Text: v}
}

// SpatialFact holds the precomputed relationship between the project
// footprint and one sensitive layer. Nil fields mean the layer was not
// evaluated, which is distinct from a zero distance or a false flag.
type SpatialFact struct {
	Layer       LayerType `json:"layer"`
	Intersects  *bool     `json:"intersects,omitempty"`
	DistanceKM  *float64  `json:"distance_km,omitempty"`
	NearestName string    `json:"nearest_name,omitempty"`
	NearestID   string    `json:"nearest_id,omitempty"`

	// NearestPopulation carries the population of the nearest feature for
	// layers where size matters (populated centers). Nil when unknown.
	NearestPopulation *float64 `json:"nearest_population,omitempty"`
}

// Evaluated reports whether the layer carries any data at all.
func (f SpatialFact) Evaluated() bool {
	return f.Intersects != nil || f.DistanceKM != nil
}

// ProjectFacts is the full set of evaluatable inputs for one classification
// run. It is assembled fresh per run and treated as immutable afterwards;
// re-analysis builds a new instance rather than mutating one in place.
type ProjectFacts struct {
	ProjectID   string                    `json:"project_id"`
	ProjectName string                    `json:"project_name,omitempty"`
	Type        string                    `json:"type"`
	Subtype     string                    `json:"subtype,omitempty"`
	Phase       string                    `json:"phase,omitempty"`
	Attributes  map[string]AttributeValue `json:"attributes,omitempty"`
	Spatial     map[LayerType]SpatialFact `json:"spatial,omitempty"`
	AreaHa      *float64                  `json:"area_ha,omitempty"`
	CentroidLat *float64                  `json:"centroid_lat,omitempty"`
	CentroidLng *float64                  `json:"centroid_lng,omitempty"`
}

// Number returns the named numeric attribute, or nil when the attribute is
// absent or categorical.
func (p *ProjectFacts) Number(name string) *float64 {
	v, ok := p.Attributes[name]
	if !ok || v.Kind != ValueNumber {
		return nil
	}
	n := v.Number
	return &n
}

// Category returns the named categorical attribute, or nil when the
// attribute is absent or numeric.
func (p *ProjectFacts) Category(name string) *string {
	v, ok := p.Attributes[name]
	if !ok || v.Kind != ValueCategory {
		return nil
	}
	s := v.Text
	return &s
}

// Fact returns the spatial fact for the given layer. The zero fact is
// returned for layers the GIS run did not cover.
func (p *ProjectFacts) Fact(layer LayerType) SpatialFact {
	f, ok := p.Spatial[layer]
	if !ok {
		return SpatialFact{Layer: layer}
	}
	return f
}

// Intersects reports whether the project footprint intersects the given
// layer. Unevaluated layers report false.
func (p *ProjectFacts) Intersects(layer LayerType) bool {
	f := p.Fact(layer)
	return f.Intersects != nil && *f.Intersects
}

// Distance returns the distance in kilometers to the nearest feature of the
// given layer, or nil when the layer was not evaluated.
func (p *ProjectFacts) Distance(layer LayerType) *float64 {
	return p.Fact(layer).DistanceKM
}
