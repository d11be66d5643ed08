package engine

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/atacama-group/seia-cli/internal/model"
	"github.com/atacama-group/seia-cli/internal/rules"
)

// letterLayers maps each sensitive layer to the Art. 11 letter its
// intersection feeds. Alert generation uses the same mapping so alerts and
// triggers never disagree about a layer.
var letterLayers = map[model.LayerType]model.Letter{
	model.LayerPopulatedCenter:     model.LetterA,
	model.LayerGlacier:             model.LetterB,
	model.LayerPriorityHabitat:     model.LetterB,
	model.LayerIndigenousCommunity: model.LetterC,
	model.LayerTraditionalLandUse:  model.LetterC,
	model.LayerProtectedArea:       model.LetterD,
	model.LayerArchaeologicalSite:  model.LetterE,
	model.LayerScenicZone:          model.LetterF,
}

// detection is one raw per-letter finding before merging.
type detection struct {
	severity model.Severity
	detail   string
	weight   float64
}

// Detect evaluates the six Art. 11 letters against the facts and the
// threshold outcomes already computed for them. The returned slice is always
// in letter order a through f; duplicate findings for one letter are merged
// keeping the highest severity and concatenating details.
//
// Missing input data for a letter means that letter does not trigger. That
// is a deliberate policy, distinct from the threshold evaluator's
// indeterminate outcome: an unevaluated layer cannot mandate an EIA, it can
// only lower confidence. Structurally absent facts, by contrast, fail fast
// with ErrInvalidInput.
func Detect(facts *model.ProjectFacts, outcomes []model.ThresholdOutcome, snap *rules.Snapshot) ([]model.Trigger, error) {
	if facts == nil {
		return nil, eris.Wrap(ErrInvalidInput, "detect: nil facts")
	}
	if snap == nil {
		return nil, eris.Wrap(ErrInvalidInput, "detect: nil rule snapshot")
	}

	found := map[model.Letter][]detection{}
	add := func(l model.Letter, d detection) {
		found[l] = append(found[l], d)
	}

	// Threshold rules bound to a letter contribute directly.
	for _, out := range outcomes {
		r := out.Rule
		if r.Letter == "" || !out.Satisfied() {
			continue
		}
		detail := r.Outcome
		if out.ActualNumber != nil {
			detail = fmt.Sprintf("%s (%s = %g %s, threshold %s %g)",
				r.Outcome, r.Parameter, *out.ActualNumber, r.Unit, r.Operator, r.NumericValue)
		}
		add(r.Letter, detection{severity: r.Severity, detail: detail, weight: r.Weight})
	}

	detectHealthRisk(facts, snap, add)
	detectNaturalResources(facts, snap, add)
	detectLifeSystems(facts, snap, add)
	detectProtectedAreas(facts, snap, add)
	detectCulturalHeritage(facts, snap, add)
	detectLandscape(facts, snap, add)

	// Merge and emit in statutory order.
	var triggers []model.Trigger
	for _, l := range model.Letters() {
		ds := found[l]
		if len(ds) == 0 {
			continue
		}
		t := model.Trigger{
			Letter:      l,
			Description: l.Description(),
			LegalBasis:  l.LegalBasis(),
		}
		for i, d := range ds {
			t.Severity = model.MaxSeverity(t.Severity, d.severity)
			if d.weight > t.Weight {
				t.Weight = d.weight
			}
			if i > 0 {
				t.Detail += "; "
			}
			t.Detail += d.detail
		}
		triggers = append(triggers, t)
	}
	return triggers, nil
}

// detectHealthRisk covers letter a: emission/discharge thresholds are fed in
// via rule outcomes above; here only proximity to a sufficiently large
// populated center is checked. Centers with unknown population do not
// trigger (missing-data policy).
func detectHealthRisk(facts *model.ProjectFacts, snap *rules.Snapshot, add func(model.Letter, detection)) {
	f := facts.Fact(model.LayerPopulatedCenter)
	limit, ok := snap.TriggerDistance(model.LayerPopulatedCenter)
	if !ok || f.DistanceKM == nil || *f.DistanceKM >= limit {
		return
	}
	if f.NearestPopulation == nil || *f.NearestPopulation < snap.Proximity.PopulatedCenterMinPopulation {
		return
	}
	add(model.LetterA, detection{
		severity: snap.Severity(model.LayerPopulatedCenter),
		detail: fmt.Sprintf("populated center %q (%.0f inhabitants) at %.1f km, inside %.1f km limit",
			f.NearestName, *f.NearestPopulation, *f.DistanceKM, limit),
		weight: snap.LetterWeight(model.LetterA),
	})
}

// detectNaturalResources covers letter b: glacier or priority habitat
// intersections. Resource-use thresholds (water extraction) arrive as rule
// outcomes bound to letter b.
func detectNaturalResources(facts *model.ProjectFacts, snap *rules.Snapshot, add func(model.Letter, detection)) {
	for _, layer := range []model.LayerType{model.LayerGlacier, model.LayerPriorityHabitat} {
		if !facts.Intersects(layer) {
			continue
		}
		f := facts.Fact(layer)
		add(model.LetterB, detection{
			severity: snap.Severity(layer),
			detail:   intersectionDetail(layer, f),
			weight:   snap.LetterWeight(model.LetterB),
		})
	}
}

// detectLifeSystems covers letter c: intersection with indigenous community
// land or traditional-use land. Displacement counts arrive as rule outcomes
// bound to letter c.
func detectLifeSystems(facts *model.ProjectFacts, snap *rules.Snapshot, add func(model.Letter, detection)) {
	for _, layer := range []model.LayerType{model.LayerIndigenousCommunity, model.LayerTraditionalLandUse} {
		if !facts.Intersects(layer) {
			continue
		}
		f := facts.Fact(layer)
		add(model.LetterC, detection{
			severity: snap.Severity(layer),
			detail:   intersectionDetail(layer, f),
			weight:   snap.LetterWeight(model.LetterC),
		})
	}
}

// detectProtectedAreas covers letter d: intersection with, or proximity to,
// a protected area.
func detectProtectedAreas(facts *model.ProjectFacts, snap *rules.Snapshot, add func(model.Letter, detection)) {
	f := facts.Fact(model.LayerProtectedArea)
	if facts.Intersects(model.LayerProtectedArea) {
		add(model.LetterD, detection{
			severity: snap.Severity(model.LayerProtectedArea),
			detail:   intersectionDetail(model.LayerProtectedArea, f),
			weight:   snap.LetterWeight(model.LetterD),
		})
		return
	}
	limit, ok := snap.TriggerDistance(model.LayerProtectedArea)
	if !ok || f.DistanceKM == nil || *f.DistanceKM >= limit {
		return
	}
	add(model.LetterD, detection{
		severity: oneBelow(snap.Severity(model.LayerProtectedArea)),
		detail: fmt.Sprintf("protected area %q at %.1f km, inside %.1f km limit",
			f.NearestName, *f.DistanceKM, limit),
		weight: snap.LetterWeight(model.LetterD),
	})
}

// detectCulturalHeritage covers letter e: intersection with archaeological
// or historical sites.
func detectCulturalHeritage(facts *model.ProjectFacts, snap *rules.Snapshot, add func(model.Letter, detection)) {
	if !facts.Intersects(model.LayerArchaeologicalSite) {
		return
	}
	f := facts.Fact(model.LayerArchaeologicalSite)
	add(model.LetterE, detection{
		severity: snap.Severity(model.LayerArchaeologicalSite),
		detail:   intersectionDetail(model.LayerArchaeologicalSite, f),
		weight:   snap.LetterWeight(model.LetterE),
	})
}

// detectLandscape covers letter f: intersection with, or proximity to, a
// declared scenic or tourist zone.
func detectLandscape(facts *model.ProjectFacts, snap *rules.Snapshot, add func(model.Letter, detection)) {
	f := facts.Fact(model.LayerScenicZone)
	if facts.Intersects(model.LayerScenicZone) {
		add(model.LetterF, detection{
			severity: snap.Severity(model.LayerScenicZone),
			detail:   intersectionDetail(model.LayerScenicZone, f),
			weight:   snap.LetterWeight(model.LetterF),
		})
		return
	}
	limit, ok := snap.TriggerDistance(model.LayerScenicZone)
	if !ok || f.DistanceKM == nil || *f.DistanceKM >= limit {
		return
	}
	add(model.LetterF, detection{
		severity: oneBelow(snap.Severity(model.LayerScenicZone)),
		detail: fmt.Sprintf("scenic zone %q at %.1f km, inside %.1f km limit",
			f.NearestName, *f.DistanceKM, limit),
		weight: snap.LetterWeight(model.LetterF),
	})
}

func intersectionDetail(layer model.LayerType, f model.SpatialFact) string {
	if f.NearestName != "" {
		return fmt.Sprintf("project footprint intersects %s %q", layer, f.NearestName)
	}
	return fmt.Sprintf("project footprint intersects %s", layer)
}

// oneBelow returns the severity one band below s. Proximity findings are
// rated one band under the equivalent intersection.
func oneBelow(s model.Severity) model.Severity {
	switch s {
	case model.SeverityCritical:
		return model.SeverityHigh
	case model.SeverityHigh:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}
