package engine

import (
	"fmt"
	"sort"

	"github.com/atacama-group/seia-cli/internal/model"
	"github.com/atacama-group/seia-cli/internal/rules"
)

// GenerateAlerts derives user-facing alerts from the spatial facts and
// satisfied thresholds, independent of the DIA/EIA decision. Alert distances
// are at least as conservative as the legal trigger distances, so a
// near-miss (inside the alert distance, outside the legal distance) produces
// an alert with no trigger: the early-warning mechanism.
//
// Any alert for a layer that also produced a trigger is raised to at least
// that trigger's severity, so alerts and triggers never contradict each
// other within a run. Output order is deterministic: severity descending,
// then category, then id.
func GenerateAlerts(facts *model.ProjectFacts, triggers []model.Trigger, snap *rules.Snapshot) []model.Alert {
	triggerSeverity := map[model.Letter]model.Severity{}
	for _, t := range triggers {
		triggerSeverity[t.Letter] = t.Severity
	}

	var alerts []model.Alert

	for _, layer := range model.LayerTypes() {
		f := facts.Fact(layer)
		a, ok := layerAlert(layer, f, snap)
		if !ok {
			continue
		}
		if letter, mapped := letterLayers[layer]; mapped {
			if sev, fired := triggerSeverity[letter]; fired {
				a.Severity = model.MaxSeverity(a.Severity, sev)
			}
		}
		alerts = append(alerts, a)
	}

	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].Severity.Rank() != alerts[j].Severity.Rank() {
			return alerts[i].Severity.Rank() > alerts[j].Severity.Rank()
		}
		if alerts[i].Category != alerts[j].Category {
			return alerts[i].Category < alerts[j].Category
		}
		return alerts[i].ID < alerts[j].ID
	})
	return alerts
}

// layerAlert builds the alert for one layer, if any fact crosses the
// configured alert distance or intersects outright.
func layerAlert(layer model.LayerType, f model.SpatialFact, snap *rules.Snapshot) (model.Alert, bool) {
	if f.Intersects != nil && *f.Intersects {
		return model.Alert{
			ID:          fmt.Sprintf("%s-intersection", layer),
			Severity:    snap.Severity(layer),
			Category:    model.AlertCategoryIntersection,
			Layer:       layer,
			Title:       fmt.Sprintf("Project footprint intersects %s", layer),
			Description: intersectionDetail(layer, f),
			Actions:     intersectionActions(layer),
		}, true
	}

	if f.DistanceKM == nil {
		return model.Alert{}, false
	}
	d := *f.DistanceKM

	if limit, ok := snap.TriggerDistance(layer); ok && d < limit {
		return model.Alert{
			ID:       fmt.Sprintf("%s-proximity", layer),
			Severity: snap.Severity(layer),
			Category: model.AlertCategoryProximity,
			Layer:    layer,
			Title:    fmt.Sprintf("Project inside legal distance of %s", layer),
			Description: fmt.Sprintf("nearest %s %q at %.1f km, legal limit %.1f km",
				layer, f.NearestName, d, limit),
			Actions: []string{"verify distance with updated cartography", "prepare Art. 11 impact analysis for this layer"},
		}, true
	}

	if limit, ok := snap.AlertDistance(layer); ok && d < limit {
		return model.Alert{
			ID:       fmt.Sprintf("%s-proximity", layer),
			Severity: model.SeverityMedium,
			Category: model.AlertCategoryProximity,
			Layer:    layer,
			Title:    fmt.Sprintf("Project near %s", layer),
			Description: fmt.Sprintf("nearest %s %q at %.1f km, early-warning distance %.1f km",
				layer, f.NearestName, d, limit),
			Actions: []string{"monitor layer during detailed design", "document distance in the submission annex"},
		}, true
	}

	return model.Alert{}, false
}

func intersectionActions(layer model.LayerType) []string {
	switch layer {
	case model.LayerArchaeologicalSite:
		return []string{"commission an archaeological baseline survey", "notify the Consejo de Monumentos Nacionales"}
	case model.LayerIndigenousCommunity, model.LayerTraditionalLandUse:
		return []string{"initiate indigenous consultation (Convenio 169)", "map affected life systems"}
	case model.LayerGlacier:
		return []string{"commission a glaciological baseline", "redesign footprint to avoid the glacier"}
	default:
		return []string{"delimit the overlap with official cartography", "assess avoidance alternatives"}
	}
}
