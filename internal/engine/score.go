package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/atacama-group/seia-cli/internal/model"
	"github.com/atacama-group/seia-cli/internal/rules"
)

// Score aggregates threshold outcomes and detected triggers into a
// classification. The pathway decision is the hard legal rule: any trigger
// with non-zero weight mandates EIA, otherwise DIA. Confidence and the
// matrix score are secondary indicators and never influence the pathway.
//
// Confidence is the clarity-weighted completeness of the evaluated signals:
// each signal contributes its clarity (1.0 when present and far from any
// threshold boundary, less when it fired close to one, 0 when absent),
// divided by the number of evaluated signals. It reaches 1.0 only when every
// signal is present and unambiguous, and can only fall as more inputs are
// missing.
func Score(facts *model.ProjectFacts, outcomes []model.ThresholdOutcome, triggers []model.Trigger, snap *rules.Snapshot) model.ClassificationResult {
	res := model.ClassificationResult{
		ProjectID: facts.ProjectID,
		Pathway:   model.PathwayDIA,
		Triggers:  triggers,
		Outcomes:  outcomes,
		RulesHash: snap.Hash,
	}

	for _, t := range triggers {
		if t.Weight > 0 {
			res.Pathway = model.PathwayEIA
			break
		}
	}

	res.Confidence, res.MissingInputs = confidence(facts, outcomes, snap)
	res.Tier = model.TierForScore(res.Confidence)
	res.MatrixScore = matrixScore(triggers)
	res.Justification = justify(res.Pathway, outcomes, triggers)

	return res
}

// confidence returns the confidence score and the list of missing inputs.
// Evaluated signals are every threshold outcome plus every sensitive layer
// that is either configured with a distance or present in the facts.
func confidence(facts *model.ProjectFacts, outcomes []model.ThresholdOutcome, snap *rules.Snapshot) (float64, []string) {
	var sum float64
	var total int
	var missing []string

	for _, out := range outcomes {
		total++
		if out.Status == model.OutcomeIndeterminate {
			missing = append(missing, out.Rule.Parameter)
			continue
		}
		sum += outcomeClarity(out, snap.Scoring.ClarityFullMargin)
	}

	for _, layer := range model.LayerTypes() {
		f := facts.Fact(layer)
		_, hasTrigger := snap.Proximity.TriggerKM[layer]
		_, hasAlert := snap.Proximity.AlertKM[layer]
		configured := hasTrigger || hasAlert
		if !configured && !f.Evaluated() {
			continue
		}
		total++
		if !f.Evaluated() {
			missing = append(missing, "layer:"+string(layer))
			continue
		}
		sum += layerClarity(f, snap)
	}

	if total == 0 {
		return 0, missing
	}
	return math.Round(sum/float64(total)*10000) / 10000, missing
}

// outcomeClarity rates how decisively a threshold comparison resolved.
// Values far from the threshold are unambiguous; values just at the boundary
// contribute reduced clarity. Categorical comparisons are always exact.
func outcomeClarity(out model.ThresholdOutcome, fullMargin float64) float64 {
	if out.Rule.ValueType != model.ValueNumber || out.ActualNumber == nil {
		return 1.0
	}
	ref := math.Max(math.Abs(out.Rule.NumericValue), 1)
	rel := math.Abs(*out.ActualNumber-out.Rule.NumericValue) / ref
	return clarity(rel, fullMargin)
}

// layerClarity rates a spatial fact. A confirmed intersection or a plain
// boolean flag is unambiguous; a distance close to the configured limit is
// not.
func layerClarity(f model.SpatialFact, snap *rules.Snapshot) float64 {
	if f.Intersects != nil && *f.Intersects {
		return 1.0
	}
	if f.DistanceKM == nil {
		return 1.0
	}
	ref, ok := snap.TriggerDistance(f.Layer)
	if !ok {
		ref, ok = snap.AlertDistance(f.Layer)
	}
	if !ok || ref <= 0 {
		return 1.0
	}
	rel := math.Abs(*f.DistanceKM-ref) / ref
	return clarity(rel, snap.Scoring.ClarityFullMargin)
}

// clarity maps a relative margin to [0.7, 1.0]: 1.0 at or beyond fullMargin,
// linearly down to 0.7 exactly at the boundary.
func clarity(relMargin, fullMargin float64) float64 {
	if fullMargin <= 0 || relMargin >= fullMargin {
		return 1.0
	}
	return 0.7 + 0.3*relMargin/fullMargin
}

// matrixScore combines trigger weights and severities into a 0-100
// aggregate: the weighted sum of severity points, capped at 100. Adding a
// trigger can only raise it. It ranks urgency among EIA cases and never
// decides the pathway.
func matrixScore(triggers []model.Trigger) float64 {
	var sum float64
	for _, t := range triggers {
		sum += t.Weight * t.Severity.Points()
	}
	return math.Round(math.Min(sum, 100)*10) / 10
}

// justify exposes the structured reasons behind the classification so a
// downstream report writer can render prose. One reason per trigger, one per
// satisfied entry threshold, and an explicit reason for the DIA case.
func justify(pathway model.Pathway, outcomes []model.ThresholdOutcome, triggers []model.Trigger) []model.Reason {
	var reasons []model.Reason

	for _, t := range triggers {
		reasons = append(reasons, model.Reason{
			Letter:   t.Letter,
			Summary:  t.Description,
			Evidence: strings.Split(t.Detail, "; "),
		})
	}

	for _, out := range outcomes {
		if out.Rule.Letter != "" || !out.Satisfied() {
			continue
		}
		ev := fmt.Sprintf("%s %s %g %s", out.Rule.Parameter, out.Rule.Operator, out.Rule.NumericValue, out.Rule.Unit)
		if out.ActualNumber != nil {
			ev = fmt.Sprintf("%s = %g %s (threshold %s %g)",
				out.Rule.Parameter, *out.ActualNumber, out.Rule.Unit, out.Rule.Operator, out.Rule.NumericValue)
		}
		reasons = append(reasons, model.Reason{
			Summary:  out.Rule.Outcome,
			Evidence: []string{ev},
		})
	}

	if pathway == model.PathwayDIA {
		reasons = append(reasons, model.Reason{
			Summary: "no Art. 11 entry condition detected; the project qualifies for a simplified declaration (DIA)",
		})
	}
	return reasons
}
