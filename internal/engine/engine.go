// Package engine implements the pure rule evaluation and classification
// core: threshold evaluation, Art. 11 trigger detection, classification
// scoring, and alert generation. The engine holds no state between runs and
// performs no I/O; concurrent runs need no locking. Fetching spatial facts,
// persisting results, and rendering report prose all happen in the
// surrounding layers, never inside a run.
package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/atacama-group/seia-cli/internal/model"
	"github.com/atacama-group/seia-cli/internal/rules"
)

// Run executes the full pipeline for one project against one rule snapshot:
// threshold evaluation, trigger detection, scoring, and alert generation.
// Identical facts and an identical snapshot produce field-identical results
// apart from RunID and EvaluatedAt.
//
// InvalidInput and configuration errors propagate; indeterminate parameters
// never abort a run, they lower the confidence tier and are listed in
// MissingInputs.
func Run(facts *model.ProjectFacts, snap *rules.Snapshot) (*model.ClassificationResult, error) {
	if facts == nil {
		return nil, eris.Wrap(ErrInvalidInput, "engine: nil facts")
	}
	if snap == nil {
		return nil, eris.Wrap(ErrInvalidInput, "engine: nil rule snapshot")
	}
	if err := validateFacts(facts); err != nil {
		return nil, err
	}

	active, err := snap.RulesFor(facts.Type)
	if err != nil {
		return nil, err
	}

	outcomes, err := EvaluateThresholds(active, facts)
	if err != nil {
		return nil, err
	}

	triggers, err := Detect(facts, outcomes, snap)
	if err != nil {
		return nil, err
	}

	result := Score(facts, outcomes, triggers, snap)
	result.Alerts = GenerateAlerts(facts, triggers, snap)
	result.RunID = uuid.NewString()
	result.EvaluatedAt = time.Now().UTC()

	zap.L().Info("engine: classification complete",
		zap.String("run_id", result.RunID),
		zap.String("project_id", facts.ProjectID),
		zap.String("pathway", string(result.Pathway)),
		zap.Float64("confidence", result.Confidence),
		zap.String("tier", string(result.Tier)),
		zap.Float64("matrix_score", result.MatrixScore),
		zap.Int("triggers", len(result.Triggers)),
		zap.Int("alerts", len(result.Alerts)),
	)
	return &result, nil
}

// validateFacts rejects structurally malformed facts: negative distances and
// attribute values with an unknown kind. A null distance means "layer not
// evaluated" and is legal; a negative one is a contract violation.
func validateFacts(facts *model.ProjectFacts) error {
	if facts.ProjectID == "" {
		return eris.Wrap(ErrInvalidInput, "engine: facts missing project_id")
	}
	if facts.Type == "" {
		return eris.Wrap(ErrInvalidInput, "engine: facts missing project type")
	}
	for layer, f := range facts.Spatial {
		if f.DistanceKM != nil && *f.DistanceKM < 0 {
			return eris.Wrapf(ErrInvalidInput, "engine: negative distance for layer %s", layer)
		}
	}
	for name, v := range facts.Attributes {
		if v.Kind != model.ValueNumber && v.Kind != model.ValueCategory {
			return eris.Wrapf(ErrInvalidInput, "engine: attribute %q has unknown kind %q", name, v.Kind)
		}
	}
	return nil
}
