package model

import "time"

// Pathway is the recommended SEIA entry instrument.
type Pathway string

const (
	// PathwayEIA is a full environmental impact study, mandatory when any
	// Art. 11 letter is triggered.
	PathwayEIA Pathway = "EIA"
	// PathwayDIA is the simplified environmental declaration.
	PathwayDIA Pathway = "DIA"
)

// ConfidenceTier is the discrete confidence band derived from the numeric
// confidence score.
type ConfidenceTier string

const (
	TierVeryHigh ConfidenceTier = "VERY_HIGH"
	TierHigh     ConfidenceTier = "HIGH"
	TierMedium   ConfidenceTier = "MEDIUM"
	TierLow      ConfidenceTier = "LOW"
)

// TierForScore maps a confidence score to its tier. The bands are fixed:
// >= 0.90 VERY_HIGH, >= 0.75 HIGH, >= 0.50 MEDIUM, below LOW.
func TierForScore(score float64) ConfidenceTier {
	switch {
	case score >= 0.90:
		return TierVeryHigh
	case score >= 0.75:
		return TierHigh
	case score >= 0.50:
		return TierMedium
	default:
		return TierLow
	}
}

// Trigger is one detected Art. 11 condition for a specific run. A run holds
// at most one trigger per letter; duplicate detections are merged keeping the
// highest severity.
type Trigger struct {
	Letter      Letter   `json:"letter"`
	Description string   `json:"description"`
	Detail      string   `json:"detail,omitempty"`
	Severity    Severity `json:"severity"`
	LegalBasis  string   `json:"legal_basis"`
	Weight      float64  `json:"weight"`
}

// Alert is one user-facing warning derived from the underlying facts,
// independent of the DIA/EIA decision. Near-misses inside the alert distance
// but outside the legal trigger distance produce an alert with no trigger.
type Alert struct {
	ID          string    `json:"id"`
	Severity    Severity  `json:"severity"`
	Category    string    `json:"category"`
	Layer       LayerType `json:"layer,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Actions     []string  `json:"actions,omitempty"`
}

// Alert categories.
const (
	AlertCategoryIntersection = "intersection"
	AlertCategoryProximity    = "proximity"
)

// Reason is one structured justification entry: which letter (or threshold)
// fired and the evidence behind it. Callers render prose from these; the
// engine never produces natural-language justification itself.
type Reason struct {
	Letter   Letter   `json:"letter,omitempty"`
	Summary  string   `json:"summary"`
	Evidence []string `json:"evidence,omitempty"`
}

// ClassificationResult is the output of one analysis run. It is created once
// per run and never mutated; re-analysis produces a new, independently
// addressable result.
type ClassificationResult struct {
	RunID         string             `json:"run_id"`
	ProjectID     string             `json:"project_id"`
	Pathway       Pathway            `json:"pathway"`
	Confidence    float64            `json:"confidence"`
	Tier          ConfidenceTier     `json:"tier"`
	MatrixScore   float64            `json:"matrix_score"`
	Triggers      []Trigger          `json:"triggers"`
	Alerts        []Alert            `json:"alerts"`
	Outcomes      []ThresholdOutcome `json:"outcomes"`
	Justification []Reason           `json:"justification"`
	MissingInputs []string           `json:"missing_inputs,omitempty"`
	RulesHash     string             `json:"rules_hash"`
	EvaluatedAt   time.Time          `json:"evaluated_at"`
}
