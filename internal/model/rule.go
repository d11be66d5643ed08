package model

// Operator is a threshold comparison operator. The set is closed; rule files
// with any other operator fail validation.
type Operator string

const (
	OpGTE Operator = ">="
	OpGT  Operator = ">"
	OpLTE Operator = "<="
	OpLT  Operator = "<"
	OpEQ  Operator = "=="
)

var knownOperators = map[Operator]bool{
	OpGTE: true,
	OpGT:  true,
	OpLTE: true,
	OpLT:  true,
	OpEQ:  true,
}

// Valid reports whether op is one of the five known operators.
func (op Operator) Valid() bool {
	return knownOperators[op]
}

// Compare applies op to actual vs threshold.
func (op Operator) Compare(actual, threshold float64) bool {
	switch op {
	case OpGTE:
		return actual >= threshold
	case OpGT:
		return actual > threshold
	case OpLTE:
		return actual <= threshold
	case OpLT:
		return actual < threshold
	case OpEQ:
		return actual == threshold
	default:
		return false
	}
}

// ThresholdRule is one configured numeric or categorical test tied to a
// project type. Rule sets are defined by configuration and read-only to the
// engine.
type ThresholdRule struct {
	ID           string    `json:"id" yaml:"id"`
	Parameter    string    `json:"parameter" yaml:"parameter"`
	Operator     Operator  `json:"operator" yaml:"operator"`
	ValueType    ValueKind `json:"value_type" yaml:"value_type"`
	NumericValue float64   `json:"numeric_value,omitempty" yaml:"numeric_value,omitempty"`
	TextValue    string    `json:"text_value,omitempty" yaml:"text_value,omitempty"`
	Unit         string    `json:"unit,omitempty" yaml:"unit,omitempty"`
	Outcome      string    `json:"outcome" yaml:"outcome"`
	LegalRef     string    `json:"legal_ref,omitempty" yaml:"legal_ref,omitempty"`

	// Letter associates the rule with an Art. 11 letter so the detector
	// knows which condition a satisfied rule feeds. Empty for rules that
	// only gate SEIA entry.
	Letter Letter `json:"letter,omitempty" yaml:"letter,omitempty"`

	// Severity assigned to a trigger raised from this rule. Defaults to
	// HIGH when unset.
	Severity Severity `json:"severity,omitempty" yaml:"severity,omitempty"`

	// Weight in [0,1] used by the matrix score. Defaults to 1.
	Weight float64 `json:"weight,omitempty" yaml:"weight,omitempty"`

	// ProjectTypes restricts the rule to the listed project types. Empty
	// means the rule applies to every type.
	ProjectTypes []string `json:"project_types,omitempty" yaml:"project_types,omitempty"`
}

// AppliesTo reports whether the rule applies to the given project type.
func (r ThresholdRule) AppliesTo(projectType string) bool {
	if len(r.ProjectTypes) == 0 {
		return true
	}
	for _, t := range r.ProjectTypes {
		if t == projectType {
			return true
		}
	}
	return false
}

// OutcomeStatus is the result of evaluating one threshold rule.
type OutcomeStatus string

const (
	// OutcomeSatisfied means the named parameter was present and the
	// comparison held.
	OutcomeSatisfied OutcomeStatus = "satisfied"
	// OutcomeNotSatisfied means the named parameter was present and the
	// comparison did not hold.
	OutcomeNotSatisfied OutcomeStatus = "not_satisfied"
	// OutcomeIndeterminate means the named parameter was absent from the
	// facts. This is expected data, not an error; it lowers confidence
	// instead of aborting the run.
	OutcomeIndeterminate OutcomeStatus = "indeterminate"
)

// ThresholdOutcome records the evaluation of one rule against one fact set,
// including the literal compared values for audit.
type ThresholdOutcome struct {
	Rule         ThresholdRule `json:"rule"`
	Status       OutcomeStatus `json:"status"`
	ActualNumber *float64      `json:"actual_number,omitempty"`
	ActualText   *string       `json:"actual_text,omitempty"`
}

// Satisfied reports whether the outcome fired.
func (o ThresholdOutcome) Satisfied() bool {
	return o.Status == OutcomeSatisfied
}
