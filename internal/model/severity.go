// Package model defines the data types shared by the SEIA classification
// engine: project facts, threshold rules, triggers, alerts, and results.
package model

// Severity is the ordered severity scale shared by triggers and alerts.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// severityRank maps severities to numeric ranks for comparison.
// Higher rank means more severe (CRITICAL is highest).
var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the numeric rank of s, or -1 for unrecognized values.
func (s Severity) Rank() int {
	r, ok := severityRank[s]
	if !ok {
		return -1
	}
	return r
}

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// MaxSeverity returns the more severe of a and b.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// severityPoints maps severities to the point values used by the matrix
// score. The scale is linear so that adding a trigger of any severity can
// only raise the aggregate.
var severityPoints = map[Severity]float64{
	SeverityLow:      25,
	SeverityMedium:   50,
	SeverityHigh:     75,
	SeverityCritical: 100,
}

// Points returns the matrix-score point value for s, or 0 for unrecognized
// values.
func (s Severity) Points() float64 {
	return severityPoints[s]
}
