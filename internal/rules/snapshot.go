// Package rules loads and holds the configured rule sets that drive the
// classification engine: threshold rules, proximity distances, severity
// mappings, and scoring weights. A loaded rule set is an immutable snapshot;
// reloads publish a new snapshot instead of mutating rules in place, so
// in-flight evaluations are unaffected.
package rules

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"

	"github.com/atacama-group/seia-cli/internal/model"
)

// ErrNotConfigured is returned when the active rule set has no threshold
// rules for a project's declared type. It is surfaced distinctly so callers
// can report "project type not configured" instead of silently recommending
// DIA.
var ErrNotConfigured = eris.New("rules: project type not configured")

// ProximityConfig holds the distance thresholds per sensitive layer.
// Trigger distances are the legal Art. 11 distances; alert distances are the
// more conservative early-warning distances and must be at least as large.
type ProximityConfig struct {
	TriggerKM map[model.LayerType]float64 `json:"trigger_km" yaml:"trigger_km"`
	AlertKM   map[model.LayerType]float64 `json:"alert_km" yaml:"alert_km"`

	// PopulatedCenterMinPopulation gates letter a: proximity to a populated
	// center only counts when the center exceeds this population.
	PopulatedCenterMinPopulation float64 `json:"populated_center_min_population" yaml:"populated_center_min_population"`
}

// ScoringConfig holds the weighting scheme for confidence and matrix scores.
type ScoringConfig struct {
	// LetterWeights are the per-letter trigger weights in (0,1].
	LetterWeights map[model.Letter]float64 `json:"letter_weights" yaml:"letter_weights"`

	// ClarityFullMargin is the relative margin from a threshold at which a
	// fired signal counts as fully unambiguous. Signals closer to the
	// boundary contribute reduced clarity and therefore lower confidence.
	ClarityFullMargin float64 `json:"clarity_full_margin" yaml:"clarity_full_margin"`
}

// Snapshot is one immutable, versioned rule set. All fields are read-only
// after Load returns.
type Snapshot struct {
	Version    string                             `json:"version" yaml:"version"`
	Thresholds []model.ThresholdRule              `json:"thresholds" yaml:"thresholds"`
	Proximity  ProximityConfig                    `json:"proximity" yaml:"proximity"`
	Severities map[model.LayerType]model.Severity `json:"severities" yaml:"severity"`
	Scoring    ScoringConfig                      `json:"scoring" yaml:"scoring"`

	// Hash identifies the rule set for audit reproducibility. Computed at
	// load time over the canonical JSON encoding of the fields above.
	Hash string `json:"hash" yaml:"-"`

	// LoadedAt records when the snapshot was built. Not part of the hash.
	LoadedAt time.Time `json:"loaded_at" yaml:"-"`
}

// RulesFor returns the threshold rules applying to the given project type.
// Returns ErrNotConfigured when no rule matches.
func (s *Snapshot) RulesFor(projectType string) ([]model.ThresholdRule, error) {
	var matched []model.ThresholdRule
	for _, r := range s.Thresholds {
		if r.AppliesTo(projectType) {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return nil, eris.Wrapf(ErrNotConfigured, "type %q", projectType)
	}
	return matched, nil
}

// TriggerDistance returns the legal trigger distance for a layer, or false
// when none is configured.
func (s *Snapshot) TriggerDistance(layer model.LayerType) (float64, bool) {
	d, ok := s.Proximity.TriggerKM[layer]
	return d, ok
}

// AlertDistance returns the early-warning distance for a layer. Falls back
// to the trigger distance when no dedicated alert distance is configured.
func (s *Snapshot) AlertDistance(layer model.LayerType) (float64, bool) {
	if d, ok := s.Proximity.AlertKM[layer]; ok {
		return d, ok
	}
	d, ok := s.Proximity.TriggerKM[layer]
	return d, ok
}

// Severity returns the configured severity for an intersection with the
// given layer. Defaults to HIGH.
func (s *Snapshot) Severity(layer model.LayerType) model.Severity {
	if sev, ok := s.Severities[layer]; ok {
		return sev
	}
	return model.SeverityHigh
}

// LetterWeight returns the matrix-score weight for a letter. Defaults to 1.
func (s *Snapshot) LetterWeight(l model.Letter) float64 {
	if w, ok := s.Scoring.LetterWeights[l]; ok {
		return w
	}
	return 1.0
}

// computeHash returns a SHA-256 hash of the rule set for reproducibility.
func computeHash(s *Snapshot) string {
	clone := *s
	clone.Hash = ""
	clone.LoadedAt = time.Time{}
	data, err := json.Marshal(clone)
	if err != nil {
		return ""
	}
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:16]) // 32 hex chars
}

// Holder publishes the active snapshot process-wide. Swap replaces it
// atomically; readers that already hold a snapshot keep evaluating against
// it.
type Holder struct {
	p atomic.Pointer[Snapshot]
}

// NewHolder returns a Holder seeded with the given snapshot.
func NewHolder(s *Snapshot) *Holder {
	h := &Holder{}
	h.p.Store(s)
	return h
}

// Current returns the active snapshot, or nil when none has been published.
func (h *Holder) Current() *Snapshot {
	return h.p.Load()
}

// Swap publishes a new snapshot.
func (h *Holder) Swap(s *Snapshot) {
	h.p.Store(s)
}
