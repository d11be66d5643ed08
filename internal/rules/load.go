package rules

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/atacama-group/seia-cli/internal/model"
)

//go:embed defaults.yaml
var defaultsFS embed.FS

const defaultClarityFullMargin = 0.25

// Load reads and validates a rule set from a YAML file, returning an
// immutable snapshot.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "rules: read %s", path)
	}
	return Parse(data)
}

// LoadDefault returns the snapshot built from the embedded default rule set
// (Chilean mining thresholds per DS 40 / Ley 19.300).
func LoadDefault() (*Snapshot, error) {
	data, err := defaultsFS.ReadFile("defaults.yaml")
	if err != nil {
		return nil, eris.Wrap(err, "rules: read embedded defaults")
	}
	return Parse(data)
}

// Parse builds a validated snapshot from raw YAML.
func Parse(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrap(err, "rules: unmarshal")
	}

	applyDefaults(&s)
	if err := Validate(&s); err != nil {
		return nil, err
	}

	s.Hash = computeHash(&s)
	s.LoadedAt = time.Now().UTC()

	zap.L().Info("rules: snapshot loaded",
		zap.String("version", s.Version),
		zap.String("hash", s.Hash),
		zap.Int("thresholds", len(s.Thresholds)),
	)
	return &s, nil
}

// applyDefaults fills unset per-rule severity and weight and the scoring
// margin.
func applyDefaults(s *Snapshot) {
	for i := range s.Thresholds {
		r := &s.Thresholds[i]
		if r.Severity == "" {
			r.Severity = model.SeverityHigh
		}
		if r.Weight == 0 {
			r.Weight = 1.0
		}
		if r.ValueType == "" {
			r.ValueType = model.ValueNumber
		}
	}
	if s.Scoring.ClarityFullMargin == 0 {
		s.Scoring.ClarityFullMargin = defaultClarityFullMargin
	}
}

// Validate checks a snapshot for internal consistency. Rule files that fail
// validation are rejected wholesale; the engine never sees a partial set.
func Validate(s *Snapshot) error {
	var errs []string

	if len(s.Thresholds) == 0 {
		errs = append(errs, "no threshold rules defined")
	}

	seen := make(map[string]bool, len(s.Thresholds))
	for _, r := range s.Thresholds {
		prefix := fmt.Sprintf("rule %q", r.ID)
		if r.ID == "" {
			errs = append(errs, "rule with empty id")
			continue
		}
		if seen[r.ID] {
			errs = append(errs, prefix+": duplicate id")
		}
		seen[r.ID] = true

		if r.Parameter == "" {
			errs = append(errs, prefix+": empty parameter")
		}
		if !r.Operator.Valid() {
			errs = append(errs, fmt.Sprintf("%s: unknown operator %q", prefix, r.Operator))
		}
		switch r.ValueType {
		case model.ValueNumber:
			// Zero is a legal threshold; nothing further to check.
		case model.ValueCategory:
			if r.TextValue == "" {
				errs = append(errs, prefix+": categorical rule with empty text_value")
			}
			if r.Operator != model.OpEQ {
				errs = append(errs, prefix+": categorical rules support only ==")
			}
		default:
			errs = append(errs, fmt.Sprintf("%s: unknown value_type %q", prefix, r.ValueType))
		}
		if r.Letter != "" && !r.Letter.Valid() {
			errs = append(errs, fmt.Sprintf("%s: unknown letter %q", prefix, r.Letter))
		}
		if !r.Severity.Valid() {
			errs = append(errs, fmt.Sprintf("%s: unknown severity %q", prefix, r.Severity))
		}
		if r.Weight < 0 || r.Weight > 1 {
			errs = append(errs, fmt.Sprintf("%s: weight %.2f outside [0,1]", prefix, r.Weight))
		}
	}

	for layer, d := range s.Proximity.TriggerKM {
		if d < 0 {
			errs = append(errs, fmt.Sprintf("trigger distance for %s is negative", layer))
		}
	}
	for layer, d := range s.Proximity.AlertKM {
		if d < 0 {
			errs = append(errs, fmt.Sprintf("alert distance for %s is negative", layer))
		}
		if t, ok := s.Proximity.TriggerKM[layer]; ok && d < t {
			errs = append(errs, fmt.Sprintf("alert distance for %s (%.1f km) below trigger distance (%.1f km)", layer, d, t))
		}
	}

	for layer, sev := range s.Severities {
		if !sev.Valid() {
			errs = append(errs, fmt.Sprintf("unknown severity %q for layer %s", sev, layer))
		}
	}

	for l, w := range s.Scoring.LetterWeights {
		if !l.Valid() {
			errs = append(errs, fmt.Sprintf("weight for unknown letter %q", l))
		}
		if w <= 0 || w > 1 {
			errs = append(errs, fmt.Sprintf("weight for letter %s (%.2f) outside (0,1]", l, w))
		}
	}

	if s.Scoring.ClarityFullMargin <= 0 || s.Scoring.ClarityFullMargin > 1 {
		errs = append(errs, fmt.Sprintf("clarity_full_margin %.2f outside (0,1]", s.Scoring.ClarityFullMargin))
	}

	if len(errs) > 0 {
		return eris.Errorf("rules: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
