// Package audit persists one atomic record per classification run: the full
// input snapshot, the rule-set hash, and the full output. A stored record is
// sufficient to reproduce the decision later without re-running GIS or LLM
// calls.
package audit

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"github.com/atacama-group/seia-cli/internal/model"
)

// Record is the audit trail for one run. Records are insert-only;
// re-analysis of a project creates a new record under a new run ID.
type Record struct {
	RunID     string                     `json:"run_id"`
	ProjectID string                     `json:"project_id"`
	InputHash string                     `json:"input_hash"`
	RulesHash string                     `json:"rules_hash"`
	Facts     model.ProjectFacts         `json:"facts"`
	Result    model.ClassificationResult `json:"result"`
	CreatedAt time.Time                  `json:"created_at"`
}

// NewRecord assembles the audit record for a finished run. The input hash
// covers the facts and the rule-set hash, so two runs with the same hash are
// guaranteed to have evaluated identical inputs.
func NewRecord(facts *model.ProjectFacts, result *model.ClassificationResult) (*Record, error) {
	if facts == nil || result == nil {
		return nil, eris.New("audit: nil facts or result")
	}
	hash, err := InputHash(facts, result.RulesHash)
	if err != nil {
		return nil, err
	}
	return &Record{
		RunID:     result.RunID,
		ProjectID: facts.ProjectID,
		InputHash: hash,
		RulesHash: result.RulesHash,
		Facts:     *facts,
		Result:    *result,
		CreatedAt: result.EvaluatedAt,
	}, nil
}

// InputHash returns a SHA-256 hash over the canonical JSON encoding of the
// facts plus the rule-set hash.
func InputHash(facts *model.ProjectFacts, rulesHash string) (string, error) {
	payload := struct {
		Facts     *model.ProjectFacts `json:"facts"`
		RulesHash string              `json:"rules_hash"`
	}{facts, rulesHash}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", eris.Wrap(err, "audit: marshal input snapshot")
	}
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:16]), nil // 32 hex chars
}
