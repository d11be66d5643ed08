package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atacama-group/seia-cli/internal/model"
)

type stubMessenger struct {
	gotModel  string
	gotSystem string
	gotPrompt string
	reply     string
	err       error
}

func (s *stubMessenger) CreateMessage(_ context.Context, modelID string, _ int64, system, prompt string) (string, error) {
	s.gotModel = modelID
	s.gotSystem = system
	s.gotPrompt = prompt
	return s.reply, s.err
}

func sampleResult() *model.ClassificationResult {
	return &model.ClassificationResult{
		RunID:       "run-1",
		ProjectID:   "MINA-CU-0042",
		Pathway:     model.PathwayEIA,
		Confidence:  0.82,
		Tier:        model.TierHigh,
		MatrixScore: 90,
		Justification: []model.Reason{
			{
				Letter:   model.LetterB,
				Summary:  model.LetterB.Description(),
				Evidence: []string{"project footprint intersects glacier"},
			},
			{Summary: "mining extraction over entry threshold"},
		},
		MissingInputs: []string{"water_extraction_lps"},
	}
}

func TestWriterBuildsPromptFromJustification(t *testing.T) {
	stub := &stubMessenger{reply: "El proyecto debe ingresar mediante EIA."}
	w := NewWriter(stub, "claude-sonnet-4-5-20250929", 1024, 30)

	prose, err := w.Write(context.Background(), sampleResult())
	require.NoError(t, err)
	assert.Equal(t, "El proyecto debe ingresar mediante EIA.", prose)
	assert.Equal(t, "claude-sonnet-4-5-20250929", stub.gotModel)

	// The prompt carries the structured reasons, never invented content.
	assert.Contains(t, stub.gotPrompt, "MINA-CU-0042")
	assert.Contains(t, stub.gotPrompt, "EIA")
	assert.Contains(t, stub.gotPrompt, "[Art. 11 letra b]")
	assert.Contains(t, stub.gotPrompt, "project footprint intersects glacier")
	assert.Contains(t, stub.gotPrompt, "water_extraction_lps")
	assert.Contains(t, stub.gotSystem, "No modifiques la recomendación")
}

func TestWriterPropagatesAPIFailure(t *testing.T) {
	stub := &stubMessenger{err: errors.New("api down")}
	w := NewWriter(stub, "m", 1024, 30)

	_, err := w.Write(context.Background(), sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run run-1")
}

func TestWriterRejectsNilResult(t *testing.T) {
	w := NewWriter(&stubMessenger{}, "m", 1024, 30)
	_, err := w.Write(context.Background(), nil)
	require.Error(t, err)
}

func TestWriterRespectsCancelledContext(t *testing.T) {
	stub := &stubMessenger{reply: "ok"}
	// One request per minute with no burst headroom after the first call.
	w := NewWriter(stub, "m", 1024, 1)

	_, err := w.Write(context.Background(), sampleResult())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = w.Write(ctx, sampleResult())
	require.Error(t, err)
}
